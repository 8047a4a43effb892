package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docuchat/internal/config"
	dbRedis "github.com/kailas-cloud/docuchat/internal/db/redis"
	"github.com/kailas-cloud/docuchat/internal/domain"
	"github.com/kailas-cloud/docuchat/internal/extract"
	logpkg "github.com/kailas-cloud/docuchat/internal/logger"
	"github.com/kailas-cloud/docuchat/internal/metrics"
	"github.com/kailas-cloud/docuchat/internal/repository/embcache"
	indexrepo "github.com/kailas-cloud/docuchat/internal/repository/index"
	chiTransport "github.com/kailas-cloud/docuchat/internal/transport/chi"
	openaiTransport "github.com/kailas-cloud/docuchat/internal/transport/openai"
	chatuc "github.com/kailas-cloud/docuchat/internal/usecase/chat"
	healthuc "github.com/kailas-cloud/docuchat/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/docuchat/internal/usecase/ingest"
	retrieveuc "github.com/kailas-cloud/docuchat/internal/usecase/retrieve"
	sessionuc "github.com/kailas-cloud/docuchat/internal/usecase/session"
	"github.com/kailas-cloud/docuchat/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting docuchat API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.String("generation_model", cfg.Generation.Model),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register pipeline metrics explicitly (no init())
	metrics.RegisterRAGMetrics()

	// Embedder with optional cache decorator
	baseEmbedder := openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Timeout:    time.Duration(cfg.Embedding.TimeoutSec) * time.Second,
		Logger:     logger,
	})
	var embedder interface {
		domain.Embedder
		domain.BatchEmbedder
	} = baseEmbedder
	if cfg.Embedding.Cache {
		embedder = embcache.New(baseEmbedder, store, cfg.Embedding.Model, metrics.EmbeddingCacheTotal, logger).
			WithKeyPrefix(cfg.Storage.KeyPrefix)
	}

	generator := openaiTransport.NewGenerator(&openaiTransport.GeneratorConfig{
		APIKey:    cfg.Generation.APIKey,
		BaseURL:   cfg.Generation.BaseURL,
		Model:     cfg.Generation.Model,
		MaxTokens: cfg.Generation.MaxTokens,
		Timeout:   time.Duration(cfg.Generation.TimeoutSec) * time.Second,
		Logger:    logger,
	})

	indexRepo := indexrepo.New(store).
		WithHNSW(indexrepo.HNSWConfig{
			M:           cfg.Index.HNSWM,
			EFConstruct: cfg.Index.HNSWEFConstruct,
		}).
		WithKeyPrefix(cfg.Storage.KeyPrefix)

	metric, err := domain.ParseMetric(cfg.Ingest.Metric)
	if err != nil {
		logger.Fatal("Invalid ingest metric", zap.Error(err))
	}

	extractor := extract.New()

	ingestSvc := ingestuc.New(extractor, embedder, indexRepo, ingestuc.Config{
		Collection:   cfg.Ingest.Collection,
		ChunkSize:    cfg.Ingest.ChunkSize,
		ChunkOverlap: cfg.Ingest.ChunkOverlap,
		Metric:       metric,
		Normalize:    cfg.Embedding.Normalize,
		MaxRetries:   cfg.Embedding.MaxRetries,
	}, logger)

	retrieveSvc := retrieveuc.New(embedder, indexRepo, retrieveuc.Config{
		Collection: cfg.Ingest.Collection,
		TopK:       cfg.Retrieval.TopK,
		Normalize:  cfg.Embedding.Normalize,
		MaxRetries: cfg.Embedding.MaxRetries,
	}, logger)

	chatSvc := chatuc.New(retrieveSvc, generator, chatuc.Config{
		TopK:         cfg.Retrieval.TopK,
		Temperature:  cfg.Generation.Temperature,
		HistoryTurns: cfg.Retrieval.HistoryTurns,
		PromptBudget: cfg.Retrieval.PromptBudget,
	}, logger)

	sessions := sessionuc.NewManager(ingestSvc, chatSvc, cfg.Storage.UploadDir, logger)

	healthSvc := healthuc.New(store, baseEmbedder, generator)

	server := chiTransport.NewServer(sessions, healthSvc, cfg.HTTP.MaxUploadMB, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
