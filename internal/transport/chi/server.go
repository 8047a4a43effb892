package chi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docuchat/internal/domain"
	healthuc "github.com/kailas-cloud/docuchat/internal/usecase/health"
	sessionuc "github.com/kailas-cloud/docuchat/internal/usecase/session"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server is the HTTP surface over sessions, ingest and ask.
type Server struct {
	sessions      *sessionuc.Manager
	health        *healthuc.Service
	maxUploadMB   int
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	sessions *sessionuc.Manager,
	health *healthuc.Service,
	maxUploadMB int,
	logger *zap.Logger,
) *Server {
	s := &Server{
		sessions:    sessions,
		health:      health,
		maxUploadMB: maxUploadMB,
		logger:      logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrSessionNotFound, http.StatusNotFound, CodeSessionNotFound),
		sentinelHandler(domain.ErrSessionClosed, http.StatusGone, CodeSessionClosed),
		sentinelHandler(domain.ErrSessionBusy, http.StatusConflict, CodeSessionBusy),
		sentinelHandler(domain.ErrNoDocument, http.StatusConflict, CodeNoDocument),
		sentinelHandler(domain.ErrUnsupportedFormat, http.StatusUnsupportedMediaType, CodeUnsupportedFormat),
		sentinelHandler(domain.ErrCorruptInput, http.StatusUnprocessableEntity, CodeCorruptDocument),
		sentinelHandler(domain.ErrInvalidChunkConfig, http.StatusBadRequest, CodeInvalidChunkConfig),
		sentinelHandler(domain.ErrCollectionNotFound, http.StatusNotFound, CodeCollectionNotFound),
		sentinelHandler(domain.ErrDimensionMismatch, http.StatusConflict, CodeDimensionMismatch),
		sentinelHandler(domain.ErrEmbeddingProvider, http.StatusBadGateway, CodeEmbeddingProviderError),
		sentinelHandler(domain.ErrGenerationTimeout, http.StatusGatewayTimeout, CodeGenerationTimeout),
		sentinelHandler(domain.ErrGenerationProvider, http.StatusBadGateway, CodeGenerationProviderError),
		sentinelHandler(domain.ErrServiceUnavailable, http.StatusServiceUnavailable, CodeServiceUnavailable),
	}
	return s
}

// Register mounts all API routes on the given router.
func (s *Server) Register(r chi.Router) {
	r.Route("/api/v1/sessions", func(r chi.Router) {
		r.Post("/", s.CreateSession)
		r.Get("/", s.ListSessions)
		r.Route("/{session}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.CloseSession)
			r.Get("/history", s.GetHistory)
			r.Post("/documents", s.IngestDocument)
			r.Post("/ask", s.Ask)
		})
	})
	r.Get("/healthz", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// CreateSession handles POST /api/v1/sessions.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	info := s.sessions.Create(r.Context())
	w.Header().Set("Location", "/api/v1/sessions/"+info.ID)
	writeJSON(w, http.StatusCreated, sessionToDTO(info))
}

// ListSessions handles GET /api/v1/sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	infos := s.sessions.List(r.Context())

	items := make([]SessionResponse, len(infos))
	for i, info := range infos {
		items[i] = sessionToDTO(info)
	}

	writeJSON(w, http.StatusOK, SessionListResponse{Items: items, Total: len(items)})
}

// GetSession handles GET /api/v1/sessions/{session}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	info, err := s.sessions.Get(r.Context(), chi.URLParam(r, "session"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionToDTO(info))
}

// CloseSession handles DELETE /api/v1/sessions/{session}.
func (s *Server) CloseSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Close(r.Context(), chi.URLParam(r, "session")); err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetHistory handles GET /api/v1/sessions/{session}/history.
func (s *Server) GetHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.sessions.History(r.Context(), chi.URLParam(r, "session"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, historyToDTO(history))
}

// IngestDocument handles POST /api/v1/sessions/{session}/documents.
// Expects a multipart form with the document under the "file" field;
// chunk_size, chunk_overlap and reset are optional form values.
func (s *Server) IngestDocument(w http.ResponseWriter, r *http.Request) {
	maxBytes := int64(s.maxUploadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, CodeBadRequest,
				"upload exceeds "+strconv.Itoa(s.maxUploadMB)+" MB")
			return
		}
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, `multipart field "file" is required`)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "read upload: "+err.Error())
		return
	}

	opts, err := ingestOptionsFromForm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	res, err := s.sessions.Ingest(r.Context(), chi.URLParam(r, "session"), header.Filename, data, opts)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, ingestToDTO(res))
}

// Ask handles POST /api/v1/sessions/{session}/ask.
func (s *Server) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "question is required")
		return
	}

	answer, err := s.sessions.Ask(r.Context(), chi.URLParam(r, "session"), req.Question)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, answerToDTO(answer))
}

// HealthCheck handles GET /healthz.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func ingestOptionsFromForm(r *http.Request) (sessionuc.IngestOptions, error) {
	var opts sessionuc.IngestOptions

	if v := r.FormValue("chunk_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return opts, errors.New("chunk_size must be a positive integer")
		}
		opts.ChunkSize = n
	}
	if v := r.FormValue("chunk_overlap"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return opts, errors.New("chunk_overlap must be a positive integer")
		}
		opts.ChunkOverlap = n
	}
	if v := r.FormValue("reset"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, errors.New("reset must be a boolean")
		}
		opts.Reset = b
	}

	return opts, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrSessionNotFound,
		domain.ErrSessionClosed,
		domain.ErrSessionBusy,
		domain.ErrNoDocument,
		domain.ErrUnsupportedFormat,
		domain.ErrCorruptInput,
		domain.ErrInvalidChunkConfig,
		domain.ErrCollectionNotFound,
		domain.ErrDimensionMismatch,
		domain.ErrEmbeddingProvider,
		domain.ErrGenerationTimeout,
		domain.ErrGenerationProvider,
		domain.ErrServiceUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
