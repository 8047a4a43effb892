package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docuchat/internal/chunker"
	"github.com/kailas-cloud/docuchat/internal/domain"
	"github.com/kailas-cloud/docuchat/internal/metrics"
	"github.com/kailas-cloud/docuchat/internal/retry"
)

// Config holds the ingestion pipeline settings.
type Config struct {
	Collection   string
	ChunkSize    int
	ChunkOverlap int
	Metric       domain.Metric
	Normalize    bool
	MaxRetries   int
}

// Service runs the ingestion pipeline: extract, chunk, embed, upsert.
type Service struct {
	extractor Extractor
	embedder  Embedder
	index     Index
	cfg       Config
	logger    *zap.Logger
}

// New creates an ingest service.
func New(extractor Extractor, embedder Embedder, index Index, cfg Config, logger *zap.Logger) *Service {
	return &Service{
		extractor: extractor,
		embedder:  embedder,
		index:     index,
		cfg:       cfg,
		logger:    logger,
	}
}

// Params describes one ingest request. Zero ChunkSize or ChunkOverlap
// selects the configured value for that knob.
type Params struct {
	Filename     string
	Data         []byte
	DocumentID   string // optional, generated when empty
	ChunkSize    int
	ChunkOverlap int
	Reset        bool // drop the collection before writing
}

// Result reports what one ingest wrote.
type Result struct {
	DocumentID    string
	ChunksWritten int
	TokensUsed    int
}

// Ingest runs the full pipeline. All embeddings are computed before the
// first index write, so an embedding failure leaves the collection
// exactly as it was.
func (s *Service) Ingest(ctx context.Context, p Params) (Result, error) {
	start := time.Now()

	res, err := s.ingest(ctx, p)

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.IngestDuration.WithLabelValues(s.cfg.Collection, status).Observe(time.Since(start).Seconds())

	return res, err
}

func (s *Service) ingest(ctx context.Context, p Params) (Result, error) {
	text, err := s.extractor.Extract(ctx, p.Filename, p.Data)
	if err != nil {
		return Result{}, fmt.Errorf("extract document: %w", err)
	}

	size, overlap := s.cfg.ChunkSize, s.cfg.ChunkOverlap
	if p.ChunkSize > 0 {
		size = p.ChunkSize
	}
	if p.ChunkOverlap > 0 {
		overlap = p.ChunkOverlap
	}
	ch, err := chunker.New(size, overlap)
	if err != nil {
		return Result{}, fmt.Errorf("configure chunker: %w", err)
	}

	docID := p.DocumentID
	if docID == "" {
		docID = contentID(p.Data)
	}

	chunks := ch.Chunk(docID, text)
	if len(chunks) == 0 {
		s.logger.Info("document produced no chunks",
			zap.String("document_id", docID),
			zap.String("filename", p.Filename))
		return Result{DocumentID: docID}, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	batch, err := s.embedChunks(ctx, texts)
	if err != nil {
		return Result{}, fmt.Errorf("embed chunks: %w", err)
	}
	if len(batch.Embeddings) != len(chunks) {
		return Result{}, fmt.Errorf(
			"embedder returned %d vectors for %d chunks: %w",
			len(batch.Embeddings), len(chunks), domain.ErrEmbeddingProvider)
	}

	dim := len(batch.Embeddings[0])
	if dim == 0 {
		return Result{}, fmt.Errorf("embedder returned empty vectors: %w", domain.ErrEmbeddingProvider)
	}

	entries := make([]domain.IndexEntry, len(chunks))
	for i, c := range chunks {
		vec := batch.Embeddings[i]
		if len(vec) != dim {
			return Result{}, fmt.Errorf(
				"chunk %d has dim %d, expected %d: %w",
				i, len(vec), dim, domain.ErrEmbeddingProvider)
		}
		if s.cfg.Normalize {
			vec = domain.Normalize(vec)
		}
		entries[i] = domain.IndexEntry{Chunk: c, Vector: vec}
	}

	if p.Reset {
		if err := s.index.Reset(ctx, s.cfg.Collection); err != nil &&
			!errors.Is(err, domain.ErrCollectionNotFound) {
			return Result{}, fmt.Errorf("reset collection: %w", err)
		}
	}

	if err := s.index.EnsureCollection(ctx, s.cfg.Collection, dim, s.cfg.Metric); err != nil {
		return Result{}, fmt.Errorf("ensure collection: %w", err)
	}

	if err := s.index.Upsert(ctx, s.cfg.Collection, entries); err != nil {
		return Result{}, fmt.Errorf("upsert chunks: %w", err)
	}

	metrics.IngestedChunksTotal.WithLabelValues(s.cfg.Collection).Add(float64(len(entries)))
	s.logger.Info("document ingested",
		zap.String("document_id", docID),
		zap.String("filename", p.Filename),
		zap.Int("chunks", len(entries)),
		zap.Int("dim", dim))

	return Result{
		DocumentID:    docID,
		ChunksWritten: len(entries),
		TokensUsed:    batch.TotalTokens,
	}, nil
}

// contentID derives a stable document ID from the raw upload, so
// re-ingesting identical content overwrites its chunks instead of
// duplicating them.
func contentID(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}

// embedChunks retries transient provider failures with backoff; anything
// else aborts immediately.
func (s *Service) embedChunks(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	var batch domain.BatchEmbeddingResult
	err := retry.Do(ctx, retry.Options{MaxRetries: s.cfg.MaxRetries}, func() error {
		res, err := s.embedder.BatchEmbed(ctx, texts)
		if err != nil {
			if errors.Is(err, domain.ErrEmbeddingProvider) {
				return err
			}
			return retry.Permanent(err)
		}
		batch = res
		return nil
	})
	return batch, err
}
