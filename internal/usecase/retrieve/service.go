package retrieve

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docuchat/internal/domain"
	"github.com/kailas-cloud/docuchat/internal/retry"
)

// Config holds the retrieval settings.
type Config struct {
	Collection string
	TopK       int
	Normalize  bool
	MaxRetries int
}

// Service embeds a question and searches the vector index.
type Service struct {
	embedder Embedder
	index    Index
	cfg      Config
	logger   *zap.Logger
}

// New creates a retrieve service.
func New(embedder Embedder, index Index, cfg Config, logger *zap.Logger) *Service {
	return &Service{
		embedder: embedder,
		index:    index,
		cfg:      cfg,
		logger:   logger,
	}
}

// Retrieve returns the top-k chunks most similar to the question.
// k <= 0 uses the configured default. An empty result is a valid answer;
// a missing collection surfaces as ErrCollectionNotFound.
func (s *Service) Retrieve(ctx context.Context, question string, k int) ([]domain.ScoredChunk, error) {
	if k <= 0 {
		k = s.cfg.TopK
	}

	vec, err := s.embedQuery(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if s.cfg.Normalize {
		vec = domain.Normalize(vec)
	}

	chunks, err := s.index.Search(ctx, s.cfg.Collection, vec, k)
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}

	s.logger.Debug("retrieved chunks",
		zap.Int("requested", k),
		zap.Int("returned", len(chunks)))

	return chunks, nil
}

// embedQuery retries transient provider failures with backoff.
func (s *Service) embedQuery(ctx context.Context, question string) ([]float32, error) {
	var vec []float32
	err := retry.Do(ctx, retry.Options{MaxRetries: s.cfg.MaxRetries}, func() error {
		res, err := s.embedder.Embed(ctx, question)
		if err != nil {
			if errors.Is(err, domain.ErrEmbeddingProvider) {
				return err
			}
			return retry.Permanent(err)
		}
		vec = res.Embedding
		return nil
	})
	return vec, err
}
