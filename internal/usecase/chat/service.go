package chat

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docuchat/internal/domain"
)

// Config holds the answering settings.
type Config struct {
	TopK         int
	Temperature  float32
	HistoryTurns int
	PromptBudget int
}

// Service answers questions grounded in retrieved document chunks.
type Service struct {
	retriever Retriever
	generator Generator
	prompts   *PromptBuilder
	cfg       Config
	logger    *zap.Logger
}

// New creates a chat service.
func New(retriever Retriever, generator Generator, cfg Config, logger *zap.Logger) *Service {
	return &Service{
		retriever: retriever,
		generator: generator,
		prompts:   NewPromptBuilder(cfg.HistoryTurns, cfg.PromptBudget),
		cfg:       cfg,
		logger:    logger,
	}
}

// Answer is a generated reply together with the retrieval context it was
// grounded in. An empty Context means the index had no matches, not a
// failure.
type Answer struct {
	Text    string
	Context []domain.ScoredChunk
}

// Ask runs retrieve, build prompt, generate. Retrieval and generation
// errors propagate unchanged so the transport can map them.
func (s *Service) Ask(ctx context.Context, question string, history domain.History) (Answer, error) {
	chunks, err := s.retriever.Retrieve(ctx, question, s.cfg.TopK)
	if err != nil {
		return Answer{}, fmt.Errorf("retrieve context: %w", err)
	}

	prompt, used := s.prompts.Build(question, chunks, history)

	text, err := s.generator.Generate(ctx, prompt, s.cfg.Temperature)
	if err != nil {
		return Answer{}, fmt.Errorf("generate answer: %w", err)
	}

	s.logger.Debug("question answered",
		zap.Int("chunks_retrieved", len(chunks)),
		zap.Int("chunks_used", len(used)),
		zap.Int("prompt_len", len(prompt)))

	return Answer{Text: text, Context: used}, nil
}
