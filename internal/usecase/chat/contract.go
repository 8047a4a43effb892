package chat

import (
	"context"

	"github.com/kailas-cloud/docuchat/internal/domain"
)

// Retriever returns chunks relevant to the question, best first.
type Retriever interface {
	Retrieve(ctx context.Context, question string, k int) ([]domain.ScoredChunk, error)
}

// Generator produces an answer from a fully assembled prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, temperature float32) (string, error)
}
