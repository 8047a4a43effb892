package retrieve

import (
	"context"

	"github.com/kailas-cloud/docuchat/internal/domain"
)

// Embedder vectorizes the query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Index defines the vector index contract for retrieval.
type Index interface {
	Search(ctx context.Context, collection string, vector []float32, k int) ([]domain.ScoredChunk, error)
}
