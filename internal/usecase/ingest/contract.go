package ingest

import (
	"context"

	"github.com/kailas-cloud/docuchat/internal/domain"
)

// Extractor converts an uploaded document into plain text.
type Extractor interface {
	Extract(ctx context.Context, filename string, data []byte) (string, error)
}

// Embedder vectorizes chunk texts in one order-preserving call.
type Embedder interface {
	BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}

// Index defines the vector index contract for ingestion.
type Index interface {
	EnsureCollection(ctx context.Context, name string, dim int, metric domain.Metric) error
	Upsert(ctx context.Context, collection string, entries []domain.IndexEntry) error
	Reset(ctx context.Context, collection string) error
}
