package session

import (
	"context"

	"github.com/kailas-cloud/docuchat/internal/domain"
	"github.com/kailas-cloud/docuchat/internal/usecase/chat"
	"github.com/kailas-cloud/docuchat/internal/usecase/ingest"
)

// Ingestor runs the document ingestion pipeline.
type Ingestor interface {
	Ingest(ctx context.Context, p ingest.Params) (ingest.Result, error)
}

// Asker answers a question against the ingested material.
type Asker interface {
	Ask(ctx context.Context, question string, history domain.History) (chat.Answer, error)
}
