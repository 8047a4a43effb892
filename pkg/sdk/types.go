package docuchat

import "time"

// Session is a conversation snapshot.
type Session struct {
	ID        string    `json:"id"`
	State     string    `json:"state"`
	Document  string    `json:"document,omitempty"`
	Turns     int       `json:"turns"`
	CreatedAt time.Time `json:"created_at"`
	LastUsed  time.Time `json:"last_used"`
}

// IngestOptions are optional per-upload ingestion knobs.
// Zero values fall back to the server defaults.
type IngestOptions struct {
	ChunkSize    int
	ChunkOverlap int
	Reset        bool
}

// IngestResult reports a completed document ingestion.
type IngestResult struct {
	DocumentID      string `json:"document_id"`
	ChunksWritten   int    `json:"chunks_written"`
	EmbeddingTokens int    `json:"embedding_tokens"`
}

// ContextChunk is one retrieved chunk supporting an answer.
type ContextChunk struct {
	DocumentID string  `json:"document_id"`
	Ordinal    int     `json:"ordinal"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
}

// Answer is a generated answer with its supporting context.
type Answer struct {
	Text    string         `json:"answer"`
	Context []ContextChunk `json:"context"`
}

// Turn is one conversation turn.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Health reports aggregated component health.
type Health struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
