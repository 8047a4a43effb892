package domain

import "fmt"

// KeyPrefix namespaces all docuchat keys in the backing store.
const KeyPrefix = "docuchat:"

// Chunk is a bounded slice of source text, the unit of embedding and retrieval.
// Immutable once created.
type Chunk struct {
	ID         string
	DocumentID string
	Text       string
	Ordinal    int
}

// NewChunk creates a chunk with a deterministic ID derived from the document
// and ordinal, so re-ingesting the same document overwrites instead of
// duplicating.
func NewChunk(documentID string, ordinal int, text string) Chunk {
	return Chunk{
		ID:         fmt.Sprintf("%s:%d", documentID, ordinal),
		DocumentID: documentID,
		Text:       text,
		Ordinal:    ordinal,
	}
}

// IndexEntry pairs a chunk with its embedding vector for upsert.
type IndexEntry struct {
	Chunk  Chunk
	Vector []float32
}

// ScoredChunk is a retrieved chunk with its similarity score.
type ScoredChunk struct {
	Chunk Chunk
	Score float64
}
