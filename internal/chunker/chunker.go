// Package chunker splits extracted text into overlapping windows for embedding.
package chunker

import (
	"fmt"

	"github.com/kailas-cloud/docuchat/internal/domain"
)

// Default chunking parameters, in runes.
const (
	DefaultSize    = 500
	DefaultOverlap = 50
)

// Chunker produces fixed-size overlapping chunks measured in runes.
// Boundaries are deterministic: the same text and config always yield
// identical chunks.
type Chunker struct {
	size    int
	overlap int
}

// New validates the configuration and creates a chunker.
// Returns domain.ErrInvalidChunkConfig unless 0 < overlap < size.
func New(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size %d must be positive: %w", size, domain.ErrInvalidChunkConfig)
	}
	if overlap < 1 {
		return nil, fmt.Errorf("overlap %d must be positive: %w", overlap, domain.ErrInvalidChunkConfig)
	}
	if overlap >= size {
		return nil, fmt.Errorf(
			"overlap %d must be smaller than chunk size %d: %w",
			overlap, size, domain.ErrInvalidChunkConfig,
		)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Chunk splits text into chunks covering the whole input, each consecutive
// pair sharing exactly the configured overlap. The final chunk may be
// shorter than the configured size but is never empty. Empty input yields
// no chunks.
func (c *Chunker) Chunk(documentID, text string) []domain.Chunk {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	step := c.size - c.overlap
	var chunks []domain.Chunk

	for start, ordinal := 0, 0; start < len(runes); start, ordinal = start+step, ordinal+1 {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, domain.NewChunk(documentID, ordinal, string(runes[start:end])))
		if end == len(runes) {
			break
		}
	}

	return chunks
}

// Size returns the configured chunk size in runes.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the configured overlap in runes.
func (c *Chunker) Overlap() int { return c.overlap }
