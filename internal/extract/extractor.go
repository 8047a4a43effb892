// Package extract turns uploaded documents into plain text for indexing.
package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kailas-cloud/docuchat/internal/domain"
)

// Extractor converts one document format into plain text.
type Extractor interface {
	// Extract returns plain text preserving reading order.
	Extract(ctx context.Context, data []byte) (string, error)
	// Supports reports whether the extractor handles the file.
	Supports(filename string, data []byte) bool
}

// Service routes a document to the first extractor that supports it.
type Service struct {
	extractors []Extractor
}

// New creates an extraction service with the default format set.
func New() *Service {
	return &Service{
		extractors: []Extractor{
			&PDF{},
			&Plaintext{},
		},
	}
}

// Extract converts a document into plain text.
// Returns domain.ErrUnsupportedFormat when no extractor claims the file.
func (s *Service) Extract(ctx context.Context, filename string, data []byte) (string, error) {
	for _, e := range s.extractors {
		if !e.Supports(filename, data) {
			continue
		}
		text, err := e.Extract(ctx, data)
		if err != nil {
			return "", fmt.Errorf("extract %s: %w", filepath.Base(filename), err)
		}
		return text, nil
	}
	return "", fmt.Errorf("extract %s: %w", filepath.Base(filename), domain.ErrUnsupportedFormat)
}

// ext returns the lowercase file extension without the dot.
func ext(filename string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
}
