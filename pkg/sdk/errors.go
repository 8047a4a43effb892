package docuchat

import (
	"fmt"

	"github.com/kailas-cloud/docuchat/internal/domain"
)

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrSessionNotFound    = domain.ErrSessionNotFound
	ErrSessionBusy        = domain.ErrSessionBusy
	ErrSessionClosed      = domain.ErrSessionClosed
	ErrNoDocument         = domain.ErrNoDocument
	ErrUnsupportedFormat  = domain.ErrUnsupportedFormat
	ErrCorruptInput       = domain.ErrCorruptInput
	ErrInvalidChunkConfig = domain.ErrInvalidChunkConfig
	ErrCollectionNotFound = domain.ErrCollectionNotFound
	ErrDimensionMismatch  = domain.ErrDimensionMismatch
	ErrEmbeddingProvider  = domain.ErrEmbeddingProvider
	ErrGenerationProvider = domain.ErrGenerationProvider
	ErrGenerationTimeout  = domain.ErrGenerationTimeout
	ErrServiceUnavailable = domain.ErrServiceUnavailable
)

// codeSentinels maps API error codes back to sentinel errors.
var codeSentinels = map[string]error{
	"session_not_found":         ErrSessionNotFound,
	"session_busy":              ErrSessionBusy,
	"session_closed":            ErrSessionClosed,
	"no_document":               ErrNoDocument,
	"unsupported_format":        ErrUnsupportedFormat,
	"corrupt_document":          ErrCorruptInput,
	"invalid_chunk_config":      ErrInvalidChunkConfig,
	"collection_not_found":      ErrCollectionNotFound,
	"dimension_mismatch":        ErrDimensionMismatch,
	"embedding_provider_error":  ErrEmbeddingProvider,
	"generation_provider_error": ErrGenerationProvider,
	"generation_timeout":        ErrGenerationTimeout,
	"service_unavailable":       ErrServiceUnavailable,
}

// APIError is a non-2xx response from the docuchat API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("docuchat: %s (%d): %s", e.Code, e.StatusCode, e.Message)
}

// Unwrap maps the API error code to a sentinel error so callers can use errors.Is.
func (e *APIError) Unwrap() error {
	return codeSentinels[e.Code]
}
