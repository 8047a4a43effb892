package domain

import "errors"

// Input errors — rejected before any service call, user-correctable.
var (
	// ErrUnsupportedFormat signals a document format no extractor handles.
	ErrUnsupportedFormat = errors.New("unsupported document format")
	// ErrCorruptInput signals a document that failed to parse mid-stream.
	ErrCorruptInput = errors.New("corrupt document input")
	// ErrInvalidChunkConfig signals invalid chunk size or overlap.
	ErrInvalidChunkConfig = errors.New("invalid chunk configuration")
)

// Service errors — transport or service-side failures of an external
// dependency. Embedding and search are idempotent and retryable; generation
// is not retried implicitly.
var (
	// ErrEmbeddingProvider signals an embedding provider failure.
	ErrEmbeddingProvider = errors.New("embedding provider error")
	// ErrGenerationProvider signals a generation provider failure.
	ErrGenerationProvider = errors.New("generation provider error")
	// ErrGenerationTimeout signals that generation exceeded its deadline.
	ErrGenerationTimeout = errors.New("generation timed out")
	// ErrServiceUnavailable signals a vector store transport failure.
	ErrServiceUnavailable = errors.New("vector store unavailable")
)

// Consistency errors — fatal for the current operation, never auto-repaired.
var (
	// ErrCollectionNotFound signals a search against a missing collection.
	ErrCollectionNotFound = errors.New("collection not found")
	// ErrDimensionMismatch signals a vector dimension conflict with an
	// existing collection.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// Session errors.
var (
	// ErrNoDocument signals an ask before any successful ingest.
	ErrNoDocument = errors.New("no document ingested")
	// ErrSessionBusy signals a concurrent operation on the same session.
	ErrSessionBusy = errors.New("session busy")
	// ErrSessionClosed signals an operation on a torn-down session.
	ErrSessionClosed = errors.New("session closed")
	// ErrSessionNotFound signals an unknown session handle.
	ErrSessionNotFound = errors.New("session not found")
)
