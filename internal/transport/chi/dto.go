package chi

import (
	"time"

	"github.com/kailas-cloud/docuchat/internal/domain"
	"github.com/kailas-cloud/docuchat/internal/usecase/chat"
	"github.com/kailas-cloud/docuchat/internal/usecase/ingest"
	"github.com/kailas-cloud/docuchat/internal/usecase/session"
)

// ErrorCode identifies an API error category.
type ErrorCode string

const (
	CodeBadRequest              ErrorCode = "bad_request"
	CodeValidationFailed        ErrorCode = "validation_failed"
	CodeSessionNotFound         ErrorCode = "session_not_found"
	CodeSessionBusy             ErrorCode = "session_busy"
	CodeSessionClosed           ErrorCode = "session_closed"
	CodeNoDocument              ErrorCode = "no_document"
	CodeCollectionNotFound      ErrorCode = "collection_not_found"
	CodeUnsupportedFormat       ErrorCode = "unsupported_format"
	CodeCorruptDocument         ErrorCode = "corrupt_document"
	CodeInvalidChunkConfig      ErrorCode = "invalid_chunk_config"
	CodeDimensionMismatch       ErrorCode = "dimension_mismatch"
	CodeEmbeddingProviderError  ErrorCode = "embedding_provider_error"
	CodeGenerationProviderError ErrorCode = "generation_provider_error"
	CodeGenerationTimeout       ErrorCode = "generation_timeout"
	CodeServiceUnavailable      ErrorCode = "service_unavailable"
	CodeInternalError           ErrorCode = "internal_error"
)

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// SessionResponse is a session snapshot.
type SessionResponse struct {
	ID        string    `json:"id"`
	State     string    `json:"state"`
	Document  string    `json:"document,omitempty"`
	Turns     int       `json:"turns"`
	CreatedAt time.Time `json:"created_at"`
	LastUsed  time.Time `json:"last_used"`
}

// SessionListResponse wraps all open sessions.
type SessionListResponse struct {
	Items []SessionResponse `json:"items"`
	Total int               `json:"total"`
}

// IngestResponse reports a completed document ingestion.
type IngestResponse struct {
	DocumentID      string `json:"document_id"`
	ChunksWritten   int    `json:"chunks_written"`
	EmbeddingTokens int    `json:"embedding_tokens"`
}

// AskRequest carries a question for the session's document.
type AskRequest struct {
	Question string `json:"question"`
}

// ContextChunk is one retrieved chunk returned alongside an answer.
type ContextChunk struct {
	DocumentID string  `json:"document_id"`
	Ordinal    int     `json:"ordinal"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
}

// AskResponse carries the generated answer and its supporting context.
type AskResponse struct {
	Answer  string         `json:"answer"`
	Context []ContextChunk `json:"context"`
}

// TurnResponse is one conversation turn.
type TurnResponse struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// HistoryResponse wraps a session's conversation so far.
type HistoryResponse struct {
	Turns []TurnResponse `json:"turns"`
}

// HealthResponse reports aggregated component health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func sessionToDTO(info session.Info) SessionResponse {
	return SessionResponse{
		ID:        info.ID,
		State:     string(info.State),
		Document:  info.Document,
		Turns:     info.Turns,
		CreatedAt: info.CreatedAt.UTC(),
		LastUsed:  info.LastUsed.UTC(),
	}
}

func ingestToDTO(res ingest.Result) IngestResponse {
	return IngestResponse{
		DocumentID:      res.DocumentID,
		ChunksWritten:   res.ChunksWritten,
		EmbeddingTokens: res.TokensUsed,
	}
}

func answerToDTO(a chat.Answer) AskResponse {
	ctx := make([]ContextChunk, len(a.Context))
	for i, sc := range a.Context {
		ctx[i] = ContextChunk{
			DocumentID: sc.Chunk.DocumentID,
			Ordinal:    sc.Chunk.Ordinal,
			Text:       sc.Chunk.Text,
			Score:      sc.Score,
		}
	}
	return AskResponse{Answer: a.Text, Context: ctx}
}

func historyToDTO(h domain.History) HistoryResponse {
	turns := make([]TurnResponse, len(h))
	for i, t := range h {
		turns[i] = TurnResponse{Role: string(t.Role), Content: t.Content}
	}
	return HistoryResponse{Turns: turns}
}
