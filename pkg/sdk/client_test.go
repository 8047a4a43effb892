package docuchat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCreateSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/sessions" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"s-1","state":"no_document","turns":0}`))
	}))
	defer server.Close()

	client := New(server.URL, WithAPIKey("secret"))

	sess, err := client.CreateSession(context.Background())
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if sess.ID != "s-1" || sess.State != "no_document" {
		t.Errorf("session = %+v", sess)
	}
}

func TestIngest_MultipartUpload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/sessions/s-1/documents" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()

		if header.Filename != "report.pdf" {
			t.Errorf("filename = %q", header.Filename)
		}
		data, _ := io.ReadAll(file)
		if string(data) != "pdf bytes" {
			t.Errorf("data = %q", data)
		}
		if got := r.FormValue("chunk_size"); got != "300" {
			t.Errorf("chunk_size = %q", got)
		}
		if got := r.FormValue("reset"); got != "true" {
			t.Errorf("reset = %q", got)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"document_id":"deadbeef01234567","chunks_written":4,"embedding_tokens":31}`))
	}))
	defer server.Close()

	client := New(server.URL)

	res, err := client.Ingest(context.Background(), "s-1", "report.pdf", []byte("pdf bytes"),
		&IngestOptions{ChunkSize: 300, Reset: true})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if res.DocumentID != "deadbeef01234567" || res.ChunksWritten != 4 || res.EmbeddingTokens != 31 {
		t.Errorf("result = %+v", res)
	}
}

func TestAsk(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/sessions/s-1/ask" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		var req struct {
			Question string `json:"question"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Question != "what is this?" {
			t.Errorf("question = %q", req.Question)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"answer": "a summary",
			"context": [{"document_id":"d1","ordinal":2,"text":"relevant text","score":0.87}]
		}`))
	}))
	defer server.Close()

	client := New(server.URL)

	answer, err := client.Ask(context.Background(), "s-1", "what is this?")
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if answer.Text != "a summary" {
		t.Errorf("answer = %q", answer.Text)
	}
	if len(answer.Context) != 1 || answer.Context[0].Score != 0.87 {
		t.Errorf("context = %+v", answer.Context)
	}
}

func TestHistory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/sessions/s-1/history" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"turns":[{"role":"user","content":"hi"},{"role":"assistant","content":"hello"}]}`))
	}))
	defer server.Close()

	client := New(server.URL)

	turns, err := client.History(context.Background(), "s-1")
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(turns) != 2 || turns[1].Role != "assistant" {
		t.Errorf("turns = %+v", turns)
	}
}

func TestCloseSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/api/v1/sessions/s-1" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := New(server.URL)

	if err := client.CloseSession(context.Background(), "s-1"); err != nil {
		t.Fatalf("CloseSession failed: %v", err)
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		code     string
		sentinel error
	}{
		{"session not found", http.StatusNotFound, "session_not_found", ErrSessionNotFound},
		{"session busy", http.StatusConflict, "session_busy", ErrSessionBusy},
		{"no document", http.StatusConflict, "no_document", ErrNoDocument},
		{"unsupported format", http.StatusUnsupportedMediaType, "unsupported_format", ErrUnsupportedFormat},
		{"generation timeout", http.StatusGatewayTimeout, "generation_timeout", ErrGenerationTimeout},
		{"embedding outage", http.StatusBadGateway, "embedding_provider_error", ErrEmbeddingProvider},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"code":    tt.code,
					"message": tt.name,
				})
			}))
			defer server.Close()

			client := New(server.URL)

			_, err := client.GetSession(context.Background(), "s-1")
			if !errors.Is(err, tt.sentinel) {
				t.Fatalf("expected %v, got %v", tt.sentinel, err)
			}

			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *APIError, got %T", err)
			}
			if apiErr.StatusCode != tt.status || apiErr.Code != tt.code {
				t.Errorf("apiErr = %+v", apiErr)
			}
		})
	}
}

func TestErrorMapping_UnknownCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"code":"internal_error","message":"boom"}`))
	}))
	defer server.Close()

	client := New(server.URL)

	_, err := client.GetSession(context.Background(), "s-1")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if errors.Is(err, ErrSessionNotFound) {
		t.Error("unknown code must not match a sentinel")
	}
}

func TestHealthCheck_DegradedIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/healthz" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"error","checks":{"database":"error"}}`))
	}))
	defer server.Close()

	client := New(server.URL)

	h, err := client.HealthCheck(context.Background())
	if err != nil {
		t.Fatalf("HealthCheck failed: %v", err)
	}
	if h.Status != "error" || h.Checks["database"] != "error" {
		t.Errorf("health = %+v", h)
	}
}
