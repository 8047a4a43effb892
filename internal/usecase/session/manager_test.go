package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docuchat/internal/domain"
	"github.com/kailas-cloud/docuchat/internal/usecase/chat"
	"github.com/kailas-cloud/docuchat/internal/usecase/ingest"
)

type mockIngestor struct {
	result  ingest.Result
	err     error
	started chan struct{} // closed when Ingest begins, if set
	release chan struct{} // Ingest blocks until closed, if set
	calls   int
}

func (m *mockIngestor) Ingest(_ context.Context, _ ingest.Params) (ingest.Result, error) {
	m.calls++
	if m.started != nil {
		close(m.started)
	}
	if m.release != nil {
		<-m.release
	}
	return m.result, m.err
}

type mockAsker struct {
	answer     chat.Answer
	err        error
	gotHistory domain.History
}

func (m *mockAsker) Ask(_ context.Context, _ string, history domain.History) (chat.Answer, error) {
	m.gotHistory = history
	return m.answer, m.err
}

func newTestManager(t *testing.T, ing *mockIngestor, ask *mockAsker) *Manager {
	t.Helper()
	return NewManager(ing, ask, t.TempDir(), zap.NewNop())
}

func TestCreateAndGet(t *testing.T) {
	m := newTestManager(t, &mockIngestor{}, &mockAsker{})
	ctx := context.Background()

	info := m.Create(ctx)
	if info.State != domain.StateNoDocument {
		t.Errorf("state = %q, want no_document", info.State)
	}
	if info.ID == "" {
		t.Fatal("expected a session id")
	}

	got, err := m.Get(ctx, info.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != info.ID {
		t.Errorf("got id %q, want %q", got.ID, info.ID)
	}
}

func TestGet_UnknownSession(t *testing.T) {
	m := newTestManager(t, &mockIngestor{}, &mockAsker{})

	_, err := m.Get(context.Background(), "nope")
	if !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestAsk_BeforeIngest(t *testing.T) {
	m := newTestManager(t, &mockIngestor{}, &mockAsker{})
	ctx := context.Background()

	info := m.Create(ctx)

	_, err := m.Ask(ctx, info.ID, "anything there?")
	if !errors.Is(err, domain.ErrNoDocument) {
		t.Fatalf("expected ErrNoDocument, got %v", err)
	}
}

func TestIngestThenAsk(t *testing.T) {
	ing := &mockIngestor{result: ingest.Result{DocumentID: "doc-1", ChunksWritten: 3}}
	ask := &mockAsker{answer: chat.Answer{Text: "the answer"}}
	m := newTestManager(t, ing, ask)
	ctx := context.Background()

	info := m.Create(ctx)

	res, err := m.Ingest(ctx, info.ID, "doc.pdf", []byte("%PDF-"), IngestOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ChunksWritten != 3 {
		t.Errorf("chunks = %d, want 3", res.ChunksWritten)
	}

	got, _ := m.Get(ctx, info.ID)
	if got.State != domain.StateReady {
		t.Errorf("state = %q, want ready", got.State)
	}
	if got.Document != "doc.pdf" {
		t.Errorf("document = %q", got.Document)
	}

	ans, err := m.Ask(ctx, info.ID, "what is it?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ans.Text != "the answer" {
		t.Errorf("answer = %q", ans.Text)
	}

	history, err := m.History(ctx, info.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history = %d turns, want 2", len(history))
	}
	if history[0].Role != domain.RoleUser || history[1].Role != domain.RoleAssistant {
		t.Errorf("unexpected roles: %+v", history)
	}
}

func TestAsk_SecondQuestionSeesHistory(t *testing.T) {
	ing := &mockIngestor{result: ingest.Result{DocumentID: "doc-1"}}
	ask := &mockAsker{answer: chat.Answer{Text: "a1"}}
	m := newTestManager(t, ing, ask)
	ctx := context.Background()

	info := m.Create(ctx)
	if _, err := m.Ingest(ctx, info.ID, "d.txt", []byte("x"), IngestOptions{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := m.Ask(ctx, info.ID, "q1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ask.gotHistory) != 0 {
		t.Errorf("first ask saw %d turns, want 0", len(ask.gotHistory))
	}

	if _, err := m.Ask(ctx, info.ID, "q2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ask.gotHistory) != 2 {
		t.Errorf("second ask saw %d turns, want 2", len(ask.gotHistory))
	}
}

func TestIngest_ConcurrentOperationIsBusy(t *testing.T) {
	ing := &mockIngestor{
		result:  ingest.Result{DocumentID: "doc-1"},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	m := newTestManager(t, ing, &mockAsker{})
	ctx := context.Background()

	info := m.Create(ctx)

	done := make(chan error, 1)
	go func() {
		_, err := m.Ingest(ctx, info.ID, "d.txt", []byte("x"), IngestOptions{})
		done <- err
	}()

	<-ing.started

	_, err := m.Ingest(ctx, info.ID, "other.txt", []byte("y"), IngestOptions{})
	if !errors.Is(err, domain.ErrSessionBusy) {
		t.Fatalf("expected ErrSessionBusy, got %v", err)
	}
	if _, err := m.Ask(ctx, info.ID, "q"); !errors.Is(err, domain.ErrSessionBusy) {
		t.Fatalf("expected ErrSessionBusy for ask, got %v", err)
	}

	close(ing.release)
	if err := <-done; err != nil {
		t.Fatalf("first ingest failed: %v", err)
	}
}

func TestIngest_FailureRestoresState(t *testing.T) {
	ing := &mockIngestor{err: domain.ErrEmbeddingProvider}
	m := newTestManager(t, ing, &mockAsker{})
	ctx := context.Background()

	info := m.Create(ctx)

	_, err := m.Ingest(ctx, info.ID, "d.txt", []byte("x"), IngestOptions{})
	if !errors.Is(err, domain.ErrEmbeddingProvider) {
		t.Fatalf("expected ErrEmbeddingProvider, got %v", err)
	}

	got, _ := m.Get(ctx, info.ID)
	if got.State != domain.StateNoDocument {
		t.Errorf("state = %q, want no_document after failed first ingest", got.State)
	}

	if _, err := m.Ask(ctx, info.ID, "q"); !errors.Is(err, domain.ErrNoDocument) {
		t.Fatalf("expected ErrNoDocument, got %v", err)
	}
}

func TestAsk_FailureKeepsHistoryAndState(t *testing.T) {
	ing := &mockIngestor{result: ingest.Result{DocumentID: "doc-1"}}
	ask := &mockAsker{err: domain.ErrGenerationTimeout}
	m := newTestManager(t, ing, ask)
	ctx := context.Background()

	info := m.Create(ctx)
	if _, err := m.Ingest(ctx, info.ID, "d.txt", []byte("x"), IngestOptions{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := m.Ask(ctx, info.ID, "q")
	if !errors.Is(err, domain.ErrGenerationTimeout) {
		t.Fatalf("expected ErrGenerationTimeout, got %v", err)
	}

	history, _ := m.History(ctx, info.ID)
	if len(history) != 0 {
		t.Errorf("failed turn leaked into history: %+v", history)
	}
	got, _ := m.Get(ctx, info.ID)
	if got.State != domain.StateReady {
		t.Errorf("state = %q, want ready", got.State)
	}
}

func TestClose_RemovesSessionAndUpload(t *testing.T) {
	ing := &mockIngestor{result: ingest.Result{DocumentID: "doc-1"}}
	tempDir := t.TempDir()
	m := NewManager(ing, &mockAsker{}, tempDir, zap.NewNop())
	ctx := context.Background()

	info := m.Create(ctx)
	if _, err := m.Ingest(ctx, info.ID, "d.pdf", []byte("data"), IngestOptions{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	uploadPath := filepath.Join(tempDir, info.ID+".pdf")
	if _, err := os.Stat(uploadPath); err != nil {
		t.Fatalf("upload not saved: %v", err)
	}

	if err := m.Close(ctx, info.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := os.Stat(uploadPath); !os.IsNotExist(err) {
		t.Error("upload not removed on close")
	}
	if _, err := m.Get(ctx, info.ID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after close, got %v", err)
	}
	if _, err := m.Ask(ctx, info.ID, "q"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestIngest_ReplacesUpload(t *testing.T) {
	ing := &mockIngestor{result: ingest.Result{DocumentID: "doc-1"}}
	tempDir := t.TempDir()
	m := NewManager(ing, &mockAsker{}, tempDir, zap.NewNop())
	ctx := context.Background()

	info := m.Create(ctx)
	if _, err := m.Ingest(ctx, info.ID, "a.pdf", []byte("first"), IngestOptions{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := m.Ingest(ctx, info.ID, "b.txt", []byte("second"), IngestOptions{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// old upload removed, new one holds the latest content
	if _, err := os.Stat(filepath.Join(tempDir, info.ID+".pdf")); !os.IsNotExist(err) {
		t.Error("previous upload not removed")
	}
	data, err := os.ReadFile(filepath.Join(tempDir, info.ID+".txt"))
	if err != nil {
		t.Fatalf("new upload missing: %v", err)
	}
	if string(data) != "second" {
		t.Errorf("upload content = %q", data)
	}
}
