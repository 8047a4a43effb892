package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docuchat/internal/domain"
	"github.com/kailas-cloud/docuchat/internal/usecase/chat"
	"github.com/kailas-cloud/docuchat/internal/usecase/ingest"
)

// Session is one conversation: a document, its history, and the lifecycle
// state. All fields are guarded by mu.
type Session struct {
	mu sync.Mutex

	id        string
	state     domain.SessionState
	history   domain.History
	docID     string
	docName   string
	tempPath  string
	createdAt time.Time
	lastUsed  time.Time
}

// Info is a point-in-time snapshot of a session for transports.
type Info struct {
	ID        string
	State     domain.SessionState
	Document  string
	Turns     int
	CreatedAt time.Time
	LastUsed  time.Time
}

// IngestOptions are the per-request ingestion knobs.
type IngestOptions struct {
	ChunkSize    int
	ChunkOverlap int
	Reset        bool
}

// Manager owns all sessions and serialises operations per session: a
// session in Ingesting or Querying rejects concurrent work with
// ErrSessionBusy instead of queueing it.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	ingestor Ingestor
	asker    Asker
	tempDir  string
	logger   *zap.Logger
}

// NewManager creates a session manager. Uploads are kept under tempDir
// for the lifetime of their session.
func NewManager(ingestor Ingestor, asker Asker, tempDir string, logger *zap.Logger) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		ingestor: ingestor,
		asker:    asker,
		tempDir:  tempDir,
		logger:   logger,
	}
}

// Create opens a new session in the NoDocument state.
func (m *Manager) Create(_ context.Context) Info {
	now := time.Now()
	s := &Session{
		id:        uuid.NewString(),
		state:     domain.StateNoDocument,
		createdAt: now,
		lastUsed:  now,
	}

	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()

	m.logger.Info("session created", zap.String("session_id", s.id))
	return s.info()
}

// Get returns a session snapshot.
func (m *Manager) Get(_ context.Context, id string) (Info, error) {
	s, err := m.lookup(id)
	if err != nil {
		return Info{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.info(), nil
}

// List returns snapshots of all open sessions.
func (m *Manager) List(_ context.Context) []Info {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]Info, 0, len(m.sessions))
	for _, s := range m.sessions {
		s.mu.Lock()
		infos = append(infos, s.info())
		s.mu.Unlock()
	}
	return infos
}

// History returns a copy of the session's conversation so far.
func (m *Manager) History(_ context.Context, id string) (domain.History, error) {
	s, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	h := make(domain.History, len(s.history))
	copy(h, s.history)
	return h, nil
}

// Ingest uploads a document into the session. The raw upload is stored
// under the session's temp path, replacing any previous upload. A failed
// ingest restores the previous state and leaves the index untouched.
func (m *Manager) Ingest(
	ctx context.Context, id, filename string, data []byte, opts IngestOptions,
) (ingest.Result, error) {
	s, err := m.lookup(id)
	if err != nil {
		return ingest.Result{}, err
	}

	s.mu.Lock()
	if s.state == domain.StateClosed {
		s.mu.Unlock()
		return ingest.Result{}, domain.ErrSessionClosed
	}
	if !s.state.CanIngest() {
		s.mu.Unlock()
		return ingest.Result{}, fmt.Errorf("session is %s: %w", s.state, domain.ErrSessionBusy)
	}
	prev := s.state
	s.state = domain.StateIngesting
	s.mu.Unlock()

	if err := m.saveUpload(s, filename, data); err != nil {
		m.logger.Warn("failed to save upload",
			zap.String("session_id", id), zap.Error(err))
	}

	res, err := m.ingestor.Ingest(ctx, ingest.Params{
		Filename:     filename,
		Data:         data,
		ChunkSize:    opts.ChunkSize,
		ChunkOverlap: opts.ChunkOverlap,
		Reset:        opts.Reset,
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsed = time.Now()

	if err != nil {
		s.state = prev
		return ingest.Result{}, fmt.Errorf("ingest document: %w", err)
	}

	s.state = domain.StateReady
	s.docID = res.DocumentID
	s.docName = filename
	return res, nil
}

// Ask answers a question in the session. Asking before any document was
// ingested fails with ErrNoDocument. The turn is appended to history only
// when generation succeeds.
func (m *Manager) Ask(ctx context.Context, id, question string) (chat.Answer, error) {
	s, err := m.lookup(id)
	if err != nil {
		return chat.Answer{}, err
	}

	s.mu.Lock()
	switch {
	case s.state == domain.StateClosed:
		s.mu.Unlock()
		return chat.Answer{}, domain.ErrSessionClosed
	case s.state == domain.StateNoDocument:
		s.mu.Unlock()
		return chat.Answer{}, domain.ErrNoDocument
	case !s.state.CanAsk():
		s.mu.Unlock()
		return chat.Answer{}, fmt.Errorf("session is %s: %w", s.state, domain.ErrSessionBusy)
	}
	s.state = domain.StateQuerying
	history := make(domain.History, len(s.history))
	copy(history, s.history)
	s.mu.Unlock()

	ans, err := m.asker.Ask(ctx, question, history)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = domain.StateReady
	s.lastUsed = time.Now()

	if err != nil {
		return chat.Answer{}, fmt.Errorf("ask: %w", err)
	}

	s.history = s.history.Append(domain.RoleUser, question)
	s.history = s.history.Append(domain.RoleAssistant, ans.Text)
	return ans, nil
}

// Close tears the session down and removes its temp upload.
func (m *Manager) Close(_ context.Context, id string) error {
	s, err := m.lookup(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.state = domain.StateClosed
	tempPath := s.tempPath
	s.tempPath = ""
	s.mu.Unlock()

	if tempPath != "" {
		if err := os.Remove(tempPath); err != nil && !os.IsNotExist(err) {
			m.logger.Warn("failed to remove upload",
				zap.String("session_id", id), zap.Error(err))
		}
	}

	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()

	m.logger.Info("session closed", zap.String("session_id", id))
	return nil
}

func (m *Manager) lookup(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return s, nil
}

// saveUpload writes the raw upload to the session's temp path. One path
// per session, so a new upload replaces the previous one.
func (m *Manager) saveUpload(s *Session, filename string, data []byte) error {
	if m.tempDir == "" {
		return nil
	}

	path := filepath.Join(m.tempDir, s.id+filepath.Ext(filename))

	s.mu.Lock()
	old := s.tempPath
	s.tempPath = path
	s.mu.Unlock()

	if old != "" && old != path {
		if err := os.Remove(old); err != nil && !os.IsNotExist(err) {
			m.logger.Warn("failed to remove previous upload", zap.Error(err))
		}
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write upload %s: %w", path, err)
	}
	return nil
}

// info must be called with s.mu held.
func (s *Session) info() Info {
	return Info{
		ID:        s.id,
		State:     s.state,
		Document:  s.docName,
		Turns:     len(s.history),
		CreatedAt: s.createdAt,
		LastUsed:  s.lastUsed,
	}
}
