package domain

// SessionState is the lifecycle state of a conversation session.
//
// Valid transitions:
//
//	NoDocument -> Ingesting -> Ready -> Querying -> Ready
//
// A failed ingest returns to NoDocument; a failed query returns to Ready
// (index and history stay valid, only the failed turn is lost).
type SessionState string

const (
	// StateNoDocument means no document has been ingested yet.
	StateNoDocument SessionState = "no_document"
	// StateIngesting means an ingest is in progress.
	StateIngesting SessionState = "ingesting"
	// StateReady means the session accepts questions.
	StateReady SessionState = "ready"
	// StateQuerying means an ask is in progress.
	StateQuerying SessionState = "querying"
	// StateClosed means the session was torn down.
	StateClosed SessionState = "closed"
)

// CanIngest reports whether an ingest may start from this state.
func (s SessionState) CanIngest() bool {
	return s == StateNoDocument || s == StateReady
}

// CanAsk reports whether an ask may start from this state.
func (s SessionState) CanAsk() bool {
	return s == StateReady
}
