package domain

// Role identifies the author of a conversation turn.
type Role string

const (
	// RoleUser marks a turn written by the user.
	RoleUser Role = "user"
	// RoleAssistant marks a turn written by the assistant.
	RoleAssistant Role = "assistant"
)

// Turn is a single conversation message. Turns are append-only and owned
// by one session.
type Turn struct {
	Role    Role
	Content string
}

// History is an ordered sequence of conversation turns, oldest first.
type History []Turn

// Tail returns the most recent n turns. n <= 0 returns an empty history.
func (h History) Tail(n int) History {
	if n <= 0 {
		return nil
	}
	if len(h) <= n {
		return h
	}
	return h[len(h)-n:]
}

// Append returns the history with a new turn added.
func (h History) Append(role Role, content string) History {
	return append(h, Turn{Role: role, Content: content})
}
