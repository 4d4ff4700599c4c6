package domain

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a turn
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single chat message in a session
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Session holds the extracted document text and the chat history for one upload
type Session struct {
	ID           string    `json:"session_id"`
	DocumentText string    `json:"-"`
	History      []Turn    `json:"history"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Clone returns a deep copy so callers never share history with the store
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.History = make([]Turn, len(s.History))
	copy(out.History, s.History)
	return &out
}

// SessionStore defines the interface for session storage
type SessionStore interface {
	// Create stores a new session for the given document text
	Create(ctx context.Context, documentText string) (*Session, error)

	// Get returns a snapshot of the session or ErrSessionNotFound
	Get(ctx context.Context, id string) (*Session, error)

	// AppendTurn appends a turn and returns the resulting history length.
	// Assistant turns trigger history trimming.
	AppendTurn(ctx context.Context, id string, turn Turn) (int, error)

	// Delete removes the session or returns ErrSessionNotFound
	Delete(ctx context.Context, id string) error
}

// SessionBackend is a SessionStore with lifecycle hooks
type SessionBackend interface {
	SessionStore
	Ping(ctx context.Context) error
	Close() error
}

// NewSessionID returns a random session identifier as 32 lowercase hex chars
func NewSessionID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// MaxHistory returns the number of turns retained for a history window
func MaxHistory(window int) int {
	return 2 * window
}

// TrimHistory keeps only the most recent limit turns
func TrimHistory(history []Turn, limit int) []Turn {
	if limit <= 0 || len(history) <= limit {
		return history
	}
	trimmed := make([]Turn, limit)
	copy(trimmed, history[len(history)-limit:])
	return trimmed
}

// ExpirySweeper is implemented by backends that purge expired sessions on demand
type ExpirySweeper interface {
	DeleteExpired(ctx context.Context) (int, error)
}

// StoreOptions are the settings shared by every SessionStore backend
type StoreOptions struct {
	// TTL is the sliding lifetime of a session, refreshed on every write. Zero disables expiry.
	TTL time.Duration
	// HistoryWindow bounds retained history to 2*HistoryWindow turns
	HistoryWindow int
}
