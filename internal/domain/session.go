package domain

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNoState signals that no session state is persisted locally.
	ErrNoState = errors.New("no persisted session state")

	ErrNotAuthenticated = errors.New("not authenticated")
)

// Session is the client-held belief about the current authenticated
// identity. A non-empty Token means "believed authenticated"; an absent
// token makes the session unauthenticated regardless of any lingering
// User value.
type Session struct {
	Token     string       `json:"token"`
	User      *UserProfile `json:"user,omitempty"`
	IsLoading bool         `json:"isLoading"`
	Err       string       `json:"error,omitempty"`
	LastLogin time.Time    `json:"lastLogin,omitempty"`

	// TokenExpiry is a scheduling hint extracted from the token when it
	// happens to be a JWT. Zero when unknown. Never a trust decision.
	TokenExpiry time.Time `json:"tokenExpiry,omitempty"`
}

// Authenticated reports whether the session holds a token.
func (s Session) Authenticated() bool {
	return s.Token != ""
}

// PersistedState is the token/user/lastLogin triple written to local
// storage. The three fields are always written and cleared together;
// absence of Token is authoritative for "no session".
type PersistedState struct {
	Token     string       `json:"token"`
	User      *UserProfile `json:"user,omitempty"`
	LastLogin time.Time    `json:"lastLogin,omitempty"`
}

// StateRepository defines the interface for client-local session
// persistence. The session store is its only writer.
type StateRepository interface {
	// Load returns the persisted state, or ErrNoState when absent.
	Load(ctx context.Context) (*PersistedState, error)
	Save(ctx context.Context, state *PersistedState) error
	// Clear removes any persisted state. Idempotent.
	Clear(ctx context.Context) error
}
