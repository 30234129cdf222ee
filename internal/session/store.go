// Package session owns the authoritative, persisted view of "who is
// logged in and with what profile" and keeps it synchronized with the
// identity service.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"banking-client/internal/domain"
	"banking-client/internal/identity"
	"banking-client/internal/observability"
)

// ErrTooManyAttempts is returned when the local login throttle trips
// before any request is sent.
var ErrTooManyAttempts = errors.New("too many login attempts, slow down")

// ValidateOutcome classifies the result of a Validate call. Invalid and
// Indeterminate are deliberately distinct: conflating them either logs
// users out on flaky networks or trusts a revoked token forever.
type ValidateOutcome string

const (
	// OutcomeNotAuthenticated: no token held, no network call made.
	OutcomeNotAuthenticated ValidateOutcome = "not_authenticated"
	// OutcomeConfirmed: the identity service confirmed the token.
	OutcomeConfirmed ValidateOutcome = "confirmed"
	// OutcomeInvalid: definitive rejection; the session was cleared.
	OutcomeInvalid ValidateOutcome = "invalid"
	// OutcomeIndeterminate: transport or server failure, or a response
	// that arrived after the session changed identity. The session is
	// left as it was (fail-open).
	OutcomeIndeterminate ValidateOutcome = "indeterminate"
)

// IdentityAPI is the slice of the identity client the store depends on.
type IdentityAPI interface {
	Login(ctx context.Context, email, password string) (*identity.AuthResult, error)
	Register(ctx context.Context, req identity.RegisterRequest) (*identity.AuthResult, error)
	Validate(ctx context.Context) (*identity.ValidateResult, error)
	SetToken(token string)
	ClearToken()
}

// Store is the single source of truth for the session. All mutations go
// through its methods; everything else reads atomic snapshots.
//
// Concurrent Login calls are not queued: the last one to complete wins.
// Acceptable for a single local user; documented rather than solved.
type Store struct {
	mu      sync.Mutex
	state   domain.Session
	repo    domain.StateRepository
	idAPI   IdentityAPI
	limiter *rate.Limiter
}

// NewStore creates a session store over the given persistence and
// identity collaborators.
func NewStore(repo domain.StateRepository, idAPI IdentityAPI) *Store {
	return &Store{
		repo:  repo,
		idAPI: idAPI,
		// 5 immediate attempts, then one every two seconds.
		limiter: rate.NewLimiter(rate.Every(2*time.Second), 5),
	}
}

// Snapshot returns a consistent copy of the current session. The guard
// and any view code read these, never the live state.
func (s *Store) Snapshot() domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.state
	snap.User = s.state.User.Clone()
	return snap
}

// Restore loads any previously persisted session. Run once at startup;
// it does not validate the token, callers follow with Validate. Absent
// or unreadable persisted data is simply "no session"; there is no
// error path. Returns whether a session was restored.
func (s *Store) Restore(ctx context.Context) bool {
	st, err := s.repo.Load(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrNoState) {
			observability.FromContext(ctx).Warn("discarding unreadable persisted session",
				"error", err.Error())
		}
		return false
	}
	if st.Token == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Token = st.Token
	s.state.User = st.User.Clone()
	s.state.LastLogin = st.LastLogin
	if exp, ok := identity.ExpiryHint(st.Token); ok {
		s.state.TokenExpiry = exp
	}
	s.idAPI.SetToken(st.Token)

	observability.FromContext(ctx).Info("session restored",
		"authenticated", true,
		"last_login", st.LastLogin)
	return true
}

// Login exchanges credentials for a session. On failure the prior
// session is left untouched and the collaborator's message lands in the
// session's error field for the UI to show.
func (s *Store) Login(ctx context.Context, email, password string) error {
	if !s.limiter.Allow() {
		s.mu.Lock()
		s.state.Err = ErrTooManyAttempts.Error()
		s.mu.Unlock()
		observability.LoginAttemptsTotal.WithLabelValues("throttled").Inc()
		return ErrTooManyAttempts
	}

	s.beginOperation()
	result, err := s.idAPI.Login(ctx, email, password)
	return s.finishAuth(ctx, "login", result, err)
}

// Register creates an account and, like the identity service itself,
// treats a successful registration as a login.
func (s *Store) Register(ctx context.Context, req identity.RegisterRequest) error {
	s.beginOperation()
	result, err := s.idAPI.Register(ctx, req)
	return s.finishAuth(ctx, "register", result, err)
}

// Validate asks the identity service to confirm the held token and
// merges any fresher profile fields it returns. A definitive rejection
// clears the session; an indeterminate failure preserves it (fail-open)
// while still reporting the error. A response arriving after the
// session changed identity is discarded.
func (s *Store) Validate(ctx context.Context) (ValidateOutcome, error) {
	s.mu.Lock()
	token := s.state.Token
	if token == "" {
		s.mu.Unlock()
		observability.ValidationsTotal.WithLabelValues(string(OutcomeNotAuthenticated)).Inc()
		return OutcomeNotAuthenticated, nil
	}
	s.state.IsLoading = true
	s.state.Err = ""
	s.mu.Unlock()

	result, err := s.idAPI.Validate(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.IsLoading = false

	// The session changed identity while the call was in flight
	// (logout, or a fresh login). A late response must not resurrect
	// or mutate the new session.
	if s.state.Token != token {
		observability.ValidationsTotal.WithLabelValues(string(OutcomeIndeterminate)).Inc()
		observability.FromContext(ctx).Debug("discarding stale validation response")
		return OutcomeIndeterminate, nil
	}

	if errors.Is(err, identity.ErrUnauthorized) {
		s.clearLocked(ctx)
		observability.ValidationsTotal.WithLabelValues(string(OutcomeInvalid)).Inc()
		observability.FromContext(ctx).Info("token rejected, session cleared")
		return OutcomeInvalid, nil
	}
	if err != nil {
		// Inconclusive: keep trusting the session, surface the failure.
		s.state.Err = err.Error()
		observability.ValidationsTotal.WithLabelValues(string(OutcomeIndeterminate)).Inc()
		observability.FromContext(ctx).Warn("validation inconclusive", "error", err.Error())
		return OutcomeIndeterminate, err
	}

	if s.state.User == nil {
		s.state.User = &domain.UserProfile{}
	}
	s.state.User.Apply(result.Patch)
	s.persistLocked(ctx)

	observability.ValidationsTotal.WithLabelValues(string(OutcomeConfirmed)).Inc()
	return OutcomeConfirmed, nil
}

// Logout unconditionally clears the session, the persisted state and
// the armed bearer credential. Idempotent, and safe to call while a
// Validate is in flight; its late response will be discarded.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked(ctx)
	observability.FromContext(ctx).Info("logged out")
}

// UpdateProfile merges the given fields into the cached profile and
// re-persists. No-op when no user is cached.
func (s *Store) UpdateProfile(ctx context.Context, patch domain.ProfilePatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.User == nil {
		return
	}
	s.state.User.Apply(patch)
	s.persistLocked(ctx)
}

func (s *Store) beginOperation() {
	s.mu.Lock()
	s.state.IsLoading = true
	s.state.Err = ""
	s.mu.Unlock()
}

func (s *Store) finishAuth(ctx context.Context, operation string, result *identity.AuthResult, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.IsLoading = false

	if err != nil {
		s.state.Err = err.Error()
		label := "error"
		var apiErr *identity.APIError
		if errors.As(err, &apiErr) {
			label = "rejected"
		}
		observability.LoginAttemptsTotal.WithLabelValues(label).Inc()
		observability.FromContext(ctx).Warn(operation+" failed", "error", err.Error())
		return err
	}

	profile := result.Profile
	s.state.Token = result.Token
	s.state.User = &profile
	s.state.LastLogin = time.Now()
	s.state.TokenExpiry = result.Expiry
	s.state.Err = ""
	s.idAPI.SetToken(result.Token)
	s.persistLocked(ctx)

	observability.LoginAttemptsTotal.WithLabelValues("ok").Inc()
	observability.FromContext(ctx).Info(operation+" succeeded",
		"user_id", profile.ID,
		"role", string(profile.Role),
		"registration_status", string(profile.RegistrationStatus))
	return nil
}

// persistLocked writes the current state out. Persistence is a separate
// step from computing the new state; a write failure is logged but does
// not undo an in-memory mutation that already happened.
func (s *Store) persistLocked(ctx context.Context) {
	st := &domain.PersistedState{
		Token:     s.state.Token,
		User:      s.state.User.Clone(),
		LastLogin: s.state.LastLogin,
	}
	if err := s.repo.Save(ctx, st); err != nil {
		observability.FromContext(ctx).Error("failed to persist session", "error", err.Error())
	}
}

func (s *Store) clearLocked(ctx context.Context) {
	s.state = domain.Session{}
	s.idAPI.ClearToken()
	if err := s.repo.Clear(ctx); err != nil {
		observability.FromContext(ctx).Error("failed to clear persisted session", "error", err.Error())
	}
}
