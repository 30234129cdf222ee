package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"banking-client/internal/domain"
	"banking-client/internal/observability"
	"banking-client/internal/secrets"
)

// StateRepository stores the persisted session as a single row. The
// token is sealed at rest; the other fields ride along with it and are
// written and cleared together.
type StateRepository struct {
	db        *sql.DB
	box       *secrets.Box
	loadStmt  *sql.Stmt
	saveStmt  *sql.Stmt
	clearStmt *sql.Stmt
}

// NewStateRepository creates a new StateRepository with prepared
// statements. Returns an error if statement preparation fails.
func NewStateRepository(db *sql.DB, box *secrets.Box) (*StateRepository, error) {
	repo := &StateRepository{db: db, box: box}

	var err error
	repo.loadStmt, err = db.Prepare(`
		SELECT token, profile, last_login FROM session_state WHERE id = 1
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare load statement: %w", err)
	}

	repo.saveStmt, err = db.Prepare(`
		INSERT INTO session_state (id, token, profile, last_login, updated_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			token = excluded.token,
			profile = excluded.profile,
			last_login = excluded.last_login,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare save statement: %w", err)
	}

	repo.clearStmt, err = db.Prepare(`DELETE FROM session_state WHERE id = 1`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare clear statement: %w", err)
	}

	return repo, nil
}

// Load reads the persisted state. Returns domain.ErrNoState when
// nothing is stored; any other error means the stored state is
// unreadable (the caller treats both the same way).
func (r *StateRepository) Load(ctx context.Context) (*domain.PersistedState, error) {
	var (
		sealedToken string
		profileJSON sql.NullString
		lastLogin   sql.NullString
	)

	err := r.loadStmt.QueryRowContext(ctx).Scan(&sealedToken, &profileJSON, &lastLogin)
	if err == sql.ErrNoRows {
		observability.StateOperationsTotal.WithLabelValues("load", "empty").Inc()
		return nil, domain.ErrNoState
	}
	if err != nil {
		observability.StateOperationsTotal.WithLabelValues("load", "error").Inc()
		return nil, fmt.Errorf("failed to load session state: %w", err)
	}

	token, err := r.box.Open(sealedToken)
	if err != nil {
		observability.StateOperationsTotal.WithLabelValues("load", "corrupt").Inc()
		return nil, fmt.Errorf("failed to open sealed token: %w", err)
	}

	state := &domain.PersistedState{Token: string(token)}

	if profileJSON.Valid && profileJSON.String != "" {
		var profile domain.UserProfile
		if err := json.Unmarshal([]byte(profileJSON.String), &profile); err != nil {
			observability.StateOperationsTotal.WithLabelValues("load", "corrupt").Inc()
			return nil, fmt.Errorf("failed to decode stored profile: %w", err)
		}
		// Normalize defensively; older installs may have stored raw
		// server strings.
		profile.Role = domain.ParseRole(string(profile.Role))
		profile.RegistrationStatus = domain.ParseRegistrationStatus(string(profile.RegistrationStatus))
		state.User = &profile
	}

	if lastLogin.Valid && lastLogin.String != "" {
		if ts, err := time.Parse(time.RFC3339, lastLogin.String); err == nil {
			state.LastLogin = ts
		}
	}

	observability.StateOperationsTotal.WithLabelValues("load", "ok").Inc()
	return state, nil
}

// Save writes the full state in one statement.
func (r *StateRepository) Save(ctx context.Context, state *domain.PersistedState) error {
	sealedToken, err := r.box.Seal([]byte(state.Token))
	if err != nil {
		observability.StateOperationsTotal.WithLabelValues("save", "error").Inc()
		return fmt.Errorf("failed to seal token: %w", err)
	}

	var profileJSON sql.NullString
	if state.User != nil {
		encoded, err := json.Marshal(state.User)
		if err != nil {
			observability.StateOperationsTotal.WithLabelValues("save", "error").Inc()
			return fmt.Errorf("failed to encode profile: %w", err)
		}
		profileJSON = sql.NullString{String: string(encoded), Valid: true}
	}

	var lastLogin sql.NullString
	if !state.LastLogin.IsZero() {
		lastLogin = sql.NullString{String: state.LastLogin.UTC().Format(time.RFC3339), Valid: true}
	}

	_, err = r.saveStmt.ExecContext(ctx,
		sealedToken,
		profileJSON,
		lastLogin,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		observability.StateOperationsTotal.WithLabelValues("save", "error").Inc()
		return fmt.Errorf("failed to save session state: %w", err)
	}

	observability.StateOperationsTotal.WithLabelValues("save", "ok").Inc()
	return nil
}

// Clear removes the persisted state. Idempotent.
func (r *StateRepository) Clear(ctx context.Context) error {
	if _, err := r.clearStmt.ExecContext(ctx); err != nil {
		observability.StateOperationsTotal.WithLabelValues("clear", "error").Inc()
		return fmt.Errorf("failed to clear session state: %w", err)
	}
	observability.StateOperationsTotal.WithLabelValues("clear", "ok").Inc()
	return nil
}
