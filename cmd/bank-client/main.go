package main

import (
	"database/sql"
	"fmt"
	"os"

	"banking-client/internal/config"
	"banking-client/internal/guard"
	"banking-client/internal/identity"
	"banking-client/internal/observability"
	"banking-client/internal/repository/sqlite"
	"banking-client/internal/routes"
	"banking-client/internal/secrets"
	"banking-client/internal/session"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app holds the wired-up collaborators shared by all commands.
type app struct {
	cfg      *config.Config
	db       *sql.DB
	store    *session.Store
	guard    guard.Guard
	clientID string
}

func (a *app) init() error {
	a.cfg = config.Load()
	observability.InitLogger(a.cfg.LogLevel, a.cfg.LogFormat)

	db, err := sqlite.Open(a.cfg.StateDBPath)
	if err != nil {
		return fmt.Errorf("failed to open state database: %w", err)
	}
	a.db = db

	clientID, err := sqlite.InstallID(db)
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to resolve install id: %w", err)
	}
	a.clientID = clientID

	// The install id salts the key so copying the database to another
	// machine without its meta row yields unreadable state.
	box, err := secrets.NewBox(a.cfg.StateSecret, clientID)
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to initialize state encryption: %w", err)
	}

	repo, err := sqlite.NewStateRepository(db, box)
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to initialize state repository: %w", err)
	}

	idClient := identity.NewClient(identity.Config{
		BaseURL:      a.cfg.APIBaseURL,
		AuthPath:     a.cfg.AuthBasePath,
		FallbackPath: a.cfg.AuthFallbackPath,
		ClientID:     clientID,
	})

	a.store = session.NewStore(repo, idClient)
	a.guard = guard.New(routes.PathLogin, routes.PathAwaitingApproval, routes.PathDashboard)
	return nil
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
}
