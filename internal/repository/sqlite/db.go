// Package sqlite persists the client's session state in an embedded
// database. It is the only writer of that state.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS client_meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS session_state (
	id         INTEGER PRIMARY KEY CHECK (id = 1),
	token      TEXT NOT NULL,
	profile    TEXT,
	last_login TEXT,
	updated_at TEXT NOT NULL
);
`

// Open opens (creating if necessary) the state database at path and
// applies the schema. Use ":memory:" for tests.
func Open(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}

	// Single local writer; more connections only invite SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return db, nil
}

// InstallID returns the stable per-install identifier, generating and
// persisting one on first use.
func InstallID(db *sql.DB) (string, error) {
	var id string
	err := db.QueryRow(`SELECT value FROM client_meta WHERE key = 'install_id'`).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return "", fmt.Errorf("failed to read install id: %w", err)
	}

	id = uuid.New().String()
	if _, err := db.Exec(`INSERT INTO client_meta (key, value) VALUES ('install_id', ?)`, id); err != nil {
		return "", fmt.Errorf("failed to store install id: %w", err)
	}
	return id, nil
}
