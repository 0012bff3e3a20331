// File: store/sqlite.go
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/decred/slog"
	_ "modernc.org/sqlite"

	"github.com/lguibr/fujipong/utils"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// DB is the SQLite database behind the name store and the score ledger.
type DB struct {
	db  *sql.DB
	log slog.Logger
	now func() time.Time

	ledgerMu sync.Mutex // Serializes appends so block heights stay gapless
}

// Open connects to the SQLite database at path and runs the migrations.
// ":memory:" gives a private in-memory database.
func Open(path string, log slog.Logger) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" {
		// Every connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	s := &DB{db: db, log: utils.OrDisabled(log), now: time.Now}
	if err := s.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	s.log.Debugf("Opened database %s", path)
	return s, nil
}

// Close closes the database connection.
func (s *DB) Close() error {
	return s.db.Close()
}

// Migrate creates the tables and indexes. It is safe to run repeatedly.
func (s *DB) Migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS player_names (
			client_id TEXT NOT NULL,
			name_key TEXT NOT NULL,
			value TEXT NOT NULL,
			updated_at INTEGER NOT NULL,
			PRIMARY KEY (client_id, name_key)
		)`,
		`CREATE TABLE IF NOT EXISTS scores (
			block INTEGER PRIMARY KEY,
			winner TEXT NOT NULL,
			loser TEXT NOT NULL,
			score TEXT NOT NULL,
			duration INTEGER NOT NULL,
			signature TEXT NOT NULL,
			prev_hash TEXT NOT NULL,
			tx_hash TEXT NOT NULL UNIQUE,
			recorded_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scores_recorded_at ON scores(recorded_at DESC)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
