package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// Store wraps the SQLite database and hands out repositories.
type Store struct {
	db *sql.DB
}

// Open creates a Store connected to the SQLite database at dsn. It
// applies recommended pragmas and runs migration.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &Store{db: db}, nil
}

// DB returns the underlying *sql.DB for raw queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// NoteRepo returns a NoteRepo backed by this store.
func (s *Store) NoteRepo() NoteRepo {
	return &noteRepo{db: s.db}
}

// EventRepo returns an EventRepo backed by this store.
func (s *Store) EventRepo() EventRepo {
	return &eventRepo{db: s.db}
}

// applyPragmas configures SQLite for single-user performance.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// migrate creates the schema. Statements are idempotent so every open
// runs them.
func migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS notes (
			id         TEXT PRIMARY KEY,
			content    TEXT NOT NULL,
			urls       TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS note_labels (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			note_id    TEXT NOT NULL REFERENCES notes(id) ON DELETE CASCADE,
			label      TEXT NOT NULL,
			kind       TEXT NOT NULL DEFAULT 'category',
			confidence REAL NOT NULL,
			confirmed  INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (note_id, label)
		)`,
		`CREATE TABLE IF NOT EXISTS note_impressions (
			note_id       TEXT PRIMARY KEY REFERENCES notes(id) ON DELETE CASCADE,
			count         INTEGER NOT NULL DEFAULT 0,
			last_shown_at TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS llm_events (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp     TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			provider      TEXT NOT NULL,
			model         TEXT NOT NULL,
			purpose       TEXT NOT NULL,
			input_tokens  INTEGER NOT NULL DEFAULT 0,
			output_tokens INTEGER NOT NULL DEFAULT 0,
			latency_ms    INTEGER NOT NULL DEFAULT 0,
			success       INTEGER NOT NULL,
			error_message TEXT NOT NULL DEFAULT '',
			request_body  TEXT NOT NULL DEFAULT '',
			response_body TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_note_labels_label ON note_labels(label)`,
		`CREATE INDEX IF NOT EXISTS idx_llm_events_purpose ON llm_events(purpose)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec migration: %w", err)
		}
	}
	return nil
}

// Reset drops all user data. Used by `memotag reset`.
func (s *Store) Reset(ctx context.Context) error {
	tables := []string{"note_labels", "note_impressions", "notes", "llm_events"}
	for _, t := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+t); err != nil {
			return fmt.Errorf("clear %s: %w", t, err)
		}
	}
	return nil
}

// DefaultDBPath resolves the database file path in priority order:
// 1. MEMOTAG_DB environment variable
// 2. $XDG_DATA_HOME/memotag/memotag.db
// 3. ~/.local/share/memotag/memotag.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("MEMOTAG_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "memotag", "memotag.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
