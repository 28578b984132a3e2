package storage

import (
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const (
	// SchemaVersion is the version of the notes schema this build writes.
	SchemaVersion = 1
	// notesComponent is the row name used in schema_versions.
	notesComponent = "notes"
)

// New opens a SQLite database connection at the given path.
// It enables foreign keys, WAL journaling and a busy timeout, and sets connection pool settings.
func New(path string) (*sql.DB, error) {
	params := url.Values{}
	params.Add("_journal_mode", "WAL")
	params.Add("_busy_timeout", "5000")

	dsn := path
	if strings.Contains(path, "?") {
		dsn += "&" + params.Encode()
	} else {
		dsn += "?" + params.Encode()
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	// Enable foreign keys (disabled by default in SQLite)
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Migrate creates the notes table and records the schema version.
// It is idempotent and can be run multiple times safely.
// A database written by a newer schema version is rejected.
func Migrate(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS schema_versions (
			component TEXT PRIMARY KEY,
			version INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS notes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL DEFAULT '',
			body TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			tags TEXT NOT NULL DEFAULT '[]',
			path TEXT NOT NULL DEFAULT '',
			original_path TEXT,
			is_read INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE INDEX IF NOT EXISTS idx_notes_created_at ON notes (created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_notes_path ON notes (path);`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	var current int
	err := db.QueryRow("SELECT version FROM schema_versions WHERE component = ?", notesComponent).Scan(&current)
	switch {
	case err == sql.ErrNoRows:
		if _, err := db.Exec("INSERT INTO schema_versions (component, version) VALUES (?, ?)", notesComponent, SchemaVersion); err != nil {
			return fmt.Errorf("failed to record schema version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("failed to read schema version: %w", err)
	case current > SchemaVersion:
		return fmt.Errorf("database schema version %d is newer than supported version %d", current, SchemaVersion)
	}

	return nil
}
