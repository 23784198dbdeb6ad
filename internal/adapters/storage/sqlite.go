// Package storage provides SQLite implementations of the storage ports.
package storage

import (
	"database/sql"

	"github.com/cockroachdb/errors"
	"github.com/xvierd/runstamp/internal/ports"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// sqliteStorage implements the ports.Storage interface using SQLite.
type sqliteStorage struct {
	db      *sql.DB
	runRepo ports.RunRepository
}

// Ensure sqliteStorage implements ports.Storage.
var _ ports.Storage = (*sqliteStorage)(nil)

// New creates a new SQLite storage instance.
func New(dbPath string) (ports.Storage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to set WAL mode")
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to set busy timeout")
	}

	storage := &sqliteStorage{
		db:      db,
		runRepo: newRunRepository(db),
	}

	if err := storage.Migrate(); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to migrate database")
	}

	return storage, nil
}

// NewMemory creates a new in-memory SQLite storage instance for testing.
func NewMemory() (ports.Storage, error) {
	return New(":memory:")
}

// Runs returns the run repository.
func (s *sqliteStorage) Runs() ports.RunRepository {
	return s.runRepo
}

// Close closes the database connection.
func (s *sqliteStorage) Close() error {
	return s.db.Close()
}

// Migrate creates the database schema.
func (s *sqliteStorage) Migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		dir TEXT NOT NULL,
		vcs_commit TEXT NOT NULL DEFAULT '',
		vcs_dirty INTEGER NOT NULL DEFAULT 0,
		provenance_note TEXT NOT NULL DEFAULT '',
		tags TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
	CREATE INDEX IF NOT EXISTS idx_runs_commit ON runs(vcs_commit);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return errors.Wrap(err, "failed to execute schema")
	}

	return nil
}

// isUniqueConstraintError checks if an error is a primary key or unique
// constraint violation.
func isUniqueConstraintError(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}
