package indexer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Manifest records which documents are in the vector index and the content
// hash they were indexed with, so unchanged documents are not re-embedded.
type Manifest struct {
	db   *sql.DB
	path string
}

// Entry is one indexed document.
type Entry struct {
	ID        string
	Code      string
	Hash      string
	Model     string
	IndexedAt time.Time
}

// Run summarizes one indexing pass.
type Run struct {
	ID         int64
	StartedAt  time.Time
	FinishedAt time.Time
	Stats      Stats
	Err        string
}

// OpenManifest opens or creates the manifest database at path. ":memory:"
// gives a throwaway manifest.
func OpenManifest(path string) (*Manifest, error) {
	dsn := ":memory:"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create manifest directory: %w", err)
		}
		dsn = path + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	// One connection keeps an in-memory database alive and serializes writes.
	db.SetMaxOpenConns(1)

	m := &Manifest{db: db, path: path}
	if err := m.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize manifest schema: %w", err)
	}
	return m, nil
}

func (m *Manifest) initSchema() error {
	_, err := m.db.Exec(`
	CREATE TABLE IF NOT EXISTS documents (
		id         TEXT PRIMARY KEY,
		code       TEXT NOT NULL,
		hash       TEXT NOT NULL,
		model      TEXT NOT NULL,
		indexed_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_documents_code ON documents(code);

	CREATE TABLE IF NOT EXISTS runs (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at  DATETIME NOT NULL,
		finished_at DATETIME NOT NULL,
		documents   INTEGER NOT NULL,
		upserted    INTEGER NOT NULL,
		unchanged   INTEGER NOT NULL,
		skipped     INTEGER NOT NULL,
		error       TEXT DEFAULT ''
	);
	`)
	return err
}

// Close closes the database.
func (m *Manifest) Close() error { return m.db.Close() }

// Path returns the database path.
func (m *Manifest) Path() string { return m.path }

// Hash returns the stored hash for id.
func (m *Manifest) Hash(ctx context.Context, id string) (string, bool, error) {
	var hash string
	err := m.db.QueryRowContext(ctx, `SELECT hash FROM documents WHERE id = ?`, id).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading manifest: %w", err)
	}
	return hash, true, nil
}

// Put records entries in one transaction.
func (m *Manifest) Put(ctx context.Context, entries []Entry) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO documents (id, code, hash, model, indexed_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET code = excluded.code, hash = excluded.hash,
			model = excluded.model, indexed_at = excluded.indexed_at`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.ID, e.Code, e.Hash, e.Model, e.IndexedAt.UTC()); err != nil {
			return fmt.Errorf("recording %s: %w", e.ID, err)
		}
	}
	return tx.Commit()
}

// Count returns the number of indexed documents.
func (m *Manifest) Count(ctx context.Context) (int, error) {
	var n int
	err := m.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n)
	return n, err
}

// RecordRun stores a run summary.
func (m *Manifest) RecordRun(ctx context.Context, r Run) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO runs (started_at, finished_at, documents, upserted, unchanged, skipped, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.StartedAt.UTC(), r.FinishedAt.UTC(), r.Stats.Documents, r.Stats.Upserted, r.Stats.Unchanged, r.Stats.Skipped, r.Err)
	return err
}

// LastRun returns the most recent run, or false if none was recorded.
func (m *Manifest) LastRun(ctx context.Context) (Run, bool, error) {
	var r Run
	err := m.db.QueryRowContext(ctx, `
		SELECT id, started_at, finished_at, documents, upserted, unchanged, skipped, error
		FROM runs ORDER BY id DESC LIMIT 1`).Scan(
		&r.ID, &r.StartedAt, &r.FinishedAt, &r.Stats.Documents, &r.Stats.Upserted, &r.Stats.Unchanged, &r.Stats.Skipped, &r.Err)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, false, nil
	}
	if err != nil {
		return Run{}, false, err
	}
	return r, true, nil
}
