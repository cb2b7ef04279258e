// ABOUTME: SQLite implementation of the request journal using modernc.org/sqlite
// ABOUTME: Records dispatch and completion of every tracked request with automatic schema creation

package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/2389/quill/internal/track"
)

// Store is a SQLite-backed request journal.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a journal database at the given path.
// The schema is created if it doesn't exist; parent directories are created
// if needed.
func New(path string) (*Store, error) {
	logger := slog.Default().With("component", "ledger")

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}

	// WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &Store{db: db, logger: logger}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("ledger initialized", "path", path)
	return s, nil
}

func (s *Store) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS requests (
			id TEXT PRIMARY KEY,
			provider TEXT NOT NULL,
			model TEXT NOT NULL,
			status TEXT NOT NULL,
			payload TEXT,
			result TEXT,
			error TEXT,
			created_at DATETIME NOT NULL,
			finished_at DATETIME
		);

		CREATE INDEX IF NOT EXISTS idx_requests_status ON requests(status);
		CREATE INDEX IF NOT EXISTS idx_requests_created ON requests(created_at);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Begin records a freshly dispatched request.
func (s *Store) Begin(req track.Request) error {
	payload, err := encodeJSON(req.Payload)
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO requests (id, provider, model, status, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		req.ID, req.Provider, req.Model, string(req.Status), payload, req.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting request: %w", err)
	}
	return nil
}

// Finish records a request's terminal status, result, and error.
func (s *Store) Finish(req track.Request) error {
	result, err := encodeJSON(req.Result)
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	res, err := s.db.Exec(`
		UPDATE requests SET status = ?, result = ?, error = ?, finished_at = ?
		WHERE id = ?`,
		string(req.Status), result, req.Error, req.FinishedAt, req.ID,
	)
	if err != nil {
		return fmt.Errorf("updating request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("request %q not in ledger", req.ID)
	}
	return nil
}

// Entry is one journaled request row.
type Entry struct {
	ID         string
	Provider   string
	Model      string
	Status     string
	Payload    string
	Result     string
	Error      string
	CreatedAt  time.Time
	FinishedAt *time.Time
}

// List returns journaled requests newest first, up to limit (0 for all).
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	query := `
		SELECT id, provider, model, status,
		       COALESCE(payload, ''), COALESCE(result, ''), COALESCE(error, ''),
		       created_at, finished_at
		FROM requests ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying requests: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var finished sql.NullTime
		if err := rows.Scan(&e.ID, &e.Provider, &e.Model, &e.Status,
			&e.Payload, &e.Result, &e.Error, &e.CreatedAt, &finished); err != nil {
			return nil, fmt.Errorf("scanning request: %w", err)
		}
		if finished.Valid {
			t := finished.Time
			e.FinishedAt = &t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// encodeJSON marshals a value to JSON text, with nil becoming the empty string.
func encodeJSON(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
