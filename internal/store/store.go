// Package store persists completed analysis results across process
// restarts. It is the durable tier behind the in-memory job caches:
// best-effort, keyed by document fingerprint, and safe to lose (a
// missing entry just means the document gets re-analyzed).
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/formfieldlabs/formfield/internal/analysis"
)

const schema = `
CREATE TABLE IF NOT EXISTS analysis_results (
	fingerprint TEXT PRIMARY KEY,
	result      TEXT NOT NULL,
	file_name   TEXT NOT NULL DEFAULT '',
	file_size   INTEGER NOT NULL DEFAULT 0,
	language    TEXT NOT NULL DEFAULT '',
	created_at  TEXT NOT NULL
);
`

// SQLite is a durable result store backed by an embedded SQLite file.
// It implements analysis.ResultStore.
type SQLite struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if necessary) the store at path. Use ":memory:"
// for tests.
func Open(path string, logger *slog.Logger) (*SQLite, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open result store: %w", err)
	}
	// The store is only touched from job settlements and HTTP
	// handlers; a single connection sidesteps SQLite write locking.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize result store schema: %w", err)
	}
	return &SQLite{db: db, logger: logger.With("component", "store")}, nil
}

// Close releases the underlying database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Put upserts a completed result for a fingerprint.
func (s *SQLite) Put(ctx context.Context, rec analysis.StoredResult) error {
	payload, err := json.Marshal(rec.Result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO analysis_results (fingerprint, result, file_name, file_size, language, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(fingerprint) DO UPDATE SET
			result = excluded.result,
			file_name = excluded.file_name,
			file_size = excluded.file_size,
			language = excluded.language,
			created_at = excluded.created_at`,
		rec.Fingerprint, string(payload), rec.FileName, rec.FileSize, rec.Language,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to persist result: %w", err)
	}
	return nil
}

// Get returns the stored result for a fingerprint. A missing row is
// (zero, false, nil), not an error.
func (s *SQLite) Get(ctx context.Context, fingerprint string) (analysis.StoredResult, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT result, file_name, file_size, language
		FROM analysis_results WHERE fingerprint = ?`, fingerprint)

	var payload string
	rec := analysis.StoredResult{Fingerprint: fingerprint}
	err := row.Scan(&payload, &rec.FileName, &rec.FileSize, &rec.Language)
	if errors.Is(err, sql.ErrNoRows) {
		return analysis.StoredResult{}, false, nil
	}
	if err != nil {
		return analysis.StoredResult{}, false, fmt.Errorf("failed to read result: %w", err)
	}
	if err := json.Unmarshal([]byte(payload), &rec.Result); err != nil {
		// A corrupt row degrades to a cache miss after cleanup.
		s.logger.Warn("dropping corrupt result row", "fingerprint", fingerprint, "error", err)
		_ = s.Delete(ctx, fingerprint)
		return analysis.StoredResult{}, false, nil
	}
	return rec, true, nil
}

// Delete removes one fingerprint's entry.
func (s *SQLite) Delete(ctx context.Context, fingerprint string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM analysis_results WHERE fingerprint = ?`, fingerprint); err != nil {
		return fmt.Errorf("failed to delete result: %w", err)
	}
	return nil
}

// Clear removes every entry.
func (s *SQLite) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM analysis_results`); err != nil {
		return fmt.Errorf("failed to clear results: %w", err)
	}
	return nil
}
