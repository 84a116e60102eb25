// Package store handles SQLite persistence of filter pass history.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/verte-zerg/gazetag/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for datasets and their filter passes.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS datasets (
			id INTEGER PRIMARY KEY,
			path TEXT NOT NULL UNIQUE,
			next_pass INTEGER NOT NULL DEFAULT 1
		);`,
		`CREATE TABLE IF NOT EXISTS filter_passes (
			id TEXT PRIMARY KEY,
			dataset_id INTEGER NOT NULL,
			number INTEGER NOT NULL,
			code TEXT NOT NULL,
			spec_json TEXT NOT NULL,
			matches INTEGER NOT NULL,
			conflicts INTEGER NOT NULL,
			resolution TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_filter_passes_dataset ON filter_passes(dataset_id, number);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// LoadSession returns the next pass number and the pass history of the
// dataset at path. Unknown datasets start at pass 1 with no history.
func (s *Store) LoadSession(ctx context.Context, path string) (int, []model.PassRecord, error) {
	var next int
	err := s.db.QueryRowContext(ctx, `SELECT next_pass FROM datasets WHERE path = ?`, path).Scan(&next)
	if errors.Is(err, sql.ErrNoRows) {
		return 1, nil, nil
	}
	if err != nil {
		return 0, nil, err
	}
	history, err := s.ListPasses(ctx, path)
	if err != nil {
		return 0, nil, err
	}
	return next, history, nil
}

// RecordPass stores a completed pass and advances the dataset's pass
// counter past it.
func (s *Store) RecordPass(ctx context.Context, path string, rec model.PassRecord) (err error) {
	specJSON, err := json.Marshal(rec.Spec)
	if err != nil {
		return fmt.Errorf("failed to encode filter spec: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO datasets (path, next_pass) VALUES (?, ?)
		 ON CONFLICT(path) DO UPDATE SET next_pass = MAX(next_pass, excluded.next_pass)`,
		path, rec.Number+1,
	); err != nil {
		return err
	}
	var datasetID int64
	if err = tx.QueryRowContext(ctx, `SELECT id FROM datasets WHERE path = ?`, path).Scan(&datasetID); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO filter_passes (id, dataset_id, number, code, spec_json, matches, conflicts, resolution, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		datasetID,
		rec.Number,
		rec.Code,
		string(specJSON),
		rec.Matches,
		rec.Conflicts,
		rec.Resolution,
		rec.CreatedAt.Format(time.RFC3339Nano),
	); err != nil {
		return err
	}
	return tx.Commit()
}

// DeletePass removes a pass record. The dataset's pass counter is left as
// is so the number is never reused.
func (s *Store) DeletePass(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM filter_passes WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete pass %s: %w", id, err)
	}
	return nil
}

// ListPasses returns the pass history of a dataset in pass order.
func (s *Store) ListPasses(ctx context.Context, path string) ([]model.PassRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT p.id, p.number, p.code, p.spec_json, p.matches, p.conflicts, p.resolution, p.created_at
		 FROM filter_passes p
		 JOIN datasets d ON d.id = p.dataset_id
		 WHERE d.path = ?
		 ORDER BY p.number ASC, p.created_at ASC`, path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var records []model.PassRecord
	for rows.Next() {
		var rec model.PassRecord
		var specJSON, createdAt string
		if err := rows.Scan(&rec.ID, &rec.Number, &rec.Code, &specJSON, &rec.Matches, &rec.Conflicts, &rec.Resolution, &createdAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(specJSON), &rec.Spec); err != nil {
			return nil, fmt.Errorf("failed to decode filter spec of pass %d: %w", rec.Number, err)
		}
		parsed, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, err
		}
		rec.CreatedAt = parsed
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
