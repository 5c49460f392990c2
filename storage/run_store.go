// Package storage persists the transfer run history in a local SQLite
// database, one row per executed transfer with its summary counters.
package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"costsync/transfer"
)

type RunStore struct {
	db *sql.DB
}

// Run is one executed transfer, recorded after Execute completed.
type Run struct {
	ID          int64
	Action      string // "week" or "cumulative"
	SourceFile  string
	TargetFile  string
	SourceSheet string
	TargetSheet string // comma-joined for the cumulative variant
	WeekLabel   string
	Summary     transfer.Summary
	CreatedAt   time.Time
}

func OpenRunStore(path string) (*RunStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &RunStore{db: db}
	if err := store.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *RunStore) Close() error {
	return s.db.Close()
}

func (s *RunStore) ensureSchema() error {
	const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	action TEXT NOT NULL,
	source_file TEXT NOT NULL,
	target_file TEXT NOT NULL,
	source_sheet TEXT NOT NULL,
	target_sheet TEXT NOT NULL,
	week_label TEXT NOT NULL DEFAULT '',
	written_cells INTEGER NOT NULL,
	matched_keys INTEGER NOT NULL,
	missing_target_keys INTEGER NOT NULL,
	duplicate_source_keys INTEGER NOT NULL,
	duplicate_target_keys INTEGER NOT NULL,
	skipped_formula_cells INTEGER NOT NULL,
	created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (s *RunStore) InsertRun(run Run) (int64, error) {
	const insertStmt = `
INSERT INTO runs (
	action,
	source_file,
	target_file,
	source_sheet,
	target_sheet,
	week_label,
	written_cells,
	matched_keys,
	missing_target_keys,
	duplicate_source_keys,
	duplicate_target_keys,
	skipped_formula_cells,
	created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`

	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	res, err := s.db.Exec(
		insertStmt,
		run.Action,
		run.SourceFile,
		run.TargetFile,
		run.SourceSheet,
		run.TargetSheet,
		run.WeekLabel,
		run.Summary.WrittenCells,
		run.Summary.MatchedKeys,
		run.Summary.MissingTargetKeys,
		run.Summary.DuplicateSourceKeys,
		run.Summary.DuplicateTargetKeys,
		run.Summary.SkippedFormulaCells,
		createdAt.Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read inserted run id: %w", err)
	}
	return id, nil
}

// ListRuns returns the most recent runs, newest first, capped at limit.
func (s *RunStore) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	const listStmt = `
SELECT
	id,
	action,
	source_file,
	target_file,
	source_sheet,
	target_sheet,
	week_label,
	written_cells,
	matched_keys,
	missing_target_keys,
	duplicate_source_keys,
	duplicate_target_keys,
	skipped_formula_cells,
	created_at
FROM runs
ORDER BY id DESC
LIMIT ?;`

	rows, err := s.db.Query(listStmt, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var createdAt string
		if err := rows.Scan(
			&run.ID,
			&run.Action,
			&run.SourceFile,
			&run.TargetFile,
			&run.SourceSheet,
			&run.TargetSheet,
			&run.WeekLabel,
			&run.Summary.WrittenCells,
			&run.Summary.MatchedKeys,
			&run.Summary.MissingTargetKeys,
			&run.Summary.DuplicateSourceKeys,
			&run.Summary.DuplicateTargetKeys,
			&run.Summary.SkippedFormulaCells,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if parsed, parseErr := time.Parse(time.RFC3339, createdAt); parseErr == nil {
			run.CreatedAt = parsed
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	return runs, nil
}
