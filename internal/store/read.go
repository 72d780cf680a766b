package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rulesfoundation/rac/internal/engine"
)

// ErrRunNotFound is returned when no run with the given ID exists.
var ErrRunNotFound = fmt.Errorf("run not found")

// ReadRun returns the metadata record for a single run.
func (s *Store) ReadRun(ctx context.Context, runID string) (*Run, error) {
	var run Run
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, plan_hash, entity, row_count, as_of, created_at FROM runs WHERE id = ?",
		runID).Scan(&run.ID, &run.PlanHash, &run.Entity, &run.RowCount, &run.AsOf, &createdAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read run %s: %w", runID, err)
	}
	run.CreatedAt = parseCreatedAt(createdAt)
	return &run, nil
}

// ReadResult reconstructs the scalar bindings and per-row results of a
// run. Rows come back index-aligned with the original input dataset.
func (s *Store) ReadResult(ctx context.Context, runID string) (*engine.Result, error) {
	run, err := s.ReadRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	result := &engine.Result{
		Scalars: engine.Bindings{},
		Rows:    make([]engine.Bindings, run.RowCount),
	}
	for i := range result.Rows {
		result.Rows[i] = engine.Bindings{}
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT path, value FROM scalars WHERE run_id = ?", runID)
	if err != nil {
		return nil, fmt.Errorf("read scalars for run %s: %w", runID, err)
	}
	defer rows.Close()
	for rows.Next() {
		var path string
		var value float64
		if err := rows.Scan(&path, &value); err != nil {
			return nil, fmt.Errorf("scan scalar: %w", err)
		}
		result.Scalars[path] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read scalars for run %s: %w", runID, err)
	}

	resRows, err := s.db.QueryContext(ctx,
		"SELECT row_index, path, value FROM results WHERE run_id = ? ORDER BY row_index", runID)
	if err != nil {
		return nil, fmt.Errorf("read results for run %s: %w", runID, err)
	}
	defer resRows.Close()
	for resRows.Next() {
		var idx int
		var path string
		var value float64
		if err := resRows.Scan(&idx, &path, &value); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		if idx < 0 || idx >= run.RowCount {
			return nil, fmt.Errorf("run %s: result row index %d out of range [0,%d)", runID, idx, run.RowCount)
		}
		result.Rows[idx][path] = value
	}
	if err := resRows.Err(); err != nil {
		return nil, fmt.Errorf("read results for run %s: %w", runID, err)
	}

	return result, nil
}

// ListRuns returns all run records, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, plan_hash, entity, row_count, as_of, created_at FROM runs ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var createdAt string
		if err := rows.Scan(&run.ID, &run.PlanHash, &run.Entity, &run.RowCount, &run.AsOf, &createdAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.CreatedAt = parseCreatedAt(createdAt)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// parseCreatedAt parses the SQLite timestamp; a zero time on parse
// failure beats failing the whole read for a display-only field.
func parseCreatedAt(s string) time.Time {
	t, err := time.Parse("2006-01-02T15:04:05.000Z", s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339, s)
	}
	return t
}
