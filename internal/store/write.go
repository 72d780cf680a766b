package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rulesfoundation/rac/internal/engine"
)

// Run is the metadata record for one persisted execution.
type Run struct {
	ID        string
	PlanHash  string
	Entity    string
	AsOf      string
	RowCount  int
	CreatedAt time.Time
}

// WriteRun persists a run record together with its scalar bindings and
// per-row results in a single transaction. The run's RowCount is taken
// from the result, not the caller.
func (s *Store) WriteRun(ctx context.Context, run Run, result *engine.Result) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO runs (id, plan_hash, entity, row_count, as_of) VALUES (?, ?, ?, ?, ?)",
		run.ID, run.PlanHash, run.Entity, len(result.Rows), run.AsOf)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}

	scalarStmt, err := tx.PrepareContext(ctx,
		"INSERT INTO scalars (run_id, path, value) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare scalar insert: %w", err)
	}
	defer scalarStmt.Close()

	for _, path := range sortedPaths(result.Scalars) {
		if _, err := scalarStmt.ExecContext(ctx, run.ID, path, result.Scalars[path]); err != nil {
			return fmt.Errorf("insert scalar %s: %w", path, err)
		}
	}

	rowStmt, err := tx.PrepareContext(ctx,
		"INSERT INTO results (run_id, row_index, path, value) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare result insert: %w", err)
	}
	defer rowStmt.Close()

	for i, row := range result.Rows {
		for _, path := range sortedPaths(row) {
			if _, err := rowStmt.ExecContext(ctx, run.ID, i, path, row[path]); err != nil {
				return fmt.Errorf("insert result row %d path %s: %w", i, path, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run %s: %w", run.ID, err)
	}
	return nil
}

// sortedPaths returns the binding paths in lexicographic order so
// inserts and reads are deterministic.
func sortedPaths(b engine.Bindings) []string {
	paths := make([]string, 0, len(b))
	for p := range b {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
