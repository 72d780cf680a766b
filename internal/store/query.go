package store

import (
	"context"
	"fmt"

	"github.com/rulesfoundation/rac/internal/query"
)

// FilterRowIndexes returns the indexes of a run's rows matching the
// predicate, ascending. The run must exist; an empty result for an
// existing run is not an error.
func (s *Store) FilterRowIndexes(ctx context.Context, runID string, p query.Predicate) ([]int, error) {
	if _, err := s.ReadRun(ctx, runID); err != nil {
		return nil, err
	}

	sqlText, params, err := query.Compile(p, runID)
	if err != nil {
		return nil, fmt.Errorf("compile filter: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, sqlText, params...)
	if err != nil {
		return nil, fmt.Errorf("filter rows for run %s: %w", runID, err)
	}
	defer rows.Close()

	var indexes []int
	for rows.Next() {
		var idx int
		if err := rows.Scan(&idx); err != nil {
			return nil, fmt.Errorf("scan row index: %w", err)
		}
		indexes = append(indexes, idx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("filter rows for run %s: %w", runID, err)
	}
	return indexes, nil
}
