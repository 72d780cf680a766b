package engine

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/rulesfoundation/rac/internal/ir"
)

// ExecuteRows applies a per-row evaluation plan to every input row
// concurrently and returns one output row per input row, index-aligned.
//
// Each row task copies its input fields into a fresh binding map, then
// applies the plan in order; every computed value is written back into
// that row's own bindings so later plan entries can reference it. No row
// ever reads or writes another row's bindings. The scalar bindings and
// the plan are shared read-only, so the tasks need no locking.
//
// workers bounds the pool size; values below one default to GOMAXPROCS.
// A cancelled context abandons rows that have not started; rows already
// running complete normally (tasks are pure and have no suspension
// points, so there is nothing to interrupt).
func ExecuteRows(ctx context.Context, plan []ir.Variable, scalars Bindings, rows []Bindings, workers int) ([]Bindings, error) {
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}

	out := make([]Bindings, len(rows))

	// Row tasks are pure and never fail; the group exists for its bounded
	// pool and barrier, not for error propagation.
	var g errgroup.Group
	g.SetLimit(workers)

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			bindings := row.Clone()
			for _, v := range plan {
				bindings[v.Path] = Eval(v.Expr, scalars, bindings)
			}
			out[i] = bindings
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
