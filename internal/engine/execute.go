package engine

import (
	"context"
	"log/slog"

	"github.com/rulesfoundation/rac/internal/ir"
)

// Result holds a completed execution: the frozen scalar bindings and one
// augmented row per input row, index-aligned with the input.
type Result struct {
	Scalars Bindings
	Rows    []Bindings
}

// Options configures an execution run.
type Options struct {
	workers int
}

// Option configures Execute.
type Option func(*Options)

// WithWorkers bounds the row-phase worker pool. Default is GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *Options) {
		o.workers = n
	}
}

// Execute runs the full pipeline for one entity: build the registry,
// compute the scalar pass, derive the per-row plan, and fan the row phase
// out across the dataset.
//
// The caller supplies the execution order already dependency-sorted; this
// function does not validate it (see the deps package for an optional
// validation pass). Rows are flat numeric maps; ingestion of raw records
// is the caller's concern (see RowFromFields).
func Execute(ctx context.Context, vars []ir.Variable, order []string, entity string, rows []Bindings, opts ...Option) (*Result, error) {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}

	reg := NewRegistry(vars)
	scalars := reg.ComputeScalars(order)
	plan := reg.Plan(order, entity)

	slog.Debug("executing rule set",
		"variables", reg.Len(),
		"scalars", len(scalars),
		"plan", len(plan),
		"entity", entity,
		"rows", len(rows),
	)

	out, err := ExecuteRows(ctx, plan, scalars, rows, o.workers)
	if err != nil {
		return nil, err
	}

	return &Result{Scalars: scalars, Rows: out}, nil
}
