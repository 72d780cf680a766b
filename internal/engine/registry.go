package engine

import (
	"github.com/rulesfoundation/rac/internal/ir"
)

// Registry is the per-run lookup from variable path to its definition.
// Built once from the caller-supplied definitions and immutable for the
// run's duration.
type Registry struct {
	vars map[string]ir.Variable
}

// NewRegistry builds a registry in one pass. Later definitions with a
// duplicate path replace earlier ones.
func NewRegistry(vars []ir.Variable) *Registry {
	m := make(map[string]ir.Variable, len(vars))
	for _, v := range vars {
		m[v.Path] = v
	}
	return &Registry{vars: m}
}

// Lookup returns the definition for a path.
func (r *Registry) Lookup(path string) (ir.Variable, bool) {
	v, ok := r.vars[path]
	return v, ok
}

// Len returns the number of registered variables.
func (r *Registry) Len() int {
	return len(r.vars)
}

// ComputeScalars walks the execution order once, sequentially, evaluating
// every population-scoped variable against the scalar bindings accumulated
// so far (row bindings empty) and caching each result under its path.
//
// Identifiers present in the order but not in the registry are silently
// skipped, consistent with the evaluator's fail-soft stance. An order that
// omits a genuine dependency produces a wrong-but-not-crashing result: the
// undefined reference defaults to zero. That is a documented caller
// contract, not a runtime-detected error.
//
// The returned map must be treated as frozen: it is shared read-only by
// every row task in the row phase.
func (r *Registry) ComputeScalars(order []string) Bindings {
	scalars := make(Bindings)
	for _, path := range order {
		v, ok := r.vars[path]
		if !ok || !v.Scalar() {
			continue
		}
		scalars[path] = Eval(v.Expr, scalars, nil)
	}
	return scalars
}

// Plan filters the execution order down to the row-scoped variables of
// the requested entity, preserving order. The result is the per-row
// evaluation plan, shared read-only across all rows.
func (r *Registry) Plan(order []string, entity string) []ir.Variable {
	var plan []ir.Variable
	for _, path := range order {
		v, ok := r.vars[path]
		if !ok || v.Entity != entity || v.Scalar() {
			continue
		}
		plan = append(plan, v)
	}
	return plan
}
