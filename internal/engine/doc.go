// Package engine executes compiled rule sets against tabular datasets.
//
// Execution runs in two explicit phases:
//
// Scalar pass (sequential):
// The execution order is walked once and every population-scoped variable
// is evaluated against the scalar bindings accumulated so far. The result
// is a scalar map that is frozen before any row work begins and never
// mutated afterward.
//
// Row pass (data-parallel):
// The order is filtered down to the requested entity's row-scoped
// variables, producing a per-row evaluation plan shared read-only across
// all rows. Each row is an independent task: its input fields are copied
// into a private binding map, the plan is applied in order, and each
// computed value becomes visible to later plan entries for that row only.
// Output is index-aligned with the input regardless of completion order.
//
// The absence of cross-row mutable sharing is the load-bearing invariant:
// row tasks touch only the frozen scalars, the frozen plan, and their own
// binding map, so no locking is required.
//
// The evaluator is fail-soft by design. Unknown identifiers, unknown
// operators or functions, and division by zero all degrade to zero
// instead of propagating errors: one malformed rule must not abort a
// population-scale run. Do not introduce error returns into evaluation -
// the leniency is the contract, not an omission.
package engine
