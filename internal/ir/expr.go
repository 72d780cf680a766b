package ir

// Expr is a sealed interface over the five expression variants.
// Only Literal, Var, BinOp, Call, and Cond implement it.
//
// An Expr is pure data: operator and function names are plain strings,
// validated only at evaluation time. Unknown names evaluate to zero
// rather than failing, so a single malformed rule cannot abort a
// population-scale run.
type Expr interface {
	expr() // Sealed - only the variants in this file implement it
}

// Literal is a numeric constant.
type Literal struct {
	Value float64
}

func (Literal) expr() {}

// Var is a named lookup, resolved at evaluation time against row
// bindings first, then scalar bindings, defaulting to zero if absent
// in both. Resolution never errors.
type Var struct {
	Path string
}

func (Var) expr() {}

// BinOp applies a binary operator to two subexpressions.
// Operands are evaluated eagerly, left before right.
//
// Recognized operators: + - * / > >= < <= ==
// Comparisons yield 1 (true) or 0 (false).
type BinOp struct {
	Op    string
	Left  Expr
	Right Expr
}

func (BinOp) expr() {}

// Call invokes a builtin function over an ordered argument list.
// min and max are variadic; abs and round use the first argument only.
type Call struct {
	Func string
	Args []Expr
}

func (Call) expr() {}

// Cond is a conditional. Exactly one branch is evaluated: Then when the
// condition's numeric result is nonzero, Else otherwise.
type Cond struct {
	If   Expr
	Then Expr
	Else Expr
}

func (Cond) expr() {}

// Variable is a single rule: an identifier, an optional entity scope,
// and the defining expression.
//
// An empty Entity marks a population-level scalar, computed once and
// shared by all rows. A non-empty Entity marks a per-row value computed
// independently for each record of that entity.
//
// Variables are constructed once per run and immutable thereafter.
type Variable struct {
	Path   string
	Entity string
	Expr   Expr
}

// Scalar reports whether the variable is population-scoped.
func (v Variable) Scalar() bool {
	return v.Entity == ""
}
