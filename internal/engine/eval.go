package engine

import (
	"math"

	"github.com/rulesfoundation/rac/internal/ir"
)

// Bindings maps variable paths to their known numeric values. Two binding
// scopes exist during execution: one scalar map shared by the whole
// population, and one private map per row. They are kept distinct because
// row values shadow scalars and the scalar map is frozen before the row
// phase begins.
type Bindings map[string]float64

// Clone returns an independent copy.
func (b Bindings) Clone() Bindings {
	out := make(Bindings, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// eqTolerance is the absolute tolerance for the == operator. Equality on
// computed floats absorbs floating-point noise instead of comparing bits.
const eqTolerance = 1e-10

// Eval evaluates an expression against the two binding scopes and returns
// a single numeric result.
//
// Eval is total, pure, and non-failing. Variable lookup resolves against
// row bindings first, then scalars, then defaults to zero, so a row-scoped
// value shadows a same-named scalar. Comparisons yield 1 or 0. Division by
// exactly zero yields zero rather than Inf or NaN. Unknown operators and
// functions yield zero. Conditionals evaluate exactly one branch, treating
// any nonzero condition as true.
func Eval(e ir.Expr, scalars, row Bindings) float64 {
	switch v := e.(type) {
	case ir.Literal:
		return v.Value

	case ir.Var:
		if val, ok := row[v.Path]; ok {
			return val
		}
		if val, ok := scalars[v.Path]; ok {
			return val
		}
		return 0

	case ir.BinOp:
		l := Eval(v.Left, scalars, row)
		r := Eval(v.Right, scalars, row)
		return evalBinOp(v.Op, l, r)

	case ir.Call:
		return evalCall(v, scalars, row)

	case ir.Cond:
		if Eval(v.If, scalars, row) != 0 {
			return Eval(v.Then, scalars, row)
		}
		return Eval(v.Else, scalars, row)

	default:
		// Unreachable for trees built by this module; degrade anyway.
		return 0
	}
}

func evalBinOp(op string, l, r float64) float64 {
	switch op {
	case "+":
		return l + r
	case "-":
		return l - r
	case "*":
		return l * r
	case "/":
		if r == 0 {
			return 0
		}
		return l / r
	case ">":
		return boolToFloat(l > r)
	case ">=":
		return boolToFloat(l >= r)
	case "<":
		return boolToFloat(l < r)
	case "<=":
		return boolToFloat(l <= r)
	case "==":
		return boolToFloat(math.Abs(l-r) < eqTolerance)
	default:
		return 0
	}
}

func evalCall(c ir.Call, scalars, row Bindings) float64 {
	switch c.Func {
	case "min":
		// Zero arguments fold to +Inf; the caller avoids that by
		// construction, and it propagates rather than erroring.
		out := math.Inf(1)
		for _, a := range c.Args {
			out = math.Min(out, Eval(a, scalars, row))
		}
		return out

	case "max":
		out := math.Inf(-1)
		for _, a := range c.Args {
			out = math.Max(out, Eval(a, scalars, row))
		}
		return out

	case "abs":
		if len(c.Args) == 0 {
			return 0
		}
		return math.Abs(Eval(c.Args[0], scalars, row))

	case "round":
		if len(c.Args) == 0 {
			return 0
		}
		return math.Round(Eval(c.Args[0], scalars, row))

	default:
		return 0
	}
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
