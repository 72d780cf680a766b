package compiler

import (
	"testing"

	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rulesfoundation/rac/internal/ir"
)

func compileString(t *testing.T, src string) ([]ir.Variable, error) {
	t.Helper()
	ctx := cuecontext.New()
	v := ctx.CompileString(src)
	require.NoError(t, v.Err())
	return CompileRules(v)
}

// TestCompileRules_ScalarAndEntity compiles both scopes in declaration
// order.
func TestCompileRules_ScalarAndEntity(t *testing.T) {
	vars, err := compileString(t, `
rules: {
	threshold: {
		expr: {type: "literal", value: 18}
	}
	is_adult: {
		entity: "person"
		expr: {
			type:  "binop"
			op:    ">="
			left:  {type: "var", path: "age"}
			right: {type: "var", path: "threshold"}
		}
	}
}
`)
	require.NoError(t, err)
	require.Len(t, vars, 2)

	assert.Equal(t, "threshold", vars[0].Path)
	assert.True(t, vars[0].Scalar())
	assert.Equal(t, ir.Literal{Value: 18}, vars[0].Expr)

	assert.Equal(t, "is_adult", vars[1].Path)
	assert.Equal(t, "person", vars[1].Entity)
	assert.Equal(t, ir.BinOp{
		Op:    ">=",
		Left:  ir.Var{Path: "age"},
		Right: ir.Var{Path: "threshold"},
	}, vars[1].Expr)
}

// TestCompileRules_QuotedPaths supports dotted parameter-style paths.
func TestCompileRules_QuotedPaths(t *testing.T) {
	vars, err := compileString(t, `
rules: {
	"gov.irs.eitc.phase_in_rate": {
		expr: {type: "literal", value: 0.34}
	}
}
`)
	require.NoError(t, err)
	require.Len(t, vars, 1)
	assert.Equal(t, "gov.irs.eitc.phase_in_rate", vars[0].Path)
}

// TestCompileRules_CallAndCond compiles the remaining variants.
func TestCompileRules_CallAndCond(t *testing.T) {
	vars, err := compileString(t, `
rules: {
	credit: {
		entity: "person"
		expr: {
			type: "cond"
			cond: {type: "var", path: "eligible"}
			then: {
				type: "call"
				func: "min"
				args: [{type: "var", path: "raw"}, {type: "literal", value: 3000}]
			}
			"else": {type: "literal", value: 0}
		}
	}
}
`)
	require.NoError(t, err)
	require.Len(t, vars, 1)

	cond, ok := vars[0].Expr.(ir.Cond)
	require.True(t, ok)
	call, ok := cond.Then.(ir.Call)
	require.True(t, ok)
	assert.Equal(t, "min", call.Func)
	assert.Len(t, call.Args, 2)
}

// TestCompileRules_MissingRulesStruct.
func TestCompileRules_MissingRulesStruct(t *testing.T) {
	_, err := compileString(t, `other: {x: 1}`)
	require.Error(t, err)

	var compileErr *CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, "rules", compileErr.Field)
}

// TestCompileRules_MissingExpr.
func TestCompileRules_MissingExpr(t *testing.T) {
	_, err := compileString(t, `
rules: {
	broken: {entity: "person"}
}
`)
	require.Error(t, err)

	var compileErr *CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, "broken", compileErr.Rule)
	assert.Equal(t, "expr", compileErr.Field)
}

// TestCompileRules_NonStringEntity.
func TestCompileRules_NonStringEntity(t *testing.T) {
	_, err := compileString(t, `
rules: {
	broken: {
		entity: 7
		expr: {type: "literal", value: 1}
	}
}
`)
	require.Error(t, err)

	var compileErr *CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, "entity", compileErr.Field)
}

// TestCompileRules_UnknownExprTag degrades to a zero literal, matching
// the wire decoder's fail-soft policy.
func TestCompileRules_UnknownExprTag(t *testing.T) {
	vars, err := compileString(t, `
rules: {
	fuzzy: {
		expr: {type: "mystery"}
	}
}
`)
	require.NoError(t, err)
	require.Len(t, vars, 1)
	assert.Equal(t, ir.Literal{}, vars[0].Expr)
}
