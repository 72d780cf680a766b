package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestUnmarshalExpr_Literal decodes a literal node.
func TestUnmarshalExpr_Literal(t *testing.T) {
	e, err := UnmarshalExpr([]byte(`{"type":"literal","value":42.5}`))
	require.NoError(t, err)
	assert.Equal(t, Literal{Value: 42.5}, e)
}

// TestUnmarshalExpr_Var decodes a variable reference.
func TestUnmarshalExpr_Var(t *testing.T) {
	e, err := UnmarshalExpr([]byte(`{"type":"var","path":"age"}`))
	require.NoError(t, err)
	assert.Equal(t, Var{Path: "age"}, e)
}

// TestUnmarshalExpr_Nested decodes a nested binop/call/cond tree.
func TestUnmarshalExpr_Nested(t *testing.T) {
	data := []byte(`{
		"type": "cond",
		"cond": {"type": "binop", "op": ">=", "left": {"type": "var", "path": "age"}, "right": {"type": "literal", "value": 18}},
		"then": {"type": "call", "func": "min", "args": [{"type": "literal", "value": 1}, {"type": "var", "path": "cap"}]},
		"else": {"type": "literal", "value": 0}
	}`)

	e, err := UnmarshalExpr(data)
	require.NoError(t, err)

	expected := Cond{
		If: BinOp{
			Op:    ">=",
			Left:  Var{Path: "age"},
			Right: Literal{Value: 18},
		},
		Then: Call{
			Func: "min",
			Args: []Expr{Literal{Value: 1}, Var{Path: "cap"}},
		},
		Else: Literal{Value: 0},
	}
	assert.Equal(t, expected, e)
}

// TestUnmarshalExpr_UnknownTag degrades to a zero literal instead of
// failing the decode.
func TestUnmarshalExpr_UnknownTag(t *testing.T) {
	e, err := UnmarshalExpr([]byte(`{"type":"mystery","weird":true}`))
	require.NoError(t, err)
	assert.Equal(t, Literal{}, e)
}

// TestUnmarshalExpr_UnknownNestedTag degrades only the malformed child.
func TestUnmarshalExpr_UnknownNestedTag(t *testing.T) {
	data := []byte(`{"type":"binop","op":"+","left":{"type":"nope"},"right":{"type":"literal","value":3}}`)
	e, err := UnmarshalExpr(data)
	require.NoError(t, err)
	assert.Equal(t, BinOp{Op: "+", Left: Literal{}, Right: Literal{Value: 3}}, e)
}

// TestUnmarshalExpr_MissingChild treats an omitted child as a zero literal.
func TestUnmarshalExpr_MissingChild(t *testing.T) {
	e, err := UnmarshalExpr([]byte(`{"type":"binop","op":"*","left":{"type":"literal","value":2}}`))
	require.NoError(t, err)
	assert.Equal(t, BinOp{Op: "*", Left: Literal{Value: 2}, Right: Literal{}}, e)
}

// TestUnmarshalExpr_MalformedJSON surfaces structural decode failures.
func TestUnmarshalExpr_MalformedJSON(t *testing.T) {
	_, err := UnmarshalExpr([]byte(`{"type": "literal",`))
	require.Error(t, err)
}

// TestMarshalExpr_RoundTrip verifies encode/decode round-trips the tree.
func TestMarshalExpr_RoundTrip(t *testing.T) {
	original := Cond{
		If:   BinOp{Op: "==", Left: Var{Path: "status"}, Right: Literal{Value: 1}},
		Then: Call{Func: "max", Args: []Expr{Literal{Value: 0}, Var{Path: "income"}}},
		Else: Literal{Value: 0},
	}

	data, err := MarshalExpr(original)
	require.NoError(t, err)

	decoded, err := UnmarshalExpr(data)
	require.NoError(t, err)
	assert.Equal(t, Expr(original), decoded)
}

// TestVariable_UnmarshalJSON decodes scalar and entity-scoped variables.
func TestVariable_UnmarshalJSON(t *testing.T) {
	data := []byte(`[
		{"path": "threshold", "entity": null, "expr": {"type": "literal", "value": 18}},
		{"path": "is_adult", "entity": "person", "expr": {"type": "binop", "op": ">=", "left": {"type": "var", "path": "age"}, "right": {"type": "var", "path": "threshold"}}}
	]`)

	vars, err := UnmarshalVariables(data)
	require.NoError(t, err)
	require.Len(t, vars, 2)

	assert.Equal(t, "threshold", vars[0].Path)
	assert.True(t, vars[0].Scalar())
	assert.Equal(t, Literal{Value: 18}, vars[0].Expr)

	assert.Equal(t, "is_adult", vars[1].Path)
	assert.Equal(t, "person", vars[1].Entity)
	assert.False(t, vars[1].Scalar())
}

// TestVariable_UnmarshalJSON_AbsentEntity treats a missing entity field
// as scalar scope.
func TestVariable_UnmarshalJSON_AbsentEntity(t *testing.T) {
	vars, err := UnmarshalVariables([]byte(`[{"path": "rate", "expr": {"type": "literal", "value": 0.34}}]`))
	require.NoError(t, err)
	require.Len(t, vars, 1)
	assert.True(t, vars[0].Scalar())
}

// TestVariable_UnmarshalJSON_MissingPath rejects a definition without a
// path - that is a data-shape contract violation, not rule content.
func TestVariable_UnmarshalJSON_MissingPath(t *testing.T) {
	_, err := UnmarshalVariables([]byte(`[{"expr": {"type": "literal", "value": 1}}]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path is required")
}

// TestVariable_MarshalJSON_RoundTrip verifies variables round-trip with
// entity scope preserved, including zero-valued literals.
func TestVariable_MarshalJSON_RoundTrip(t *testing.T) {
	original := []Variable{
		{Path: "base", Expr: Literal{Value: 0}},
		{Path: "double", Entity: "person", Expr: BinOp{Op: "*", Left: Var{Path: "age"}, Right: Literal{Value: 2}}},
	}

	data, err := json.Marshal(original)
	require.NoError(t, err)

	decoded, err := UnmarshalVariables(data)
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}
