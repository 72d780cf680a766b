package ir

import (
	"encoding/json"
	"fmt"
)

// Expression wire tags. The JSON form is the boundary contract with rule
// compilers in other languages, so the tags are stable.
const (
	tagLiteral = "literal"
	tagVar     = "var"
	tagBinOp   = "binop"
	tagCall    = "call"
	tagCond    = "cond"
)

// exprJSON is the union wire shape for all expression variants.
type exprJSON struct {
	Type  string            `json:"type"`
	Value float64           `json:"value,omitempty"`
	Path  string            `json:"path,omitempty"`
	Op    string            `json:"op,omitempty"`
	Left  json.RawMessage   `json:"left,omitempty"`
	Right json.RawMessage   `json:"right,omitempty"`
	Func  string            `json:"func,omitempty"`
	Args  []json.RawMessage `json:"args,omitempty"`
	If    json.RawMessage   `json:"cond,omitempty"`
	Then  json.RawMessage   `json:"then,omitempty"`
	Else  json.RawMessage   `json:"else,omitempty"`
}

// UnmarshalExpr decodes the string-tagged wire form into an Expr.
//
// An unrecognized type tag decodes to Literal{0} rather than failing:
// rule-content degradation is silent. Structurally malformed JSON is a
// boundary contract violation and returns an error.
func UnmarshalExpr(data []byte) (Expr, error) {
	var raw exprJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode expression: %w", err)
	}
	return exprFromJSON(raw)
}

func exprFromJSON(raw exprJSON) (Expr, error) {
	switch raw.Type {
	case tagLiteral:
		return Literal{Value: raw.Value}, nil

	case tagVar:
		return Var{Path: raw.Path}, nil

	case tagBinOp:
		left, err := unmarshalChild(raw.Left, "left")
		if err != nil {
			return nil, err
		}
		right, err := unmarshalChild(raw.Right, "right")
		if err != nil {
			return nil, err
		}
		return BinOp{Op: raw.Op, Left: left, Right: right}, nil

	case tagCall:
		args := make([]Expr, len(raw.Args))
		for i, a := range raw.Args {
			arg, err := unmarshalChild(a, fmt.Sprintf("args[%d]", i))
			if err != nil {
				return nil, err
			}
			args[i] = arg
		}
		return Call{Func: raw.Func, Args: args}, nil

	case tagCond:
		cond, err := unmarshalChild(raw.If, "cond")
		if err != nil {
			return nil, err
		}
		then, err := unmarshalChild(raw.Then, "then")
		if err != nil {
			return nil, err
		}
		els, err := unmarshalChild(raw.Else, "else")
		if err != nil {
			return nil, err
		}
		return Cond{If: cond, Then: then, Else: els}, nil

	default:
		// Unknown tag degrades to a zero literal. A malformed rule must
		// not abort decoding of the rest of the rule set.
		return Literal{}, nil
	}
}

// unmarshalChild decodes a nested expression. A missing child (omitted
// field) degrades to a zero literal, same as an unknown tag.
func unmarshalChild(data json.RawMessage, field string) (Expr, error) {
	if len(data) == 0 {
		return Literal{}, nil
	}
	e, err := UnmarshalExpr(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	return e, nil
}

// MarshalExpr encodes an Expr into the string-tagged wire form.
func MarshalExpr(e Expr) ([]byte, error) {
	node, err := exprToJSON(e)
	if err != nil {
		return nil, err
	}
	return json.Marshal(node)
}

// exprToJSON builds the wire shape as a map so that zero literal values
// round-trip (omitempty on a float64 would drop "value": 0).
func exprToJSON(e Expr) (map[string]any, error) {
	switch v := e.(type) {
	case Literal:
		return map[string]any{"type": tagLiteral, "value": v.Value}, nil

	case Var:
		return map[string]any{"type": tagVar, "path": v.Path}, nil

	case BinOp:
		left, err := exprToJSON(v.Left)
		if err != nil {
			return nil, err
		}
		right, err := exprToJSON(v.Right)
		if err != nil {
			return nil, err
		}
		return map[string]any{"type": tagBinOp, "op": v.Op, "left": left, "right": right}, nil

	case Call:
		args := make([]any, len(v.Args))
		for i, a := range v.Args {
			node, err := exprToJSON(a)
			if err != nil {
				return nil, err
			}
			args[i] = node
		}
		return map[string]any{"type": tagCall, "func": v.Func, "args": args}, nil

	case Cond:
		cond, err := exprToJSON(v.If)
		if err != nil {
			return nil, err
		}
		then, err := exprToJSON(v.Then)
		if err != nil {
			return nil, err
		}
		els, err := exprToJSON(v.Else)
		if err != nil {
			return nil, err
		}
		return map[string]any{"type": tagCond, "cond": cond, "then": then, "else": els}, nil

	default:
		return nil, fmt.Errorf("unknown expression type: %T", e)
	}
}

// variableJSON is the wire shape for a variable definition.
type variableJSON struct {
	Path   string          `json:"path"`
	Entity *string         `json:"entity"`
	Expr   json.RawMessage `json:"expr"`
}

// UnmarshalJSON decodes a variable definition. A null or absent entity
// marks scalar scope.
func (v *Variable) UnmarshalJSON(data []byte) error {
	var raw variableJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode variable: %w", err)
	}
	if raw.Path == "" {
		return fmt.Errorf("decode variable: path is required")
	}

	expr, err := unmarshalChild(raw.Expr, "expr")
	if err != nil {
		return fmt.Errorf("decode variable %q: %w", raw.Path, err)
	}

	v.Path = raw.Path
	v.Entity = ""
	if raw.Entity != nil {
		v.Entity = *raw.Entity
	}
	v.Expr = expr
	return nil
}

// MarshalJSON encodes a variable definition with an explicit null entity
// for scalars, matching the decoder contract.
func (v Variable) MarshalJSON() ([]byte, error) {
	node, err := exprToJSON(v.Expr)
	if err != nil {
		return nil, fmt.Errorf("encode variable %q: %w", v.Path, err)
	}

	var entity *string
	if v.Entity != "" {
		entity = &v.Entity
	}
	return json.Marshal(variableOut{
		Path:   v.Path,
		Entity: entity,
		Expr:   node,
	})
}

// variableOut mirrors variableJSON with a decoded expr, for encoding.
type variableOut struct {
	Path   string         `json:"path"`
	Entity *string        `json:"entity"`
	Expr   map[string]any `json:"expr"`
}

// UnmarshalVariables decodes an ordered list of variable definitions.
func UnmarshalVariables(data []byte) ([]Variable, error) {
	var vars []Variable
	if err := json.Unmarshal(data, &vars); err != nil {
		return nil, fmt.Errorf("decode variables: %w", err)
	}
	return vars, nil
}
