// Package compiler turns CUE rule files into the executable IR.
//
// A rule file declares variables under a top-level "rules" struct, each
// with an optional entity scope and an expression in the same tagged
// form as the JSON wire format:
//
//	rules: {
//		threshold: {
//			expr: {type: "literal", value: 18}
//		}
//		is_adult: {
//			entity: "person"
//			expr: {
//				type:  "binop"
//				op:    ">="
//				left:  {type: "var", path: "age"}
//				right: {type: "var", path: "threshold"}
//			}
//		}
//	}
//
// Declaration order is preserved; the CLI resolves the execution order
// from the dependency graph afterwards.
package compiler

import (
	"cuelang.org/go/cue"

	"github.com/rulesfoundation/rac/internal/ir"
)

// CompileRules parses a CUE value holding a rule set into variable
// definitions, in declaration order. Uses the CUE SDK's Go API directly,
// not a CLI subprocess.
//
// The value should be the file/instance value; rules are looked up under
// the top-level "rules" field.
func CompileRules(v cue.Value) ([]ir.Variable, error) {
	if err := v.Err(); err != nil {
		return nil, err
	}

	rulesVal := v.LookupPath(cue.ParsePath("rules"))
	if !rulesVal.Exists() {
		return nil, &CompileError{
			Field:   "rules",
			Message: "no top-level rules struct found",
			Pos:     v.Pos(),
		}
	}

	iter, err := rulesVal.Fields()
	if err != nil {
		return nil, &CompileError{
			Field:   "rules",
			Message: err.Error(),
			Pos:     rulesVal.Pos(),
		}
	}

	var vars []ir.Variable
	for iter.Next() {
		variable, err := compileRule(iter.Selector().Unquoted(), iter.Value())
		if err != nil {
			return nil, err
		}
		vars = append(vars, variable)
	}

	return vars, nil
}

// compileRule parses a single rule struct into a Variable.
func compileRule(path string, v cue.Value) (ir.Variable, error) {
	variable := ir.Variable{Path: path}

	// entity is optional; absent means scalar scope.
	entityVal := v.LookupPath(cue.ParsePath("entity"))
	if entityVal.Exists() {
		entity, err := entityVal.String()
		if err != nil {
			return ir.Variable{}, &CompileError{
				Rule:    path,
				Field:   "entity",
				Message: "must be a string",
				Pos:     entityVal.Pos(),
			}
		}
		variable.Entity = entity
	}

	exprVal := v.LookupPath(cue.ParsePath("expr"))
	if !exprVal.Exists() {
		return ir.Variable{}, &CompileError{
			Rule:    path,
			Field:   "expr",
			Message: "expr is required",
			Pos:     v.Pos(),
		}
	}

	// The expr struct uses the wire encoding; reuse the IR codec rather
	// than re-walking CUE values node by node.
	data, err := exprVal.MarshalJSON()
	if err != nil {
		return ir.Variable{}, &CompileError{
			Rule:    path,
			Field:   "expr",
			Message: err.Error(),
			Pos:     exprVal.Pos(),
		}
	}
	expr, err := ir.UnmarshalExpr(data)
	if err != nil {
		return ir.Variable{}, &CompileError{
			Rule:    path,
			Field:   "expr",
			Message: err.Error(),
			Pos:     exprVal.Pos(),
		}
	}
	variable.Expr = expr

	return variable, nil
}
