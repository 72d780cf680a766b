package deps

import (
	"fmt"

	"github.com/rulesfoundation/rac/internal/ir"
)

// ValidateOrder checks a caller-supplied execution order against a rule
// set: every defined variable must appear in the order, and every
// variable must appear after all defined variables it depends on.
//
// References to undefined paths (primitive inputs) are not order
// constraints - they resolve from row fields at run time.
//
// The execution core never calls this; it trusts the order and degrades
// silently. Validation is for test and debug callers that prefer a loud
// failure over a silently wrong result.
func ValidateOrder(vars []ir.Variable, order []string) error {
	defined := make(map[string]bool, len(vars))
	for _, v := range vars {
		defined[v.Path] = true
	}

	position := make(map[string]int, len(order))
	for i, path := range order {
		if _, ok := position[path]; !ok {
			position[path] = i
		}
	}

	for _, v := range vars {
		pos, ok := position[v.Path]
		if !ok {
			return fmt.Errorf("execution order is missing variable %q", v.Path)
		}
		for _, dep := range ir.Refs(v.Expr) {
			if !defined[dep] {
				continue // primitive input, resolved from row fields
			}
			depPos, ok := position[dep]
			if !ok {
				return fmt.Errorf("execution order is missing %q, a dependency of %q", dep, v.Path)
			}
			if depPos > pos {
				return fmt.Errorf("execution order places %q after %q, which depends on it", dep, v.Path)
			}
		}
	}

	return nil
}
