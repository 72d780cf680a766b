// Package query filters stored run results. A small predicate language
// compiles to parameterized SQL over the results table, so large runs
// can be searched without loading every row back into memory.
package query

import (
	"fmt"
	"strconv"
	"strings"
)

// Predicate represents a filter condition over result rows.
//
// This is a sealed interface - only types in this package implement it.
// The marker method pattern prevents external implementations and enables
// exhaustive type switches in the SQL compiler.
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// Compare matches rows whose stored value at Path satisfies Op against
// Value. Comparison is exact on the stored float; the evaluator's
// tolerance applies at compute time, not at query time.
type Compare struct {
	Path  string
	Op    string // "==", "!=", ">", ">=", "<", "<="
	Value float64
}

func (Compare) predicateNode() {}

// And matches rows satisfying every sub-predicate.
type And struct {
	Preds []Predicate
}

func (And) predicateNode() {}

// Or matches rows satisfying at least one sub-predicate.
type Or struct {
	Preds []Predicate
}

func (Or) predicateNode() {}

// validOps is the comparison operator set, shared by Validate and the
// SQL compiler.
var validOps = map[string]string{
	"==": "=",
	"!=": "<>",
	">":  ">",
	">=": ">=",
	"<":  "<",
	"<=": "<=",
}

// Validate checks a predicate tree for empty paths, unknown operators,
// and empty conjunctions.
func Validate(p Predicate) error {
	switch pred := p.(type) {
	case nil:
		return fmt.Errorf("nil predicate")
	case Compare:
		if pred.Path == "" {
			return fmt.Errorf("comparison with empty path")
		}
		if _, ok := validOps[pred.Op]; !ok {
			return fmt.Errorf("unknown comparison operator %q", pred.Op)
		}
		return nil
	case And:
		if len(pred.Preds) == 0 {
			return fmt.Errorf("empty and predicate")
		}
		for _, sub := range pred.Preds {
			if err := Validate(sub); err != nil {
				return err
			}
		}
		return nil
	case Or:
		if len(pred.Preds) == 0 {
			return fmt.Errorf("empty or predicate")
		}
		for _, sub := range pred.Preds {
			if err := Validate(sub); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported predicate type: %T", p)
	}
}

// ParseCompare parses a textual comparison of the form "path op value",
// e.g. "benefit > 0". Whitespace separates the three parts, so paths
// must not contain spaces.
func ParseCompare(s string) (Compare, error) {
	parts := strings.Fields(s)
	if len(parts) != 3 {
		return Compare{}, fmt.Errorf("comparison %q: want \"path op value\"", s)
	}
	if _, ok := validOps[parts[1]]; !ok {
		return Compare{}, fmt.Errorf("comparison %q: unknown operator %q", s, parts[1])
	}
	value, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return Compare{}, fmt.Errorf("comparison %q: value is not a number: %v", s, err)
	}
	return Compare{Path: parts[0], Op: parts[1], Value: value}, nil
}

// ParseAll parses several textual comparisons into one conjunction.
// A single comparison stays a Compare rather than a one-element And.
func ParseAll(exprs []string) (Predicate, error) {
	if len(exprs) == 0 {
		return nil, fmt.Errorf("no filter expressions")
	}
	if len(exprs) == 1 {
		return ParseCompare(exprs[0])
	}
	preds := make([]Predicate, len(exprs))
	for i, s := range exprs {
		c, err := ParseCompare(s)
		if err != nil {
			return nil, err
		}
		preds[i] = c
	}
	return And{Preds: preds}, nil
}
