package query

import (
	"fmt"
	"strings"
)

// Compile converts a predicate to parameterized SQL selecting the
// matching row indexes of one run from the results table.
//
// Every leaf comparison becomes a single-path SELECT; conjunction and
// disjunction compose them with INTERSECT and UNION. The outer query
// always orders by row index so results are deterministic. All values
// are parameterized, never interpolated.
func Compile(p Predicate, runID string) (string, []any, error) {
	if err := Validate(p); err != nil {
		return "", nil, err
	}
	inner, params, err := compilePredicate(p, runID)
	if err != nil {
		return "", nil, err
	}
	sql := fmt.Sprintf("SELECT row_index FROM (%s) ORDER BY row_index", inner)
	return sql, params, nil
}

func compilePredicate(p Predicate, runID string) (string, []any, error) {
	switch pred := p.(type) {
	case Compare:
		sql := fmt.Sprintf(
			"SELECT row_index FROM results WHERE run_id = ? AND path = ? AND value %s ?",
			validOps[pred.Op])
		return sql, []any{runID, pred.Path, pred.Value}, nil

	case And:
		return compileCompound(pred.Preds, "INTERSECT", runID)

	case Or:
		return compileCompound(pred.Preds, "UNION", runID)

	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func compileCompound(preds []Predicate, setOp, runID string) (string, []any, error) {
	parts := make([]string, len(preds))
	var params []any
	for i, sub := range preds {
		sql, subParams, err := compilePredicate(sub, runID)
		if err != nil {
			return "", nil, err
		}
		// SQLite's compound operators share one precedence level, so a
		// nested compound must become a subquery to keep its grouping.
		if _, leaf := sub.(Compare); !leaf {
			sql = fmt.Sprintf("SELECT row_index FROM (%s)", sql)
		}
		parts[i] = sql
		params = append(params, subParams...)
	}
	return strings.Join(parts, " "+setOp+" "), params, nil
}
