package harness

import (
	"context"
	"fmt"

	"github.com/rulesfoundation/rac/internal/deps"
	"github.com/rulesfoundation/rac/internal/engine"
	"github.com/rulesfoundation/rac/internal/ir"
)

// RunResult is a scenario's execution outcome plus the resolved order
// and plan identity, for assertions that reach beyond the raw bindings.
type RunResult struct {
	Scenario *Scenario
	Order    []string
	PlanHash string
	Result   *engine.Result
}

// Run validates and executes a scenario.
func Run(s *Scenario) (*RunResult, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	order := s.Order
	if order == nil {
		resolved, err := deps.Order(s.Variables)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
		}
		order = resolved
	}

	hash, err := ir.PlanHash(s.Variables, order)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}

	result, err := engine.Execute(context.Background(), s.Variables, order, s.Entity, s.Rows,
		engine.WithWorkers(s.Workers))
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}

	return &RunResult{
		Scenario: s,
		Order:    order,
		PlanHash: hash,
		Result:   result,
	}, nil
}

// toCanonicalMap converts the result to plain maps and slices for
// canonical JSON. The plan hash is left out: golden files pin observable
// behavior, and the hash would churn on any rule-set edit.
func (r *RunResult) toCanonicalMap() map[string]any {
	rows := make([]any, len(r.Result.Rows))
	for i, row := range r.Result.Rows {
		rows[i] = bindingsToMap(row)
	}
	return map[string]any{
		"entity":  r.Scenario.Entity,
		"order":   r.Order,
		"scalars": bindingsToMap(r.Result.Scalars),
		"rows":    rows,
	}
}

func bindingsToMap(b engine.Bindings) map[string]any {
	out := make(map[string]any, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}
