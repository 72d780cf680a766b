package harness

import (
	"fmt"

	"github.com/rulesfoundation/rac/internal/engine"
	"github.com/rulesfoundation/rac/internal/ir"
)

// Scenario describes one end-to-end rule-set run.
type Scenario struct {
	// Name identifies the scenario in failures and golden files.
	Name string

	// Variables is the rule set, in declaration order.
	Variables []ir.Variable

	// Order optionally fixes the execution order. Left nil, the harness
	// resolves it from the dependency graph.
	Order []string

	// Entity selects the dataset slice for the row phase.
	Entity string

	// Rows is the input dataset slice.
	Rows []engine.Bindings

	// Workers bounds the row phase; zero means GOMAXPROCS.
	Workers int
}

// Validate checks the scenario is runnable before execution so a broken
// scenario fails with a message instead of a zero-filled result.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("scenario has no name")
	}
	if len(s.Variables) == 0 {
		return fmt.Errorf("scenario %s: no variables", s.Name)
	}
	seen := make(map[string]bool, len(s.Variables))
	for _, v := range s.Variables {
		if v.Path == "" {
			return fmt.Errorf("scenario %s: variable with empty path", s.Name)
		}
		if seen[v.Path] {
			return fmt.Errorf("scenario %s: duplicate variable %s", s.Name, v.Path)
		}
		seen[v.Path] = true
	}
	return nil
}
