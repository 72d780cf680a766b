// Package deps resolves execution order for rule sets.
//
// The execution core is deliberately permissive: it trusts the supplied
// order and degrades missing dependencies to zero. This package is the
// strict counterpart for callers that want an order computed for them, or
// want a caller-supplied order checked before a run.
package deps

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rulesfoundation/rac/internal/ir"
)

// CycleError reports a circular dependency among variables.
type CycleError struct {
	// Paths lists the variables involved in (or blocked behind) the
	// cycle, sorted for deterministic messages.
	Paths []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("circular dependency involving: %s", strings.Join(e.Paths, ", "))
}

// Graph is a directed dependency graph: each variable maps to the
// variables it depends on.
type Graph struct {
	deps map[string][]string
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{deps: make(map[string][]string)}
}

// Add registers a variable and its dependencies. Dependencies not yet
// registered are added as leaf nodes so the sort still covers them.
func (g *Graph) Add(path string, dependencies []string) {
	g.deps[path] = dependencies
	for _, dep := range dependencies {
		if _, ok := g.deps[dep]; !ok {
			g.deps[dep] = nil
		}
	}
}

// Dependencies returns the direct dependencies of a variable.
func (g *Graph) Dependencies(path string) []string {
	return g.deps[path]
}

// TopoSort returns all nodes ordered dependencies-first, using Kahn's
// algorithm. Ties are broken alphabetically so the order is deterministic
// for a given graph. Returns a CycleError if the graph is not acyclic.
func (g *Graph) TopoSort() ([]string, error) {
	// dependents: who waits on each node.
	dependents := make(map[string][]string, len(g.deps))
	inDegree := make(map[string]int, len(g.deps))
	for node, deps := range g.deps {
		inDegree[node] = len(deps)
		for _, dep := range deps {
			dependents[dep] = append(dependents[dep], node)
		}
	}

	var ready []string
	for node, degree := range inDegree {
		if degree == 0 {
			ready = append(ready, node)
		}
	}
	sort.Strings(ready)

	order := make([]string, 0, len(g.deps))
	for len(ready) > 0 {
		node := ready[0]
		ready = ready[1:]
		order = append(order, node)

		var released []string
		for _, dependent := range dependents[node] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				released = append(released, dependent)
			}
		}
		if len(released) > 0 {
			sort.Strings(released)
			ready = mergeSorted(ready, released)
		}
	}

	if len(order) != len(g.deps) {
		remaining := make([]string, 0)
		seen := make(map[string]bool, len(order))
		for _, n := range order {
			seen[n] = true
		}
		for node := range g.deps {
			if !seen[node] {
				remaining = append(remaining, node)
			}
		}
		sort.Strings(remaining)
		return nil, &CycleError{Paths: remaining}
	}

	return order, nil
}

// mergeSorted merges two sorted string slices.
func mergeSorted(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i] <= b[j] {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}

// FromVariables builds the dependency graph of a rule set from the
// variable references in each definition.
func FromVariables(vars []ir.Variable) *Graph {
	g := NewGraph()
	for _, v := range vars {
		g.Add(v.Path, ir.Refs(v.Expr))
	}
	return g
}

// Order computes a dependency-sorted execution order for a rule set.
// References to paths with no definition (primitive inputs such as row
// fields) are treated as leaves and included in the order; the execution
// core skips identifiers it has no definition for.
func Order(vars []ir.Variable) ([]string, error) {
	return FromVariables(vars).TopoSort()
}
