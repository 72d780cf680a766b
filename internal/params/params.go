// Package params loads time-varying policy parameters from YAML files
// and resolves them into scalar bindings for a given effective date.
//
// The file format is a map of parameter paths to definitions:
//
//	gov.irs.eitc.phase_in_rate:
//	  description: EITC phase-in credit percentage
//	  unit: rate
//	  reference: "26 USC 32(b)(1)"
//	  values:
//	    2021-01-01: 0.30
//	    2024-01-01: 0.34
//
// Resolution picks, per parameter, the most recent value whose date is
// on or before the requested date. Parameters with no applicable value
// or a non-numeric value are skipped rather than failing the run, in
// line with the engine's fail-soft ingestion.
package params

import (
	"fmt"
	"sort"
	"time"
)

// DateLayout is the on-disk date format for value keys and CLI flags.
const DateLayout = "2006-01-02"

// Definition is one loaded parameter: metadata plus its values over time.
type Definition struct {
	Path        string `yaml:"-"` // set from the map key on load
	Description string `yaml:"description"`
	Unit        string `yaml:"unit"`
	Reference   string `yaml:"reference"`

	// Values maps effective-from dates (YYYY-MM-DD) to raw values.
	Values map[string]any `yaml:"values"`
}

// ValueAt returns the value effective at the given date, or false when
// no value applies or the applicable value is not numeric.
func (d Definition) ValueAt(asOf time.Time) (float64, bool) {
	type dated struct {
		from  time.Time
		value any
	}
	applicable := make([]dated, 0, len(d.Values))
	for key, raw := range d.Values {
		from, err := time.Parse(DateLayout, key)
		if err != nil {
			continue // malformed date key, skip
		}
		if !from.After(asOf) {
			applicable = append(applicable, dated{from: from, value: raw})
		}
	}
	if len(applicable) == 0 {
		return 0, false
	}

	sort.Slice(applicable, func(i, j int) bool {
		return applicable[i].from.After(applicable[j].from)
	})
	return asFloat(applicable[0].value)
}

// asFloat coerces YAML scalar types to float64.
func asFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case bool:
		if val {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// Store is a collection of parameter definitions keyed by path.
type Store struct {
	params map[string]Definition
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{params: make(map[string]Definition)}
}

// Add registers a definition, replacing any existing one at the path.
func (s *Store) Add(def Definition) {
	s.params[def.Path] = def
}

// Get returns the definition for a path.
func (s *Store) Get(path string) (Definition, bool) {
	def, ok := s.params[path]
	return def, ok
}

// Len returns the number of loaded parameters.
func (s *Store) Len() int {
	return len(s.params)
}

// Resolve produces scalar bindings for the given date: one entry per
// parameter with an applicable numeric value. The result feeds the
// engine's scalar bindings ahead of the scalar pass, so rules can
// reference parameters by path like any other variable.
func (s *Store) Resolve(asOf time.Time) map[string]float64 {
	out := make(map[string]float64, len(s.params))
	for path, def := range s.params {
		if v, ok := def.ValueAt(asOf); ok {
			out[path] = v
		}
	}
	return out
}

// ParseDate parses a YYYY-MM-DD date string.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return t, nil
}
