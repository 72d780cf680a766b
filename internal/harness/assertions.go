package harness

import (
	"fmt"
	"math"
	"testing"
)

// tolerance is the absolute delta allowed by value expectations.
const tolerance = 1e-9

// Expectation is one check against a scenario's result.
type Expectation interface {
	// Check returns nil when the expectation holds.
	Check(r *RunResult) error
}

// ScalarIs expects a scalar binding to hold a value.
type ScalarIs struct {
	Path  string
	Value float64
}

func (e ScalarIs) Check(r *RunResult) error {
	got, ok := r.Result.Scalars[e.Path]
	if !ok {
		return fmt.Errorf("scalar %s: not computed", e.Path)
	}
	if math.Abs(got-e.Value) > tolerance {
		return fmt.Errorf("scalar %s: got %v, want %v", e.Path, got, e.Value)
	}
	return nil
}

// RowIs expects a row binding to hold a value.
type RowIs struct {
	Row   int
	Path  string
	Value float64
}

func (e RowIs) Check(r *RunResult) error {
	if e.Row < 0 || e.Row >= len(r.Result.Rows) {
		return fmt.Errorf("row %d: out of range, result has %d row(s)", e.Row, len(r.Result.Rows))
	}
	got, ok := r.Result.Rows[e.Row][e.Path]
	if !ok {
		return fmt.Errorf("row %d %s: not computed", e.Row, e.Path)
	}
	if math.Abs(got-e.Value) > tolerance {
		return fmt.Errorf("row %d %s: got %v, want %v", e.Row, e.Path, got, e.Value)
	}
	return nil
}

// RowCount expects the result to hold exactly N rows.
type RowCount struct {
	N int
}

func (e RowCount) Check(r *RunResult) error {
	if len(r.Result.Rows) != e.N {
		return fmt.Errorf("row count: got %d, want %d", len(r.Result.Rows), e.N)
	}
	return nil
}

// OrderedBefore expects one variable to execute before another.
type OrderedBefore struct {
	First, Second string
}

func (e OrderedBefore) Check(r *RunResult) error {
	first, second := -1, -1
	for i, path := range r.Order {
		switch path {
		case e.First:
			first = i
		case e.Second:
			second = i
		}
	}
	if first < 0 {
		return fmt.Errorf("order: %s not present", e.First)
	}
	if second < 0 {
		return fmt.Errorf("order: %s not present", e.Second)
	}
	if first >= second {
		return fmt.Errorf("order: %s at %d does not precede %s at %d", e.First, first, e.Second, second)
	}
	return nil
}

// Expect runs a scenario and checks every expectation, reporting all
// failures rather than stopping at the first.
func Expect(t *testing.T, s *Scenario, expectations ...Expectation) *RunResult {
	t.Helper()

	result, err := Run(s)
	if err != nil {
		t.Fatalf("scenario %s: %v", s.Name, err)
	}

	for _, e := range expectations {
		if err := e.Check(result); err != nil {
			t.Errorf("scenario %s: %v", s.Name, err)
		}
	}
	return result
}
