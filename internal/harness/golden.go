package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/rulesfoundation/rac/internal/ir"
)

// RunWithGolden runs a scenario and compares its full output against the
// golden file named after the scenario under testdata/golden. Regenerate
// goldens with `go test -update` after an intentional behavior change.
func RunWithGolden(t *testing.T, s *Scenario) *RunResult {
	t.Helper()

	result, err := Run(s)
	if err != nil {
		t.Fatalf("scenario %s: %v", s.Name, err)
	}

	AssertGolden(t, result)
	return result
}

// AssertGolden compares an already-run scenario's output against its
// golden file. Canonical JSON keeps the snapshot byte-stable across
// runs and map iteration orders.
func AssertGolden(t *testing.T, r *RunResult) {
	t.Helper()

	snapshot, err := ir.MarshalCanonical(r.toCanonicalMap())
	if err != nil {
		t.Fatalf("scenario %s: marshal snapshot: %v", r.Scenario.Name, err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, r.Scenario.Name, snapshot)
}
