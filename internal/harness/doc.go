// Package harness runs declarative rule-set scenarios in tests.
//
// A Scenario names a rule set, a dataset slice, and the entity to run
// over. The harness resolves the execution order, runs both phases, and
// hands back the result together with the order and plan hash so tests
// can assert on them. Expectations are small composable checks
// (ScalarIs, RowIs, RowCount) collected and reported together, and a
// scenario's whole output can be pinned as a canonical-JSON golden file.
//
// The harness exists so behavioral tests read as scenarios rather than
// as engine plumbing. Packages under test keep their own unit tests;
// this package is for end-to-end rule semantics.
package harness
