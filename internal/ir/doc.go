// Package ir provides the compiled intermediate representation for RAC
// rule sets: the expression tree, variable definitions, and their wire
// encoding.
//
// This package contains data types and codecs only. All other internal
// packages import ir; ir imports nothing internal. This keeps the IR the
// foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Expressions are finite trees with owned children; no sharing, no
//     cycles are possible by construction.
//   - All values are float64. Non-numeric inputs are normalized or dropped
//     by the caller before they reach the IR.
//   - Decoding is fail-soft for rule content: an unrecognized expression
//     tag becomes a zero literal instead of a decode error. Structural
//     decode failures (malformed JSON) still surface to the caller.
package ir
