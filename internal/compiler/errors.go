package compiler

import (
	"fmt"

	"cuelang.org/go/cue/token"
)

// CompileError reports a problem compiling a rule definition, with the
// CUE source position when available.
type CompileError struct {
	Rule    string
	Field   string
	Message string
	Pos     token.Pos
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	loc := ""
	if e.Pos.IsValid() {
		loc = fmt.Sprintf("%s:%d:%d: ", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column())
	}
	if e.Rule != "" {
		return fmt.Sprintf("%srule %q: %s: %s", loc, e.Rule, e.Field, e.Message)
	}
	return fmt.Sprintf("%s%s: %s", loc, e.Field, e.Message)
}
