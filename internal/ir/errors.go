package ir

import (
	"fmt"

	"greyvm/internal/token"
)

// CompileError aborts compilation of a target. No partial bytecode is
// returned alongside it.
type CompileError struct {
	Message string
	Target  string
	Range   token.Range
	Err     error
}

func (e *CompileError) Error() string {
	if e.Range.Start.Line == 0 {
		return fmt.Sprintf("%s: %s", e.Target, e.Message)
	}
	return fmt.Sprintf("%s:%d:%d: %s", e.Target, e.Range.Start.Line, e.Range.Start.Column, e.Message)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}
