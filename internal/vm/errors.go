package vm

import (
	"errors"
	"fmt"
	"strings"

	"greyvm/internal/ir"
)

var (
	ErrFrameStackOverflow   = errors.New("frame stack overflow")
	ErrOperandStackOverflow = errors.New("operand stack overflow")
	ErrStackUnderflow       = errors.New("operand stack underflow")
	ErrTooManyArguments     = errors.New("too many arguments")
	ErrNotPending           = errors.New("vm is not pending")
	ErrUnknownEnvVar        = errors.New("unknown environment variable")
	ErrNoSuper              = errors.New("no super in this context")
	ErrSequenceTooLong      = errors.New("sequence too long")
)

// RuntimeError aborts a run. It carries the instruction that failed and
// the instruction each active frame was executing, innermost first.
type RuntimeError struct {
	Message     string
	Instruction *ir.Instruction
	Stack       []*ir.Instruction
	Err         error
}

func (e *RuntimeError) Error() string {
	if e.Instruction == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Instruction.Source, e.Message)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// Trace renders the frame stack, innermost call first.
func (e *RuntimeError) Trace() string {
	var b strings.Builder
	for _, inst := range e.Stack {
		fmt.Fprintf(&b, "  at %s (%s)\n", inst.Source.Name, inst.Source)
	}
	return b.String()
}
