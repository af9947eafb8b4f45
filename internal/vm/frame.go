package vm

import (
	"greyvm/internal/ir"
	"greyvm/internal/value"
)

// Frame is the activation record of a function, import body or the root
// program.
type Frame struct {
	Name string
	Code []*ir.Instruction
	IP   int

	Locals  *value.Map
	Globals *value.Map
	Outer   *value.Map // nil when the function ignores its lexical scope
	Self    value.Value
	Super   value.Value

	// CalledByCommand suppresses pushing the return value.
	CalledByCommand bool
	// Caller is the frame to return to; nil for the root frame.
	Caller *Frame

	iterators []Iterator
}

// current is the instruction being executed, or nil before the first one.
func (f *Frame) current() *ir.Instruction {
	if f.IP == 0 || f.IP > len(f.Code) {
		return nil
	}
	return f.Code[f.IP-1]
}

func (f *Frame) pushIterator(it Iterator) {
	f.iterators = append(f.iterators, it)
}

func (f *Frame) topIterator() Iterator {
	if len(f.iterators) == 0 {
		return nil
	}
	return f.iterators[len(f.iterators)-1]
}

func (f *Frame) popIterator() {
	if len(f.iterators) > 0 {
		f.iterators = f.iterators[:len(f.iterators)-1]
	}
}

// Iterators reports how many loops are active in the frame.
func (f *Frame) Iterators() int {
	return len(f.iterators)
}
