package value

import (
	"context"
	"sync/atomic"
	"time"

	"greyvm/internal/ir"
)

var lastID atomic.Uint64

func nextID() uint64 {
	return lastID.Add(1)
}

// Param is a declared parameter. A parameter named "self" in first position
// receives the call receiver.
type Param struct {
	Name       string
	Default    Value
	HasDefault bool
}

// Machine is the part of the running VM visible to native functions.
type Machine interface {
	Exit()
	Yield()
	Elapsed() time.Duration
	EnvVar(name string) (string, bool)
}

// NativeCall is what a native function receives. Args are already bound to
// the declared parameters (self excluded), defaults applied.
type NativeCall struct {
	Context    context.Context
	Host       any
	Self       Value
	Args       []Value
	Intrinsics *Intrinsics
	Machine    Machine
}

func (c *NativeCall) Arg(i int) Value {
	if i < 0 || i >= len(c.Args) {
		return Null
	}
	return c.Args[i]
}

type NativeFunc func(call *NativeCall) (Value, error)

// Function is either compiled script code or a native implementation.
type Function struct {
	id uint64

	Name        string
	Params      []Param
	Code        []*ir.Instruction
	Native      NativeFunc
	Outer       *Map
	IgnoreOuter bool
}

// FromDef instantiates a FUNCTION_DEFINITION. outer is kept unless the
// definition ignores its lexical scope.
func FromDef(def *ir.FuncDef, outer *Map) *Function {
	params := make([]Param, len(def.Params))
	for i, p := range def.Params {
		params[i] = Param{
			Name:       p.Name,
			Default:    FromConstant(p.Default),
			HasDefault: p.HasDefault,
		}
	}
	f := &Function{
		id:          nextID(),
		Name:        def.Name,
		Params:      params,
		Code:        def.Code,
		IgnoreOuter: def.IgnoreOuter,
	}
	if !def.IgnoreOuter {
		f.Outer = outer
	}
	return f
}

func NewNative(name string, params []Param, fn NativeFunc) *Function {
	return &Function{id: nextID(), Name: name, Params: params, Native: fn, IgnoreOuter: true}
}

func (f *Function) IsNative() bool {
	return f.Native != nil
}

// HasSelf reports whether the first parameter takes the receiver.
func (f *Function) HasSelf() bool {
	return len(f.Params) > 0 && f.Params[0].Name == "self"
}

// Arity is the number of parameters that accept positional arguments.
func (f *Function) Arity() int {
	if f.HasSelf() {
		return len(f.Params) - 1
	}
	return len(f.Params)
}
