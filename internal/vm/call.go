package vm

import (
	"fmt"

	"greyvm/internal/ir"
	"greyvm/internal/value"
)

// lookup resolves a variable: locals, then the captured outer scope, then
// globals, then the intrinsic API.
func (vm *VM) lookup(fr *Frame, name string) (value.Value, error) {
	key := value.Str(name)
	if v, ok := fr.Locals.Get(key); ok {
		return v, nil
	}
	if fr.Outer != nil {
		if v, ok := fr.Outer.Get(key); ok {
			return v, nil
		}
	}
	if v, ok := fr.Globals.Get(key); ok {
		return v, nil
	}
	if v, _, ok := vm.intrinsics.API.Lookup(key); ok {
		return v, nil
	}
	return value.Null, fmt.Errorf("%w %q", value.ErrUnknownPath, name)
}

// superOf is the super binding for a method found on origin.
func superOf(origin *value.Map) value.Value {
	if origin == nil || origin.Isa() == nil {
		return value.Null
	}
	return value.FromMap(origin.Isa())
}

// deliver finishes a lookup: callables are invoked when the instruction
// asks for it, anything else is pushed unless the lookup is a command.
func (vm *VM) deliver(v, self value.Value, origin *value.Map, inst *ir.Instruction) (bool, error) {
	if inst.Invoke && v.Kind == value.KindFunction {
		return vm.invoke(v.Func, nil, self, superOf(origin), inst.Command)
	}
	if !inst.Command {
		vm.push(v)
	}
	return false, nil
}

// call handles the CALL family. Arguments and callee are already popped,
// so a failing call leaves the operand stack as it was before the
// statement started.
func (vm *VM) call(callee value.Value, args []value.Value, self value.Value, origin *value.Map, inst *ir.Instruction) (bool, error) {
	if callee.Kind != value.KindFunction {
		if len(args) > 0 {
			return false, fmt.Errorf("%w: %s is not callable", ErrTooManyArguments, callee.TypeName())
		}
		if !inst.Command {
			vm.push(callee)
		}
		return false, nil
	}
	return vm.invoke(callee.Func, args, self, superOf(origin), inst.Command)
}

// bind maps positional arguments onto the declared parameters. A leading
// self parameter takes the receiver instead of an argument.
func bind(fn *value.Function, args []value.Value) ([]value.Value, error) {
	if len(args) > fn.Arity() {
		return nil, fmt.Errorf("%w: %s takes %d, got %d", ErrTooManyArguments, fn.Name, fn.Arity(), len(args))
	}
	params := fn.Params
	if fn.HasSelf() {
		params = params[1:]
	}
	bound := make([]value.Value, len(params))
	copy(bound, args)
	for i := len(args); i < len(params); i++ {
		if params[i].HasDefault {
			bound[i] = params[i].Default
		}
	}
	return bound, nil
}

func (vm *VM) invoke(fn *value.Function, args []value.Value, self, super value.Value, command bool) (bool, error) {
	// len(x) style: without a receiver the first argument becomes self.
	if fn.HasSelf() && self.IsNull() && len(args) > 0 {
		self, args = args[0], args[1:]
	}
	bound, err := bind(fn, args)
	if err != nil {
		return false, err
	}

	if fn.IsNative() {
		return vm.invokeNative(fn, bound, self, command)
	}

	if len(vm.frames) >= vm.opts.MaxFrames {
		return false, fmt.Errorf("%w: %d frames", ErrFrameStackOverflow, len(vm.frames))
	}

	caller := vm.frame()
	locals := value.NewMap()
	params := fn.Params
	if fn.HasSelf() {
		locals.SetString("self", self)
		params = params[1:]
	}
	for i, p := range params {
		locals.SetString(p.Name, bound[i])
	}

	vm.frames = append(vm.frames, &Frame{
		Name:            fn.Name,
		Code:            fn.Code,
		Locals:          locals,
		Globals:         vm.globals,
		Outer:           fn.Outer,
		Self:            self,
		Super:           super,
		CalledByCommand: command,
		Caller:          caller,
	})
	if d := len(vm.frames); d > vm.stats.MaxDepth {
		vm.stats.MaxDepth = d
	}
	return false, nil
}

func (vm *VM) invokeNative(fn *value.Function, args []value.Value, self value.Value, command bool) (bool, error) {
	res, err := fn.Native(&value.NativeCall{
		Context:    vm.ctx,
		Host:       vm.opts.Host,
		Self:       self,
		Args:       args,
		Intrinsics: vm.intrinsics,
		Machine:    vm,
	})
	if err != nil {
		return false, fmt.Errorf("%s: %w", fn.Name, err)
	}
	if a, ok := res.Awaitable(); ok {
		vm.awaiting = a
		vm.awaitCommand = command
		return true, nil
	}
	if !command {
		vm.push(res)
	}
	return false, nil
}

// popFrame returns from the current frame. Returning from the root frame
// ends the program.
func (vm *VM) popFrame(result value.Value) {
	if len(vm.frames) == 1 {
		vm.finish()
		return
	}
	fr := vm.frame()
	fr.iterators = nil
	vm.frames = vm.frames[:len(vm.frames)-1]
	if !fr.CalledByCommand {
		vm.push(result)
	}
}
