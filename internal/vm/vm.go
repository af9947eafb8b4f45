package vm

import (
	"context"
	"errors"
	"fmt"
	goruntime "runtime"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"greyvm/internal/ir"
	"greyvm/internal/value"
)

const (
	DefaultMaxFrames       = 10000
	DefaultStackSize       = 512
	DefaultActionsPerYield = 80000
)

// State is the lifecycle of a VM. Only a pending VM executes.
type State int32

const (
	StatePreparation State = iota
	StatePending
	StateFinished
	StateStopped
)

func (s State) String() string {
	switch s {
	case StatePreparation:
		return "preparation"
	case StatePending:
		return "pending"
	case StateFinished:
		return "finished"
	case StateStopped:
		return "stopped"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// Status is what Resume reports to the scheduler.
type Status int

const (
	StatusDone    Status = iota // finished, stopped or failed
	StatusYield                 // budget used up, call Resume again
	StatusWaiting               // suspended until Wait() fires
)

type Options struct {
	Intrinsics *value.Intrinsics
	Host       any
	EnvVars    map[string]string

	MaxFrames       int
	StackSize       int
	ActionsPerYield int

	Logger   *zerolog.Logger
	Debugger *Debugger
}

// Stats counts work done by a VM.
type Stats struct {
	Instructions uint64
	Yields       uint64
	MaxDepth     int
	Elapsed      time.Duration
}

// VM executes one program. A VM is driven from a single goroutine; only
// Exit and Wait may be called concurrently.
type VM struct {
	id    uuid.UUID
	opts  Options
	log   zerolog.Logger
	state atomic.Int32

	intrinsics *value.Intrinsics
	globals    *value.Map

	frames []*Frame
	stack  []value.Value
	sp     int
	fault  error // sticky operand stack error

	awaiting       value.Awaitable
	awaitCommand   bool
	yieldRequested bool

	ctx     context.Context
	started time.Time
	stats   Stats
	stop    chan struct{} // closed by Exit
}

// New prepares a VM for prog.
func New(prog *ir.Program, opts Options) *VM {
	if opts.MaxFrames <= 0 {
		opts.MaxFrames = DefaultMaxFrames
	}
	if opts.StackSize <= 0 {
		opts.StackSize = DefaultStackSize
	}
	if opts.ActionsPerYield <= 0 {
		opts.ActionsPerYield = DefaultActionsPerYield
	}
	in := opts.Intrinsics
	if in == nil {
		in = value.NewIntrinsics()
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}

	id := uuid.New()
	globals := value.NewMap()
	vm := &VM{
		id:         id,
		opts:       opts,
		log:        log.With().Str("vm", id.String()).Logger(),
		intrinsics: in,
		globals:    globals,
		stack:      make([]value.Value, opts.StackSize),
		ctx:        context.Background(),
		stop:       make(chan struct{}),
	}
	vm.frames = []*Frame{{
		Name:    "global",
		Code:    prog.Code,
		Locals:  globals,
		Globals: globals,
	}}
	vm.stats.MaxDepth = 1
	return vm
}

func (vm *VM) ID() uuid.UUID {
	return vm.id
}

func (vm *VM) State() State {
	return State(vm.state.Load())
}

func (vm *VM) Globals() *value.Map {
	return vm.globals
}

func (vm *VM) Intrinsics() *value.Intrinsics {
	return vm.intrinsics
}

// StackDepth is the number of values on the operand stack.
func (vm *VM) StackDepth() int {
	return vm.sp
}

// Frames returns the active frames, root first.
func (vm *VM) Frames() []*Frame {
	out := make([]*Frame, len(vm.frames))
	copy(out, vm.frames)
	return out
}

func (vm *VM) Stats() Stats {
	s := vm.stats
	s.Elapsed = vm.Elapsed()
	return s
}

// Start moves the VM from preparation to pending.
func (vm *VM) Start() error {
	if !vm.state.CompareAndSwap(int32(StatePreparation), int32(StatePending)) {
		return fmt.Errorf("%w: %s", ErrNotPending, vm.State())
	}
	vm.started = time.Now()
	vm.log.Debug().Msg("exec")
	return nil
}

// Exit stops the VM. The dispatch loop notices on its next instruction and
// halts without unwinding.
func (vm *VM) Exit() {
	if vm.state.CompareAndSwap(int32(StatePending), int32(StateStopped)) ||
		vm.state.CompareAndSwap(int32(StatePreparation), int32(StateStopped)) {
		close(vm.stop)
		vm.log.Debug().Msg("stopped")
	}
}

// Stopped returns a channel that is closed once Exit stops the VM.
func (vm *VM) Stopped() <-chan struct{} {
	return vm.stop
}

// Yield ends the current slice after the running instruction.
func (vm *VM) Yield() {
	vm.yieldRequested = true
}

func (vm *VM) Elapsed() time.Duration {
	if vm.started.IsZero() {
		return 0
	}
	return time.Since(vm.started)
}

func (vm *VM) EnvVar(name string) (string, bool) {
	v, ok := vm.opts.EnvVars[name]
	return v, ok
}

// Exec runs the program to completion, yielding to other goroutines between
// slices and blocking while suspended.
func (vm *VM) Exec(ctx context.Context) error {
	if vm.State() == StatePreparation {
		if err := vm.Start(); err != nil {
			return err
		}
	}
	for {
		status, err := vm.Resume(ctx)
		if err != nil {
			return err
		}
		switch status {
		case StatusDone:
			return nil
		case StatusYield:
			goruntime.Gosched()
			if err := ctx.Err(); err != nil {
				vm.Exit()
				return err
			}
		case StatusWaiting:
			select {
			case <-vm.Wait():
			case <-vm.stop:
			case <-ctx.Done():
				vm.Exit()
				return ctx.Err()
			}
		}
	}
}

// Wait returns a channel that is closed once a waiting VM can make
// progress again.
func (vm *VM) Wait() <-chan struct{} {
	if vm.awaiting != nil {
		return vm.awaiting.Done()
	}
	if d := vm.opts.Debugger; d != nil {
		return d.resumed()
	}
	return closedChan
}

// Resume runs at most ActionsPerYield instructions.
func (vm *VM) Resume(ctx context.Context) (Status, error) {
	switch vm.State() {
	case StatePreparation:
		if err := vm.Start(); err != nil {
			return StatusDone, err
		}
	case StatePending:
	default:
		return StatusDone, nil
	}
	vm.ctx = ctx

	if vm.awaiting != nil {
		select {
		case <-vm.awaiting.Done():
		default:
			return StatusWaiting, nil
		}
		res, err := vm.awaiting.Result()
		vm.awaiting = nil
		if err != nil {
			return StatusDone, vm.fail(err)
		}
		if !vm.awaitCommand {
			vm.push(res)
		}
	}
	if d := vm.opts.Debugger; d != nil && d.Paused() {
		return StatusWaiting, nil
	}

	for actions := 0; actions < vm.opts.ActionsPerYield; actions++ {
		if vm.State() != StatePending {
			return StatusDone, nil
		}

		suspend, err := vm.step()
		if err == nil {
			err = vm.fault
		}
		if err != nil {
			return StatusDone, vm.fail(err)
		}
		if vm.State() == StateFinished {
			return StatusDone, nil
		}
		if suspend {
			return StatusWaiting, nil
		}
		if vm.yieldRequested {
			vm.yieldRequested = false
			break
		}
	}

	vm.stats.Yields++
	vm.log.Trace().Uint64("instructions", vm.stats.Instructions).Msg("yield")
	return StatusYield, nil
}

func (vm *VM) finish() {
	if vm.state.CompareAndSwap(int32(StatePending), int32(StateFinished)) {
		vm.log.Debug().
			Uint64("instructions", vm.stats.Instructions).
			Dur("elapsed", vm.Elapsed()).
			Msg("finished")
	}
}

// fail stops the VM and wraps err with the live instruction stack.
func (vm *VM) fail(err error) error {
	vm.state.Store(int32(StateStopped))

	var re *RuntimeError
	if errors.As(err, &re) {
		return re
	}
	re = &RuntimeError{Message: err.Error(), Err: err}
	for fr := vm.frame(); fr != nil; fr = fr.Caller {
		if inst := fr.current(); inst != nil {
			re.Stack = append(re.Stack, inst)
		}
	}
	if len(re.Stack) > 0 {
		re.Instruction = re.Stack[0]
	}
	vm.log.Debug().Err(err).Msg("runtime error")
	return re
}

// ---------- operand stack ----------

func (vm *VM) push(v value.Value) {
	if vm.sp >= len(vm.stack) {
		if vm.fault == nil {
			vm.fault = ErrOperandStackOverflow
		}
		return
	}
	vm.stack[vm.sp] = v
	vm.sp++
}

func (vm *VM) pop() value.Value {
	if vm.sp == 0 {
		if vm.fault == nil {
			vm.fault = ErrStackUnderflow
		}
		return value.Null
	}
	vm.sp--
	v := vm.stack[vm.sp]
	vm.stack[vm.sp] = value.Value{}
	return v
}

func (vm *VM) peek() value.Value {
	if vm.sp == 0 {
		return value.Null
	}
	return vm.stack[vm.sp-1]
}

// popN pops n values, returned in push order.
func (vm *VM) popN(n int) []value.Value {
	if n > vm.sp {
		if vm.fault == nil {
			vm.fault = ErrStackUnderflow
		}
		n = vm.sp
	}
	out := make([]value.Value, n)
	copy(out, vm.stack[vm.sp-n:vm.sp])
	for i := vm.sp - n; i < vm.sp; i++ {
		vm.stack[i] = value.Value{}
	}
	vm.sp -= n
	return out
}

// ---------- dispatch ----------

func (vm *VM) frame() *Frame {
	return vm.frames[len(vm.frames)-1]
}

// step executes one instruction. suspend reports that the VM must wait.
func (vm *VM) step() (suspend bool, err error) {
	fr := vm.frame()
	if fr.IP >= len(fr.Code) {
		vm.popFrame(value.Null)
		return false, nil
	}
	inst := fr.Code[fr.IP]
	fr.IP++
	vm.stats.Instructions++

	switch inst.Op {
	case ir.OpNoop:
	case ir.OpHalt:
		vm.finish()

	case ir.OpPush:
		vm.push(value.FromConstant(inst.Value))
	case ir.OpPop:
		vm.pop()
	case ir.OpDup2:
		b := vm.pop()
		a := vm.pop()
		vm.push(a)
		vm.push(b)
		vm.push(a)
		vm.push(b)

	case ir.OpGetVariable:
		v, err := vm.lookup(fr, inst.Name)
		if err != nil {
			return false, err
		}
		return vm.deliver(v, value.Null, nil, inst)
	case ir.OpGetLocals:
		vm.push(value.FromMap(fr.Locals))
	case ir.OpGetGlobals:
		vm.push(value.FromMap(fr.Globals))
	case ir.OpGetOuter:
		if fr.Outer != nil {
			vm.push(value.FromMap(fr.Outer))
		} else {
			vm.push(value.FromMap(fr.Globals))
		}
	case ir.OpGetSelf:
		vm.push(fr.Self)
	case ir.OpGetSuper:
		vm.push(fr.Super)
	case ir.OpGetProperty:
		key := vm.pop()
		base := vm.pop()
		v, origin, err := value.GetProperty(vm.intrinsics, base, key)
		if err != nil {
			return false, err
		}
		return vm.deliver(v, base, origin, inst)
	case ir.OpGetSuperProperty:
		key := vm.pop()
		if fr.Super.IsNull() {
			return false, ErrNoSuper
		}
		v, origin, err := value.GetProperty(vm.intrinsics, fr.Super, key)
		if err != nil {
			return false, err
		}
		return vm.deliver(v, fr.Self, origin, inst)
	case ir.OpGetEnvar:
		s, ok := vm.EnvVar(inst.Name)
		if !ok {
			return false, fmt.Errorf("%w %q", ErrUnknownEnvVar, inst.Name)
		}
		vm.push(value.Str(s))

	case ir.OpAssign:
		val := vm.pop()
		key := vm.pop()
		container := vm.pop()
		if err := value.SetProperty(container, key, val); err != nil {
			return false, err
		}
	case ir.OpConstructList:
		vm.push(value.ListOf(vm.popN(inst.Length)...))
	case ir.OpConstructMap:
		vm.push(value.FromMap(value.MapFrom(vm.popN(2 * inst.Length)...)))
	case ir.OpFunctionDefinition:
		vm.push(value.FromFunc(value.FromDef(inst.Func, fr.Locals)))
	case ir.OpNew:
		proto := vm.pop()
		if proto.Kind != value.KindMap {
			return false, fmt.Errorf("new requires a map, got %s", proto.TypeName())
		}
		vm.push(value.FromMap(proto.Map.Instantiate()))
	case ir.OpSlice:
		high := vm.pop()
		low := vm.pop()
		base := vm.pop()
		v, err := slice(base, low, high)
		if err != nil {
			return false, err
		}
		vm.push(v)

	case ir.OpCall:
		args := vm.popN(inst.Length)
		callee := vm.pop()
		return vm.call(callee, args, value.Null, nil, inst)
	case ir.OpCallWithContext:
		args := vm.popN(inst.Length)
		key := vm.pop()
		base := vm.pop()
		v, origin, err := value.GetProperty(vm.intrinsics, base, key)
		if err != nil {
			return false, err
		}
		return vm.call(v, args, base, origin, inst)
	case ir.OpCallSuperProperty:
		args := vm.popN(inst.Length)
		key := vm.pop()
		if fr.Super.IsNull() {
			return false, ErrNoSuper
		}
		v, origin, err := value.GetProperty(vm.intrinsics, fr.Super, key)
		if err != nil {
			return false, err
		}
		return vm.call(v, args, fr.Self, origin, inst)
	case ir.OpReturn:
		vm.popFrame(vm.pop())

	case ir.OpJump:
		fr.IP = inst.Target.IP
	case ir.OpGotoAIfFalse:
		if !vm.pop().Truthy() {
			fr.IP = inst.Target.IP
		}
	case ir.OpGotoAIfTrue:
		if vm.pop().Truthy() {
			fr.IP = inst.Target.IP
		}
	case ir.OpGotoAIfFalseAndPush:
		a := vm.peek()
		if a.Intensity() == 0 {
			vm.pop()
			vm.push(decided(a, 0))
			fr.IP = inst.Target.IP
		}
	case ir.OpGotoAIfTrueAndPush:
		a := vm.peek()
		if a.Intensity() == 1 {
			vm.pop()
			vm.push(decided(a, 1))
			fr.IP = inst.Target.IP
		}

	case ir.OpPushIterator:
		it, err := newIterator(vm.pop())
		if err != nil {
			return false, err
		}
		fr.pushIterator(it)
	case ir.OpNext:
		it := fr.topIterator()
		if it == nil {
			return false, errors.New("NEXT without an active iterator")
		}
		v, i, ok := it.Next()
		if ok {
			fr.Locals.SetString(inst.Name, v)
			fr.Locals.SetString(inst.Index, value.Number(float64(i)))
		}
		vm.push(value.Bool(ok))
	case ir.OpPopIterator:
		fr.popIterator()

	case ir.OpNot:
		vm.push(evalNot(vm.pop()))
	case ir.OpNegate:
		a := vm.pop()
		if !numeric(a) {
			return false, fmt.Errorf("cannot negate %s", a.TypeName())
		}
		vm.push(value.Number(-a.Num))
	case ir.OpIsa:
		proto := vm.pop()
		v := vm.pop()
		vm.push(value.Bool(value.InstanceOf(vm.intrinsics, v, proto)))
	case ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpDiv, ir.OpMod, ir.OpPow,
		ir.OpEqual, ir.OpNotEqual, ir.OpLess, ir.OpLessEqual, ir.OpGreater, ir.OpGreaterEqual,
		ir.OpAnd, ir.OpOr,
		ir.OpBitwiseAnd, ir.OpBitwiseOr, ir.OpBitwiseLeftShift, ir.OpBitwiseRightShift, ir.OpBitwiseUnsignedRightShift:
		b := vm.pop()
		a := vm.pop()
		v, err := evalBinary(inst.Op, a, b)
		if err != nil {
			return false, err
		}
		vm.push(v)

	case ir.OpBreakpoint:
		if d := vm.opts.Debugger; d != nil && d.hit(inst) {
			vm.log.Debug().Str("at", inst.Source.String()).Msg("breakpoint")
			return true, nil
		}

	default:
		return false, fmt.Errorf("unknown opcode %s", inst.Op)
	}
	return false, nil
}

func slice(base, low, high value.Value) (value.Value, error) {
	switch base.Kind {
	case value.KindList:
		from, to := value.SliceBounds(low, high, base.List.Len())
		items := make([]value.Value, to-from)
		copy(items, base.List.Items[from:to])
		return value.FromList(value.NewList(items...)), nil
	case value.KindString:
		runes := []rune(base.Str)
		from, to := value.SliceBounds(low, high, len(runes))
		return value.Str(string(runes[from:to])), nil
	}
	return value.Null, fmt.Errorf("cannot slice %s", base.TypeName())
}
