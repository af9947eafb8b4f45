package value

import "sync"

// Interface is an opaque host capability handed to scripts.
type Interface struct {
	id     uint64
	Type   string
	Handle any
}

func NewInterface(typ string, handle any) *Interface {
	return &Interface{id: nextID(), Type: typ, Handle: handle}
}

// Awaitable is a result that settles later. A native function returning an
// Interface whose handle is Awaitable suspends the VM until it settles.
type Awaitable interface {
	Done() <-chan struct{}
	Result() (Value, error)
}

// Future is a one-shot Awaitable.
type Future struct {
	once sync.Once
	done chan struct{}
	val  Value
	err  error
}

func NewFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func (f *Future) Resolve(v Value) {
	f.settle(v, nil)
}

func (f *Future) Reject(err error) {
	f.settle(Null, err)
}

func (f *Future) settle(v Value, err error) {
	f.once.Do(func() {
		f.val, f.err = v, err
		close(f.done)
	})
}

func (f *Future) Done() <-chan struct{} {
	return f.done
}

func (f *Future) Result() (Value, error) {
	<-f.done
	return f.val, f.err
}

// Pending wraps an Awaitable so a native function can return it.
func Pending(a Awaitable) Value {
	return FromInterface(NewInterface("pending", a))
}

// Awaitable returns the pending result carried by v, if any.
func (v Value) Awaitable() (Awaitable, bool) {
	if v.Kind != KindInterface || v.Iface == nil {
		return nil, false
	}
	a, ok := v.Iface.Handle.(Awaitable)
	return a, ok
}
