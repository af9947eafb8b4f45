// Package scheduler interleaves many VMs on a single goroutine.
//
// Each turn gives one VM a budget slice via Resume. Yielded VMs go to the
// back of the ready queue; waiting VMs (a pending intrinsic or a paused
// debugger) are parked until their Wait channel fires.
package scheduler

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"greyvm/internal/vm"
)

var ErrLoopRunning = errors.New("loop is already running")

// Task is a VM owned by a Loop.
type Task struct {
	ID   uuid.UUID
	Name string
	VM   *vm.VM

	err    error
	turns  int
	done   chan struct{}
	parked bool
}

// Done is closed when the task has finished, failed or been stopped.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Err is the error that ended the task. Only valid after Done.
func (t *Task) Err() error {
	return t.err
}

// Turns is the number of slices the task was given.
func (t *Task) Turns() int {
	return t.turns
}

type Option func(*Loop)

func WithLogger(l zerolog.Logger) Option {
	return func(loop *Loop) { loop.log = l }
}

// WithOnDone registers a callback run on the loop goroutine as each task
// ends.
func WithOnDone(fn func(*Task)) Option {
	return func(loop *Loop) { loop.onDone = fn }
}

type Loop struct {
	log    zerolog.Logger
	onDone func(*Task)

	mu      sync.Mutex
	ready   *Queue[*Task]
	live    map[uuid.UUID]*Task
	running bool
	signal  chan struct{}
}

func New(opts ...Option) *Loop {
	l := &Loop{
		log:    zerolog.Nop(),
		ready:  NewQueue[*Task](),
		live:   make(map[uuid.UUID]*Task),
		signal: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Spawn adds m to the loop. It may be called before or during Run, from
// any goroutine.
func (l *Loop) Spawn(name string, m *vm.VM) *Task {
	t := &Task{
		ID:   m.ID(),
		Name: name,
		VM:   m,
		done: make(chan struct{}),
	}
	l.mu.Lock()
	l.live[t.ID] = t
	l.ready.Enqueue(t)
	l.mu.Unlock()
	l.notify()

	l.log.Debug().Str("task", t.ID.String()).Str("name", name).Msg("task spawned")
	return t
}

// Len is the number of unfinished tasks.
func (l *Loop) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.live)
}

// Run drives all tasks until every one has ended or ctx is cancelled. On
// cancellation every remaining VM is stopped and its task ends with the
// context error.
func (l *Loop) Run(ctx context.Context) error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return ErrLoopRunning
	}
	l.running = true
	l.mu.Unlock()
	defer func() {
		l.mu.Lock()
		l.running = false
		l.mu.Unlock()
	}()

	for {
		if err := ctx.Err(); err != nil {
			l.stopAll(err)
			return err
		}

		l.mu.Lock()
		t, ok := l.ready.Dequeue()
		remaining := len(l.live)
		l.mu.Unlock()

		if !ok {
			if remaining == 0 {
				return nil
			}
			select {
			case <-l.signal:
			case <-ctx.Done():
			}
			continue
		}
		l.turn(ctx, t)
	}
}

func (l *Loop) turn(ctx context.Context, t *Task) {
	t.turns++
	status, err := t.VM.Resume(ctx)
	if err != nil {
		l.finish(t, err)
		return
	}
	switch status {
	case vm.StatusDone:
		l.finish(t, nil)
	case vm.StatusYield:
		l.mu.Lock()
		l.ready.Enqueue(t)
		l.mu.Unlock()
	case vm.StatusWaiting:
		l.park(ctx, t)
	}
}

// park requeues t once its VM can make progress again.
func (l *Loop) park(ctx context.Context, t *Task) {
	wake := t.VM.Wait()
	l.mu.Lock()
	t.parked = true
	l.mu.Unlock()
	l.log.Trace().Str("task", t.ID.String()).Msg("task waiting")

	go func() {
		select {
		case <-wake:
		case <-t.VM.Stopped():
		case <-ctx.Done():
			return
		}
		l.mu.Lock()
		if _, ok := l.live[t.ID]; ok && t.parked {
			t.parked = false
			l.ready.Enqueue(t)
		}
		l.mu.Unlock()
		l.notify()
	}()
}

func (l *Loop) notify() {
	select {
	case l.signal <- struct{}{}:
	default:
	}
}

func (l *Loop) finish(t *Task, err error) {
	l.mu.Lock()
	if _, ok := l.live[t.ID]; !ok {
		l.mu.Unlock()
		return
	}
	delete(l.live, t.ID)
	t.parked = false
	l.mu.Unlock()

	t.err = err
	close(t.done)

	ev := l.log.Debug()
	if err != nil {
		ev = l.log.Warn().Err(err)
	}
	ev.Str("task", t.ID.String()).
		Str("name", t.Name).
		Int("turns", t.turns).
		Str("state", t.VM.State().String()).
		Msg("task finished")

	if l.onDone != nil {
		l.onDone(t)
	}
}

func (l *Loop) stopAll(err error) {
	l.mu.Lock()
	tasks := make([]*Task, 0, len(l.live))
	for _, t := range l.live {
		tasks = append(tasks, t)
	}
	l.ready.Drain()
	l.mu.Unlock()

	for _, t := range tasks {
		t.VM.Exit()
		l.finish(t, err)
	}
}
