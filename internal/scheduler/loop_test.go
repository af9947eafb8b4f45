package scheduler_test

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greyvm/internal/ir"
	"greyvm/internal/runtime"
	"greyvm/internal/scheduler"
	"greyvm/internal/vm"
)

type harness struct {
	env *runtime.Env
	io  *runtime.MemoryIO
}

func newHarness() *harness {
	h := &harness{io: runtime.NewMemoryIO()}
	h.env = runtime.NewEnv(
		runtime.WithIO(h.io),
		runtime.WithFilesystem(memfs.New()),
		runtime.WithErrorHandler(func(error) {}),
	)
	return h
}

func (h *harness) vm(t *testing.T, src string, budget int) *vm.VM {
	t.Helper()
	prog, err := h.env.Compile(src, ir.Options{Target: "main"})
	require.NoError(t, err)
	return h.env.NewVM(prog, vm.Options{ActionsPerYield: budget})
}

func lines(s string) []string {
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

func TestRoundRobin(t *testing.T) {
	h := newHarness()
	loop := scheduler.New()
	a := loop.Spawn("a", h.vm(t, "for i in [1, 2, 3]\n  print \"a\"\nend for", 5))
	b := loop.Spawn("b", h.vm(t, "for i in [1, 2, 3]\n  print \"b\"\nend for", 5))
	assert.Equal(t, 2, loop.Len())

	require.NoError(t, loop.Run(context.Background()))

	out := lines(h.io.Output())
	assert.Len(t, out, 6)
	assert.NotEqual(t, []string{"a", "a", "a", "b", "b", "b"}, out)
	assert.Greater(t, a.Turns(), 1)
	assert.Greater(t, b.Turns(), 1)
	assert.NoError(t, a.Err())
	assert.Equal(t, vm.StateFinished, a.VM.State())
	assert.Zero(t, loop.Len())
}

func TestWaitingTaskDoesNotBlock(t *testing.T) {
	h := newHarness()
	loop := scheduler.New()
	slow := loop.Spawn("slow", h.vm(t, "wait 0.05\nprint \"slow\"", 0))
	loop.Spawn("fast", h.vm(t, "print \"fast\"", 0))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, loop.Run(ctx))

	assert.Equal(t, "fast\nslow\n", h.io.Output())
	select {
	case <-slow.Done():
	default:
		t.Fatal("slow task not done")
	}
}

func TestFailureIsolated(t *testing.T) {
	h := newHarness()
	var ended atomic.Int32
	loop := scheduler.New(scheduler.WithOnDone(func(*scheduler.Task) { ended.Add(1) }))
	bad := loop.Spawn("bad", h.vm(t, "x = [1][5]", 0))
	good := loop.Spawn("good", h.vm(t, "print \"ok\"", 0))

	require.NoError(t, loop.Run(context.Background()))

	var re *vm.RuntimeError
	assert.ErrorAs(t, bad.Err(), &re)
	assert.NoError(t, good.Err())
	assert.Equal(t, "ok\n", h.io.Output())
	assert.EqualValues(t, 2, ended.Load())
}

func TestCancelStopsEverything(t *testing.T) {
	h := newHarness()
	loop := scheduler.New()
	spin := loop.Spawn("spin", h.vm(t, "while true\n  x = 1\nend while", 100))
	sleeper := loop.Spawn("sleeper", h.vm(t, "wait 10", 0))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := loop.Run(ctx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, spin.Err(), context.DeadlineExceeded)
	assert.ErrorIs(t, sleeper.Err(), context.DeadlineExceeded)
	assert.Equal(t, vm.StateStopped, spin.VM.State())
	assert.Equal(t, vm.StateStopped, sleeper.VM.State())
	assert.Zero(t, loop.Len())
}

func TestSpawnFromOnDone(t *testing.T) {
	h := newHarness()
	var loop *scheduler.Loop
	spawned := false
	loop = scheduler.New(scheduler.WithOnDone(func(task *scheduler.Task) {
		if !spawned {
			spawned = true
			loop.Spawn("second", h.vm(t, "print 2", 0))
		}
	}))
	loop.Spawn("first", h.vm(t, "print 1", 0))

	require.NoError(t, loop.Run(context.Background()))
	assert.Equal(t, "1\n2\n", h.io.Output())
}

func TestDebuggerPauseParksTask(t *testing.T) {
	h := newHarness()
	d := vm.NewDebugger()
	d.OnBreak = func(loc ir.Source) {
		go d.Continue()
	}
	prog, err := h.env.Compile("print 1\ndebugger\nprint 2", ir.Options{Target: "main"})
	require.NoError(t, err)

	loop := scheduler.New()
	task := loop.Spawn("dbg", h.env.NewVM(prog, vm.Options{Debugger: d}))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, loop.Run(ctx))
	assert.NoError(t, task.Err())
	assert.Equal(t, "1\n2\n", h.io.Output())
}

func TestExitWakesParkedTask(t *testing.T) {
	h := newHarness()
	loop := scheduler.New()
	task := loop.Spawn("sleeper", h.vm(t, "wait 60\nprint \"late\"", 0))
	time.AfterFunc(20*time.Millisecond, task.VM.Exit)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	start := time.Now()
	require.NoError(t, loop.Run(ctx))

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.NoError(t, task.Err())
	assert.Equal(t, vm.StateStopped, task.VM.State())
	assert.Empty(t, h.io.Output())
}
