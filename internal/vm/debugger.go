package vm

import (
	"sync"

	"greyvm/internal/ir"
)

// Debugger pauses a VM on BREAKPOINT instructions while its flag is set.
// A `debugger` statement sets the flag itself; generators running in debug
// mode put a BREAKPOINT before every statement so that Next single-steps.
//
// The VM reports StatusWaiting while paused; Continue or Next wake it.
type Debugger struct {
	mu       sync.Mutex
	flag     bool
	paused   bool
	location ir.Source
	resume   chan struct{}

	// OnBreak is called from the VM goroutine each time it pauses.
	OnBreak func(loc ir.Source)
}

func NewDebugger() *Debugger {
	return &Debugger{}
}

// SetBreakpoint sets or clears the flag checked by BREAKPOINT.
func (d *Debugger) SetBreakpoint(on bool) {
	d.mu.Lock()
	d.flag = on
	d.mu.Unlock()
}

// Continue resumes and runs until the next explicit breakpoint.
func (d *Debugger) Continue() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.flag = false
	d.wake()
}

// Next resumes and pauses again at the next BREAKPOINT instruction.
func (d *Debugger) Next() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.flag = true
	d.wake()
}

func (d *Debugger) wake() {
	if !d.paused {
		return
	}
	d.paused = false
	close(d.resume)
}

func (d *Debugger) Paused() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.paused
}

// Location is where the VM last paused.
func (d *Debugger) Location() ir.Source {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.location
}

// hit is called by the VM on a BREAKPOINT. It reports whether the VM must
// suspend.
func (d *Debugger) hit(inst *ir.Instruction) bool {
	d.mu.Lock()
	if inst.Explicit {
		d.flag = true
	}
	if !d.flag {
		d.mu.Unlock()
		return false
	}
	d.paused = true
	d.location = inst.Source
	d.resume = make(chan struct{})
	cb := d.OnBreak
	d.mu.Unlock()

	if cb != nil {
		cb(inst.Source)
	}
	return true
}

// resumed returns a channel closed once the debugger lets the VM go on.
func (d *Debugger) resumed() <-chan struct{} {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.paused {
		return closedChan
	}
	return d.resume
}

var closedChan = func() chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}()
