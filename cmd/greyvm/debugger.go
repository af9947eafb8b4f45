package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"greyvm/internal/ir"
	"greyvm/internal/vm"
)

// newConsoleDebugger pauses before each statement and reads a command:
// empty or "n" steps, "c" continues to the next `debugger` statement.
func newConsoleDebugger(in io.Reader, out io.Writer, r *renderer) *vm.Debugger {
	d := vm.NewDebugger()
	d.SetBreakpoint(true)
	commands := bufio.NewReader(in)

	d.OnBreak = func(loc ir.Source) {
		r.Break(loc)
		go func() {
			for {
				fmt.Fprint(out, "(greyvm) ")
				line, err := commands.ReadString('\n')
				if err != nil {
					d.Continue()
					return
				}
				switch strings.TrimSpace(line) {
				case "", "n", "next":
					d.Next()
					return
				case "c", "continue":
					d.Continue()
					return
				default:
					fmt.Fprintln(out, "commands: n(ext), c(ontinue)")
				}
			}
		}()
	}
	return d
}
