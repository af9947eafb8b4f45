package ir

import (
	"fmt"
	"io"
	"strings"
)

// Disassemble renders an instruction array, nested function bodies included.
func Disassemble(code []*Instruction) string {
	var sb strings.Builder
	Fdisassemble(&sb, code)
	return sb.String()
}

func Fdisassemble(w io.Writer, code []*Instruction) {
	disassemble(w, code, 0)
}

func disassemble(w io.Writer, code []*Instruction, depth int) {
	ind := strings.Repeat("    ", depth)
	for _, inst := range code {
		fmt.Fprintf(w, "%s%4d  %-28s%s", ind, inst.IP, inst.Op, operands(inst))
		if inst.Source.Target != "" {
			fmt.Fprintf(w, "  ; %s", inst.Source)
		}
		fmt.Fprintln(w)
		if inst.Op == OpFunctionDefinition && inst.Func != nil {
			disassemble(w, inst.Func.Code, depth+1)
		}
	}
}

func operands(inst *Instruction) string {
	var parts []string
	switch inst.Op {
	case OpPush:
		parts = append(parts, inst.Value.GoString())
	case OpGetVariable, OpGetEnvar:
		parts = append(parts, inst.Name)
	case OpNext:
		parts = append(parts, inst.Name, inst.Index)
	case OpJump, OpGotoAIfFalse, OpGotoAIfTrue, OpGotoAIfFalseAndPush, OpGotoAIfTrueAndPush:
		if inst.Target != nil {
			parts = append(parts, fmt.Sprintf("-> %d", inst.Target.IP))
		}
	case OpCall, OpCallWithContext, OpCallSuperProperty, OpConstructList, OpConstructMap:
		parts = append(parts, fmt.Sprintf("n=%d", inst.Length))
	case OpFunctionDefinition:
		if inst.Func != nil {
			names := make([]string, len(inst.Func.Params))
			for i, p := range inst.Func.Params {
				names[i] = p.Name
				if p.HasDefault {
					names[i] += "=" + p.Default.GoString()
				}
			}
			parts = append(parts, fmt.Sprintf("%s(%s)", inst.Func.Name, strings.Join(names, ", ")))
			if !inst.Func.IgnoreOuter {
				parts = append(parts, "outer")
			}
		}
	case OpBreakpoint:
		if inst.Explicit {
			parts = append(parts, "explicit")
		}
	}
	if inst.Invoke {
		parts = append(parts, "invoke")
	}
	if inst.Command {
		parts = append(parts, "command")
	}
	return strings.Join(parts, " ")
}
