package ir_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greyvm/internal/ir"
	"greyvm/internal/modules"
)

func ops(code []*ir.Instruction) []ir.OpCode {
	out := make([]ir.OpCode, len(code))
	for i, inst := range code {
		out[i] = inst.Op
	}
	return out
}

func compile(t *testing.T, src string, opts ir.Options) *ir.Program {
	t.Helper()
	prog, err := ir.Compile(src, opts)
	require.NoError(t, err)
	return prog
}

func findFunc(code []*ir.Instruction) *ir.FuncDef {
	for _, inst := range code {
		if inst.Op == ir.OpFunctionDefinition {
			return inst.Func
		}
	}
	return nil
}

// every jump must point at a NOOP that was placed in the same buffer
func assertJumpsPlaced(t *testing.T, code []*ir.Instruction) {
	t.Helper()
	for i, inst := range code {
		assert.Equal(t, i, inst.IP)
		switch inst.Op {
		case ir.OpJump, ir.OpGotoAIfFalse, ir.OpGotoAIfTrue, ir.OpGotoAIfFalseAndPush, ir.OpGotoAIfTrueAndPush:
			require.NotNil(t, inst.Target, "%s at %d has no target", inst.Op, i)
			require.Less(t, inst.Target.IP, len(code))
			assert.Same(t, inst.Target, code[inst.Target.IP])
			assert.Equal(t, ir.OpNoop, inst.Target.Op)
		case ir.OpFunctionDefinition:
			assertJumpsPlaced(t, inst.Func.Code)
		}
	}
}

func memResolver(t *testing.T, files map[string]string) (*modules.Resolver, func(string, string)) {
	t.Helper()
	fs := memfs.New()
	write := func(name, content string) {
		require.NoError(t, util.WriteFile(fs, name, []byte(content), 0644))
	}
	for name, content := range files {
		write(name, content)
	}
	return modules.NewResolver(fs), write
}

func TestCompileAssignment(t *testing.T) {
	prog := compile(t, "x = 1 + 2", ir.Options{})

	assert.Equal(t, []ir.OpCode{
		ir.OpGetLocals, ir.OpPush, ir.OpPush, ir.OpPush, ir.OpAdd, ir.OpAssign, ir.OpHalt,
	}, ops(prog.Code))
	assert.Equal(t, "x", prog.Code[1].Value.String)
	assert.Equal(t, "main", prog.Code[0].Source.Target)
	assert.Equal(t, "global", prog.Code[0].Source.Name)
}

func TestCompileWeightedLogic(t *testing.T) {
	prog := compile(t, "x = a and b\ny = a or b", ir.Options{})
	code := prog.Code
	assertJumpsPlaced(t, code)

	assert.Equal(t, []ir.OpCode{
		ir.OpGetLocals, ir.OpPush,
		ir.OpGetVariable, ir.OpGotoAIfFalseAndPush, ir.OpGetVariable, ir.OpAnd, ir.OpNoop,
		ir.OpAssign,
		ir.OpGetLocals, ir.OpPush,
		ir.OpGetVariable, ir.OpGotoAIfTrueAndPush, ir.OpGetVariable, ir.OpOr, ir.OpNoop,
		ir.OpAssign,
		ir.OpHalt,
	}, ops(code))

	// the short circuit lands after the combining opcode
	assert.Equal(t, 6, code[3].Target.IP)
	assert.Equal(t, 14, code[11].Target.IP)
}

func TestCompileConditionShortCircuit(t *testing.T) {
	prog := compile(t, "if a and b then\n  c\nend if", ir.Options{})
	assertJumpsPlaced(t, prog.Code)

	var plain, weighted int
	for _, inst := range prog.Code {
		switch inst.Op {
		case ir.OpGotoAIfFalse:
			plain++
		case ir.OpGotoAIfFalseAndPush, ir.OpAnd:
			weighted++
		}
	}
	assert.Equal(t, 2, plain)
	assert.Zero(t, weighted)
}

func TestCompileLoops(t *testing.T) {
	src := `
for x in [1, 2, 3]
  if x == 2 then continue
  if x == 3 then break
end for
while true
  break
end while
`
	prog := compile(t, src, ir.Options{})
	code := prog.Code
	assertJumpsPlaced(t, code)

	var push, pop, next *ir.Instruction
	for _, inst := range code {
		switch inst.Op {
		case ir.OpPushIterator:
			push = inst
		case ir.OpPopIterator:
			pop = inst
		case ir.OpNext:
			next = inst
		}
	}
	require.NotNil(t, push)
	require.NotNil(t, pop)
	require.NotNil(t, next)
	assert.Equal(t, "x", next.Name)
	assert.Equal(t, "__x_idx", next.Index)

	// continue and the loop back edge land on the sentinel before NEXT,
	// break on the sentinel before POP_ITERATOR
	toStart, toEnd := 0, 0
	for _, inst := range code[push.IP:pop.IP] {
		if inst.Op != ir.OpJump {
			continue
		}
		switch inst.Target.IP {
		case next.IP - 1:
			toStart++
		case pop.IP - 1:
			toEnd++
		}
	}
	assert.Equal(t, 2, toStart)
	assert.Equal(t, 1, toEnd)
}

func TestCompileBreakOutsideLoop(t *testing.T) {
	_, err := ir.Compile("x = 1\nbreak", ir.Options{Target: "/a.src"})
	var ce *ir.CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "/a.src", ce.Target)
	assert.Equal(t, 2, ce.Range.Start.Line)
	assert.Contains(t, ce.Error(), "/a.src:2:1")
}

func TestCompileErrors(t *testing.T) {
	cases := map[string]string{
		"special target": "self = 1",
		"call target":    "f() = 1",
		"syntax":         "x = (1 +",
		"continue":       "continue",
		"default":        "f = function(a = b)\nend function",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			prog, err := ir.Compile(src, ir.Options{})
			assert.Nil(t, prog)
			var ce *ir.CompileError
			assert.ErrorAs(t, err, &ce)
		})
	}
}

func TestCompileCallShapes(t *testing.T) {
	prog := compile(t, "print 1\nx = obj.m(1, 2)\nsuper.m\ny = super.m(3)\nz = f(g)", ir.Options{})
	code := prog.Code

	var calls []*ir.Instruction
	for _, inst := range code {
		switch inst.Op {
		case ir.OpCall, ir.OpCallWithContext, ir.OpCallSuperProperty, ir.OpGetSuperProperty:
			calls = append(calls, inst)
		}
	}
	require.Len(t, calls, 5)

	assert.Equal(t, ir.OpCall, calls[0].Op)
	assert.True(t, calls[0].Command)
	assert.Equal(t, 1, calls[0].Length)

	assert.Equal(t, ir.OpCallWithContext, calls[1].Op)
	assert.False(t, calls[1].Command)
	assert.Equal(t, 2, calls[1].Length)

	assert.Equal(t, ir.OpGetSuperProperty, calls[2].Op)
	assert.True(t, calls[2].Command)
	assert.True(t, calls[2].Invoke)

	assert.Equal(t, ir.OpCallSuperProperty, calls[3].Op)
	assert.Equal(t, 1, calls[3].Length)

	// callee is looked up by reference, arguments auto-invoke
	last := calls[4]
	assert.Equal(t, ir.OpCall, last.Op)
	callee, arg := code[last.IP-2], code[last.IP-1]
	assert.Equal(t, "f", callee.Name)
	assert.False(t, callee.Invoke)
	assert.Equal(t, "g", arg.Name)
	assert.True(t, arg.Invoke)
}

func TestCompileFunctionLiteral(t *testing.T) {
	src := "f = function(a, b = 2, c = -1)\n  return a\nend function"

	prog := compile(t, src, ir.Options{})
	fn := findFunc(prog.Code)
	require.NotNil(t, fn)
	assert.Equal(t, "f", fn.Name)
	assert.True(t, fn.IgnoreOuter)
	require.Len(t, fn.Params, 3)
	assert.False(t, fn.Params[0].HasDefault)
	assert.Equal(t, 2.0, fn.Params[1].Default.Number)
	assert.Equal(t, -1.0, fn.Params[2].Default.Number)

	n := len(fn.Code)
	assert.Equal(t, []ir.OpCode{ir.OpPush, ir.OpReturn}, ops(fn.Code[n-2:]))
	assert.Equal(t, "f", fn.Code[0].Source.Name)

	prog = compile(t, src, ir.Options{CaptureOuterOnAssign: true})
	assert.False(t, findFunc(prog.Code).IgnoreOuter)

	prog = compile(t, "g(function()\nend function)", ir.Options{CaptureOuterOnAssign: true})
	assert.True(t, findFunc(prog.Code).IgnoreOuter)
}

func TestCompileCompoundAssignment(t *testing.T) {
	prog := compile(t, "x += 1\nm.k *= 2", ir.Options{})
	assert.Equal(t, []ir.OpCode{
		ir.OpGetLocals, ir.OpPush, ir.OpGetVariable, ir.OpPush, ir.OpAdd, ir.OpAssign,
		ir.OpGetVariable, ir.OpPush, ir.OpDup2, ir.OpGetProperty, ir.OpPush, ir.OpMul, ir.OpAssign,
		ir.OpHalt,
	}, ops(prog.Code))
	assert.False(t, prog.Code[2].Invoke)
	assert.False(t, prog.Code[9].Invoke)
}

func TestCompileDebugMode(t *testing.T) {
	prog := compile(t, "x = 1\ndebugger\ny = 2", ir.Options{DebugMode: true})

	var implicit, explicit int
	for _, inst := range prog.Code {
		if inst.Op == ir.OpBreakpoint {
			if inst.Explicit {
				explicit++
			} else {
				implicit++
			}
		}
	}
	assert.Equal(t, 3, implicit)
	assert.Equal(t, 1, explicit)
}

func TestCompileImport(t *testing.T) {
	resolver, _ := memResolver(t, map[string]string{
		"/lib/util.src": "module.exports = {\"two\": 2}",
	})

	prog := compile(t, `#import util from "lib/util"`, ir.Options{Target: "/main.src", Resolver: resolver})

	assert.Equal(t, []ir.OpCode{
		ir.OpGetLocals, ir.OpPush, ir.OpFunctionDefinition, ir.OpCall, ir.OpAssign, ir.OpHalt,
	}, ops(prog.Code))

	fn := prog.Code[2].Func
	assert.True(t, fn.IgnoreOuter)
	assert.Equal(t, "/lib/util.src", fn.Code[0].Source.Target)
	n := len(fn.Code)
	assert.Equal(t, []ir.OpCode{ir.OpGetVariable, ir.OpPush, ir.OpGetProperty, ir.OpReturn}, ops(fn.Code[n-4:]))
}

func TestCompileCircularImport(t *testing.T) {
	resolver, _ := memResolver(t, map[string]string{
		"/a.src": "#import b from \"b\"\nx = 1",
		"/b.src": "#import a from \"a\"\ny = 2",
	})

	var logs bytes.Buffer
	logger := zerolog.New(&logs)

	prog, err := ir.Compile("#import b from \"b\"\nx = 1", ir.Options{
		Target:   "/a.src",
		Resolver: resolver,
		Logger:   &logger,
	})
	require.NoError(t, err)
	assertJumpsPlaced(t, prog.Code)

	// b's import of a degrades to nothing
	b := findFunc(prog.Code)
	require.NotNil(t, b)
	assert.Nil(t, findFunc(b.Code))
	assert.Contains(t, logs.String(), "circular import ignored")
	assert.Contains(t, logs.String(), `"path":"/a.src"`)
}

func TestCompileCircularInclude(t *testing.T) {
	resolver, _ := memResolver(t, map[string]string{
		"/a.src": "#include \"b\"",
		"/b.src": "#include \"a\"\nz = 3",
	})

	prog, err := ir.Compile(`#include "b"`, ir.Options{Target: "/a.src", Resolver: resolver})
	require.NoError(t, err)

	// b is spliced inline, its include of a is dropped
	assert.Equal(t, []ir.OpCode{
		ir.OpGetLocals, ir.OpPush, ir.OpPush, ir.OpAssign, ir.OpHalt,
	}, ops(prog.Code))
	assert.Equal(t, "/b.src", prog.Code[0].Source.Target)
	assert.Equal(t, "/a.src", prog.Code[4].Source.Target)
}

func TestImportCache(t *testing.T) {
	resolver, write := memResolver(t, map[string]string{
		"/util.src": "module.exports = 1",
	})
	cache := ir.NewImportCache()
	opts := ir.Options{Target: "/main.src", Resolver: resolver, Cache: cache}

	first := findFunc(compile(t, `#import u from "util"`, opts).Code)
	second := findFunc(compile(t, `#import util from "util"`, opts).Code)
	assert.Equal(t, 1, cache.Len())
	assert.Same(t, first.Code[0], second.Code[0])

	write("/util.src", "module.exports = 2")
	third := findFunc(compile(t, `#import u from "util"`, opts).Code)
	assert.NotSame(t, first.Code[0], third.Code[0])
	assert.Equal(t, 1, cache.Len())
}

func TestCompileImportFailures(t *testing.T) {
	resolver, _ := memResolver(t, map[string]string{
		"/broken.src": "x = (",
	})

	t.Run("missing", func(t *testing.T) {
		_, err := ir.Compile(`#import m from "missing"`, ir.Options{Target: "/main.src", Resolver: resolver})
		var ce *ir.CompileError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "/main.src", ce.Target)
		assert.True(t, errors.Is(err, modules.ErrNotFound))
	})

	t.Run("nested compile error keeps its range", func(t *testing.T) {
		_, err := ir.Compile(`#import m from "broken"`, ir.Options{Target: "/main.src", Resolver: resolver})
		var ce *ir.CompileError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "/broken.src", ce.Target)
		assert.Equal(t, 1, ce.Range.Start.Line)
	})

	t.Run("no resolver", func(t *testing.T) {
		_, err := ir.Compile(`#include "x"`, ir.Options{})
		assert.ErrorIs(t, err, ir.ErrNoResolver)
	})
}

func TestDisassemble(t *testing.T) {
	prog := compile(t, "f = function(a)\n  return a * 2\nend function\nprint f(3)", ir.Options{})
	out := ir.Disassemble(prog.Code)

	assert.Contains(t, out, "FUNCTION_DEFINITION")
	assert.Contains(t, out, "MUL")
	assert.Contains(t, out, "HALT")
	assert.Contains(t, out, "main:4:1")
}
