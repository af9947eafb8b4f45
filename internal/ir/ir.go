package ir

import (
	"fmt"

	"greyvm/internal/token"
)

// OpCode is an opcode of the VM instruction set.
type OpCode byte

const (
	OpNoop OpCode = iota // jump target sentinel
	OpHalt

	// Stack
	OpPush // Value = constant to push
	OpPop
	OpDup2 // duplicate the two topmost values (compound assignment)

	// Lookups
	OpGetVariable      // Name; Invoke/Command
	OpGetLocals        // push current scope map
	OpGetGlobals       // push global scope map
	OpGetOuter         // push captured outer scope (globals when not captured)
	OpGetSelf          // push frame self
	OpGetSuper         // push frame super
	OpGetProperty      // pop key, pop base; Invoke/Command
	OpGetSuperProperty // pop key, look up on frame super; Invoke/Command
	OpGetEnvar         // Name = environment variable

	// Mutation / construction
	OpAssign             // pop value, pop key, pop container; container[key] = value
	OpConstructList      // Length = element count
	OpConstructMap       // Length = entry count; keys and values interleaved
	OpFunctionDefinition // Func = compiled function
	OpNew                // pop map, push fresh instance whose isa is that map
	OpSlice              // pop high, pop low, pop base

	// Calls
	OpCall              // Length = argument count; callee below the arguments
	OpCallWithContext   // Length = argument count; receiver and key below the arguments
	OpCallSuperProperty // Length = argument count; key below the arguments
	OpReturn            // pop return value

	// Control flow; Target is the sentinel to jump to
	OpJump
	OpGotoAIfFalse
	OpGotoAIfTrue
	OpGotoAIfFalseAndPush // weighted `and` short circuit
	OpGotoAIfTrueAndPush  // weighted `or` short circuit

	// Iteration
	OpPushIterator // pop iterable, push an iterator on the frame
	OpNext         // Name = loop variable, Index = synthetic index variable
	OpPopIterator

	// Operators
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpPow
	OpEqual
	OpNotEqual
	OpLess
	OpLessEqual
	OpGreater
	OpGreaterEqual
	OpAnd
	OpOr
	OpNot
	OpNegate
	OpIsa
	OpBitwiseAnd
	OpBitwiseOr
	OpBitwiseLeftShift
	OpBitwiseRightShift
	OpBitwiseUnsignedRightShift

	// Debugging
	OpBreakpoint // Explicit = emitted by a `debugger` statement
)

var opNames = [...]string{
	OpNoop:                      "NOOP",
	OpHalt:                      "HALT",
	OpPush:                      "PUSH",
	OpPop:                       "POP",
	OpDup2:                      "DUP2",
	OpGetVariable:               "GET_VARIABLE",
	OpGetLocals:                 "GET_LOCALS",
	OpGetGlobals:                "GET_GLOBALS",
	OpGetOuter:                  "GET_OUTER",
	OpGetSelf:                   "GET_SELF",
	OpGetSuper:                  "GET_SUPER",
	OpGetProperty:               "GET_PROPERTY",
	OpGetSuperProperty:          "GET_SUPER_PROPERTY",
	OpGetEnvar:                  "GET_ENVAR",
	OpAssign:                    "ASSIGN",
	OpConstructList:             "CONSTRUCT_LIST",
	OpConstructMap:              "CONSTRUCT_MAP",
	OpFunctionDefinition:        "FUNCTION_DEFINITION",
	OpNew:                       "NEW",
	OpSlice:                     "SLICE",
	OpCall:                      "CALL",
	OpCallWithContext:           "CALL_WITH_CONTEXT",
	OpCallSuperProperty:         "CALL_SUPER_PROPERTY",
	OpReturn:                    "RETURN",
	OpJump:                      "JUMP",
	OpGotoAIfFalse:              "GOTO_A_IF_FALSE",
	OpGotoAIfTrue:               "GOTO_A_IF_TRUE",
	OpGotoAIfFalseAndPush:       "GOTO_A_IF_FALSE_AND_PUSH",
	OpGotoAIfTrueAndPush:        "GOTO_A_IF_TRUE_AND_PUSH",
	OpPushIterator:              "PUSH_ITERATOR",
	OpNext:                      "NEXT",
	OpPopIterator:               "POP_ITERATOR",
	OpAdd:                       "ADD",
	OpSub:                       "SUB",
	OpMul:                       "MUL",
	OpDiv:                       "DIV",
	OpMod:                       "MOD",
	OpPow:                       "POW",
	OpEqual:                     "EQUAL",
	OpNotEqual:                  "NOT_EQUAL",
	OpLess:                      "LESS",
	OpLessEqual:                 "LESS_EQUAL",
	OpGreater:                   "GREATER",
	OpGreaterEqual:              "GREATER_EQUAL",
	OpAnd:                       "AND",
	OpOr:                        "OR",
	OpNot:                       "NOT",
	OpNegate:                    "NEGATE",
	OpIsa:                       "ISA",
	OpBitwiseAnd:                "BITWISE_AND",
	OpBitwiseOr:                 "BITWISE_OR",
	OpBitwiseLeftShift:          "BITWISE_LEFT_SHIFT",
	OpBitwiseRightShift:         "BITWISE_RIGHT_SHIFT",
	OpBitwiseUnsignedRightShift: "BITWISE_UNSIGNED_RIGHT_SHIFT",
	OpBreakpoint:                "BREAKPOINT",
}

func (op OpCode) String() string {
	if int(op) < len(opNames) && opNames[op] != "" {
		return opNames[op]
	}
	return fmt.Sprintf("OpCode(%d)", int(op))
}

// Source locates an instruction in the script it was generated from.
type Source struct {
	Target string // file the instruction came from
	Name   string // enclosing function, or "global"
	Start  token.Position
	End    token.Position
}

func (s Source) String() string {
	return fmt.Sprintf("%s:%d:%d", s.Target, s.Start.Line, s.Start.Column)
}

// Instruction is one bytecode instruction. Operand fields are meaningful
// only for the opcodes documented next to them; everything else is zero.
// Instructions are immutable once emitted, apart from IP which is assigned
// at emission time.
type Instruction struct {
	Op     OpCode
	IP     int
	Source Source

	Value    Constant     // PUSH
	Name     string       // GET_VARIABLE, GET_ENVAR, NEXT
	Index    string       // NEXT
	Target   *Instruction // jumps
	Length   int          // CALL*, CONSTRUCT_*
	Invoke   bool         // auto-invoke a resolved callable
	Command  bool         // statement position: nothing is pushed for a consumer
	Explicit bool         // BREAKPOINT
	Func     *FuncDef     // FUNCTION_DEFINITION
}

type ConstKind int

const (
	ConstNull ConstKind = iota
	ConstNumber
	ConstString
	ConstBool
)

// Constant is a literal embedded in an instruction.
type Constant struct {
	Kind   ConstKind
	Number float64
	String string
	Bool   bool
}

func NullConst() Constant { return Constant{Kind: ConstNull} }
func NumberConst(f float64) Constant { return Constant{Kind: ConstNumber, Number: f} }
func StringConst(s string) Constant { return Constant{Kind: ConstString, String: s} }
func BoolConst(b bool) Constant { return Constant{Kind: ConstBool, Bool: b} }

func (c Constant) GoString() string {
	switch c.Kind {
	case ConstNumber:
		return fmt.Sprintf("%g", c.Number)
	case ConstString:
		return fmt.Sprintf("%q", c.String)
	case ConstBool:
		return fmt.Sprintf("%t", c.Bool)
	default:
		return "null"
	}
}

// Param is a function parameter. Defaults are restricted to literals.
type Param struct {
	Name       string
	Default    Constant
	HasDefault bool
}

// FuncDef is the payload of FUNCTION_DEFINITION: a fully compiled body.
type FuncDef struct {
	Name        string
	Params      []Param
	Code        []*Instruction
	IgnoreOuter bool
}

// Program is the result of compiling one entry target.
type Program struct {
	Target string
	Code   []*Instruction
}
