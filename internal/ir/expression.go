package ir

import (
	"greyvm/internal/ast"
	"greyvm/internal/token"
)

// special identifiers that compile to their own lookup opcode
var specialIdents = map[string]OpCode{
	"self":    OpGetSelf,
	"super":   OpGetSuper,
	"outer":   OpGetOuter,
	"locals":  OpGetLocals,
	"globals": OpGetGlobals,
}

var binaryOps = map[token.Kind]OpCode{
	token.Plus:    OpAdd,
	token.Minus:   OpSub,
	token.Star:    OpMul,
	token.Slash:   OpDiv,
	token.Percent: OpMod,
	token.Caret:   OpPow,
	token.Eq:      OpEqual,
	token.NotEq:   OpNotEqual,
	token.Lt:      OpLess,
	token.LtEq:    OpLessEqual,
	token.Gt:      OpGreater,
	token.GtEq:    OpGreaterEqual,
	token.Isa:     OpIsa,
	token.Amp:     OpBitwiseAnd,
	token.Pipe:    OpBitwiseOr,
	token.Shl:     OpBitwiseLeftShift,
	token.Shr:     OpBitwiseRightShift,
	token.UShr:    OpBitwiseUnsignedRightShift,
}

func isSuper(e ast.Expr) bool {
	id, ok := e.(*ast.Ident)
	return ok && id.Name == "super"
}

// compileExpr emits code leaving exactly one value on the stack.
func (g *Generator) compileExpr(e ast.Expr) error {
	switch e := e.(type) {
	case *ast.NumberLiteral:
		g.push(NumberConst(e.Value), e)
	case *ast.StringLiteral:
		g.push(StringConst(e.Value), e)
	case *ast.BoolLiteral:
		g.push(BoolConst(e.Value), e)
	case *ast.NullLiteral:
		g.push(NullConst(), e)

	case *ast.Ident:
		if op, ok := specialIdents[e.Name]; ok {
			g.op(op, e)
			return nil
		}
		g.emit(&Instruction{Op: OpGetVariable, Name: e.Name, Invoke: true}, e)

	case *ast.ListLiteral:
		for _, el := range e.Elements {
			if err := g.compileExpr(el); err != nil {
				return err
			}
		}
		g.emit(&Instruction{Op: OpConstructList, Length: len(e.Elements)}, e)

	case *ast.MapLiteral:
		for _, entry := range e.Entries {
			if err := g.compileExpr(entry.Key); err != nil {
				return err
			}
			if err := g.compileExpr(entry.Value); err != nil {
				return err
			}
		}
		g.emit(&Instruction{Op: OpConstructMap, Length: len(e.Entries)}, e)

	case *ast.FuncLiteral:
		return g.compileFunction(e, "anonymous", true)

	case *ast.BinaryExpr:
		op, ok := binaryOps[e.Op]
		if !ok {
			return g.errorf(e, "unsupported binary operator %s", e.Op)
		}
		if err := g.compileExpr(e.Left); err != nil {
			return err
		}
		if err := g.compileExpr(e.Right); err != nil {
			return err
		}
		g.op(op, e)

	case *ast.LogicalExpr:
		return g.compileWeighted(e)

	case *ast.UnaryExpr:
		return g.compileUnary(e)

	case *ast.MemberExpr:
		return g.compileMember(e, true, false)

	case *ast.IndexExpr:
		if err := g.compileExpr(e.X); err != nil {
			return err
		}
		if err := g.compileExpr(e.Index); err != nil {
			return err
		}
		g.emit(&Instruction{Op: OpGetProperty, Invoke: true}, e)

	case *ast.SliceExpr:
		if err := g.compileExpr(e.X); err != nil {
			return err
		}
		for _, bound := range []ast.Expr{e.Low, e.High} {
			if bound == nil {
				g.push(NullConst(), e)
				continue
			}
			if err := g.compileExpr(bound); err != nil {
				return err
			}
		}
		g.op(OpSlice, e)

	case *ast.CallExpr:
		return g.compileCall(e, false)

	case *ast.EnvarExpr:
		g.emit(&Instruction{Op: OpGetEnvar, Name: e.Name}, e)

	default:
		return g.errorf(e, "unsupported expression %T", e)
	}
	return nil
}

func (g *Generator) compileMember(e *ast.MemberExpr, invoke, command bool) error {
	if isSuper(e.X) {
		g.push(StringConst(e.Name), e)
		g.emit(&Instruction{Op: OpGetSuperProperty, Invoke: invoke, Command: command}, e)
		return nil
	}
	if err := g.compileExpr(e.X); err != nil {
		return err
	}
	g.push(StringConst(e.Name), e)
	g.emit(&Instruction{Op: OpGetProperty, Invoke: invoke, Command: command}, e)
	return nil
}

func (g *Generator) compileUnary(e *ast.UnaryExpr) error {
	switch e.Op {
	case token.Minus:
		if lit, ok := e.X.(*ast.NumberLiteral); ok {
			g.push(NumberConst(-lit.Value), e)
			return nil
		}
		if err := g.compileExpr(e.X); err != nil {
			return err
		}
		g.op(OpNegate, e)
	case token.Not:
		if err := g.compileExpr(e.X); err != nil {
			return err
		}
		g.op(OpNot, e)
	case token.New:
		if err := g.compileExpr(e.X); err != nil {
			return err
		}
		g.op(OpNew, e)
	case token.At:
		return g.compileReference(e.X)
	default:
		return g.errorf(e, "unsupported unary operator %s", e.Op)
	}
	return nil
}

// compileReference pushes a value without auto-invoking it.
func (g *Generator) compileReference(e ast.Expr) error {
	switch e := e.(type) {
	case *ast.Ident:
		if op, ok := specialIdents[e.Name]; ok {
			g.op(op, e)
			return nil
		}
		g.emit(&Instruction{Op: OpGetVariable, Name: e.Name}, e)
		return nil
	case *ast.MemberExpr:
		return g.compileMember(e, false, false)
	case *ast.IndexExpr:
		if err := g.compileExpr(e.X); err != nil {
			return err
		}
		if err := g.compileExpr(e.Index); err != nil {
			return err
		}
		g.emit(&Instruction{Op: OpGetProperty}, e)
		return nil
	}
	return g.compileExpr(e)
}

// compileWeighted lowers and/or in value position. When the left operand
// already decides the result it is replaced by 0 (and) or 1 (or) and the
// right operand is skipped; otherwise AND/OR combine both intensities.
func (g *Generator) compileWeighted(e *ast.LogicalExpr) error {
	if err := g.compileExpr(e.Left); err != nil {
		return err
	}
	end := g.sentinel()
	test, combine := OpGotoAIfFalseAndPush, OpAnd
	if e.Op == token.Or {
		test, combine = OpGotoAIfTrueAndPush, OpOr
	}
	g.jump(test, end, e)
	if err := g.compileExpr(e.Right); err != nil {
		return err
	}
	g.op(combine, e)
	g.place(end, e)
	return nil
}

// compileCondition lowers a branch condition with a plain boolean short
// circuit. Only the truthiness of the pushed value matters here.
func (g *Generator) compileCondition(e ast.Expr) error {
	l, ok := e.(*ast.LogicalExpr)
	if !ok {
		return g.compileExpr(e)
	}
	if err := g.compileCondition(l.Left); err != nil {
		return err
	}
	skip, end := g.sentinel(), g.sentinel()
	test, decided := OpGotoAIfFalse, BoolConst(false)
	if l.Op == token.Or {
		test, decided = OpGotoAIfTrue, BoolConst(true)
	}
	g.jump(test, skip, l)
	if err := g.compileCondition(l.Right); err != nil {
		return err
	}
	g.jump(OpJump, end, l)
	g.place(skip, l)
	g.push(decided, l)
	g.place(end, l)
	return nil
}

func (g *Generator) compileArgs(args []ast.Expr) error {
	for _, a := range args {
		if err := g.compileExpr(a); err != nil {
			return err
		}
	}
	return nil
}

// compileCall picks the call shape from the callee syntax. command marks a
// call in statement position whose result is discarded by the VM.
func (g *Generator) compileCall(c *ast.CallExpr, command bool) error {
	n := len(c.Args)
	switch callee := c.Callee.(type) {
	case *ast.MemberExpr:
		if isSuper(callee.X) {
			g.push(StringConst(callee.Name), callee)
			if err := g.compileArgs(c.Args); err != nil {
				return err
			}
			g.emit(&Instruction{Op: OpCallSuperProperty, Length: n, Command: command}, c)
			return nil
		}
		if err := g.compileExpr(callee.X); err != nil {
			return err
		}
		g.push(StringConst(callee.Name), callee)
		if err := g.compileArgs(c.Args); err != nil {
			return err
		}
		g.emit(&Instruction{Op: OpCallWithContext, Length: n, Command: command}, c)

	case *ast.IndexExpr:
		if err := g.compileExpr(callee.X); err != nil {
			return err
		}
		if err := g.compileExpr(callee.Index); err != nil {
			return err
		}
		if err := g.compileArgs(c.Args); err != nil {
			return err
		}
		g.emit(&Instruction{Op: OpCallWithContext, Length: n, Command: command}, c)

	default:
		if err := g.compileReference(c.Callee); err != nil {
			return err
		}
		if err := g.compileArgs(c.Args); err != nil {
			return err
		}
		g.emit(&Instruction{Op: OpCall, Length: n, Command: command}, c)
	}
	return nil
}

// compileFunction compiles fn into its own code buffer and emits the
// FUNCTION_DEFINITION carrying it.
func (g *Generator) compileFunction(fn *ast.FuncLiteral, name string, ignoreOuter bool) error {
	params := make([]Param, 0, len(fn.Params))
	for _, p := range fn.Params {
		param := Param{Name: p.Name}
		if p.Default != nil {
			c, ok := constantOf(p.Default)
			if !ok {
				return g.errorf(p, "default value of %q must be a literal", p.Name)
			}
			param.Default, param.HasDefault = c, true
		}
		params = append(params, param)
	}

	g.pushScope(name)
	if err := g.compileBody(fn.Body); err != nil {
		g.popScope()
		return err
	}
	g.push(NullConst(), fn)
	g.op(OpReturn, fn)
	code := g.popScope()

	g.emit(&Instruction{Op: OpFunctionDefinition, Func: &FuncDef{
		Name:        name,
		Params:      params,
		Code:        code,
		IgnoreOuter: ignoreOuter,
	}}, fn)
	return nil
}

func constantOf(e ast.Expr) (Constant, bool) {
	switch e := e.(type) {
	case *ast.NumberLiteral:
		return NumberConst(e.Value), true
	case *ast.StringLiteral:
		return StringConst(e.Value), true
	case *ast.BoolLiteral:
		return BoolConst(e.Value), true
	case *ast.NullLiteral:
		return NullConst(), true
	case *ast.UnaryExpr:
		if lit, ok := e.X.(*ast.NumberLiteral); ok && e.Op == token.Minus {
			return NumberConst(-lit.Value), true
		}
	}
	return Constant{}, false
}
