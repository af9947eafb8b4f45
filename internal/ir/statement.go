package ir

import (
	"fmt"

	"greyvm/internal/ast"
	"greyvm/internal/token"
)

func (g *Generator) compileBody(body []ast.Stmt) error {
	for _, s := range body {
		if g.opts.DebugMode {
			g.op(OpBreakpoint, s)
		}
		if err := g.compileStmt(s); err != nil {
			return err
		}
	}
	return nil
}

// compileStmt emits code with zero net stack effect.
func (g *Generator) compileStmt(s ast.Stmt) error {
	switch s := s.(type) {
	case *ast.ExprStmt:
		return g.compileExprStmt(s)
	case *ast.AssignStmt:
		return g.compileAssign(s)
	case *ast.IfStmt:
		return g.compileIf(s)
	case *ast.WhileStmt:
		return g.compileWhile(s)
	case *ast.ForStmt:
		return g.compileFor(s)

	case *ast.BreakStmt:
		loop, ok := g.innermostLoop()
		if !ok {
			return g.errorf(s, "break outside of a loop")
		}
		g.jump(OpJump, loop.end, s)
	case *ast.ContinueStmt:
		loop, ok := g.innermostLoop()
		if !ok {
			return g.errorf(s, "continue outside of a loop")
		}
		g.jump(OpJump, loop.start, s)

	case *ast.ReturnStmt:
		if s.Result != nil {
			if err := g.compileExpr(s.Result); err != nil {
				return err
			}
		} else {
			g.push(NullConst(), s)
		}
		g.op(OpReturn, s)

	case *ast.ImportStmt:
		return g.compileImport(s)
	case *ast.IncludeStmt:
		return g.compileInclude(s)
	case *ast.DebuggerStmt:
		g.emit(&Instruction{Op: OpBreakpoint, Explicit: true}, s)

	default:
		return g.errorf(s, "unsupported statement %T", s)
	}
	return nil
}

func (g *Generator) compileExprStmt(s *ast.ExprStmt) error {
	switch x := s.X.(type) {
	case *ast.CallExpr:
		return g.compileCall(x, true)
	case *ast.Ident:
		if op, ok := specialIdents[x.Name]; ok {
			g.op(op, x)
			g.op(OpPop, s)
			return nil
		}
		g.emit(&Instruction{Op: OpGetVariable, Name: x.Name, Invoke: true, Command: true}, x)
		return nil
	case *ast.MemberExpr:
		return g.compileMember(x, true, true)
	case *ast.IndexExpr:
		if err := g.compileExpr(x.X); err != nil {
			return err
		}
		if err := g.compileExpr(x.Index); err != nil {
			return err
		}
		g.emit(&Instruction{Op: OpGetProperty, Invoke: true, Command: true}, x)
		return nil
	}
	if err := g.compileExpr(s.X); err != nil {
		return err
	}
	g.op(OpPop, s)
	return nil
}

// compileTarget pushes the (container, key) pair an assignment writes to.
func (g *Generator) compileTarget(target ast.Expr) error {
	switch t := target.(type) {
	case *ast.Ident:
		if _, ok := specialIdents[t.Name]; ok {
			return g.errorf(t, "cannot assign to %s", t.Name)
		}
		g.op(OpGetLocals, t)
		g.push(StringConst(t.Name), t)
	case *ast.MemberExpr:
		if isSuper(t.X) {
			g.op(OpGetSuper, t.X)
		} else if err := g.compileExpr(t.X); err != nil {
			return err
		}
		g.push(StringConst(t.Name), t)
	case *ast.IndexExpr:
		if err := g.compileExpr(t.X); err != nil {
			return err
		}
		if err := g.compileExpr(t.Index); err != nil {
			return err
		}
	default:
		return g.errorf(target, "invalid assignment target %T", target)
	}
	return nil
}

func targetName(target ast.Expr) string {
	switch t := target.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.MemberExpr:
		return t.Name
	}
	return "anonymous"
}

func (g *Generator) compileAssign(s *ast.AssignStmt) error {
	if err := g.compileTarget(s.Target); err != nil {
		return err
	}

	if s.Op.IsCompoundAssign() {
		op, ok := binaryOps[s.Op.BinaryOf()]
		if !ok {
			return g.errorf(s, "unsupported compound operator %s", s.Op)
		}
		if id, isIdent := s.Target.(*ast.Ident); isIdent {
			g.emit(&Instruction{Op: OpGetVariable, Name: id.Name}, id)
		} else {
			g.op(OpDup2, s.Target)
			g.emit(&Instruction{Op: OpGetProperty}, s.Target)
		}
		if err := g.compileExpr(s.Value); err != nil {
			return err
		}
		g.op(op, s)
		g.op(OpAssign, s)
		return nil
	}

	if s.Op != token.Assign {
		return g.errorf(s, "unsupported assignment operator %s", s.Op)
	}
	if fn, ok := s.Value.(*ast.FuncLiteral); ok {
		if err := g.compileFunction(fn, targetName(s.Target), !g.opts.CaptureOuterOnAssign); err != nil {
			return err
		}
	} else if err := g.compileExpr(s.Value); err != nil {
		return err
	}
	g.op(OpAssign, s)
	return nil
}

func (g *Generator) compileIf(s *ast.IfStmt) error {
	end := g.sentinel()
	for _, clause := range s.Clauses {
		next := g.sentinel()
		if err := g.compileCondition(clause.Cond); err != nil {
			return err
		}
		g.jump(OpGotoAIfFalse, next, clause)
		if err := g.compileBody(clause.Body); err != nil {
			return err
		}
		g.jump(OpJump, end, clause)
		g.place(next, clause)
	}
	if err := g.compileBody(s.Else); err != nil {
		return err
	}
	g.place(end, s)
	return nil
}

func (g *Generator) compileWhile(s *ast.WhileStmt) error {
	start, end := g.sentinel(), g.sentinel()
	g.place(start, s)
	if err := g.compileCondition(s.Cond); err != nil {
		return err
	}
	g.jump(OpGotoAIfFalse, end, s)

	g.pushLoop(start, end)
	if err := g.compileBody(s.Body); err != nil {
		return err
	}
	g.popLoop()

	g.jump(OpJump, start, s)
	g.place(end, s)
	return nil
}

// compileFor lowers `for x in iter`. The iterator lives on the frame, so
// break lands on the end sentinel which is followed by POP_ITERATOR.
func (g *Generator) compileFor(s *ast.ForStmt) error {
	if err := g.compileExpr(s.Iter); err != nil {
		return err
	}
	g.op(OpPushIterator, s.Iter)

	start, end := g.sentinel(), g.sentinel()
	g.place(start, s)
	g.emit(&Instruction{
		Op:    OpNext,
		Name:  s.Var.Name,
		Index: fmt.Sprintf("__%s_idx", s.Var.Name),
	}, s.Var)
	g.jump(OpGotoAIfFalse, end, s)

	g.pushLoop(start, end)
	if err := g.compileBody(s.Body); err != nil {
		return err
	}
	g.popLoop()

	g.jump(OpJump, start, s)
	g.place(end, s)
	g.op(OpPopIterator, s)
	return nil
}
