package ast

import "greyvm/internal/token"

// Basic interfaces

type Node interface {
	Pos() token.Position
	End() token.Position
}

type Stmt interface {
	Node
	stmtNode()
}

type Expr interface {
	Node
	exprNode()
}

// Span is embedded by every node and records its source range.
type Span struct {
	Start token.Position
	Stop  token.Position
}

func (s Span) Pos() token.Position { return s.Start }
func (s Span) End() token.Position { return s.Stop }

// Range returns the span as a token.Range.
func (s Span) Range() token.Range { return token.Range{Start: s.Start, End: s.Stop} }

// RangeOf returns the source range of any node.
func RangeOf(n Node) token.Range {
	return token.Range{Start: n.Pos(), End: n.End()}
}

// Chunk is the root of a parsed source file.
type Chunk struct {
	Span
	Body []Stmt
}

// ---------- Expressions ----------

type Ident struct {
	Span
	Name string
}

type NumberLiteral struct {
	Span
	Value float64
	Raw   string
}

type StringLiteral struct {
	Span
	Value string
}

type BoolLiteral struct {
	Span
	Value bool
}

type NullLiteral struct {
	Span
}

type ListLiteral struct {
	Span
	Elements []Expr
}

type MapEntry struct {
	Key   Expr
	Value Expr
}

type MapLiteral struct {
	Span
	Entries []*MapEntry
}

type Param struct {
	Span
	Name    string
	Default Expr // nil if no default value; always a literal
}

type FuncLiteral struct {
	Span
	Params []*Param
	Body   []Stmt
}

// BinaryExpr covers arithmetic, comparison, bitwise operators and isa.
type BinaryExpr struct {
	Span
	Op    token.Kind
	Left  Expr
	Right Expr
}

// LogicalExpr is `and` / `or`.
type LogicalExpr struct {
	Span
	Op    token.Kind
	Left  Expr
	Right Expr
}

// UnaryExpr covers `-x`, `not x`, `new x` and `@x`.
type UnaryExpr struct {
	Span
	Op token.Kind
	X  Expr
}

type MemberExpr struct {
	Span
	X    Expr
	Name string
}

type IndexExpr struct {
	Span
	X     Expr
	Index Expr
}

type SliceExpr struct {
	Span
	X    Expr
	Low  Expr // may be nil
	High Expr // may be nil
}

type CallExpr struct {
	Span
	Callee Expr
	Args   []Expr
}

// EnvarExpr is `#envar NAME`.
type EnvarExpr struct {
	Span
	Name string
}

func (*Ident) exprNode()         {}
func (*NumberLiteral) exprNode() {}
func (*StringLiteral) exprNode() {}
func (*BoolLiteral) exprNode()   {}
func (*NullLiteral) exprNode()   {}
func (*ListLiteral) exprNode()   {}
func (*MapLiteral) exprNode()    {}
func (*FuncLiteral) exprNode()   {}
func (*BinaryExpr) exprNode()    {}
func (*LogicalExpr) exprNode()   {}
func (*UnaryExpr) exprNode()     {}
func (*MemberExpr) exprNode()    {}
func (*IndexExpr) exprNode()     {}
func (*SliceExpr) exprNode()     {}
func (*CallExpr) exprNode()      {}
func (*EnvarExpr) exprNode()     {}

// IsLiteral reports whether e is a constant literal usable as a parameter default.
func IsLiteral(e Expr) bool {
	switch x := e.(type) {
	case *NumberLiteral, *StringLiteral, *BoolLiteral, *NullLiteral:
		return true
	case *UnaryExpr:
		_, ok := x.X.(*NumberLiteral)
		return ok && x.Op == token.Minus
	}
	return false
}

// ---------- Statements ----------

// AssignStmt is `target = value` or a compound `target op= value`.
type AssignStmt struct {
	Span
	Target Expr
	Op     token.Kind
	Value  Expr
}

// ExprStmt is an expression in statement position.
type ExprStmt struct {
	Span
	X Expr
}

type IfClause struct {
	Span
	Cond Expr
	Body []Stmt
}

type IfStmt struct {
	Span
	Clauses []*IfClause
	Else    []Stmt // nil when there is no else branch
}

type WhileStmt struct {
	Span
	Cond Expr
	Body []Stmt
}

type ForStmt struct {
	Span
	Var  *Ident
	Iter Expr
	Body []Stmt
}

type BreakStmt struct {
	Span
}

type ContinueStmt struct {
	Span
}

type ReturnStmt struct {
	Span
	Result Expr // nil for a bare return
}

// ImportStmt is `#import name from "path"`.
type ImportStmt struct {
	Span
	Name string
	Path string
}

// IncludeStmt is `#include "path"`.
type IncludeStmt struct {
	Span
	Path string
}

type DebuggerStmt struct {
	Span
}

func (*AssignStmt) stmtNode()   {}
func (*ExprStmt) stmtNode()     {}
func (*IfStmt) stmtNode()       {}
func (*WhileStmt) stmtNode()    {}
func (*ForStmt) stmtNode()      {}
func (*BreakStmt) stmtNode()    {}
func (*ContinueStmt) stmtNode() {}
func (*ReturnStmt) stmtNode()   {}
func (*ImportStmt) stmtNode()   {}
func (*IncludeStmt) stmtNode()  {}
func (*DebuggerStmt) stmtNode() {}
