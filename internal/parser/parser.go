package parser

import (
	"fmt"
	"strconv"

	"greyvm/internal/ast"
	"greyvm/internal/lexer"
	"greyvm/internal/token"
)

// Error is a syntax error at a source position.
type Error struct {
	Pos token.Position
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Pos.Line, e.Pos.Column, e.Msg)
}

type Parser struct {
	l *lexer.Lexer

	cur  token.Token
	peek token.Token
	last token.Position // end of the previously consumed token

	errors []*Error
}

func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}
	// init cur/peek
	p.nextToken()
	p.nextToken()
	return p
}

// Parse lexes and parses a whole source text.
func Parse(src string) (*ast.Chunk, []*Error) {
	l := lexer.New(src)
	p := New(l)
	chunk := p.ParseChunk()
	return chunk, p.Errors()
}

// Errors returns lexical errors followed by syntax errors.
func (p *Parser) Errors() []*Error {
	var errs []*Error
	for _, e := range p.l.Errors() {
		errs = append(errs, &Error{Pos: e.Pos, Msg: e.Msg})
	}
	return append(errs, p.errors...)
}

func (p *Parser) nextToken() {
	p.last = p.cur.End
	p.cur = p.peek
	p.peek = p.l.NextToken()
}

func (p *Parser) errorf(pos token.Position, format string, args ...interface{}) {
	p.errors = append(p.errors, &Error{Pos: pos, Msg: fmt.Sprintf(format, args...)})
}

func (p *Parser) expect(kind token.Kind) token.Token {
	if p.cur.Kind != kind {
		p.errorf(p.cur.Pos, "expected %s, got %s (%q)", kind, p.cur.Kind, p.cur.Lexeme)
	}
	tok := p.cur
	p.nextToken()
	return tok
}

func (p *Parser) span(start token.Position) ast.Span {
	return ast.Span{Start: start, Stop: p.last}
}

// ---------- Blocks ----------

func (p *Parser) ParseChunk() *ast.Chunk {
	start := p.cur.Pos
	body := p.parseBlock(func() bool { return false })
	if p.cur.Kind != token.EOF {
		p.errorf(p.cur.Pos, "unexpected %s at top level", p.cur.Kind)
	}
	return &ast.Chunk{Span: p.span(start), Body: body}
}

// parseBlock parses statements until EOF or until stop reports true.
func (p *Parser) parseBlock(stop func() bool) []ast.Stmt {
	var body []ast.Stmt
	for {
		for p.cur.Kind == token.EOL {
			p.nextToken()
		}
		if p.cur.Kind == token.EOF || stop() {
			return body
		}

		before := p.cur
		stmt := p.parseStatement()
		if stmt != nil {
			body = append(body, stmt)
		}

		switch {
		case p.cur.Kind == token.EOL || p.cur.Kind == token.EOF || stop():
		case p.cur == before:
			p.errorf(p.cur.Pos, "unexpected %s (%q)", p.cur.Kind, p.cur.Lexeme)
			p.nextToken()
		default:
			p.errorf(p.cur.Pos, "expected end of line, got %s (%q)", p.cur.Kind, p.cur.Lexeme)
			p.skipLine()
		}
	}
}

func (p *Parser) skipLine() {
	for p.cur.Kind != token.EOL && p.cur.Kind != token.EOF {
		p.nextToken()
	}
}

func (p *Parser) atEnd(kind token.Kind) func() bool {
	return func() bool {
		return p.cur.Kind == token.End && p.peek.Kind == kind
	}
}

func (p *Parser) expectEnd(kind token.Kind) {
	if p.cur.Kind != token.End {
		p.errorf(p.cur.Pos, "expected 'end %s', got %s", keyword(kind), p.cur.Kind)
		return
	}
	p.nextToken()
	if p.cur.Kind != kind {
		p.errorf(p.cur.Pos, "expected 'end %s', got 'end %s'", keyword(kind), p.cur.Lexeme)
		return
	}
	p.nextToken()
}

func keyword(kind token.Kind) string {
	switch kind {
	case token.If:
		return "if"
	case token.While:
		return "while"
	case token.For:
		return "for"
	case token.Function:
		return "function"
	}
	return kind.String()
}

// ---------- Statements ----------

func (p *Parser) parseStatement() ast.Stmt {
	switch p.cur.Kind {
	case token.If:
		return p.parseIfStmt()
	case token.While:
		return p.parseWhileStmt()
	case token.For:
		return p.parseForStmt()
	case token.Break:
		tok := p.cur
		p.nextToken()
		return &ast.BreakStmt{Span: p.span(tok.Pos)}
	case token.Continue:
		tok := p.cur
		p.nextToken()
		return &ast.ContinueStmt{Span: p.span(tok.Pos)}
	case token.Return:
		return p.parseReturnStmt()
	case token.ImportDirective:
		return p.parseImportStmt()
	case token.IncludeDirective:
		return p.parseIncludeStmt()
	case token.Debugger:
		tok := p.cur
		p.nextToken()
		return &ast.DebuggerStmt{Span: p.span(tok.Pos)}
	default:
		return p.parseSimpleStmt()
	}
}

// parseSimpleStmt parses an assignment, a command call or a bare expression.
func (p *Parser) parseSimpleStmt() ast.Stmt {
	start := p.cur.Pos
	expr := p.parseExpr()

	if p.cur.Kind == token.Assign || p.cur.Kind.IsCompoundAssign() {
		op := p.cur.Kind
		if !assignable(expr) {
			p.errorf(expr.Pos(), "invalid assignment target")
		}
		p.nextToken()
		val := p.parseExpr()
		return &ast.AssignStmt{
			Span:   p.span(start),
			Target: expr,
			Op:     op,
			Value:  val,
		}
	}

	// command call without parentheses: print "hello", 2
	if commandCallee(expr) && startsArgument(p.cur.Kind) {
		var args []ast.Expr
		for {
			args = append(args, p.parseExpr())
			if p.cur.Kind != token.Comma {
				break
			}
			p.nextToken()
		}
		expr = &ast.CallExpr{Span: p.span(start), Callee: expr, Args: args}
	}

	return &ast.ExprStmt{Span: p.span(start), X: expr}
}

func assignable(e ast.Expr) bool {
	switch e.(type) {
	case *ast.Ident, *ast.MemberExpr, *ast.IndexExpr:
		return true
	}
	return false
}

func commandCallee(e ast.Expr) bool {
	switch e.(type) {
	case *ast.Ident, *ast.MemberExpr, *ast.IndexExpr:
		return true
	}
	return false
}

func startsArgument(kind token.Kind) bool {
	switch kind {
	case token.Ident, token.Number, token.String, token.True, token.False, token.Null,
		token.LBrace, token.Not, token.New, token.At, token.Function, token.EnvarDirective:
		return true
	}
	return false
}

func (p *Parser) parseIfStmt() ast.Stmt {
	start := p.cur.Pos
	p.nextToken() // if

	cond := p.parseExpr()
	p.expect(token.Then)

	if p.cur.Kind != token.EOL {
		return p.parseSingleLineIf(start, cond)
	}

	stmt := &ast.IfStmt{}
	stopAtBranch := func() bool {
		return p.cur.Kind == token.Else || p.cur.Kind == token.End
	}

	clauseStart := start
	for {
		body := p.parseBlock(stopAtBranch)
		stmt.Clauses = append(stmt.Clauses, &ast.IfClause{
			Span: p.span(clauseStart),
			Cond: cond,
			Body: body,
		})
		if p.cur.Kind != token.Else {
			break
		}
		p.nextToken() // else
		if p.cur.Kind == token.If {
			clauseStart = p.cur.Pos
			p.nextToken()
			cond = p.parseExpr()
			p.expect(token.Then)
			continue
		}
		stmt.Else = p.parseBlock(p.atEnd(token.If))
		if stmt.Else == nil {
			stmt.Else = []ast.Stmt{}
		}
		break
	}

	p.expectEnd(token.If)
	stmt.Span = p.span(start)
	return stmt
}

// parseSingleLineIf handles `if cond then stmt [else stmt]`.
func (p *Parser) parseSingleLineIf(start token.Position, cond ast.Expr) ast.Stmt {
	thenStmt := p.parseStatement()
	stmt := &ast.IfStmt{
		Clauses: []*ast.IfClause{{
			Span: p.span(start),
			Cond: cond,
			Body: []ast.Stmt{thenStmt},
		}},
	}
	if p.cur.Kind == token.Else {
		p.nextToken()
		stmt.Else = []ast.Stmt{p.parseStatement()}
	}
	stmt.Span = p.span(start)
	return stmt
}

func (p *Parser) parseWhileStmt() ast.Stmt {
	start := p.cur.Pos
	p.nextToken() // while
	cond := p.parseExpr()
	body := p.parseBlock(p.atEnd(token.While))
	p.expectEnd(token.While)

	return &ast.WhileStmt{
		Span: p.span(start),
		Cond: cond,
		Body: body,
	}
}

func (p *Parser) parseForStmt() ast.Stmt {
	start := p.cur.Pos
	p.nextToken() // for

	nameTok := p.expect(token.Ident)
	variable := &ast.Ident{
		Span: ast.Span{Start: nameTok.Pos, Stop: nameTok.End},
		Name: nameTok.Lexeme,
	}
	p.expect(token.In)
	iter := p.parseExpr()
	body := p.parseBlock(p.atEnd(token.For))
	p.expectEnd(token.For)

	return &ast.ForStmt{
		Span: p.span(start),
		Var:  variable,
		Iter: iter,
		Body: body,
	}
}

func (p *Parser) parseReturnStmt() ast.Stmt {
	start := p.cur.Pos
	p.nextToken()

	var result ast.Expr
	switch p.cur.Kind {
	case token.EOL, token.EOF, token.Else, token.End:
	default:
		result = p.parseExpr()
	}

	return &ast.ReturnStmt{
		Span:   p.span(start),
		Result: result,
	}
}

func (p *Parser) parseImportStmt() ast.Stmt {
	start := p.cur.Pos
	p.nextToken() // #import

	nameTok := p.expect(token.Ident)
	if p.cur.Kind != token.Ident || p.cur.Lexeme != "from" {
		p.errorf(p.cur.Pos, "expected 'from' after import name")
	} else {
		p.nextToken()
	}
	pathTok := p.expect(token.String)

	return &ast.ImportStmt{
		Span: p.span(start),
		Name: nameTok.Lexeme,
		Path: pathTok.Lexeme,
	}
}

func (p *Parser) parseIncludeStmt() ast.Stmt {
	start := p.cur.Pos
	p.nextToken() // #include
	pathTok := p.expect(token.String)

	return &ast.IncludeStmt{
		Span: p.span(start),
		Path: pathTok.Lexeme,
	}
}

// ---------- Expressions ----------

func (p *Parser) parseExpr() ast.Expr {
	return p.parseOr()
}

func (p *Parser) parseOr() ast.Expr {
	start := p.cur.Pos
	left := p.parseAnd()
	for p.cur.Kind == token.Or {
		p.nextToken()
		right := p.parseAnd()
		left = &ast.LogicalExpr{Span: p.span(start), Op: token.Or, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseAnd() ast.Expr {
	start := p.cur.Pos
	left := p.parseNot()
	for p.cur.Kind == token.And {
		p.nextToken()
		right := p.parseNot()
		left = &ast.LogicalExpr{Span: p.span(start), Op: token.And, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseNot() ast.Expr {
	if p.cur.Kind == token.Not {
		start := p.cur.Pos
		p.nextToken()
		x := p.parseNot()
		return &ast.UnaryExpr{Span: p.span(start), Op: token.Not, X: x}
	}
	return p.parseComparison()
}

func (p *Parser) parseComparison() ast.Expr {
	start := p.cur.Pos
	left := p.parseBitOr()
	for {
		switch p.cur.Kind {
		case token.Eq, token.NotEq, token.Lt, token.LtEq, token.Gt, token.GtEq, token.Isa:
		default:
			return left
		}
		op := p.cur.Kind
		p.nextToken()
		right := p.parseBitOr()
		left = &ast.BinaryExpr{Span: p.span(start), Op: op, Left: left, Right: right}
	}
}

func (p *Parser) parseBinary(next func() ast.Expr, ops ...token.Kind) ast.Expr {
	start := p.cur.Pos
	left := next()
	for {
		matched := false
		for _, op := range ops {
			if p.cur.Kind == op {
				matched = true
				break
			}
		}
		if !matched {
			return left
		}
		op := p.cur.Kind
		p.nextToken()
		right := next()
		left = &ast.BinaryExpr{Span: p.span(start), Op: op, Left: left, Right: right}
	}
}

func (p *Parser) parseBitOr() ast.Expr {
	return p.parseBinary(p.parseBitAnd, token.Pipe)
}

func (p *Parser) parseBitAnd() ast.Expr {
	return p.parseBinary(p.parseShift, token.Amp)
}

func (p *Parser) parseShift() ast.Expr {
	return p.parseBinary(p.parseAdditive, token.Shl, token.Shr, token.UShr)
}

func (p *Parser) parseAdditive() ast.Expr {
	return p.parseBinary(p.parseMultiplicative, token.Plus, token.Minus)
}

func (p *Parser) parseMultiplicative() ast.Expr {
	return p.parseBinary(p.parseUnary, token.Star, token.Slash, token.Percent)
}

func (p *Parser) parseUnary() ast.Expr {
	if p.cur.Kind == token.Minus {
		start := p.cur.Pos
		p.nextToken()
		x := p.parseUnary()
		return &ast.UnaryExpr{Span: p.span(start), Op: token.Minus, X: x}
	}
	return p.parseNew()
}

func (p *Parser) parseNew() ast.Expr {
	if p.cur.Kind == token.New {
		start := p.cur.Pos
		p.nextToken()
		x := p.parseNew()
		return &ast.UnaryExpr{Span: p.span(start), Op: token.New, X: x}
	}
	return p.parseAddressOf()
}

func (p *Parser) parseAddressOf() ast.Expr {
	if p.cur.Kind == token.At {
		start := p.cur.Pos
		p.nextToken()
		x := p.parsePower()
		return &ast.UnaryExpr{Span: p.span(start), Op: token.At, X: x}
	}
	return p.parsePower()
}

func (p *Parser) parsePower() ast.Expr {
	start := p.cur.Pos
	base := p.parsePostfix()
	if p.cur.Kind == token.Caret {
		p.nextToken()
		exp := p.parseUnary()
		return &ast.BinaryExpr{Span: p.span(start), Op: token.Caret, Left: base, Right: exp}
	}
	return base
}

func (p *Parser) parsePostfix() ast.Expr {
	start := p.cur.Pos
	expr := p.parsePrimary()

	for {
		switch p.cur.Kind {
		case token.Dot:
			p.nextToken()
			if p.cur.Kind != token.Ident {
				p.errorf(p.cur.Pos, "expected identifier after '.'")
				return expr
			}
			name := p.cur.Lexeme
			p.nextToken()
			expr = &ast.MemberExpr{Span: p.span(start), X: expr, Name: name}
		case token.LParen:
			p.nextToken()
			var args []ast.Expr
			if p.cur.Kind != token.RParen {
				for {
					args = append(args, p.parseExpr())
					if p.cur.Kind == token.Comma {
						p.nextToken()
						continue
					}
					break
				}
			}
			p.expect(token.RParen)
			expr = &ast.CallExpr{Span: p.span(start), Callee: expr, Args: args}
		case token.LBracket:
			expr = p.parseIndexOrSlice(start, expr)
		default:
			return expr
		}
	}
}

func (p *Parser) parseIndexOrSlice(start token.Position, x ast.Expr) ast.Expr {
	p.nextToken() // [

	var low ast.Expr
	if p.cur.Kind != token.Colon {
		low = p.parseExpr()
	}
	if p.cur.Kind != token.Colon {
		p.expect(token.RBracket)
		return &ast.IndexExpr{Span: p.span(start), X: x, Index: low}
	}
	p.nextToken() // :

	var high ast.Expr
	if p.cur.Kind != token.RBracket {
		high = p.parseExpr()
	}
	p.expect(token.RBracket)
	return &ast.SliceExpr{Span: p.span(start), X: x, Low: low, High: high}
}

func (p *Parser) parsePrimary() ast.Expr {
	tok := p.cur
	switch tok.Kind {
	case token.Function:
		return p.parseFuncLiteral()
	case token.Ident:
		p.nextToken()
		return &ast.Ident{Span: p.span(tok.Pos), Name: tok.Lexeme}
	case token.Number:
		p.nextToken()
		val, err := strconv.ParseFloat(tok.Lexeme, 64)
		if err != nil {
			p.errorf(tok.Pos, "invalid number literal %q: %v", tok.Lexeme, err)
		}
		return &ast.NumberLiteral{Span: p.span(tok.Pos), Value: val, Raw: tok.Lexeme}
	case token.String:
		p.nextToken()
		return &ast.StringLiteral{Span: p.span(tok.Pos), Value: tok.Lexeme}
	case token.True, token.False:
		p.nextToken()
		return &ast.BoolLiteral{Span: p.span(tok.Pos), Value: tok.Kind == token.True}
	case token.Null:
		p.nextToken()
		return &ast.NullLiteral{Span: p.span(tok.Pos)}
	case token.EnvarDirective:
		p.nextToken()
		if p.cur.Kind != token.Ident && p.cur.Kind != token.String {
			p.errorf(p.cur.Pos, "expected variable name after #envar")
			return &ast.NullLiteral{Span: p.span(tok.Pos)}
		}
		name := p.cur.Lexeme
		p.nextToken()
		return &ast.EnvarExpr{Span: p.span(tok.Pos), Name: name}
	case token.LParen:
		p.nextToken()
		expr := p.parseExpr()
		p.expect(token.RParen)
		return expr
	case token.LBracket:
		return p.parseListLiteral()
	case token.LBrace:
		return p.parseMapLiteral()
	default:
		p.errorf(tok.Pos, "unexpected token in expression: %s (%q)", tok.Kind, tok.Lexeme)
		if tok.Kind != token.EOL && tok.Kind != token.EOF {
			p.nextToken()
		}
		return &ast.NullLiteral{Span: ast.Span{Start: tok.Pos, Stop: tok.End}}
	}
}

func (p *Parser) parseListLiteral() ast.Expr {
	start := p.cur.Pos
	p.nextToken() // [

	var elems []ast.Expr
	for p.cur.Kind != token.RBracket && p.cur.Kind != token.EOF {
		elems = append(elems, p.parseExpr())
		if p.cur.Kind != token.Comma {
			break
		}
		p.nextToken()
	}
	p.expect(token.RBracket)

	return &ast.ListLiteral{Span: p.span(start), Elements: elems}
}

func (p *Parser) parseMapLiteral() ast.Expr {
	start := p.cur.Pos
	p.nextToken() // {

	var entries []*ast.MapEntry
	for p.cur.Kind != token.RBrace && p.cur.Kind != token.EOF {
		key := p.parseExpr()
		p.expect(token.Colon)
		val := p.parseExpr()
		entries = append(entries, &ast.MapEntry{Key: key, Value: val})
		if p.cur.Kind != token.Comma {
			break
		}
		p.nextToken()
	}
	p.expect(token.RBrace)

	return &ast.MapLiteral{Span: p.span(start), Entries: entries}
}

func (p *Parser) parseFuncLiteral() ast.Expr {
	start := p.cur.Pos
	p.nextToken() // function

	var params []*ast.Param
	if p.cur.Kind == token.LParen {
		p.nextToken()
		for p.cur.Kind != token.RParen && p.cur.Kind != token.EOF {
			params = append(params, p.parseParam())
			if p.cur.Kind != token.Comma {
				break
			}
			p.nextToken()
		}
		p.expect(token.RParen)
	}

	body := p.parseBlock(p.atEnd(token.Function))
	p.expectEnd(token.Function)

	return &ast.FuncLiteral{Span: p.span(start), Params: params, Body: body}
}

func (p *Parser) parseParam() *ast.Param {
	nameTok := p.expect(token.Ident)
	param := &ast.Param{Name: nameTok.Lexeme}
	if p.cur.Kind == token.Assign {
		p.nextToken()
		def := p.parseUnary()
		if !ast.IsLiteral(def) {
			p.errorf(def.Pos(), "default value of parameter %q must be a literal", nameTok.Lexeme)
		}
		param.Default = def
	}
	param.Span = p.span(nameTok.Pos)
	return param
}
