package lexer

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"greyvm/internal/token"
)

type Lexer struct {
	input []rune

	pos int

	ch   rune
	line int
	col  int
	prev token.Position // position of the rune consumed last

	depth   int        // open (), [] and {} pairs; newlines inside are insignificant
	saved   []int      // depth outside each open function body
	last    token.Kind // kind of the previously emitted token
	started bool
	errors  []Error
}

// Error is a lexical error at a source position.
type Error struct {
	Pos token.Position
	Msg string
}

func (e Error) Error() string {
	return formatError(e.Pos, e.Msg)
}

func New(input string) *Lexer {
	l := &Lexer{
		input: []rune(input),
		line:  1,
		col:   0,
		last:  token.EOL,
	}
	l.readChar()
	return l
}

// NextToken returns the next significant token. Consecutive line breaks are
// folded into a single EOL, and line breaks after a token that cannot end a
// statement (comma, operator, opening bracket) are skipped.
func (l *Lexer) NextToken() token.Token {
	for {
		tok := l.scan()
		if tok.Kind == token.EOL {
			if l.depth > 0 || l.last == token.EOL || continues(l.last) {
				continue
			}
		}
		if tok.Kind == token.Function {
			l.trackFunction()
		}
		l.last = tok.Kind
		return tok
	}
}

// trackFunction makes line breaks significant again inside a function
// literal that appears within brackets, e.g. a callback argument.
func (l *Lexer) trackFunction() {
	if l.last == token.End {
		if n := len(l.saved); n > 0 {
			l.depth = l.saved[n-1]
			l.saved = l.saved[:n-1]
		}
		return
	}
	l.saved = append(l.saved, l.depth)
	l.depth = 0
}

func (l *Lexer) scan() token.Token {
	l.skipWhitespaceAndComments()

	pos := token.Position{
		Line:   l.line,
		Column: l.col,
	}

	ch := l.ch

	if ch == 0 {
		return token.Token{Kind: token.EOF, Pos: pos, End: pos}
	}

	if ch == '\n' || ch == ';' {
		l.readChar()
		return token.Token{Kind: token.EOL, Lexeme: string(ch), Pos: pos, End: pos}
	}

	// Numbers
	if isDigit(ch) || (ch == '.' && isDigit(l.peekChar())) {
		lit := l.readNumber()
		return l.token(token.Number, lit, pos)
	}

	// Identifiers / keywords
	if isLetter(ch) {
		lit := l.readIdentifier()
		return l.token(token.LookupIdent(lit), lit, pos)
	}

	// Directives: #import, #include, #envar
	if ch == '#' {
		l.readChar()
		if !isLetter(l.ch) {
			l.errorf(pos, "expected directive name after '#'")
			return l.token(token.Illegal, "#", pos)
		}
		lit := l.readIdentifier()
		kind, ok := token.LookupDirective(lit)
		if !ok {
			l.errorf(pos, fmt.Sprintf("unknown directive #%s", lit))
			return l.token(token.Illegal, "#"+lit, pos)
		}
		return l.token(kind, "#"+lit, pos)
	}

	if ch == '"' {
		l.readChar() // consume opening quote
		lit, ok := l.readString(pos)
		if !ok {
			return l.token(token.Illegal, lit, pos)
		}
		return l.token(token.String, lit, pos)
	}

	var kind token.Kind
	var lexeme string

	switch ch {
	case ',':
		kind, lexeme = token.Comma, ","
	case '.':
		kind, lexeme = token.Dot, "."
	case ':':
		kind, lexeme = token.Colon, ":"
	case '(':
		kind, lexeme = token.LParen, "("
		l.depth++
	case ')':
		kind, lexeme = token.RParen, ")"
		l.closeBracket()
	case '{':
		kind, lexeme = token.LBrace, "{"
		l.depth++
	case '}':
		kind, lexeme = token.RBrace, "}"
		l.closeBracket()
	case '[':
		kind, lexeme = token.LBracket, "["
		l.depth++
	case ']':
		kind, lexeme = token.RBracket, "]"
		l.closeBracket()
	case '@':
		kind, lexeme = token.At, "@"
	case '&':
		kind, lexeme = token.Amp, "&"
	case '|':
		kind, lexeme = token.Pipe, "|"
	case '+':
		kind, lexeme = l.withAssign(token.Plus, token.PlusAssign, "+")
	case '-':
		kind, lexeme = l.withAssign(token.Minus, token.MinusAssign, "-")
	case '*':
		kind, lexeme = l.withAssign(token.Star, token.StarAssign, "*")
	case '/':
		kind, lexeme = l.withAssign(token.Slash, token.SlashAssign, "/")
	case '%':
		kind, lexeme = l.withAssign(token.Percent, token.PercentAssign, "%")
	case '^':
		kind, lexeme = l.withAssign(token.Caret, token.CaretAssign, "^")
	case '!':
		if l.peekChar() == '=' {
			l.readChar()
			kind, lexeme = token.NotEq, "!="
		} else {
			kind, lexeme = token.Illegal, "!"
			l.errorf(pos, "unexpected '!'")
		}
	case '=':
		if l.peekChar() == '=' {
			l.readChar()
			kind, lexeme = token.Eq, "=="
		} else {
			kind, lexeme = token.Assign, "="
		}
	case '<':
		switch l.peekChar() {
		case '=':
			l.readChar()
			kind, lexeme = token.LtEq, "<="
		case '<':
			l.readChar()
			kind, lexeme = token.Shl, "<<"
		default:
			kind, lexeme = token.Lt, "<"
		}
	case '>':
		switch l.peekChar() {
		case '=':
			l.readChar()
			kind, lexeme = token.GtEq, ">="
		case '>':
			l.readChar()
			if l.peekChar() == '>' {
				l.readChar()
				kind, lexeme = token.UShr, ">>>"
			} else {
				kind, lexeme = token.Shr, ">>"
			}
		default:
			kind, lexeme = token.Gt, ">"
		}
	default:
		kind, lexeme = token.Illegal, string(ch)
		l.errorf(pos, fmt.Sprintf("unexpected character %q", ch))
	}

	l.readChar()

	return l.token(kind, lexeme, pos)
}

func (l *Lexer) token(kind token.Kind, lexeme string, pos token.Position) token.Token {
	return token.Token{
		Kind:   kind,
		Lexeme: lexeme,
		Pos:    pos,
		End:    l.prev,
	}
}

func (l *Lexer) withAssign(plain, assign token.Kind, lexeme string) (token.Kind, string) {
	if l.peekChar() == '=' {
		l.readChar()
		return assign, lexeme + "="
	}
	return plain, lexeme
}

func (l *Lexer) closeBracket() {
	if l.depth > 0 {
		l.depth--
	}
}

// continues reports whether a line break after kind is a line continuation.
func continues(kind token.Kind) bool {
	switch kind {
	case token.Comma, token.LParen, token.LBracket, token.LBrace,
		token.And, token.Or, token.Not, token.Isa,
		token.Plus, token.Minus, token.Star, token.Slash, token.Percent, token.Caret,
		token.Eq, token.NotEq, token.Lt, token.LtEq, token.Gt, token.GtEq,
		token.Amp, token.Pipe, token.Shl, token.Shr, token.UShr,
		token.Assign, token.PlusAssign, token.MinusAssign, token.StarAssign,
		token.SlashAssign, token.PercentAssign, token.CaretAssign, token.Colon:
		return true
	}
	return false
}

// Helpers

func (l *Lexer) readChar() {
	l.prev = token.Position{Line: l.line, Column: l.col}

	if l.pos >= len(l.input) {
		l.ch = 0
		return
	}

	if l.started && l.ch == '\n' {
		l.line++
		l.col = 0
	}
	l.started = true

	l.ch = l.input[l.pos]
	l.pos++
	l.col++
}

func (l *Lexer) peekChar() rune {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		for l.ch != '\n' && unicode.IsSpace(l.ch) {
			l.readChar()
		}

		if l.ch == '/' && l.peekChar() == '/' {
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
			continue
		}

		break
	}
}

func (l *Lexer) readIdentifier() string {
	start := l.pos - 1 // current rune is already in l.ch
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	end := l.pos - 1
	if l.ch == 0 {
		end = len(l.input)
	}
	return string(l.input[start:end])
}

func (l *Lexer) readNumber() string {
	var sb []rune
	for isDigit(l.ch) {
		sb = append(sb, l.ch)
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		sb = append(sb, l.ch)
		l.readChar()
		for isDigit(l.ch) {
			sb = append(sb, l.ch)
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		next := l.peekChar()
		if isDigit(next) || next == '+' || next == '-' {
			sb = append(sb, l.ch)
			l.readChar()
			if l.ch == '+' || l.ch == '-' {
				sb = append(sb, l.ch)
				l.readChar()
			}
			for isDigit(l.ch) {
				sb = append(sb, l.ch)
				l.readChar()
			}
		}
	}
	return string(sb)
}

// readString consumes a string body; a doubled quote stands for one quote.
func (l *Lexer) readString(start token.Position) (string, bool) {
	var sb []rune
	for {
		if l.ch == 0 {
			l.errorf(start, "unterminated string literal")
			return string(sb), false
		}
		if l.ch == '"' {
			if l.peekChar() == '"' {
				sb = append(sb, '"')
				l.readChar()
				l.readChar()
				continue
			}
			l.readChar() // consume closing quote
			return string(sb), true
		}
		sb = append(sb, l.ch)
		l.readChar()
	}
}

func (l *Lexer) errorf(pos token.Position, msg string) {
	l.errors = append(l.errors, Error{Pos: pos, Msg: msg})
}

func formatError(pos token.Position, msg string) string {
	return fmt.Sprintf("%d:%d: %s", pos.Line, pos.Column, msg)
}

func (l *Lexer) Errors() []Error {
	return l.errors
}

func isLetter(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch)
}

func isDigit(ch rune) bool {
	if ch > utf8.RuneSelf {
		return false
	}
	return ch >= '0' && ch <= '9'
}
