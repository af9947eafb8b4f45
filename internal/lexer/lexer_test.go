package lexer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greyvm/internal/lexer"
	"greyvm/internal/token"
)

type tok struct {
	kind token.Kind
	lit  string
}

func lexAll(t *testing.T, input string) ([]tok, *lexer.Lexer) {
	t.Helper()
	l := lexer.New(input)
	var out []tok
	for i := 0; ; i++ {
		require.Less(t, i, 1000, "lexer did not reach EOF")
		tk := l.NextToken()
		out = append(out, tok{tk.Kind, tk.Lexeme})
		if tk.Kind == token.EOF {
			return out, l
		}
	}
}

func TestNextToken_BasicProgram(t *testing.T) {
	input := `x = 1 + 2.5e1 // sum
print "a""b", x
if x >= 3 then
  x -= 1
end if
`
	want := []tok{
		{token.Ident, "x"},
		{token.Assign, "="},
		{token.Number, "1"},
		{token.Plus, "+"},
		{token.Number, "2.5e1"},
		{token.EOL, "\n"},

		{token.Ident, "print"},
		{token.String, `a"b`},
		{token.Comma, ","},
		{token.Ident, "x"},
		{token.EOL, "\n"},

		{token.If, "if"},
		{token.Ident, "x"},
		{token.GtEq, ">="},
		{token.Number, "3"},
		{token.Then, "then"},
		{token.EOL, "\n"},

		{token.Ident, "x"},
		{token.MinusAssign, "-="},
		{token.Number, "1"},
		{token.EOL, "\n"},

		{token.End, "end"},
		{token.If, "if"},
		{token.EOL, "\n"},
		{token.EOF, ""},
	}

	got, l := lexAll(t, input)
	assert.Equal(t, want, got)
	assert.Empty(t, l.Errors())
}

func TestOperators(t *testing.T) {
	got, l := lexAll(t, "<= << < >>> >> > >= != == = += *= /= %= ^= @ & | . : % ^")
	var kinds []token.Kind
	for _, tk := range got {
		kinds = append(kinds, tk.kind)
	}
	assert.Equal(t, []token.Kind{
		token.LtEq, token.Shl, token.Lt, token.UShr, token.Shr, token.Gt, token.GtEq,
		token.NotEq, token.Eq, token.Assign, token.PlusAssign, token.StarAssign,
		token.SlashAssign, token.PercentAssign, token.CaretAssign, token.At, token.Amp,
		token.Pipe, token.Dot, token.Colon, token.Percent, token.Caret, token.EOF,
	}, kinds)
	assert.Empty(t, l.Errors())
}

func TestLineBreaks(t *testing.T) {
	tests := map[string][]token.Kind{
		"\n\na\n\n\nb\n":      {token.Ident, token.EOL, token.Ident, token.EOL, token.EOF},
		"a; b":                {token.Ident, token.EOL, token.Ident, token.EOF},
		"x = 1 +\n 2":         {token.Ident, token.Assign, token.Number, token.Plus, token.Number, token.EOF},
		"[1,\n2\n]":           {token.LBracket, token.Number, token.Comma, token.Number, token.RBracket, token.EOF},
		"a and\nb":            {token.Ident, token.And, token.Ident, token.EOF},
		"x // only comment\n": {token.Ident, token.EOL, token.EOF},
	}
	for input, want := range tests {
		t.Run(input, func(t *testing.T) {
			got, _ := lexAll(t, input)
			var kinds []token.Kind
			for _, tk := range got {
				kinds = append(kinds, tk.kind)
			}
			assert.Equal(t, want, kinds)
		})
	}
}

func TestFunctionInsideBrackets(t *testing.T) {
	got, _ := lexAll(t, "f(function(x)\nreturn x\nend function)")
	want := []tok{
		{token.Ident, "f"},
		{token.LParen, "("},
		{token.Function, "function"},
		{token.LParen, "("},
		{token.Ident, "x"},
		{token.RParen, ")"},
		{token.EOL, "\n"},
		{token.Return, "return"},
		{token.Ident, "x"},
		{token.EOL, "\n"},
		{token.End, "end"},
		{token.Function, "function"},
		{token.RParen, ")"},
		{token.EOF, ""},
	}
	assert.Equal(t, want, got)
}

func TestDirectives(t *testing.T) {
	got, l := lexAll(t, "#import m from \"lib/m\"\n#include \"x\"\ny = #envar HOME")
	assert.Equal(t, []tok{
		{token.ImportDirective, "#import"},
		{token.Ident, "m"},
		{token.Ident, "from"},
		{token.String, "lib/m"},
		{token.EOL, "\n"},
		{token.IncludeDirective, "#include"},
		{token.String, "x"},
		{token.EOL, "\n"},
		{token.Ident, "y"},
		{token.Assign, "="},
		{token.EnvarDirective, "#envar"},
		{token.Ident, "HOME"},
		{token.EOF, ""},
	}, got)
	assert.Empty(t, l.Errors())
}

func TestPositions(t *testing.T) {
	l := lexer.New("a\n  bc")
	a := l.NextToken()
	assert.Equal(t, token.Position{Line: 1, Column: 1}, a.Pos)
	assert.Equal(t, token.Position{Line: 1, Column: 1}, a.End)

	l.NextToken() // EOL
	bc := l.NextToken()
	assert.Equal(t, "bc", bc.Lexeme)
	assert.Equal(t, token.Position{Line: 2, Column: 3}, bc.Pos)
	assert.Equal(t, token.Position{Line: 2, Column: 4}, bc.End)
}

func TestErrors(t *testing.T) {
	tests := map[string]string{
		`x = "open`: "1:5: unterminated string literal",
		"a ! b":     "1:3: unexpected '!'",
		"#bogus":    "1:1: unknown directive #bogus",
		"x = $":     "1:5: unexpected character '$'",
	}
	for input, want := range tests {
		t.Run(input, func(t *testing.T) {
			got, l := lexAll(t, input)
			require.Len(t, l.Errors(), 1)
			assert.Equal(t, want, l.Errors()[0].Error())

			var illegal bool
			for _, tk := range got {
				illegal = illegal || tk.kind == token.Illegal
			}
			assert.True(t, illegal)
		})
	}
}
