package token

import "fmt"

type Kind int

const (
	Illegal Kind = iota
	EOF
	EOL // end of line (newline or ';')

	Ident  // Identifier
	Number // Numeric literal
	String // String literal

	// Keywords
	Function
	End
	If
	Then
	Else
	While
	For
	In
	Break
	Continue
	Return
	And
	Or
	Not
	Isa
	New
	True
	False
	Null
	Debugger

	// Directives
	ImportDirective  // #import
	IncludeDirective // #include
	EnvarDirective   // #envar

	// Operators
	Assign        // =
	PlusAssign    // +=
	MinusAssign   // -=
	StarAssign    // *=
	SlashAssign   // /=
	PercentAssign // %=
	CaretAssign   // ^=

	Plus    // +
	Minus   // -
	Star    // *
	Slash   // /
	Percent // %
	Caret   // ^

	Eq    // ==
	NotEq // !=
	Lt    // <
	LtEq  // <=
	Gt    // >
	GtEq  // >=

	Amp  // &
	Pipe // |
	Shl  // <<
	Shr  // >>
	UShr // >>>
	At   // @

	// Symbols
	Comma // ,
	Dot   // .
	Colon // :

	LParen   // (
	RParen   // )
	LBrace   // {
	RBrace   // }
	LBracket // [
	RBracket // ]
)

type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Range spans a node from its first to its last token.
type Range struct {
	Start Position
	End   Position
}

type Token struct {
	Kind   Kind
	Lexeme string
	Pos    Position
	End    Position
}

var names = map[Kind]string{
	Illegal:          "Illegal",
	EOF:              "EOF",
	EOL:              "EOL",
	Ident:            "Ident",
	Number:           "Number",
	String:           "String",
	Function:         "Function",
	End:              "End",
	If:               "If",
	Then:             "Then",
	Else:             "Else",
	While:            "While",
	For:              "For",
	In:               "In",
	Break:            "Break",
	Continue:         "Continue",
	Return:           "Return",
	And:              "And",
	Or:               "Or",
	Not:              "Not",
	Isa:              "Isa",
	New:              "New",
	True:             "True",
	False:            "False",
	Null:             "Null",
	Debugger:         "Debugger",
	ImportDirective:  "ImportDirective",
	IncludeDirective: "IncludeDirective",
	EnvarDirective:   "EnvarDirective",
	Assign:           "Assign",
	PlusAssign:       "PlusAssign",
	MinusAssign:      "MinusAssign",
	StarAssign:       "StarAssign",
	SlashAssign:      "SlashAssign",
	PercentAssign:    "PercentAssign",
	CaretAssign:      "CaretAssign",
	Plus:             "Plus",
	Minus:            "Minus",
	Star:             "Star",
	Slash:            "Slash",
	Percent:          "Percent",
	Caret:            "Caret",
	Eq:               "Eq",
	NotEq:            "NotEq",
	Lt:               "Lt",
	LtEq:             "LtEq",
	Gt:               "Gt",
	GtEq:             "GtEq",
	Amp:              "Amp",
	Pipe:             "Pipe",
	Shl:              "Shl",
	Shr:              "Shr",
	UShr:             "UShr",
	At:               "At",
	Comma:            "Comma",
	Dot:              "Dot",
	Colon:            "Colon",
	LParen:           "LParen",
	RParen:           "RParen",
	LBrace:           "LBrace",
	RBrace:           "RBrace",
	LBracket:         "LBracket",
	RBracket:         "RBracket",
}

func (k Kind) String() string {
	if s, ok := names[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsCompoundAssign reports whether k is one of the `op=` operators.
func (k Kind) IsCompoundAssign() bool {
	switch k {
	case PlusAssign, MinusAssign, StarAssign, SlashAssign, PercentAssign, CaretAssign:
		return true
	}
	return false
}

// BinaryOf maps a compound assignment operator to its arithmetic operator.
func (k Kind) BinaryOf() Kind {
	switch k {
	case PlusAssign:
		return Plus
	case MinusAssign:
		return Minus
	case StarAssign:
		return Star
	case SlashAssign:
		return Slash
	case PercentAssign:
		return Percent
	case CaretAssign:
		return Caret
	}
	return Illegal
}

var keywords = map[string]Kind{
	"function": Function,
	"end":      End,
	"if":       If,
	"then":     Then,
	"else":     Else,
	"while":    While,
	"for":      For,
	"in":       In,
	"break":    Break,
	"continue": Continue,
	"return":   Return,
	"and":      And,
	"or":       Or,
	"not":      Not,
	"isa":      Isa,
	"new":      New,
	"true":     True,
	"false":    False,
	"null":     Null,
	"debugger": Debugger,
}

var directives = map[string]Kind{
	"import":  ImportDirective,
	"include": IncludeDirective,
	"envar":   EnvarDirective,
}

func LookupIdent(lit string) Kind {
	if kind, ok := keywords[lit]; ok {
		return kind
	}
	return Ident
}

// LookupDirective resolves the word following '#'.
func LookupDirective(lit string) (Kind, bool) {
	kind, ok := directives[lit]
	return kind, ok
}
