package strings

import (
	"fmt"
	"unicode/utf8"

	"greyvm/internal/runtime/builtins"
	"greyvm/internal/value"
)

func init() {
	builtins.Register(builtins.Builtin{
		Meta: builtins.Meta{
			Name:       "char",
			ParamNames: []string{"codePoint"},
			Defaults:   map[string]value.Value{"codePoint": value.Number(65)},
		},
		Call: func(call *value.NativeCall) (value.Value, error) {
			r := rune(call.Arg(0).ToInt())
			if !utf8.ValidRune(r) {
				return value.Null, fmt.Errorf("char: invalid code point %d", r)
			}
			return value.Str(string(r)), nil
		},
	})

	builtins.Register(builtins.Builtin{
		Meta: builtins.Meta{
			Name:       "code",
			ParamNames: []string{"self"},
			Receivers:  []builtins.TypeKind{builtins.TypeString},
		},
		Call: func(call *value.NativeCall) (value.Value, error) {
			s, err := receiver(call, "code")
			if err != nil {
				return value.Null, err
			}
			if s == "" {
				return value.Null, nil
			}
			r, _ := utf8.DecodeRuneInString(s)
			return value.Number(float64(r)), nil
		},
	})
}
