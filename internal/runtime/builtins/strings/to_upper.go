package strings

import (
	stdstrings "strings"

	"greyvm/internal/runtime/builtins"
	"greyvm/internal/value"
)

func init() {
	builtins.Register(builtins.Builtin{
		Meta: builtins.Meta{
			Name:       "upper",
			ParamNames: []string{"self"},
			Receivers:  []builtins.TypeKind{builtins.TypeString},
		},
		Call: func(call *value.NativeCall) (value.Value, error) {
			s, err := receiver(call, "upper")
			if err != nil {
				return value.Null, err
			}
			return value.Str(stdstrings.ToUpper(s)), nil
		},
	})
}
