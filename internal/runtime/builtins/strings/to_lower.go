package strings

import (
	stdstrings "strings"

	"greyvm/internal/runtime/builtins"
	"greyvm/internal/value"
)

func init() {
	builtins.Register(builtins.Builtin{
		Meta: builtins.Meta{
			Name:       "lower",
			ParamNames: []string{"self"},
			Receivers:  []builtins.TypeKind{builtins.TypeString},
		},
		Call: func(call *value.NativeCall) (value.Value, error) {
			s, err := receiver(call, "lower")
			if err != nil {
				return value.Null, err
			}
			return value.Str(stdstrings.ToLower(s)), nil
		},
	})
}
