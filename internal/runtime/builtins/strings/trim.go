package strings

import (
	stdstrings "strings"

	"greyvm/internal/runtime/builtins"
	"greyvm/internal/value"
)

func init() {
	builtins.Register(builtins.Builtin{
		Meta: builtins.Meta{
			Name:       "trim",
			ParamNames: []string{"self", "chars"},
			Defaults:   map[string]value.Value{"chars": value.Str(" \t\r\n")},
			Receivers:  []builtins.TypeKind{builtins.TypeString},
		},
		Call: func(call *value.NativeCall) (value.Value, error) {
			s, err := receiver(call, "trim")
			if err != nil {
				return value.Null, err
			}
			return value.Str(stdstrings.Trim(s, call.Arg(0).String())), nil
		},
	})
}
