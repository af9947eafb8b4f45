package strings

import (
	"fmt"
	stdstrings "strings"

	"greyvm/internal/runtime/builtins"
	"greyvm/internal/value"
)

func init() {
	builtins.Register(builtins.Builtin{
		Meta: builtins.Meta{
			Name:       "split",
			ParamNames: []string{"self", "pattern", "maxCount"},
			Defaults: map[string]value.Value{
				"pattern":  value.Str(" "),
				"maxCount": value.Number(-1),
			},
			Receivers: []builtins.TypeKind{builtins.TypeString},
		},
		Call: func(call *value.NativeCall) (value.Value, error) {
			s, err := receiver(call, "split")
			if err != nil {
				return value.Null, err
			}
			sep := call.Arg(0)
			if sep.Kind != value.KindString {
				return value.Null, fmt.Errorf("string.split: pattern must be string, got %s", sep.TypeName())
			}
			n := call.Arg(1).ToInt()
			if n == 0 {
				return value.ListOf(), nil
			}
			if n < 0 {
				n = -1
			}
			return stringList(stdstrings.SplitN(s, sep.Str, n)), nil
		},
	})
}
