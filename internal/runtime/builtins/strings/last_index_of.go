package strings

import (
	"fmt"
	stdstrings "strings"
	"unicode/utf8"

	"greyvm/internal/runtime/builtins"
	"greyvm/internal/value"
)

func init() {
	builtins.Register(builtins.Builtin{
		Meta: builtins.Meta{
			Name:       "lastIndexOf",
			ParamNames: []string{"self", "value"},
			Receivers:  []builtins.TypeKind{builtins.TypeString, builtins.TypeList},
		},
		Call: func(call *value.NativeCall) (value.Value, error) {
			needle := call.Arg(0)
			switch self := call.Self; self.Kind {
			case value.KindString:
				if needle.Kind != value.KindString {
					return value.Null, nil
				}
				i := stdstrings.LastIndex(self.Str, needle.Str)
				if i < 0 {
					return value.Null, nil
				}
				return value.Number(float64(utf8.RuneCountInString(self.Str[:i]))), nil
			case value.KindList:
				for i := self.List.Len() - 1; i >= 0; i-- {
					if value.Equal(self.List.Items[i], needle) {
						return value.Number(float64(i)), nil
					}
				}
				return value.Null, nil
			}
			return value.Null, fmt.Errorf("lastIndexOf called on unsupported type %s", call.Self.TypeName())
		},
	})
}
