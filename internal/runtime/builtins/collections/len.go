package collections

import (
	"unicode/utf8"

	"greyvm/internal/runtime/builtins"
	"greyvm/internal/value"
)

func init() {
	builtins.Register(builtins.Builtin{
		Meta: builtins.Meta{
			Name:       "len",
			ParamNames: []string{"self"},
			Receivers:  onSequences,
		},
		Call: func(call *value.NativeCall) (value.Value, error) {
			switch self := call.Self; self.Kind {
			case value.KindString:
				return value.Number(float64(utf8.RuneCountInString(self.Str))), nil
			case value.KindList:
				return value.Number(float64(self.List.Len())), nil
			case value.KindMap:
				return value.Number(float64(self.Map.Len())), nil
			}
			return value.Null, nil
		},
	})
}
