package collections

import (
	"greyvm/internal/runtime/builtins"
	"greyvm/internal/value"
)

func init() {
	builtins.Register(builtins.Builtin{
		Meta: builtins.Meta{
			Name:       "indexes",
			ParamNames: []string{"self"},
			Receivers:  onSequences,
		},
		Call: func(call *value.NativeCall) (value.Value, error) {
			switch self := call.Self; self.Kind {
			case value.KindMap:
				return value.ListOf(self.Map.Keys()...), nil
			case value.KindList, value.KindString:
				n := self.List.Len()
				if self.Kind == value.KindString {
					n = len([]rune(self.Str))
				}
				out := make([]value.Value, n)
				for i := range out {
					out[i] = value.Number(float64(i))
				}
				return value.ListOf(out...), nil
			}
			return value.Null, unsupported("indexes", call.Self)
		},
	})

	builtins.Register(builtins.Builtin{
		Meta: builtins.Meta{
			Name:       "values",
			ParamNames: []string{"self"},
			Receivers:  onSequences,
		},
		Call: func(call *value.NativeCall) (value.Value, error) {
			switch self := call.Self; self.Kind {
			case value.KindMap:
				return value.ListOf(self.Map.Values()...), nil
			case value.KindList:
				return value.FromList(self.List.Fork()), nil
			case value.KindString:
				runes := []rune(self.Str)
				out := make([]value.Value, len(runes))
				for i, r := range runes {
					out[i] = value.Str(string(r))
				}
				return value.ListOf(out...), nil
			}
			return value.Null, unsupported("values", call.Self)
		},
	})
}
