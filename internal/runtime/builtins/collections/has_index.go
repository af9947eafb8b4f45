package collections

import (
	"unicode/utf8"

	"greyvm/internal/runtime/builtins"
	"greyvm/internal/value"
)

func init() {
	builtins.Register(builtins.Builtin{
		Meta: builtins.Meta{
			Name:       "hasIndex",
			ParamNames: []string{"self", "index"},
			Receivers:  onSequences,
		},
		Call: func(call *value.NativeCall) (value.Value, error) {
			idx := call.Arg(0)
			switch self := call.Self; self.Kind {
			case value.KindList:
				_, ok := value.NormalizeIndex(idx.ToInt(), self.List.Len())
				return value.Bool(idx.Kind == value.KindNumber && ok), nil
			case value.KindString:
				_, ok := value.NormalizeIndex(idx.ToInt(), utf8.RuneCountInString(self.Str))
				return value.Bool(idx.Kind == value.KindNumber && ok), nil
			case value.KindMap:
				return value.Bool(self.Map.Has(idx)), nil
			}
			return value.Null, unsupported("hasIndex", call.Self)
		},
	})
}
