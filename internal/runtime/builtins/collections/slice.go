package collections

import (
	"greyvm/internal/runtime/builtins"
	"greyvm/internal/value"
)

func init() {
	builtins.Register(builtins.Builtin{
		Meta: builtins.Meta{
			Name:       "slice",
			ParamNames: []string{"seq", "from", "to"},
			Defaults:   map[string]value.Value{"from": value.Number(0)},
		},
		Call: func(call *value.NativeCall) (value.Value, error) {
			seq, from, to := call.Arg(0), call.Arg(1), call.Arg(2)
			switch seq.Kind {
			case value.KindList:
				lo, hi := value.SliceBounds(from, to, seq.List.Len())
				items := make([]value.Value, hi-lo)
				copy(items, seq.List.Items[lo:hi])
				return value.ListOf(items...), nil
			case value.KindString:
				runes := []rune(seq.Str)
				lo, hi := value.SliceBounds(from, to, len(runes))
				return value.Str(string(runes[lo:hi])), nil
			}
			return value.Null, nil
		},
	})
}
