package collections

import (
	"greyvm/internal/runtime/builtins"
	"greyvm/internal/value"
)

func init() {
	builtins.Register(builtins.Builtin{
		Meta: builtins.Meta{
			Name:       "reverse",
			ParamNames: []string{"self"},
			Receivers:  onList,
		},
		Call: func(call *value.NativeCall) (value.Value, error) {
			if call.Self.Kind != value.KindList {
				return value.Null, unsupported("reverse", call.Self)
			}
			items := call.Self.List.Items
			for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
				items[i], items[j] = items[j], items[i]
			}
			return value.Null, nil
		},
	})
}
