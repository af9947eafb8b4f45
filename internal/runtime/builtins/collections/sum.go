package collections

import (
	"greyvm/internal/runtime/builtins"
	"greyvm/internal/value"
)

func init() {
	builtins.Register(builtins.Builtin{
		Meta: builtins.Meta{
			Name:       "sum",
			ParamNames: []string{"self"},
			Receivers:  onListOrMap,
		},
		Call: func(call *value.NativeCall) (value.Value, error) {
			var items []value.Value
			switch self := call.Self; self.Kind {
			case value.KindList:
				items = self.List.Items
			case value.KindMap:
				items = self.Map.Values()
			default:
				return value.Null, unsupported("sum", call.Self)
			}
			total := 0.0
			for _, v := range items {
				total += v.ToNumber()
			}
			return value.Number(total), nil
		},
	})
}
