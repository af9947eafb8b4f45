package collections

import (
	"greyvm/internal/runtime/builtins"
	"greyvm/internal/value"
)

func init() {
	builtins.Register(builtins.Builtin{
		Meta: builtins.Meta{
			Name:       "push",
			ParamNames: []string{"self", "value"},
			Receivers:  onListOrMap,
		},
		Call: func(call *value.NativeCall) (value.Value, error) {
			switch self := call.Self; self.Kind {
			case value.KindList:
				self.List.Append(call.Arg(0))
				return self, nil
			case value.KindMap:
				self.Map.Set(call.Arg(0), value.Number(1))
				return self, nil
			}
			return value.Null, unsupported("push", call.Self)
		},
	})
}
