package collections

import (
	"strings"

	"greyvm/internal/runtime/builtins"
	"greyvm/internal/value"
)

func init() {
	builtins.Register(builtins.Builtin{
		Meta: builtins.Meta{
			Name:       "remove",
			ParamNames: []string{"self", "key"},
			Receivers:  onSequences,
		},
		Call: func(call *value.NativeCall) (value.Value, error) {
			key := call.Arg(0)
			switch self := call.Self; self.Kind {
			case value.KindList:
				i, ok := value.NormalizeIndex(key.ToInt(), self.List.Len())
				if key.Kind != value.KindNumber || !ok {
					return value.Null, nil
				}
				self.List.Items = append(self.List.Items[:i], self.List.Items[i+1:]...)
				return self, nil
			case value.KindMap:
				return value.Bool(self.Map.Delete(key)), nil
			case value.KindString:
				return value.Str(strings.Replace(self.Str, key.String(), "", 1)), nil
			}
			return value.Null, unsupported("remove", call.Self)
		},
	})
}
