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
			Name:       "replace",
			ParamNames: []string{"self", "oldval", "newval", "maxCount"},
			Receivers:  []builtins.TypeKind{builtins.TypeString, builtins.TypeList, builtins.TypeMap},
		},
		Call: func(call *value.NativeCall) (value.Value, error) {
			old, repl := call.Arg(0), call.Arg(1)
			limit := -1
			if n := call.Arg(2); !n.IsNull() {
				limit = n.ToInt()
			}

			switch self := call.Self; self.Kind {
			case value.KindString:
				if old.Kind != value.KindString || old.Str == "" {
					return value.Null, fmt.Errorf("string.replace: oldval must be a non-empty string")
				}
				return value.Str(stdstrings.Replace(self.Str, old.Str, repl.String(), limit)), nil
			case value.KindList:
				for i, el := range self.List.Items {
					if limit == 0 {
						break
					}
					if value.Equal(el, old) {
						self.List.Items[i] = repl
						limit--
					}
				}
				return self, nil
			case value.KindMap:
				for _, e := range self.Map.Entries() {
					if limit == 0 {
						break
					}
					if value.Equal(e.Value, old) {
						self.Map.Set(e.Key, repl)
						limit--
					}
				}
				return self, nil
			}
			return value.Null, fmt.Errorf("replace called on unsupported type %s", call.Self.TypeName())
		},
	})
}
