package meta

import (
	"greyvm/internal/runtime/builtins"
	"greyvm/internal/value"
)

func init() {
	builtins.Register(builtins.Builtin{
		Meta: builtins.Meta{
			Name:       "typeof",
			ParamNames: []string{"value"},
		},
		Call: func(call *value.NativeCall) (value.Value, error) {
			return value.Str(typeOf(call.Arg(0))), nil
		},
	})
}

// typeOf reports the type name of v. Maps that carry a string classID,
// directly or through their prototypes, report that instead.
func typeOf(v value.Value) string {
	if v.Kind == value.KindMap {
		if id, _, ok := v.Map.Lookup(value.Str("classID")); ok && id.Kind == value.KindString {
			return id.Str
		}
	}
	return v.TypeName()
}
