package collections

import (
	"strings"

	"greyvm/internal/runtime/builtins"
	"greyvm/internal/value"
)

func init() {
	builtins.Register(builtins.Builtin{
		Meta: builtins.Meta{
			Name:       "join",
			ParamNames: []string{"self", "delimiter"},
			Defaults:   map[string]value.Value{"delimiter": value.Str(" ")},
			Receivers:  onList,
		},
		Call: func(call *value.NativeCall) (value.Value, error) {
			if call.Self.Kind != value.KindList {
				return value.Null, unsupported("join", call.Self)
			}
			parts := make([]string, call.Self.List.Len())
			for i, v := range call.Self.List.Items {
				if !v.IsNull() {
					parts[i] = v.String()
				}
			}
			return value.Str(strings.Join(parts, call.Arg(0).String())), nil
		},
	})
}
