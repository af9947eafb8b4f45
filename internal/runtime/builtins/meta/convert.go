package meta

import (
	"strconv"
	"strings"

	"greyvm/internal/runtime/builtins"
	"greyvm/internal/value"
)

func init() {
	builtins.Register(builtins.Builtin{
		Meta: builtins.Meta{
			Name:       "str",
			ParamNames: []string{"value"},
		},
		Call: func(call *value.NativeCall) (value.Value, error) {
			v := call.Arg(0)
			if v.IsNull() {
				return value.Str(""), nil
			}
			return value.Str(v.String()), nil
		},
	})

	builtins.Register(builtins.Builtin{
		Meta: builtins.Meta{
			Name:       "val",
			ParamNames: []string{"self"},
			Receivers:  []builtins.TypeKind{builtins.TypeString, builtins.TypeNumber},
		},
		Call: func(call *value.NativeCall) (value.Value, error) {
			return parseNumber(call.Self), nil
		},
	})
}

// parseNumber converts strings to numbers. Strings that are not numbers
// yield null; numbers pass through.
func parseNumber(v value.Value) value.Value {
	switch v.Kind {
	case value.KindNumber:
		return v
	case value.KindBool:
		return value.Number(v.Num)
	case value.KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil {
			return value.Null
		}
		return value.Number(f)
	}
	return value.Null
}
