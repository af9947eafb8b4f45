package strings

import (
	"fmt"
	"strconv"
	stdstrings "strings"

	"greyvm/internal/runtime/builtins"
	"greyvm/internal/value"
)

func init() {
	builtins.Register(builtins.Builtin{
		Meta: builtins.Meta{
			Name:       "to_int",
			ParamNames: []string{"self"},
			Receivers:  []builtins.TypeKind{builtins.TypeString},
		},
		Call: func(call *value.NativeCall) (value.Value, error) {
			s, err := receiver(call, "to_int")
			if err != nil {
				return value.Null, err
			}
			parsed, err := strconv.Atoi(stdstrings.TrimSpace(s))
			if err != nil {
				return value.Null, fmt.Errorf("to_int: invalid integer %q", s)
			}
			return value.Number(float64(parsed)), nil
		},
	})
}
