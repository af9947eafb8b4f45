package meta

import (
	"greyvm/internal/runtime/builtins"
	"greyvm/internal/value"
)

func init() {
	builtins.Register(builtins.Builtin{
		Meta: builtins.Meta{
			Name:       "hash",
			ParamNames: []string{"value"},
		},
		Call: func(call *value.NativeCall) (value.Value, error) {
			// Scripts see numbers as float64, so fold to 53 bits.
			h := value.Hash(call.Arg(0))
			return value.Number(float64(h & (1<<53 - 1))), nil
		},
	})
}
