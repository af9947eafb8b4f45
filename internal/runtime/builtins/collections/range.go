package collections

import (
	"errors"
	"fmt"
	"math"

	"greyvm/internal/runtime/builtins"
	"greyvm/internal/value"
)

// MaxRange bounds the length of lists built by range.
const MaxRange = 1 << 24

func init() {
	builtins.Register(builtins.Builtin{
		Meta: builtins.Meta{
			Name:       "range",
			ParamNames: []string{"from", "to", "step"},
			Defaults: map[string]value.Value{
				"from": value.Number(0),
				"to":   value.Number(0),
			},
		},
		Call: func(call *value.NativeCall) (value.Value, error) {
			from, to := call.Arg(0).ToNumber(), call.Arg(1).ToNumber()
			step := 1.0
			if to < from {
				step = -1
			}
			if s := call.Arg(2); !s.IsNull() {
				step = s.ToNumber()
			}
			if step == 0 || math.IsNaN(step) {
				return value.Null, errors.New("range: step must not be 0")
			}

			n := math.Floor((to-from)/step) + 1
			if n <= 0 || math.IsNaN(n) {
				return value.ListOf(), nil
			}
			if n > MaxRange {
				return value.Null, fmt.Errorf("range: %v elements exceed the limit of %d", n, MaxRange)
			}
			out := make([]value.Value, int(n))
			for i := range out {
				out[i] = value.Number(from + float64(i)*step)
			}
			return value.ListOf(out...), nil
		},
	})
}
