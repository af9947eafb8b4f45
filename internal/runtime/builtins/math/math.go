// Package math registers the numeric builtins.
package math

import (
	stdmath "math"
	"math/rand"

	"greyvm/internal/runtime/builtins"
	"greyvm/internal/value"
)

func unary(name string, fn func(float64) float64) builtins.Builtin {
	return builtins.Builtin{
		Meta: builtins.Meta{
			Name:       name,
			ParamNames: []string{"x"},
			Defaults:   map[string]value.Value{"x": value.Number(0)},
		},
		Call: func(call *value.NativeCall) (value.Value, error) {
			return value.Number(fn(call.Arg(0).ToNumber())), nil
		},
	}
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}

func init() {
	builtins.Register(unary("abs", stdmath.Abs))
	builtins.Register(unary("floor", stdmath.Floor))
	builtins.Register(unary("ceil", stdmath.Ceil))
	builtins.Register(unary("sqrt", stdmath.Sqrt))
	builtins.Register(unary("sign", sign))
	builtins.Register(unary("sin", stdmath.Sin))
	builtins.Register(unary("cos", stdmath.Cos))
	builtins.Register(unary("log", stdmath.Log10))

	builtins.Register(builtins.Builtin{
		Meta: builtins.Meta{
			Name:       "round",
			ParamNames: []string{"x", "decimalPlaces"},
			Defaults: map[string]value.Value{
				"x":             value.Number(0),
				"decimalPlaces": value.Number(0),
			},
		},
		Call: func(call *value.NativeCall) (value.Value, error) {
			x := call.Arg(0).ToNumber()
			p := stdmath.Pow(10, float64(call.Arg(1).ToInt()))
			return value.Number(stdmath.Round(x*p) / p), nil
		},
	})

	builtins.Register(builtins.Builtin{
		Meta: builtins.Meta{Name: "pi"},
		Call: func(*value.NativeCall) (value.Value, error) {
			return value.Number(stdmath.Pi), nil
		},
	})

	builtins.Register(builtins.Builtin{
		Meta: builtins.Meta{
			Name:       "rnd",
			ParamNames: []string{"seed"},
		},
		Call: func(call *value.NativeCall) (value.Value, error) {
			if seed := call.Arg(0); !seed.IsNull() {
				return value.Number(rand.New(rand.NewSource(int64(seed.ToInt()))).Float64()), nil
			}
			return value.Number(rand.Float64()), nil
		},
	})

	builtins.Register(builtins.Builtin{
		Meta: builtins.Meta{
			Name:       "bitwise",
			ParamNames: []string{"op", "a", "b"},
		},
		Call: func(call *value.NativeCall) (value.Value, error) {
			a, b := int32(call.Arg(1).ToInt()), int32(call.Arg(2).ToInt())
			switch call.Arg(0).String() {
			case "&":
				return value.Number(float64(a & b)), nil
			case "|":
				return value.Number(float64(a | b)), nil
			case "^":
				return value.Number(float64(a ^ b)), nil
			case "~":
				return value.Number(float64(^a)), nil
			case "<<":
				return value.Number(float64(a << (uint32(b) & 31))), nil
			case ">>":
				return value.Number(float64(a >> (uint32(b) & 31))), nil
			case ">>>":
				return value.Number(float64(uint32(a) >> (uint32(b) & 31))), nil
			}
			return value.Null, nil
		},
	})
}
