package io

import (
	"greyvm/internal/runtime/builtins"
	"greyvm/internal/value"
)

func init() {
	builtins.Register(builtins.Builtin{
		Meta: builtins.Meta{
			Name:       "print",
			ParamNames: []string{"s"},
			Defaults:   map[string]value.Value{"s": value.Str("")},
		},
		Call: func(call *value.NativeCall) (value.Value, error) {
			env, err := builtins.EnvOf(call)
			if err != nil {
				return value.Null, err
			}
			env.IO().Print(call.Arg(0).String())
			return value.Null, nil
		},
	})
}
