package io

import (
	"fmt"

	"greyvm/internal/runtime/builtins"
	"greyvm/internal/value"
)

func init() {
	builtins.Register(builtins.Builtin{
		Meta: builtins.Meta{
			Name:       "user_input",
			ParamNames: []string{"msg", "isPassword"},
			Defaults: map[string]value.Value{
				"msg":        value.Str(""),
				"isPassword": value.Bool(false),
			},
		},
		Call: func(call *value.NativeCall) (value.Value, error) {
			env, err := builtins.EnvOf(call)
			if err != nil {
				return value.Null, err
			}
			prompt := call.Arg(0)
			masked := call.Arg(1).Truthy()

			// Reading blocks, so it runs off the VM goroutine and the VM
			// waits on the result.
			f := value.NewFuture()
			go func() {
				line, err := env.IO().ReadLine(prompt.String(), masked)
				if err != nil {
					f.Reject(fmt.Errorf("input failed: %w", err))
					return
				}
				f.Resolve(value.Str(line))
			}()
			return value.Pending(f), nil
		},
	})
}
