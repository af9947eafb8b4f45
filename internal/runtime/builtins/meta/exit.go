package meta

import (
	"greyvm/internal/runtime/builtins"
	"greyvm/internal/value"
)

func init() {
	builtins.Register(builtins.Builtin{
		Meta: builtins.Meta{
			Name:       "exit",
			ParamNames: []string{"msg"},
		},
		Call: func(call *value.NativeCall) (value.Value, error) {
			if msg := call.Arg(0); !msg.IsNull() {
				if env, err := builtins.EnvOf(call); err == nil {
					env.IO().Print(msg.String())
				}
			}
			call.Machine.Exit()
			return value.Null, nil
		},
	})

	builtins.Register(builtins.Builtin{
		Meta: builtins.Meta{
			Name:       "env_var",
			ParamNames: []string{"name"},
		},
		Call: func(call *value.NativeCall) (value.Value, error) {
			if s, ok := call.Machine.EnvVar(call.Arg(0).String()); ok {
				return value.Str(s), nil
			}
			return value.Null, nil
		},
	})
}
