// Package fs exposes the Env filesystem to scripts. Paths are slash
// separated; relative ones resolve against the exec root.
package fs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sort"

	"github.com/go-git/go-billy/v5/util"

	"greyvm/internal/runtime/builtins"
	"greyvm/internal/value"
)

// MaxFileSize bounds file_read.
const MaxFileSize = 16 << 20

func init() {
	register("exec_root", nil, nil, func(env builtins.FSEnv, _ *value.NativeCall) (value.Value, error) {
		return value.Str(env.ExecRoot()), nil
	})
	register("file_read", []string{"path"}, nil, fileRead)
	register("file_write", []string{"path", "content", "append"},
		map[string]value.Value{"append": value.Bool(false)}, fileWrite)
	register("file_exists", []string{"path"}, nil, func(env builtins.FSEnv, call *value.NativeCall) (value.Value, error) {
		p, err := resolve(env, call.Arg(0))
		if err != nil {
			return value.Null, err
		}
		_, err = env.FS().Stat(p)
		return value.Bool(err == nil), nil
	})
	register("file_remove", []string{"path"}, nil, fileRemove)
	register("make_dir", []string{"path"}, nil, func(env builtins.FSEnv, call *value.NativeCall) (value.Value, error) {
		p, err := resolve(env, call.Arg(0))
		if err != nil {
			return value.Null, err
		}
		return value.Null, env.FS().MkdirAll(p, 0o755)
	})
	register("list_dir", []string{"path"}, map[string]value.Value{"path": value.Str(".")}, listDir)
}

type fsFunc func(env builtins.FSEnv, call *value.NativeCall) (value.Value, error)

func register(name string, params []string, defaults map[string]value.Value, fn fsFunc) {
	builtins.Register(builtins.Builtin{
		Meta: builtins.Meta{
			Name:       name,
			ParamNames: params,
			Defaults:   defaults,
		},
		Call: func(call *value.NativeCall) (value.Value, error) {
			env, err := builtins.FSOf(call)
			if err != nil {
				return value.Null, fmt.Errorf("%s: %w", name, err)
			}
			v, err := fn(env, call)
			if err != nil {
				return value.Null, fmt.Errorf("%s: %w", name, err)
			}
			return v, nil
		},
	})
}

func resolve(env builtins.FSEnv, v value.Value) (string, error) {
	if v.Kind != value.KindString || v.Str == "" {
		return "", fmt.Errorf("path must be a non-empty string, got %s", v.Kind)
	}
	p := v.Str
	if !path.IsAbs(p) {
		p = path.Join(env.ExecRoot(), p)
	}
	return path.Clean(p), nil
}

// fileRead returns the file content, or null when it does not exist.
func fileRead(env builtins.FSEnv, call *value.NativeCall) (value.Value, error) {
	p, err := resolve(env, call.Arg(0))
	if err != nil {
		return value.Null, err
	}
	info, err := env.FS().Stat(p)
	if errors.Is(err, os.ErrNotExist) {
		return value.Null, nil
	}
	if err != nil {
		return value.Null, err
	}
	if info.IsDir() {
		return value.Null, fmt.Errorf("%s is a directory", p)
	}
	if info.Size() > MaxFileSize {
		return value.Null, fmt.Errorf("%s exceeds %d bytes", p, MaxFileSize)
	}
	data, err := util.ReadFile(env.FS(), p)
	if err != nil {
		return value.Null, err
	}
	return value.Str(string(data)), nil
}

func fileWrite(env builtins.FSEnv, call *value.NativeCall) (value.Value, error) {
	p, err := resolve(env, call.Arg(0))
	if err != nil {
		return value.Null, err
	}
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if call.Arg(2).Truthy() {
		flags = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	}
	if err := env.FS().MkdirAll(path.Dir(p), 0o755); err != nil {
		return value.Null, err
	}
	f, err := env.FS().OpenFile(p, flags, 0o644)
	if err != nil {
		return value.Null, err
	}
	n, err := io.WriteString(f, call.Arg(1).String())
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return value.Null, err
	}
	return value.Number(float64(n)), nil
}

// fileRemove reports whether something was removed. Directories must be
// empty.
func fileRemove(env builtins.FSEnv, call *value.NativeCall) (value.Value, error) {
	p, err := resolve(env, call.Arg(0))
	if err != nil {
		return value.Null, err
	}
	err = env.FS().Remove(p)
	if errors.Is(err, os.ErrNotExist) {
		return value.Bool(false), nil
	}
	if err != nil {
		return value.Null, err
	}
	return value.Bool(true), nil
}

func listDir(env builtins.FSEnv, call *value.NativeCall) (value.Value, error) {
	p, err := resolve(env, call.Arg(0))
	if err != nil {
		return value.Null, err
	}
	entries, err := env.FS().ReadDir(p)
	if errors.Is(err, os.ErrNotExist) {
		return value.Null, nil
	}
	if err != nil {
		return value.Null, err
	}
	return value.ListOf(names(entries)...), nil
}

func names(entries []os.FileInfo) []value.Value {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	out := make([]value.Value, len(entries))
	for i, e := range entries {
		name := e.Name()
		if e.IsDir() {
			name += "/"
		}
		out[i] = value.Str(name)
	}
	return out
}
