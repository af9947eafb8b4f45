package runtime

import (
	"path"

	"github.com/go-git/go-billy/v5"
)

// WithExecRoot sets the directory relative script paths resolve against.
func WithExecRoot(dir string) Option {
	return func(e *Env) { e.execRoot = dir }
}

// FS is the filesystem scripts and imports read from. Implements
// builtins.FSEnv.
func (e *Env) FS() billy.Filesystem {
	return e.fs
}

func (e *Env) ExecRoot() string {
	return e.execRoot
}

// SetExecRoot changes the exec root, typically to the directory of the
// entry script.
func (e *Env) SetExecRoot(dir string) {
	e.execRoot = path.Clean(dir)
}
