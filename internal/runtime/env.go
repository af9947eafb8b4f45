package runtime

import (
	"fmt"
	"io"
	"os"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/rs/zerolog"

	"greyvm/internal/ir"
	"greyvm/internal/modules"
	"greyvm/internal/runtime/builtins"
)

// ErrorHandler receives errors that end a run.
type ErrorHandler func(err error)

// Env aggregates the host services a run needs: output and input, error
// reporting, the resource resolver, environment variables and the
// intrinsic catalog. Env implements builtins.Env.
type Env struct {
	io       builtins.IO
	logger   zerolog.Logger
	onError  ErrorHandler
	envVars  map[string]string
	resolver *modules.Resolver
	fs       billy.Filesystem
	execRoot string
	catalog  *builtins.Catalog
	cache    *ir.ImportCache
}

type Option func(*Env)

func WithIO(io builtins.IO) Option {
	return func(e *Env) { e.io = io }
}

func WithLogger(l zerolog.Logger) Option {
	return func(e *Env) { e.logger = l }
}

func WithErrorHandler(h ErrorHandler) Option {
	return func(e *Env) { e.onError = h }
}

// WithFilesystem sets where imports and includes are fetched from.
func WithFilesystem(fs billy.Filesystem, libDirs ...string) Option {
	return func(e *Env) {
		e.fs = fs
		e.resolver = modules.NewResolver(fs, libDirs...)
	}
}

// WithEnvVars sets the variables visible to #envar.
func WithEnvVars(vars map[string]string) Option {
	return func(e *Env) { e.envVars = vars }
}

func WithCatalog(c *builtins.Catalog) Option {
	return func(e *Env) { e.catalog = c }
}

// NewEnv builds an Env. Unless overridden it prints to stdout, reads from
// stdin, reports errors on stderr, loads modules from the OS filesystem and
// uses every registered builtin.
func NewEnv(opts ...Option) *Env {
	e := &Env{
		logger:  zerolog.Nop(),
		envVars: map[string]string{},
		cache:   ir.NewImportCache(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.io == nil {
		e.io = NewStdIO(os.Stdin, os.Stdout)
	}
	if e.onError == nil {
		e.onError = writeError(os.Stderr)
	}
	if e.resolver == nil {
		e.fs = osfs.New("/")
		e.resolver = modules.NewResolver(e.fs)
	}
	if e.execRoot == "" {
		e.execRoot = "/"
	}
	if e.catalog == nil {
		e.catalog = builtins.Default()
	}
	return e
}

// DefaultEnv returns an Env with standard implementations.
func DefaultEnv() *Env {
	return NewEnv()
}

// IO returns the IO service. Implements builtins.Env interface.
func (e *Env) IO() builtins.IO {
	return e.io
}

// Logger implements builtins.Env.
func (e *Env) Logger() *zerolog.Logger {
	return &e.logger
}

func (e *Env) Resolver() *modules.Resolver {
	return e.resolver
}

func (e *Env) Catalog() *builtins.Catalog {
	return e.catalog
}

// ImportCache is shared by every compilation through this Env.
func (e *Env) ImportCache() *ir.ImportCache {
	return e.cache
}

func (e *Env) EnvVars() map[string]string {
	return e.envVars
}

// ReportError hands err to the error handler.
func (e *Env) ReportError(err error) {
	if err != nil {
		e.onError(err)
	}
}

func writeError(w io.Writer) ErrorHandler {
	return func(err error) {
		fmt.Fprintln(w, err)
	}
}
