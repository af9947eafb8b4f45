package runtime

import (
	"context"
	"maps"

	"greyvm/internal/ir"
	// Import all builtin packages to trigger their init() functions for self-registration
	_ "greyvm/internal/runtime/builtins/collections"
	_ "greyvm/internal/runtime/builtins/fs"
	_ "greyvm/internal/runtime/builtins/io"
	_ "greyvm/internal/runtime/builtins/json"
	_ "greyvm/internal/runtime/builtins/math"
	_ "greyvm/internal/runtime/builtins/meta"
	_ "greyvm/internal/runtime/builtins/strings"
	_ "greyvm/internal/runtime/builtins/time"
	"greyvm/internal/vm"
)

// Load fetches path through the Env resolver and compiles it with path as
// the root target.
func (e *Env) Load(path string, opts ir.Options) (*ir.Program, error) {
	src, err := e.resolver.Fetch(path)
	if err != nil {
		return nil, err
	}
	opts.Target = path
	return e.Compile(src, opts)
}

// Compile compiles src. Imports resolve through the Env resolver and share
// its import cache.
func (e *Env) Compile(src string, opts ir.Options) (*ir.Program, error) {
	if opts.Resolver == nil {
		opts.Resolver = e.resolver
	}
	if opts.Cache == nil {
		opts.Cache = e.cache
	}
	if opts.Logger == nil {
		l := e.logger.With().Str("component", "generator").Logger()
		opts.Logger = &l
	}
	return ir.Compile(src, opts)
}

// NewVM prepares a VM for prog with a fresh intrinsics context. Environment
// variables in opts override those of the Env.
func (e *Env) NewVM(prog *ir.Program, opts vm.Options) *vm.VM {
	if opts.Intrinsics == nil {
		opts.Intrinsics = e.catalog.NewContext()
	}
	if opts.Host == nil {
		opts.Host = e
	}
	if opts.Logger == nil {
		opts.Logger = &e.logger
	}
	vars := make(map[string]string, len(e.envVars)+len(opts.EnvVars))
	maps.Copy(vars, e.envVars)
	maps.Copy(vars, opts.EnvVars)
	opts.EnvVars = vars
	return vm.New(prog, opts)
}

// Run compiles and executes the file at path. Failures are passed to the
// error handler and returned.
func (e *Env) Run(ctx context.Context, path string, gen ir.Options, opts vm.Options) (*vm.VM, error) {
	prog, err := e.Load(path, gen)
	if err != nil {
		e.ReportError(err)
		return nil, err
	}
	m := e.NewVM(prog, opts)
	if err := m.Exec(ctx); err != nil {
		e.ReportError(err)
		return m, err
	}
	return m, nil
}
