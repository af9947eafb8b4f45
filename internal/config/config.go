// Package config handles greyvm.toml configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"greyvm/internal/ir"
	"greyvm/internal/vm"
)

// FileName is the name looked up by FindAndLoad.
const FileName = "greyvm.toml"

// Config represents a greyvm.toml file.
type Config struct {
	VM        VM                `toml:"vm"`
	Generator Generator         `toml:"generator"`
	Modules   Modules           `toml:"modules"`
	Env       map[string]string `toml:"env"`

	// Path is the file the configuration was read from, empty for defaults.
	Path string `toml:"-"`
}

// VM holds execution limits.
type VM struct {
	MaxFrames       int `toml:"max_frames"`
	StackSize       int `toml:"stack_size"`
	ActionsPerYield int `toml:"actions_per_yield"`
}

// Generator holds bytecode generation switches.
type Generator struct {
	DebugMode            bool `toml:"debug_mode"`
	CaptureOuterOnAssign bool `toml:"capture_outer_on_assign"`
}

// Modules configures import resolution.
type Modules struct {
	LibDirs []string `toml:"lib_dirs"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		VM: VM{
			MaxFrames:       vm.DefaultMaxFrames,
			StackSize:       vm.DefaultStackSize,
			ActionsPerYield: vm.DefaultActionsPerYield,
		},
		Env: map[string]string{},
	}
}

// Parse decodes TOML on top of the defaults.
func Parse(data string) (*Config, error) {
	c := Default()
	md, err := toml.Decode(data, c)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown key %q", undecoded[0].String())
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if c.Env == nil {
		c.Env = map[string]string{}
	}
	return c, nil
}

// Load parses the configuration file at path. Relative library directories
// are resolved against the file's directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	c, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	c.Path, err = filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", path, err)
	}
	dir := filepath.Dir(c.Path)
	for i, d := range c.Modules.LibDirs {
		if !filepath.IsAbs(d) {
			c.Modules.LibDirs[i] = filepath.Join(dir, d)
		}
	}
	return c, nil
}

// FindAndLoad walks up from startDir looking for greyvm.toml. Without one
// it returns the defaults.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}
	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return Default(), nil
		}
		dir = parent
	}
}

func (c *Config) Validate() error {
	switch {
	case c.VM.MaxFrames <= 0:
		return fmt.Errorf("vm.max_frames must be positive, got %d", c.VM.MaxFrames)
	case c.VM.StackSize <= 0:
		return fmt.Errorf("vm.stack_size must be positive, got %d", c.VM.StackSize)
	case c.VM.ActionsPerYield <= 0:
		return fmt.Errorf("vm.actions_per_yield must be positive, got %d", c.VM.ActionsPerYield)
	}
	return nil
}

// GeneratorOptions returns generator options for compiling target.
func (c *Config) GeneratorOptions(target string) ir.Options {
	return ir.Options{
		Target:               target,
		DebugMode:            c.Generator.DebugMode,
		CaptureOuterOnAssign: c.Generator.CaptureOuterOnAssign,
	}
}

// VMOptions returns the VM limits and environment variables.
func (c *Config) VMOptions() vm.Options {
	return vm.Options{
		EnvVars:         c.Env,
		MaxFrames:       c.VM.MaxFrames,
		StackSize:       c.VM.StackSize,
		ActionsPerYield: c.VM.ActionsPerYield,
	}
}
