package builtins

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/rs/zerolog"

	"greyvm/internal/value"
)

// ErrNoEnv is returned by builtins that need host services when the VM was
// started without a runtime Env.
var ErrNoEnv = errors.New("no runtime env attached")

// Env provides host services to builtins. It is implemented by runtime.Env
// and reaches builtins through value.NativeCall.Host.
type Env interface {
	IO() IO
	Logger() *zerolog.Logger
}

// IO is what print and user_input need.
type IO interface {
	Print(s string)
	ReadLine(prompt string, masked bool) (string, error)
}

// EnvOf returns the Env of the VM running call.
func EnvOf(call *value.NativeCall) (Env, error) {
	if env, ok := call.Host.(Env); ok && env != nil {
		return env, nil
	}
	return nil, ErrNoEnv
}

// FSEnv is implemented by envs that expose a filesystem to scripts.
// Relative script paths resolve against ExecRoot.
type FSEnv interface {
	FS() billy.Filesystem
	ExecRoot() string
}

// FSOf returns the filesystem side of the VM's Env.
func FSOf(call *value.NativeCall) (FSEnv, error) {
	if env, ok := call.Host.(FSEnv); ok && env != nil && env.FS() != nil {
		return env, nil
	}
	return nil, ErrNoEnv
}

// TypeKind names an intrinsic type table.
type TypeKind int

const (
	TypeMap TypeKind = iota
	TypeList
	TypeString
	TypeNumber
	TypeFuncRef
)

func (k TypeKind) String() string {
	switch k {
	case TypeMap:
		return "map"
	case TypeList:
		return "list"
	case TypeString:
		return "string"
	case TypeNumber:
		return "number"
	case TypeFuncRef:
		return "funcRef"
	}
	return fmt.Sprintf("TypeKind(%d)", int(k))
}

// TypeKindFromString converts a type table name to a TypeKind.
func TypeKindFromString(name string) (TypeKind, bool) {
	switch name {
	case "map":
		return TypeMap, true
	case "list":
		return TypeList, true
	case "string":
		return TypeString, true
	case "number":
		return TypeNumber, true
	case "funcRef":
		return TypeFuncRef, true
	}
	return 0, false
}

// Meta describes a builtin.
//
// Every builtin is reachable from the root API under Name. A builtin with
// Receivers is also a method of those type tables; its first parameter must
// then be "self". Defaults hold literal default values by parameter name.
type Meta struct {
	Name       string
	ParamNames []string
	Defaults   map[string]value.Value
	Receivers  []TypeKind
}

func (m Meta) params() []value.Param {
	out := make([]value.Param, len(m.ParamNames))
	for i, name := range m.ParamNames {
		out[i] = value.Param{Name: name}
		if d, ok := m.Defaults[name]; ok {
			out[i].Default = d
			out[i].HasDefault = true
		}
	}
	return out
}

// Builtin is a registered native function.
type Builtin struct {
	Meta Meta
	Call value.NativeFunc
}

type registry struct {
	mu     sync.RWMutex
	byName map[string]*Builtin
}

var globalRegistry = &registry{
	byName: make(map[string]*Builtin),
}

// Register registers a builtin. It is called from the init() of each
// builtin package and panics on invalid metadata or a duplicate name.
func Register(b Builtin) {
	if err := validate(b); err != nil {
		panic(err)
	}

	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	if _, exists := globalRegistry.byName[b.Meta.Name]; exists {
		panic(fmt.Sprintf("builtin %q is already registered", b.Meta.Name))
	}
	globalRegistry.byName[b.Meta.Name] = &b
}

func validate(b Builtin) error {
	m := b.Meta
	if m.Name == "" {
		return errors.New("builtin without a name")
	}
	if b.Call == nil {
		return fmt.Errorf("builtin %s has no implementation", m.Name)
	}
	if len(m.Receivers) > 0 && (len(m.ParamNames) == 0 || m.ParamNames[0] != "self") {
		return fmt.Errorf("method %s must take self as its first parameter", m.Name)
	}
	seen := make(map[string]bool, len(m.ParamNames))
	for _, p := range m.ParamNames {
		if seen[p] {
			return fmt.Errorf("builtin %s: duplicate parameter %q", m.Name, p)
		}
		seen[p] = true
	}
	for name := range m.Defaults {
		if !seen[name] {
			return fmt.Errorf("builtin %s: default for unknown parameter %q", m.Name, name)
		}
	}
	return nil
}

// LookupByName finds a registered builtin. Returns nil if not found.
func LookupByName(name string) *Builtin {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()
	return globalRegistry.byName[name]
}

// All returns the metadata of every registered builtin, sorted by name.
func All() []Meta {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()
	result := make([]Meta, 0, len(globalRegistry.byName))
	for _, b := range globalRegistry.byName {
		result = append(result, b.Meta)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// Apply calls b with missing arguments taken from their defaults. Catalog
// natives go through it, so a host calling a builtin directly binds
// arguments the same way a script call does.
func (b *Builtin) Apply(call *value.NativeCall) (value.Value, error) {
	params := b.Meta.params()
	if len(params) > 0 && params[0].Name == "self" {
		params = params[1:]
	}
	if len(call.Args) > len(params) {
		return value.Null, fmt.Errorf("%s takes %d arguments, got %d", b.Meta.Name, len(params), len(call.Args))
	}
	args := make([]value.Value, len(params))
	copy(args, call.Args)
	for i := len(call.Args); i < len(params); i++ {
		args[i] = params[i].Default
	}
	bound := *call
	bound.Args = args
	return b.Call(&bound)
}
