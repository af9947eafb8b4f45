package builtins

import (
	"sort"

	"greyvm/internal/value"
)

// Catalog is a fixed set of builtins from which per-run intrinsic contexts
// are built.
type Catalog struct {
	entries []*Builtin
}

// Default snapshots everything registered so far.
func Default() *Catalog {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()
	c := &Catalog{entries: make([]*Builtin, 0, len(globalRegistry.byName))}
	for _, b := range globalRegistry.byName {
		c.entries = append(c.entries, b)
	}
	c.sort()
	return c
}

// NewCatalog builds a catalog from explicit builtins, bypassing the global
// registry.
func NewCatalog(bs ...Builtin) *Catalog {
	c := &Catalog{}
	for i := range bs {
		if err := validate(bs[i]); err != nil {
			panic(err)
		}
		b := bs[i]
		c.entries = append(c.entries, &b)
	}
	c.sort()
	return c
}

func (c *Catalog) sort() {
	sort.Slice(c.entries, func(i, j int) bool { return c.entries[i].Meta.Name < c.entries[j].Meta.Name })
}

func (c *Catalog) Len() int {
	return len(c.entries)
}

func (c *Catalog) Lookup(name string) (*Builtin, bool) {
	i := sort.Search(len(c.entries), func(i int) bool { return c.entries[i].Meta.Name >= name })
	if i < len(c.entries) && c.entries[i].Meta.Name == name {
		return c.entries[i], true
	}
	return nil, false
}

func (c *Catalog) Names() []string {
	out := make([]string, len(c.entries))
	for i, b := range c.entries {
		out[i] = b.Meta.Name
	}
	return out
}

// NewContext builds fresh intrinsic tables for one VM run. Function values
// are created anew so that a script rebinding or extending a table never
// affects another run.
func (c *Catalog) NewContext() *value.Intrinsics {
	in := value.NewIntrinsics()
	for _, b := range c.entries {
		fn := value.FromFunc(value.NewNative(b.Meta.Name, b.Meta.params(), b.Apply))
		in.API.SetString(b.Meta.Name, fn)
		for _, k := range b.Meta.Receivers {
			table(in, k).SetString(b.Meta.Name, fn)
		}
	}
	for _, k := range []TypeKind{TypeMap, TypeList, TypeString, TypeNumber, TypeFuncRef} {
		in.API.SetString(k.String(), value.FromMap(table(in, k)))
	}
	return in
}

func table(in *value.Intrinsics, k TypeKind) *value.Map {
	switch k {
	case TypeMap:
		return in.Map
	case TypeList:
		return in.List
	case TypeString:
		return in.String
	case TypeNumber:
		return in.Number
	default:
		return in.Function
	}
}
