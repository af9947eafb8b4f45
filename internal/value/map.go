package value

// IsaKey exposes a map's prototype slot as a regular key.
const IsaKey = "__isa"

// maxIsaDepth stops prototype walks on chains made cyclic through __isa.
const maxIsaDepth = 256

// Map is an ordered map with a single prototype.
type Map struct {
	obj *ObjectValue
	isa *Map
}

func NewMap() *Map {
	return &Map{obj: NewObjectValue()}
}

// MapFrom builds a map from alternating keys and values.
func MapFrom(kv ...Value) *Map {
	m := NewMap()
	for i := 0; i+1 < len(kv); i += 2 {
		m.Set(kv[i], kv[i+1])
	}
	return m
}

func (m *Map) Len() int {
	return m.obj.Len()
}

func (m *Map) Isa() *Map {
	return m.isa
}

func (m *Map) SetIsa(proto *Map) {
	m.isa = proto
}

func isIsaKey(key Value) bool {
	return key.Kind == KindString && key.Str == IsaKey
}

// Get returns an own entry; __isa reads the prototype.
func (m *Map) Get(key Value) (Value, bool) {
	if isIsaKey(key) {
		if m.isa == nil {
			return Null, false
		}
		return FromMap(m.isa), true
	}
	return m.obj.Get(key)
}

func (m *Map) GetString(key string) (Value, bool) {
	return m.Get(Str(key))
}

// Set stores an own entry; assigning __isa replaces the prototype.
func (m *Map) Set(key, val Value) {
	if isIsaKey(key) {
		switch val.Kind {
		case KindMap:
			m.isa = val.Map
		case KindNil:
			m.isa = nil
		default:
			m.obj.Set(key, val)
		}
		return
	}
	m.obj.Set(key, val)
}

func (m *Map) SetString(key string, val Value) {
	m.Set(Str(key), val)
}

func (m *Map) Has(key Value) bool {
	if isIsaKey(key) {
		return m.isa != nil
	}
	return m.obj.Has(key)
}

func (m *Map) Delete(key Value) bool {
	if isIsaKey(key) && m.isa != nil {
		m.isa = nil
		return true
	}
	return m.obj.Delete(key)
}

// Lookup resolves key through the prototype chain and reports the map the
// value was found on.
func (m *Map) Lookup(key Value) (Value, *Map, bool) {
	cur := m
	for depth := 0; cur != nil && depth < maxIsaDepth; depth++ {
		if v, ok := cur.obj.Get(key); ok {
			return v, cur, true
		}
		cur = cur.isa
	}
	if isIsaKey(key) && m.isa != nil {
		return FromMap(m.isa), m, true
	}
	return Null, nil, false
}

// Entries returns the own entries in insertion order.
func (m *Map) Entries() []Entry {
	return m.obj.Entries()
}

func (m *Map) Keys() []Value {
	entries := m.obj.Entries()
	out := make([]Value, len(entries))
	for i, e := range entries {
		out[i] = e.Key
	}
	return out
}

func (m *Map) Values() []Value {
	entries := m.obj.Entries()
	out := make([]Value, len(entries))
	for i, e := range entries {
		out[i] = e.Value
	}
	return out
}

// Fork returns a shallow copy sharing the prototype.
func (m *Map) Fork() *Map {
	return &Map{obj: m.obj.Clone(), isa: m.isa}
}

// Instantiate creates an empty map whose prototype is m.
func (m *Map) Instantiate() *Map {
	return &Map{obj: NewObjectValue(), isa: m}
}

// Inherits reports whether proto is on m's prototype chain.
func (m *Map) Inherits(proto *Map) bool {
	cur := m.isa
	for depth := 0; cur != nil && depth < maxIsaDepth; depth++ {
		if cur == proto {
			return true
		}
		cur = cur.isa
	}
	return false
}
