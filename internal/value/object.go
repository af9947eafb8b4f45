package value

// Entry is one key/value pair of an ObjectValue.
type Entry struct {
	Key   Value
	Value Value
}

// ObjectValue is an insertion-ordered associative container indexed by the
// structural hash of its keys, so equal lists or maps address the same
// slot. Each hash holds exactly one entry: structurally distinct keys that
// collide overwrite each other.
type ObjectValue struct {
	index   map[uint64]int
	entries []Entry
	hashes  []uint64 // parallel to entries
}

func NewObjectValue() *ObjectValue {
	return &ObjectValue{index: make(map[uint64]int)}
}

func (o *ObjectValue) Len() int {
	return len(o.entries)
}

func (o *ObjectValue) Get(key Value) (Value, bool) {
	i, ok := o.index[Hash(key)]
	if !ok {
		return Null, false
	}
	return o.entries[i].Value, true
}

func (o *ObjectValue) Has(key Value) bool {
	_, ok := o.index[Hash(key)]
	return ok
}

// Set replaces the value under key, keeping its position, or appends it.
func (o *ObjectValue) Set(key, val Value) {
	h := Hash(key)
	if i, ok := o.index[h]; ok {
		o.entries[i].Value = val
		return
	}
	o.index[h] = len(o.entries)
	o.entries = append(o.entries, Entry{Key: key, Value: val})
	o.hashes = append(o.hashes, h)
}

func (o *ObjectValue) Delete(key Value) bool {
	h := Hash(key)
	i, ok := o.index[h]
	if !ok {
		return false
	}
	delete(o.index, h)
	o.entries = append(o.entries[:i], o.entries[i+1:]...)
	o.hashes = append(o.hashes[:i], o.hashes[i+1:]...)
	for j := i; j < len(o.hashes); j++ {
		o.index[o.hashes[j]] = j
	}
	return true
}

// Entries returns a snapshot in insertion order.
func (o *ObjectValue) Entries() []Entry {
	out := make([]Entry, len(o.entries))
	copy(out, o.entries)
	return out
}

func (o *ObjectValue) Clone() *ObjectValue {
	c := &ObjectValue{
		index:   make(map[uint64]int, len(o.index)),
		entries: make([]Entry, len(o.entries)),
		hashes:  make([]uint64, len(o.hashes)),
	}
	copy(c.entries, o.entries)
	copy(c.hashes, o.hashes)
	for h, i := range o.index {
		c.index[h] = i
	}
	return c
}
