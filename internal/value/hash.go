package value

import (
	"encoding/binary"
	"math"

	"github.com/zeebo/xxh3"
)

// MaxHashDepth bounds structural hashing. Anything nested deeper contributes
// deepHash instead of being visited, so distinct values that only differ
// below the cap collide.
const MaxHashDepth = 16

const deepHash uint64 = 0x9e3779b97f4a7c15

// Hash returns the structural hash of v. Each list or map is hashed at most
// once per depth, so a value with many references to the same container
// (itself included) costs time linear in its containers, not in its paths.
func Hash(v Value) uint64 {
	var h hasher
	return h.hash(v, 0)
}

func hashWords(words ...uint64) uint64 {
	buf := make([]byte, 8*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint64(buf[i*8:], w)
	}
	return xxh3.Hash(buf)
}

type memoKey struct {
	ref   any // *List or *Map
	depth int
}

type hasher struct {
	memo map[memoKey]uint64
}

func (h *hasher) hash(v Value, depth int) uint64 {
	if depth > MaxHashDepth {
		return deepHash
	}

	switch v.Kind {
	case KindNil:
		return hashWords(uint64(KindNil))
	case KindBool, KindNumber:
		n := v.Num
		if n == 0 {
			n = 0 // -0 and +0 are the same key
		}
		return hashWords(uint64(v.Kind), math.Float64bits(n))
	case KindString:
		return hashWords(uint64(KindString), xxh3.HashString(v.Str))
	case KindList:
		return h.memoized(memoKey{v.List, depth}, func() uint64 {
			d := xxh3.New()
			var buf [8]byte
			binary.LittleEndian.PutUint64(buf[:], uint64(KindList))
			d.Write(buf[:])
			for _, el := range v.List.Items {
				binary.LittleEndian.PutUint64(buf[:], h.hash(el, depth+1))
				d.Write(buf[:])
			}
			return d.Sum64()
		})
	case KindMap:
		return h.memoized(memoKey{v.Map, depth}, func() uint64 {
			// entry order does not matter
			var sum uint64
			for _, e := range v.Map.Entries() {
				sum += hashWords(h.hash(e.Key, depth+1), h.hash(e.Value, depth+1))
			}
			return hashWords(uint64(KindMap), sum, uint64(v.Map.Len()))
		})
	case KindFunction:
		return hashWords(uint64(KindFunction), v.Func.id)
	case KindInterface:
		return hashWords(uint64(KindInterface), v.Iface.id)
	}
	return 0
}

func (h *hasher) memoized(k memoKey, compute func() uint64) uint64 {
	if sum, ok := h.memo[k]; ok {
		return sum
	}
	sum := compute()
	if h.memo == nil {
		h.memo = make(map[memoKey]uint64)
	}
	h.memo[k] = sum
	return sum
}

// Equal compares by value. Lists and maps compare structurally through
// their hash; functions and interfaces by identity.
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindNil:
		return true
	case KindBool, KindNumber:
		return a.Num == b.Num
	case KindString:
		return a.Str == b.Str
	case KindList:
		if a.List == b.List {
			return true
		}
		return a.List.Len() == b.List.Len() && Hash(a) == Hash(b)
	case KindMap:
		if a.Map == b.Map {
			return true
		}
		return a.Map.Len() == b.Map.Len() && Hash(a) == Hash(b)
	case KindFunction:
		return a.Func == b.Func
	case KindInterface:
		return a.Iface == b.Iface
	}
	return false
}
