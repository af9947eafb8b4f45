package value

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownPath       = errors.New("unknown path")
	ErrIndexOutOfRange   = errors.New("index out of range")
	ErrInvalidAssignment = errors.New("invalid assignment")
)

// Intrinsics is the per-run context of intrinsic tables: the root API and
// one method table per type. Each VM gets its own so overrides made by one
// script never leak into another run.
type Intrinsics struct {
	API      *Map
	Map      *Map
	List     *Map
	String   *Map
	Number   *Map
	Function *Map
}

func NewIntrinsics() *Intrinsics {
	return &Intrinsics{
		API:      NewMap(),
		Map:      NewMap(),
		List:     NewMap(),
		String:   NewMap(),
		Number:   NewMap(),
		Function: NewMap(),
	}
}

// TypeTable returns the intrinsic table backing v's type, or nil.
func (in *Intrinsics) TypeTable(v Value) *Map {
	if in == nil {
		return nil
	}
	switch v.Kind {
	case KindMap:
		return in.Map
	case KindList:
		return in.List
	case KindString:
		return in.String
	case KindNumber, KindBool:
		return in.Number
	case KindFunction:
		return in.Function
	}
	return nil
}

func (in *Intrinsics) fromTable(base, key Value) (Value, *Map, bool) {
	table := in.TypeTable(base)
	if table == nil {
		return Null, nil, false
	}
	return table.Lookup(key)
}

func unknownPath(base, key Value) error {
	return fmt.Errorf("%w %s on %s", ErrUnknownPath, key.Repr(), base.TypeName())
}

// GetProperty reads base[key]. For maps the prototype chain is searched
// before the type table; origin is the map the value was found on.
func GetProperty(in *Intrinsics, base, key Value) (val Value, origin *Map, err error) {
	switch base.Kind {
	case KindMap:
		if v, o, ok := base.Map.Lookup(key); ok {
			return v, o, nil
		}

	case KindList:
		if key.Kind == KindNumber || key.Kind == KindBool {
			i, ok := NormalizeIndex(key.ToInt(), base.List.Len())
			if !ok {
				return Null, nil, fmt.Errorf("%w: %s (length %d)", ErrIndexOutOfRange, key, base.List.Len())
			}
			return base.List.Items[i], nil, nil
		}

	case KindString:
		if key.Kind == KindNumber || key.Kind == KindBool {
			runes := []rune(base.Str)
			i, ok := NormalizeIndex(key.ToInt(), len(runes))
			if !ok {
				return Null, nil, fmt.Errorf("%w: %s (length %d)", ErrIndexOutOfRange, key, len(runes))
			}
			return Str(string(runes[i])), nil, nil
		}

	case KindNil:
		return Null, nil, fmt.Errorf("%w %s on null", ErrUnknownPath, key.Repr())
	}

	if v, o, ok := in.fromTable(base, key); ok {
		return v, o, nil
	}
	return Null, nil, unknownPath(base, key)
}

// SetProperty performs base[key] = val.
func SetProperty(base, key, val Value) error {
	switch base.Kind {
	case KindMap:
		base.Map.Set(key, val)
		return nil
	case KindList:
		if key.Kind != KindNumber {
			return fmt.Errorf("%w: list index must be a number, got %s", ErrInvalidAssignment, key.TypeName())
		}
		i, ok := NormalizeIndex(key.ToInt(), base.List.Len())
		if !ok {
			return fmt.Errorf("%w: %s (length %d)", ErrIndexOutOfRange, key, base.List.Len())
		}
		base.List.Items[i] = val
		return nil
	}
	return fmt.Errorf("%w: cannot set %s on %s", ErrInvalidAssignment, key.Repr(), base.TypeName())
}

// InstanceOf implements isa: a map inherits from every map on its
// prototype chain, and every value is an instance of its type table.
func InstanceOf(in *Intrinsics, v, proto Value) bool {
	switch proto.Kind {
	case KindNil:
		return v.Kind == KindNil
	case KindMap:
		if v.Kind == KindMap && v.Map.Inherits(proto.Map) {
			return true
		}
		table := in.TypeTable(v)
		return table != nil && table == proto.Map
	}
	return false
}
