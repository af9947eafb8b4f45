package collections

import (
	"sort"

	"github.com/maruel/natural"

	"greyvm/internal/runtime/builtins"
	"greyvm/internal/value"
)

func init() {
	builtins.Register(builtins.Builtin{
		Meta: builtins.Meta{
			Name:       "sort",
			ParamNames: []string{"self", "byKey", "ascending"},
			Defaults:   map[string]value.Value{"ascending": value.Bool(true)},
			Receivers:  onList,
		},
		Call: func(call *value.NativeCall) (value.Value, error) {
			if call.Self.Kind != value.KindList {
				return value.Null, unsupported("sort", call.Self)
			}
			byKey, asc := call.Arg(0), call.Arg(1).Truthy()
			items := call.Self.List.Items

			keyOf := func(v value.Value) value.Value {
				if byKey.IsNull() {
					return v
				}
				if v.Kind == value.KindMap {
					k, _, _ := v.Map.Lookup(byKey)
					return k
				}
				if v.Kind == value.KindList && byKey.Kind == value.KindNumber {
					if i, ok := value.NormalizeIndex(byKey.ToInt(), v.List.Len()); ok {
						return v.List.Items[i]
					}
				}
				return value.Null
			}
			sort.SliceStable(items, func(i, j int) bool {
				a, b := keyOf(items[i]), keyOf(items[j])
				if asc {
					return less(a, b)
				}
				return less(b, a)
			})
			return call.Self, nil
		},
	})
}

// less orders numbers before strings before everything else. Strings
// compare in natural order, so "file2" sorts before "file10".
func less(a, b value.Value) bool {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return ra < rb
	}
	switch ra {
	case 0:
		return a.Num < b.Num
	case 1:
		return natural.Less(a.Str, b.Str)
	}
	return false
}

func rank(v value.Value) int {
	switch v.Kind {
	case value.KindNumber, value.KindBool:
		return 0
	case value.KindString:
		return 1
	}
	return 2
}
