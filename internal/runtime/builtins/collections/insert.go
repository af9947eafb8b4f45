package collections

import (
	"fmt"

	"greyvm/internal/runtime/builtins"
	"greyvm/internal/value"
)

func init() {
	builtins.Register(builtins.Builtin{
		Meta: builtins.Meta{
			Name:       "insert",
			ParamNames: []string{"self", "index", "value"},
			Receivers:  []builtins.TypeKind{builtins.TypeList, builtins.TypeString},
		},
		Call: func(call *value.NativeCall) (value.Value, error) {
			idx, v := call.Arg(0), call.Arg(1)
			if idx.Kind != value.KindNumber {
				return value.Null, fmt.Errorf("insert: index must be a number, got %s", idx.TypeName())
			}

			switch self := call.Self; self.Kind {
			case value.KindList:
				i, err := insertAt(idx.ToInt(), self.List.Len())
				if err != nil {
					return value.Null, err
				}
				items := append(self.List.Items, value.Null)
				copy(items[i+1:], items[i:])
				items[i] = v
				self.List.Items = items
				return self, nil
			case value.KindString:
				runes := []rune(self.Str)
				i, err := insertAt(idx.ToInt(), len(runes))
				if err != nil {
					return value.Null, err
				}
				return value.Str(string(runes[:i]) + v.String() + string(runes[i:])), nil
			}
			return value.Null, unsupported("insert", call.Self)
		},
	})
}

// insertAt resolves an insertion point in [0, n]; negative indexes count
// from the end.
func insertAt(i, n int) (int, error) {
	if i < 0 {
		i += n + 1
	}
	if i < 0 || i > n {
		return 0, fmt.Errorf("insert: %w: %d (length %d)", value.ErrIndexOutOfRange, i, n)
	}
	return i, nil
}
