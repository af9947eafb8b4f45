package strings

import (
	"fmt"
	stdstrings "strings"
	"unicode/utf8"

	"greyvm/internal/runtime/builtins"
	"greyvm/internal/value"
)

func init() {
	builtins.Register(builtins.Builtin{
		Meta: builtins.Meta{
			Name:       "indexOf",
			ParamNames: []string{"self", "value", "after"},
			Receivers:  []builtins.TypeKind{builtins.TypeString, builtins.TypeList, builtins.TypeMap},
		},
		Call: func(call *value.NativeCall) (value.Value, error) {
			return indexOf(call.Self, call.Arg(0), call.Arg(1))
		},
	})
}

// indexOf finds the first occurrence of needle in self after the given
// position (a key for maps). Strings index by rune.
func indexOf(self, needle, after value.Value) (value.Value, error) {
	switch self.Kind {
	case value.KindString:
		if needle.Kind != value.KindString {
			return value.Null, nil
		}
		runes := []rune(self.Str)
		from := 0
		if !after.IsNull() {
			i, ok := value.NormalizeIndex(after.ToInt(), len(runes))
			if !ok {
				return value.Null, nil
			}
			from = i + 1
		}
		rest := string(runes[from:])
		i := stdstrings.Index(rest, needle.Str)
		if i < 0 {
			return value.Null, nil
		}
		return value.Number(float64(from + utf8.RuneCountInString(rest[:i]))), nil
	case value.KindList:
		from := 0
		if !after.IsNull() {
			i, ok := value.NormalizeIndex(after.ToInt(), self.List.Len())
			if !ok {
				return value.Null, nil
			}
			from = i + 1
		}
		for i := from; i < self.List.Len(); i++ {
			if value.Equal(self.List.Items[i], needle) {
				return value.Number(float64(i)), nil
			}
		}
		return value.Null, nil
	case value.KindMap:
		passed := after.IsNull()
		for _, e := range self.Map.Entries() {
			if !passed {
				passed = value.Equal(e.Key, after)
				continue
			}
			if value.Equal(e.Value, needle) {
				return e.Key, nil
			}
		}
		return value.Null, nil
	}
	return value.Null, fmt.Errorf("indexOf called on unsupported type %s", self.TypeName())
}
