package collections

import (
	"greyvm/internal/runtime/builtins"
	"greyvm/internal/value"
)

func init() {
	builtins.Register(builtins.Builtin{
		Meta: builtins.Meta{
			Name:       "pop",
			ParamNames: []string{"self"},
			Receivers:  onListOrMap,
		},
		Call: func(call *value.NativeCall) (value.Value, error) {
			return take(call.Self, "pop", true)
		},
	})

	builtins.Register(builtins.Builtin{
		Meta: builtins.Meta{
			Name:       "pull",
			ParamNames: []string{"self"},
			Receivers:  onListOrMap,
		},
		Call: func(call *value.NativeCall) (value.Value, error) {
			return take(call.Self, "pull", false)
		},
	})
}

// take removes the last (pop) or first (pull) element of a list. Maps give
// up their first key either way. Empty collections yield null.
func take(self value.Value, name string, last bool) (value.Value, error) {
	switch self.Kind {
	case value.KindList:
		items := self.List.Items
		if len(items) == 0 {
			return value.Null, nil
		}
		if last {
			v := items[len(items)-1]
			self.List.Items = items[:len(items)-1]
			return v, nil
		}
		v := items[0]
		self.List.Items = append(items[:0:0], items[1:]...)
		return v, nil
	case value.KindMap:
		entries := self.Map.Entries()
		if len(entries) == 0 {
			return value.Null, nil
		}
		self.Map.Delete(entries[0].Key)
		return entries[0].Key, nil
	}
	return value.Null, unsupported(name, self)
}
