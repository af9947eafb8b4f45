// Package strings registers the string methods.
package strings

import (
	"fmt"

	"greyvm/internal/value"
)

func receiver(call *value.NativeCall, name string) (string, error) {
	if call.Self.Kind != value.KindString {
		return "", fmt.Errorf("string.%s called on non-string type %s", name, call.Self.TypeName())
	}
	return call.Self.Str, nil
}

func stringList(parts []string) value.Value {
	out := make([]value.Value, len(parts))
	for i, p := range parts {
		out[i] = value.Str(p)
	}
	return value.ListOf(out...)
}
