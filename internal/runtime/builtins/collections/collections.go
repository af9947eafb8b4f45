// Package collections registers the list and map builtins.
package collections

import (
	"fmt"

	"greyvm/internal/runtime/builtins"
	"greyvm/internal/value"
)

var (
	onList      = []builtins.TypeKind{builtins.TypeList}
	onListOrMap = []builtins.TypeKind{builtins.TypeList, builtins.TypeMap}
	onSequences = []builtins.TypeKind{builtins.TypeList, builtins.TypeMap, builtins.TypeString}
)

func unsupported(name string, v value.Value) error {
	return fmt.Errorf("%s called on unsupported type %s", name, v.TypeName())
}
