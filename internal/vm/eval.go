package vm

import (
	"fmt"
	"math"
	"strings"

	"greyvm/internal/ir"
	"greyvm/internal/value"
)

func numeric(v value.Value) bool {
	return v.Kind == value.KindNumber || v.Kind == value.KindBool
}

// MaxSequenceLen bounds the length of a string or list built by * and /.
const MaxSequenceLen = 1 << 24

// repeatLen scales a sequence of length n by factor: whole copies followed
// by a proportional prefix. Non-positive and NaN factors yield nothing.
func repeatLen(n int, factor float64) (whole, rest int, err error) {
	if !(factor > 0) || n == 0 {
		return 0, 0, nil
	}
	if total := float64(n) * factor; total > MaxSequenceLen {
		return 0, 0, fmt.Errorf("%w: %.0f elements", ErrSequenceTooLong, total)
	}
	whole = int(factor)
	rest = int(float64(n) * (factor - float64(whole)))
	return whole, rest, nil
}

func repeatString(s string, factor float64) (value.Value, error) {
	runes := []rune(s)
	whole, rest, err := repeatLen(len(runes), factor)
	if err != nil {
		return value.Null, err
	}
	var b strings.Builder
	for i := 0; i < whole; i++ {
		b.WriteString(s)
	}
	b.WriteString(string(runes[:rest]))
	return value.Str(b.String()), nil
}

func repeatList(l *value.List, factor float64) (value.Value, error) {
	whole, rest, err := repeatLen(l.Len(), factor)
	if err != nil {
		return value.Null, err
	}
	items := make([]value.Value, 0, whole*l.Len()+rest)
	for i := 0; i < whole; i++ {
		items = append(items, l.Items...)
	}
	items = append(items, l.Items[:rest]...)
	return value.FromList(value.NewList(items...)), nil
}

// concatText renders an operand of string concatenation; null is empty.
func concatText(v value.Value) string {
	if v.IsNull() {
		return ""
	}
	return v.String()
}

// weighted builds the result of and/or: a number when either side was a
// number, a boolean otherwise.
func weighted(a, b value.Value, w float64) value.Value {
	if a.Kind == value.KindNumber || b.Kind == value.KindNumber {
		return value.Number(w)
	}
	return value.Bool(w != 0)
}

// decided is the result of and/or when the left operand alone fixes it
// (0 for and, 1 for or). The right operand is never evaluated then, so
// only the left one picks the kind.
func decided(a value.Value, w float64) value.Value {
	return weighted(a, a, w)
}

func evalAnd(a, b value.Value) value.Value {
	x := a.Intensity()
	if x == 0 {
		return decided(a, 0)
	}
	return weighted(a, b, x*b.Intensity())
}

func evalOr(a, b value.Value) value.Value {
	x := a.Intensity()
	if x == 1 {
		return decided(a, 1)
	}
	y := b.Intensity()
	return weighted(a, b, x+y-x*y)
}

// evalBinary applies a binary operator. Type pairs an operator does not
// define yield null.
func evalBinary(op ir.OpCode, a, b value.Value) (value.Value, error) {
	switch op {
	case ir.OpEqual:
		if a.IsNull() || b.IsNull() {
			return value.Bool(a.IsNull() == b.IsNull()), nil
		}
		return value.Bool(value.Equal(a, b)), nil
	case ir.OpNotEqual:
		if a.IsNull() || b.IsNull() {
			return value.Bool(a.IsNull() != b.IsNull()), nil
		}
		return value.Bool(!value.Equal(a, b)), nil
	case ir.OpLess, ir.OpLessEqual, ir.OpGreater, ir.OpGreaterEqual:
		return compare(op, a, b), nil
	case ir.OpAnd:
		return evalAnd(a, b), nil
	case ir.OpOr:
		return evalOr(a, b), nil
	case ir.OpBitwiseAnd, ir.OpBitwiseOr, ir.OpBitwiseLeftShift, ir.OpBitwiseRightShift, ir.OpBitwiseUnsignedRightShift:
		return bitwise(op, a, b), nil
	}

	if numeric(a) && numeric(b) {
		return arith(op, a.Num, b.Num), nil
	}

	switch {
	case a.Kind == value.KindString || b.Kind == value.KindString:
		return evalString(op, a, b)
	case a.Kind == value.KindList:
		return evalList(op, a, b)
	case a.Kind == value.KindMap && b.Kind == value.KindMap && op == ir.OpAdd:
		m := a.Map.Fork()
		for _, e := range b.Map.Entries() {
			m.Set(e.Key, e.Value)
		}
		return value.FromMap(m), nil
	}
	return value.Null, nil
}

func arith(op ir.OpCode, x, y float64) value.Value {
	switch op {
	case ir.OpAdd:
		return value.Number(x + y)
	case ir.OpSub:
		return value.Number(x - y)
	case ir.OpMul:
		return value.Number(x * y)
	case ir.OpDiv:
		return value.Number(x / y)
	case ir.OpMod:
		return value.Number(math.Mod(x, y))
	case ir.OpPow:
		return value.Number(math.Pow(x, y))
	}
	return value.Null
}

func evalString(op ir.OpCode, a, b value.Value) (value.Value, error) {
	switch op {
	case ir.OpAdd:
		return value.Str(concatText(a) + concatText(b)), nil
	case ir.OpSub:
		if a.Kind != value.KindString {
			return value.Null, nil
		}
		return value.Str(strings.TrimSuffix(a.Str, concatText(b))), nil
	case ir.OpMul:
		if a.Kind == value.KindString && numeric(b) {
			return repeatString(a.Str, b.Num)
		}
	case ir.OpDiv:
		if a.Kind == value.KindString && numeric(b) {
			return repeatString(a.Str, 1/b.Num)
		}
	}
	return value.Null, nil
}

func evalList(op ir.OpCode, a, b value.Value) (value.Value, error) {
	switch op {
	case ir.OpAdd:
		if b.Kind != value.KindList {
			return value.Null, nil
		}
		l := a.List.Fork()
		l.Append(b.List.Items...)
		return value.FromList(l), nil
	case ir.OpMul:
		if numeric(b) {
			return repeatList(a.List, b.Num)
		}
	case ir.OpDiv:
		if numeric(b) {
			return repeatList(a.List, 1/b.Num)
		}
	}
	return value.Null, nil
}

func compare(op ir.OpCode, a, b value.Value) value.Value {
	var c int
	switch {
	case numeric(a) && numeric(b):
		switch {
		case a.Num < b.Num:
			c = -1
		case a.Num > b.Num:
			c = 1
		case a.Num != b.Num: // NaN
			return value.Bool(false)
		}
	case a.Kind == value.KindString && b.Kind == value.KindString:
		c = strings.Compare(a.Str, b.Str)
	default:
		return value.Bool(false)
	}

	switch op {
	case ir.OpLess:
		return value.Bool(c < 0)
	case ir.OpLessEqual:
		return value.Bool(c <= 0)
	case ir.OpGreater:
		return value.Bool(c > 0)
	default:
		return value.Bool(c >= 0)
	}
}

func bitwise(op ir.OpCode, a, b value.Value) value.Value {
	if !numeric(a) || !numeric(b) {
		return value.Null
	}
	x, y := int32(int64(a.Num)), int32(int64(b.Num))
	shift := uint32(y) & 31
	switch op {
	case ir.OpBitwiseAnd:
		return value.Number(float64(x & y))
	case ir.OpBitwiseOr:
		return value.Number(float64(x | y))
	case ir.OpBitwiseLeftShift:
		return value.Number(float64(x << shift))
	case ir.OpBitwiseRightShift:
		return value.Number(float64(x >> shift))
	default:
		return value.Number(float64(uint32(x) >> shift))
	}
}

func evalNot(v value.Value) value.Value {
	if v.Kind == value.KindNumber {
		return value.Number(1 - v.Intensity())
	}
	return value.Bool(!v.Truthy())
}
