package vm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greyvm/internal/ir"
	"greyvm/internal/value"
)

func TestEvalBinary(t *testing.T) {
	n, s := value.Number, value.Str
	list := func(items ...value.Value) value.Value { return value.ListOf(items...) }

	tests := []struct {
		name string
		op   ir.OpCode
		a, b value.Value
		want string
	}{
		{"add numbers", ir.OpAdd, n(1), n(2), "3"},
		{"bool counts as number", ir.OpAdd, value.Bool(true), n(2), "3"},
		{"concat", ir.OpAdd, s("a"), n(1), "a1"},
		{"concat null", ir.OpAdd, s("a"), value.Null, "a"},
		{"trim suffix", ir.OpSub, s("hello.src"), s(".src"), "hello"},
		{"repeat string", ir.OpMul, s("ab"), n(2.5), "ababa"},
		{"divide string", ir.OpDiv, s("abcd"), n(2), "ab"},
		{"negative repeat", ir.OpMul, s("ab"), n(-1), ""},
		{"list concat", ir.OpAdd, list(n(1)), list(n(2)), "[1, 2]"},
		{"list repeat", ir.OpMul, list(n(1), n(2)), n(1.5), "[1, 2, 1]"},
		{"map merge", ir.OpAdd, value.FromMap(value.MapFrom(s("a"), n(1))), value.FromMap(value.MapFrom(s("a"), n(2), s("b"), n(3))), `{"a": 2, "b": 3}`},
		{"unsupported pair", ir.OpSub, list(), n(1), "null"},
		{"mod", ir.OpMod, n(7), n(3), "1"},
		{"pow", ir.OpPow, n(2), n(10), "1024"},
		{"equal null", ir.OpEqual, value.Null, n(0), "false"},
		{"null equals null", ir.OpEqual, value.Null, value.Null, "true"},
		{"structural equality", ir.OpEqual, list(n(1), s("x")), list(n(1), s("x")), "true"},
		{"not equal", ir.OpNotEqual, s("a"), s("b"), "true"},
		{"string order", ir.OpLess, s("abc"), s("abd"), "true"},
		{"mismatched compare", ir.OpLess, s("1"), n(2), "false"},
		{"greater equal", ir.OpGreaterEqual, n(2), n(2), "true"},
		{"and weights", ir.OpAnd, n(0.5), n(0.5), "0.25"},
		{"or weights", ir.OpOr, n(0.5), n(0.5), "0.75"},
		{"and booleans", ir.OpAnd, value.Bool(true), value.Bool(false), "false"},
		{"and decided by false", ir.OpAnd, value.Bool(false), n(0.5), "false"},
		{"and decided by zero", ir.OpAnd, n(0), value.Bool(true), "0"},
		{"or decided by true", ir.OpOr, value.Bool(true), n(0.5), "true"},
		{"and weighs a number", ir.OpAnd, value.Bool(true), n(0.5), "0.5"},
		{"nan repeat", ir.OpMul, s("ab"), n(math.NaN()), ""},
		{"bit and", ir.OpBitwiseAnd, n(6), n(3), "2"},
		{"bit or", ir.OpBitwiseOr, n(4), n(1), "5"},
		{"shift left", ir.OpBitwiseLeftShift, n(1), n(33), "2"},
		{"shift right", ir.OpBitwiseRightShift, n(-8), n(1), "-4"},
		{"unsigned shift", ir.OpBitwiseUnsignedRightShift, n(-1), n(28), "15"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := evalBinary(tt.op, tt.a, tt.b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.Repr())
		})
	}
}

func TestEvalCompareNaN(t *testing.T) {
	nan := value.Number(math.NaN())
	for _, op := range []ir.OpCode{ir.OpLess, ir.OpLessEqual, ir.OpGreater, ir.OpGreaterEqual} {
		v, err := evalBinary(op, nan, value.Number(1))
		require.NoError(t, err)
		assert.Equal(t, value.Bool(false), v, op.String())
	}
}

func TestEvalNot(t *testing.T) {
	assert.Equal(t, value.Number(0.75), evalNot(value.Number(0.25)))
	assert.Equal(t, value.Bool(true), evalNot(value.Null))
	assert.Equal(t, value.Bool(false), evalNot(value.Str("x")))
	assert.Equal(t, value.Bool(true), evalNot(value.Str("")))
}

func TestEvalRepeatBounded(t *testing.T) {
	n, s := value.Number, value.Str
	for _, tt := range []struct {
		name string
		a, b value.Value
	}{
		{"list", value.ListOf(n(1), n(2)), n(1e19)},
		{"string", s("ab"), n(1e19)},
		{"infinite", s("ab"), n(math.Inf(1))},
		{"just over", s("ab"), n(MaxSequenceLen/2 + 1)},
	} {
		t.Run(tt.name, func(t *testing.T) {
			_, err := evalBinary(ir.OpMul, tt.a, tt.b)
			assert.ErrorIs(t, err, ErrSequenceTooLong)
		})
	}

	_, err := evalBinary(ir.OpDiv, s("ab"), n(1e-19))
	assert.ErrorIs(t, err, ErrSequenceTooLong)

	v, err := evalBinary(ir.OpMul, s("ab"), n(-1e19))
	require.NoError(t, err)
	assert.Equal(t, "", v.Str)
}

// The jump taken when the left operand decides and/or must produce what
// the full operator would.
func TestShortCircuitMatchesOperator(t *testing.T) {
	n, b := value.Number, value.Bool
	for _, left := range []value.Value{b(false), b(true), n(0), n(1), n(-3), value.Null, value.Str("")} {
		for _, right := range []value.Value{b(true), b(false), n(0.5), value.Null} {
			if left.Intensity() == 0 {
				v, err := evalBinary(ir.OpAnd, left, right)
				require.NoError(t, err)
				assert.Equal(t, decided(left, 0), v, "%s and %s", left.Repr(), right.Repr())
			}
			if left.Intensity() == 1 {
				v, err := evalBinary(ir.OpOr, left, right)
				require.NoError(t, err)
				assert.Equal(t, decided(left, 1), v, "%s or %s", left.Repr(), right.Repr())
			}
		}
	}
}
