package math

import (
	stdmath "math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greyvm/internal/runtime/builtins"
	"greyvm/internal/value"
)

func apply(t *testing.T, name string, args ...value.Value) value.Value {
	t.Helper()
	b := builtins.LookupByName(name)
	require.NotNil(t, b)
	v, err := b.Apply(&value.NativeCall{Args: args})
	require.NoError(t, err)
	return v
}

func TestUnary(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"abs", -2.5, 2.5},
		{"floor", 1.7, 1},
		{"ceil", 1.2, 2},
		{"sqrt", 9, 3},
		{"sign", -4, -1},
		{"sign", 0, 0},
		{"log", 1000, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, apply(t, tt.name, value.Number(tt.in)).Num, 1e-12)
		})
	}
}

func TestRound(t *testing.T) {
	assert.Equal(t, 3.0, apply(t, "round", value.Number(2.5)).Num)
	assert.InDelta(t, 3.14, apply(t, "round", value.Number(stdmath.Pi), value.Number(2)).Num, 1e-12)
	assert.Equal(t, 1200.0, apply(t, "round", value.Number(1234), value.Number(-2)).Num)
}

func TestRnd(t *testing.T) {
	a := apply(t, "rnd", value.Number(42)).Num
	b := apply(t, "rnd", value.Number(42)).Num
	assert.Equal(t, a, b)
	assert.GreaterOrEqual(t, a, 0.0)
	assert.Less(t, a, 1.0)
}

func TestBitwise(t *testing.T) {
	assert.Equal(t, 6.0, apply(t, "bitwise", value.Str("^"), value.Number(5), value.Number(3)).Num)
	assert.Equal(t, -1.0, apply(t, "bitwise", value.Str("~"), value.Number(0)).Num)
	assert.Equal(t, 15.0, apply(t, "bitwise", value.Str(">>>"), value.Number(-1), value.Number(28)).Num)
	assert.True(t, apply(t, "bitwise", value.Str("?"), value.Number(1), value.Number(1)).IsNull())
}
