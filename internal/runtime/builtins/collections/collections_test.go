package collections

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greyvm/internal/runtime/builtins"
	"greyvm/internal/value"
)

func call(t *testing.T, name string, self value.Value, args ...value.Value) value.Value {
	t.Helper()
	b := builtins.LookupByName(name)
	require.NotNil(t, b, "%s is not registered", name)
	v, err := b.Apply(&value.NativeCall{Self: self, Args: args})
	require.NoError(t, err)
	return v
}

func nums(ns ...float64) value.Value {
	out := make([]value.Value, len(ns))
	for i, n := range ns {
		out[i] = value.Number(n)
	}
	return value.ListOf(out...)
}

func TestLen(t *testing.T) {
	assert.Equal(t, 3.0, call(t, "len", value.Str("héh")).Num)
	assert.Equal(t, 2.0, call(t, "len", nums(1, 2)).Num)
	assert.Equal(t, 1.0, call(t, "len", value.FromMap(value.MapFrom(value.Str("a"), value.Null))).Num)
	assert.True(t, call(t, "len", value.Number(3)).IsNull())
}

func TestPushPopPull(t *testing.T) {
	l := nums(1, 2)
	call(t, "push", l, value.Number(3))
	assert.Equal(t, "[1, 2, 3]", l.Repr())

	assert.Equal(t, 3.0, call(t, "pop", l).Num)
	assert.Equal(t, 1.0, call(t, "pull", l).Num)
	assert.Equal(t, "[2]", l.Repr())

	empty := nums()
	assert.True(t, call(t, "pop", empty).IsNull())

	m := value.FromMap(value.NewMap())
	call(t, "push", m, value.Str("k"))
	assert.Equal(t, `{"k": 1}`, m.Repr())
	assert.Equal(t, "k", call(t, "pop", m).Str)
	assert.Zero(t, m.Map.Len())
}

func TestInsertRemove(t *testing.T) {
	l := nums(1, 3)
	call(t, "insert", l, value.Number(1), value.Number(2))
	call(t, "insert", l, value.Number(-1), value.Number(4))
	assert.Equal(t, "[1, 2, 3, 4]", l.Repr())

	assert.Equal(t, "abXc", call(t, "insert", value.Str("abc"), value.Number(2), value.Str("X")).Str)

	b := builtins.LookupByName("insert")
	_, err := b.Apply(&value.NativeCall{Self: l, Args: []value.Value{value.Number(9), value.Null}})
	assert.ErrorIs(t, err, value.ErrIndexOutOfRange)

	call(t, "remove", l, value.Number(0))
	assert.Equal(t, "[2, 3, 4]", l.Repr())

	m := value.FromMap(value.MapFrom(value.Str("a"), value.Number(1)))
	assert.Equal(t, value.Bool(true), call(t, "remove", m, value.Str("a")))
	assert.Equal(t, value.Bool(false), call(t, "remove", m, value.Str("a")))

	assert.Equal(t, "hel", call(t, "remove", value.Str("hello"), value.Str("lo")).Str)
}

func TestHasIndexIndexesValues(t *testing.T) {
	l := nums(5, 6)
	assert.Equal(t, value.Bool(true), call(t, "hasIndex", l, value.Number(-2)))
	assert.Equal(t, value.Bool(false), call(t, "hasIndex", l, value.Number(2)))
	assert.Equal(t, value.Bool(false), call(t, "hasIndex", l, value.Str("0")))

	m := value.FromMap(value.MapFrom(value.Str("a"), value.Number(1), value.Str("b"), value.Number(2)))
	assert.Equal(t, `["a", "b"]`, call(t, "indexes", m).Repr())
	assert.Equal(t, "[1, 2]", call(t, "values", m).Repr())
	assert.Equal(t, "[0, 1]", call(t, "indexes", l).Repr())
	assert.Equal(t, `["h", "i"]`, call(t, "values", value.Str("hi")).Repr())
}

func TestJoinSumReverse(t *testing.T) {
	l := value.ListOf(value.Number(1), value.Str("a"), value.Null)
	assert.Equal(t, "1, a, ", call(t, "join", l, value.Str(", ")).Str)
	assert.Equal(t, 6.0, call(t, "sum", nums(1, 2, 3)).Num)

	r := nums(1, 2, 3)
	call(t, "reverse", r)
	assert.Equal(t, "[3, 2, 1]", r.Repr())
}

func TestRange(t *testing.T) {
	assert.Equal(t, "[1, 2, 3]", call(t, "range", value.Null, value.Number(1), value.Number(3)).Repr())
	assert.Equal(t, "[3, 2, 1, 0]", call(t, "range", value.Null, value.Number(3)).Repr())
	assert.Equal(t, "[0, 0.5, 1]", call(t, "range", value.Null, value.Number(0), value.Number(1), value.Number(0.5)).Repr())
	assert.Equal(t, "[]", call(t, "range", value.Null, value.Number(0), value.Number(3), value.Number(-1)).Repr())

	b := builtins.LookupByName("range")
	_, err := b.Apply(&value.NativeCall{Args: []value.Value{value.Number(0), value.Number(1), value.Number(0)}})
	assert.Error(t, err)
}

func TestSlice(t *testing.T) {
	assert.Equal(t, "[2, 3]", call(t, "slice", value.Null, nums(1, 2, 3), value.Number(1)).Repr())
	assert.Equal(t, "el", call(t, "slice", value.Null, value.Str("hello"), value.Number(1), value.Number(3)).Str)
}

func TestSort(t *testing.T) {
	l := value.ListOf(value.Str("file10"), value.Number(3), value.Str("file2"), value.Number(1))
	call(t, "sort", l)
	assert.Equal(t, `[1, 3, "file2", "file10"]`, l.Repr())

	call(t, "sort", l, value.Null, value.Bool(false))
	assert.Equal(t, `["file10", "file2", 3, 1]`, l.Repr())

	rec := func(n float64) value.Value {
		return value.FromMap(value.MapFrom(value.Str("n"), value.Number(n)))
	}
	recs := value.ListOf(rec(2), rec(1))
	call(t, "sort", recs, value.Str("n"))
	assert.Equal(t, `[{"n": 1}, {"n": 2}]`, recs.Repr())
}
