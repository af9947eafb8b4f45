package value

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nested(depth int, leaf Value) Value {
	v := leaf
	for i := 0; i < depth; i++ {
		v = ListOf(v)
	}
	return v
}

func TestHashDepthCap(t *testing.T) {
	// differences below the cap are not seen
	a := nested(MaxHashDepth+4, Number(1))
	b := nested(MaxHashDepth+4, Number(2))
	assert.Equal(t, Hash(a), Hash(b))
	assert.True(t, Equal(a, b))

	c := nested(3, Number(1))
	d := nested(3, Number(2))
	assert.NotEqual(t, Hash(c), Hash(d))
	assert.False(t, Equal(c, d))
}

func TestHashSelfReference(t *testing.T) {
	l := NewList(Number(1))
	l.Append(FromList(l))
	m := NewMap()
	m.SetString("self", FromMap(m))

	// every entry points back at the map: one visit per depth, not per path
	wide := NewMap()
	for _, k := range []string{"a", "b", "c", "d", "e", "f"} {
		wide.SetString(k, FromMap(wide))
	}
	wideList := NewList()
	for i := 0; i < 8; i++ {
		wideList.Append(FromList(wideList))
	}

	done := make(chan struct{})
	go func() {
		Hash(FromList(l))
		Hash(FromMap(m))
		Hash(FromMap(wide))
		Hash(FromList(wideList))
		keys := NewMap()
		keys.Set(FromMap(wide), Number(1))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hashing a self-referencing value took too long")
	}

	assert.Equal(t, Hash(FromMap(wide)), Hash(FromMap(wide)))
	assert.NotEqual(t, Hash(FromMap(wide)), Hash(FromMap(m)))
}

func TestStructuralEquality(t *testing.T) {
	assert.True(t, Equal(ListOf(Number(1), Str("a")), ListOf(Number(1), Str("a"))))
	assert.False(t, Equal(ListOf(Number(1), Str("a")), ListOf(Str("a"), Number(1))))

	m1 := MapFrom(Str("a"), Number(1), Str("b"), Number(2))
	m2 := MapFrom(Str("b"), Number(2), Str("a"), Number(1))
	assert.True(t, Equal(FromMap(m1), FromMap(m2)), "maps compare regardless of order")

	assert.False(t, Equal(Number(1), Bool(true)))
	assert.False(t, Equal(Number(0), Null))
	assert.True(t, Equal(Null, Null))

	f := NewNative("f", nil, nil)
	g := NewNative("f", nil, nil)
	assert.True(t, Equal(FromFunc(f), FromFunc(f)))
	assert.False(t, Equal(FromFunc(f), FromFunc(g)))
}

func TestObjectValue(t *testing.T) {
	o := NewObjectValue()
	o.Set(Str("b"), Number(1))
	o.Set(Str("a"), Number(2))
	o.Set(ListOf(Number(1)), Str("list"))
	o.Set(Str("b"), Number(3))

	require.Equal(t, 3, o.Len())
	entries := o.Entries()
	assert.Equal(t, "b", entries[0].Key.Str)
	assert.Equal(t, 3.0, entries[0].Value.Num)
	assert.Equal(t, "a", entries[1].Key.Str)

	// a structurally equal key addresses the same slot
	v, ok := o.Get(ListOf(Number(1)))
	require.True(t, ok)
	assert.Equal(t, "list", v.Str)

	assert.True(t, o.Delete(Str("b")))
	assert.False(t, o.Delete(Str("b")))
	v, ok = o.Get(Str("a"))
	require.True(t, ok)
	assert.Equal(t, 2.0, v.Num)
	assert.Equal(t, 2, o.Len())

	c := o.Clone()
	c.Set(Str("z"), Null)
	assert.Equal(t, 2, o.Len())
	assert.Equal(t, 3, c.Len())
}

func TestPrototypeLookup(t *testing.T) {
	base := MapFrom(Str("greet"), Str("base"), Str("name"), Str("b"))
	mid := base.Instantiate()
	mid.SetString("greet", Str("mid"))
	child := mid.Instantiate()

	v, origin, ok := child.Lookup(Str("greet"))
	require.True(t, ok)
	assert.Equal(t, "mid", v.Str)
	assert.Same(t, mid, origin)

	v, origin, ok = child.Lookup(Str("name"))
	require.True(t, ok)
	assert.Equal(t, "b", v.Str)
	assert.Same(t, base, origin)

	_, _, ok = child.Lookup(Str("missing"))
	assert.False(t, ok)

	isa, ok := child.GetString(IsaKey)
	require.True(t, ok)
	assert.Same(t, mid, isa.Map)

	assert.True(t, child.Inherits(base))
	assert.False(t, base.Inherits(child))

	// a cycle through __isa does not hang lookups
	base.SetString(IsaKey, FromMap(child))
	_, _, ok = child.Lookup(Str("missing"))
	assert.False(t, ok)
}

func TestFork(t *testing.T) {
	proto := NewMap()
	m := proto.Instantiate()
	m.SetString("k", Number(1))

	f := m.Fork()
	f.SetString("k", Number(2))
	v, _ := m.GetString("k")
	assert.Equal(t, 1.0, v.Num)
	assert.Same(t, proto, f.Isa())

	l := NewList(Number(1))
	lf := l.Fork()
	lf.Items[0] = Number(9)
	assert.Equal(t, 1.0, l.Items[0].Num)
}

func TestInstanceOf(t *testing.T) {
	in := NewIntrinsics()
	proto := NewMap()
	obj := FromMap(proto.Instantiate())

	assert.True(t, InstanceOf(in, obj, FromMap(proto)))
	assert.True(t, InstanceOf(in, obj, FromMap(in.Map)))
	assert.True(t, InstanceOf(in, Number(3), FromMap(in.Number)))
	assert.True(t, InstanceOf(in, Str(""), FromMap(in.String)))
	assert.False(t, InstanceOf(in, Str(""), FromMap(in.List)))
	assert.False(t, InstanceOf(in, FromMap(proto), FromMap(proto)))
	assert.True(t, InstanceOf(in, Null, Null))
}

func TestGetProperty(t *testing.T) {
	in := NewIntrinsics()
	in.List.SetString("len", Str("intrinsic"))

	list := ListOf(Number(10), Number(20), Number(30))
	v, _, err := GetProperty(in, list, Number(-1))
	require.NoError(t, err)
	assert.Equal(t, 30.0, v.Num)

	_, _, err = GetProperty(in, list, Number(3))
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))

	v, origin, err := GetProperty(in, list, Str("len"))
	require.NoError(t, err)
	assert.Equal(t, "intrinsic", v.Str)
	assert.Same(t, in.List, origin)

	v, _, err = GetProperty(in, Str("héllo"), Number(1))
	require.NoError(t, err)
	assert.Equal(t, "é", v.Str)

	_, _, err = GetProperty(in, FromMap(NewMap()), Str("nope"))
	assert.ErrorIs(t, err, ErrUnknownPath)
	assert.Contains(t, err.Error(), `"nope"`)

	_, _, err = GetProperty(in, Null, Str("x"))
	assert.ErrorIs(t, err, ErrUnknownPath)
}

func TestSetProperty(t *testing.T) {
	list := ListOf(Number(1), Number(2))
	require.NoError(t, SetProperty(list, Number(-1), Str("x")))
	assert.Equal(t, "x", list.List.Items[1].Str)

	assert.ErrorIs(t, SetProperty(list, Number(5), Null), ErrIndexOutOfRange)
	assert.ErrorIs(t, SetProperty(Str("s"), Number(0), Null), ErrInvalidAssignment)

	m := FromMap(NewMap())
	proto := NewMap()
	require.NoError(t, SetProperty(m, Str(IsaKey), FromMap(proto)))
	assert.Same(t, proto, m.Map.Isa())
	assert.Equal(t, 0, m.Map.Len())
}

func TestIntensityAndTruthiness(t *testing.T) {
	assert.Equal(t, 0.3, Number(0.3).Intensity())
	assert.Equal(t, 1.0, Number(-7).Intensity())
	assert.Equal(t, 0.0, Str("").Intensity())
	assert.Equal(t, 1.0, Str("x").Intensity())
	assert.Equal(t, 1.0, Bool(true).Intensity())
	assert.Equal(t, 0.0, Null.Intensity())

	assert.False(t, FromList(NewList()).Truthy())
	assert.True(t, ListOf(Null).Truthy())
	assert.False(t, FromMap(NewMap()).Truthy())
}

func TestRender(t *testing.T) {
	assert.Equal(t, "3", Number(3).String())
	assert.Equal(t, "0.12", Number(0.3*0.4).String())
	assert.Equal(t, "-2.5", Number(-2.5).String())
	assert.Equal(t, "hi", Str("hi").String())
	assert.Equal(t, `[1, "a", null, true]`, ListOf(Number(1), Str("a"), Null, Bool(true)).String())
	assert.Equal(t, `{"a": [2]}`, FromMap(MapFrom(Str("a"), ListOf(Number(2)))).String())

	fn := NewNative("f", []Param{{Name: "a"}, {Name: "b", Default: Number(1), HasDefault: true}}, nil)
	assert.Equal(t, "FUNCTION(a, b=1)", FromFunc(fn).String())

	l := NewList()
	l.Append(FromList(l))
	assert.Contains(t, FromList(l).String(), "[...]")
}

func TestFuture(t *testing.T) {
	f := NewFuture()
	v := Pending(f)
	a, ok := v.Awaitable()
	require.True(t, ok)

	select {
	case <-a.Done():
		t.Fatal("settled too early")
	default:
	}

	f.Resolve(Number(4))
	f.Reject(errors.New("ignored"))
	res, err := a.Result()
	require.NoError(t, err)
	assert.Equal(t, 4.0, res.Num)

	_, ok = Number(1).Awaitable()
	assert.False(t, ok)
}

func TestSliceBounds(t *testing.T) {
	tests := []struct {
		name     string
		low      Value
		high     Value
		from, to int
	}{
		{"whole", Null, Null, 0, 3},
		{"negative high", Number(0), Number(-1), 0, 2},
		{"high before start", Number(0), Number(-10), 0, 0},
		{"low past end", Number(5), Null, 3, 3},
		{"huge high", Number(0), Number(1e19), 0, 3},
		{"huge negative low", Number(-1e19), Null, 0, 3},
		{"crossed", Number(2), Number(1), 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to := SliceBounds(tt.low, tt.high, 3)
			assert.Equal(t, tt.from, from)
			assert.Equal(t, tt.to, to)
		})
	}
}

func TestToIntSaturates(t *testing.T) {
	assert.Equal(t, 3, Number(3.9).ToInt())
	assert.Equal(t, math.MaxInt, Number(1e19).ToInt())
	assert.Equal(t, math.MinInt, Number(-1e19).ToInt())
	assert.Equal(t, 0, Number(math.NaN()).ToInt())
}
