package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greyvm/internal/runtime/builtins"
	"greyvm/internal/value"
)

func call(t *testing.T, name string, self value.Value, args ...value.Value) (value.Value, error) {
	t.Helper()
	b := builtins.LookupByName(name)
	require.NotNil(t, b, "%s is not registered", name)
	return b.Apply(&value.NativeCall{Self: self, Args: args})
}

func TestToInt(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    float64
		wantErr string
	}{
		{name: "valid_positive", input: "123", want: 123},
		{name: "valid_negative", input: "-42", want: -42},
		{name: "surrounding_space", input: " 7 ", want: 7},
		{name: "invalid_alpha", input: "hello", wantErr: `to_int: invalid integer "hello"`},
		{name: "invalid_empty", input: "", wantErr: `to_int: invalid integer ""`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			val, err := call(t, "to_int", value.Str(tc.input))
			if tc.wantErr != "" {
				assert.EqualError(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, value.Number(tc.want), val)
		})
	}
}

func TestCase(t *testing.T) {
	v, err := call(t, "upper", value.Str("héllo"))
	require.NoError(t, err)
	assert.Equal(t, "HÉLLO", v.Str)

	v, err = call(t, "lower", value.Str("ABC"))
	require.NoError(t, err)
	assert.Equal(t, "abc", v.Str)

	_, err = call(t, "upper", value.Number(1))
	assert.EqualError(t, err, "string.upper called on non-string type number")
}

func TestTrim(t *testing.T) {
	v, _ := call(t, "trim", value.Str("  x  "))
	assert.Equal(t, "x", v.Str)
	v, _ = call(t, "lstrip", value.Str("--x--"), value.Str("-"))
	assert.Equal(t, "x--", v.Str)
	v, _ = call(t, "rstrip", value.Str("--x--"), value.Str("-"))
	assert.Equal(t, "--x", v.Str)
}

func TestSplit(t *testing.T) {
	v, err := call(t, "split", value.Str("a b c"))
	require.NoError(t, err)
	assert.Equal(t, `["a", "b", "c"]`, v.Repr())

	v, err = call(t, "split", value.Str("a,b,c"), value.Str(","), value.Number(2))
	require.NoError(t, err)
	assert.Equal(t, `["a", "b,c"]`, v.Repr())
}

func TestReplace(t *testing.T) {
	v, err := call(t, "replace", value.Str("a-b-c"), value.Str("-"), value.Str("+"))
	require.NoError(t, err)
	assert.Equal(t, "a+b+c", v.Str)

	l := value.ListOf(value.Number(1), value.Number(2), value.Number(1))
	v, err = call(t, "replace", l, value.Number(1), value.Number(9), value.Number(1))
	require.NoError(t, err)
	assert.Equal(t, "[9, 2, 1]", v.Repr())
	assert.Same(t, l.List, v.List, "lists are replaced in place")
}

func TestIndexOf(t *testing.T) {
	tests := []struct {
		name string
		self value.Value
		args []value.Value
		want string
	}{
		{"string", value.Str("héllo"), []value.Value{value.Str("l")}, "2"},
		{"string after", value.Str("héllo"), []value.Value{value.Str("l"), value.Number(2)}, "3"},
		{"string missing", value.Str("abc"), []value.Value{value.Str("z")}, "null"},
		{"list", value.ListOf(value.Str("a"), value.Str("b")), []value.Value{value.Str("b")}, "1"},
		{"map", value.FromMap(value.MapFrom(value.Str("k"), value.Number(1))), []value.Value{value.Number(1)}, `"k"`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v, err := call(t, "indexOf", tc.self, tc.args...)
			require.NoError(t, err)
			assert.Equal(t, tc.want, v.Repr())
		})
	}

	v, _ := call(t, "lastIndexOf", value.Str("abcabc"), value.Str("b"))
	assert.Equal(t, 4.0, v.Num)
}

func TestCharCode(t *testing.T) {
	v, err := call(t, "char", value.Null, value.Number(233))
	require.NoError(t, err)
	assert.Equal(t, "é", v.Str)

	v, err = call(t, "code", value.Str("é"))
	require.NoError(t, err)
	assert.Equal(t, 233.0, v.Num)
}
