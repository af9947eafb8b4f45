package json_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greyvm/internal/runtime/builtins"
	_ "greyvm/internal/runtime/builtins/json"
	"greyvm/internal/value"
)

func callBuiltin(t *testing.T, name string, args ...value.Value) (value.Value, error) {
	t.Helper()
	b := builtins.LookupByName(name)
	require.NotNil(t, b, "builtin %q not found", name)
	return b.Apply(&value.NativeCall{Args: args})
}

func TestJSONParseObject(t *testing.T) {
	src := `{"name":"Alex","age":30,"tags":["dev","go"],"active":true,"meta":null}`
	val, err := callBuiltin(t, "parse_json", value.Str(src))
	require.NoError(t, err)
	require.Equal(t, value.KindMap, val.Kind)

	name, _ := val.Map.GetString("name")
	assert.Equal(t, "Alex", name.Str)
	age, _ := val.Map.GetString("age")
	assert.Equal(t, value.Number(30), age)
	tags, _ := val.Map.GetString("tags")
	assert.Equal(t, `["dev", "go"]`, tags.Repr())
	meta, ok := val.Map.GetString("meta")
	assert.True(t, ok)
	assert.True(t, meta.IsNull())

	assert.Equal(t, `["active", "age", "meta", "name", "tags"]`, value.ListOf(val.Map.Keys()...).Repr())
}

func TestJSONParseInvalid(t *testing.T) {
	for _, src := range []string{`{"a":`, `1 2`, `[1,]`} {
		_, err := callBuiltin(t, "parse_json", value.Str(src))
		assert.Error(t, err, src)
	}
	_, err := callBuiltin(t, "parse_json", value.Number(1))
	assert.EqualError(t, err, "parse_json expects a string, got number")
}

func TestJSONStringify(t *testing.T) {
	m := value.MapFrom(
		value.Str("z"), value.Number(1.5),
		value.Str("a"), value.ListOf(value.Bool(true), value.Null, value.Str("q\"")),
	)
	out, err := callBuiltin(t, "to_json", value.FromMap(m))
	require.NoError(t, err)
	assert.Equal(t, `{"z":1.5,"a":[true,null,"q\""]}`, out.Str)
}

func TestJSONStringifyCycle(t *testing.T) {
	l := value.NewList()
	l.Append(value.FromList(l))
	_, err := callBuiltin(t, "to_json", value.FromList(l))
	assert.ErrorContains(t, err, "maximum depth")
}

func TestJSONRoundTripNested(t *testing.T) {
	src := `{"a":{"b":[1,2,{"c":"d"}]}}`
	v, err := callBuiltin(t, "parse_json", value.Str(src))
	require.NoError(t, err)
	out, err := callBuiltin(t, "to_json", v)
	require.NoError(t, err)
	assert.Equal(t, src, out.Str)
}
