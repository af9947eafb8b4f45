// Package json registers parse_json and to_json.
package json

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"greyvm/internal/runtime/builtins"
	"greyvm/internal/value"
)

// MaxDepth bounds nesting on both directions; self-referencing values hit
// it instead of recursing forever.
const MaxDepth = 64

var errTooDeep = errors.New("nesting exceeds maximum depth")

func init() {
	registerParse()
	registerStringify()
}

func registerParse() {
	builtins.Register(builtins.Builtin{
		Meta: builtins.Meta{
			Name:       "parse_json",
			ParamNames: []string{"text"},
		},
		Call: func(call *value.NativeCall) (value.Value, error) {
			text := call.Arg(0)
			if text.Kind != value.KindString {
				return value.Null, fmt.Errorf("parse_json expects a string, got %s", text.TypeName())
			}
			return parseJSON(text.Str)
		},
	})
}

func registerStringify() {
	builtins.Register(builtins.Builtin{
		Meta: builtins.Meta{
			Name:       "to_json",
			ParamNames: []string{"value"},
		},
		Call: func(call *value.NativeCall) (value.Value, error) {
			out, err := stringifyJSON(call.Arg(0))
			if err != nil {
				return value.Null, err
			}
			return value.Str(out), nil
		},
	})
}

func parseJSON(text string) (value.Value, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var data any
	if err := dec.Decode(&data); err != nil {
		return value.Null, fmt.Errorf("parse_json: %w", err)
	}
	// Ensure there is no trailing data.
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return value.Null, errors.New("parse_json: extra data after JSON value")
		}
		return value.Null, fmt.Errorf("parse_json: %w", err)
	}
	return jsonToValue(data, 0)
}

func jsonToValue(v any, depth int) (value.Value, error) {
	if depth > MaxDepth {
		return value.Null, fmt.Errorf("parse_json: %w", errTooDeep)
	}
	switch val := v.(type) {
	case nil:
		return value.Null, nil
	case bool:
		return value.Bool(val), nil
	case string:
		return value.Str(val), nil
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return value.Null, fmt.Errorf("parse_json: invalid number %q", val.String())
		}
		return value.Number(f), nil
	case float64:
		return value.Number(val), nil
	case []any:
		items := make([]value.Value, len(val))
		for i, item := range val {
			converted, err := jsonToValue(item, depth+1)
			if err != nil {
				return value.Null, err
			}
			items[i] = converted
		}
		return value.ListOf(items...), nil
	case map[string]any:
		// Object member order is not preserved by the decoder; sort keys so
		// that results are deterministic.
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := value.NewMap()
		for _, k := range keys {
			converted, err := jsonToValue(val[k], depth+1)
			if err != nil {
				return value.Null, err
			}
			m.SetString(k, converted)
		}
		return value.FromMap(m), nil
	}
	return value.Null, fmt.Errorf("parse_json: unsupported JSON value %T", v)
}

func stringifyJSON(val value.Value) (string, error) {
	var b strings.Builder
	if err := writeJSONValue(&b, val, 0); err != nil {
		return "", err
	}
	return b.String(), nil
}

func writeJSONValue(b *strings.Builder, val value.Value, depth int) error {
	if depth > MaxDepth {
		return fmt.Errorf("to_json: %w", errTooDeep)
	}
	switch val.Kind {
	case value.KindNil:
		b.WriteString("null")
	case value.KindBool:
		b.WriteString(strconv.FormatBool(val.Num != 0))
	case value.KindNumber:
		if math.IsNaN(val.Num) || math.IsInf(val.Num, 0) {
			return errors.New("to_json: cannot encode non-finite number")
		}
		b.WriteString(strconv.FormatFloat(val.Num, 'g', -1, 64))
	case value.KindString:
		return writeJSONString(b, val.Str)
	case value.KindList:
		b.WriteByte('[')
		for i, item := range val.List.Items {
			if i > 0 {
				b.WriteByte(',')
			}
			if err := writeJSONValue(b, item, depth+1); err != nil {
				return err
			}
		}
		b.WriteByte(']')
	case value.KindMap:
		b.WriteByte('{')
		for i, e := range val.Map.Entries() {
			if i > 0 {
				b.WriteByte(',')
			}
			if err := writeJSONString(b, e.Key.String()); err != nil {
				return err
			}
			b.WriteByte(':')
			if err := writeJSONValue(b, e.Value, depth+1); err != nil {
				return err
			}
		}
		b.WriteByte('}')
	default:
		return fmt.Errorf("to_json: unsupported value type %s", val.TypeName())
	}
	return nil
}

func writeJSONString(b *strings.Builder, s string) error {
	encoded, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("to_json: invalid string: %w", err)
	}
	b.Write(encoded)
	return nil
}
