package value

import (
	"math"
	"strconv"
	"strings"

	"greyvm/internal/ir"
)

// Kind is the type of a value at runtime.
type Kind int

const (
	KindNil Kind = iota
	KindBool
	KindNumber
	KindString
	KindList
	KindMap
	KindFunction
	KindInterface
)

var kindNames = [...]string{
	KindNil:       "null",
	KindBool:      "boolean",
	KindNumber:    "number",
	KindString:    "string",
	KindList:      "list",
	KindMap:       "map",
	KindFunction:  "function",
	KindInterface: "interface",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "invalid"
}

// Value is a universal value for the VM/runtime. The zero Value is null.
// Booleans keep 0 or 1 in Num.
type Value struct {
	Kind  Kind
	Num   float64
	Str   string
	List  *List
	Map   *Map
	Func  *Function
	Iface *Interface
}

// Null is the null value.
var Null = Value{}

// Helpers

func Number(f float64) Value {
	return Value{Kind: KindNumber, Num: f}
}

func Str(s string) Value {
	return Value{Kind: KindString, Str: s}
}

func Bool(b bool) Value {
	if b {
		return Value{Kind: KindBool, Num: 1}
	}
	return Value{Kind: KindBool}
}

func ListOf(items ...Value) Value {
	return Value{Kind: KindList, List: NewList(items...)}
}

func FromList(l *List) Value {
	return Value{Kind: KindList, List: l}
}

func FromMap(m *Map) Value {
	return Value{Kind: KindMap, Map: m}
}

func FromFunc(f *Function) Value {
	return Value{Kind: KindFunction, Func: f}
}

func FromInterface(i *Interface) Value {
	return Value{Kind: KindInterface, Iface: i}
}

// FromConstant converts an instruction literal.
func FromConstant(c ir.Constant) Value {
	switch c.Kind {
	case ir.ConstNumber:
		return Number(c.Number)
	case ir.ConstString:
		return Str(c.String)
	case ir.ConstBool:
		return Bool(c.Bool)
	}
	return Null
}

func (v Value) IsNull() bool {
	return v.Kind == KindNil
}

// TypeName is the name reported by typeof.
func (v Value) TypeName() string {
	if v.Kind == KindInterface && v.Iface != nil && v.Iface.Type != "" {
		return v.Iface.Type
	}
	return v.Kind.String()
}

// Truthy reports the boolean interpretation of v.
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindNil:
		return false
	case KindBool, KindNumber:
		return v.Num != 0
	case KindString:
		return v.Str != ""
	case KindList:
		return v.List.Len() > 0
	case KindMap:
		return v.Map.Len() > 0
	}
	return true
}

// Intensity maps v onto [0,1] for the weighted and/or operators. Numbers
// contribute min(|x|, 1); everything else is 0 or 1 by truthiness.
func (v Value) Intensity() float64 {
	if v.Kind == KindNumber {
		return math.Min(math.Abs(v.Num), 1)
	}
	if v.Truthy() {
		return 1
	}
	return 0
}

// ToNumber coerces v to a number. Strings are parsed, anything else that
// is not numeric yields 0.
func (v Value) ToNumber() float64 {
	switch v.Kind {
	case KindBool, KindNumber:
		return v.Num
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}

// ToInt truncates v to an int, saturating at the int range. NaN is 0.
func (v Value) ToInt() int {
	f := v.ToNumber()
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt:
		return math.MaxInt
	case f <= math.MinInt:
		return math.MinInt
	}
	return int(f)
}

// String renders v the way print shows it: strings are bare at the top
// level and quoted when nested.
func (v Value) String() string {
	if v.Kind == KindString {
		return v.Str
	}
	var b strings.Builder
	render(&b, v, 0)
	return b.String()
}

// Repr renders v with strings quoted.
func (v Value) Repr() string {
	var b strings.Builder
	render(&b, v, 0)
	return b.String()
}

const maxRenderDepth = 16

func render(b *strings.Builder, v Value, depth int) {
	switch v.Kind {
	case KindNil:
		b.WriteString("null")
	case KindBool:
		if v.Num != 0 {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case KindNumber:
		b.WriteString(FormatNumber(v.Num))
	case KindString:
		b.WriteString(strconv.Quote(v.Str))
	case KindList:
		if depth >= maxRenderDepth {
			b.WriteString("[...]")
			return
		}
		b.WriteByte('[')
		for i, el := range v.List.Items {
			if i > 0 {
				b.WriteString(", ")
			}
			render(b, el, depth+1)
		}
		b.WriteByte(']')
	case KindMap:
		if depth >= maxRenderDepth {
			b.WriteString("{...}")
			return
		}
		b.WriteByte('{')
		for i, e := range v.Map.Entries() {
			if i > 0 {
				b.WriteString(", ")
			}
			render(b, e.Key, depth+1)
			b.WriteString(": ")
			render(b, e.Value, depth+1)
		}
		b.WriteByte('}')
	case KindFunction:
		b.WriteString("FUNCTION(")
		for i, p := range v.Func.Params {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(p.Name)
			if p.HasDefault {
				b.WriteByte('=')
				render(b, p.Default, depth+1)
			}
		}
		b.WriteByte(')')
	case KindInterface:
		b.WriteString(v.TypeName())
	default:
		b.WriteString("<invalid>")
	}
}

// FormatNumber prints integers without a fractional part and everything
// else rounded to six decimals.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "INF"
	case math.IsInf(f, -1):
		return "-INF"
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	if math.Abs(f) >= 1e15 || math.Abs(f) < 1e-6 {
		return strconv.FormatFloat(f, 'E', 6, 64)
	}
	r := math.Round(f*1e6) / 1e6
	return strconv.FormatFloat(r, 'f', -1, 64)
}
