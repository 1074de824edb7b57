// Package payload models the free-form JSON-like body attached to
// notification content. Objects keep their key order.
package payload

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var ErrMalformedNumber = errors.New("malformed number")

type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindObject
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is one node of a payload tree. Numbers keep their literal text until
// a consumer asks for a numeric form. The zero Value is null.
type Value struct {
	kind Kind
	flag bool
	text string
	obj  *Object
	arr  []Value
}

func Null() Value { return Value{} }

func Bool(b bool) Value { return Value{kind: KindBool, flag: b} }

func String(s string) Value { return Value{kind: KindString, text: s} }

// Number wraps a numeric literal as written.
func Number(lit string) Value { return Value{kind: KindNumber, text: lit} }

func Int(i int64) Value { return Number(strconv.FormatInt(i, 10)) }

// Float always renders a fractional or exponent form so the value reads
// back as a float, never as an integer.
func Float(f float64) Value {
	lit := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(lit, ".eEnN") {
		lit += ".0"
	}
	return Number(lit)
}

func ObjectValue(o *Object) Value {
	if o == nil {
		return Null()
	}
	return Value{kind: KindObject, obj: o}
}

func Array(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindArray, arr: items}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) AsBool() (bool, bool) { return v.flag, v.kind == KindBool }

func (v Value) AsString() (string, bool) { return v.text, v.kind == KindString }

func (v Value) AsObject() (*Object, bool) { return v.obj, v.kind == KindObject }

func (v Value) AsArray() ([]Value, bool) { return v.arr, v.kind == KindArray }

// Literal returns the number text for number values.
func (v Value) Literal() (string, bool) { return v.text, v.kind == KindNumber }

// Int64 reports whether the number is an integer literal that fits 64 bits.
func (v Value) Int64() (int64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	i, err := strconv.ParseInt(v.text, 10, 64)
	return i, err == nil
}

// Float64 converts a number value. Literals that overflow or are not finite
// yield ErrMalformedNumber.
func (v Value) Float64() (float64, error) {
	if v.kind != KindNumber {
		return 0, fmt.Errorf("%s is not a number", v.kind)
	}
	f, err := strconv.ParseFloat(v.text, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("%w: %q", ErrMalformedNumber, v.text)
	}
	return f, nil
}

// Raw renders v for diagnostics.
func (v Value) Raw() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.flag)
	case KindNumber:
		return v.text
	case KindString:
		return strconv.Quote(v.text)
	default:
		b, err := v.MarshalJSON()
		if err != nil {
			return v.kind.String()
		}
		return string(b)
	}
}

// Interface returns the plain Go form of v. Numbers come back as int64 when
// they are integers and float64 otherwise.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.flag
	case KindNumber:
		if i, ok := v.Int64(); ok {
			return i
		}
		f, err := v.Float64()
		if err != nil {
			return v.text
		}
		return f
	case KindString:
		return v.text
	case KindObject:
		return v.obj.ToMap()
	case KindArray:
		out := make([]any, len(v.arr))
		for i, item := range v.arr {
			out[i] = item.Interface()
		}
		return out
	default:
		return nil
	}
}
