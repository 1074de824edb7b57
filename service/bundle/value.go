package bundle

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindInt
	KindLong
	KindBool
	KindDouble
	KindDoubleArray
	KindBundle
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindLong:
		return "long"
	case KindBool:
		return "bool"
	case KindDouble:
		return "double"
	case KindDoubleArray:
		return "doubleArray"
	case KindBundle:
		return "bundle"
	case KindList:
		return "list"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is a single bundle slot. The zero Value is null.
type Value struct {
	kind    Kind
	str     string
	num     int64
	flag    bool
	double  float64
	doubles []float64
	nested  *Bundle
	list    []Value
}

func Null() Value { return Value{} }

func String(s string) Value { return Value{kind: KindString, str: s} }

// StringPtr maps a nil pointer to null.
func StringPtr(s *string) Value {
	if s == nil {
		return Null()
	}
	return String(*s)
}

func Int(i int32) Value { return Value{kind: KindInt, num: int64(i)} }

func Long(i int64) Value { return Value{kind: KindLong, num: i} }

func Bool(b bool) Value { return Value{kind: KindBool, flag: b} }

func Double(f float64) Value { return Value{kind: KindDouble, double: f} }

func DoubleArray(f []float64) Value {
	if f == nil {
		return Null()
	}
	return Value{kind: KindDoubleArray, doubles: f}
}

// Nested wraps b. A nil bundle becomes null.
func Nested(b *Bundle) Value {
	if b == nil {
		return Null()
	}
	return Value{kind: KindBundle, nested: b}
}

func List(items []Value) Value {
	if items == nil {
		return Null()
	}
	return Value{kind: KindList, list: items}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) AsString() (string, bool) { return v.str, v.kind == KindString }

func (v Value) AsInt() (int32, bool) { return int32(v.num), v.kind == KindInt }

// AsLong also accepts int values.
func (v Value) AsLong() (int64, bool) {
	return v.num, v.kind == KindLong || v.kind == KindInt
}

func (v Value) AsBool() (bool, bool) { return v.flag, v.kind == KindBool }

func (v Value) AsDouble() (float64, bool) { return v.double, v.kind == KindDouble }

func (v Value) AsDoubleArray() ([]float64, bool) { return v.doubles, v.kind == KindDoubleArray }

func (v Value) AsBundle() (*Bundle, bool) { return v.nested, v.kind == KindBundle }

func (v Value) AsList() ([]Value, bool) { return v.list, v.kind == KindList }

// Interface returns the plain Go form of v: nil, string, int32, int64, bool,
// float64, []float64, map[string]any or []any.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindInt:
		return int32(v.num)
	case KindLong:
		return v.num
	case KindBool:
		return v.flag
	case KindDouble:
		return v.double
	case KindDoubleArray:
		return append([]float64(nil), v.doubles...)
	case KindBundle:
		return v.nested.ToMap()
	case KindList:
		out := make([]any, len(v.list))
		for i, item := range v.list {
			out[i] = item.Interface()
		}
		return out
	default:
		return nil
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.writeJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) writeJSON(buf *bytes.Buffer) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindString:
		b, err := json.Marshal(v.str)
		if err != nil {
			return err
		}
		buf.Write(b)
	case KindInt, KindLong:
		buf.WriteString(strconv.FormatInt(v.num, 10))
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.flag))
	case KindDouble:
		return writeFloat(buf, v.double)
	case KindDoubleArray:
		buf.WriteByte('[')
		for i, f := range v.doubles {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeFloat(buf, f); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindBundle:
		return v.nested.writeJSON(buf)
	case KindList:
		buf.WriteByte('[')
		for i, item := range v.list {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	default:
		return fmt.Errorf("unsupported bundle value kind %s", v.kind)
	}
	return nil
}

func writeFloat(buf *bytes.Buffer, f float64) error {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return fmt.Errorf("unsupported double value %v", f)
	}
	b, err := json.Marshal(f)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}
