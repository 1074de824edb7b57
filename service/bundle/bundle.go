// Package bundle implements the ordered key-value container handed across the
// bridge to the application layer.
package bundle

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Bundle is an insertion-ordered map from string keys to Values. Putting an
// existing key replaces its value in place.
type Bundle struct {
	keys   []string
	values map[string]Value
}

type Entry struct {
	Key   string
	Value Value
}

func New() *Bundle {
	return &Bundle{values: make(map[string]Value)}
}

// FromEntries builds a bundle from entries in order. Later duplicates win.
func FromEntries(entries []Entry) *Bundle {
	b := &Bundle{values: make(map[string]Value, len(entries))}
	for _, e := range entries {
		b.Put(e.Key, e.Value)
	}
	return b
}

// FromMap converts a plain Go map with sorted keys. Nested maps and slices
// are converted recursively.
func FromMap(m map[string]any) (*Bundle, error) {
	if m == nil {
		return nil, nil
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	b := &Bundle{values: make(map[string]Value, len(m))}
	for _, k := range keys {
		v, err := ValueOf(m[k])
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		b.Put(k, v)
	}
	return b, nil
}

// ValueOf converts a plain Go value into a bundle Value.
func ValueOf(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case int32:
		return Int(t), nil
	case int:
		return fitInt(int64(t)), nil
	case int64:
		return Long(t), nil
	case float32:
		return Double(float64(t)), nil
	case float64:
		return Double(t), nil
	case []float64:
		return DoubleArray(t), nil
	case *Bundle:
		return Nested(t), nil
	case map[string]any:
		nested, err := FromMap(t)
		if err != nil {
			return Value{}, err
		}
		return Nested(nested), nil
	case []any:
		items := make([]Value, len(t))
		for i, item := range t {
			v, err := ValueOf(item)
			if err != nil {
				return Value{}, fmt.Errorf("index %d: %w", i, err)
			}
			items[i] = v
		}
		return List(items), nil
	case []string:
		items := make([]Value, len(t))
		for i, s := range t {
			items[i] = String(s)
		}
		return List(items), nil
	default:
		return Value{}, fmt.Errorf("unsupported bundle value type %T", x)
	}
}

func fitInt(i int64) Value {
	if i >= -1<<31 && i <= 1<<31-1 {
		return Int(int32(i))
	}
	return Long(i)
}

func (b *Bundle) Put(key string, v Value) {
	if b.values == nil {
		b.values = make(map[string]Value)
	}
	if _, ok := b.values[key]; !ok {
		b.keys = append(b.keys, key)
	}
	b.values[key] = v
}

func (b *Bundle) PutString(key, s string) { b.Put(key, String(s)) }

func (b *Bundle) PutInt(key string, i int32) { b.Put(key, Int(i)) }

func (b *Bundle) PutLong(key string, i int64) { b.Put(key, Long(i)) }

func (b *Bundle) PutBool(key string, v bool) { b.Put(key, Bool(v)) }

func (b *Bundle) PutBundle(key string, n *Bundle) { b.Put(key, Nested(n)) }

func (b *Bundle) PutDoubleArray(key string, f []float64) { b.Put(key, DoubleArray(f)) }

func (b *Bundle) Get(key string) (Value, bool) {
	if b == nil {
		return Value{}, false
	}
	v, ok := b.values[key]
	return v, ok
}

func (b *Bundle) Has(key string) bool {
	_, ok := b.Get(key)
	return ok
}

func (b *Bundle) GetString(key string) (string, bool) {
	v, _ := b.Get(key)
	return v.AsString()
}

func (b *Bundle) GetLong(key string) (int64, bool) {
	v, _ := b.Get(key)
	return v.AsLong()
}

func (b *Bundle) GetBool(key string) (bool, bool) {
	v, _ := b.Get(key)
	return v.AsBool()
}

func (b *Bundle) GetBundle(key string) (*Bundle, bool) {
	v, _ := b.Get(key)
	return v.AsBundle()
}

// Keys returns the keys in insertion order.
func (b *Bundle) Keys() []string {
	if b == nil {
		return nil
	}
	return append([]string(nil), b.keys...)
}

func (b *Bundle) Len() int {
	if b == nil {
		return 0
	}
	return len(b.keys)
}

func (b *Bundle) Entries() []Entry {
	if b == nil {
		return nil
	}
	out := make([]Entry, len(b.keys))
	for i, k := range b.keys {
		out[i] = Entry{Key: k, Value: b.values[k]}
	}
	return out
}

func (b *Bundle) ToMap() map[string]any {
	if b == nil {
		return nil
	}
	m := make(map[string]any, len(b.keys))
	for _, k := range b.keys {
		m[k] = b.values[k].Interface()
	}
	return m
}

// MarshalJSON writes keys in insertion order.
func (b *Bundle) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := b.writeJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (b *Bundle) writeJSON(buf *bytes.Buffer) error {
	if b == nil {
		buf.WriteString("null")
		return nil
	}
	buf.WriteByte('{')
	for i, k := range b.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if err := b.values[k].writeJSON(buf); err != nil {
			return fmt.Errorf("key %q: %w", k, err)
		}
	}
	buf.WriteByte('}')
	return nil
}
