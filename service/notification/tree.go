package notification

import (
	"fmt"
	"math"
	"strconv"

	"notibridge/service/bundle"
	"notibridge/service/payload"
)

// FieldError records a free-form body field that could not be converted and
// was left out of the bundle. Key is a dotted path from the body root.
type FieldError struct {
	Key string `json:"key"`
	Raw string `json:"raw"`
	Err error  `json:"-"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("dropped value for key %s: %s: %v", e.Key, e.Raw, e.Err)
}

func (e FieldError) Unwrap() error { return e.Err }

// ObjectToBundle converts a free-form object. Null fields are omitted. A
// field whose value cannot be read is dropped and reported; the rest of the
// object is still converted.
func ObjectToBundle(obj *payload.Object) (*bundle.Bundle, []FieldError) {
	return objectToBundle(obj, "")
}

// ArrayToList converts a free-form array. Null elements are kept. Unlike
// objects there is no per-element recovery: the first unreadable element
// fails the whole array. Objects nested in the array still recover their own
// fields and report them in the returned slice.
func ArrayToList(items []payload.Value) ([]bundle.Value, []FieldError, error) {
	return arrayToList(items, "")
}

func objectToBundle(obj *payload.Object, prefix string) (*bundle.Bundle, []FieldError) {
	if obj == nil {
		return nil, nil
	}

	var dropped []FieldError
	entries := make([]bundle.Entry, 0, obj.Len())
	for _, f := range obj.Fields() {
		path := joinPath(prefix, f.Key)

		switch f.Value.Kind() {
		case payload.KindNull:
			continue
		case payload.KindObject:
			nested, _ := f.Value.AsObject()
			b, nestedDropped := objectToBundle(nested, path)
			dropped = append(dropped, nestedDropped...)
			entries = append(entries, bundle.Entry{Key: f.Key, Value: bundle.Nested(b)})
		case payload.KindArray:
			items, _ := f.Value.AsArray()
			list, nestedDropped, err := arrayToList(items, path)
			dropped = append(dropped, nestedDropped...)
			if err != nil {
				dropped = append(dropped, FieldError{Key: path, Raw: f.Value.Raw(), Err: err})
				continue
			}
			entries = append(entries, bundle.Entry{Key: f.Key, Value: bundle.List(list)})
		default:
			v, err := scalarValue(f.Value)
			if err != nil {
				dropped = append(dropped, FieldError{Key: path, Raw: f.Value.Raw(), Err: err})
				continue
			}
			entries = append(entries, bundle.Entry{Key: f.Key, Value: v})
		}
	}

	return bundle.FromEntries(entries), dropped
}

func arrayToList(items []payload.Value, prefix string) ([]bundle.Value, []FieldError, error) {
	var dropped []FieldError
	out := make([]bundle.Value, 0, len(items))
	for i, item := range items {
		path := prefix + "[" + strconv.Itoa(i) + "]"

		switch item.Kind() {
		case payload.KindNull:
			out = append(out, bundle.Null())
		case payload.KindObject:
			nested, _ := item.AsObject()
			b, nestedDropped := objectToBundle(nested, path)
			dropped = append(dropped, nestedDropped...)
			out = append(out, bundle.Nested(b))
		case payload.KindArray:
			inner, _ := item.AsArray()
			list, nestedDropped, err := arrayToList(inner, path)
			dropped = append(dropped, nestedDropped...)
			if err != nil {
				return nil, dropped, err
			}
			out = append(out, bundle.List(list))
		default:
			v, err := scalarValue(item)
			if err != nil {
				return nil, dropped, fmt.Errorf("index %d: %w", i, err)
			}
			out = append(out, v)
		}
	}
	return out, dropped, nil
}

func scalarValue(v payload.Value) (bundle.Value, error) {
	switch v.Kind() {
	case payload.KindBool:
		b, _ := v.AsBool()
		return bundle.Bool(b), nil
	case payload.KindString:
		s, _ := v.AsString()
		return bundle.String(s), nil
	case payload.KindNumber:
		if i, ok := v.Int64(); ok {
			if i >= math.MinInt32 && i <= math.MaxInt32 {
				return bundle.Int(int32(i)), nil
			}
			return bundle.Long(i), nil
		}
		f, err := v.Float64()
		if err != nil {
			return bundle.Value{}, err
		}
		return bundle.Double(f), nil
	default:
		return bundle.Value{}, fmt.Errorf("unexpected %s value", v.Kind())
	}
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// ObjectFromBundle rebuilds a free-form object from a body bundle. Double
// arrays become arrays of numbers.
func ObjectFromBundle(b *bundle.Bundle) *payload.Object {
	if b == nil {
		return nil
	}
	obj := payload.NewObject()
	for _, e := range b.Entries() {
		obj.Set(e.Key, payloadValue(e.Value))
	}
	return obj
}

func payloadValue(v bundle.Value) payload.Value {
	switch v.Kind() {
	case bundle.KindString:
		s, _ := v.AsString()
		return payload.String(s)
	case bundle.KindInt, bundle.KindLong:
		i, _ := v.AsLong()
		return payload.Int(i)
	case bundle.KindBool:
		b, _ := v.AsBool()
		return payload.Bool(b)
	case bundle.KindDouble:
		f, _ := v.AsDouble()
		return payload.Float(f)
	case bundle.KindDoubleArray:
		fs, _ := v.AsDoubleArray()
		items := make([]payload.Value, len(fs))
		for i, f := range fs {
			items[i] = payload.Float(f)
		}
		return payload.Array(items...)
	case bundle.KindBundle:
		nested, _ := v.AsBundle()
		return payload.ObjectValue(ObjectFromBundle(nested))
	case bundle.KindList:
		list, _ := v.AsList()
		items := make([]payload.Value, len(list))
		for i, item := range list {
			items[i] = payloadValue(item)
		}
		return payload.Array(items...)
	default:
		return payload.Null()
	}
}
