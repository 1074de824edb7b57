package payload

// Object is an insertion-ordered set of fields. Setting an existing key
// replaces the value without moving it.
type Object struct {
	keys   []string
	fields map[string]Value
}

type Field struct {
	Key   string
	Value Value
}

func NewObject(fields ...Field) *Object {
	o := &Object{fields: make(map[string]Value, len(fields))}
	for _, f := range fields {
		o.Set(f.Key, f.Value)
	}
	return o
}

func (o *Object) Set(key string, v Value) {
	if o.fields == nil {
		o.fields = make(map[string]Value)
	}
	if _, ok := o.fields[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.fields[key] = v
}

func (o *Object) Get(key string) (Value, bool) {
	if o == nil {
		return Value{}, false
	}
	v, ok := o.fields[key]
	return v, ok
}

func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	return append([]string(nil), o.keys...)
}

func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

func (o *Object) Fields() []Field {
	if o == nil {
		return nil
	}
	out := make([]Field, len(o.keys))
	for i, k := range o.keys {
		out[i] = Field{Key: k, Value: o.fields[k]}
	}
	return out
}

func (o *Object) ToMap() map[string]any {
	if o == nil {
		return nil
	}
	m := make(map[string]any, len(o.keys))
	for _, k := range o.keys {
		m[k] = o.fields[k].Interface()
	}
	return m
}
