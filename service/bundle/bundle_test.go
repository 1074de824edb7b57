package bundle

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutKeepsInsertionOrder(t *testing.T) {
	b := New()
	b.PutString("z", "last")
	b.PutInt("a", 1)
	b.PutBool("m", true)
	b.PutString("z", "replaced")

	assert.Equal(t, []string{"z", "a", "m"}, b.Keys())
	s, ok := b.GetString("z")
	require.True(t, ok)
	assert.Equal(t, "replaced", s)
}

func TestMarshalJSONOrdered(t *testing.T) {
	inner := New()
	inner.PutLong("value", 1700000000000)

	b := New()
	b.PutString("type", "date")
	b.Put("missing", Null())
	b.PutBundle("inner", inner)
	b.PutDoubleArray("pattern", []float64{0, 250.5})
	b.Put("list", List([]Value{Int(1), Null(), String("x")}))

	out, err := json.Marshal(b)
	require.NoError(t, err)
	assert.Equal(t,
		`{"type":"date","missing":null,"inner":{"value":1700000000000},"pattern":[0,250.5],"list":[1,null,"x"]}`,
		string(out))
}

func TestMarshalJSONRejectsNaN(t *testing.T) {
	b := New()
	b.Put("bad", Double(math.NaN()))

	_, err := json.Marshal(b)
	assert.Error(t, err)
}

func TestNilConstructorsBecomeNull(t *testing.T) {
	assert.True(t, Nested(nil).IsNull())
	assert.True(t, List(nil).IsNull())
	assert.True(t, DoubleArray(nil).IsNull())
	assert.True(t, StringPtr(nil).IsNull())
}

func TestFromMap(t *testing.T) {
	b, err := FromMap(map[string]any{
		"b":     int64(5),
		"a":     "x",
		"small": 7,
		"big":   1 << 40,
		"nest":  map[string]any{"k": true},
		"arr":   []any{1.5, nil},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "arr", "b", "big", "nest", "small"}, b.Keys())

	v, _ := b.Get("small")
	assert.Equal(t, KindInt, v.Kind())
	v, _ = b.Get("big")
	assert.Equal(t, KindLong, v.Kind())
	v, _ = b.Get("b")
	assert.Equal(t, KindLong, v.Kind())

	nest, ok := b.GetBundle("nest")
	require.True(t, ok)
	flag, ok := nest.GetBool("k")
	require.True(t, ok)
	assert.True(t, flag)
}

func TestFromMapRejectsUnsupported(t *testing.T) {
	_, err := FromMap(map[string]any{"ch": make(chan int)})
	assert.ErrorContains(t, err, `key "ch"`)
}

func TestToMapRoundTrip(t *testing.T) {
	b := New()
	b.PutInt("i", 3)
	b.PutLong("l", 4)
	b.Put("list", List([]Value{String("a")}))

	assert.Equal(t, map[string]any{
		"i":    int32(3),
		"l":    int64(4),
		"list": []any{"a"},
	}, b.ToMap())
}

func TestNilBundleAccessors(t *testing.T) {
	var b *Bundle
	assert.Equal(t, 0, b.Len())
	assert.Nil(t, b.Keys())
	assert.False(t, b.Has("x"))

	out, err := json.Marshal(struct {
		B *Bundle `json:"b"`
	}{})
	require.NoError(t, err)
	assert.Equal(t, `{"b":null}`, string(out))
}
