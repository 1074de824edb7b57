package payload

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	yaml "go.yaml.in/yaml/v3"
)

func TestParseJSONKeepsKeyOrder(t *testing.T) {
	obj, err := ParseJSONObject([]byte(`{"z":1,"a":{"y":true,"b":null},"m":[1,null,"x"]}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"z", "a", "m"}, obj.Keys())

	a, _ := obj.Get("a")
	inner, ok := a.AsObject()
	require.True(t, ok)
	assert.Equal(t, []string{"y", "b"}, inner.Keys())
	b, _ := inner.Get("b")
	assert.True(t, b.IsNull())

	m, _ := obj.Get("m")
	items, ok := m.AsArray()
	require.True(t, ok)
	require.Len(t, items, 3)
	assert.Equal(t, KindNumber, items[0].Kind())
	assert.True(t, items[1].IsNull())
	s, _ := items[2].AsString()
	assert.Equal(t, "x", s)
}

func TestParseJSONDuplicateKeyKeepsFirstPosition(t *testing.T) {
	obj, err := ParseJSONObject([]byte(`{"a":1,"b":2,"a":3}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, obj.Keys())
	a, _ := obj.Get("a")
	i, ok := a.Int64()
	require.True(t, ok)
	assert.Equal(t, int64(3), i)
}

func TestParseJSONErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "truncated", raw: `{"a":`},
		{name: "trailing", raw: `{} {}`},
		{name: "not json", raw: `nope`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseJSON([]byte(tt.raw))
			assert.Error(t, err)
		})
	}
}

func TestParseJSONObjectRejectsArray(t *testing.T) {
	_, err := ParseJSONObject([]byte(`[1]`))
	assert.ErrorContains(t, err, "expected object")

	obj, err := ParseJSONObject([]byte(`null`))
	require.NoError(t, err)
	assert.Nil(t, obj)
}

func TestNumberConversions(t *testing.T) {
	i, ok := Number("42").Int64()
	assert.True(t, ok)
	assert.Equal(t, int64(42), i)

	_, ok = Number("4.5").Int64()
	assert.False(t, ok)

	f, err := Number("4.5").Float64()
	require.NoError(t, err)
	assert.Equal(t, 4.5, f)

	_, err = Number("1e400").Float64()
	assert.True(t, errors.Is(err, ErrMalformedNumber))
}

func TestObjectMarshalJSONRoundTrip(t *testing.T) {
	raw := `{"z":1,"a":[true,null,{"k":"v"}],"n":1.25}`
	obj, err := ParseJSONObject([]byte(raw))
	require.NoError(t, err)

	out, err := json.Marshal(obj)
	require.NoError(t, err)
	assert.Equal(t, raw, string(out))
}

func TestObjectUnmarshalJSONInStruct(t *testing.T) {
	var holder struct {
		Body *Object `json:"body"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"body":{"b":1,"a":2}}`), &holder))
	require.NotNil(t, holder.Body)
	assert.Equal(t, []string{"b", "a"}, holder.Body.Keys())
}

func TestParseYAML(t *testing.T) {
	doc := `
zeta: 1
alpha:
  flag: true
  ratio: 0.5
  missing: ~
list:
  - 1
  - null
  - x
hex: 0x1F
inf: .inf
`
	obj, err := ParseYAMLObject([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, []string{"zeta", "alpha", "list", "hex", "inf"}, obj.Keys())

	alpha, _ := obj.Get("alpha")
	inner, ok := alpha.AsObject()
	require.True(t, ok)
	flag, _ := inner.Get("flag")
	b, ok := flag.AsBool()
	require.True(t, ok)
	assert.True(t, b)
	missing, _ := inner.Get("missing")
	assert.True(t, missing.IsNull())

	hex, _ := obj.Get("hex")
	i, ok := hex.Int64()
	require.True(t, ok)
	assert.Equal(t, int64(31), i)

	inf, _ := obj.Get("inf")
	_, err = inf.Float64()
	assert.ErrorIs(t, err, ErrMalformedNumber)
}

func TestParseYAMLAlias(t *testing.T) {
	doc := `
base: &b
  k: v
copy: *b
`
	obj, err := ParseYAMLObject([]byte(doc))
	require.NoError(t, err)

	cp, _ := obj.Get("copy")
	inner, ok := cp.AsObject()
	require.True(t, ok)
	k, _ := inner.Get("k")
	s, _ := k.AsString()
	assert.Equal(t, "v", s)
}

func TestParseYAMLRejectsSelfReferencingAnchor(t *testing.T) {
	_, err := ParseYAML([]byte("body: &a {x: *a}\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `anchor "a" contains itself`)

	var wrapper struct {
		Body Object `yaml:"body"`
	}
	err = yaml.Unmarshal([]byte("body: &a [1, *a]\n"), &wrapper)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "contains itself")
}

func TestParseYAMLRejectsAliasExplosion(t *testing.T) {
	var doc strings.Builder
	doc.WriteString("l0: &l0 [")
	doc.WriteString(strings.Repeat(`"x",`, 8) + `"x"]` + "\n")
	for i := 1; i <= 7; i++ {
		refs := strings.TrimSuffix(strings.Repeat(fmt.Sprintf("*l%d,", i-1), 9), ",")
		fmt.Fprintf(&doc, "l%d: &l%d [%s]\n", i, i, refs)
	}

	_, err := ParseYAMLObject([]byte(doc.String()))
	assert.ErrorIs(t, err, ErrExcessiveAliasing)
}

func TestParseYAMLRepeatedAliasWithinBudget(t *testing.T) {
	doc := `
a: &a [x, x, x]
b: &b [*a, *a, *a]
c: [*b, *b, *b]
`
	obj, err := ParseYAMLObject([]byte(doc))
	require.NoError(t, err)

	c, _ := obj.Get("c")
	items, ok := c.AsArray()
	require.True(t, ok)
	assert.Len(t, items, 3)
}

func TestValueInterface(t *testing.T) {
	v := ObjectValue(NewObject(
		Field{Key: "i", Value: Int(3)},
		Field{Key: "f", Value: Float(1.5)},
		Field{Key: "arr", Value: Array(String("a"), Null())},
	))

	assert.Equal(t, map[string]any{
		"i":   int64(3),
		"f":   1.5,
		"arr": []any{"a", nil},
	}, v.Interface())
}
