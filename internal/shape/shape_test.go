package shape

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/httpinspect/internal/schema"
	"github.com/usestring/httpinspect/pkg/jsontree"
)

func mustParse(t *testing.T, s string) []*jsontree.Node {
	t.Helper()
	roots, err := jsontree.Parse([]byte(s))
	require.NoError(t, err)
	return roots
}

func propType(t *testing.T, o *Outline, key string) string {
	t.Helper()
	p, ok := o.Schema.Properties.Get(key)
	require.True(t, ok, "missing property %q", key)
	return p.Type
}

func TestInfer_LeafTypes(t *testing.T) {
	o := Infer(mustParse(t, `{"b":true,"i":3,"f":1.5,"e":1e3,"s":"x","n":null}`))

	assert.Equal(t, Draft, o.Schema.Version)
	assert.Equal(t, "object", o.Schema.Type)
	assert.Equal(t, "boolean", propType(t, o, "b"))
	assert.Equal(t, "integer", propType(t, o, "i"))
	assert.Equal(t, "number", propType(t, o, "f"))
	assert.Equal(t, "number", propType(t, o, "e"))
	assert.Equal(t, "string", propType(t, o, "s"))
	assert.Equal(t, "null", propType(t, o, "n"))

	// null-valued keys are optional
	assert.Equal(t, []string{"b", "e", "f", "i", "s"}, o.Schema.Required)
	assert.Equal(t, 7, o.Nodes)
	assert.Equal(t, 1, o.MaxDepth)
}

func TestInfer_ArrayItemsMerged(t *testing.T) {
	o := Infer(mustParse(t, `[{"id":1,"name":"a"},{"id":2.5}]`))

	require.NotNil(t, o.Schema.Items)
	items := o.Schema.Items
	assert.Equal(t, "object", items.Type)
	assert.Equal(t, []string{"id"}, items.Required)

	id, _ := items.Properties.Get("id")
	assert.Equal(t, "number", id.Type)
}

func TestMerge_MixedTypesUseAnyOf(t *testing.T) {
	o := Infer(mustParse(t, `[1,"a",true]`))

	require.NotNil(t, o.Schema.Items)
	var types []string
	for _, s := range o.Schema.Items.AnyOf {
		types = append(types, s.Type)
	}
	assert.Equal(t, []string{"boolean", "integer", "string"}, types)
}

func TestInferAll_SkipsInvalidBodies(t *testing.T) {
	o, skipped := InferAll([]byte(`{"a":1,"b":2}`), []byte(`{`), []byte(`{"a":3}`))
	require.NotNil(t, o)
	assert.Equal(t, 1, skipped)
	assert.Equal(t, []string{"a"}, o.Schema.Required)

	none, skipped := InferAll([]byte(`nope`))
	assert.Nil(t, none)
	assert.Equal(t, 1, skipped)
}

func TestInfer_OutlineValidatesItsOwnBody(t *testing.T) {
	body := `{"user":{"id":7,"tags":["x","y"],"active":false},"next":null}`
	o := Infer(mustParse(t, body))

	doc, err := json.Marshal(o.Schema)
	require.NoError(t, err)
	v, err := schema.NewValidator(string(doc))
	require.NoError(t, err)

	result := v.Validate([]byte(body))
	assert.True(t, result.Valid, result.Errors)

	result = v.Validate([]byte(`{"user":{"id":"7","tags":[],"active":false}}`))
	assert.False(t, result.Valid)
}
