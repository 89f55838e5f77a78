package jsontree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func childKeys(n *Node) []string {
	keys := make([]string, len(n.Children))
	for i, c := range n.Children {
		keys[i] = c.Key
	}
	return keys
}

func childKinds(n *Node) []Kind {
	kinds := make([]Kind, len(n.Children))
	for i, c := range n.Children {
		kinds[i] = c.Kind
	}
	return kinds
}

func TestParse_ObjectSortedArrayPositional(t *testing.T) {
	roots, err := Parse([]byte(`{"b":1,"a":[true,null,"x"]}`))
	require.NoError(t, err)
	require.Len(t, roots, 1)

	root := roots[0]
	assert.Equal(t, KindObject, root.Kind)
	assert.Equal(t, 0, root.Level)
	assert.Equal(t, []string{"a", "b"}, childKeys(root))

	a := root.Children[0]
	assert.Equal(t, KindArray, a.Kind)
	assert.Equal(t, 1, a.Level)
	assert.Equal(t, []Kind{KindBoolean, KindNull, KindString}, childKinds(a))
	assert.Equal(t, []string{"[0]", "[1]", "[2]"}, childKeys(a))
	assert.Equal(t, 2, a.Children[0].Level)

	b := root.Children[1]
	assert.Equal(t, KindNumber, b.Kind)
	assert.Equal(t, "1", b.Display())
}

func TestParse_BooleanNeverNumber(t *testing.T) {
	roots, err := Parse([]byte(`true`))
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.Equal(t, KindBoolean, roots[0].Kind)
	assert.Equal(t, "true", roots[0].Display())
	assert.Empty(t, roots[0].Children)

	roots, err = Parse([]byte(`[1, 0, false]`))
	require.NoError(t, err)
	assert.Equal(t, []Kind{KindNumber, KindNumber, KindBoolean}, childKinds(roots[0]))
	assert.Equal(t, "false", roots[0].Children[2].Display())
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"truncated object", `{"`},
		{"empty", ``},
		{"whitespace only", "  \n"},
		{"trailing garbage", `{} x`},
		{"two documents", `{} {}`},
		{"bad literal", `tru`},
		{"missing colon", `{"a" 1}`},
		{"invalid utf8", "\"\xff\xfe\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			roots, err := Parse([]byte(tt.input))
			require.Error(t, err)
			assert.Nil(t, roots)

			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.NotEmpty(t, pe.Msg)
		})
	}
}

func TestParse_TruncatedCarriesDecoderMessage(t *testing.T) {
	_, err := Parse([]byte(`{"a": [1, 2`))
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Error(), "unexpected end of JSON input")
}

func TestParse_DuplicateKeysLastWins(t *testing.T) {
	roots, err := Parse([]byte(`{"a":1,"a":2}`))
	require.NoError(t, err)
	require.Len(t, roots[0].Children, 1)
	assert.Equal(t, "2", roots[0].Children[0].Display())
	assert.Equal(t, "{1 key}", roots[0].Display())
}

func TestParse_DepthLimit(t *testing.T) {
	deep := make([]byte, 0, 2*(MaxDepth+1))
	for i := 0; i <= MaxDepth; i++ {
		deep = append(deep, '[')
	}
	for i := 0; i <= MaxDepth; i++ {
		deep = append(deep, ']')
	}
	_, err := Parse(deep)
	assert.Error(t, err)
}

func TestNode_Display(t *testing.T) {
	roots, err := Parse([]byte(`{"obj":{"x":1,"y":2,"z":3},"arr":[1,2],"one":[0],"s":"a<b\"c","n":-1.5e3,"nil":null,"empty":{}}`))
	require.NoError(t, err)

	got := make(map[string]string)
	for _, c := range roots[0].Children {
		got[c.Key] = c.Display()
	}

	assert.Equal(t, "{3 keys}", got["obj"])
	assert.Equal(t, "[2 items]", got["arr"])
	assert.Equal(t, "[1 item]", got["one"])
	assert.Equal(t, `"a<b\"c"`, got["s"])
	assert.Equal(t, "-1.5e3", got["n"])
	assert.Equal(t, "null", got["nil"])
	assert.Equal(t, "{0 keys}", got["empty"])
}

func TestNode_PathsAreUnique(t *testing.T) {
	roots, err := Parse([]byte(`{"a/b":{"c":[1]},"a":{"b":{"c":[1]}},"~":0}`))
	require.NoError(t, err)

	seen := make(map[string]bool)
	Walk(roots, func(n *Node) {
		assert.False(t, seen[n.Path], "duplicate path %q", n.Path)
		seen[n.Path] = true
	})

	n := Find(roots, "/a~1b/c/0")
	require.NotNil(t, n)
	assert.Equal(t, "[0]", n.Key)
	assert.Nil(t, Find(roots, "/missing"))
}

func TestValue_Interface(t *testing.T) {
	v, err := Decode([]byte(`{"a":[1,"x",true,null]}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": []any{float64(1), "x", true, nil}}, v.Interface())
}
