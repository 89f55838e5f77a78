package jsontree

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compactText(t *testing.T, text string, opts CompactOptions) string {
	t.Helper()
	v, err := Decode([]byte(text))
	require.NoError(t, err)
	out, err := Compact(v, opts).MarshalJSON()
	require.NoError(t, err)
	return string(out)
}

func TestCompact_TrimsArrays(t *testing.T) {
	got := compactText(t, `{"items":[1,2,3,4,5,6,7,8,9,10]}`, CompactOptions{MaxArrayItems: 3})
	assert.Equal(t, `{"items":[1,2,3,"... (7 more items)"]}`, got)
}

func TestCompact_ArrayWithinLimit(t *testing.T) {
	got := compactText(t, `{"items":[1,2,3]}`, CompactOptions{MaxArrayItems: 5})
	assert.Equal(t, `{"items":[1,2,3]}`, got)
}

func TestCompact_NestedArrays(t *testing.T) {
	got := compactText(t, `[[1,2,3],[4,5,6],[7,8,9]]`, CompactOptions{MaxArrayItems: 2})
	assert.Equal(t, `[[1,2,"... (1 more items)"],[4,5,"... (1 more items)"],"... (1 more items)"]`, got)
}

func TestCompact_KeepsOrderAndNumberLiterals(t *testing.T) {
	got := compactText(t, `{"z":12345678901234567890,"a":1.50,"m":[true,null]}`, DefaultCompactOptions())
	assert.Equal(t, `{"z":12345678901234567890,"a":1.50,"m":[true,null]}`, got)
}

func TestCompact_TruncatesStrings(t *testing.T) {
	long := strings.Repeat("x", 20)
	got := compactText(t, `{"s":"`+long+`"}`, CompactOptions{MaxStringLen: 5})
	assert.Equal(t, `{"s":"xxxxx... (15 more chars)"}`, got)

	got = compactText(t, `{"s":"`+long+`"}`, CompactOptions{})
	assert.Equal(t, `{"s":"`+long+`"}`, got)
}

func TestCompact_StringCutKeepsRunes(t *testing.T) {
	got := compactText(t, `"héllo"`, CompactOptions{MaxStringLen: 2})
	assert.Equal(t, `"h... (5 more chars)"`, got)
}

func TestCompact_MaxDepth(t *testing.T) {
	got := compactText(t, `{"a":{"b":{"c":1}},"n":2}`, CompactOptions{MaxDepth: 2})
	assert.Equal(t, `{"a":{"b":"[max depth]"},"n":2}`, got)
}

func TestCompact_EmptyContainers(t *testing.T) {
	got := compactText(t, `{"a":[],"o":{}}`, DefaultCompactOptions())
	assert.Equal(t, `{"a":[],"o":{}}`, got)
}
