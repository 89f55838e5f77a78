package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/httpinspect/pkg/jsontree"
)

func TestTreeCache_GetOrParseCaches(t *testing.T) {
	c, err := NewTreeCache(4)
	require.NoError(t, err)

	var loads atomic.Int64
	load := func() ([]byte, error) {
		loads.Add(1)
		return []byte(`{"b":1,"a":2}`), nil
	}

	first, err := c.GetOrParse(Key("r1", "response"), load)
	require.NoError(t, err)
	second, err := c.GetOrParse(Key("r1", "response"), load)
	require.NoError(t, err)

	assert.Equal(t, int64(1), loads.Load())
	require.Len(t, first, 1)
	assert.Same(t, first[0], second[0])
	assert.Equal(t, "a", first[0].Children[0].Key)
}

func TestTreeCache_ParseErrorNotCached(t *testing.T) {
	c, err := NewTreeCache(4)
	require.NoError(t, err)

	_, err = c.GetOrParse("bad", func() ([]byte, error) { return []byte(`{"`), nil })
	var perr *jsontree.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 0, c.Len())

	_, err = c.GetOrParse("gone", func() ([]byte, error) { return nil, errors.New("no body") })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading body")
}

func TestTreeCache_ConcurrentMissesShareParse(t *testing.T) {
	c, err := NewTreeCache(4)
	require.NoError(t, err)

	var loads atomic.Int64
	release := make(chan struct{})
	load := func() ([]byte, error) {
		loads.Add(1)
		<-release
		return []byte(`[1,2,3]`), nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			roots, err := c.GetOrParse("k", load)
			assert.NoError(t, err)
			assert.Len(t, roots, 1)
		}()
	}
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, loads.Load(), int64(8))
	assert.Equal(t, 1, c.Len())
}

func TestTreeCache_EvictsAndPurges(t *testing.T) {
	c, err := NewTreeCache(1)
	require.NoError(t, err)

	roots, err := jsontree.Parse([]byte(`null`))
	require.NoError(t, err)
	c.Put("a", roots)
	c.Put("b", roots)

	_, ok := c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("b")
	assert.True(t, ok)

	c.Purge()
	assert.Equal(t, 0, c.Len())
}
