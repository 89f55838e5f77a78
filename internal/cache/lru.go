// Package cache provides caching utilities for the inspector.
package cache

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/usestring/httpinspect/pkg/jsontree"
)

// TreeCache provides thread-safe LRU caching for parsed body trees.
//
// Records are immutable once terminal, so a tree keyed by record id and body
// target never goes stale. Parsed roots are shared read-only between callers;
// expansion state belongs in a jsontree.View per caller.
type TreeCache struct {
	cache *lru.Cache[string, []*jsontree.Node]
	group singleflight.Group
}

// NewTreeCache creates a new LRU cache with the specified maximum number of items.
func NewTreeCache(maxItems int) (*TreeCache, error) {
	c, err := lru.New[string, []*jsontree.Node](maxItems)
	if err != nil {
		return nil, err
	}
	return &TreeCache{cache: c}, nil
}

// Key builds the cache key for one body of one record.
func Key(recordID, target string) string {
	return recordID + "#" + target
}

// Get retrieves parsed roots by key.
func (c *TreeCache) Get(key string) ([]*jsontree.Node, bool) {
	return c.cache.Get(key)
}

// Put adds or updates parsed roots.
func (c *TreeCache) Put(key string, roots []*jsontree.Node) {
	c.cache.Add(key, roots)
}

// GetOrParse returns the cached roots for key, parsing load's bytes on a
// miss. Concurrent misses for the same key share one parse. Parse failures
// are not cached.
func (c *TreeCache) GetOrParse(key string, load func() ([]byte, error)) ([]*jsontree.Node, error) {
	if roots, ok := c.cache.Get(key); ok {
		return roots, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		if roots, ok := c.cache.Get(key); ok {
			return roots, nil
		}
		text, err := load()
		if err != nil {
			return nil, fmt.Errorf("loading body: %w", err)
		}
		roots, err := jsontree.Parse(text)
		if err != nil {
			return nil, err
		}
		c.cache.Add(key, roots)
		return roots, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]*jsontree.Node), nil
}

// Purge removes every entry. Called when the record log is cleared.
func (c *TreeCache) Purge() {
	c.cache.Purge()
}

// Len returns the current number of items in the cache.
func (c *TreeCache) Len() int {
	return c.cache.Len()
}
