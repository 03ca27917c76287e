package vlq

import (
	"slices"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache memoises Decode per segment. Source maps repeat the same short
// segments ("AAAA", "AACA", ...) many times over.
type Cache struct {
	segments *lru.Cache[string, []int]
}

// NewCache returns a Cache holding at most size segments.
func NewCache(size int) (*Cache, error) {
	segments, err := lru.New[string, []int](size)
	if err != nil {
		return nil, err
	}

	return &Cache{segments: segments}, nil
}

// Decode is Decode backed by the cache. Failed decodes are not stored, and
// the returned slice is the caller's own.
func (c *Cache) Decode(segment string) ([]int, error) {
	if values, ok := c.segments.Get(segment); ok {
		return slices.Clone(values), nil
	}

	values, err := Decode(segment)
	if err != nil {
		return nil, err
	}

	c.segments.Add(segment, values)

	return slices.Clone(values), nil
}

// DecodeMappings is DecodeMappings with every segment going through the cache.
func (c *Cache) DecodeMappings(mappings string) ([][][]int, error) {
	return decodeMappings(mappings, c.Decode)
}

// Len returns the number of cached segments.
func (c *Cache) Len() int {
	return c.segments.Len()
}
