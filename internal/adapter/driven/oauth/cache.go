package oauth

import (
	"sync"

	"github.com/gregjones/httpcache"
)

// Compile-time interface satisfaction check.
var _ httpcache.Cache = (*boundedCache)(nil)

// boundedCache is an in-memory httpcache.Cache that evicts the oldest entry
// once it holds max entries.
type boundedCache struct {
	mu    sync.Mutex
	max   int
	items map[string][]byte
	order []string
}

func newBoundedCache(max int) *boundedCache {
	return &boundedCache{
		max:   max,
		items: make(map[string][]byte, max),
	}
}

// Get returns the cached response bytes for key.
func (c *boundedCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, ok := c.items[key]
	return b, ok
}

// Set stores the response bytes for key, evicting the oldest entry if full.
func (c *boundedCache) Set(key string, b []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[key]; !ok {
		c.order = append(c.order, key)
	}
	c.items[key] = b

	for len(c.items) > c.max && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.items, oldest)
	}
}

// Delete removes key from the cache.
func (c *boundedCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[key]; !ok {
		return
	}
	delete(c.items, key)

	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Len returns the number of cached entries.
func (c *boundedCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.items)
}
