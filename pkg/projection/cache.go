package projection

import "strings"

const cacheLimit = 256

// Cache memoizes projection results keyed by a caller supplied composite key
// (document id, set name, filter signature). The whole cache is cleared when
// the entry count reaches the limit, so stale entries cannot accumulate
// across documents. Not safe for concurrent use.
type Cache struct {
	entries map[string][]Node
	limit   int
}

func NewCache() *Cache {
	return &Cache{entries: map[string][]Node{}, limit: cacheLimit}
}

// Key joins the parts into a composite cache key.
func Key(parts ...string) string {
	return strings.Join(parts, "\x1f")
}

// Get returns the memoized nodes for key, computing and storing them on a
// miss.
func (c *Cache) Get(key string, compute func() []Node) []Node {
	if nodes, ok := c.entries[key]; ok {
		return nodes
	}
	if len(c.entries) >= c.limit {
		c.entries = map[string][]Node{}
	}
	nodes := compute()
	c.entries[key] = nodes
	return nodes
}

// Invalidate drops every entry whose key starts with prefix. Used when a
// document or one of its annotation sets changes.
func (c *Cache) Invalidate(prefix string) {
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
}

func (c *Cache) Reset() {
	c.entries = map[string][]Node{}
}
