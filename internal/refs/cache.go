package refs

import "sync"

// Cache maps canonical tokens to untruncated labels. Entries are written once
// and never evicted, so the cache grows for the life of a conversation.
// TODO: bound this with an LRU once long-running chat sessions are common.
type Cache struct {
	mu     sync.RWMutex
	labels map[string]string
}

func NewCache() *Cache {
	return &Cache{labels: make(map[string]string)}
}

// Label returns the cached label for a canonical token.
func (c *Cache) Label(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	l, ok := c.labels[key]
	return l, ok
}

// Set stores label unless key already has one. It reports whether it wrote.
func (c *Cache) Set(key, label string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.labels[key]; ok {
		return false
	}
	c.labels[key] = label
	return true
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.labels)
}

// Snapshot returns a copy of the current labels.
func (c *Cache) Snapshot() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]string, len(c.labels))
	for k, v := range c.labels {
		out[k] = v
	}
	return out
}
