package fetcher

import "sync"

// Cache is a concurrency-safe map keyed by repository key.
type Cache[V any] struct {
	mu   sync.RWMutex
	data map[string]V
}

func NewCache[V any]() *Cache[V] {
	return &Cache[V]{data: make(map[string]V)}
}

func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.data[key]
	return v, ok
}

func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
}

func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}
