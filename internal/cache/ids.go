package cache

import "sync"

// IDCache maps local camera keys to the ids assigned by the repository once
// a create call has been confirmed.
type IDCache struct {
	mu  sync.RWMutex
	ids map[string]string
}

// NewIDCache creates a new IDCache
func NewIDCache() *IDCache {
	return &IDCache{
		ids: make(map[string]string),
	}
}

// Get retrieves a remote id by local key
func (c *IDCache) Get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.ids[key]
	return id, ok
}

// Set stores the remote id for a local key
func (c *IDCache) Set(key, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ids[key] = id
}

// Delete removes a key
func (c *IDCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.ids, key)
}

// Len returns the number of known keys
func (c *IDCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.ids)
}

// Reset clears all entries, e.g. when switching projects
func (c *IDCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ids = make(map[string]string)
}
