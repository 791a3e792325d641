// v0
// internal/vision/cache.go
package vision

import "sync"

// LatestCache is a single-slot store holding the most recent classification
// outcome. Puts overwrite unconditionally; whichever classification commits
// last wins. It is safe for concurrent use.
type LatestCache struct {
	mu  sync.RWMutex
	cur Result
	has bool
}

// NewLatestCache returns an empty cache.
func NewLatestCache() *LatestCache {
	return &LatestCache{}
}

// Put replaces the stored result in a single swap.
func (c *LatestCache) Put(r Result) {
	c.mu.Lock()
	c.cur = r
	c.has = true
	c.mu.Unlock()
}

// Get returns the current result and whether any classification has ever
// succeeded. Before the first Put the bool is false and the Result is the
// zero value.
func (c *LatestCache) Get() (Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cur, c.has
}
