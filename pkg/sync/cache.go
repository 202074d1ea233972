package sync

import (
	goSync "sync"
)

// Cache tracks the last digest known to describe the contents of each
// destination directory. It's a heuristic to avoid redundant pulls and
// pushes: the destination may still be modified behind our back.
type Cache interface {
	// Get returns the cached digest of `destination`, if there is one.
	Get(destination string) (string, bool)

	// Set records that `destination` currently has the given digest.
	Set(destination, digest string)

	// Invalidate forgets the digest of `destination`, so that the next
	// cycle re-evaluates it from scratch.
	Invalidate(destination string)
}

// MemoryCache is a Cache that lives for the lifetime of the process. It's
// safe for concurrent use.
type MemoryCache struct {
	digests map[string]string
	lock    goSync.Mutex
}

// NewMemoryCache returns an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{digests: map[string]string{}}
}

// Get implements Cache.
func (c *MemoryCache) Get(destination string) (string, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()

	digest, ok := c.digests[destination]
	return digest, ok
}

// Set implements Cache.
func (c *MemoryCache) Set(destination, digest string) {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.digests[destination] = digest
}

// Invalidate implements Cache.
func (c *MemoryCache) Invalidate(destination string) {
	c.lock.Lock()
	defer c.lock.Unlock()

	delete(c.digests, destination)
}
