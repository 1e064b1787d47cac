// Package preload runs the background thumbnail pipeline: a worker pool that
// decodes images into a shared pixel cache ahead of the user's selection.
package preload

import (
	"image"
	"path/filepath"
	"sync"

	"github.com/justyntemme/loupe/internal/debug"
)

// Key normalizes a path into the cache key. Two paths naming the same file
// must normalize identically; the key carries no mtime, freshness is not
// re-validated for thumbnails.
func Key(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return filepath.Clean(abs)
}

// Pixels is a decoded thumbnail: a straight-alpha RGBA buffer plus its size.
// Once inserted into the cache the buffer is never written again, so readers
// may share it without copying until promotion to a texture.
type Pixels struct {
	RGBA *image.RGBA
	Size image.Point
}

// PixelCache is the shared, worker-populated thumbnail cache. A single mutex
// guards the map; no I/O or decoding ever happens under the lock.
type PixelCache struct {
	mu       sync.Mutex
	entries  map[string]*Pixels
	order    []string // Insertion order, oldest first
	capacity int
}

// evictDivisor controls how much to trim when over capacity: 1/5 = 20%.
const evictDivisor = 5

// NewPixelCache creates a cache bounded to capacity entries.
func NewPixelCache(capacity int) *PixelCache {
	if capacity < 1 {
		capacity = 1
	}
	return &PixelCache{
		entries:  make(map[string]*Pixels),
		capacity: capacity,
	}
}

// Get returns the cached pixels for path, if present.
func (c *PixelCache) Get(path string) (*Pixels, bool) {
	key := Key(path)
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.entries[key]
	return p, ok
}

// Contains reports whether path is cached.
func (c *PixelCache) Contains(path string) bool {
	key := Key(path)
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

// Put inserts a decoded buffer, evicting a fraction of the oldest entries
// first when the cache is at capacity.
func (c *PixelCache) Put(path string, rgba *image.RGBA) {
	key := Key(path)
	entry := &Pixels{RGBA: rgba, Size: rgba.Bounds().Size()}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		// Re-decode of an existing key, keep its position
		c.entries[key] = entry
		return
	}

	if len(c.entries) >= c.capacity {
		c.evictOldestLocked()
	}

	c.entries[key] = entry
	c.order = append(c.order, key)
}

// evictOldestLocked removes the oldest 1/evictDivisor entries (at least one).
func (c *PixelCache) evictOldestLocked() {
	n := c.capacity / evictDivisor
	if n < 1 {
		n = 1
	}
	if n > len(c.order) {
		n = len(c.order)
	}
	for _, key := range c.order[:n] {
		delete(c.entries, key)
	}
	c.order = c.order[n:]
	debug.Log(debug.CACHE, "PixelCache: evicted %d oldest entries, %d remain", n, len(c.entries))
}

// Remove drops a single entry, if present. Used when a watched file vanishes.
func (c *PixelCache) Remove(path string) {
	key := Key(path)
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; !ok {
		return
	}
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Len returns the number of cached entries.
func (c *PixelCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear drops all entries.
func (c *PixelCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*Pixels)
	c.order = nil
}
