package preview

import (
	"image"
	"sync"

	"gioui.org/op/paint"

	"github.com/justyntemme/loupe/internal/debug"
	"github.com/justyntemme/loupe/internal/preload"
)

// textureCache maps cache keys to already-uploaded texture ops so the same
// decoded buffer is not re-wrapped every frame. Entries are only ever created
// during frame handling (promotion happens on the render thread); once
// created, an ImageOp may be read from anywhere.
type textureCache struct {
	mu       sync.Mutex
	entries  map[string]*textureEntry
	order    []string // Insertion order, oldest first
	capacity int
}

type textureEntry struct {
	op   paint.ImageOp
	size image.Point
}

func newTextureCache(capacity int) *textureCache {
	if capacity < 1 {
		capacity = 1
	}
	return &textureCache{
		entries:  make(map[string]*textureEntry),
		capacity: capacity,
	}
}

func (tc *textureCache) get(path string) (paint.ImageOp, image.Point, bool) {
	key := preload.Key(path)
	tc.mu.Lock()
	defer tc.mu.Unlock()
	e, ok := tc.entries[key]
	if !ok {
		return paint.ImageOp{}, image.Point{}, false
	}
	return e.op, e.size, true
}

func (tc *textureCache) put(path string, op paint.ImageOp, size image.Point) {
	key := preload.Key(path)
	tc.mu.Lock()
	defer tc.mu.Unlock()

	if e, ok := tc.entries[key]; ok {
		// Replaced wholesale on invalidation, never mutated in place
		e.op = op
		e.size = size
		return
	}

	if len(tc.entries) >= tc.capacity {
		n := tc.capacity / 5
		if n < 1 {
			n = 1
		}
		if n > len(tc.order) {
			n = len(tc.order)
		}
		for _, k := range tc.order[:n] {
			delete(tc.entries, k)
		}
		tc.order = tc.order[n:]
		debug.Log(debug.CACHE, "textureCache: evicted %d entries, %d remain", n, len(tc.entries))
	}

	tc.entries[key] = &textureEntry{op: op, size: size}
	tc.order = append(tc.order, key)
}

func (tc *textureCache) remove(path string) {
	key := preload.Key(path)
	tc.mu.Lock()
	defer tc.mu.Unlock()
	if _, ok := tc.entries[key]; !ok {
		return
	}
	delete(tc.entries, key)
	for i, k := range tc.order {
		if k == key {
			tc.order = append(tc.order[:i], tc.order[i+1:]...)
			break
		}
	}
}

func (tc *textureCache) len() int {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return len(tc.entries)
}

func (tc *textureCache) clear() {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.entries = make(map[string]*textureEntry)
	tc.order = nil
}
