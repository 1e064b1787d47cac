package preview

import (
	"image"
	"os"
	"sort"
	"sync"
	"time"

	"gioui.org/op/paint"

	"github.com/justyntemme/loupe/internal/debug"
	"github.com/justyntemme/loupe/internal/preload"
)

// mainCache holds full (non-thumbnail) previews, validated by file size.
// An entry is trusted only while the file's current byte length matches the
// cached one; a rewrite with identical length is a known accepted false hit.
type mainCache struct {
	mu       sync.Mutex
	entries  map[string]*mainEntry
	capacity int
}

type mainEntry struct {
	op       paint.ImageOp
	size     image.Point
	fileSize int64
	modTime  time.Time
}

func newMainCache(capacity int) *mainCache {
	if capacity < 1 {
		capacity = 1
	}
	return &mainCache{
		entries:  make(map[string]*mainEntry),
		capacity: capacity,
	}
}

// get returns the cached texture for path if the entry is still valid.
// Invalid entries are dropped so the caller re-decodes.
func (mc *mainCache) get(path string) (paint.ImageOp, image.Point, bool) {
	key := preload.Key(path)

	mc.mu.Lock()
	e, ok := mc.entries[key]
	mc.mu.Unlock()
	if !ok {
		return paint.ImageOp{}, image.Point{}, false
	}

	info, err := os.Stat(path)
	if err != nil || info.Size() != e.fileSize {
		debug.Log(debug.CACHE, "mainCache: %s stale (err=%v), dropping", path, err)
		mc.mu.Lock()
		delete(mc.entries, key)
		mc.mu.Unlock()
		return paint.ImageOp{}, image.Point{}, false
	}

	return e.op, e.size, true
}

// put caches a full preview along with the file size it was decoded from.
func (mc *mainCache) put(path string, op paint.ImageOp, size image.Point, fileSize int64, modTime time.Time) {
	key := preload.Key(path)

	mc.mu.Lock()
	defer mc.mu.Unlock()

	if _, ok := mc.entries[key]; !ok && len(mc.entries) >= mc.capacity {
		mc.trimLocked()
	}
	mc.entries[key] = &mainEntry{op: op, size: size, fileSize: fileSize, modTime: modTime}
}

// trimLocked removes the lexicographically-first fifth of the keys.
// Not true LRU, an accepted simplification.
func (mc *mainCache) trimLocked() {
	keys := make([]string, 0, len(mc.entries))
	for k := range mc.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	n := mc.capacity / 5
	if n < 1 {
		n = 1
	}
	if n > len(keys) {
		n = len(keys)
	}
	for _, k := range keys[:n] {
		delete(mc.entries, k)
	}
	debug.Log(debug.CACHE, "mainCache: trimmed %d entries, %d remain", n, len(mc.entries))
}

// remove drops the entry for path, if present.
func (mc *mainCache) remove(path string) {
	key := preload.Key(path)
	mc.mu.Lock()
	delete(mc.entries, key)
	mc.mu.Unlock()
}

func (mc *mainCache) len() int {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return len(mc.entries)
}

func (mc *mainCache) clear() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.entries = make(map[string]*mainEntry)
}
