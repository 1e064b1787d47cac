package preload

import (
	"time"

	"github.com/justyntemme/loupe/internal/debug"
	"github.com/justyntemme/loupe/internal/fs"
	"github.com/justyntemme/loupe/internal/thumb"
)

// Preloader feeds every image in a folder into the worker pool.
// Pacing is advisory: large folders are fed in smaller batches with longer
// gaps so an interactively selected image is not starved by bulk work.
type Preloader struct {
	pool *Pool
	exts []string
}

// NewPreloader creates a preloader feeding pool, filtering to the given
// image extensions.
func NewPreloader(pool *Pool, exts []string) *Preloader {
	return &Preloader{pool: pool, exts: exts}
}

// PreloadFolder scans path (non-recursive) in the background and enqueues
// every image file found. Scan errors are swallowed: bulk preloading is
// best-effort. Switching folders does not clear previously cached entries.
func (p *Preloader) PreloadFolder(path string) {
	go p.scanAndFeed(path)
}

func (p *Preloader) scanAndFeed(path string) {
	entries, err := fs.List(path)
	if err != nil {
		debug.Log(debug.SCAN, "PreloadFolder: cannot scan %s: %v", path, err)
		return
	}

	var images []string
	for _, e := range entries {
		if e.IsDir {
			continue
		}
		if thumb.IsImagePath(e.Path, p.exts) {
			images = append(images, e.Path)
		}
	}

	if len(images) == 0 {
		return
	}

	batch, delay := pacingFor(len(images))
	debug.Log(debug.SCAN, "PreloadFolder: %s has %d images, batch=%d delay=%v",
		path, len(images), batch, delay)

	for i, img := range images {
		p.pool.Request(img)
		if delay > 0 && (i+1)%batch == 0 && i+1 < len(images) {
			time.Sleep(delay)
		}
	}
}

// pacingFor picks a (batchSize, delay) pair from the folder's image count.
// More images means smaller batches and longer delays.
func pacingFor(count int) (int, time.Duration) {
	switch {
	case count <= 20:
		return count, 0
	case count <= 50:
		return 10, 50 * time.Millisecond
	case count <= 200:
		return 8, 100 * time.Millisecond
	case count <= 500:
		return 5, 200 * time.Millisecond
	default:
		return 3, 300 * time.Millisecond
	}
}
