// Package watch keeps the active folder's preview caches fresh via fsnotify.
package watch

import (
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/justyntemme/loupe/internal/debug"
	"github.com/justyntemme/loupe/internal/thumb"
)

// Pipeline is the cache and decode surface the watcher drives.
// *preview.Preview satisfies it.
type Pipeline interface {
	// Invalidate drops every cached form of path.
	Invalidate(path string)
	// Request queues a background thumbnail decode.
	Request(path string)
}

// FolderWatcher watches the active folder. Image creations and rewrites
// invalidate the cached entry and feed a fresh decode after a debounce;
// deletions invalidate only, so a stale thumbnail cannot be served again.
type FolderWatcher struct {
	watcher  *fsnotify.Watcher
	pipeline Pipeline
	exts     []string
	debounce time.Duration

	mu      sync.Mutex
	current string // Currently watched folder, empty if none

	done chan struct{}
}

// NewFolderWatcher creates a watcher feeding pipeline. debounceMs bounds how
// quickly repeated writes to the same file re-trigger a decode.
func NewFolderWatcher(pipeline Pipeline, exts []string, debounceMs int) (*FolderWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if debounceMs <= 0 {
		debounceMs = 200
	}

	fw := &FolderWatcher{
		watcher:  w,
		pipeline: pipeline,
		exts:     exts,
		debounce: time.Duration(debounceMs) * time.Millisecond,
		done:     make(chan struct{}),
	}

	go fw.run()
	return fw, nil
}

// SetFolder switches the watched folder. The previous folder is unwatched;
// its cached thumbnails stay valid (cache is keyed globally by path).
func (fw *FolderWatcher) SetFolder(path string) error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.current == path {
		return nil
	}
	if fw.current != "" {
		// Path may already be gone, ignore errors
		if err := fw.watcher.Remove(fw.current); err != nil {
			debug.Log(debug.WATCH, "error unwatching %s: %v", fw.current, err)
		}
		fw.current = ""
	}
	if path == "" {
		return nil
	}
	if err := fw.watcher.Add(path); err != nil {
		return err
	}
	fw.current = path
	debug.Log(debug.WATCH, "now watching %s", path)
	return nil
}

// Folder returns the currently watched folder, empty if none.
func (fw *FolderWatcher) Folder() string {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	return fw.current
}

// run processes filesystem events with per-file debouncing.
func (fw *FolderWatcher) run() {
	lastEvent := make(map[string]time.Time)
	pending := make(map[string]bool)
	ticker := time.NewTicker(fw.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-fw.done:
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if !thumb.IsImagePath(event.Name, fw.exts) {
				continue
			}

			switch {
			case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
				debug.Log(debug.WATCH, "removed: %s", event.Name)
				fw.pipeline.Invalidate(event.Name)
				delete(pending, event.Name)
				delete(lastEvent, event.Name)

			case event.Has(fsnotify.Create) || event.Has(fsnotify.Write):
				debug.Log(debug.WATCH, "changed: %s", event.Name)
				// A rewritten file needs a fresh decode, and the
				// promoted texture must not outlive the old bytes
				fw.pipeline.Invalidate(event.Name)
				lastEvent[event.Name] = time.Now()
				pending[event.Name] = true
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			debug.Log(debug.WATCH, "fsnotify error: %v", err)

		case now := <-ticker.C:
			for path, isPending := range pending {
				if isPending && now.Sub(lastEvent[path]) >= fw.debounce {
					fw.pipeline.Request(path)
					delete(pending, path)
					delete(lastEvent, path)
				}
			}
		}
	}
}

// Close shuts down the watcher.
func (fw *FolderWatcher) Close() error {
	close(fw.done)
	return fw.watcher.Close()
}
