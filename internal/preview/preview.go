// Package preview is the single entry point the UI calls for file previews.
// All operations are synchronous and non-blocking: decoding happens on
// background goroutines, and the UI thread picks up results by polling
// Update once per frame.
package preview

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gioui.org/layout"
	"gioui.org/op/paint"
	"gioui.org/widget"

	"github.com/justyntemme/loupe/internal/config"
	"github.com/justyntemme/loupe/internal/debug"
	"github.com/justyntemme/loupe/internal/fs"
	"github.com/justyntemme/loupe/internal/mem"
	"github.com/justyntemme/loupe/internal/preload"
	"github.com/justyntemme/loupe/internal/thumb"
)

type loadState int

const (
	stateIdle    loadState = iota // No decode in flight
	stateLoading                  // Exactly one background decode in flight
)

// loadingResult is the outcome of a single-file background decode.
type loadingResult struct {
	path     string
	rgba     *image.RGBA // nil on failure
	errText  string      // Rendered in the pane in place of an image
	fileSize int64
	modTime  time.Time
}

// resultSlot is a mutex-guarded mailbox holding at most one pending result.
// The worker writes it once; the main thread consumes it exactly once.
type resultSlot struct {
	mu     sync.Mutex
	result *loadingResult
}

func (s *resultSlot) put(r *loadingResult) {
	s.mu.Lock()
	s.result = r
	s.mu.Unlock()
}

func (s *resultSlot) take() *loadingResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.result
	s.result = nil
	return r
}

// fileInfo is the header line shown above the preview content.
type fileInfo struct {
	name     string
	typ      string
	size     string
	modified string
}

// Preview owns the whole pipeline: the worker pool and pixel cache, the
// render-texture cache, the validated main cache, and the async load state
// machine for the currently selected file.
type Preview struct {
	gen       *thumb.Generator
	pixels    *preload.PixelCache
	pool      *preload.Pool
	preloader *preload.Preloader
	textures  *textureCache
	main      *mainCache
	slot      resultSlot

	// decodeFull decodes a full (non-thumbnail) image; swapped in tests
	decodeFull func(path string) (*image.RGBA, error)

	// invalidate requests a repaint after a background result lands
	invalidate func()

	// Thumbnail paths already handed to the pool, so per-frame misses do
	// not re-enqueue. Guarded by reqMu: the watcher clears marks from its
	// own goroutine.
	reqMu     sync.Mutex
	requested map[string]bool

	// State machine; touched only by the UI thread
	state         loadState
	loadingPath   string
	pendingPath   string // Only the most recent deferred request survives
	pendingFolder string // Folder preload deferred to the next frame

	// Currently displayed content; UI thread only
	current string
	isImage bool
	img     paint.ImageOp
	imgSize image.Point
	content string
	errText string
	info    fileInfo
	list    widget.List

	textExts    []string
	maxTextSize int64
}

// New builds the pipeline from configuration. Cache capacities default to
// the memory budgeter's numbers unless overridden in cfg. invalidate may be
// nil when no window wants waking.
func New(cfg config.Config, invalidate func()) *Preview {
	preloadCap, renderCap := mem.CacheSizes()
	if cfg.Cache.PreloadCapacity > 0 {
		preloadCap = cfg.Cache.PreloadCapacity
	}
	if cfg.Cache.RenderCapacity > 0 {
		renderCap = cfg.Cache.RenderCapacity
	}

	gen := thumb.NewGenerator(cfg.Thumbnails.MaxPixels, cfg.Thumbnails.MaxFileSize, cfg.Thumbnails.ImageExts)
	pixels := preload.NewPixelCache(preloadCap)
	pool := preload.NewPool(pixels, gen, preload.Options{
		MinWorkers:    cfg.Pool.MinWorkers,
		MaxWorkers:    cfg.Pool.MaxWorkers,
		ThrottleEvery: cfg.Pool.ThrottleEvery,
		ThrottleDelay: time.Duration(cfg.Pool.ThrottleMs) * time.Millisecond,
	})

	if invalidate == nil {
		invalidate = func() {}
	}

	p := &Preview{
		gen:         gen,
		pixels:      pixels,
		pool:        pool,
		preloader:   preload.NewPreloader(pool, cfg.Thumbnails.ImageExts),
		textures:    newTextureCache(renderCap),
		requested:   make(map[string]bool),
		main:        newMainCache(cfg.Cache.MainCapacity),
		invalidate:  invalidate,
		textExts:    cfg.Preview.TextExtensions,
		maxTextSize: cfg.Preview.MaxTextFileSize,
		list:        widget.List{List: layout.List{Axis: layout.Vertical}},
	}
	p.decodeFull = p.decodeFile
	return p
}

// Request queues a background thumbnail decode for path.
func (p *Preview) Request(path string) {
	p.pool.Request(path)
}

// Invalidate drops every cached form of path: raw pixels, the promoted
// texture, the validated full preview, and the requested mark, so the next
// lookup decodes fresh. Safe to call from any goroutine; a promotion racing
// the drop at worst re-serves the old frame once.
func (p *Preview) Invalidate(path string) {
	p.pixels.Remove(path)
	p.textures.remove(path)
	p.main.remove(path)
	p.reqMu.Lock()
	delete(p.requested, preload.Key(path))
	p.reqMu.Unlock()
	debug.Log(debug.CACHE, "Invalidate: %s", path)
}

// PreloadFolder feeds every image in path into the background pool.
func (p *Preview) PreloadFolder(path string) {
	p.preloader.PreloadFolder(path)
}

// LoadPreview requests display of path. Idempotent if path is already the
// current selection. Never blocks: a cache miss starts a background decode.
func (p *Preview) LoadPreview(path string) {
	if path == p.current {
		return
	}
	debug.Log(debug.PREVIEW, "LoadPreview: %s", path)

	p.current = path
	p.isImage = false
	p.img = paint.ImageOp{}
	p.imgSize = image.Point{}
	p.content = ""
	p.errText = ""
	p.info = fileInfo{}

	if path == "" {
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		p.errText = fmt.Sprintf("Cannot access file: %v", err)
		return
	}
	p.fillInfo(path, info)

	if info.IsDir() {
		p.content = folderSummary(path)
		// Warm the folder's thumbnails; deferred to the next frame so
		// selection stays cheap
		p.pendingFolder = path
		return
	}

	if p.gen.IsImage(path) {
		p.isImage = true
		if p.tryResident(path) {
			return
		}
		p.requestLoad(path)
		return
	}

	if p.isTextPath(path) {
		p.loadText(path, info.Size())
		return
	}

	p.content = "No preview available for this file type"
}

// Update advances the async load state machine. Must be called exactly once
// per UI frame.
func (p *Preview) Update() {
	if p.pendingFolder != "" {
		p.preloader.PreloadFolder(p.pendingFolder)
		p.pendingFolder = ""
	}

	r := p.slot.take()
	if r == nil {
		// A bulk preload may have produced our pixels in the meantime
		if p.state == stateIdle && p.isImage && p.imgSize == (image.Point{}) && p.errText == "" {
			p.tryResident(p.current)
		}
		return
	}

	// The in-flight decode has resolved, whatever its outcome
	p.state = stateIdle
	p.loadingPath = ""

	if r.path == p.current {
		if r.errText != "" {
			debug.Log(debug.PREVIEW, "Update: %s failed: %s", r.path, r.errText)
			p.errText = r.errText
		} else {
			// Promotion: the texture is created here, on the UI thread
			op := paint.NewImageOp(r.rgba)
			size := r.rgba.Bounds().Size()
			p.textures.put(r.path, op, size)
			p.main.put(r.path, op, size, r.fileSize, r.modTime)
			p.img = op
			p.imgSize = size
			debug.Log(debug.PREVIEW, "Update: %s resident (%dx%d)", r.path, size.X, size.Y)
		}
	} else {
		// Selection changed mid-flight; the result is stale
		debug.Log(debug.PREVIEW, "Update: discarding stale result for %s (current %s)", r.path, p.current)
	}

	if p.pendingPath != "" {
		next := p.pendingPath
		p.pendingPath = ""
		if next == p.current && !p.tryResident(next) {
			p.startLoad(next)
		}
	}
}

// Thumbnail returns a renderable thumbnail for path if one is ready,
// promoting from the pixel cache when needed. A miss queues a background
// load and returns false; callers draw a placeholder and retry next frame.
// Must be called from the UI thread.
func (p *Preview) Thumbnail(path string) (paint.ImageOp, image.Point, bool) {
	if op, size, ok := p.textures.get(path); ok {
		return op, size, true
	}
	if px, ok := p.pixels.Get(path); ok {
		op := paint.NewImageOp(px.RGBA)
		p.textures.put(path, op, px.Size)
		p.reqMu.Lock()
		delete(p.requested, preload.Key(path))
		p.reqMu.Unlock()
		return op, px.Size, true
	}
	key := preload.Key(path)
	p.reqMu.Lock()
	already := p.requested[key]
	if !already {
		p.requested[key] = true
	}
	p.reqMu.Unlock()
	if !already {
		p.pool.Request(path)
	}
	return paint.ImageOp{}, image.Point{}, false
}

// Clear resets the current selection. Caches are left intact.
func (p *Preview) Clear() {
	p.current = ""
	p.isImage = false
	p.img = paint.ImageOp{}
	p.imgSize = image.Point{}
	p.content = ""
	p.errText = ""
	p.info = fileInfo{}
	p.pendingPath = ""
	p.pendingFolder = ""
	// An in-flight decode runs to completion; its result arrives stale
	// and Update discards it.
}

// Cleanup shuts down the worker pool and drops all caches. Call on exit or
// full context reset.
func (p *Preview) Cleanup() {
	p.Clear()
	p.pool.Stop()
	p.pixels.Clear()
	p.textures.clear()
	p.main.clear()
	p.reqMu.Lock()
	p.requested = make(map[string]bool)
	p.reqMu.Unlock()
	debug.Log(debug.PREVIEW, "Cleanup: pool stopped, caches cleared")
}

// tryResident attempts to satisfy the selection from the caches, cheapest
// first: texture cache, then main cache, then promotion from raw pixels.
func (p *Preview) tryResident(path string) bool {
	if op, size, ok := p.textures.get(path); ok {
		p.img = op
		p.imgSize = size
		return true
	}
	if op, size, ok := p.main.get(path); ok {
		p.img = op
		p.imgSize = size
		return true
	}
	if px, ok := p.pixels.Get(path); ok {
		op := paint.NewImageOp(px.RGBA)
		p.textures.put(path, op, px.Size)
		p.img = op
		p.imgSize = px.Size
		return true
	}
	return false
}

// requestLoad starts a background decode, or defers it behind the one
// already in flight. Only the most recent deferred request is kept.
func (p *Preview) requestLoad(path string) {
	switch p.state {
	case stateIdle:
		p.startLoad(path)
	case stateLoading:
		if p.loadingPath == path {
			return // Already in flight, don't start a duplicate
		}
		p.pendingPath = path
	}
}

func (p *Preview) startLoad(path string) {
	p.state = stateLoading
	p.loadingPath = path
	debug.Log(debug.PREVIEW, "startLoad: %s", path)

	go func() {
		res := &loadingResult{path: path}
		if info, err := os.Stat(path); err == nil {
			res.fileSize = info.Size()
			res.modTime = info.ModTime()
		}
		rgba, err := p.decodeFull(path)
		if err != nil {
			res.errText = err.Error()
		} else {
			res.rgba = rgba
		}
		p.slot.put(res)
		p.invalidate()
	}()
}

// decodeFile is the production decodeFull: full-size decode, canonical RGBA.
func (p *Preview) decodeFile(path string) (*image.RGBA, error) {
	img, err := thumb.Decode(path, p.gen.MaxFileSize)
	if err != nil {
		return nil, err
	}
	return thumb.ToRGBA(img), nil
}

func (p *Preview) isTextPath(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range p.textExts {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}

// loadText reads a small text file synchronously; cheap enough to skip the
// worker pool.
func (p *Preview) loadText(path string, size int64) {
	if p.maxTextSize > 0 && size > p.maxTextSize {
		p.errText = fmt.Sprintf("File too large (%s)", formatSize(size))
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		p.errText = fmt.Sprintf("Cannot read file: %v", err)
		return
	}
	p.content = string(data)
}

func (p *Preview) fillInfo(path string, info os.FileInfo) {
	typ := "File"
	if info.IsDir() {
		typ = "Folder"
	} else if ext := filepath.Ext(path); ext != "" {
		typ = strings.ToUpper(strings.TrimPrefix(ext, "."))
	}
	p.info = fileInfo{
		name:     filepath.Base(path),
		typ:      typ,
		size:     formatSize(info.Size()),
		modified: info.ModTime().Format("2006-01-02 15:04"),
	}
}

// folderSummary lists a directory's contents as text, a few entries deep.
func folderSummary(path string) string {
	entries, err := fs.List(path)
	if err != nil {
		return "Cannot read folder contents"
	}

	var folders, files []string
	for _, e := range entries {
		if e.IsDir {
			folders = append(folders, e.Name)
		} else {
			files = append(files, e.Name)
		}
	}

	const maxListed = 20
	var b strings.Builder
	fmt.Fprintf(&b, "%d folders, %d files\n", len(folders), len(files))
	if len(folders) > 0 {
		b.WriteString("\nFolders:\n")
		for i, name := range folders {
			if i == maxListed {
				break
			}
			fmt.Fprintf(&b, "  %s\n", name)
		}
	}
	if len(files) > 0 {
		b.WriteString("\nFiles:\n")
		for i, name := range files {
			if i == maxListed {
				break
			}
			fmt.Fprintf(&b, "  %s\n", name)
		}
	}
	if len(folders) > maxListed || len(files) > maxListed {
		b.WriteString("\n...and more")
	}
	return b.String()
}

func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
