// Package fs lists directories for the shell and the folder preloader.
package fs

import (
	"io/fs"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charlievieth/fastwalk"

	"github.com/justyntemme/loupe/internal/debug"
)

type OpType int

const (
	FetchDir OpType = iota
)

type Request struct {
	Op   OpType
	Path string
	Gen  int64 // Generation counter to track stale requests
}

type Entry struct {
	Name    string
	Path    string
	IsDir   bool
	Size    int64
	ModTime time.Time
}

type Response struct {
	Op      OpType
	Path    string
	Entries []Entry
	Err     error
	Gen     int64 // Generation counter from request
}

// System serves directory listings over channels so the UI thread never
// touches the disk directly.
type System struct {
	RequestChan  chan Request
	ResponseChan chan Response
}

func NewSystem() *System {
	return &System{
		RequestChan:  make(chan Request, 10),
		ResponseChan: make(chan Response, 10),
	}
}

// Start processes requests until RequestChan is closed.
func (s *System) Start() {
	for req := range s.RequestChan {
		debug.Log(debug.SCAN, "Request: op=%d path=%q gen=%d", req.Op, req.Path, req.Gen)

		switch req.Op {
		case FetchDir:
			entries, err := List(req.Path)
			debug.Log(debug.SCAN, "FetchDir response: path=%q entries=%d gen=%d err=%v",
				req.Path, len(entries), req.Gen, err)
			s.ResponseChan <- Response{Op: FetchDir, Path: req.Path, Entries: entries, Err: err, Gen: req.Gen}
		}
	}
}

// Stop closes the request channel; Start returns after draining it.
func (s *System) Stop() {
	close(s.RequestChan)
}

// List returns the direct children of path, sorted directories-first by name.
// Per-entry errors are skipped; the listing is best-effort.
func List(path string) ([]Entry, error) {
	var result []Entry
	var mu sync.Mutex

	conf := &fastwalk.Config{
		Follow: true, // Follow symlinks to get target info
	}

	pathLen := len(path)

	err := fastwalk.Walk(conf, path, func(fullPath string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Skip errors, continue walking
		}

		// Skip the root directory itself
		if fullPath == path {
			return nil
		}

		// Only process direct children (depth 1).
		// fullPath starts with path, so check if the remainder has separators.
		relStart := pathLen
		if relStart < len(fullPath) && (fullPath[relStart] == '/' || fullPath[relStart] == '\\') {
			relStart++
		}
		rel := fullPath[relStart:]
		if strings.ContainsAny(rel, "/\\") {
			// Nested entry: skip it and don't recurse further
			if d.IsDir() {
				return fastwalk.SkipDir
			}
			return nil
		}

		info, infoErr := d.Info()
		entry := Entry{
			Name:  rel,
			Path:  fullPath,
			IsDir: d.IsDir(),
		}
		if infoErr == nil {
			entry.Size = info.Size()
			entry.ModTime = info.ModTime()
		}

		mu.Lock()
		result = append(result, entry)
		mu.Unlock()

		if d.IsDir() {
			return fastwalk.SkipDir
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].IsDir != result[j].IsDir {
			return result[i].IsDir
		}
		return strings.ToLower(result[i].Name) < strings.ToLower(result[j].Name)
	})

	return result, nil
}
