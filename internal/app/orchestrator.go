// Package app owns the window event loop and wires the browser shell to the
// preview pipeline, the filesystem worker, and the session store.
package app

import (
	"log"
	"os"
	"path/filepath"
	"strings"

	"gioui.org/app"
	"gioui.org/op"
	"gioui.org/widget"
	"gioui.org/widget/material"

	"github.com/justyntemme/loupe/internal/config"
	"github.com/justyntemme/loupe/internal/debug"
	"github.com/justyntemme/loupe/internal/fs"
	"github.com/justyntemme/loupe/internal/preview"
	"github.com/justyntemme/loupe/internal/store"
	"github.com/justyntemme/loupe/internal/watch"
)

type Orchestrator struct {
	window  *app.Window
	cfg     config.Config
	fs      *fs.System
	store   *store.DB
	preview *preview.Preview
	watcher *watch.FolderWatcher
	theme   *material.Theme

	// Browser state; mutated by processEvents and read by the frame loop,
	// same ownership model the channel workers rely on
	currentPath string
	entries     []fs.Entry
	selected    int
	recents     []string
	gen         int64 // Listing generation; stale responses are discarded

	history      []string
	historyIndex int

	// Whether the start path came from the command line. If not, the
	// session store's last path wins once settings arrive.
	explicitStart bool
	restored      bool

	// Widgets
	fileList    widget.List
	recentList  widget.List
	rows        []rowWidget
	recentRows  []widget.Clickable
	backBtn     widget.Clickable
	upBtn       widget.Clickable
	refreshBtn  widget.Clickable
}

type rowWidget struct {
	click widget.Clickable
}

func NewOrchestrator(cfg config.Config) *Orchestrator {
	o := &Orchestrator{
		window:       new(app.Window),
		cfg:          cfg,
		fs:           fs.NewSystem(),
		store:        store.NewDB(),
		theme:        material.NewTheme(),
		selected:     -1,
		historyIndex: -1,
	}
	o.preview = preview.New(cfg, o.window.Invalidate)
	return o
}

func (o *Orchestrator) Run(startPath string) error {
	configDir, _ := os.UserConfigDir()
	if err := o.store.Open(filepath.Join(configDir, "loupe", "loupe.db")); err != nil {
		log.Printf("Failed to open session store: %v", err)
	}
	defer o.store.Close()

	if o.cfg.Watcher.Enabled {
		if w, err := watch.NewFolderWatcher(o.preview, o.cfg.Thumbnails.ImageExts, o.cfg.Watcher.DebounceMs); err != nil {
			log.Printf("Folder watching disabled: %v", err)
		} else {
			o.watcher = w
			defer o.watcher.Close()
		}
	}

	go o.fs.Start()
	go o.store.Start()
	go o.processEvents()

	o.store.RequestChan <- store.Request{Op: store.FetchSettings}
	o.store.RequestChan <- store.Request{Op: store.FetchRecents}

	o.explicitStart = startPath != ""
	if startPath == "" {
		if home, err := os.UserHomeDir(); err == nil {
			startPath = home
		} else {
			startPath, _ = os.Getwd()
		}
	}
	o.navigate(startPath)

	defer o.preview.Cleanup()

	var ops op.Ops
	for {
		switch e := o.window.Event().(type) {
		case app.DestroyEvent:
			return e.Err
		case app.FrameEvent:
			gtx := app.NewContext(&ops, e)
			o.preview.Update()
			o.layout(gtx)
			e.Frame(gtx.Ops)
		}
	}
}

// navigate moves the browser to path and kicks off the folder's bulk preload.
func (o *Orchestrator) navigate(path string) {
	if o.historyIndex >= 0 && o.historyIndex < len(o.history)-1 {
		o.history = o.history[:o.historyIndex+1]
	}
	o.history = append(o.history, path)
	o.historyIndex = len(o.history) - 1
	o.requestDir(path)
	o.activateFolder(path)
}

// activateFolder makes path the active folder: bulk thumbnail preload, the
// watcher's target, and the session store's last path. Every way of arriving
// at a folder goes through here, history moves included.
func (o *Orchestrator) activateFolder(path string) {
	o.preview.PreloadFolder(path)
	if o.watcher != nil {
		if err := o.watcher.SetFolder(path); err != nil {
			debug.Log(debug.WATCH, "cannot watch %s: %v", path, err)
		}
	}
	o.store.RequestChan <- store.Request{Op: store.VisitFolder, Path: path}
	o.store.RequestChan <- store.Request{Op: store.SaveSetting, Key: store.KeyLastPath, Value: path}
}

func (o *Orchestrator) goBack() {
	if o.historyIndex > 0 {
		o.historyIndex--
		path := o.history[o.historyIndex]
		o.requestDir(path)
		o.activateFolder(path)
	}
}

func (o *Orchestrator) goUp() {
	parent := filepath.Dir(o.currentPath)
	if parent != o.currentPath {
		o.navigate(parent)
	}
}

func (o *Orchestrator) requestDir(path string) {
	o.selected = -1
	o.preview.Clear()
	o.gen++
	o.fs.RequestChan <- fs.Request{Op: fs.FetchDir, Path: path, Gen: o.gen}
}

func (o *Orchestrator) selectEntry(i int) {
	if i < 0 || i >= len(o.entries) {
		return
	}
	o.selected = i
	o.preview.LoadPreview(o.entries[i].Path)
	o.window.Invalidate()
}

func (o *Orchestrator) processEvents() {
	for {
		select {
		case resp := <-o.fs.ResponseChan:
			o.handleFSResponse(resp)
		case resp := <-o.store.ResponseChan:
			o.handleStoreResponse(resp)
		}
	}
}

func (o *Orchestrator) handleFSResponse(resp fs.Response) {
	if resp.Gen != o.gen {
		debug.Log(debug.APP, "discarding stale listing for %s (gen %d, want %d)", resp.Path, resp.Gen, o.gen)
		return
	}
	if resp.Err != nil {
		log.Printf("Listing error for %s: %v", resp.Path, resp.Err)
		return
	}

	entries := make([]fs.Entry, 0, len(resp.Entries))
	for _, e := range resp.Entries {
		if strings.HasPrefix(e.Name, ".") {
			continue
		}
		entries = append(entries, e)
	}

	o.currentPath = resp.Path
	o.entries = entries
	if o.selected >= len(o.entries) {
		o.selected = -1
	}
	if len(o.rows) < len(o.entries) {
		o.rows = append(o.rows, make([]rowWidget, len(o.entries)-len(o.rows))...)
	}
	o.window.Invalidate()
}

func (o *Orchestrator) handleStoreResponse(resp store.Response) {
	if resp.Err != nil {
		log.Printf("Store error: %v", resp.Err)
		return
	}

	switch resp.Op {
	case store.FetchRecents, store.VisitFolder, store.ForgetFolder:
		o.recents = resp.Recents
		if len(o.recentRows) < len(o.recents) {
			o.recentRows = append(o.recentRows, make([]widget.Clickable, len(o.recents)-len(o.recentRows))...)
		}
	case store.FetchSettings, store.SaveSetting:
		if o.restored || o.explicitStart {
			break
		}
		o.restored = true
		if last, ok := resp.Settings[store.KeyLastPath]; ok && last != o.currentPath {
			if info, err := os.Stat(last); err == nil && info.IsDir() {
				debug.Log(debug.APP, "restoring last session path %s", last)
				o.navigate(last)
			}
		}
	}
	o.window.Invalidate()
}

func Main(startPath string) {
	go func() {
		cfgMgr := config.NewManager()
		if err := cfgMgr.Load(); err != nil {
			log.Printf("Using default configuration: %v", err)
		}

		o := NewOrchestrator(cfgMgr.Get())
		if err := o.Run(startPath); err != nil {
			log.Fatal(err)
		}
		os.Exit(0)
	}()
	app.Main()
}
