// Package store persists shell session state: recently browsed folders and
// key-value settings such as the last open path. A single goroutine owns the
// connection; the UI talks to it over channels and never blocks on disk.
package store

import (
	"database/sql"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/justyntemme/loupe/internal/debug"
)

type EventType int

const (
	FetchRecents EventType = iota
	VisitFolder
	ForgetFolder
	FetchSettings
	SaveSetting
)

// maxRecents bounds the recents table; older rows are pruned on insert.
const maxRecents = 30

// KeyLastPath is the settings key holding the last visited folder.
const KeyLastPath = "last_path"

type Request struct {
	Op    EventType
	Path  string
	Key   string
	Value string
}

type Response struct {
	Op       EventType
	Recents  []string          // Folder paths, most recently visited first
	Settings map[string]string // Key-value settings
	Err      error
}

type DB struct {
	conn         *sql.DB
	RequestChan  chan Request
	ResponseChan chan Response
}

func NewDB() *DB {
	return &DB{
		RequestChan:  make(chan Request, 10),
		ResponseChan: make(chan Response, 10),
	}
}

// Open initializes the database connection and schema
func (d *DB) Open(dbPath string) error {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return err
	}

	// WAL mode allows simultaneous readers and writers
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return err
	}
	// Synchronous NORMAL is safe against app crashes, faster than FULL
	if _, err := db.Exec("PRAGMA synchronous=NORMAL;"); err != nil {
		return err
	}

	recentsQuery := `
	CREATE TABLE IF NOT EXISTS recents (
		path TEXT PRIMARY KEY,
		visits INTEGER NOT NULL DEFAULT 1,
		last_visited DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := db.Exec(recentsQuery); err != nil {
		return err
	}

	settingsQuery := `
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	if _, err := db.Exec(settingsQuery); err != nil {
		return err
	}

	d.conn = db
	return nil
}

func (d *DB) Start() {
	for req := range d.RequestChan {
		switch req.Op {
		case FetchRecents:
			d.handleFetchRecents()
		case VisitFolder:
			d.handleVisit(req.Path)
		case ForgetFolder:
			d.handleForget(req.Path)
		case FetchSettings:
			d.handleFetchSettings()
		case SaveSetting:
			d.handleSaveSetting(req.Key, req.Value)
		}
	}
}

func (d *DB) handleFetchRecents() {
	rows, err := d.conn.Query("SELECT path FROM recents ORDER BY last_visited DESC")
	if err != nil {
		d.ResponseChan <- Response{Op: FetchRecents, Err: err}
		return
	}
	defer rows.Close()

	var recents []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err == nil {
			recents = append(recents, path)
		}
	}

	d.ResponseChan <- Response{Op: FetchRecents, Recents: recents}
}

func (d *DB) handleVisit(path string) {
	_, err := d.conn.Exec(`
		INSERT INTO recents (path) VALUES (?)
		ON CONFLICT(path) DO UPDATE SET
			visits = visits + 1,
			last_visited = CURRENT_TIMESTAMP`, path)
	if err != nil {
		debug.Log(debug.STORE, "visit %s: %v", path, err)
	}
	// Prune beyond the cap, least recently visited first
	_, err = d.conn.Exec(`
		DELETE FROM recents WHERE path NOT IN (
			SELECT path FROM recents ORDER BY last_visited DESC LIMIT ?
		)`, maxRecents)
	if err != nil {
		debug.Log(debug.STORE, "prune recents: %v", err)
	}
	// Always trigger a fetch after modification to sync UI
	d.handleFetchRecents()
}

func (d *DB) handleForget(path string) {
	_, err := d.conn.Exec("DELETE FROM recents WHERE path = ?", path)
	if err != nil {
		debug.Log(debug.STORE, "forget %s: %v", path, err)
	}
	d.handleFetchRecents()
}

func (d *DB) handleFetchSettings() {
	rows, err := d.conn.Query("SELECT key, value FROM settings")
	if err != nil {
		d.ResponseChan <- Response{Op: FetchSettings, Err: err}
		return
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err == nil {
			settings[key] = value
		}
	}

	d.ResponseChan <- Response{Op: FetchSettings, Settings: settings}
}

func (d *DB) handleSaveSetting(key, value string) {
	_, err := d.conn.Exec("INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)", key, value)
	if err != nil {
		debug.Log(debug.STORE, "save setting %s: %v", key, err)
	}
	d.handleFetchSettings()
}

func (d *DB) Close() {
	if d.conn != nil {
		d.conn.Close()
	}
}
