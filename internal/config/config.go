package config

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// Config holds all user-configurable settings loaded from config.json
type Config struct {
	Thumbnails ThumbnailConfig `json:"thumbnails"`
	Preview    PreviewConfig   `json:"preview"`
	Pool       PoolConfig      `json:"pool"`
	Cache      CacheConfig     `json:"cache"`
	Watcher    WatcherConfig   `json:"watcher"`
}

// ThumbnailConfig holds thumbnail generation settings
type ThumbnailConfig struct {
	MaxPixels   int      `json:"maxPixels"`   // Maximum thumbnail dimension (long edge)
	MaxFileSize int64    `json:"maxFileSize"` // Reject source files larger than this (bytes)
	ImageExts   []string `json:"imageExts"`   // Extensions treated as images (lowercase, with dot)
}

// PreviewConfig holds preview pane settings
type PreviewConfig struct {
	TextExtensions  []string `json:"textExtensions"`  // Extensions to show text preview for
	MaxTextFileSize int64    `json:"maxTextFileSize"` // Max text file size to preview (bytes)
}

// PoolConfig holds preload worker pool settings
type PoolConfig struct {
	MinWorkers    int `json:"minWorkers"`    // Lower bound on worker count
	MaxWorkers    int `json:"maxWorkers"`    // Upper bound on worker count
	ThrottleEvery int `json:"throttleEvery"` // Sleep after this many items per worker
	ThrottleMs    int `json:"throttleMs"`    // Sleep duration in milliseconds
}

// CacheConfig holds cache capacity overrides.
// Zero values mean "derive from system memory".
type CacheConfig struct {
	PreloadCapacity int `json:"preloadCapacity"` // Max preload cache entries (0 = auto)
	RenderCapacity  int `json:"renderCapacity"`  // Max render-texture cache entries (0 = auto)
	MainCapacity    int `json:"mainCapacity"`    // Max main cache entries
}

// WatcherConfig holds folder watcher settings
type WatcherConfig struct {
	Enabled    bool `json:"enabled"`
	DebounceMs int  `json:"debounceMs"`
}

// Manager handles loading, saving, and accessing configuration
type Manager struct {
	mu       sync.RWMutex
	config   *Config
	path     string
	parseErr error // Stores parsing error if config failed to load
}

// NewManager creates a new configuration manager
func NewManager() *Manager {
	return &Manager{
		config: DefaultConfig(),
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Thumbnails: ThumbnailConfig{
			MaxPixels:   400,
			MaxFileSize: 50 * 1024 * 1024, // 50MB
			ImageExts:   []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp", ".tiff", ".tif", ".heic", ".heif"},
		},
		Preview: PreviewConfig{
			TextExtensions:  []string{".txt", ".json", ".csv", ".md", ".log", ".xml", ".yaml", ".yml", ".toml", ".ini", ".conf", ".cfg", ".go", ".rs", ".py", ".js", ".html", ".css"},
			MaxTextFileSize: 1024 * 1024, // 1MB
		},
		Pool: PoolConfig{
			MinWorkers:    2,
			MaxWorkers:    8,
			ThrottleEvery: 30,
			ThrottleMs:    50,
		},
		Cache: CacheConfig{
			PreloadCapacity: 0, // auto
			RenderCapacity:  0, // auto
			MainCapacity:    100,
		},
		Watcher: WatcherConfig{
			Enabled:    true,
			DebounceMs: 200,
		},
	}
}

// ConfigPath returns the config file path: ~/.config/loupe/config.json
// This is consistent across all platforms (Windows, macOS, Linux)
func ConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "loupe", "config.json")
}

// Load reads the configuration from the config file
// If the file doesn't exist, creates it with defaults
// If parsing fails, stores the error and returns defaults
func (m *Manager) Load() error {
	return m.loadFrom(ConfigPath())
}

func (m *Manager) loadFrom(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.path = path
	m.parseErr = nil

	// Ensure config directory exists
	configDir := filepath.Dir(m.path)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		log.Printf("Config: failed to create directory %s: %v", configDir, err)
		return err
	}

	// Try to read existing config
	data, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		// Create default config file
		m.config = DefaultConfig()
		if saveErr := m.saveUnlocked(); saveErr != nil {
			log.Printf("Config: failed to save default config: %v", saveErr)
			return saveErr
		}
		return nil
	}
	if err != nil {
		log.Printf("Config: failed to read %s: %v", m.path, err)
		return err
	}

	// Parse JSON
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		// Store error for display, use defaults
		log.Printf("Config: JSON parse error: %v", err)
		m.parseErr = err
		m.config = DefaultConfig()
		return nil // Don't return error - we're using defaults
	}

	m.config = &cfg
	return nil
}

// saveUnlocked saves config without acquiring lock (caller must hold lock)
func (m *Manager) saveUnlocked() error {
	data, err := json.MarshalIndent(m.config, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(m.path, data, 0o644)
}

// Save writes the current configuration to disk
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveUnlocked()
}

// Get returns a copy of the current configuration
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return *m.config
}

// ParseError returns the parse error from the last Load, if any
func (m *Manager) ParseError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.parseErr
}
