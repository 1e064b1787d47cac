package preview

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gioui.org/op/paint"
)

func statSize(t *testing.T, path string) (int64, time.Time) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat %s: %v", path, err)
	}
	return info.Size(), info.ModTime()
}

func TestMainCacheHit(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeFile(t, tmpDir, "a.jpg", 100)
	size, mod := statSize(t, path)

	mc := newMainCache(10)
	mc.put(path, paint.ImageOp{}, image.Pt(40, 20), size, mod)

	_, got, ok := mc.get(path)
	if !ok {
		t.Fatal("expected hit for unchanged file")
	}
	if got != image.Pt(40, 20) {
		t.Errorf("expected 40x20, got %v", got)
	}
}

func TestMainCacheRemove(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeFile(t, tmpDir, "a.jpg", 100)
	size, mod := statSize(t, path)

	mc := newMainCache(10)
	mc.put(path, paint.ImageOp{}, image.Pt(40, 20), size, mod)
	mc.remove(path)

	if _, _, ok := mc.get(path); ok {
		t.Error("expected miss after remove")
	}

	// Removing an absent path is a no-op
	mc.remove(filepath.Join(tmpDir, "missing.jpg"))
}

func TestMainCacheStaleOnSizeChange(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeFile(t, tmpDir, "a.jpg", 100)
	size, mod := statSize(t, path)

	mc := newMainCache(10)
	mc.put(path, paint.ImageOp{}, image.Pt(40, 20), size, mod)

	// Rewrite the file with a different size
	if err := os.WriteFile(path, make([]byte, 200), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	if _, _, ok := mc.get(path); ok {
		t.Error("expected miss after on-disk size changed")
	}
	// The stale entry is dropped, not just skipped
	if mc.len() != 0 {
		t.Errorf("stale entry retained: len=%d", mc.len())
	}
}

func TestMainCacheMissOnDeletedFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeFile(t, tmpDir, "a.jpg", 100)
	size, mod := statSize(t, path)

	mc := newMainCache(10)
	mc.put(path, paint.ImageOp{}, image.Pt(40, 20), size, mod)

	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, _, ok := mc.get(path); ok {
		t.Error("expected miss for deleted file")
	}
}

func TestMainCacheTrim(t *testing.T) {
	tmpDir := t.TempDir()
	mc := newMainCache(10)

	paths := make([]string, 11)
	for i := range paths {
		paths[i] = writeFile(t, tmpDir, fmt.Sprintf("img%02d.jpg", i), 100)
		size, mod := statSize(t, paths[i])
		mc.put(paths[i], paint.ImageOp{}, image.Pt(1, 1), size, mod)
	}

	if mc.len() > 10 {
		t.Errorf("cache grew past capacity: len=%d", mc.len())
	}
	// Trim removes the lexicographically first fifth of the keys
	if _, _, ok := mc.get(filepath.Join(tmpDir, "img00.jpg")); ok {
		t.Error("lexicographically first entry survived trim")
	}
	if _, _, ok := mc.get(paths[10]); !ok {
		t.Error("most recent insert missing after trim")
	}
}

func TestMainCacheKeyNormalization(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeFile(t, tmpDir, "a.jpg", 100)
	size, mod := statSize(t, path)

	mc := newMainCache(10)
	mc.put(path, paint.ImageOp{}, image.Pt(1, 1), size, mod)

	alias := filepath.Join(tmpDir, ".", "a.jpg")
	if _, _, ok := mc.get(alias); !ok {
		t.Error("expected hit via non-canonical alias of the same path")
	}
}
