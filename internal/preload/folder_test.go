package preload

import (
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/justyntemme/loupe/internal/thumb"
)

var testExts = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp"}

func TestPreloadFolderFiltersToImages(t *testing.T) {
	tmpDir := t.TempDir()

	images := []string{"a.jpg", "b.png", "c.JPG", "d.webp"}
	others := []string{"notes.txt", "data.csv", "script.sh"}
	for _, name := range append(append([]string{}, images...), others...) {
		if err := os.WriteFile(filepath.Join(tmpDir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("failed to create %s: %v", name, err)
		}
	}
	if err := os.Mkdir(filepath.Join(tmpDir, "subdir.jpg"), 0o755); err != nil {
		t.Fatalf("failed to create decoy dir: %v", err)
	}

	gen := newCountingGen()
	cache := NewPixelCache(100)
	pool := NewPool(cache, gen, quietOptions())
	defer pool.Stop()

	pre := NewPreloader(pool, testExts)
	pre.PreloadFolder(tmpDir)

	// Exactly the k image files end up cached
	waitFor(t, 5*time.Second, func() bool { return cache.Len() == len(images) })
	time.Sleep(50 * time.Millisecond)

	if cache.Len() != len(images) {
		t.Errorf("expected %d cached entries, got %d", len(images), cache.Len())
	}
	for _, name := range others {
		if cache.Contains(filepath.Join(tmpDir, name)) {
			t.Errorf("non-image %s was preloaded", name)
		}
		if gen.count(filepath.Join(tmpDir, name)) != 0 {
			t.Errorf("non-image %s was decoded", name)
		}
	}
	// A directory with an image-like name must not be enqueued
	if gen.count(filepath.Join(tmpDir, "subdir.jpg")) != 0 {
		t.Error("directory with image extension was decoded")
	}
}

func TestPreloadFolderMissingDir(t *testing.T) {
	gen := newCountingGen()
	pool := NewPool(NewPixelCache(10), gen, quietOptions())
	defer pool.Stop()

	pre := NewPreloader(pool, testExts)
	pre.PreloadFolder(filepath.Join(t.TempDir(), "gone"))

	// Best-effort: no panic, nothing decoded
	time.Sleep(50 * time.Millisecond)
	if gen.total() != 0 {
		t.Errorf("expected no decodes for missing folder, got %d", gen.total())
	}
}

// TestPreloadFolderEndToEnd runs the real generator over a mixed folder:
// one large JPEG, one text file, one file with valid image extension but
// corrupt bytes. Only the JPEG lands in the cache, scaled to the long-edge
// bound.
func TestPreloadFolderEndToEnd(t *testing.T) {
	tmpDir := t.TempDir()

	jpgPath := filepath.Join(tmpDir, "a.jpg")
	f, err := os.Create(jpgPath)
	if err != nil {
		t.Fatalf("failed to create a.jpg: %v", err)
	}
	if err := jpeg.Encode(f, image.NewRGBA(image.Rect(0, 0, 2000, 1000)), nil); err != nil {
		t.Fatalf("failed to encode a.jpg: %v", err)
	}
	f.Close()

	txtPath := filepath.Join(tmpDir, "b.txt")
	if err := os.WriteFile(txtPath, []byte("plain text"), 0o644); err != nil {
		t.Fatalf("failed to create b.txt: %v", err)
	}
	corruptPath := filepath.Join(tmpDir, "c.png")
	if err := os.WriteFile(corruptPath, []byte("not a png"), 0o644); err != nil {
		t.Fatalf("failed to create c.png: %v", err)
	}

	gen := thumb.NewGenerator(400, 0, testExts)
	cache := NewPixelCache(100)
	pool := NewPool(cache, gen, quietOptions())
	defer pool.Stop()

	pre := NewPreloader(pool, testExts)
	pre.PreloadFolder(tmpDir)

	waitFor(t, 10*time.Second, func() bool { return cache.Contains(jpgPath) })
	time.Sleep(50 * time.Millisecond)

	px, ok := cache.Get(jpgPath)
	if !ok {
		t.Fatal("a.jpg missing from cache")
	}
	if px.Size.X != 400 || px.Size.Y != 200 {
		t.Errorf("expected 400x200 thumbnail, got %v", px.Size)
	}
	if cache.Contains(txtPath) {
		t.Error("b.txt was cached")
	}
	if cache.Contains(corruptPath) {
		t.Error("corrupt c.png was cached")
	}
}

func TestPacingFor(t *testing.T) {
	testCases := []struct {
		count         int
		expectedBatch int
	}{
		{1, 1},
		{20, 20},
		{21, 10},
		{50, 10},
		{51, 8},
		{200, 8},
		{201, 5},
		{500, 5},
		{501, 3},
		{5000, 3},
	}

	lastDelay := time.Duration(-1)
	for _, tc := range testCases {
		batch, delay := pacingFor(tc.count)
		if batch != tc.expectedBatch {
			t.Errorf("pacingFor(%d) batch = %d, expected %d", tc.count, batch, tc.expectedBatch)
		}
		// Delays are monotonically non-decreasing with folder size
		if delay < lastDelay {
			t.Errorf("pacingFor(%d) delay %v decreased from %v", tc.count, delay, lastDelay)
		}
		lastDelay = delay
	}
}
