package thumb

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// writePNG writes a width x height test PNG to dir and returns its path.
func writePNG(t *testing.T, dir, name string, width, height int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return path
}

func TestGenerateScalesLongEdge(t *testing.T) {
	tmpDir := t.TempDir()
	path := writePNG(t, tmpDir, "wide.png", 2000, 1000)

	g := NewGenerator(400, 0, []string{".png"})
	thumb, err := g.Generate(path)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	size := thumb.Bounds().Size()
	if size.X != 400 || size.Y != 200 {
		t.Errorf("expected 400x200 thumbnail, got %dx%d", size.X, size.Y)
	}
}

func TestGenerateKeepsSmallImages(t *testing.T) {
	tmpDir := t.TempDir()
	path := writePNG(t, tmpDir, "small.png", 100, 80)

	g := NewGenerator(400, 0, []string{".png"})
	thumb, err := g.Generate(path)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	size := thumb.Bounds().Size()
	if size.X != 100 || size.Y != 80 {
		t.Errorf("expected unscaled 100x80, got %dx%d", size.X, size.Y)
	}
}

func TestGenerateCorruptFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "corrupt.png")
	if err := os.WriteFile(path, []byte("\x89PNG\r\n\x1a\nnot really a png"), 0o644); err != nil {
		t.Fatalf("failed to write corrupt file: %v", err)
	}

	g := NewGenerator(400, 0, []string{".png"})
	_, err := g.Generate(path)
	if err == nil {
		t.Fatal("expected decode error for corrupt file")
	}

	var derr *DecodeError
	if !errors.As(err, &derr) {
		t.Fatalf("expected *DecodeError, got %T", err)
	}
	if derr.Reason != ReasonDecode {
		t.Errorf("expected ReasonDecode, got %d", derr.Reason)
	}
}

func TestGenerateMissingFile(t *testing.T) {
	g := NewGenerator(400, 0, []string{".png"})
	_, err := g.Generate(filepath.Join(t.TempDir(), "nope.png"))

	var derr *DecodeError
	if !errors.As(err, &derr) {
		t.Fatalf("expected *DecodeError, got %T (%v)", err, err)
	}
	if derr.Reason != ReasonOpen {
		t.Errorf("expected ReasonOpen, got %d", derr.Reason)
	}
}

func TestGenerateByteCeiling(t *testing.T) {
	tmpDir := t.TempDir()
	path := writePNG(t, tmpDir, "big.png", 500, 500)

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}

	g := NewGenerator(400, info.Size()-1, []string{".png"})
	_, err = g.Generate(path)

	var derr *DecodeError
	if !errors.As(err, &derr) {
		t.Fatalf("expected *DecodeError, got %T (%v)", err, err)
	}
	if derr.Reason != ReasonTooLarge {
		t.Errorf("expected ReasonTooLarge, got %d", derr.Reason)
	}
}

func TestScaleTallImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 300, 900))
	dst := Scale(src, 400)

	size := dst.Bounds().Size()
	if size.Y != 400 {
		t.Errorf("expected long edge 400, got %d", size.Y)
	}
	if size.X != 133 {
		t.Errorf("expected width 133, got %d", size.X)
	}
}

func TestIsImagePath(t *testing.T) {
	exts := []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp"}

	testCases := []struct {
		path     string
		expected bool
	}{
		{"/photos/a.jpg", true},
		{"/photos/A.JPG", true},
		{"/photos/b.jpeg", true},
		{"/photos/c.PNG", true},
		{"/photos/notes.txt", false},
		{"/photos/archive.tar.gz", false},
		{"/photos/noext", false},
		{"/photos/.hidden", false},
		{"", false},
	}

	for _, tc := range testCases {
		if got := IsImagePath(tc.path, exts); got != tc.expected {
			t.Errorf("IsImagePath(%q): expected %v, got %v", tc.path, tc.expected, got)
		}
	}
}

func TestIsImagePathUppercaseConfiguredExt(t *testing.T) {
	// A hand-edited config may carry uppercase extensions
	if !IsImagePath("/photos/a.png", []string{".PNG"}) {
		t.Error("uppercase configured extension did not match lowercase file")
	}
	if !IsImagePath("/photos/B.JPG", []string{".Jpg"}) {
		t.Error("mixed-case configured extension did not match uppercase file")
	}
}
