// Package thumb decodes image files and produces bounded RGBA thumbnails.
package thumb

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/justyntemme/loupe/internal/debug"
)

// Reason classifies why a decode failed
type Reason int

const (
	ReasonOpen        Reason = iota // File could not be opened or stat'd
	ReasonTooLarge                  // Source file exceeds the byte-size ceiling
	ReasonDecode                    // Corrupt or undecodable image data
	ReasonUnsupported               // Format not supported on this platform
)

// DecodeError is the typed error returned for any decode failure.
// Background workers log and drop it; the preview pane renders its message.
type DecodeError struct {
	Path   string
	Reason Reason
	Err    error
}

func (e *DecodeError) Error() string {
	switch e.Reason {
	case ReasonOpen:
		return fmt.Sprintf("cannot open %s: %v", filepath.Base(e.Path), e.Err)
	case ReasonTooLarge:
		return fmt.Sprintf("%s is too large to preview", filepath.Base(e.Path))
	case ReasonUnsupported:
		return fmt.Sprintf("%s: format not supported on this platform", filepath.Base(e.Path))
	default:
		return fmt.Sprintf("cannot decode %s: %v", filepath.Base(e.Path), e.Err)
	}
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Decode reads and decodes an image file. Files larger than maxFileSize bytes
// are rejected before any decode work. maxFileSize <= 0 disables the check.
func Decode(path string, maxFileSize int64) (image.Image, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Reason: ReasonOpen, Err: err}
	}
	if maxFileSize > 0 && info.Size() > maxFileSize {
		debug.Log(debug.PREVIEW, "Decode: rejecting %s (%d bytes over %d ceiling)", path, info.Size(), maxFileSize)
		return nil, &DecodeError{Path: path, Reason: ReasonTooLarge}
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Reason: ReasonOpen, Err: err}
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".heic" || ext == ".heif" {
		if !heicSupported() {
			return nil, &DecodeError{Path: path, Reason: ReasonUnsupported}
		}
		img, err := decodeHEIC(file)
		if err != nil {
			return nil, &DecodeError{Path: path, Reason: ReasonDecode, Err: err}
		}
		return img, nil
	}

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, &DecodeError{Path: path, Reason: ReasonDecode, Err: err}
	}
	return img, nil
}

// IsImagePath reports whether path has one of the given image extensions.
// Extensions are matched case-insensitively and must include the leading dot.
func IsImagePath(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return false
	}
	for _, e := range exts {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}
