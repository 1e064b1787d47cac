package thumb

import (
	"image"

	"golang.org/x/image/draw"

	"github.com/justyntemme/loupe/internal/debug"
)

// Generator decodes files and downsamples them to a bounded thumbnail.
// The output is always a straight-alpha *image.RGBA so buffers are safe to
// hand across goroutines by value.
type Generator struct {
	MaxPixels   int      // Long-edge bound for thumbnails
	MaxFileSize int64    // Source byte-size ceiling, 0 = unlimited
	ImageExts   []string // Extensions treated as images
}

// NewGenerator creates a generator with the given bounds.
func NewGenerator(maxPixels int, maxFileSize int64, imageExts []string) *Generator {
	if maxPixels <= 0 {
		maxPixels = 400
	}
	return &Generator{
		MaxPixels:   maxPixels,
		MaxFileSize: maxFileSize,
		ImageExts:   imageExts,
	}
}

// Generate decodes path and returns a thumbnail no larger than MaxPixels on
// the long edge. Smaller sources are converted to RGBA without scaling.
func (g *Generator) Generate(path string) (*image.RGBA, error) {
	img, err := Decode(path, g.MaxFileSize)
	if err != nil {
		return nil, err
	}

	thumb := Scale(img, g.MaxPixels)
	debug.Log(debug.POOL_ITEM, "Generate: %s %v -> %v", path, img.Bounds().Size(), thumb.Bounds().Size())
	return thumb, nil
}

// IsImage reports whether path looks like a supported image file.
func (g *Generator) IsImage(path string) bool {
	return IsImagePath(path, g.ImageExts)
}

// ToRGBA returns src as a straight-alpha *image.RGBA, copying only when the
// source is not already in that layout.
func ToRGBA(src image.Image) *image.RGBA {
	if rgba, ok := src.(*image.RGBA); ok {
		return rgba
	}
	bounds := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), src, bounds.Min, draw.Src)
	return dst
}

// Scale converts src to RGBA, downsampling so that neither dimension exceeds
// maxPixels. Aspect ratio is preserved. Uses a fast approximate filter since
// thumbnails are previews, not archival output.
func Scale(src image.Image, maxPixels int) *image.RGBA {
	bounds := src.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if width <= maxPixels && height <= maxPixels {
		// No scaling needed, just canonicalize the pixel layout
		dst := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.Draw(dst, dst.Bounds(), src, bounds.Min, draw.Src)
		return dst
	}

	var scale float64
	if width > height {
		scale = float64(maxPixels) / float64(width)
	} else {
		scale = float64(maxPixels) / float64(height)
	}

	newWidth := int(float64(width) * scale)
	newHeight := int(float64(height) * scale)
	if newWidth < 1 {
		newWidth = 1
	}
	if newHeight < 1 {
		newHeight = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, bounds, draw.Src, nil)
	return dst
}
