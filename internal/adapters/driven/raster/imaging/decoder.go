// Package imaging decodes raster images for recognition and downscales
// oversized ones.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // GIF decoder
	_ "image/jpeg" // JPEG decoder
	_ "image/png"  // PNG decoder
	"math"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"  // BMP decoder
	_ "golang.org/x/image/tiff" // TIFF decoder
	_ "golang.org/x/image/webp" // WebP decoder

	"github.com/lessonkit/refpipe/internal/core/domain"
	"github.com/lessonkit/refpipe/internal/core/ports/driven"
)

// Ensure Decoder implements the interface.
var _ driven.ImageDecoder = (*Decoder)(nil)

// Decoder decodes any registered image format.
type Decoder struct{}

// New creates a decoder.
func New() *Decoder {
	return &Decoder{}
}

// Decode returns the image, downscaled to fit bounds when oversized.
// Images are never upscaled.
func (d *Decoder) Decode(data []byte, bounds driven.RenderBounds) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty image", domain.ErrInvalidInput)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decoding image: %w", domain.ErrInvalidInput, err)
	}

	w, h := Fit(img.Bounds().Dx(), img.Bounds().Dy(), bounds.MaxDimension)
	if w == img.Bounds().Dx() && h == img.Bounds().Dy() {
		return img, nil
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return dst, nil
}

// Fit returns the size of a w×h image scaled so its longest side is at most
// maxDim. Sizes already within the bound are returned unchanged.
func Fit(w, h, maxDim int) (int, int) {
	longest := max(w, h)
	if maxDim <= 0 || longest <= maxDim {
		return w, h
	}
	scale := float64(maxDim) / float64(longest)
	nw := max(1, int(math.Round(float64(w)*scale)))
	nh := max(1, int(math.Round(float64(h)*scale)))
	return nw, nh
}
