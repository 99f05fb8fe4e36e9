package driven

import (
	"context"
	"image"
)

// RenderBounds limits the pixel size of rendered pages and decoded images.
type RenderBounds struct {
	// MaxDimension bounds the longest side, in pixels.
	MaxDimension int

	// MaxScale caps the scale relative to native size.
	MaxScale float64
}

// Rasterizer opens paged documents for rendering.
type Rasterizer interface {
	// Open parses the document. The caller must Close the result.
	Open(data []byte) (RasterDocument, error)
}

// RasterDocument renders the pages of an open document one at a time.
// It reuses a single drawing surface and is not safe for concurrent use.
type RasterDocument interface {
	// NumPages returns the page count.
	NumPages() int

	// RenderPage renders the 0-based page within bounds.
	RenderPage(ctx context.Context, index int, bounds RenderBounds) (image.Image, error)

	// Close releases the document.
	Close() error
}

// ImageDecoder decodes raster image files.
type ImageDecoder interface {
	// Decode returns the image, downscaled to fit bounds when oversized.
	Decode(data []byte, bounds RenderBounds) (image.Image, error)
}

// PDFInfo is what a PDF inspection reports before rendering.
type PDFInfo struct {
	PageCount int
	Title     string
	Author    string
	Encrypted bool
}

// PDFInspector validates a PDF and reads its page count and document info.
type PDFInspector interface {
	Inspect(data []byte) (*PDFInfo, error)
}
