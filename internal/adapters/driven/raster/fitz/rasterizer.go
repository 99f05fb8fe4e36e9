// Package fitz renders PDF pages with MuPDF through go-fitz.
package fitz

import (
	"context"
	"fmt"
	"image"
	"math"
	"sync"

	"github.com/gen2brain/go-fitz"

	"github.com/lessonkit/refpipe/internal/core/domain"
	"github.com/lessonkit/refpipe/internal/core/ports/driven"
)

// pointsPerInch is the PDF user-space unit.
const pointsPerInch = 72.0

// Ensure Rasterizer implements the interface.
var _ driven.Rasterizer = (*Rasterizer)(nil)

// Rasterizer opens PDFs from memory.
type Rasterizer struct{}

// New creates a rasterizer.
func New() *Rasterizer {
	return &Rasterizer{}
}

// Open parses the document. The caller must Close the result.
func (r *Rasterizer) Open(data []byte) (driven.RasterDocument, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty pdf", domain.ErrInvalidInput)
	}
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("%w: opening pdf: %w", domain.ErrInvalidInput, err)
	}
	return &document{doc: doc}, nil
}

// document wraps a MuPDF document. MuPDF contexts are not reentrant,
// so rendering is serialised.
type document struct {
	mu     sync.Mutex
	doc    *fitz.Document
	closed bool
}

func (d *document) NumPages() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return 0
	}
	return d.doc.NumPage()
}

// RenderPage renders the 0-based page scaled to fit bounds.
func (d *document) RenderPage(ctx context.Context, index int, bounds driven.RenderBounds) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, fmt.Errorf("%w: document closed", domain.ErrInvalidInput)
	}
	if index < 0 || index >= d.doc.NumPage() {
		return nil, fmt.Errorf("%w: page %d out of range", domain.ErrInvalidInput, index+1)
	}

	rect, err := d.doc.Bound(index)
	if err != nil {
		return nil, fmt.Errorf("reading page %d bounds: %w", index+1, err)
	}

	scale := RenderScale(rect.Dx(), rect.Dy(), bounds)
	img, err := d.doc.ImageDPI(index, pointsPerInch*scale)
	if err != nil {
		return nil, fmt.Errorf("rendering page %d: %w", index+1, err)
	}
	return img, nil
}

func (d *document) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return d.doc.Close()
}

// RenderScale returns min(MaxScale, MaxDimension / max(width, height)) for
// a page measured in points. Unset bounds leave the page at native size.
func RenderScale(width, height int, bounds driven.RenderBounds) float64 {
	longest := math.Max(float64(width), float64(height))
	scale := bounds.MaxScale
	if scale <= 0 {
		scale = 1
	}
	if bounds.MaxDimension > 0 && longest > 0 {
		scale = math.Min(scale, float64(bounds.MaxDimension)/longest)
	}
	return scale
}
