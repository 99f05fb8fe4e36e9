// Package ocr provides the recognition-backed extractors for scanned PDFs
// and raster images.
package ocr

import (
	"context"
	"fmt"

	"github.com/lessonkit/refpipe/internal/core/domain"
	"github.com/lessonkit/refpipe/internal/core/ports/driven"
	"github.com/lessonkit/refpipe/internal/logger"
)

// Recognizer runs optical recognition over whole files.
// Implemented by services.RecognitionOrchestrator.
type Recognizer interface {
	RecognizePDF(ctx context.Context, data []byte, progress driven.UnitProgress) (*driven.ExtractionOutput, error)
	RecognizeImage(ctx context.Context, data []byte, progress driven.UnitProgress) (*driven.ExtractionOutput, error)
}

// Ensure extractors implement the interface.
var (
	_ driven.Extractor = (*PDFExtractor)(nil)
	_ driven.Extractor = (*ImageExtractor)(nil)
)

// PDFExtractor recognises every page of a PDF.
type PDFExtractor struct {
	recognizer Recognizer
	inspector  driven.PDFInspector
}

// NewPDFExtractor creates a PDF extractor. inspector may be nil, in which
// case PDFs go straight to the rasterizer.
func NewPDFExtractor(recognizer Recognizer, inspector driven.PDFInspector) *PDFExtractor {
	return &PDFExtractor{recognizer: recognizer, inspector: inspector}
}

// Name returns the extractor name.
func (e *PDFExtractor) Name() string {
	return "ocr-pdf"
}

// Kinds returns the file kinds this extractor handles.
func (e *PDFExtractor) Kinds() []domain.FileKind {
	return []domain.FileKind{domain.KindPDF}
}

// Extract validates the PDF, then renders and recognises it page by page.
func (e *PDFExtractor) Extract(
	ctx context.Context,
	in driven.ExtractionInput,
	progress driven.UnitProgress,
) (*driven.ExtractionOutput, error) {
	var info *driven.PDFInfo
	if e.inspector != nil {
		var err error
		info, err = e.inspector.Inspect(in.Content)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
		}
		if info.Encrypted {
			return nil, fmt.Errorf("%w: %s is encrypted", domain.ErrInvalidInput, in.Name)
		}
		logger.Debug("%s: %d pages", in.Name, info.PageCount)
	}

	out, err := e.recognizer.RecognizePDF(ctx, in.Content, progress)
	if err != nil {
		return nil, err
	}

	if info != nil && info.Title != "" {
		for i := range out.Units {
			if out.Units[i].Metadata == nil {
				out.Units[i].Metadata = make(map[string]any)
			}
			out.Units[i].Metadata["documentTitle"] = info.Title
		}
	}
	return out, nil
}

// ImageExtractor recognises a single raster image.
type ImageExtractor struct {
	recognizer Recognizer
}

// NewImageExtractor creates an image extractor.
func NewImageExtractor(recognizer Recognizer) *ImageExtractor {
	return &ImageExtractor{recognizer: recognizer}
}

// Name returns the extractor name.
func (e *ImageExtractor) Name() string {
	return "ocr-image"
}

// Kinds returns the file kinds this extractor handles.
func (e *ImageExtractor) Kinds() []domain.FileKind {
	return []domain.FileKind{domain.KindImage}
}

// Extract recognises the image as one unit.
func (e *ImageExtractor) Extract(
	ctx context.Context,
	in driven.ExtractionInput,
	progress driven.UnitProgress,
) (*driven.ExtractionOutput, error) {
	return e.recognizer.RecognizeImage(ctx, in.Content, progress)
}
