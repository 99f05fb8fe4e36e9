package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/lessonkit/refpipe/internal/core/domain"
	"github.com/lessonkit/refpipe/internal/core/ports/driven"
	"github.com/lessonkit/refpipe/internal/core/ports/driving"
	"github.com/lessonkit/refpipe/internal/logger"
)

// Ensure RecognitionOrchestrator implements the interface.
var _ driving.RecognitionStatus = (*RecognitionOrchestrator)(nil)

// RecognitionOrchestrator owns the single shared recognition engine and
// sequences all recognition work through it. Only one Recognize call runs
// at a time process-wide; pages of one file are processed in order.
type RecognitionOrchestrator struct {
	factory    driven.RecognitionEngineFactory
	rasterizer driven.Rasterizer
	decoder    driven.ImageDecoder
	bounds     driven.RenderBounds

	mu     sync.Mutex
	engine driven.RecognitionEngine

	active atomic.Int64
}

// NewRecognitionOrchestrator creates an orchestrator. The engine is not
// started until the first recognition call. rasterizer and decoder may be
// nil, in which case PDFs or images respectively are unsupported.
func NewRecognitionOrchestrator(
	factory driven.RecognitionEngineFactory,
	rasterizer driven.Rasterizer,
	decoder driven.ImageDecoder,
	bounds driven.RenderBounds,
) *RecognitionOrchestrator {
	return &RecognitionOrchestrator{
		factory:    factory,
		rasterizer: rasterizer,
		decoder:    decoder,
		bounds:     bounds,
	}
}

// WithEngine runs fn with exclusive use of the engine, starting it on first use.
// The engine is released on every exit path.
func (o *RecognitionOrchestrator) WithEngine(
	ctx context.Context,
	fn func(engine driven.RecognitionEngine) error,
) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.engine == nil {
		if o.factory == nil {
			return fmt.Errorf("%w: no engine configured", domain.ErrEngineUnavailable)
		}
		engine, err := o.factory(ctx)
		if err != nil {
			return fmt.Errorf("%w: %w", domain.ErrEngineUnavailable, err)
		}
		logger.Debug("recognition engine started")
		o.engine = engine
	}

	return fn(o.engine)
}

// ActiveJobs returns the number of files currently inside recognition.
func (o *RecognitionOrchestrator) ActiveJobs() int {
	return int(o.active.Load())
}

// Close stops the engine if it was started.
func (o *RecognitionOrchestrator) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.engine == nil {
		return nil
	}
	err := o.engine.Close()
	o.engine = nil
	return err
}

// RecognizePDF renders and recognises every page of a PDF in order.
// A page that fails to render or recognise is recorded in FailedUnits and
// contributes a zero confidence sample; the remaining pages still run.
// The file fails only if the engine cannot start or every page fails.
func (o *RecognitionOrchestrator) RecognizePDF(
	ctx context.Context,
	data []byte,
	progress driven.UnitProgress,
) (*driven.ExtractionOutput, error) {
	o.active.Add(1)
	defer o.active.Add(-1)

	if o.rasterizer == nil {
		return nil, fmt.Errorf("%w: no PDF rasterizer configured", domain.ErrUnsupportedType)
	}

	doc, err := o.rasterizer.Open(data)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	total := doc.NumPages()
	out := &driven.ExtractionOutput{TotalPages: total}
	samples := make([]float64, 0, total)

	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := i + 1

		rec, err := o.recognizePage(ctx, doc, i)
		switch {
		case errors.Is(err, domain.ErrEngineUnavailable):
			return nil, err
		case err != nil:
			logger.Warn("page %d/%d: %v", page, total, err)
			out.FailedUnits = append(out.FailedUnits, page)
			samples = append(samples, 0)
		default:
			samples = append(samples, rec.Confidence)
			if rec.Text != "" {
				out.Units = append(out.Units, domain.ExtractionUnit{
					Index:  page,
					Source: domain.SourceOCRPDFPage,
					Text:   rec.Text,
					Metadata: map[string]any{
						"confidence": rec.Confidence,
						"pageLabel":  fmt.Sprintf("Page %d", page),
						"words":      rec.Words,
					},
				})
			}
		}

		if progress != nil {
			progress(page, total)
		}
	}

	if total > 0 && len(out.FailedUnits) == total {
		return nil, fmt.Errorf("all %d pages failed recognition", total)
	}

	avg := AverageConfidence(samples)
	out.Confidence = &avg
	logger.Debug("pdf recognised: %d pages, %d with text, confidence %.2f", total, len(out.Units), avg)
	return out, nil
}

// recognizePage renders outside the engine lock, then recognises under it.
func (o *RecognitionOrchestrator) recognizePage(
	ctx context.Context,
	doc driven.RasterDocument,
	index int,
) (*driven.Recognition, error) {
	img, err := doc.RenderPage(ctx, index, o.bounds)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}

	var rec *driven.Recognition
	err = o.WithEngine(ctx, func(engine driven.RecognitionEngine) error {
		var recErr error
		rec, recErr = engine.Recognize(ctx, img)
		return recErr
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// RecognizeImage decodes and recognises a standalone raster image.
func (o *RecognitionOrchestrator) RecognizeImage(
	ctx context.Context,
	data []byte,
	progress driven.UnitProgress,
) (*driven.ExtractionOutput, error) {
	o.active.Add(1)
	defer o.active.Add(-1)

	if o.decoder == nil {
		return nil, fmt.Errorf("%w: no image decoder configured", domain.ErrUnsupportedType)
	}

	img, err := o.decoder.Decode(data, o.bounds)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	var rec *driven.Recognition
	err = o.WithEngine(ctx, func(engine driven.RecognitionEngine) error {
		var recErr error
		rec, recErr = engine.Recognize(ctx, img)
		return recErr
	})
	if err != nil {
		return nil, fmt.Errorf("recognise image: %w", err)
	}

	out := &driven.ExtractionOutput{TotalPages: 1}
	if rec.Text != "" {
		out.Units = []domain.ExtractionUnit{{
			Index:  1,
			Source: domain.SourceOCRImage,
			Text:   rec.Text,
			Metadata: map[string]any{
				"confidence": rec.Confidence,
				"words":      rec.Words,
			},
		}}
	}
	conf := AverageConfidence([]float64{rec.Confidence})
	out.Confidence = &conf

	if progress != nil {
		progress(1, 1)
	}
	return out, nil
}

// AverageConfidence is the arithmetic mean of the samples, or 0 when there are none.
func AverageConfidence(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += s
	}
	return sum / float64(len(samples))
}
