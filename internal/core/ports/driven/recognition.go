package driven

import (
	"context"
	"image"
)

// Recognition is the recognised text of one image.
type Recognition struct {
	// Text is the trimmed recognised text.
	Text string

	// Confidence is normalised to [0, 1].
	Confidence float64

	// Words is the number of recognised words.
	Words int
}

// RecognitionEngine performs optical character recognition.
// Engines are expensive to start and are not assumed reentrant.
type RecognitionEngine interface {
	// Recognize returns the text found in img.
	Recognize(ctx context.Context, img image.Image) (*Recognition, error)

	// Close releases engine resources.
	Close() error
}

// RecognitionEngineFactory starts an engine. The orchestrator calls it on first
// use and again only after Close.
type RecognitionEngineFactory func(ctx context.Context) (RecognitionEngine, error)
