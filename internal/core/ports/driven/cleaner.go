package driven

import (
	"context"

	"github.com/lessonkit/refpipe/internal/core/domain"
)

// TextCleaner rewrites unit text before chunking (e.g. whitespace, control characters).
// Cleaners are chained in a pipeline.
type TextCleaner interface {
	// Name returns the cleaner name for logging and configuration.
	Name() string

	// Clean returns the cleaned units. Units must keep their index and source.
	Clean(ctx context.Context, units []domain.ExtractionUnit) ([]domain.ExtractionUnit, error)
}

// TextCleanerPipeline chains multiple TextCleaners.
type TextCleanerPipeline interface {
	// Clean runs the units through all cleaners in order.
	Clean(ctx context.Context, units []domain.ExtractionUnit) ([]domain.ExtractionUnit, error)
}
