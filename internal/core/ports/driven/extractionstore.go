package driven

import (
	"context"

	"github.com/lessonkit/refpipe/internal/core/domain"
)

// ExtractionStore persists extraction results and their chunks.
type ExtractionStore interface {
	// Save stores or replaces a result and its chunks.
	Save(ctx context.Context, result *domain.ExtractionResult) error

	// Get retrieves a result by file ID, or domain.ErrNotFound.
	Get(ctx context.Context, fileID string) (*domain.ExtractionResult, error)

	// ListByLesson returns all results for a lesson, oldest first.
	ListByLesson(ctx context.Context, lessonID string) ([]domain.ExtractionResult, error)
}
