package driving

import (
	"context"

	"github.com/lessonkit/refpipe/internal/core/domain"
)

// IngestionService turns uploaded items into extraction results.
type IngestionService interface {
	// Ingest extracts one uploaded item. Archives yield one result per member.
	// Per-member failures are returned as error-status results, not as err.
	Ingest(ctx context.Context, item domain.UploadItem, progress domain.ProgressFunc) ([]domain.ExtractionResult, error)

	// Result returns the stored result for a file.
	Result(ctx context.Context, fileID string) (*domain.ExtractionResult, error)

	// Results returns all stored results for a lesson.
	Results(ctx context.Context, lessonID string) ([]domain.ExtractionResult, error)
}

// RecognitionStatus reports the recognition engine's in-flight load.
type RecognitionStatus interface {
	// ActiveJobs is the number of files currently inside recognition.
	ActiveJobs() int
}
