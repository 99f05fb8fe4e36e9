package driven

import (
	"context"

	"github.com/lessonkit/refpipe/internal/core/domain"
)

// UploadTransport forwards uploaded bytes to file storage.
// Authentication is carried by the implementation.
type UploadTransport interface {
	// Upload stores the bytes and returns where they were stored.
	// Network-class failures wrap domain.ErrTransient.
	Upload(ctx context.Context, req domain.UploadRequest) (*domain.UploadReceipt, error)
}
