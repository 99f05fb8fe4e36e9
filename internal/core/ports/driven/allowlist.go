package driven

import (
	"context"

	"github.com/lessonkit/refpipe/internal/core/domain"
)

// AllowListSource supplies default allow-lists for validation surfaces.
type AllowListSource interface {
	Load(ctx context.Context) (*domain.AllowLists, error)
}
