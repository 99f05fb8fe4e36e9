package services

import (
	"context"

	"github.com/lessonkit/refpipe/internal/core/domain"
	"github.com/lessonkit/refpipe/internal/core/ports/driving"
	"github.com/lessonkit/refpipe/internal/logger"
)

// ResolveOptions starts from the provider's configured lists and replaces
// each list the caller supplied. A provider failure leaves only the
// caller's lists in place.
func ResolveOptions(
	ctx context.Context,
	provider driving.AllowListProvider,
	override domain.ValidateOptions,
) domain.ValidateOptions {
	if provider == nil {
		return override
	}

	lists, err := provider.Load(ctx)
	if err != nil {
		logger.Warn("load allow-lists: %v", err)
		return override
	}

	opts := lists.Options()
	if len(override.AllowedStandards) > 0 {
		opts.AllowedStandards = override.AllowedStandards
	}
	if len(override.AllowedSlideTypes) > 0 {
		opts.AllowedSlideTypes = override.AllowedSlideTypes
	}
	return opts
}
