package driving

import (
	"context"

	"github.com/lessonkit/refpipe/internal/core/domain"
)

// ValidationService checks generated stage output against its contract.
type ValidationService interface {
	// Validate never fails; problems are reported in the result.
	Validate(callType domain.CallType, payload []byte, opts domain.ValidateOptions) *domain.ValidationResult
}

// PlanService assembles validated slide plans.
type PlanService interface {
	// Assemble validates a slide_plan payload and builds the ordered deck plan.
	// The plan is nil when the result is invalid.
	Assemble(ctx context.Context, payload []byte, opts domain.ValidateOptions) (*domain.AssembledPlan, *domain.ValidationResult)
}

// AllowListProvider supplies the configured default allow-lists.
type AllowListProvider interface {
	// Load reads the current lists. Callers merge per-request overrides on top.
	Load(ctx context.Context) (*domain.AllowLists, error)
}
