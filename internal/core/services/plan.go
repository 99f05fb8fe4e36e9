package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lessonkit/refpipe/internal/core/domain"
	"github.com/lessonkit/refpipe/internal/core/ports/driving"
	"github.com/lessonkit/refpipe/internal/logger"
)

// Ensure PlanAssembler implements the interface.
var _ driving.PlanService = (*PlanAssembler)(nil)

// PlanAssembler builds the ordered deck plan from a validated slide_plan payload.
// Invalid plans are rejected, never repaired; repair goes through the
// json_repair contract.
type PlanAssembler struct {
	validator driving.ValidationService
}

// NewPlanAssembler creates a plan assembler.
func NewPlanAssembler(validator driving.ValidationService) *PlanAssembler {
	return &PlanAssembler{validator: validator}
}

// Assemble validates payload as a slide_plan and, if valid, returns the
// deck plan with 1-based positions and per-slide warnings.
func (a *PlanAssembler) Assemble(
	_ context.Context,
	payload []byte,
	opts domain.ValidateOptions,
) (*domain.AssembledPlan, *domain.ValidationResult) {
	res := a.validator.Validate(domain.CallSlidePlan, payload, opts)
	if !res.Valid {
		logger.Debug("slide plan rejected with %d errors", len(res.Errors))
		return nil, res
	}

	var out slidePlanOutput
	if err := json.Unmarshal(payload, &out); err != nil {
		res.AddError(describeDecodeError(err))
		return nil, res
	}

	assembled := &domain.AssembledPlan{
		Plan: domain.DeckPlan{
			TemplateID: out.TemplateID,
			ThemeID:    out.ThemeID,
			Slides:     make([]domain.PlanSlide, len(out.Slides)),
		},
		SlideWarnings: make(map[int][]string),
		Warnings:      append([]string{}, res.Warnings...),
	}

	for i, s := range out.Slides {
		assembled.Plan.Slides[i] = domain.PlanSlide{
			Position:   i + 1,
			Type:       s.Type,
			Content:    s.Content,
			Confidence: s.Confidence,
		}
		if s.Confidence != nil && domain.IsLowConfidence(*s.Confidence) {
			assembled.SlideWarnings[i] = append(assembled.SlideWarnings[i], slideConfidenceWarning(i, *s.Confidence))
		}
	}

	logger.Info("assembled plan %s/%s with %d slides (%d warnings)",
		out.TemplateID, out.ThemeID, len(out.Slides), len(res.Warnings))
	return assembled, res
}

// Summary renders a one-line description of an assembled plan.
func Summary(p *domain.AssembledPlan) string {
	if p == nil {
		return "no plan"
	}
	return fmt.Sprintf("%d slides, template %s, theme %s", len(p.Plan.Slides), p.Plan.TemplateID, p.Plan.ThemeID)
}
