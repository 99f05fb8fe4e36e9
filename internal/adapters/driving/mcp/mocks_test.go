package mcp

import (
	"context"

	"github.com/lessonkit/refpipe/internal/core/domain"
)

// mockValidationService is a mock implementation of driving.ValidationService.
type mockValidationService struct {
	result *domain.ValidationResult

	gotCallType domain.CallType
	gotPayload  string
	gotOpts     domain.ValidateOptions
}

func (m *mockValidationService) Validate(
	callType domain.CallType,
	payload []byte,
	opts domain.ValidateOptions,
) *domain.ValidationResult {
	m.gotCallType = callType
	m.gotPayload = string(payload)
	m.gotOpts = opts
	if m.result == nil {
		return &domain.ValidationResult{Valid: true}
	}
	return m.result
}

// mockPlanService is a mock implementation of driving.PlanService.
type mockPlanService struct {
	plan   *domain.AssembledPlan
	result *domain.ValidationResult

	gotOpts domain.ValidateOptions
}

func (m *mockPlanService) Assemble(
	_ context.Context,
	_ []byte,
	opts domain.ValidateOptions,
) (*domain.AssembledPlan, *domain.ValidationResult) {
	m.gotOpts = opts
	res := m.result
	if res == nil {
		res = &domain.ValidationResult{Valid: m.plan != nil}
	}
	return m.plan, res
}

// mockIngestionService is a mock implementation of driving.IngestionService.
type mockIngestionService struct {
	results []domain.ExtractionResult
	result  *domain.ExtractionResult
	err     error

	gotID string
}

func (m *mockIngestionService) Ingest(
	_ context.Context,
	_ domain.UploadItem,
	_ domain.ProgressFunc,
) ([]domain.ExtractionResult, error) {
	return m.results, m.err
}

func (m *mockIngestionService) Result(_ context.Context, fileID string) (*domain.ExtractionResult, error) {
	m.gotID = fileID
	return m.result, m.err
}

func (m *mockIngestionService) Results(_ context.Context, lessonID string) ([]domain.ExtractionResult, error) {
	m.gotID = lessonID
	return m.results, m.err
}

// mockAllowLists is a mock implementation of driving.AllowListProvider.
type mockAllowLists struct {
	lists *domain.AllowLists
	err   error
}

func (m *mockAllowLists) Load(_ context.Context) (*domain.AllowLists, error) {
	return m.lists, m.err
}
