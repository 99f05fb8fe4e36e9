package httpapi

import (
	"context"

	"github.com/lessonkit/refpipe/internal/core/domain"
)

type mockIngestionService struct {
	ingestFunc func(item domain.UploadItem) ([]domain.ExtractionResult, error)
	results    []domain.ExtractionResult
	result     *domain.ExtractionResult
	err        error

	ingested []domain.UploadItem
	gotID    string
}

func (m *mockIngestionService) Ingest(
	_ context.Context,
	item domain.UploadItem,
	_ domain.ProgressFunc,
) ([]domain.ExtractionResult, error) {
	m.ingested = append(m.ingested, item)
	if m.ingestFunc != nil {
		return m.ingestFunc(item)
	}
	return []domain.ExtractionResult{{FileID: item.Name, LessonID: item.LessonID, Status: domain.StatusComplete}}, nil
}

func (m *mockIngestionService) Result(_ context.Context, fileID string) (*domain.ExtractionResult, error) {
	m.gotID = fileID
	return m.result, m.err
}

func (m *mockIngestionService) Results(_ context.Context, lessonID string) ([]domain.ExtractionResult, error) {
	m.gotID = lessonID
	return m.results, m.err
}

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
		return domain.NewValidationResult()
	}
	return m.result
}

type mockPlanService struct {
	plan   *domain.AssembledPlan
	result *domain.ValidationResult
}

func (m *mockPlanService) Assemble(
	_ context.Context,
	_ []byte,
	_ domain.ValidateOptions,
) (*domain.AssembledPlan, *domain.ValidationResult) {
	res := m.result
	if res == nil {
		res = domain.NewValidationResult()
	}
	return m.plan, res
}

type mockAllowLists struct {
	lists *domain.AllowLists
	err   error
}

func (m *mockAllowLists) Load(_ context.Context) (*domain.AllowLists, error) {
	return m.lists, m.err
}

type mockRecognitionStatus struct {
	jobs int
}

func (m *mockRecognitionStatus) ActiveJobs() int {
	return m.jobs
}
