package cli

import (
	"context"

	"github.com/lessonkit/refpipe/internal/core/domain"
)

type mockIngestionService struct {
	ingestFunc func(item domain.UploadItem, progress domain.ProgressFunc) ([]domain.ExtractionResult, error)
	results    []domain.ExtractionResult
	result     *domain.ExtractionResult
	err        error

	ingested []domain.UploadItem
}

func (m *mockIngestionService) Ingest(
	_ context.Context,
	item domain.UploadItem,
	progress domain.ProgressFunc,
) ([]domain.ExtractionResult, error) {
	m.ingested = append(m.ingested, item)
	if m.ingestFunc != nil {
		return m.ingestFunc(item, progress)
	}
	return []domain.ExtractionResult{completeResult(item.Name, 2)}, nil
}

func (m *mockIngestionService) Result(_ context.Context, _ string) (*domain.ExtractionResult, error) {
	return m.result, m.err
}

func (m *mockIngestionService) Results(_ context.Context, _ string) ([]domain.ExtractionResult, error) {
	return m.results, m.err
}

type mockValidationService struct {
	result  *domain.ValidationResult
	gotType domain.CallType
	gotOpts domain.ValidateOptions
	payload string
}

func (m *mockValidationService) Validate(
	callType domain.CallType,
	payload []byte,
	opts domain.ValidateOptions,
) *domain.ValidationResult {
	m.gotType = callType
	m.gotOpts = opts
	m.payload = string(payload)
	if m.result == nil {
		return domain.NewValidationResult()
	}
	return m.result
}

type mockPlanService struct {
	plan    *domain.AssembledPlan
	result  *domain.ValidationResult
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
		res = domain.NewValidationResult()
	}
	return m.plan, res
}

type mockSettingsService struct {
	settings domain.PipelineSettings
	err      error
	set      map[string]any
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{settings: domain.DefaultPipelineSettings(), set: map[string]any{}}
}

func (m *mockSettingsService) Get() (*domain.PipelineSettings, error) {
	if m.err != nil {
		return nil, m.err
	}
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Set(key string, value any) error {
	if m.err != nil {
		return m.err
	}
	m.set[key] = value
	return nil
}

func (m *mockSettingsService) Keys() []string {
	return []string{"cache.backend", "ocr.language"}
}

func (m *mockSettingsService) GetDefaults() domain.PipelineSettings {
	return domain.DefaultPipelineSettings()
}

type mockAllowLists struct {
	lists *domain.AllowLists
	err   error
}

func (m *mockAllowLists) Load(_ context.Context) (*domain.AllowLists, error) {
	return m.lists, m.err
}

func completeResult(name string, chunks int) domain.ExtractionResult {
	return domain.ExtractionResult{
		FileID:     "id-" + name,
		LessonID:   "lesson-1",
		ChunkCount: chunks,
		Status:     domain.StatusComplete,
		Metadata: domain.ExtractionMetadata{
			FileName: name,
			Kind:     domain.KindText,
		},
	}
}
