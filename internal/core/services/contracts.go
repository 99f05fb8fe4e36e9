package services

import "encoding/json"

// Contract records for each validated call type. Field names follow the
// JSON emitted by the generation stages; validate tags carry the
// structural rules and allow-list checks live in validator.go.

type envelope struct {
	Meta json.RawMessage `json:"meta"`
}

type confidenceNotes struct {
	Notes []confidenceNote `json:"confidenceNotes" validate:"omitempty,dive"`
}

type confidenceNote struct {
	Field      string   `json:"field"`
	Confidence *float64 `json:"confidence" validate:"required,gte=0,lte=1"`
	Note       string   `json:"note"`
}

// ocr_normalizer

type ocrNormalizerOutput struct {
	Chunks   []normalizedChunk `json:"chunks" validate:"required,min=1,dive"`
	Language string            `json:"language"`
}

type normalizedChunk struct {
	ChunkID string `json:"chunk_id" validate:"required"`
	Text    string `json:"text" validate:"required"`
}

// chunk_classifier

type chunkClassifierOutput struct {
	Classifications []chunkClassification `json:"classifications" validate:"required,min=1,dive"`
}

type chunkClassification struct {
	ChunkID    string   `json:"chunk_id" validate:"required"`
	Category   string   `json:"category" validate:"required,oneof=objective vocabulary content example activity assessment other"`
	Confidence *float64 `json:"confidence" validate:"required,gte=0,lte=1"`
}

// lesson_focus_extractor

type lessonFocusOutput struct {
	Focus      *lessonFocus `json:"focus" validate:"required"`
	GradeLevel string       `json:"grade_level"`
}

type lessonFocus struct {
	Topic         string   `json:"topic" validate:"required"`
	Objectives    []string `json:"objectives" validate:"required,min=1,dive,required"`
	KeyVocabulary []string `json:"key_vocabulary" validate:"omitempty,dive,required"`
}

// merge_override

type mergeOverrideOutput struct {
	Target    string          `json:"target" validate:"required,oneof=focus classification standards slide_plan"`
	Overrides []fieldOverride `json:"overrides" validate:"required,min=1,dive"`
}

type fieldOverride struct {
	Field  string          `json:"field" validate:"required"`
	Value  json.RawMessage `json:"value" validate:"required"`
	Reason string          `json:"reason" validate:"required"`
}

// standards_candidates

type standardsCandidatesOutput struct {
	Candidates []standardsCandidate `json:"candidates" validate:"required,min=1,max=3,dive"`
}

type standardsCandidate struct {
	Code          string   `json:"code" validate:"required"`
	SuggestedICan []string `json:"suggestedICan" validate:"required,min=1,dive,required"`
	Confidence    *float64 `json:"confidence" validate:"omitempty,gte=0,lte=1"`
}

// standards_aligned_questions

type alignedQuestionsOutput struct {
	Questions []alignedQuestion `json:"questions" validate:"required,min=1,dive"`
}

type alignedQuestion struct {
	StandardCode string   `json:"standard_code" validate:"required"`
	Prompt       string   `json:"prompt" validate:"required"`
	Type         string   `json:"type" validate:"required,oneof=multiple_choice short_answer open_response"`
	Choices      []string `json:"choices" validate:"omitempty,dive,required"`
	Answer       string   `json:"answer"`
}

// slide_plan

type slidePlanOutput struct {
	TemplateID string      `json:"templateId" validate:"required"`
	ThemeID    string      `json:"themeId" validate:"required"`
	Slides     []planSlide `json:"slides" validate:"required,min=1,dive"`
}

type planSlide struct {
	Type       string         `json:"type" validate:"required"`
	Content    map[string]any `json:"content" validate:"required"`
	Confidence *float64       `json:"confidence" validate:"omitempty,gte=0,lte=1"`
}

// json_repair

type jsonRepairOutput struct {
	RepairedCallType string          `json:"repaired_call_type" validate:"required"`
	RepairedPayload  json.RawMessage `json:"repaired_payload" validate:"required"`
	Repairs          []string        `json:"repairs"`
}
