package domain

// CallType tags a downstream generation stage whose JSON output is validated.
type CallType string

// The closed set of validated call types.
const (
	CallOCRNormalizer             CallType = "ocr_normalizer"
	CallChunkClassifier           CallType = "chunk_classifier"
	CallLessonFocusExtractor      CallType = "lesson_focus_extractor"
	CallMergeOverride             CallType = "merge_override"
	CallStandardsCandidates       CallType = "standards_candidates"
	CallStandardsAlignedQuestions CallType = "standards_aligned_questions"
	CallSlidePlan                 CallType = "slide_plan"
	CallJSONRepair                CallType = "json_repair"
)

// AllCallTypes returns every call type in dispatch order.
func AllCallTypes() []CallType {
	return []CallType{
		CallOCRNormalizer,
		CallChunkClassifier,
		CallLessonFocusExtractor,
		CallMergeOverride,
		CallStandardsCandidates,
		CallStandardsAlignedQuestions,
		CallSlidePlan,
		CallJSONRepair,
	}
}

// IsValid returns true if the call type is one of the closed set.
func (c CallType) IsValid() bool {
	for _, ct := range AllCallTypes() {
		if ct == c {
			return true
		}
	}
	return false
}

// RequiresStandards returns true if the call type checks standards codes.
func (c CallType) RequiresStandards() bool {
	return c == CallStandardsCandidates || c == CallStandardsAlignedQuestions
}

// String returns the string representation.
func (c CallType) String() string {
	return string(c)
}

// ValidationResult is the outcome of one contract check.
// Errors block; warnings are advisory.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// NewValidationResult returns an empty, valid result.
func NewValidationResult() *ValidationResult {
	return &ValidationResult{Valid: true, Errors: []string{}, Warnings: []string{}}
}

// AddError records a blocking problem and marks the result invalid.
func (v *ValidationResult) AddError(msg string) {
	v.Errors = append(v.Errors, msg)
	v.Valid = false
}

// AddWarning records an advisory problem.
func (v *ValidationResult) AddWarning(msg string) {
	v.Warnings = append(v.Warnings, msg)
}

// Merge folds another result into this one, prefixing its messages.
func (v *ValidationResult) Merge(prefix string, other *ValidationResult) {
	if other == nil {
		return
	}
	for _, e := range other.Errors {
		v.AddError(prefix + e)
	}
	for _, w := range other.Warnings {
		v.AddWarning(prefix + w)
	}
}

// ValidateOptions carries the caller-supplied allow-lists for one check.
type ValidateOptions struct {
	// AllowedStandards is the closed set of standards codes.
	// Required for standards call types.
	AllowedStandards []string

	// AllowedSlideTypes is the closed set of slide types.
	// When empty the configured defaults apply.
	AllowedSlideTypes []string
}

// AllowLists is a named set of closed vocabularies loaded from configuration.
type AllowLists struct {
	Standards  []string `yaml:"standards" json:"standards"`
	SlideTypes []string `yaml:"slide_types" json:"slideTypes"`
}

// Options converts the lists into per-call validation options.
func (a *AllowLists) Options() ValidateOptions {
	if a == nil {
		return ValidateOptions{}
	}
	return ValidateOptions{
		AllowedStandards:  a.Standards,
		AllowedSlideTypes: a.SlideTypes,
	}
}
