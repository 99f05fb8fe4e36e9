package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/lessonkit/refpipe/internal/core/domain"
	"github.com/lessonkit/refpipe/internal/core/ports/driving"
)

// Ensure OutputValidator implements the interface.
var _ driving.ValidationService = (*OutputValidator)(nil)

// OutputValidator checks generated stage output against the contract for
// its call type. It never panics or returns an error: every problem is
// reported in the ValidationResult.
type OutputValidator struct {
	validate          *validator.Validate
	defaultSlideTypes []string
}

// NewOutputValidator creates a validator. defaultSlideTypes applies when a
// caller supplies no slide-type allow-list; nil uses the built-in list.
func NewOutputValidator(defaultSlideTypes []string) *OutputValidator {
	if len(defaultSlideTypes) == 0 {
		defaultSlideTypes = domain.DefaultSlideTypes()
	}

	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &OutputValidator{
		validate:          v,
		defaultSlideTypes: defaultSlideTypes,
	}
}

// Validate checks payload against the contract for callType.
func (v *OutputValidator) Validate(
	callType domain.CallType,
	payload []byte,
	opts domain.ValidateOptions,
) *domain.ValidationResult {
	res := domain.NewValidationResult()

	if !callType.IsValid() {
		res.AddError(fmt.Sprintf("unknown call type %q", callType))
		return res
	}

	if callType.RequiresStandards() && len(opts.AllowedStandards) == 0 {
		res.AddError(fmt.Sprintf("%s: %v", callType, domain.ErrMissingAllowList))
	}

	var env envelope
	if err := unmarshalExact(payload, &env); err != nil || !isJSONObject(payload) {
		res.AddError("payload must be a JSON object")
		return res
	}

	v.checkEnvelope(env, res)
	v.checkContract(callType, payload, opts, res)
	v.checkConfidenceNotes(payload, res)

	return res
}

// checkEnvelope requires meta.request_id and meta.model_version.
func (v *OutputValidator) checkEnvelope(env envelope, res *domain.ValidationResult) {
	if len(env.Meta) == 0 || bytes.Equal(bytes.TrimSpace(env.Meta), []byte("null")) {
		res.AddError("meta: required object is missing")
		return
	}
	if !isJSONObject(env.Meta) {
		res.AddError("meta: must be an object")
		return
	}

	var meta map[string]any
	if err := json.Unmarshal(env.Meta, &meta); err != nil {
		res.AddError("meta: must be an object")
		return
	}

	for _, key := range []string{"request_id", "model_version"} {
		s, ok := meta[key].(string)
		if !ok || strings.TrimSpace(s) == "" {
			res.AddError(fmt.Sprintf("meta.%s: required non-empty string", key))
		}
	}
}

// checkContract dispatches on the call type to its contract record.
func (v *OutputValidator) checkContract(
	callType domain.CallType,
	payload []byte,
	opts domain.ValidateOptions,
	res *domain.ValidationResult,
) {
	switch callType {
	case domain.CallOCRNormalizer:
		var out ocrNormalizerOutput
		v.decode(payload, &out, res)

	case domain.CallChunkClassifier:
		var out chunkClassifierOutput
		if v.decode(payload, &out, res) {
			for i, c := range out.Classifications {
				if c.Confidence != nil && domain.IsLowConfidence(*c.Confidence) {
					res.AddWarning(fmt.Sprintf("classifications[%d]: confidence %.2f is below %.2f",
						i, *c.Confidence, domain.LowConfidenceThreshold))
				}
			}
		}

	case domain.CallLessonFocusExtractor:
		var out lessonFocusOutput
		v.decode(payload, &out, res)

	case domain.CallMergeOverride:
		var out mergeOverrideOutput
		if v.decode(payload, &out, res) {
			for i, o := range out.Overrides {
				if bytes.Equal(bytes.TrimSpace(o.Value), []byte("null")) {
					res.AddError(fmt.Sprintf("overrides[%d].value: required", i))
				}
			}
		}

	case domain.CallStandardsCandidates:
		var out standardsCandidatesOutput
		if v.decode(payload, &out, res) {
			v.checkStandardsCandidates(out, opts, res)
		}

	case domain.CallStandardsAlignedQuestions:
		var out alignedQuestionsOutput
		if v.decode(payload, &out, res) {
			v.checkAlignedQuestions(out, opts, res)
		}

	case domain.CallSlidePlan:
		var out slidePlanOutput
		if v.decode(payload, &out, res) {
			v.checkSlidePlan(out, opts, res)
		}

	case domain.CallJSONRepair:
		var out jsonRepairOutput
		if v.decode(payload, &out, res) {
			v.checkRepair(out, opts, res)
		}
	}
}

// decode unmarshals payload into out and applies its validate tags.
// It returns false if any error was recorded.
func (v *OutputValidator) decode(payload []byte, out any, res *domain.ValidationResult) bool {
	if err := unmarshalExact(payload, out); err != nil {
		res.AddError(describeDecodeError(err))
		return false
	}

	before := len(res.Errors)
	if err := v.validate.Struct(out); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				res.AddError(describeFieldError(fe))
			}
		} else {
			res.AddError(err.Error())
		}
	}
	return len(res.Errors) == before
}

func (v *OutputValidator) checkStandardsCandidates(
	out standardsCandidatesOutput,
	opts domain.ValidateOptions,
	res *domain.ValidationResult,
) {
	for i, c := range out.Candidates {
		if len(opts.AllowedStandards) > 0 && !slices.Contains(opts.AllowedStandards, c.Code) {
			res.AddError(fmt.Sprintf("candidates[%d].code: %q is not in the allowed standards list", i, c.Code))
		}
		if c.Confidence != nil && domain.IsLowConfidence(*c.Confidence) {
			res.AddWarning(fmt.Sprintf("candidates[%d]: confidence %.2f is below %.2f",
				i, *c.Confidence, domain.LowConfidenceThreshold))
		}
	}
}

func (v *OutputValidator) checkAlignedQuestions(
	out alignedQuestionsOutput,
	opts domain.ValidateOptions,
	res *domain.ValidationResult,
) {
	for i, q := range out.Questions {
		if len(opts.AllowedStandards) > 0 && !slices.Contains(opts.AllowedStandards, q.StandardCode) {
			res.AddError(fmt.Sprintf("questions[%d].standard_code: %q is not in the allowed standards list",
				i, q.StandardCode))
		}
		if q.Type != "multiple_choice" {
			continue
		}
		if len(q.Choices) < 2 {
			res.AddError(fmt.Sprintf("questions[%d].choices: multiple_choice needs at least 2 choices", i))
		}
		if q.Answer == "" {
			res.AddError(fmt.Sprintf("questions[%d].answer: required for multiple_choice", i))
		} else if len(q.Choices) > 0 && !slices.Contains(q.Choices, q.Answer) {
			res.AddError(fmt.Sprintf("questions[%d].answer: %q is not one of the choices", i, q.Answer))
		}
	}
}

func (v *OutputValidator) checkSlidePlan(
	out slidePlanOutput,
	opts domain.ValidateOptions,
	res *domain.ValidationResult,
) {
	allowed := v.slideTypes(opts)
	for i, s := range out.Slides {
		if !slices.Contains(allowed, s.Type) {
			res.AddError(fmt.Sprintf("slides[%d].type: %q is not an allowed slide type", i, s.Type))
		}
		if s.Confidence != nil && domain.IsLowConfidence(*s.Confidence) {
			res.AddWarning(slideConfidenceWarning(i, *s.Confidence))
		}
	}

	if len(out.Slides) < domain.MinRecommendedSlides {
		res.AddWarning(fmt.Sprintf("slides: deck has %d slides, fewer than the recommended %d",
			len(out.Slides), domain.MinRecommendedSlides))
	}
}

func (v *OutputValidator) checkRepair(
	out jsonRepairOutput,
	opts domain.ValidateOptions,
	res *domain.ValidationResult,
) {
	target := domain.CallType(out.RepairedCallType)
	if !target.IsValid() || target == domain.CallJSONRepair {
		res.AddError(fmt.Sprintf("repaired_call_type: %q is not a repairable call type", out.RepairedCallType))
		return
	}
	res.Merge("repaired_payload: ", v.Validate(target, out.RepairedPayload, opts))
}

func (v *OutputValidator) slideTypes(opts domain.ValidateOptions) []string {
	if len(opts.AllowedSlideTypes) > 0 {
		return opts.AllowedSlideTypes
	}
	return v.defaultSlideTypes
}

// checkConfidenceNotes warns on every note below the confidence threshold.
func (v *OutputValidator) checkConfidenceNotes(payload []byte, res *domain.ValidationResult) {
	var notes confidenceNotes
	if err := unmarshalExact(payload, &notes); err != nil {
		res.AddError(describeDecodeError(err))
		return
	}
	if len(notes.Notes) == 0 {
		return
	}

	if err := v.validate.Struct(notes); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				res.AddError(describeFieldError(fe))
			}
		}
	}

	for i, n := range notes.Notes {
		if n.Confidence == nil || !domain.IsLowConfidence(*n.Confidence) {
			continue
		}
		label := n.Field
		if label == "" {
			label = fmt.Sprintf("#%d", i)
		}
		res.AddWarning(fmt.Sprintf("confidenceNotes[%d]: %s has low confidence %.2f", i, label, *n.Confidence))
	}
}

func slideConfidenceWarning(index int, confidence float64) string {
	return fmt.Sprintf("slides[%d]: confidence %.2f is below %.2f", index, confidence, domain.LowConfidenceThreshold)
}

// unmarshalExact decodes payload into out with case-sensitive key
// matching: an object key that differs from a contract field name only in
// case is dropped instead of filling that field.
func unmarshalExact(payload []byte, out any) error {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	var tree any
	if err := dec.Decode(&tree); err != nil {
		return err
	}
	dropMiscased(tree, reflect.TypeOf(out))

	clean, err := json.Marshal(tree)
	if err != nil {
		return err
	}
	return json.Unmarshal(clean, out)
}

// dropMiscased walks a decoded JSON value alongside the Go type it will
// be decoded into. Raw messages and maps are free-form and left alone.
func dropMiscased(value any, t reflect.Type) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.Struct:
		obj, ok := value.(map[string]any)
		if !ok {
			return
		}
		fields := jsonFields(t)
		for key, child := range obj {
			if ft, ok := fields[key]; ok {
				dropMiscased(child, ft)
				continue
			}
			for name := range fields {
				if strings.EqualFold(name, key) {
					delete(obj, key)
					break
				}
			}
		}

	case reflect.Slice, reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			return
		}
		list, ok := value.([]any)
		if !ok {
			return
		}
		for _, item := range list {
			dropMiscased(item, t.Elem())
		}
	}
}

// jsonFields maps the JSON names of t's exported fields to their types.
func jsonFields(t reflect.Type) map[string]reflect.Type {
	fields := make(map[string]reflect.Type, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}
		fields[name] = f.Type
	}
	return fields
}

func isJSONObject(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

// describeDecodeError turns a JSON type mismatch into a field-scoped message.
func describeDecodeError(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return fmt.Sprintf("%s: wrong type (got %s)", typeErr.Field, typeErr.Value)
	}
	return "payload: " + err.Error()
}

// describeFieldError renders a validator failure using JSON field paths.
func describeFieldError(fe validator.FieldError) string {
	path := fe.Namespace()
	if i := strings.Index(path, "."); i >= 0 {
		path = path[i+1:]
	}

	switch fe.Tag() {
	case "required":
		return path + ": required"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s: must contain at least %s items", path, fe.Param())
		}
		return fmt.Sprintf("%s: must be at least %s", path, fe.Param())
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s: must contain at most %s items", path, fe.Param())
		}
		return fmt.Sprintf("%s: must be at most %s", path, fe.Param())
	case "gte":
		return fmt.Sprintf("%s: must be >= %s", path, fe.Param())
	case "lte":
		return fmt.Sprintf("%s: must be <= %s", path, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s: %q is not one of [%s]", path, fmt.Sprint(fe.Value()), fe.Param())
	default:
		return fmt.Sprintf("%s: failed %s check", path, fe.Tag())
	}
}
