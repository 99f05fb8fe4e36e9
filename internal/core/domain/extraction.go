package domain

import (
	"fmt"
	"time"
)

// ExtractionStatus is the lifecycle state of an ExtractionResult.
type ExtractionStatus string

// Extraction lifecycle states.
const (
	StatusPending    ExtractionStatus = "pending"
	StatusProcessing ExtractionStatus = "processing"
	StatusComplete   ExtractionStatus = "complete"
	StatusError      ExtractionStatus = "error"
)

// IsTerminal returns true for complete and error.
func (s ExtractionStatus) IsTerminal() bool {
	return s == StatusComplete || s == StatusError
}

// LowConfidenceThreshold is the fixed gating threshold for recognition
// and per-field confidence. Values strictly below it are low-confidence.
const LowConfidenceThreshold = 0.70

// IsLowConfidence reports whether a confidence value falls below the threshold.
func IsLowConfidence(confidence float64) bool {
	return confidence < LowConfidenceThreshold
}

// ExtractionMetadata carries file-level facts about an extraction.
type ExtractionMetadata struct {
	// OCRConfidence is the mean per-page confidence. Nil for structural extractions.
	OCRConfidence *float64 `json:"ocrConfidence,omitempty"`

	// LowConfidence is true iff OCRConfidence is below LowConfidenceThreshold.
	LowConfidence bool `json:"lowConfidence"`

	// TotalPages counts every page or slide, including those without text.
	TotalPages int `json:"totalPages"`

	// ContentHash is the SHA-256 hex digest of the raw bytes.
	ContentHash string `json:"contentHash"`

	// CacheHit is true when the chunks came from the content cache.
	CacheHit bool `json:"cacheHit"`

	// FileName is the original upload name (archive members use their path).
	FileName string `json:"fileName"`

	// Kind is the classified file kind.
	Kind FileKind `json:"kind"`

	// Category is the caller's target category label.
	Category string `json:"category,omitempty"`

	// StoragePath is where the upload transport stored the bytes, if used.
	StoragePath string `json:"storagePath,omitempty"`

	// FailedUnits lists pages or slides that could not be extracted.
	FailedUnits []int `json:"failedUnits,omitempty"`

	// Deck summarises slide-deck metadata, theme and structure.
	Deck *DeckSummary `json:"deck,omitempty"`

	// Error describes why the extraction failed, or a non-fatal persistence problem.
	Error string `json:"error,omitempty"`
}

// ExtractionResult aggregates all chunks produced for one file.
type ExtractionResult struct {
	FileID           string             `json:"fileId"`
	LessonID         string             `json:"lessonId"`
	Chunks           []ReferenceChunk   `json:"chunks"`
	ChunkCount       int                `json:"chunkCount"`
	ExtractedAt      time.Time          `json:"extractedAt"`
	Status           ExtractionStatus   `json:"status"`
	ExtractionTimeMs int64              `json:"extractionTimeMs"`
	Metadata         ExtractionMetadata `json:"metadata"`

	startedAt time.Time
}

// NewExtractionResult creates a pending result for a file.
func NewExtractionResult(fileID, lessonID string) *ExtractionResult {
	return &ExtractionResult{
		FileID:   fileID,
		LessonID: lessonID,
		Chunks:   []ReferenceChunk{},
		Status:   StatusPending,
	}
}

// Start moves a pending result to processing.
func (r *ExtractionResult) Start() error {
	if r.Status != StatusPending {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.Status, StatusProcessing)
	}
	r.Status = StatusProcessing
	r.startedAt = time.Now()
	return nil
}

// Complete moves a processing result to complete with the given chunks.
func (r *ExtractionResult) Complete(chunks []ReferenceChunk) error {
	if r.Status != StatusProcessing {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.Status, StatusComplete)
	}
	r.SetChunks(chunks)
	r.Status = StatusComplete
	r.finish()
	return nil
}

// Fail moves a pending or processing result to error.
func (r *ExtractionResult) Fail(cause error) error {
	if r.Status.IsTerminal() {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.Status, StatusError)
	}
	if cause != nil {
		r.Metadata.Error = cause.Error()
	}
	r.Status = StatusError
	r.finish()
	return nil
}

// SetChunks replaces the chunk set and keeps ChunkCount in step.
func (r *ExtractionResult) SetChunks(chunks []ReferenceChunk) {
	if chunks == nil {
		chunks = []ReferenceChunk{}
	}
	r.Chunks = chunks
	r.ChunkCount = len(chunks)
}

func (r *ExtractionResult) finish() {
	r.ExtractedAt = time.Now()
	if !r.startedAt.IsZero() {
		r.ExtractionTimeMs = r.ExtractedAt.Sub(r.startedAt).Milliseconds()
	}
}

// SetConfidence records the file-level recognition confidence and derives LowConfidence.
func (r *ExtractionResult) SetConfidence(confidence float64) {
	c := confidence
	r.Metadata.OCRConfidence = &c
	r.Metadata.LowConfidence = IsLowConfidence(c)
}
