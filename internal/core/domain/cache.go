package domain

import "time"

// CacheEntry is a previously computed extraction keyed by the SHA-256
// of the raw file bytes. Entries are written once and never mutated.
type CacheEntry struct {
	// Chunks are the chunks produced by the first extraction.
	Chunks []ReferenceChunk `json:"chunks"`

	// Confidence is the recognition confidence, nil for structural extractions.
	Confidence *float64 `json:"confidence,omitempty"`

	// LowConfidence mirrors ExtractionMetadata.LowConfidence.
	LowConfidence bool `json:"lowConfidence"`

	// ProcessTimeMs is how long the original extraction took.
	ProcessTimeMs int64 `json:"processTimeMs"`

	// TotalPages is the page or slide count of the original extraction.
	TotalPages int `json:"totalPages"`

	// CreatedAt is when the entry was first written.
	CreatedAt time.Time `json:"createdAt"`
}
