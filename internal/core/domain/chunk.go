package domain

// SourceKind records how a chunk's text was obtained.
type SourceKind string

// Known source kinds.
const (
	// SourceStructuralParse is text read directly from document markup.
	SourceStructuralParse SourceKind = "structural_parse"

	// SourceOCRImage is text recognised from a standalone raster image.
	SourceOCRImage SourceKind = "ocr_image"

	// SourceOCRPDFPage is text recognised from a rendered PDF page.
	SourceOCRPDFPage SourceKind = "ocr_pdf_page"
)

// IsValid returns true if the source kind is recognised.
func (k SourceKind) IsValid() bool {
	switch k {
	case SourceStructuralParse, SourceOCRImage, SourceOCRPDFPage:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (k SourceKind) String() string {
	return string(k)
}

// ReferenceChunk is one normalised unit of extracted text.
// Chunks are values: re-extraction produces a new set, never an in-place edit.
type ReferenceChunk struct {
	// ChunkID is derived from FileID, PageOrSlide and Source,
	// so extracting the same unit twice yields the same ID.
	ChunkID string `json:"chunkId"`

	// FileID identifies the uploaded file the chunk came from.
	FileID string `json:"fileId"`

	// LessonID identifies the lesson the file was uploaded for.
	LessonID string `json:"lessonId"`

	// PageOrSlide is the 1-based page or slide index.
	PageOrSlide int `json:"pageOrSlide"`

	// Source records the extraction method.
	Source SourceKind `json:"source"`

	// Text is the trimmed extracted text. Never empty.
	Text string `json:"text"`

	// Metadata holds source-specific values such as confidence,
	// page label and total page count.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ExtractionUnit is the raw output of an extractor for a single page,
// slide or text body, before normalisation.
type ExtractionUnit struct {
	// Index is the 1-based page or slide number.
	Index int

	// Source records the extraction method.
	Source SourceKind

	// Text is the unit's raw text; empty units produce no chunk.
	Text string

	// Metadata is copied onto the resulting chunk.
	Metadata map[string]any
}
