package driven

import (
	"context"

	"github.com/lessonkit/refpipe/internal/core/domain"
)

// Extractor turns the bytes of one file kind into extraction units.
// Each extractor handles a closed set of file kinds.
type Extractor interface {
	// Name returns the extractor name for logging.
	Name() string

	// Kinds returns the file kinds this extractor handles.
	Kinds() []domain.FileKind

	// Extract reads the input and returns its units.
	// progress, if non-nil, is called after each page or slide.
	Extract(ctx context.Context, in ExtractionInput, progress UnitProgress) (*ExtractionOutput, error)
}

// UnitProgress reports done out of total units processed.
type UnitProgress func(done, total int)

// ExtractionInput is a single non-archive file handed to an extractor.
type ExtractionInput struct {
	// Name is the file name, used for title fallbacks and logs.
	Name string

	// Content is the raw file bytes.
	Content []byte

	// Kind is the classified file kind.
	Kind domain.FileKind
}

// ExtractionOutput is what an extractor produced for one file.
type ExtractionOutput struct {
	// Units holds one entry per page, slide or text body, in order.
	Units []domain.ExtractionUnit

	// TotalPages counts every page or slide, including those without text.
	TotalPages int

	// Confidence is the mean recognition confidence. Nil when no recognition ran.
	Confidence *float64

	// FailedUnits lists 1-based unit indices that could not be extracted.
	FailedUnits []int

	// Deck is set by the slide-deck extractor.
	Deck *domain.DeckSummary
}

// ExtractorRegistry selects the extractor for a classified file.
type ExtractorRegistry interface {
	// Register adds an extractor for every kind it reports.
	Register(extractor Extractor)

	// For returns the extractor for a kind, or domain.ErrUnsupportedType.
	For(kind domain.FileKind) (Extractor, error)

	// Kinds returns every kind with a registered extractor.
	Kinds() []domain.FileKind
}

// FileClassifier maps a declared name, declared MIME type and content
// signature to a file kind. Implementations must be pure.
type FileClassifier interface {
	Classify(name, mimeType string, content []byte) domain.FileKind
}

// ArchiveMember is one file inside an archive container.
type ArchiveMember struct {
	// Path is the member path inside the archive.
	Path string

	// Content is the decompressed member bytes.
	Content []byte

	// Err is set when the member could not be read. Content is nil then.
	Err error
}

// ArchiveExpander lists the file members of an archive container.
// Directory entries are never returned.
type ArchiveExpander interface {
	Expand(ctx context.Context, data []byte) ([]ArchiveMember, error)
}
