package extractors

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/lessonkit/refpipe/internal/core/domain"
	"github.com/lessonkit/refpipe/internal/core/ports/driven"
)

// Ensure Classifier implements the interface.
var _ driven.FileClassifier = (*Classifier)(nil)

var extensionKinds = map[string]domain.FileKind{
	".zip":      domain.KindArchive,
	".pptx":     domain.KindSlideDeck,
	".pdf":      domain.KindPDF,
	".png":      domain.KindImage,
	".jpg":      domain.KindImage,
	".jpeg":     domain.KindImage,
	".gif":      domain.KindImage,
	".bmp":      domain.KindImage,
	".tif":      domain.KindImage,
	".tiff":     domain.KindImage,
	".webp":     domain.KindImage,
	".docx":     domain.KindWordDocument,
	".txt":      domain.KindText,
	".md":       domain.KindText,
	".markdown": domain.KindText,
	".csv":      domain.KindText,
	".html":     domain.KindText,
	".htm":      domain.KindText,
}

var mimeKinds = map[string]domain.FileKind{
	"application/zip":              domain.KindArchive,
	"application/x-zip-compressed": domain.KindArchive,
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": domain.KindSlideDeck,
	"application/pdf": domain.KindPDF,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": domain.KindWordDocument,
	"text/plain":            domain.KindText,
	"text/markdown":         domain.KindText,
	"text/csv":              domain.KindText,
	"text/html":             domain.KindText,
	"application/xhtml+xml": domain.KindText,
}

// Classifier maps uploads to file kinds. It is pure: the same inputs
// always give the same kind.
type Classifier struct{}

// NewClassifier creates a classifier.
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify checks the file extension first, then the declared MIME type,
// then the content signature.
func (c *Classifier) Classify(name, mimeType string, content []byte) domain.FileKind {
	if kind, ok := extensionKinds[strings.ToLower(filepath.Ext(name))]; ok {
		return kind
	}
	if kind := kindForMIME(mimeType); kind != domain.KindUnknown {
		return kind
	}
	if len(content) == 0 {
		return domain.KindUnknown
	}
	return kindForSignature(content)
}

func kindForMIME(mimeType string) domain.FileKind {
	base := strings.ToLower(strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0]))
	if base == "" {
		return domain.KindUnknown
	}
	if kind, ok := mimeKinds[base]; ok {
		return kind
	}
	if strings.HasPrefix(base, "image/") {
		return domain.KindImage
	}
	return domain.KindUnknown
}

// kindForSignature walks the detected MIME type and its parents, so a
// pptx is found before the generic zip it is packaged in.
func kindForSignature(content []byte) domain.FileKind {
	for m := mimetype.Detect(content); m != nil; m = m.Parent() {
		if kind := kindForMIME(m.String()); kind != domain.KindUnknown {
			return kind
		}
	}
	return domain.KindUnknown
}
