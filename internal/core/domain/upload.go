package domain

// FileKind is the classification of an uploaded item.
type FileKind string

// Known file kinds.
const (
	KindArchive      FileKind = "archive"
	KindSlideDeck    FileKind = "slide_deck"
	KindPDF          FileKind = "pdf"
	KindImage        FileKind = "image"
	KindWordDocument FileKind = "word_document"
	KindText         FileKind = "text"
	KindUnknown      FileKind = "unknown"
)

// String returns the string representation.
func (k FileKind) String() string {
	return string(k)
}

// UploadItem is one uploaded file awaiting extraction.
type UploadItem struct {
	// Name is the declared file name, or the member path inside an archive.
	Name string

	// MIMEType is the declared content type. May be empty.
	MIMEType string

	// Content is the raw file bytes.
	Content []byte

	// LessonID identifies the lesson the material belongs to.
	LessonID string

	// FileID identifies the file. Defaults to the content hash when empty.
	FileID string

	// Category is the caller's target category label (e.g. "slides", "worksheet").
	Category string
}

// ProgressStage names the step an item is in when progress is reported.
type ProgressStage string

// Progress stages.
const (
	StageHashing    ProgressStage = "hashing"
	StageUploading  ProgressStage = "uploading"
	StageCached     ProgressStage = "cached"
	StageExtracting ProgressStage = "extracting"
	StageDone       ProgressStage = "done"
	StageFailed     ProgressStage = "failed"
)

// Progress is a per-item progress report.
type Progress struct {
	// FileName is the item being processed.
	FileName string

	// Percent is in [0, 100].
	Percent int

	// Stage is the current step.
	Stage ProgressStage
}

// ProgressFunc receives progress reports. Callers that lose interest may ignore them.
type ProgressFunc func(Progress)

// UploadRequest is what the upload transport receives.
type UploadRequest struct {
	Content      []byte
	LessonID     string
	Category     string
	Hash         string
	OriginalName string
}

// UploadReceipt is returned by a successful transfer.
type UploadReceipt struct {
	StoragePath string `json:"storagePath"`
}
