// Package messages defines Bubbletea message types for the TUI.
// Messages carry ingestion events from the worker goroutine into the model.
package messages

import (
	"github.com/lessonkit/refpipe/internal/core/domain"
)

// ProgressReported carries one progress report for an item.
type ProgressReported struct {
	Progress domain.Progress
}

// ItemCompleted is sent when Ingest returns for one uploaded item.
// Archives produce several results for a single item.
type ItemCompleted struct {
	Name    string
	Results []domain.ExtractionResult
	Err     error
}

// Succeeded reports whether the item produced at least one complete result.
func (m ItemCompleted) Succeeded() bool {
	if m.Err != nil {
		return false
	}
	for i := range m.Results {
		if m.Results[i].Status == domain.StatusComplete {
			return true
		}
	}
	return false
}

// BatchFinished is sent once every item has been ingested.
type BatchFinished struct{}

// ErrorOccurred signals that an error happened outside a single item.
type ErrorOccurred struct {
	Err error
}
