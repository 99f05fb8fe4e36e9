// Package tui provides an interactive terminal progress view for refpipe.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/lessonkit/refpipe/internal/core/ports/driving"
)

// Ports aggregates the driving ports the progress view needs.
type Ports struct {
	// Ingestion extracts uploaded items.
	Ingestion driving.IngestionService

	// Recognition reports in-flight recognition jobs. Optional.
	Recognition driving.RecognitionStatus
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(ingestion driving.IngestionService, recognition driving.RecognitionStatus) *Ports {
	return &Ports{
		Ingestion:   ingestion,
		Recognition: recognition,
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Ingestion == nil {
		return ErrMissingIngestionService
	}
	return nil
}
