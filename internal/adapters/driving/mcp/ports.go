package mcp

import (
	"github.com/lessonkit/refpipe/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
type Ports struct {
	// Validation checks stage output against its contract.
	Validation driving.ValidationService

	// Plans assembles slide plans. Optional.
	Plans driving.PlanService

	// Ingestion reads stored extraction results. Optional.
	Ingestion driving.IngestionService

	// AllowLists supplies configured allow-lists. Optional.
	AllowLists driving.AllowListProvider
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Validation == nil {
		return ErrMissingValidationService
	}
	return nil
}
