// Package httpapi exposes the pipeline over HTTP using chi.
package httpapi

import (
	"errors"
	"net/http"

	"github.com/lessonkit/refpipe/internal/core/ports/driving"
)

// ErrMissingIngestionService is returned when the ingestion service is not provided.
var ErrMissingIngestionService = errors.New("httpapi: ingestion service is required")

// ErrMissingValidationService is returned when the validation service is not provided.
var ErrMissingValidationService = errors.New("httpapi: validation service is required")

// Ports aggregates the driving ports served over HTTP.
type Ports struct {
	Ingestion  driving.IngestionService
	Validation driving.ValidationService

	// Plans assembles slide plans. Optional; /plans answers 503 without it.
	Plans driving.PlanService

	// AllowLists supplies configured allow-lists. Optional.
	AllowLists driving.AllowListProvider

	// Recognition reports OCR load on /health. Optional.
	Recognition driving.RecognitionStatus

	// MCP is mounted at /mcp when set.
	MCP http.Handler
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Ingestion == nil {
		return ErrMissingIngestionService
	}
	if p.Validation == nil {
		return ErrMissingValidationService
	}
	return nil
}
