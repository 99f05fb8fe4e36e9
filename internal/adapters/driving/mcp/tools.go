package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lessonkit/refpipe/internal/core/domain"
	"github.com/lessonkit/refpipe/internal/core/services"
)

// ValidateInput is the input schema for the validate_output tool.
type ValidateInput struct {
	CallType          string   `json:"call_type" jsonschema:"the generation stage that produced the payload, e.g. slide_plan"`
	Payload           string   `json:"payload" jsonschema:"the JSON output to validate, as a string"`
	AllowedStandards  []string `json:"allowed_standards,omitempty" jsonschema:"standards codes the output may reference"`
	AllowedSlideTypes []string `json:"allowed_slide_types,omitempty" jsonschema:"slide types the output may use"`
}

// ValidateOutput is the output schema for the validate_output tool.
type ValidateOutput struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// PlanInput is the input schema for the assemble_plan tool.
type PlanInput struct {
	Payload           string   `json:"payload" jsonschema:"the slide_plan JSON output, as a string"`
	AllowedSlideTypes []string `json:"allowed_slide_types,omitempty" jsonschema:"slide types the plan may use"`
}

// PlanOutput is the output schema for the assemble_plan tool.
type PlanOutput struct {
	Valid    bool             `json:"valid"`
	Summary  string           `json:"summary"`
	Plan     *domain.DeckPlan `json:"plan,omitempty"`
	Errors   []string         `json:"errors"`
	Warnings []string         `json:"warnings"`
}

// ListExtractionsInput is the input schema for the list_extractions tool.
type ListExtractionsInput struct {
	LessonID string `json:"lesson_id" jsonschema:"the lesson whose extraction results to list"`
}

// ListExtractionsOutput is the output schema for the list_extractions tool.
type ListExtractionsOutput struct {
	Results []ExtractionSummary `json:"results"`
	Count   int                 `json:"count"`
}

// ExtractionSummary describes one stored extraction result.
type ExtractionSummary struct {
	FileID        string   `json:"file_id"`
	FileName      string   `json:"file_name"`
	Kind          string   `json:"kind"`
	Status        string   `json:"status"`
	ChunkCount    int      `json:"chunk_count"`
	TotalPages    int      `json:"total_pages"`
	OCRConfidence *float64 `json:"ocr_confidence,omitempty"`
	LowConfidence bool     `json:"low_confidence"`
	Error         string   `json:"error,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "validate_output",
		Description: "Validate a generation stage's JSON output against its contract",
	}, s.handleValidate)

	if s.ports.Plans != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "assemble_plan",
			Description: "Validate a slide plan and return the ordered deck plan with warnings",
		}, s.handleAssemblePlan)
	}

	if s.ports.Ingestion != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "list_extractions",
			Description: "List stored extraction results for a lesson",
		}, s.handleListExtractions)
	}
}

// handleValidate handles the validate_output tool invocation.
func (s *Server) handleValidate(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ValidateInput,
) (*mcp.CallToolResult, ValidateOutput, error) {
	callType := domain.CallType(input.CallType)
	if !callType.IsValid() {
		return nil, ValidateOutput{}, fmt.Errorf("%w: %q", ErrUnknownCallType, input.CallType)
	}

	opts := services.ResolveOptions(ctx, s.ports.AllowLists, domain.ValidateOptions{
		AllowedStandards:  input.AllowedStandards,
		AllowedSlideTypes: input.AllowedSlideTypes,
	})
	res := s.ports.Validation.Validate(callType, []byte(input.Payload), opts)

	return nil, ValidateOutput{
		Valid:    res.Valid,
		Errors:   orEmpty(res.Errors),
		Warnings: orEmpty(res.Warnings),
	}, nil
}

// handleAssemblePlan handles the assemble_plan tool invocation.
func (s *Server) handleAssemblePlan(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input PlanInput,
) (*mcp.CallToolResult, PlanOutput, error) {
	if s.ports.Plans == nil {
		return nil, PlanOutput{}, ErrUnavailable
	}

	opts := services.ResolveOptions(ctx, s.ports.AllowLists, domain.ValidateOptions{
		AllowedSlideTypes: input.AllowedSlideTypes,
	})
	plan, res := s.ports.Plans.Assemble(ctx, []byte(input.Payload), opts)

	out := PlanOutput{
		Valid:    res.Valid && plan != nil,
		Summary:  services.Summary(plan),
		Errors:   orEmpty(res.Errors),
		Warnings: orEmpty(res.Warnings),
	}
	if plan != nil {
		out.Plan = &plan.Plan
	}
	return nil, out, nil
}

// handleListExtractions handles the list_extractions tool invocation.
func (s *Server) handleListExtractions(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListExtractionsInput,
) (*mcp.CallToolResult, ListExtractionsOutput, error) {
	if s.ports.Ingestion == nil {
		return nil, ListExtractionsOutput{}, ErrUnavailable
	}
	if input.LessonID == "" {
		return nil, ListExtractionsOutput{}, errors.New("lesson_id is required")
	}

	results, err := s.ports.Ingestion.Results(ctx, input.LessonID)
	if err != nil {
		return nil, ListExtractionsOutput{}, fmt.Errorf("listing extractions: %w", err)
	}

	out := ListExtractionsOutput{
		Results: make([]ExtractionSummary, len(results)),
		Count:   len(results),
	}
	for i := range results {
		out.Results[i] = summarize(&results[i])
	}
	return nil, out, nil
}

func summarize(r *domain.ExtractionResult) ExtractionSummary {
	return ExtractionSummary{
		FileID:        r.FileID,
		FileName:      r.Metadata.FileName,
		Kind:          r.Metadata.Kind.String(),
		Status:        string(r.Status),
		ChunkCount:    r.ChunkCount,
		TotalPages:    r.Metadata.TotalPages,
		OCRConfidence: r.Metadata.OCRConfidence,
		LowConfidence: r.Metadata.LowConfidence,
		Error:         r.Metadata.Error,
	}
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
