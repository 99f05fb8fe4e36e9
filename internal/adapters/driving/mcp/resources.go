package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lessonkit/refpipe/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for refpipe resources.
	uriScheme = "refpipe://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "call-types",
		Name:        "call-types",
		Description: "Generation stages whose output can be validated",
		MIMEType:    "application/json",
	}, s.handleCallTypesResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "allow-lists",
		Name:        "allow-lists",
		Description: "Configured standards codes and slide types",
		MIMEType:    "application/json",
	}, s.handleAllowListsResource)

	if s.ports.Ingestion == nil {
		return
	}

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "lessons/{lessonId}/extractions",
		Name:        "lesson-extractions",
		Description: "Extraction results stored for a lesson",
		MIMEType:    "application/json",
	}, s.handleLessonExtractionsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "extractions/{fileId}/chunks",
		Name:        "extraction-chunks",
		Description: "Reference chunk text extracted from one file",
		MIMEType:    "text/plain",
	}, s.handleChunksResource)
}

// handleCallTypesResource returns the closed set of call types.
func (s *Server) handleCallTypesResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	return jsonResource(req.Params.URI, domain.AllCallTypes())
}

// handleAllowListsResource returns the configured allow-lists.
func (s *Server) handleAllowListsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	lists := &domain.AllowLists{Standards: []string{}, SlideTypes: []string{}}
	if s.ports.AllowLists != nil {
		loaded, err := s.ports.AllowLists.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading allow-lists: %w", err)
		}
		lists = loaded
	}
	return jsonResource(req.Params.URI, lists)
}

// handleLessonExtractionsResource returns extraction summaries for a lesson.
func (s *Server) handleLessonExtractionsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Ingestion == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	lessonID := extractLessonID(req.Params.URI)
	if lessonID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	results, err := s.ports.Ingestion.Results(ctx, lessonID)
	if err != nil {
		return nil, fmt.Errorf("listing extractions: %w", err)
	}

	summaries := make([]ExtractionSummary, len(results))
	for i := range results {
		summaries[i] = summarize(&results[i])
	}
	return jsonResource(req.Params.URI, summaries)
}

// handleChunksResource returns the chunk text of one extraction, page by page.
func (s *Server) handleChunksResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Ingestion == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	fileID := extractFileID(req.Params.URI)
	if fileID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	result, err := s.ports.Ingestion.Result(ctx, fileID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting extraction: %w", err)
	}

	var b strings.Builder
	for i, chunk := range result.Chunks {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%d] %s", chunk.PageOrSlide, chunk.Text)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     b.String(),
		}},
	}, nil
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractLessonID extracts the lesson ID from refpipe://lessons/{lessonId}/extractions.
func extractLessonID(uri string) string {
	const prefix = uriScheme + "lessons/"
	const suffix = "/extractions"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}
	uri = strings.TrimPrefix(uri, prefix)
	if !strings.HasSuffix(uri, suffix) {
		return ""
	}
	return strings.TrimSuffix(uri, suffix)
}

// extractFileID extracts the file ID from refpipe://extractions/{fileId}/chunks.
// Archive member IDs contain slashes, so everything between prefix and suffix is kept.
func extractFileID(uri string) string {
	const prefix = uriScheme + "extractions/"
	const suffix = "/chunks"

	if !strings.HasPrefix(uri, prefix) || !strings.HasSuffix(uri, suffix) {
		return ""
	}
	return strings.TrimSuffix(strings.TrimPrefix(uri, prefix), suffix)
}
