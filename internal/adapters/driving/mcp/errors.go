// Package mcp provides an MCP (Model Context Protocol) server adapter for refpipe.
// It lets AI assistants validate generation output, assemble slide plans and
// read stored extraction results.
package mcp

import "errors"

// ErrMissingValidationService is returned when the validation service is not provided.
var ErrMissingValidationService = errors.New("mcp: validation service is required")

// ErrUnknownCallType is returned by validate_output for a call type outside the closed set.
var ErrUnknownCallType = errors.New("mcp: unknown call type")

// ErrUnavailable is returned when a tool's backing service is not configured.
var ErrUnavailable = errors.New("mcp: service not configured")
