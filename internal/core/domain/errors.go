package domain

import (
	"context"
	"errors"
	"net"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates a file kind no extractor handles.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrInvalidTransition indicates an illegal extraction status change.
	// Terminal states are final.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrEmptyDocument indicates a container held nothing extractable.
	ErrEmptyDocument = errors.New("empty document")

	// ErrEngineUnavailable indicates the recognition engine could not be started.
	ErrEngineUnavailable = errors.New("recognition engine unavailable")

	// ErrMissingAllowList indicates a standards check was requested
	// without an allowed-standards list.
	ErrMissingAllowList = errors.New("allowed standards list is required")

	// ErrTransient marks failures worth retrying (timeouts, dropped connections, 5xx).
	ErrTransient = errors.New("transient failure")

	// ErrQueueClosed indicates the transfer queue no longer accepts work.
	ErrQueueClosed = errors.New("transfer queue closed")
)

// IsTransient reports whether err is a network-class failure that may
// succeed on retry. Context cancellation is never transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, ErrTransient) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return false
}
