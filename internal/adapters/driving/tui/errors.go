package tui

import "errors"

// ErrMissingIngestionService is returned when the ingestion service is not provided.
var ErrMissingIngestionService = errors.New("tui: ingestion service is required")

// ErrNoItems is returned when the app is started without anything to ingest.
var ErrNoItems = errors.New("tui: no items to ingest")

// ErrInvalidPorts is returned when ports validation fails.
var ErrInvalidPorts = errors.New("tui: invalid ports configuration")

// ErrCancelled is returned by Run when the user quits before the batch finished.
var ErrCancelled = errors.New("tui: ingestion cancelled")
