// Package domain defines the core business entities for refpipe.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - ReferenceChunk: A provenance-tagged unit of extracted text
//   - ExtractionResult: All chunks produced for one uploaded file
//   - CacheEntry: A previously computed extraction keyed by content hash
//   - ValidationResult: The outcome of a structured-output contract check
//   - DeckPlan: The ordered slide plan assembled from validated output
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
