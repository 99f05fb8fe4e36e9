// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - Extractor: Turns the bytes of one file kind into extraction units
//   - ExtractorRegistry: Selects the extractor for a classified file
//   - CacheStore: Content-hash cache lookups and writes
//   - ExtractionStore: Extraction result persistence
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - RecognitionEngine, Rasterizer, ImageDecoder: Without them PDFs and
//     images are rejected as unsupported.
//   - UploadTransport: Without it uploaded bytes are not forwarded to storage.
//   - AllowListSource: Without it callers must supply allow-lists per call.
//   - TextCleanerPipeline: Without it unit text is chunked as extracted.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or extractor package
package driven
