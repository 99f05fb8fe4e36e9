// Package extractors provides implementations of the Extractor interface
// for each file kind the pipeline accepts, plus the classifier that picks
// between them. Each extractor knows how to turn one kind of file into
// ordered extraction units.
//
// Extractors are registered with the Registry at startup.
package extractors
