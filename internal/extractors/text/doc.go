// Package text provides extractors for documents that carry their text
// directly: plain text and markdown, HTML, and Word documents.
//
// These files never need recognition, so every unit they emit has the
// structural_parse source.
package text
