// Package migrations holds the schema for the extraction cache and result tables.
package migrations

import "embed"

// FS holds the numbered .up.sql and .down.sql files.
//
//go:embed *.sql
var FS embed.FS
