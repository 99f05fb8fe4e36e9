package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/lessonkit/refpipe/internal/adapters/driving/tui/styles"
	"github.com/lessonkit/refpipe/internal/core/domain"
)

var reportStyles = styles.DefaultStyles()

// writeJSON prints v as indented JSON.
func writeJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// renderResults prints one block per extraction result and a summary line.
func renderResults(cmd *cobra.Command, results []domain.ExtractionResult) {
	s := reportStyles
	complete := 0
	for i := range results {
		r := &results[i]
		if r.Status == domain.StatusComplete {
			complete++
		}
		cmd.Println(renderResult(r))
	}

	summary := fmt.Sprintf("%d of %d files extracted", complete, len(results))
	if complete == len(results) {
		cmd.Println(s.Success.Render(summary))
		return
	}
	cmd.Println(s.Warning.Render(summary))
}

func renderResult(r *domain.ExtractionResult) string {
	s := reportStyles
	name := r.Metadata.FileName
	if name == "" {
		name = r.FileID
	}

	var b strings.Builder
	b.WriteString(s.Title.Render(name))
	b.WriteString("  ")
	b.WriteString(s.Status(r.Status).Render(string(r.Status)))
	b.WriteString("\n")

	field := func(label, value string) {
		b.WriteString(s.Label.Render(label))
		b.WriteString(value)
		b.WriteString("\n")
	}

	field("file id", r.FileID)
	if r.Metadata.Kind != "" {
		field("kind", r.Metadata.Kind.String())
	}
	field("chunks", fmt.Sprintf("%d from %d pages", r.ChunkCount, r.Metadata.TotalPages))
	if c := r.Metadata.OCRConfidence; c != nil {
		label := fmt.Sprintf("%.2f", *c)
		if r.Metadata.LowConfidence {
			label += " (low)"
		}
		field("confidence", s.Confidence(*c).Render(label))
	}
	if r.Metadata.CacheHit {
		field("cache", s.Success.Render("hit"))
	}
	if len(r.Metadata.FailedUnits) > 0 {
		field("failed units", s.Warning.Render(joinInts(r.Metadata.FailedUnits)))
	}
	if r.Metadata.Deck != nil && r.Metadata.Deck.Title != "" {
		field("deck title", r.Metadata.Deck.Title)
	}
	if r.Metadata.StoragePath != "" {
		field("stored at", r.Metadata.StoragePath)
	}
	if r.ExtractionTimeMs > 0 {
		field("time", fmt.Sprintf("%dms", r.ExtractionTimeMs))
	}
	if r.Metadata.Error != "" {
		field("error", s.Error.Render(r.Metadata.Error))
	}

	return s.Panel.Render(strings.TrimRight(b.String(), "\n"))
}

// renderValidation prints errors and warnings of a validation result.
func renderValidation(cmd *cobra.Command, res *domain.ValidationResult) {
	s := reportStyles
	if res.Valid {
		cmd.Println(s.Success.Render("✓ valid"))
	} else {
		cmd.Println(s.Error.Render(fmt.Sprintf("✗ invalid (%d errors)", len(res.Errors))))
	}
	for _, e := range res.Errors {
		cmd.Println(s.Error.Render("  error: ") + e)
	}
	for _, w := range res.Warnings {
		cmd.Println(s.Warning.Render("  warning: ") + w)
	}
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ", ")
}
