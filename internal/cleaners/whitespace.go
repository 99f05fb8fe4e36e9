package cleaners

import (
	"context"
	"strings"

	"github.com/lessonkit/refpipe/internal/core/domain"
	"github.com/lessonkit/refpipe/internal/core/ports/driven"
)

// WhitespaceName is the config name of the whitespace cleaner.
const WhitespaceName = "whitespace"

// DefaultMaxBlankLines is how many consecutive blank lines are kept.
const DefaultMaxBlankLines = 1

// Ensure Whitespace implements the interface.
var _ driven.TextCleaner = (*Whitespace)(nil)

// Whitespace normalises line endings, collapses runs of spaces and tabs,
// trims each line and limits consecutive blank lines.
type Whitespace struct {
	maxBlankLines int
}

// NewWhitespace creates a whitespace cleaner.
func NewWhitespace(maxBlankLines int) *Whitespace {
	if maxBlankLines < 0 {
		maxBlankLines = 0
	}
	return &Whitespace{maxBlankLines: maxBlankLines}
}

// Name returns the cleaner name.
func (c *Whitespace) Name() string {
	return WhitespaceName
}

// Clean rewrites each unit's text.
func (c *Whitespace) Clean(_ context.Context, units []domain.ExtractionUnit) ([]domain.ExtractionUnit, error) {
	return mapText(units, c.normalise), nil
}

func (c *Whitespace) normalise(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := 0
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			blank++
			if blank > c.maxBlankLines {
				continue
			}
		} else {
			blank = 0
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
