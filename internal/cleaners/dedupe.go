package cleaners

import (
	"context"
	"strings"

	"github.com/lessonkit/refpipe/internal/core/domain"
	"github.com/lessonkit/refpipe/internal/core/ports/driven"
)

// DedupeLinesName is the config name of the repeated-line cleaner.
const DedupeLinesName = "dedupe_lines"

// DefaultMinLineLength is the shortest line considered for removal.
const DefaultMinLineLength = 4

// minUnitsForBoilerplate is the unit count from which lines repeated on
// most units are treated as running headers or footers.
const minUnitsForBoilerplate = 3

// Ensure DedupeLines implements the interface.
var _ driven.TextCleaner = (*DedupeLines)(nil)

// DedupeLines drops consecutive duplicate lines within a unit and lines
// that repeat on more than half of the units of a file, such as running
// page headers and footers.
type DedupeLines struct {
	minLength int
}

// NewDedupeLines creates a repeated-line cleaner.
func NewDedupeLines(minLength int) *DedupeLines {
	if minLength <= 0 {
		minLength = DefaultMinLineLength
	}
	return &DedupeLines{minLength: minLength}
}

// Name returns the cleaner name.
func (c *DedupeLines) Name() string {
	return DedupeLinesName
}

// Clean removes repeated lines.
func (c *DedupeLines) Clean(_ context.Context, units []domain.ExtractionUnit) ([]domain.ExtractionUnit, error) {
	boilerplate := c.boilerplate(units)

	return mapText(units, func(s string) string {
		lines := strings.Split(s, "\n")
		out := make([]string, 0, len(lines))
		prev := ""
		for _, line := range lines {
			key := strings.TrimSpace(line)
			if len(key) >= c.minLength {
				if boilerplate[key] || key == prev {
					continue
				}
			}
			prev = key
			out = append(out, line)
		}
		return strings.Join(out, "\n")
	}), nil
}

// boilerplate returns lines present on more than half of the units.
func (c *DedupeLines) boilerplate(units []domain.ExtractionUnit) map[string]bool {
	if len(units) < minUnitsForBoilerplate {
		return nil
	}

	counts := make(map[string]int)
	for _, u := range units {
		seen := make(map[string]bool)
		for _, line := range strings.Split(u.Text, "\n") {
			key := strings.TrimSpace(line)
			if len(key) < c.minLength || seen[key] {
				continue
			}
			seen[key] = true
			counts[key]++
		}
	}

	out := make(map[string]bool)
	for line, n := range counts {
		if n*2 > len(units) {
			out[line] = true
		}
	}
	return out
}
