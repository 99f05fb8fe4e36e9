package cleaners

import (
	"context"
	"strings"
	"unicode"

	"github.com/lessonkit/refpipe/internal/core/domain"
	"github.com/lessonkit/refpipe/internal/core/ports/driven"
)

// PrintableName is the config name of the printable cleaner.
const PrintableName = "printable"

// Ensure Printable implements the interface.
var _ driven.TextCleaner = (*Printable)(nil)

// Printable strips control characters, zero-width marks and replacement
// characters. Newlines and tabs are kept; non-breaking spaces become spaces.
type Printable struct{}

// NewPrintable creates a printable cleaner.
func NewPrintable() *Printable {
	return &Printable{}
}

// Name returns the cleaner name.
func (c *Printable) Name() string {
	return PrintableName
}

// Clean rewrites each unit's text.
func (c *Printable) Clean(_ context.Context, units []domain.ExtractionUnit) ([]domain.ExtractionUnit, error) {
	return mapText(units, printable), nil
}

func printable(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\t':
			return r
		case '\u00a0', '\u2007', '\u202f':
			return ' '
		case '\u200b', '\u200c', '\u200d', '\u2060', '\ufeff', unicode.ReplacementChar:
			return -1
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}
