// Package cleaners provides text cleaning steps applied to extraction
// units before they become chunks.
package cleaners

import (
	"context"
	"fmt"

	"github.com/lessonkit/refpipe/internal/core/domain"
	"github.com/lessonkit/refpipe/internal/core/ports/driven"
)

// Ensure Pipeline implements the interface.
var _ driven.TextCleanerPipeline = (*Pipeline)(nil)

// Pipeline chains multiple TextCleaners and runs them in order.
type Pipeline struct {
	cleaners []driven.TextCleaner
}

// NewPipeline creates a cleaning pipeline with the given cleaners.
// Cleaners are executed in the order provided.
func NewPipeline(cleaners ...driven.TextCleaner) *Pipeline {
	return &Pipeline{
		cleaners: cleaners,
	}
}

// Clean runs the units through all cleaners in order.
func (p *Pipeline) Clean(ctx context.Context, units []domain.ExtractionUnit) ([]domain.ExtractionUnit, error) {
	for _, cleaner := range p.cleaners {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var err error
		units, err = cleaner.Clean(ctx, units)
		if err != nil {
			return nil, fmt.Errorf("cleaner %s: %w", cleaner.Name(), err)
		}
	}
	return units, nil
}

// Add appends a cleaner to the pipeline.
func (p *Pipeline) Add(cleaner driven.TextCleaner) {
	p.cleaners = append(p.cleaners, cleaner)
}

// Len returns the number of cleaners in the pipeline.
func (p *Pipeline) Len() int {
	return len(p.cleaners)
}

// Names returns the cleaner names in execution order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.cleaners))
	for i, c := range p.cleaners {
		names[i] = c.Name()
	}
	return names
}

// mapText applies fn to the text of every unit, keeping index, source and metadata.
func mapText(units []domain.ExtractionUnit, fn func(string) string) []domain.ExtractionUnit {
	out := make([]domain.ExtractionUnit, len(units))
	for i, u := range units {
		out[i] = u
		out[i].Text = fn(u.Text)
	}
	return out
}
