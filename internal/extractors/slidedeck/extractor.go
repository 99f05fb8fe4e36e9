package slidedeck

import (
	"context"

	"github.com/lessonkit/refpipe/internal/core/domain"
	"github.com/lessonkit/refpipe/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor emits one structural unit per slide.
type Extractor struct{}

// NewExtractor creates a slide-deck extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Name returns the extractor name.
func (e *Extractor) Name() string {
	return "slidedeck"
}

// Kinds returns the file kinds this extractor handles.
func (e *Extractor) Kinds() []domain.FileKind {
	return []domain.FileKind{domain.KindSlideDeck}
}

// Extract parses the deck and emits a unit per slide with its title and content lines.
func (e *Extractor) Extract(
	ctx context.Context,
	in driven.ExtractionInput,
	progress driven.UnitProgress,
) (*driven.ExtractionOutput, error) {
	deck, err := Parse(in.Content)
	if err != nil {
		return nil, err
	}

	total := deck.TotalSlides()
	out := &driven.ExtractionOutput{
		TotalPages:  total,
		FailedUnits: deck.FailedSlides,
		Deck:        deck.Summary(),
		Units:       make([]domain.ExtractionUnit, 0, len(deck.Slides)),
	}

	for i, slide := range deck.Slides {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		metadata := map[string]any{
			"slideTitle":  slide.Title,
			"imageCount":  len(slide.Images),
			"totalSlides": total,
		}
		if slide.Background != "" {
			metadata["background"] = slide.Background
		}
		if len(slide.Images) > 0 {
			types := make([]string, 0, len(slide.Images))
			for _, img := range slide.Images {
				types = append(types, img.Type)
			}
			metadata["imageTypes"] = types
		}

		out.Units = append(out.Units, domain.ExtractionUnit{
			Index:    slide.Number,
			Source:   domain.SourceStructuralParse,
			Text:     slide.Text(),
			Metadata: metadata,
		})

		if progress != nil {
			progress(i+1, len(deck.Slides))
		}
	}
	return out, nil
}
