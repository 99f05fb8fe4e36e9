// Package slidedeck parses PPTX presentations into slide text, images,
// theme and lesson structure without rendering them.
package slidedeck

import "github.com/lessonkit/refpipe/internal/core/domain"

// Deck is a parsed presentation.
type Deck struct {
	Metadata  Metadata
	Theme     domain.DeckTheme
	Slides    []Slide
	Structure domain.DeckStructure

	// FailedSlides lists slide numbers whose XML could not be parsed.
	FailedSlides []int
}

// Metadata is the document core properties.
type Metadata struct {
	Title    string
	Author   string
	Created  string
	Modified string
}

// Slide is one parsed slide.
type Slide struct {
	Number     int
	Title      string
	Content    []string
	Images     []Image
	Background string
	RawXML     string
}

// Image is an embedded picture resolved through the slide relationships.
type Image struct {
	RelID    string
	Name     string
	Type     string
	MIMEType string
	DataURL  string
}

// Text joins the title and content lines.
func (s Slide) Text() string {
	lines := make([]string, 0, len(s.Content)+1)
	if s.Title != "" {
		lines = append(lines, s.Title)
	}
	lines = append(lines, s.Content...)
	return joinLines(lines)
}

// TotalSlides counts parsed and failed slides.
func (d *Deck) TotalSlides() int {
	return len(d.Slides) + len(d.FailedSlides)
}

// Summary returns the deck-level record kept with an extraction result.
func (d *Deck) Summary() *domain.DeckSummary {
	s := &domain.DeckSummary{
		Title:     d.Metadata.Title,
		Author:    d.Metadata.Author,
		Created:   d.Metadata.Created,
		Modified:  d.Metadata.Modified,
		Theme:     d.Theme,
		Structure: d.Structure,
		Slides:    make([]domain.SlideSummary, 0, len(d.Slides)),
	}
	for _, sl := range d.Slides {
		summary := domain.SlideSummary{
			Number:     sl.Number,
			Title:      sl.Title,
			ImageCount: len(sl.Images),
			Background: sl.Background,
			RawXML:     sl.RawXML,
		}
		for _, img := range sl.Images {
			summary.Images = append(summary.Images, domain.SlideImage{
				Name:     img.Name,
				Type:     img.Type,
				MIMEType: img.MIMEType,
				DataURL:  img.DataURL,
			})
		}
		s.Slides = append(s.Slides, summary)
	}
	return s
}
