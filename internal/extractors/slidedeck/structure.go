package slidedeck

import (
	"strings"

	"github.com/lessonkit/refpipe/internal/core/domain"
)

var (
	introKeywords = []string{
		"welcome", "objective", "agenda", "introduction", "learning goal", "today we",
	}
	summaryKeywords = []string{
		"summary", "conclusion", "recap", "review", "exit ticket", "key takeaway",
	}
)

// detectStructure sorts slides into intro, content and summary sections by
// keyword. A slide matching neither list is content.
func detectStructure(slides []Slide) domain.DeckStructure {
	var s domain.DeckStructure
	for _, slide := range slides {
		text := strings.ToLower(slide.Text())
		switch {
		case containsAny(text, introKeywords):
			s.IntroSlides = append(s.IntroSlides, slide.Number)
		case containsAny(text, summaryKeywords):
			s.SummarySlides = append(s.SummarySlides, slide.Number)
		default:
			s.ContentSlides = append(s.ContentSlides, slide.Number)
		}
	}
	s.HasIntro = len(s.IntroSlides) > 0
	s.HasContent = len(s.ContentSlides) > 0
	s.HasSummary = len(s.SummarySlides) > 0
	return s
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
