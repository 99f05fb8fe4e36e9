package domain

// MinRecommendedSlides is the deck size below which a plan draws a warning.
const MinRecommendedSlides = 10

// DeckPlan is the final ordered slide plan.
type DeckPlan struct {
	TemplateID string      `json:"templateId"`
	ThemeID    string      `json:"themeId"`
	Slides     []PlanSlide `json:"slides"`
}

// PlanSlide is one slide of a DeckPlan.
type PlanSlide struct {
	// Position is the 1-based order within the deck.
	Position int `json:"position"`

	// Type is a member of the slide-type allow-list.
	Type string `json:"type"`

	// Content is the generated content bound to the slide template.
	Content map[string]any `json:"content"`

	// Confidence is the generator's confidence, if reported.
	Confidence *float64 `json:"confidence,omitempty"`
}

// AssembledPlan is a DeckPlan plus the advisory warnings raised while assembling it.
type AssembledPlan struct {
	Plan DeckPlan `json:"plan"`

	// SlideWarnings maps a 0-based slide index to its warnings.
	SlideWarnings map[int][]string `json:"slideWarnings,omitempty"`

	// Warnings are deck-level and slide-level warnings in report order.
	Warnings []string `json:"warnings"`
}

// StandardsCandidate is one curriculum standard proposed for a lesson.
type StandardsCandidate struct {
	Code          string   `json:"code"`
	SuggestedICan []string `json:"suggestedICan"`
	Confidence    float64  `json:"confidence"`
}
