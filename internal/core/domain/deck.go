package domain

// DeckSummary is the deck-level information kept with a slide-deck extraction.
type DeckSummary struct {
	Title     string         `json:"title,omitempty"`
	Author    string         `json:"author,omitempty"`
	Created   string         `json:"created,omitempty"`
	Modified  string         `json:"modified,omitempty"`
	Theme     DeckTheme      `json:"theme"`
	Structure DeckStructure  `json:"structure"`
	Slides    []SlideSummary `json:"slides,omitempty"`
}

// DeckTheme is the colour and font scheme of a slide deck.
type DeckTheme struct {
	Background string   `json:"background,omitempty"`
	Text       string   `json:"text,omitempty"`
	Accents    []string `json:"accents,omitempty"`
	MajorFont  string   `json:"majorFont,omitempty"`
	MinorFont  string   `json:"minorFont,omitempty"`
}

// DeckStructure records which lesson sections were detected.
type DeckStructure struct {
	HasIntro      bool  `json:"hasIntro"`
	HasContent    bool  `json:"hasContent"`
	HasSummary    bool  `json:"hasSummary"`
	IntroSlides   []int `json:"introSlides,omitempty"`
	ContentSlides []int `json:"contentSlides,omitempty"`
	SummarySlides []int `json:"summarySlides,omitempty"`
}

// SlideSummary is the per-slide record kept with the deck summary.
// RawXML is the slide markup as stored in the package.
type SlideSummary struct {
	Number     int          `json:"number"`
	Title      string       `json:"title"`
	ImageCount int          `json:"imageCount"`
	Images     []SlideImage `json:"images,omitempty"`
	Background string       `json:"background,omitempty"`
	RawXML     string       `json:"rawXml,omitempty"`
}

// SlideImage is an embedded picture inlined as a data URL.
// Type is the original file type ("png", "emf").
type SlideImage struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	MIMEType string `json:"mimeType"`
	DataURL  string `json:"dataUrl"`
}
