// Package styles provides colour themes and styling for terminal output.
// The progress view and the plain CLI reports share these styles.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/lessonkit/refpipe/internal/core/domain"
)

// Theme defines the colour palette.
type Theme struct {
	// Primary is the main accent colour.
	Primary lipgloss.Color

	// Secondary is the secondary accent colour.
	Secondary lipgloss.Color

	// Foreground is the default text colour.
	Foreground lipgloss.Color

	// Muted is for less important text.
	Muted lipgloss.Color

	// Success indicates positive outcomes.
	Success lipgloss.Color

	// Warning indicates caution, including low-confidence recognition.
	Warning lipgloss.Color

	// Error indicates problems.
	Error lipgloss.Color

	// Border is the border colour.
	Border lipgloss.Color
}

// DefaultTheme returns the default colour theme.
func DefaultTheme() *Theme {
	return &Theme{
		Primary:    lipgloss.Color("#7C3AED"), // Purple
		Secondary:  lipgloss.Color("#06B6D4"), // Cyan
		Foreground: lipgloss.Color("#CDD6F4"), // Light gray
		Muted:      lipgloss.Color("#6C7086"), // Medium gray
		Success:    lipgloss.Color("#A6E3A1"), // Green
		Warning:    lipgloss.Color("#F9E2AF"), // Yellow
		Error:      lipgloss.Color("#F38BA8"), // Red
		Border:     lipgloss.Color("#45475A"), // Border gray
	}
}

// Styles contains pre-configured lipgloss styles.
type Styles struct {
	theme *Theme

	// Title style for headers.
	Title lipgloss.Style

	// Subtitle style for secondary headers.
	Subtitle lipgloss.Style

	// Normal style for regular text.
	Normal lipgloss.Style

	// Muted style for less important text.
	Muted lipgloss.Style

	// Error style for error messages.
	Error lipgloss.Style

	// Success style for success messages.
	Success lipgloss.Style

	// Warning style for warnings.
	Warning lipgloss.Style

	// Label style for key names in reports.
	Label lipgloss.Style

	// Help style for help text.
	Help lipgloss.Style

	// Panel style for bordered report blocks.
	Panel lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}

	return &Styles{
		theme: theme,

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Primary),

		Subtitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Secondary),

		Normal: lipgloss.NewStyle().
			Foreground(theme.Foreground),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Error: lipgloss.NewStyle().
			Foreground(theme.Error),

		Success: lipgloss.NewStyle().
			Foreground(theme.Success),

		Warning: lipgloss.NewStyle().
			Foreground(theme.Warning),

		Label: lipgloss.NewStyle().
			Foreground(theme.Secondary).
			Width(14),

		Help: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Panel: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),
	}
}

// DefaultStyles returns styles with the default theme.
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Theme returns the theme used by these styles.
func (s *Styles) Theme() *Theme {
	return s.theme
}

// Stage returns the style for a progress stage.
func (s *Styles) Stage(stage domain.ProgressStage) lipgloss.Style {
	switch stage {
	case domain.StageDone, domain.StageCached:
		return s.Success
	case domain.StageFailed:
		return s.Error
	case domain.StageUploading:
		return s.Subtitle
	default:
		return s.Muted
	}
}

// Status returns the style for an extraction status.
func (s *Styles) Status(status domain.ExtractionStatus) lipgloss.Style {
	switch status {
	case domain.StatusComplete:
		return s.Success
	case domain.StatusError:
		return s.Error
	default:
		return s.Muted
	}
}

// Confidence returns the style for a recognition confidence value.
func (s *Styles) Confidence(confidence float64) lipgloss.Style {
	if domain.IsLowConfidence(confidence) {
		return s.Warning
	}
	return s.Success
}
