package driving

import "github.com/lessonkit/refpipe/internal/core/domain"

// SettingsService manages pipeline settings.
type SettingsService interface {
	// Get resolves settings from defaults, the config file and overlays.
	Get() (*domain.PipelineSettings, error)

	// Set stores a single dotted config key.
	Set(key string, value any) error

	// Keys returns the recognised config keys in display order.
	Keys() []string

	// GetDefaults returns default settings.
	GetDefaults() domain.PipelineSettings
}
