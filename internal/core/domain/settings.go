package domain

import (
	"fmt"
	"time"
)

// CacheBackend selects the content cache implementation.
type CacheBackend string

// Available cache backends.
const (
	// CacheBackendSQLite stores entries in the local database.
	CacheBackendSQLite CacheBackend = "sqlite"

	// CacheBackendMemory keeps entries for the life of the process.
	CacheBackendMemory CacheBackend = "memory"

	// CacheBackendRedis shares entries between processes.
	CacheBackendRedis CacheBackend = "redis"
)

// IsValid returns true if the cache backend is recognised.
func (b CacheBackend) IsValid() bool {
	switch b {
	case CacheBackendSQLite, CacheBackendMemory, CacheBackendRedis:
		return true
	default:
		return false
	}
}

// CacheSettings configures the content cache.
type CacheSettings struct {
	Backend CacheBackend

	// RedisAddr is host:port, used when Backend is redis.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// RedisPrefix namespaces keys.
	RedisPrefix string

	// RedisTTL expires entries; zero keeps them until evicted by the server.
	RedisTTL time.Duration
}

// OCRSettings configures rasterising and recognition.
type OCRSettings struct {
	// MaxDimension bounds the longest side of a rendered page, in pixels.
	MaxDimension int

	// MaxScale caps the render scale relative to native size.
	MaxScale float64

	// Language is the recognition language code (e.g. "eng").
	Language string

	// TesseractPath overrides the engine binary lookup.
	TesseractPath string
}

// UploadSettings configures the file upload transport.
// An empty Endpoint disables uploads.
type UploadSettings struct {
	Endpoint      string
	Token         string
	MaxRetries    int
	BaseDelay     time.Duration
	RatePerSecond float64
	Timeout       time.Duration
}

// Enabled returns true if an upload endpoint is configured.
func (u UploadSettings) Enabled() bool {
	return u.Endpoint != ""
}

// ValidationSettings configures the structured-output validator surfaces.
type ValidationSettings struct {
	// AllowListPath is a YAML file with standards codes and slide types.
	AllowListPath string

	// DefaultSlideTypes applies when a caller supplies no slide-type list.
	DefaultSlideTypes []string
}

// CleanerConfig holds text cleaner pipeline configuration.
// Uses generic map-based config so new cleaners can be added
// without modifying this struct.
type CleanerConfig struct {
	// Cleaners is the ordered list of cleaner names to run.
	Cleaners []string

	// CleanerConfigs holds per-cleaner configuration as generic maps.
	CleanerConfigs map[string]map[string]any
}

// GetCleanerConfig returns config for a specific cleaner, or nil if not set.
func (c *CleanerConfig) GetCleanerConfig(name string) map[string]any {
	if c.CleanerConfigs == nil {
		return nil
	}
	return c.CleanerConfigs[name]
}

// PipelineSettings holds all pipeline settings.
type PipelineSettings struct {
	DataDir    string
	LogFormat  string
	ServerAddr string
	Cache      CacheSettings
	OCR        OCRSettings
	Upload     UploadSettings
	Validation ValidationSettings
	Cleaning   CleanerConfig
}

// DefaultPipelineSettings returns settings with sensible defaults.
// Uploads are disabled until an endpoint is configured.
func DefaultPipelineSettings() PipelineSettings {
	return PipelineSettings{
		LogFormat:  "console",
		ServerAddr: ":8080",
		Cache: CacheSettings{
			Backend:     CacheBackendSQLite,
			RedisAddr:   "localhost:6379",
			RedisPrefix: "refpipe:cache:",
		},
		OCR: OCRSettings{
			MaxDimension: 2000,
			MaxScale:     2.0,
			Language:     "eng",
		},
		Upload: UploadSettings{
			MaxRetries:    3,
			BaseDelay:     time.Second,
			RatePerSecond: 2,
			Timeout:       60 * time.Second,
		},
		Validation: ValidationSettings{
			DefaultSlideTypes: DefaultSlideTypes(),
		},
		Cleaning: CleanerConfig{
			Cleaners: []string{"printable", "whitespace"},
		},
	}
}

// DefaultSlideTypes returns the built-in slide-type allow-list.
func DefaultSlideTypes() []string {
	return []string{
		"title",
		"objectives",
		"agenda",
		"vocabulary",
		"content",
		"example",
		"activity",
		"discussion",
		"check_for_understanding",
		"summary",
		"exit_ticket",
	}
}

// Validate checks settings for values the pipeline cannot run with.
func (s PipelineSettings) Validate() error {
	if !s.Cache.Backend.IsValid() {
		return fmt.Errorf("%w: cache backend %q", ErrInvalidInput, s.Cache.Backend)
	}
	if s.Cache.Backend == CacheBackendRedis && s.Cache.RedisAddr == "" {
		return fmt.Errorf("%w: redis cache requires an address", ErrInvalidInput)
	}
	if s.OCR.MaxDimension <= 0 {
		return fmt.Errorf("%w: ocr max dimension must be positive", ErrInvalidInput)
	}
	if s.OCR.MaxScale <= 0 {
		return fmt.Errorf("%w: ocr max scale must be positive", ErrInvalidInput)
	}
	if s.Upload.MaxRetries < 0 {
		return fmt.Errorf("%w: upload retries cannot be negative", ErrInvalidInput)
	}
	return nil
}
