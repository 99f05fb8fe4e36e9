// Package env overlays pipeline settings from REFPIPE_* environment variables.
// A .env file, when present, is loaded first; variables already set in the
// environment win over it.
package env

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/lessonkit/refpipe/internal/core/domain"
	"github.com/lessonkit/refpipe/internal/core/ports/driven"
)

// Prefix is prepended to every variable name.
const Prefix = "REFPIPE"

// Ensure Overlay implements the interface.
var _ driven.SettingsOverlay = (*Overlay)(nil)

// variables are the recognised overrides. Nil fields were not set.
type variables struct {
	DataDir    *string `envconfig:"DATA_DIR"`
	LogFormat  *string `envconfig:"LOG_FORMAT"`
	ServerAddr *string `envconfig:"SERVER_ADDR"`

	CacheBackend  *string        `envconfig:"CACHE_BACKEND"`
	RedisAddr     *string        `envconfig:"REDIS_ADDR"`
	RedisPassword *string        `envconfig:"REDIS_PASSWORD"`
	RedisDB       *int           `envconfig:"REDIS_DB"`
	RedisTTL      *time.Duration `envconfig:"REDIS_TTL"`

	OCRLanguage     *string  `envconfig:"OCR_LANGUAGE"`
	OCRMaxDimension *int     `envconfig:"OCR_MAX_DIMENSION"`
	OCRMaxScale     *float64 `envconfig:"OCR_MAX_SCALE"`
	TesseractPath   *string  `envconfig:"TESSERACT_PATH"`

	UploadEndpoint   *string        `envconfig:"UPLOAD_ENDPOINT"`
	UploadToken      *string        `envconfig:"UPLOAD_TOKEN"`
	UploadMaxRetries *int           `envconfig:"UPLOAD_MAX_RETRIES"`
	UploadBaseDelay  *time.Duration `envconfig:"UPLOAD_BASE_DELAY"`
	UploadRate       *float64       `envconfig:"UPLOAD_RATE"`

	AllowListPath *string `envconfig:"ALLOWLIST_PATH"`
}

// Overlay applies environment overrides.
type Overlay struct {
	envFiles []string
}

// New creates an overlay that loads the given .env files first.
// With no files it loads ".env" from the working directory.
func New(envFiles ...string) *Overlay {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	return &Overlay{envFiles: envFiles}
}

// Apply overrides settings with any variables that are set.
func (o *Overlay) Apply(settings *domain.PipelineSettings) error {
	for _, f := range o.envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}

	var v variables
	if err := envconfig.Process(Prefix, &v); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}

	setString(&settings.DataDir, v.DataDir)
	setString(&settings.LogFormat, v.LogFormat)
	setString(&settings.ServerAddr, v.ServerAddr)

	if v.CacheBackend != nil {
		settings.Cache.Backend = domain.CacheBackend(*v.CacheBackend)
	}
	setString(&settings.Cache.RedisAddr, v.RedisAddr)
	setString(&settings.Cache.RedisPassword, v.RedisPassword)
	setValue(&settings.Cache.RedisDB, v.RedisDB)
	setValue(&settings.Cache.RedisTTL, v.RedisTTL)

	setString(&settings.OCR.Language, v.OCRLanguage)
	setValue(&settings.OCR.MaxDimension, v.OCRMaxDimension)
	setValue(&settings.OCR.MaxScale, v.OCRMaxScale)
	setString(&settings.OCR.TesseractPath, v.TesseractPath)

	setString(&settings.Upload.Endpoint, v.UploadEndpoint)
	setString(&settings.Upload.Token, v.UploadToken)
	setValue(&settings.Upload.MaxRetries, v.UploadMaxRetries)
	setValue(&settings.Upload.BaseDelay, v.UploadBaseDelay)
	setValue(&settings.Upload.RatePerSecond, v.UploadRate)

	setString(&settings.Validation.AllowListPath, v.AllowListPath)
	return nil
}

func setString(dst, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setValue[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
