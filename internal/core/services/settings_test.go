package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lessonkit/refpipe/internal/adapters/driven/storage/memory"
	"github.com/lessonkit/refpipe/internal/core/domain"
)

type overlayFunc func(*domain.PipelineSettings) error

func (f overlayFunc) Apply(s *domain.PipelineSettings) error { return f(s) }

func TestNewSettingsService(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore())
	require.NotNil(t, service)
}

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore())

	settings, err := service.Get()

	require.NoError(t, err)
	defaults := domain.DefaultPipelineSettings()
	assert.Equal(t, defaults.Cache.Backend, settings.Cache.Backend)
	assert.Equal(t, defaults.OCR, settings.OCR)
	assert.Equal(t, defaults.Upload.MaxRetries, settings.Upload.MaxRetries)
	assert.Equal(t, defaults.Upload.BaseDelay, settings.Upload.BaseDelay)
	assert.Equal(t, defaults.Validation.DefaultSlideTypes, settings.Validation.DefaultSlideTypes)
	assert.Equal(t, defaults.Cleaning.Cleaners, settings.Cleaning.Cleaners)
	assert.False(t, settings.Upload.Enabled())
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	store := memory.NewConfigStore(map[string]any{
		"cache.backend":                    "redis",
		"cache.redis_addr":                 "cache:6380",
		"cache.redis_ttl_seconds":          3600,
		"ocr.max_dimension":                1600,
		"ocr.max_scale":                    1.5,
		"upload.endpoint":                  "https://files.example.test/upload",
		"upload.max_retries":               0,
		"upload.base_delay_ms":             250,
		"validation.slide_types":           []string{"title", "content"},
		"cleaning.cleaners":                []string{"whitespace", "dedupe_lines"},
		"cleaning.dedupe_lines.min_length": 8,
	})
	service := NewSettingsService(store)

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, domain.CacheBackendRedis, settings.Cache.Backend)
	assert.Equal(t, "cache:6380", settings.Cache.RedisAddr)
	assert.Equal(t, time.Hour, settings.Cache.RedisTTL)
	assert.Equal(t, 1600, settings.OCR.MaxDimension)
	assert.InDelta(t, 1.5, settings.OCR.MaxScale, 1e-9)
	assert.True(t, settings.Upload.Enabled())
	assert.Equal(t, 0, settings.Upload.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, settings.Upload.BaseDelay)
	assert.Equal(t, []string{"title", "content"}, settings.Validation.DefaultSlideTypes)
	assert.Equal(t, []string{"whitespace", "dedupe_lines"}, settings.Cleaning.Cleaners)
	assert.Equal(t, 8, settings.Cleaning.CleanerConfigs["dedupe_lines"]["min_length"])
}

func TestSettingsService_Get_InvalidBackend(t *testing.T) {
	store := memory.NewConfigStore(map[string]any{"cache.backend": "floppy"})

	_, err := NewSettingsService(store).Get()

	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettingsService_Get_OverlaysApplyLast(t *testing.T) {
	store := memory.NewConfigStore(map[string]any{"ocr.language": "spa"})
	overlay := overlayFunc(func(s *domain.PipelineSettings) error {
		assert.Equal(t, "spa", s.OCR.Language)
		s.OCR.Language = "fra"
		return nil
	})

	settings, err := NewSettingsService(store, overlay).Get()

	require.NoError(t, err)
	assert.Equal(t, "fra", settings.OCR.Language)
}

func TestSettingsService_Get_OverlayError(t *testing.T) {
	overlay := overlayFunc(func(*domain.PipelineSettings) error { return errors.New("bad env") })

	_, err := NewSettingsService(memory.NewConfigStore(), overlay).Get()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad env")
}

func TestSettingsService_Set_ConvertsStrings(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store)

	require.NoError(t, service.Set("ocr.max_dimension", "1200"))
	require.NoError(t, service.Set("ocr.max_scale", "2.5"))
	require.NoError(t, service.Set("validation.slide_types", "title, content ,,summary"))
	require.NoError(t, service.Set("cache.backend", "memory"))
	require.NoError(t, service.Set("cleaning.whitespace.max_blank_lines", "2"))

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, 1200, settings.OCR.MaxDimension)
	assert.InDelta(t, 2.5, settings.OCR.MaxScale, 1e-9)
	assert.Equal(t, []string{"title", "content", "summary"}, settings.Validation.DefaultSlideTypes)
	assert.Equal(t, domain.CacheBackendMemory, settings.Cache.Backend)
	assert.Equal(t, 2, settings.Cleaning.CleanerConfigs["whitespace"]["max_blank_lines"])
}

func TestSettingsService_Set_Rejects(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore())

	tests := []struct {
		key   string
		value any
	}{
		{"index.mode", "hybrid"},
		{"ocr.max_dimension", "big"},
		{"ocr.max_scale", "x"},
		{"cache.backend", "floppy"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			err := service.Set(tt.key, tt.value)
			require.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestSettingsService_Keys(t *testing.T) {
	keys := NewSettingsService(memory.NewConfigStore()).Keys()

	assert.Contains(t, keys, "cache.backend")
	assert.Contains(t, keys, "upload.endpoint")
	assert.Equal(t, "storage.data_dir", keys[0])
}

func TestSettingsService_GetDefaults(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore())
	assert.Equal(t, domain.DefaultPipelineSettings(), service.GetDefaults())
}
