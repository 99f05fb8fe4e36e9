package services

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/lessonkit/refpipe/internal/core/domain"
	"github.com/lessonkit/refpipe/internal/core/ports/driven"
	"github.com/lessonkit/refpipe/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyDataDir         = "storage.data_dir"
	keyLogFormat       = "log.format"
	keyServerAddr      = "server.addr"
	keyCacheBackend    = "cache.backend"
	keyRedisAddr       = "cache.redis_addr"
	keyRedisPassword   = "cache.redis_password"
	keyRedisDB         = "cache.redis_db"
	keyRedisPrefix     = "cache.redis_prefix"
	keyRedisTTL        = "cache.redis_ttl_seconds"
	keyOCRMaxDimension = "ocr.max_dimension"
	keyOCRMaxScale     = "ocr.max_scale"
	keyOCRLanguage     = "ocr.language"
	keyTesseractPath   = "ocr.tesseract_path"
	keyUploadEndpoint  = "upload.endpoint"
	keyUploadToken     = "upload.token"
	keyUploadRetries   = "upload.max_retries"
	keyUploadDelay     = "upload.base_delay_ms"
	keyUploadRate      = "upload.rate_per_second"
	keyUploadTimeout   = "upload.timeout_seconds"
	keyAllowList       = "validation.allow_list"
	keySlideTypes      = "validation.slide_types"
	keyCleaners        = "cleaning.cleaners"
)

type keyKind int

const (
	kindString keyKind = iota
	kindInt
	kindFloat
	kindList
)

// settingKeys lists every recognised key in display order.
var settingKeys = []struct {
	key  string
	kind keyKind
}{
	{keyDataDir, kindString},
	{keyLogFormat, kindString},
	{keyServerAddr, kindString},
	{keyCacheBackend, kindString},
	{keyRedisAddr, kindString},
	{keyRedisPassword, kindString},
	{keyRedisDB, kindInt},
	{keyRedisPrefix, kindString},
	{keyRedisTTL, kindInt},
	{keyOCRMaxDimension, kindInt},
	{keyOCRMaxScale, kindFloat},
	{keyOCRLanguage, kindString},
	{keyTesseractPath, kindString},
	{keyUploadEndpoint, kindString},
	{keyUploadToken, kindString},
	{keyUploadRetries, kindInt},
	{keyUploadDelay, kindInt},
	{keyUploadRate, kindFloat},
	{keyUploadTimeout, kindInt},
	{keyAllowList, kindString},
	{keySlideTypes, kindList},
	{keyCleaners, kindList},
}

// cleanerOptionKeys are the per-cleaner options read from "cleaning.<name>.<option>".
var cleanerOptionKeys = map[string][]string{
	"whitespace":   {"max_blank_lines"},
	"dedupe_lines": {"min_length"},
}

// SettingsService resolves pipeline settings from defaults, the config
// store and any overlays (environment variables), in that order.
type SettingsService struct {
	configStore driven.ConfigStore
	overlays    []driven.SettingsOverlay
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, overlays ...driven.SettingsOverlay) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		overlays:    overlays,
	}
}

// Get retrieves current pipeline settings.
func (s *SettingsService) Get() (*domain.PipelineSettings, error) {
	d := domain.DefaultPipelineSettings()

	settings := &domain.PipelineSettings{
		DataDir:    s.getString(keyDataDir, d.DataDir),
		LogFormat:  s.getString(keyLogFormat, d.LogFormat),
		ServerAddr: s.getString(keyServerAddr, d.ServerAddr),
		Cache: domain.CacheSettings{
			Backend:       domain.CacheBackend(s.getString(keyCacheBackend, string(d.Cache.Backend))),
			RedisAddr:     s.getString(keyRedisAddr, d.Cache.RedisAddr),
			RedisPassword: s.configStore.GetString(keyRedisPassword),
			RedisDB:       s.configStore.GetInt(keyRedisDB),
			RedisPrefix:   s.getString(keyRedisPrefix, d.Cache.RedisPrefix),
			RedisTTL:      time.Duration(s.configStore.GetInt(keyRedisTTL)) * time.Second,
		},
		OCR: domain.OCRSettings{
			MaxDimension:  s.getInt(keyOCRMaxDimension, d.OCR.MaxDimension),
			MaxScale:      s.getFloat(keyOCRMaxScale, d.OCR.MaxScale),
			Language:      s.getString(keyOCRLanguage, d.OCR.Language),
			TesseractPath: s.configStore.GetString(keyTesseractPath),
		},
		Upload: domain.UploadSettings{
			Endpoint:      s.configStore.GetString(keyUploadEndpoint),
			Token:         s.configStore.GetString(keyUploadToken),
			MaxRetries:    s.getIntAllowZero(keyUploadRetries, d.Upload.MaxRetries),
			BaseDelay:     s.getDuration(keyUploadDelay, time.Millisecond, d.Upload.BaseDelay),
			RatePerSecond: s.getFloat(keyUploadRate, d.Upload.RatePerSecond),
			Timeout:       s.getDuration(keyUploadTimeout, time.Second, d.Upload.Timeout),
		},
		Validation: domain.ValidationSettings{
			AllowListPath:     s.configStore.GetString(keyAllowList),
			DefaultSlideTypes: s.getList(keySlideTypes, d.Validation.DefaultSlideTypes),
		},
		Cleaning: s.getCleaning(d.Cleaning),
	}

	for _, overlay := range s.overlays {
		if err := overlay.Apply(settings); err != nil {
			return nil, fmt.Errorf("apply settings overlay: %w", err)
		}
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// Set stores a single key. String values are converted to the key's type.
func (s *SettingsService) Set(key string, value any) error {
	kind, ok := lookupKey(key)
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	str, isString := value.(string)
	if !isString {
		return s.configStore.Set(key, value)
	}

	var converted any
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(str)
		if err != nil {
			return fmt.Errorf("%w: %s expects an integer", domain.ErrInvalidInput, key)
		}
		converted = n
	case kindFloat:
		f, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return fmt.Errorf("%w: %s expects a number", domain.ErrInvalidInput, key)
		}
		converted = f
	case kindList:
		converted = splitList(str)
	default:
		converted = str
	}

	if key == keyCacheBackend && !domain.CacheBackend(str).IsValid() {
		return fmt.Errorf("%w: cache backend %q", domain.ErrInvalidInput, str)
	}

	if err := s.configStore.Set(key, converted); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Keys returns the recognised config keys in display order.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingKeys))
	for _, k := range settingKeys {
		keys = append(keys, k.key)
	}
	return keys
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.PipelineSettings {
	return domain.DefaultPipelineSettings()
}

func lookupKey(key string) (keyKind, bool) {
	for _, k := range settingKeys {
		if k.key == key {
			return k.kind, true
		}
	}
	for name, options := range cleanerOptionKeys {
		for _, opt := range options {
			if key == "cleaning."+name+"."+opt {
				return kindInt, true
			}
		}
	}
	return kindString, false
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getIntAllowZero(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getDuration(key string, unit, defaultVal time.Duration) time.Duration {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return time.Duration(s.configStore.GetInt(key)) * unit
}

func (s *SettingsService) getList(key string, defaultVal []string) []string {
	val := s.configStore.GetStringSlice(key)
	if len(val) == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getCleaning(defaults domain.CleanerConfig) domain.CleanerConfig {
	cfg := domain.CleanerConfig{
		Cleaners:       s.getList(keyCleaners, defaults.Cleaners),
		CleanerConfigs: make(map[string]map[string]any),
	}
	for name, options := range cleanerOptionKeys {
		if !slices.Contains(cfg.Cleaners, name) {
			continue
		}
		for _, opt := range options {
			if val, ok := s.configStore.Get("cleaning." + name + "." + opt); ok {
				if cfg.CleanerConfigs[name] == nil {
					cfg.CleanerConfigs[name] = make(map[string]any)
				}
				cfg.CleanerConfigs[name][opt] = val
			}
		}
	}
	return cfg
}
