package cli

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lessonkit/refpipe/internal/core/domain"
)

func TestSettingsCmd_Show(t *testing.T) {
	settings := newMockSettingsService()
	settings.settings.Cache.Backend = domain.CacheBackendRedis
	settings.settings.Cache.RedisPassword = "supersecretpassword"
	withServices(t, Services{Settings: settings})

	out, err := executeCommand(t, "", "settings")

	require.NoError(t, err)
	assert.Contains(t, out, "Current Settings")
	assert.Contains(t, out, "localhost:6379")
	assert.Contains(t, out, "supe...word")
	assert.NotContains(t, out, "supersecretpassword")
	assert.Contains(t, out, "Configuration is valid.")
}

func TestSettingsCmd_ShowInvalid(t *testing.T) {
	settings := newMockSettingsService()
	settings.settings.OCR.MaxScale = 0
	withServices(t, Services{Settings: settings})

	out, err := executeCommand(t, "", "settings", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "Warning:")
	assert.Contains(t, out, "max scale")
}

func TestSettingsCmd_ShowJSONMasksSecrets(t *testing.T) {
	settings := newMockSettingsService()
	settings.settings.Upload.Token = "tok_0123456789"
	withServices(t, Services{Settings: settings})

	out, err := executeCommand(t, "", "settings", "show", "--json")

	require.NoError(t, err)
	var got domain.PipelineSettings
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "tok_...6789", got.Upload.Token)
}

func TestSettingsCmd_Set(t *testing.T) {
	settings := newMockSettingsService()
	withServices(t, Services{Settings: settings})

	out, err := executeCommand(t, "", "settings", "set", "cache.backend", "memory")

	require.NoError(t, err)
	assert.Equal(t, "memory", settings.set["cache.backend"])
	assert.Contains(t, out, "Set cache.backend")
}

func TestSettingsCmd_SetError(t *testing.T) {
	settings := newMockSettingsService()
	settings.err = errors.New("unknown key")
	withServices(t, Services{Settings: settings})

	_, err := executeCommand(t, "", "settings", "set", "nope", "1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to set nope")
}

func TestSettingsCmd_Keys(t *testing.T) {
	withServices(t, Services{Settings: newMockSettingsService()})

	out, err := executeCommand(t, "", "settings", "keys")

	require.NoError(t, err)
	assert.Contains(t, out, "cache.backend")
	assert.Contains(t, out, "ocr.language")
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"short", "****"},
		{"12345678", "****"},
		{"sk-abcdefghijkl", "sk-a...ijkl"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, maskSecret(tt.in))
		})
	}
}
