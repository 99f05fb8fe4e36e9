package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reset() {
	SetVerbose(false)
	SetFormat(FormatConsole)
	SetOutput(os.Stderr)
}

func TestSetVerbose(t *testing.T) {
	defer reset()

	SetVerbose(false)
	assert.False(t, IsVerbose())

	SetVerbose(true)
	assert.True(t, IsVerbose())

	SetVerbose(false)
	assert.False(t, IsVerbose())
}

func TestDebug_WhenVerbose(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(true)

	Debug("test message %s", "arg")

	output := buf.String()
	assert.Contains(t, output, "DBG")
	assert.Contains(t, output, "test message arg")
}

func TestDebug_WhenNotVerbose(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(false)

	Debug("test message")
	Info("info message")
	Warn("warn message")
	Section("Extract")

	assert.Empty(t, buf.String())
}

func TestWarn_WhenVerbose(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(true)

	Warn("page %d failed", 2)

	assert.Contains(t, buf.String(), "WRN")
	assert.Contains(t, buf.String(), "page 2 failed")
}

func TestSection_WhenVerbose(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(true)

	Section("Recognition")

	assert.Contains(t, buf.String(), "Recognition")
}

func TestError_AlwaysPrints(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(false)

	Error("save failed: %s", "disk full")

	assert.Contains(t, buf.String(), "ERR")
	assert.Contains(t, buf.String(), "save failed: disk full")
}

func TestSetFormat_JSON(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetFormat(FormatJSON)

	Error("cache write failed")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "cache write failed", entry["message"])
	assert.Contains(t, entry, "time")
}
