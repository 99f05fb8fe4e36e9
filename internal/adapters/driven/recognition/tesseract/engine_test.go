package tesseract

import (
	"context"
	"errors"
	"image"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lessonkit/refpipe/internal/core/domain"
)

// mockRunner is a test double for CommandRunner.
type mockRunner struct {
	versionErr error
	output     []byte
	err        error
	calls      [][]string
	seenFile   bool
}

func (m *mockRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	m.calls = append(m.calls, append([]string{name}, args...))
	if len(args) == 1 && args[0] == "--version" {
		return []byte("tesseract 5.3.0"), m.versionErr
	}
	if len(args) > 0 {
		_, statErr := os.Stat(args[0])
		m.seenFile = statErr == nil
	}
	return m.output, m.err
}

const sampleTSV = "level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext\n" +
	"1\t1\t0\t0\t0\t0\t0\t0\t800\t600\t-1\t\n" +
	"5\t1\t1\t1\t1\t1\t10\t10\t50\t20\t90\tThe\n" +
	"5\t1\t1\t1\t1\t2\t70\t10\t50\t20\t80\twater\n" +
	"5\t1\t1\t1\t2\t1\t10\t40\t50\t20\t70\tcycle\n" +
	"5\t1\t2\t1\t1\t1\t10\t90\t50\t20\t60\tEvaporation\n"

func TestParseTSV(t *testing.T) {
	rec, err := ParseTSV([]byte(sampleTSV))
	require.NoError(t, err)

	assert.Equal(t, "The water\ncycle\n\nEvaporation", rec.Text)
	assert.Equal(t, 4, rec.Words)
	assert.InDelta(t, 0.75, rec.Confidence, 1e-9)
}

func TestParseTSV_Cases(t *testing.T) {
	header := strings.SplitN(sampleTSV, "\n", 2)[0] + "\n"

	tests := []struct {
		name     string
		input    string
		wantText string
		wantConf float64
		wantErr  bool
	}{
		{name: "empty output", input: ""},
		{name: "header only", input: header},
		{name: "blank words skipped", input: header + "5\t1\t1\t1\t1\t1\t0\t0\t1\t1\t95\t  \n"},
		{name: "negative confidence ignored", input: header + "5\t1\t1\t1\t1\t1\t0\t0\t1\t1\t-1\tx\n", wantText: "x"},
		{name: "short rows ignored", input: header + "5\t1\t1\n5\t1\t1\t1\t1\t1\t0\t0\t1\t1\t50\tok\n", wantText: "ok", wantConf: 0.5},
		{name: "clamped", input: header + "5\t1\t1\t1\t1\t1\t0\t0\t1\t1\t150\thi\n", wantText: "hi", wantConf: 1},
		{name: "bad header", input: "not\ta\theader\n", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := ParseTSV([]byte(tt.input))
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantText, rec.Text)
			assert.InDelta(t, tt.wantConf, rec.Confidence, 1e-9)
		})
	}
}

func TestStart_Unavailable(t *testing.T) {
	runner := &mockRunner{versionErr: errors.New("executable file not found")}

	_, err := Start(context.Background(), WithRunner(runner))
	assert.ErrorIs(t, err, domain.ErrEngineUnavailable)
}

func TestFactory_Unavailable(t *testing.T) {
	runner := &mockRunner{versionErr: errors.New("missing")}

	_, err := Factory(WithRunner(runner))(context.Background())
	assert.ErrorIs(t, err, domain.ErrEngineUnavailable)
}

func TestRecognize(t *testing.T) {
	runner := &mockRunner{output: []byte(sampleTSV)}
	engine, err := Start(context.Background(), WithRunner(runner), WithBinary("/opt/bin/tesseract"), WithLanguage("spa"))
	require.NoError(t, err)
	defer engine.Close()

	rec, err := engine.Recognize(context.Background(), image.NewGray(image.Rect(0, 0, 4, 4)))
	require.NoError(t, err)
	assert.Equal(t, 4, rec.Words)
	assert.True(t, runner.seenFile, "page image should exist while the engine runs")

	require.Len(t, runner.calls, 2)
	call := runner.calls[1]
	assert.Equal(t, "/opt/bin/tesseract", call[0])
	assert.Equal(t, []string{"stdout", "-l", "spa", "tsv"}, call[2:])
	_, statErr := os.Stat(call[1])
	assert.True(t, os.IsNotExist(statErr), "page image should be removed")
}

func TestRecognize_RunnerError(t *testing.T) {
	runner := &mockRunner{err: errors.New("exit status 1")}
	engine, err := Start(context.Background(), WithRunner(runner))
	require.NoError(t, err)
	defer engine.Close()

	_, err = engine.Recognize(context.Background(), image.NewGray(image.Rect(0, 0, 2, 2)))
	assert.Error(t, err)
}

func TestRecognize_NilImage(t *testing.T) {
	engine, err := Start(context.Background(), WithRunner(&mockRunner{}))
	require.NoError(t, err)
	defer engine.Close()

	_, err = engine.Recognize(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestClose(t *testing.T) {
	engine, err := Start(context.Background(), WithRunner(&mockRunner{output: []byte(sampleTSV)}))
	require.NoError(t, err)
	dir := engine.workDir

	require.NoError(t, engine.Close())
	require.NoError(t, engine.Close())
	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr))

	_, err = engine.Recognize(context.Background(), image.NewGray(image.Rect(0, 0, 2, 2)))
	assert.ErrorIs(t, err, domain.ErrEngineUnavailable)
}
