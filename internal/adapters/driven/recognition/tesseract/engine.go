// Package tesseract runs the tesseract command-line OCR engine.
//
// Each page image is written to a temporary PNG and recognised with TSV
// output, which carries a per-word confidence. The engine binary is probed
// once when the engine starts.
package tesseract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/lessonkit/refpipe/internal/core/domain"
	"github.com/lessonkit/refpipe/internal/core/ports/driven"
)

// DefaultBinary is the engine executable looked up on PATH.
const DefaultBinary = "tesseract"

// DefaultLanguage is used when no language is configured.
const DefaultLanguage = "eng"

// CommandRunner executes external commands.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run executes the command and returns its stdout.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := bytes.TrimSpace(stderr.Bytes()); len(msg) > 0 {
			return nil, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

// Ensure Engine implements the interface.
var _ driven.RecognitionEngine = (*Engine)(nil)

// Engine recognises images with the tesseract binary.
type Engine struct {
	runner   CommandRunner
	binary   string
	language string
	workDir  string
}

// Option configures an Engine.
type Option func(*Engine)

// WithRunner replaces the command runner.
func WithRunner(r CommandRunner) Option {
	return func(e *Engine) {
		e.runner = r
	}
}

// WithBinary sets the engine executable path.
func WithBinary(path string) Option {
	return func(e *Engine) {
		if path != "" {
			e.binary = path
		}
	}
}

// WithLanguage sets the recognition language code.
func WithLanguage(lang string) Option {
	return func(e *Engine) {
		if lang != "" {
			e.language = lang
		}
	}
}

// Start probes the binary and prepares a working directory.
func Start(ctx context.Context, opts ...Option) (*Engine, error) {
	e := &Engine{
		runner:   ExecRunner{},
		binary:   DefaultBinary,
		language: DefaultLanguage,
	}
	for _, opt := range opts {
		opt(e)
	}

	if _, err := e.runner.Run(ctx, e.binary, "--version"); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEngineUnavailable, err)
	}

	dir, err := os.MkdirTemp("", "refpipe-ocr-*")
	if err != nil {
		return nil, fmt.Errorf("creating work directory: %w", err)
	}
	e.workDir = dir
	return e, nil
}

// Factory returns an engine factory for the recognition orchestrator.
func Factory(opts ...Option) driven.RecognitionEngineFactory {
	return func(ctx context.Context) (driven.RecognitionEngine, error) {
		return Start(ctx, opts...)
	}
}

// Recognize returns the text found in img.
func (e *Engine) Recognize(ctx context.Context, img image.Image) (*driven.Recognition, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", domain.ErrInvalidInput)
	}
	if e.workDir == "" {
		return nil, fmt.Errorf("%w: engine closed", domain.ErrEngineUnavailable)
	}

	f, err := os.CreateTemp(e.workDir, "page-*.png")
	if err != nil {
		return nil, fmt.Errorf("creating page image: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if err := png.Encode(f, img); err != nil {
		f.Close()
		return nil, fmt.Errorf("encoding page image: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("writing page image: %w", err)
	}

	out, err := e.runner.Run(ctx, e.binary, path, "stdout", "-l", e.language, "tsv")
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("running %s: %w", filepath.Base(e.binary), err)
	}

	return ParseTSV(out)
}

// Close removes the working directory.
func (e *Engine) Close() error {
	if e.workDir == "" {
		return nil
	}
	err := os.RemoveAll(e.workDir)
	e.workDir = ""
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing work directory: %w", err)
	}
	return nil
}
