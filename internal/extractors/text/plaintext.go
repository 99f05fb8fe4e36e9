package text

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"

	"github.com/lessonkit/refpipe/internal/core/domain"
	"github.com/lessonkit/refpipe/internal/core/ports/driven"
)

// Ensure PlainExtractor implements the interface.
var _ driven.Extractor = (*PlainExtractor)(nil)

// PlainExtractor reads text, markdown and HTML files. HTML is converted to
// markdown; other text is split into pages on form feeds.
type PlainExtractor struct {
	html *converter.Converter
}

// NewPlainExtractor creates a plain-text extractor.
func NewPlainExtractor() *PlainExtractor {
	return &PlainExtractor{
		html: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

// Name returns the extractor name.
func (e *PlainExtractor) Name() string {
	return "text"
}

// Kinds returns the file kinds this extractor handles.
func (e *PlainExtractor) Kinds() []domain.FileKind {
	return []domain.FileKind{domain.KindText}
}

// Extract decodes the file as UTF-8 text.
func (e *PlainExtractor) Extract(
	_ context.Context,
	in driven.ExtractionInput,
	progress driven.UnitProgress,
) (*driven.ExtractionOutput, error) {
	if !utf8.Valid(in.Content) {
		return nil, fmt.Errorf("%w: %s is not valid UTF-8 text", domain.ErrInvalidInput, in.Name)
	}

	format := "text"
	var pages []string

	if isHTML(in.Name, in.Content) {
		md, err := e.html.ConvertString(string(in.Content))
		if err != nil {
			return nil, fmt.Errorf("convert html: %w", err)
		}
		format = "html"
		pages = []string{md}
	} else {
		if ext := strings.ToLower(filepath.Ext(in.Name)); ext == ".md" || ext == ".markdown" {
			format = "markdown"
		}
		pages = strings.Split(string(in.Content), "\f")
	}

	out := &driven.ExtractionOutput{TotalPages: len(pages)}
	for i, page := range pages {
		out.Units = append(out.Units, domain.ExtractionUnit{
			Index:  i + 1,
			Source: domain.SourceStructuralParse,
			Text:   page,
			Metadata: map[string]any{
				"format": format,
				"title":  titleFromName(in.Name),
			},
		})
		if progress != nil {
			progress(i+1, len(pages))
		}
	}
	return out, nil
}

func isHTML(name string, content []byte) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".html", ".htm":
		return true
	case ".txt", ".md", ".markdown", ".csv":
		return false
	}
	head := bytes.ToLower(bytes.TrimSpace(content[:min(len(content), 512)]))
	return bytes.HasPrefix(head, []byte("<!doctype html")) || bytes.HasPrefix(head, []byte("<html"))
}

// titleFromName turns a file name into a readable title.
func titleFromName(name string) string {
	title := filepath.Base(name)
	title = strings.TrimSuffix(title, filepath.Ext(title))
	title = strings.ReplaceAll(title, "_", " ")
	title = strings.ReplaceAll(title, "-", " ")
	return strings.TrimSpace(title)
}
