package text

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/lessonkit/refpipe/internal/core/domain"
	"github.com/lessonkit/refpipe/internal/core/ports/driven"
)

// Ensure DocxExtractor implements the interface.
var _ driven.Extractor = (*DocxExtractor)(nil)

// DocxExtractor reads Word documents. Explicit page breaks split the
// document into separate units.
type DocxExtractor struct{}

// NewDocxExtractor creates a DOCX extractor.
func NewDocxExtractor() *DocxExtractor {
	return &DocxExtractor{}
}

// Name returns the extractor name.
func (e *DocxExtractor) Name() string {
	return "docx"
}

// Kinds returns the file kinds this extractor handles.
func (e *DocxExtractor) Kinds() []domain.FileKind {
	return []domain.FileKind{domain.KindWordDocument}
}

// Extract reads word/document.xml and docProps/core.xml.
func (e *DocxExtractor) Extract(
	_ context.Context,
	in driven.ExtractionInput,
	progress driven.UnitProgress,
) (*driven.ExtractionOutput, error) {
	reader, err := zip.NewReader(bytes.NewReader(in.Content), int64(len(in.Content)))
	if err != nil {
		return nil, fmt.Errorf("%w: not a docx package: %w", domain.ErrInvalidInput, err)
	}

	body, err := readPart(reader, "word/document.xml")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	pages, err := parseDocumentXML(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}

	title := documentTitle(reader)
	if title == "" {
		title = titleFromName(in.Name)
	}

	out := &driven.ExtractionOutput{TotalPages: len(pages)}
	for i, page := range pages {
		out.Units = append(out.Units, domain.ExtractionUnit{
			Index:  i + 1,
			Source: domain.SourceStructuralParse,
			Text:   page,
			Metadata: map[string]any{
				"format": "docx",
				"title":  title,
			},
		})
		if progress != nil {
			progress(i+1, len(pages))
		}
	}
	return out, nil
}

func readPart(reader *zip.Reader, name string) ([]byte, error) {
	for _, f := range reader.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("%s is missing", name)
}

// documentXML represents the structure of word/document.xml.
type documentXML struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
	} `xml:"body"`
}

type paragraph struct {
	Runs []run `xml:"r"`
}

type run struct {
	Text   []textElement `xml:"t"`
	Tabs   []struct{}    `xml:"tab"`
	Breaks []struct {
		Type string `xml:"type,attr"`
	} `xml:"br"`
}

type textElement struct {
	Content string `xml:",chardata"`
}

// parseDocumentXML returns the text of each page-break separated section.
// A document always has at least one section.
func parseDocumentXML(content []byte) ([]string, error) {
	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("parse document.xml: %w", err)
	}

	var pages []string
	var page strings.Builder
	flush := func() {
		pages = append(pages, strings.TrimSpace(page.String()))
		page.Reset()
	}

	for _, para := range doc.Body.Paragraphs {
		for _, r := range para.Runs {
			for _, t := range r.Text {
				page.WriteString(t.Content)
			}
			if len(r.Tabs) > 0 {
				page.WriteString("\t")
			}
			for _, br := range r.Breaks {
				if br.Type == "page" {
					flush()
				}
			}
		}
		page.WriteString("\n")
	}
	flush()

	return pages, nil
}

// coreXML represents docProps/core.xml.
type coreXML struct {
	Title string `xml:"title"`
}

func documentTitle(reader *zip.Reader) string {
	data, err := readPart(reader, "docProps/core.xml")
	if err != nil {
		return ""
	}
	var core coreXML
	if err := xml.Unmarshal(data, &core); err != nil {
		return ""
	}
	return strings.TrimSpace(core.Title)
}
