package slidedeck

import (
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"unicode"

	"github.com/gabriel-vasile/mimetype"

	"github.com/lessonkit/refpipe/internal/logger"
)

// Namespaces of the OOXML elements the slide reader cares about.
const (
	nsDrawing       = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsRelationships = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
)

// slide parses ppt/slides/slideN.xml and resolves its images.
func (p *pkg) slide(number int) (*Slide, error) {
	data, err := p.read(fmt.Sprintf("ppt/slides/slide%d.xml", number))
	if err != nil {
		return nil, err
	}

	body, err := scanSlide(data)
	if err != nil {
		return nil, err
	}

	slide := &Slide{
		Number:     number,
		Background: body.background,
		RawXML:     string(data),
	}

	for _, block := range body.paragraphs {
		if slide.Title == "" && nonTrivial(block) {
			slide.Title = block
			continue
		}
		slide.Content = append(slide.Content, block)
	}

	if len(body.embeds) > 0 {
		slide.Images = p.images(number, body.embeds)
	}
	return slide, nil
}

type slideBody struct {
	paragraphs []string
	embeds     []string
	background string
}

// scanSlide walks the slide XML once, collecting paragraph text in document
// order, picture relationship ids and the solid background colour.
func scanSlide(data []byte) (*slideBody, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	body := &slideBody{}

	var stack []string
	var para *strings.Builder
	inText := false

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse slide xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			stack = append(stack, t.Name.Local)
			if t.Name.Space != nsDrawing {
				continue
			}
			switch t.Name.Local {
			case "p":
				para = &strings.Builder{}
			case "t":
				inText = para != nil
			case "br":
				if para != nil {
					para.WriteString(" ")
				}
			case "blip":
				for _, a := range t.Attr {
					if a.Name.Space == nsRelationships && a.Name.Local == "embed" && a.Value != "" {
						body.embeds = append(body.embeds, a.Value)
					}
				}
			case "srgbClr":
				if body.background == "" && inBackground(stack) {
					for _, a := range t.Attr {
						if a.Name.Local == "val" && a.Value != "" {
							body.background = "#" + strings.ToUpper(a.Value)
						}
					}
				}
			}

		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			if t.Name.Space != nsDrawing {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if para != nil {
					if text := strings.TrimSpace(para.String()); text != "" {
						body.paragraphs = append(body.paragraphs, text)
					}
				}
				para = nil
			}

		case xml.CharData:
			if inText && para != nil {
				para.Write(t)
			}
		}
	}

	return body, nil
}

// inBackground reports whether the element path is p:bg/p:bgPr/a:solidFill/a:srgbClr.
func inBackground(stack []string) bool {
	n := len(stack)
	return n >= 4 &&
		stack[n-1] == "srgbClr" &&
		stack[n-2] == "solidFill" &&
		stack[n-3] == "bgPr" &&
		stack[n-4] == "bg"
}

// nonTrivial reports whether a block contains a letter or digit.
func nonTrivial(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	}) >= 0
}

// images resolves embed ids to media payloads. Missing media is skipped.
func (p *pkg) images(slideNumber int, embeds []string) []Image {
	rels := p.relationships(slideNumber)
	if rels == nil {
		return nil
	}

	seen := make(map[string]bool, len(embeds))
	var images []Image
	for _, id := range embeds {
		if seen[id] {
			continue
		}
		seen[id] = true

		target, ok := rels[id]
		if !ok {
			continue
		}
		data, err := p.read(target)
		if err != nil {
			logger.Debug("slide %d image %s: %v", slideNumber, id, err)
			continue
		}

		mime := mimetype.Detect(data).String()
		if i := strings.IndexByte(mime, ';'); i >= 0 {
			mime = mime[:i]
		}
		images = append(images, Image{
			RelID:    id,
			Name:     path.Base(target),
			Type:     strings.TrimPrefix(strings.ToLower(path.Ext(target)), "."),
			MIMEType: mime,
			DataURL:  "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data),
		})
	}
	return images
}
