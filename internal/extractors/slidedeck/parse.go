package slidedeck

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/lessonkit/refpipe/internal/core/domain"
	"github.com/lessonkit/refpipe/internal/logger"
)

var slidePath = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// DefaultMaxPartBytes bounds the decompressed size of one package part,
// matching the archive member limit.
const DefaultMaxPartBytes = 256 << 20

// Parse reads a PPTX package. A slide that fails to parse is logged and
// recorded in FailedSlides; theme and metadata failures leave those parts
// empty. Only an unreadable package is an error.
func Parse(data []byte) (*Deck, error) {
	return parse(data, DefaultMaxPartBytes)
}

func parse(data []byte, maxPart int64) (*Deck, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: not a pptx package: %w", domain.ErrInvalidInput, err)
	}

	pkg := newPackage(reader, maxPart)
	if !pkg.has("[Content_Types].xml") && len(pkg.slideNumbers()) == 0 {
		return nil, fmt.Errorf("%w: zip has no presentation parts", domain.ErrInvalidInput)
	}

	deck := &Deck{
		Metadata: pkg.metadata(),
		Theme:    pkg.theme(),
	}

	for _, n := range pkg.slideNumbers() {
		slide, err := pkg.slide(n)
		if err != nil {
			logger.Warn("slide %d: %v", n, err)
			deck.FailedSlides = append(deck.FailedSlides, n)
			continue
		}
		deck.Slides = append(deck.Slides, *slide)
	}

	deck.Structure = detectStructure(deck.Slides)
	return deck, nil
}

// pkg indexes the files of an OOXML package by name.
type pkg struct {
	files   map[string]*zip.File
	maxPart int64
}

func newPackage(reader *zip.Reader, maxPart int64) *pkg {
	p := &pkg{files: make(map[string]*zip.File, len(reader.File)), maxPart: maxPart}
	for _, f := range reader.File {
		p.files[f.Name] = f
	}
	return p
}

func (p *pkg) has(name string) bool {
	_, ok := p.files[name]
	return ok
}

func (p *pkg) read(name string) ([]byte, error) {
	f, ok := p.files[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, domain.ErrNotFound)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, p.maxPart+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > p.maxPart {
		return nil, fmt.Errorf("%w: %s larger than %d bytes", domain.ErrInvalidInput, name, p.maxPart)
	}
	return data, nil
}

// slideNumbers returns slide numbers sorted numerically (slide2 before slide10).
func (p *pkg) slideNumbers() []int {
	var nums []int
	for name := range p.files {
		m := slidePath.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums
}

// coreXML is docProps/core.xml.
type coreXML struct {
	Title    string `xml:"title"`
	Creator  string `xml:"creator"`
	Created  string `xml:"created"`
	Modified string `xml:"modified"`
}

func (p *pkg) metadata() Metadata {
	data, err := p.read("docProps/core.xml")
	if err != nil {
		return Metadata{}
	}
	var core coreXML
	if err := xml.Unmarshal(data, &core); err != nil {
		logger.Debug("core properties: %v", err)
		return Metadata{}
	}
	return Metadata{
		Title:    strings.TrimSpace(core.Title),
		Author:   strings.TrimSpace(core.Creator),
		Created:  strings.TrimSpace(core.Created),
		Modified: strings.TrimSpace(core.Modified),
	}
}

// relationshipsXML is a .rels part.
type relationshipsXML struct {
	Relationships []struct {
		ID         string `xml:"Id,attr"`
		Type       string `xml:"Type,attr"`
		Target     string `xml:"Target,attr"`
		TargetMode string `xml:"TargetMode,attr"`
	} `xml:"Relationship"`
}

// relationships maps relationship ids to package paths for a slide.
// External targets are dropped.
func (p *pkg) relationships(slideNumber int) map[string]string {
	data, err := p.read(fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", slideNumber))
	if err != nil {
		return nil
	}
	var rels relationshipsXML
	if err := xml.Unmarshal(data, &rels); err != nil {
		logger.Debug("slide %d relationships: %v", slideNumber, err)
		return nil
	}

	out := make(map[string]string, len(rels.Relationships))
	for _, r := range rels.Relationships {
		if strings.EqualFold(r.TargetMode, "External") {
			continue
		}
		target := r.Target
		if strings.HasPrefix(target, "/") {
			target = strings.TrimPrefix(target, "/")
		} else {
			target = path.Join("ppt/slides", target)
		}
		out[r.ID] = target
	}
	return out
}

func joinLines(lines []string) string {
	return strings.Join(lines, "\n")
}
