package slidedeck

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	contentTypesXML = `<?xml version="1.0" encoding="UTF-8"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="xml" ContentType="application/xml"/>
</Types>`

	coreXMLFixture = `<?xml version="1.0" encoding="UTF-8"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties"
 xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/">
<dc:title>Fractions Unit</dc:title>
<dc:creator>Ms. Rivera</dc:creator>
<dcterms:created>2024-01-15T10:00:00Z</dcterms:created>
<dcterms:modified>2024-02-01T09:30:00Z</dcterms:modified>
</cp:coreProperties>`

	themeXMLFixture = `<?xml version="1.0" encoding="UTF-8"?>
<a:theme xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" name="Office">
<a:themeElements>
<a:clrScheme name="Office">
<a:dk1><a:sysClr val="windowText" lastClr="000000"/></a:dk1>
<a:lt1><a:sysClr val="window" lastClr="FFFFFF"/></a:lt1>
<a:dk2><a:srgbClr val="44546A"/></a:dk2>
<a:lt2><a:srgbClr val="E7E6E6"/></a:lt2>
<a:accent1><a:srgbClr val="4472c4"/></a:accent1>
<a:accent2><a:srgbClr val="ED7D31"/></a:accent2>
<a:accent3><a:srgbClr val="A5A5A5"/></a:accent3>
<a:accent4><a:srgbClr val="FFC000"/></a:accent4>
<a:accent5><a:srgbClr val="5B9BD5"/></a:accent5>
<a:accent6><a:srgbClr val="70AD47"/></a:accent6>
<a:hlink><a:srgbClr val="0563C1"/></a:hlink>
<a:folHlink><a:srgbClr val="954F72"/></a:folHlink>
</a:clrScheme>
<a:fontScheme name="Office">
<a:majorFont><a:latin typeface="Calibri Light"/></a:majorFont>
<a:minorFont><a:latin typeface="Calibri"/></a:minorFont>
</a:fontScheme>
</a:themeElements>
</a:theme>`
)

// pngPixel is a 1x1 PNG.
var pngPixel = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0d, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x60, 0x00, 0x02, 0x00,
	0x00, 0x05, 0x00, 0x01, 0x7a, 0x5e, 0xab, 0x3f, 0x00, 0x00, 0x00, 0x00,
	0x49, 0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

// slideSpec describes one generated slide.
type slideSpec struct {
	paragraphs []string
	background string
	imageRel   string
	rawBody    string
}

// slideXML renders a minimal slide with one text box per paragraph.
func slideXML(s slideSpec) string {
	if s.rawBody != "" {
		return s.rawBody
	}

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"
 xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"
 xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"><p:cSld>`)
	if s.background != "" {
		fmt.Fprintf(&b, `<p:bg><p:bgPr><a:solidFill><a:srgbClr val="%s"/></a:solidFill></p:bgPr></p:bg>`, s.background)
	}
	b.WriteString(`<p:spTree>`)
	for _, para := range s.paragraphs {
		b.WriteString(`<p:sp><p:txBody><a:bodyPr/><a:p>`)
		// Split on "|" to produce multiple runs in one paragraph.
		for _, run := range strings.Split(para, "|") {
			fmt.Fprintf(&b, `<a:r><a:rPr lang="en-US"/><a:t>%s</a:t></a:r>`, run)
		}
		b.WriteString(`</a:p></p:txBody></p:sp>`)
	}
	if s.imageRel != "" {
		fmt.Fprintf(&b, `<p:pic><p:blipFill><a:blip r:embed="%s"/></p:blipFill></p:pic>`, s.imageRel)
	}
	b.WriteString(`</p:spTree></p:cSld></p:sld>`)
	return b.String()
}

const slideRelsXML = `<?xml version="1.0" encoding="UTF-8"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout" Target="../slideLayouts/slideLayout1.xml"/>
<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="../media/image1.png"/>
<Relationship Id="rId3" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink" Target="https://example.test" TargetMode="External"/>
</Relationships>`

// buildDeck packages slides (numbered from 1 in map order of the keys) into a PPTX.
func buildDeck(t *testing.T, slides map[int]slideSpec, extra map[string][]byte) []byte {
	t.Helper()

	files := map[string][]byte{
		"[Content_Types].xml":  []byte(contentTypesXML),
		"docProps/core.xml":    []byte(coreXMLFixture),
		"ppt/theme/theme1.xml": []byte(themeXMLFixture),
	}
	for n, s := range slides {
		files[fmt.Sprintf("ppt/slides/slide%d.xml", n)] = []byte(slideXML(s))
		if s.imageRel != "" {
			files[fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", n)] = []byte(slideRelsXML)
			files["ppt/media/image1.png"] = pngPixel
		}
	}
	for name, data := range extra {
		if data == nil {
			delete(files, name)
			continue
		}
		files[name] = data
	}

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, data := range files {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}
