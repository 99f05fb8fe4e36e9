package text

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lessonkit/refpipe/internal/core/domain"
	"github.com/lessonkit/refpipe/internal/core/ports/driven"
)

const documentFixture = `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>Vocabulary</w:t></w:r></w:p>
<w:p><w:r><w:t xml:space="preserve">Erosion: </w:t></w:r><w:r><w:t>wearing away</w:t></w:r></w:p>
<w:p><w:r><w:br w:type="page"/></w:r></w:p>
<w:p><w:r><w:t>Activity</w:t></w:r></w:p>
</w:body>
</w:document>`

func docxBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, body := range files {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestDocxExtractor_Extract(t *testing.T) {
	data := docxBytes(t, map[string]string{
		"word/document.xml": documentFixture,
		"docProps/core.xml": `<cp:coreProperties xmlns:cp="x" xmlns:dc="http://purl.org/dc/elements/1.1/"><dc:title>Earth Science</dc:title></cp:coreProperties>`,
	})

	out, err := NewDocxExtractor().Extract(context.Background(), driven.ExtractionInput{Name: "notes.docx", Content: data}, nil)

	require.NoError(t, err)
	assert.Equal(t, 2, out.TotalPages)
	require.Len(t, out.Units, 2)
	assert.Equal(t, "Vocabulary\nErosion: wearing away", out.Units[0].Text)
	assert.Equal(t, "Activity", out.Units[1].Text)
	assert.Equal(t, "Earth Science", out.Units[0].Metadata["title"])
	assert.Equal(t, domain.SourceStructuralParse, out.Units[0].Source)
}

func TestDocxExtractor_Extract_TitleFallback(t *testing.T) {
	data := docxBytes(t, map[string]string{"word/document.xml": documentFixture})

	out, err := NewDocxExtractor().Extract(context.Background(), driven.ExtractionInput{Name: "rock_cycle.docx", Content: data}, nil)

	require.NoError(t, err)
	assert.Equal(t, "rock cycle", out.Units[0].Metadata["title"])
}

func TestDocxExtractor_Extract_Invalid(t *testing.T) {
	e := NewDocxExtractor()

	_, err := e.Extract(context.Background(), driven.ExtractionInput{Content: []byte("nope")}, nil)
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = e.Extract(context.Background(), driven.ExtractionInput{
		Content: docxBytes(t, map[string]string{"other.xml": "<x/>"}),
	}, nil)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "word/document.xml")
}
