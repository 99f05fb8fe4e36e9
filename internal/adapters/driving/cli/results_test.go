package cli

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lessonkit/refpipe/internal/core/domain"
)

func TestResultsCmd(t *testing.T) {
	withServices(t, Services{Ingestion: &mockIngestionService{results: []domain.ExtractionResult{
		completeResult("deck.pptx", 12),
		completeResult("scan.pdf", 3),
	}}})

	out, err := executeCommand(t, "", "results", "lesson-1")

	require.NoError(t, err)
	assert.Contains(t, out, "deck.pptx")
	assert.Contains(t, out, "scan.pdf")
	assert.Contains(t, out, "2 of 2 files extracted")
}

func TestResultsCmd_Empty(t *testing.T) {
	withServices(t, Services{Ingestion: &mockIngestionService{}})

	out, err := executeCommand(t, "", "results", "lesson-0")

	require.NoError(t, err)
	assert.Contains(t, out, "No extraction results for lesson lesson-0.")
}

func TestResultsCmd_JSONEmptyArray(t *testing.T) {
	withServices(t, Services{Ingestion: &mockIngestionService{}})

	out, err := executeCommand(t, "", "results", "lesson-0", "--json")

	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)
}

func TestResultsCmd_Error(t *testing.T) {
	withServices(t, Services{Ingestion: &mockIngestionService{err: errors.New("database is locked")}})

	_, err := executeCommand(t, "", "results", "l")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "database is locked")
}

func TestShowCmd(t *testing.T) {
	confidence := 0.91
	result := completeResult("scan.pdf", 2)
	result.Metadata.OCRConfidence = &confidence
	result.Metadata.FailedUnits = []int{3}
	result.Chunks = []domain.ReferenceChunk{
		{PageOrSlide: 1, Source: domain.SourceKind("ocr"), Text: "Fractions are parts of a whole."},
	}
	withServices(t, Services{Ingestion: &mockIngestionService{result: &result}})

	out, err := executeCommand(t, "", "show", "id-scan.pdf", "--chunks")

	require.NoError(t, err)
	assert.Contains(t, out, "scan.pdf")
	assert.Contains(t, out, "0.91")
	assert.Contains(t, out, "Fractions are parts of a whole.")
}

func TestShowCmd_JSON(t *testing.T) {
	result := completeResult("a.txt", 1)
	withServices(t, Services{Ingestion: &mockIngestionService{result: &result}})

	out, err := executeCommand(t, "", "show", "id-a.txt", "--json")

	require.NoError(t, err)
	var got domain.ExtractionResult
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "id-a.txt", got.FileID)
}

func TestShowCmd_NotFound(t *testing.T) {
	withServices(t, Services{Ingestion: &mockIngestionService{err: domain.ErrNotFound}})

	_, err := executeCommand(t, "", "show", "nope")

	require.Error(t, err)
	assert.Equal(t, "no extraction result for nope", err.Error())
}
