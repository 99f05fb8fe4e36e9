package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lessonkit/refpipe/internal/adapters/driving/tui/messages"
	"github.com/lessonkit/refpipe/internal/core/domain"
)

func testItems(names ...string) []domain.UploadItem {
	items := make([]domain.UploadItem, len(names))
	for i, n := range names {
		items[i] = domain.UploadItem{Name: n, Content: []byte(n), LessonID: "lesson-1"}
	}
	return items
}

func completeResult(name string, chunks int) domain.ExtractionResult {
	r := domain.ExtractionResult{FileID: name, LessonID: "lesson-1", Status: domain.StatusComplete, ChunkCount: chunks}
	r.Metadata.FileName = name
	return r
}

func newTestApp(t *testing.T, svc *MockIngestionService, names ...string) *App {
	t.Helper()
	app, err := NewApp(&Ports{Ingestion: svc}, testItems(names...))
	require.NoError(t, err)
	return app
}

func TestNewApp_InvalidPorts(t *testing.T) {
	app, err := NewApp(&Ports{}, testItems("a.pdf"))

	assert.ErrorIs(t, err, ErrMissingIngestionService)
	assert.Nil(t, app)
}

func TestNewApp_NoItems(t *testing.T) {
	app, err := NewApp(&Ports{Ingestion: &MockIngestionService{}}, nil)

	assert.ErrorIs(t, err, ErrNoItems)
	assert.Nil(t, app)
}

func TestNewApp_TracksItemsInOrder(t *testing.T) {
	app := newTestApp(t, &MockIngestionService{}, "deck.pptx", "scan.pdf")

	require.Len(t, app.rows, 2)
	assert.Equal(t, "deck.pptx", app.rows[0].name)
	assert.Equal(t, "scan.pdf", app.rows[1].name)
	assert.False(t, app.rows[0].member)
}

func TestApp_ProgressUpdatesRow(t *testing.T) {
	app := newTestApp(t, &MockIngestionService{}, "deck.pptx")

	_, cmd := app.Update(messages.ProgressReported{Progress: domain.Progress{
		FileName: "deck.pptx", Percent: 55, Stage: domain.StageExtracting,
	}})

	assert.NotNil(t, cmd)
	assert.Equal(t, 55, app.rows[0].percent)
	assert.Equal(t, domain.StageExtracting, app.rows[0].stage)
	assert.False(t, app.rows[0].done)
}

func TestApp_ProgressForArchiveMemberAddsRow(t *testing.T) {
	app := newTestApp(t, &MockIngestionService{}, "bundle.zip")

	app.Update(messages.ProgressReported{Progress: domain.Progress{
		FileName: "slides/intro.pptx", Percent: 100, Stage: domain.StageDone,
	}})

	require.Len(t, app.rows, 2)
	assert.True(t, app.rows[1].member)
	assert.True(t, app.rows[1].done)
	assert.Contains(t, app.View(), "└ slides/intro.pptx")
}

func TestApp_ItemCompleted(t *testing.T) {
	app := newTestApp(t, &MockIngestionService{}, "deck.pptx", "bad.bin")

	app.Update(messages.ItemCompleted{Name: "deck.pptx", Results: []domain.ExtractionResult{completeResult("deck.pptx", 4)}})
	failed := domain.ExtractionResult{FileID: "bad.bin", Status: domain.StatusError}
	app.Update(messages.ItemCompleted{Name: "bad.bin", Results: []domain.ExtractionResult{failed}})

	assert.Equal(t, 2, app.completed)
	assert.Len(t, app.Results(), 2)
	assert.Equal(t, domain.StageDone, app.rows[0].stage)
	assert.Equal(t, domain.StageFailed, app.rows[1].stage)
	assert.Contains(t, app.View(), "2/2 items")
}

func TestApp_ItemCompletedWithError(t *testing.T) {
	app := newTestApp(t, &MockIngestionService{}, "deck.pptx")

	app.Update(messages.ItemCompleted{Name: "deck.pptx", Err: errors.New("upload rejected")})
	app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})

	assert.Equal(t, domain.StageFailed, app.rows[0].stage)
	assert.Contains(t, app.View(), "upload rejected")
}

func TestApp_CachedStageSurvivesCompletion(t *testing.T) {
	app := newTestApp(t, &MockIngestionService{}, "deck.pptx")

	app.Update(messages.ProgressReported{Progress: domain.Progress{FileName: "deck.pptx", Percent: 100, Stage: domain.StageCached}})
	app.Update(messages.ItemCompleted{Name: "deck.pptx", Results: []domain.ExtractionResult{completeResult("deck.pptx", 1)}})

	assert.Equal(t, domain.StageCached, app.rows[0].stage)
}

func TestApp_BatchFinishedQuits(t *testing.T) {
	app := newTestApp(t, &MockIngestionService{}, "deck.pptx")

	_, cmd := app.Update(messages.BatchFinished{})

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, app.Finished())
	assert.False(t, app.Cancelled())
}

func TestApp_QuitBeforeFinishCancels(t *testing.T) {
	app := newTestApp(t, &MockIngestionService{}, "deck.pptx")

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, app.Cancelled())
}

func TestApp_DetailsShowConfidence(t *testing.T) {
	app := newTestApp(t, &MockIngestionService{}, "scan.pdf")
	res := completeResult("scan.pdf", 2)
	res.SetConfidence(0.62)

	app.Update(messages.ItemCompleted{Name: "scan.pdf", Results: []domain.ExtractionResult{res}})
	assert.NotContains(t, app.View(), "confidence")

	app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})
	assert.Contains(t, app.View(), "confidence 0.62")
}

func TestApp_ViewShowsRecognitionJobs(t *testing.T) {
	app, err := NewApp(&Ports{
		Ingestion:   &MockIngestionService{},
		Recognition: &MockRecognitionStatus{Jobs: 2},
	}, testItems("scan.pdf"))
	require.NoError(t, err)

	assert.Contains(t, app.View(), "ocr jobs: 2")
}

func TestApp_WindowSizeClampsBar(t *testing.T) {
	app := newTestApp(t, &MockIngestionService{}, "deck.pptx")

	app.Update(tea.WindowSizeMsg{Width: 20, Height: 10})
	assert.Equal(t, minBarWidth, app.bar.Width)

	app.Update(tea.WindowSizeMsg{Width: 400, Height: 10})
	assert.Equal(t, maxBarWidth, app.bar.Width)
}

func TestApp_WorkerPostsEvents(t *testing.T) {
	svc := &MockIngestionService{
		IngestFunc: func(_ context.Context, item domain.UploadItem, progress domain.ProgressFunc) ([]domain.ExtractionResult, error) {
			progress(domain.Progress{FileName: item.Name, Percent: 100, Stage: domain.StageDone})
			return []domain.ExtractionResult{completeResult(item.Name, 1)}, nil
		},
	}
	app := newTestApp(t, svc, "a.txt", "b.txt")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	go app.work(ctx)

	var got []tea.Msg
	for msg := range app.events {
		got = append(got, msg)
	}

	require.Len(t, got, 5)
	assert.IsType(t, messages.ProgressReported{}, got[0])
	assert.IsType(t, messages.ItemCompleted{}, got[1])
	assert.IsType(t, messages.BatchFinished{}, got[4])
	assert.Equal(t, "b.txt", got[3].(messages.ItemCompleted).Name)
}

func TestApp_WorkerStopsWhenCancelled(t *testing.T) {
	svc := &MockIngestionService{
		IngestFunc: func(ctx context.Context, _ domain.UploadItem, _ domain.ProgressFunc) ([]domain.ExtractionResult, error) {
			return nil, ctx.Err()
		},
	}
	app := newTestApp(t, svc, "a.txt", "b.txt")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	app.work(ctx)

	_, open := <-app.events
	assert.False(t, open)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}
