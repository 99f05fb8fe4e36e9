package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lessonkit/refpipe/internal/adapters/driven/storage/memory"
	"github.com/lessonkit/refpipe/internal/core/domain"
	"github.com/lessonkit/refpipe/internal/core/ports/driven"
)

type ingestionFixture struct {
	service   *IngestionService
	cache     *memory.CacheStore
	store     *memory.ExtractionStore
	extractor *textExtractor
	expander  *stubExpander
}

func newIngestionFixture(opts ...IngestionOption) *ingestionFixture {
	f := &ingestionFixture{
		cache: memory.NewCacheStore(),
		store: memory.NewExtractionStore(),
		extractor: &textExtractor{kinds: []domain.FileKind{
			domain.KindText, domain.KindSlideDeck,
		}},
		expander: &stubExpander{},
	}
	f.service = NewIngestionService(
		stubClassifier{},
		f.expander,
		newStubRegistry(f.extractor),
		f.cache,
		f.store,
		opts...,
	)
	return f
}

func TestIngestionService_Ingest_EmptyContent(t *testing.T) {
	f := newIngestionFixture()

	_, err := f.service.Ingest(context.Background(), domain.UploadItem{Name: "a.txt"}, nil)

	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIngestionService_Ingest_Complete(t *testing.T) {
	f := newIngestionFixture()
	item := domain.UploadItem{Name: "notes.txt", Content: []byte("fractions are parts"), LessonID: "lesson-1"}

	results, err := f.service.Ingest(context.Background(), item, nil)

	require.NoError(t, err)
	require.Len(t, results, 1)
	r := results[0]
	assert.Equal(t, domain.StatusComplete, r.Status)
	assert.Equal(t, ContentHash(item.Content), r.FileID)
	assert.Equal(t, "lesson-1", r.LessonID)
	assert.Equal(t, len(r.Chunks), r.ChunkCount)
	assert.Equal(t, 1, r.ChunkCount)
	assert.Equal(t, domain.KindText, r.Metadata.Kind)
	assert.False(t, r.Metadata.CacheHit)
	assert.Equal(t, domain.SourceStructuralParse, r.Chunks[0].Source)
	assert.Equal(t, "lesson-1", r.Chunks[0].LessonID)

	stored, err := f.service.Result(context.Background(), r.FileID)
	require.NoError(t, err)
	assert.Equal(t, r.Chunks, stored.Chunks)
}

func TestIngestionService_Ingest_CacheHitIsIdempotent(t *testing.T) {
	f := newIngestionFixture()
	item := domain.UploadItem{Name: "deck.pptx", Content: []byte("photosynthesis"), LessonID: "lesson-1"}

	first, err := f.service.Ingest(context.Background(), item, nil)
	require.NoError(t, err)

	var stages []domain.ProgressStage
	second, err := f.service.Ingest(context.Background(), item, func(p domain.Progress) {
		stages = append(stages, p.Stage)
	})
	require.NoError(t, err)

	require.Len(t, second, 1)
	assert.True(t, second[0].Metadata.CacheHit)
	assert.Equal(t, domain.StatusComplete, second[0].Status)
	assert.Equal(t, first[0].Chunks, second[0].Chunks)
	assert.Equal(t, first[0].ChunkCount, second[0].ChunkCount)
	assert.Equal(t, int32(1), f.extractor.calls.Load())
	assert.Equal(t, 1, f.cache.Writes())
	assert.Contains(t, stages, domain.StageCached)
}

func TestIngestionService_Ingest_SameBytesDifferentNameHitsCache(t *testing.T) {
	f := newIngestionFixture()
	content := []byte("the water cycle")

	_, err := f.service.Ingest(context.Background(),
		domain.UploadItem{Name: "a.txt", Content: content, LessonID: "l1"}, nil)
	require.NoError(t, err)
	results, err := f.service.Ingest(context.Background(),
		domain.UploadItem{Name: "b.txt", Content: content, LessonID: "l1"}, nil)
	require.NoError(t, err)

	assert.True(t, results[0].Metadata.CacheHit)
	assert.Equal(t, int32(1), f.extractor.calls.Load())
}

func TestIngestionService_Ingest_UnsupportedKind(t *testing.T) {
	f := newIngestionFixture()

	results, err := f.service.Ingest(context.Background(),
		domain.UploadItem{Name: "movie.mov", Content: []byte{0, 1, 2}}, nil)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, domain.StatusError, results[0].Status)
	assert.Contains(t, results[0].Metadata.Error, "unsupported type")
	assert.Empty(t, results[0].Chunks)
	assert.Equal(t, 0, f.cache.Len())
}

func TestIngestionService_Ingest_ExtractorFailureIsNotCached(t *testing.T) {
	f := newIngestionFixture()
	item := domain.UploadItem{Name: "broken.txt", Content: []byte("FAIL")}

	results, err := f.service.Ingest(context.Background(), item, nil)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusError, results[0].Status)
	assert.Contains(t, results[0].Metadata.Error, "corrupt file")
	assert.Equal(t, 0, f.cache.Len())

	_, err = f.service.Ingest(context.Background(), item, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.extractor.calls.Load())
}

func TestIngestionService_Ingest_ArchiveMemberFailureIsIsolated(t *testing.T) {
	f := newIngestionFixture()
	f.expander.members = []driven.ArchiveMember{
		{Path: "unit/one.txt", Content: []byte("first file")},
		{Path: "unit/two.txt", Content: []byte("FAIL")},
		{Path: "unit/three.pptx", Content: []byte("third file")},
	}

	results, err := f.service.Ingest(context.Background(), domain.UploadItem{
		Name: "materials.zip", Content: []byte("PK"), LessonID: "lesson-9", FileID: "upload-1",
	}, nil)

	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, domain.StatusComplete, results[0].Status)
	assert.Equal(t, domain.StatusError, results[1].Status)
	assert.Equal(t, domain.StatusComplete, results[2].Status)

	assert.Equal(t, "upload-1/unit/one.txt", results[0].FileID)
	assert.Equal(t, "upload-1/unit/two.txt", results[1].FileID)
	assert.Equal(t, "unit/three.pptx", results[2].Metadata.FileName)
	for _, r := range results {
		assert.Equal(t, "lesson-9", r.LessonID)
	}

	listed, err := f.service.Results(context.Background(), "lesson-9")
	require.NoError(t, err)
	assert.Len(t, listed, 3)
}

func TestIngestionService_Ingest_UnreadableArchiveMember(t *testing.T) {
	f := newIngestionFixture()
	f.expander.members = []driven.ArchiveMember{
		{Path: "unit/one.txt", Content: []byte("first file")},
		{Path: "unit/broken.txt", Err: errors.New("read unit/broken.txt: zip: checksum error")},
		{Path: "unit/three.txt", Content: []byte("third file")},
	}

	results, err := f.service.Ingest(context.Background(), domain.UploadItem{
		Name: "materials.zip", Content: []byte("PK"), LessonID: "lesson-9", FileID: "upload-1",
	}, nil)

	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, domain.StatusComplete, results[0].Status)
	assert.Equal(t, domain.StatusError, results[1].Status)
	assert.Equal(t, "upload-1/unit/broken.txt", results[1].FileID)
	assert.Equal(t, "unit/broken.txt", results[1].Metadata.FileName)
	assert.Contains(t, results[1].Metadata.Error, "checksum error")
	assert.Equal(t, domain.StatusComplete, results[2].Status)
}

func TestIngestionService_Ingest_ArchiveExpandFailure(t *testing.T) {
	f := newIngestionFixture()
	f.expander.err = errors.New("zip: not a valid zip file")

	results, err := f.service.Ingest(context.Background(),
		domain.UploadItem{Name: "bad.zip", Content: []byte("nope")}, nil)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, domain.StatusError, results[0].Status)
	assert.Contains(t, results[0].Metadata.Error, "expand archive")
}

func TestIngestionService_Ingest_EmptyArchive(t *testing.T) {
	f := newIngestionFixture()

	results, err := f.service.Ingest(context.Background(),
		domain.UploadItem{Name: "empty.zip", Content: []byte("PK")}, nil)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, domain.StatusError, results[0].Status)
	assert.Contains(t, results[0].Metadata.Error, "empty document")
}

func TestIngestionService_Ingest_NestedArchiveDepth(t *testing.T) {
	f := newIngestionFixture(WithMaxArchiveDepth(1))
	f.expander.members = []driven.ArchiveMember{
		{Path: "inner.zip", Content: []byte("PK inner")},
	}

	results, err := f.service.Ingest(context.Background(),
		domain.UploadItem{Name: "outer.zip", Content: []byte("PK outer")}, nil)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, domain.StatusError, results[0].Status)
	assert.Contains(t, results[0].Metadata.Error, "nesting")
}

func TestIngestionService_Ingest_CacheFailuresAreNotFatal(t *testing.T) {
	cache := &brokenCache{getErr: errors.New("connection refused"), putErr: errors.New("read-only")}
	extractor := &textExtractor{kinds: []domain.FileKind{domain.KindText}}
	service := NewIngestionService(stubClassifier{}, nil, newStubRegistry(extractor), cache, memory.NewExtractionStore())

	results, err := service.Ingest(context.Background(),
		domain.UploadItem{Name: "a.txt", Content: []byte("hello")}, nil)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusComplete, results[0].Status)
	assert.Equal(t, int32(1), cache.puts.Load())
}

func TestIngestionService_Ingest_PersistFailureIsNoted(t *testing.T) {
	extractor := &textExtractor{kinds: []domain.FileKind{domain.KindText}}
	service := NewIngestionService(stubClassifier{}, nil, newStubRegistry(extractor), memory.NewCacheStore(), brokenStore{})

	results, err := service.Ingest(context.Background(),
		domain.UploadItem{Name: "a.txt", Content: []byte("hello")}, nil)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusComplete, results[0].Status)
	assert.Contains(t, results[0].Metadata.Error, "persist: database is locked")
}

func TestIngestionService_Ingest_UploadsBeforeExtraction(t *testing.T) {
	transfers := &staticTransferer{receipt: &domain.UploadReceipt{StoragePath: "lessons/l1/abc"}}
	f := newIngestionFixture(WithTransfers(transfers))

	results, err := f.service.Ingest(context.Background(),
		domain.UploadItem{Name: "a.txt", Content: []byte("hello"), LessonID: "l1"}, nil)

	require.NoError(t, err)
	assert.Equal(t, int32(1), transfers.calls.Load())
	assert.Equal(t, "lessons/l1/abc", results[0].Metadata.StoragePath)
}

func TestIngestionService_Ingest_CacheHitStillUploads(t *testing.T) {
	transfers := &staticTransferer{receipt: &domain.UploadReceipt{StoragePath: "lessons/l2/abc"}}
	f := newIngestionFixture(WithTransfers(transfers))
	content := []byte("shared worksheet")

	_, err := f.service.Ingest(context.Background(),
		domain.UploadItem{Name: "a.txt", Content: content, LessonID: "l1"}, nil)
	require.NoError(t, err)
	results, err := f.service.Ingest(context.Background(),
		domain.UploadItem{Name: "a.txt", Content: content, LessonID: "l2", FileID: "l2-a"}, nil)
	require.NoError(t, err)

	assert.Equal(t, int32(2), transfers.calls.Load())
	assert.Equal(t, int32(1), f.extractor.calls.Load())
	require.Len(t, results, 1)
	assert.True(t, results[0].Metadata.CacheHit)
	assert.Equal(t, "lessons/l2/abc", results[0].Metadata.StoragePath)
}

func TestIngestionService_Ingest_UploadFailureIsReturned(t *testing.T) {
	transfers := &staticTransferer{err: errors.New("upload a.txt: 403 forbidden")}
	f := newIngestionFixture(WithTransfers(transfers))

	results, err := f.service.Ingest(context.Background(),
		domain.UploadItem{Name: "a.txt", Content: []byte("hello")}, nil)

	require.Error(t, err)
	assert.Nil(t, results)
	assert.Equal(t, int32(0), f.extractor.calls.Load())
}

func TestIngestionService_Ingest_ProgressIsMonotonic(t *testing.T) {
	f := newIngestionFixture()

	var mu sync.Mutex
	var reports []domain.Progress
	_, err := f.service.Ingest(context.Background(),
		domain.UploadItem{Name: "a.txt", Content: []byte("hello")},
		func(p domain.Progress) {
			mu.Lock()
			defer mu.Unlock()
			reports = append(reports, p)
		})
	require.NoError(t, err)

	require.NotEmpty(t, reports)
	for i := 1; i < len(reports); i++ {
		assert.GreaterOrEqual(t, reports[i].Percent, reports[i-1].Percent)
	}
	last := reports[len(reports)-1]
	assert.Equal(t, 100, last.Percent)
	assert.Equal(t, domain.StageDone, last.Stage)
	assert.Equal(t, "a.txt", last.FileName)
}

func TestIngestionService_Ingest_Cancelled(t *testing.T) {
	f := newIngestionFixture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.service.Ingest(ctx, domain.UploadItem{Name: "a.txt", Content: []byte("hello")}, nil)

	require.ErrorIs(t, err, context.Canceled)
}

func TestIngestionService_Ingest_ScannedPDF(t *testing.T) {
	engine := &scriptedEngine{pages: []pageResult{
		{text: "Page one text", confidence: 0.9},
		{text: "", confidence: 0},
		{text: "Page three text", confidence: 0.6},
	}}
	factory := &countingFactory{engine: engine}
	orch := NewRecognitionOrchestrator(factory.build, &fakeRasterizer{pages: 3}, &fakeDecoder{}, driven.RenderBounds{})
	cache := memory.NewCacheStore()
	service := NewIngestionService(stubClassifier{}, nil,
		newStubRegistry(&orchestratorExtractor{o: orch}), cache, memory.NewExtractionStore())

	item := domain.UploadItem{Name: "scan.pdf", Content: []byte("%PDF-1.7"), LessonID: "l1"}
	results, err := service.Ingest(context.Background(), item, nil)
	require.NoError(t, err)

	r := results[0]
	assert.Equal(t, domain.StatusComplete, r.Status)
	require.Len(t, r.Chunks, 2)
	assert.Equal(t, 1, r.Chunks[0].PageOrSlide)
	assert.Equal(t, 3, r.Chunks[1].PageOrSlide)
	assert.Equal(t, domain.SourceOCRPDFPage, r.Chunks[0].Source)
	assert.Equal(t, 3, r.Metadata.TotalPages)
	require.NotNil(t, r.Metadata.OCRConfidence)
	assert.InDelta(t, 0.5, *r.Metadata.OCRConfidence, 1e-9)
	assert.True(t, r.Metadata.LowConfidence)

	again, err := service.Ingest(context.Background(), item, nil)
	require.NoError(t, err)
	assert.True(t, again[0].Metadata.CacheHit)
	assert.True(t, again[0].Metadata.LowConfidence)
	assert.Equal(t, 3, again[0].Metadata.TotalPages)
	assert.Equal(t, int32(3), engine.calls.Load())
	assert.Equal(t, 0, orch.ActiveJobs())
}
