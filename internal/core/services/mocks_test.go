package services

import (
	"context"
	"errors"
	"image"
	"path"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lessonkit/refpipe/internal/core/domain"
	"github.com/lessonkit/refpipe/internal/core/ports/driven"
)

// stubClassifier classifies by extension only.
type stubClassifier struct{}

func (stubClassifier) Classify(name, _ string, _ []byte) domain.FileKind {
	switch path.Ext(name) {
	case ".zip":
		return domain.KindArchive
	case ".pptx":
		return domain.KindSlideDeck
	case ".pdf":
		return domain.KindPDF
	case ".png", ".jpg":
		return domain.KindImage
	case ".txt":
		return domain.KindText
	default:
		return domain.KindUnknown
	}
}

// stubExpander returns fixed members.
type stubExpander struct {
	members []driven.ArchiveMember
	err     error
}

func (e *stubExpander) Expand(_ context.Context, _ []byte) ([]driven.ArchiveMember, error) {
	return e.members, e.err
}

// stubRegistry maps kinds to extractors.
type stubRegistry struct {
	extractors map[domain.FileKind]driven.Extractor
}

func newStubRegistry(extractors ...driven.Extractor) *stubRegistry {
	r := &stubRegistry{extractors: make(map[domain.FileKind]driven.Extractor)}
	for _, e := range extractors {
		r.Register(e)
	}
	return r
}

func (r *stubRegistry) Register(e driven.Extractor) {
	for _, k := range e.Kinds() {
		r.extractors[k] = e
	}
}

func (r *stubRegistry) For(kind domain.FileKind) (driven.Extractor, error) {
	e, ok := r.extractors[kind]
	if !ok {
		return nil, domain.ErrUnsupportedType
	}
	return e, nil
}

func (r *stubRegistry) Kinds() []domain.FileKind {
	kinds := make([]domain.FileKind, 0, len(r.extractors))
	for k := range r.extractors {
		kinds = append(kinds, k)
	}
	return kinds
}

// textExtractor emits one unit per line-free input and counts calls.
// Inputs whose content is "FAIL" return an error.
type textExtractor struct {
	kinds []domain.FileKind
	calls atomic.Int32
}

func (e *textExtractor) Name() string { return "text-stub" }

func (e *textExtractor) Kinds() []domain.FileKind { return e.kinds }

func (e *textExtractor) Extract(
	_ context.Context,
	in driven.ExtractionInput,
	progress driven.UnitProgress,
) (*driven.ExtractionOutput, error) {
	e.calls.Add(1)
	if string(in.Content) == "FAIL" {
		return nil, errors.New("corrupt file")
	}
	if progress != nil {
		progress(1, 1)
	}
	return &driven.ExtractionOutput{
		TotalPages: 1,
		Units: []domain.ExtractionUnit{{
			Index:    1,
			Source:   domain.SourceStructuralParse,
			Text:     string(in.Content),
			Metadata: map[string]any{"name": in.Name},
		}},
	}, nil
}

// orchestratorExtractor routes PDFs and images through a RecognitionOrchestrator.
type orchestratorExtractor struct {
	o *RecognitionOrchestrator
}

func (e *orchestratorExtractor) Name() string { return "ocr-stub" }

func (e *orchestratorExtractor) Kinds() []domain.FileKind {
	return []domain.FileKind{domain.KindPDF, domain.KindImage}
}

func (e *orchestratorExtractor) Extract(
	ctx context.Context,
	in driven.ExtractionInput,
	progress driven.UnitProgress,
) (*driven.ExtractionOutput, error) {
	if in.Kind == domain.KindPDF {
		return e.o.RecognizePDF(ctx, in.Content, progress)
	}
	return e.o.RecognizeImage(ctx, in.Content, progress)
}

// pageResult scripts one page's recognition.
type pageResult struct {
	text       string
	confidence float64
	err        error
}

// scriptedEngine returns results keyed by page. The page index is encoded
// in the width of the rendered image (width = page index + 1).
type scriptedEngine struct {
	pages       []pageResult
	calls       atomic.Int32
	inFlight    atomic.Int32
	maxFlight   atomic.Int32
	closed      atomic.Bool
	delay       time.Duration
	onRecognize func()
}

func (e *scriptedEngine) Recognize(_ context.Context, img image.Image) (*driven.Recognition, error) {
	e.calls.Add(1)
	n := e.inFlight.Add(1)
	defer e.inFlight.Add(-1)
	for {
		cur := e.maxFlight.Load()
		if n <= cur || e.maxFlight.CompareAndSwap(cur, n) {
			break
		}
	}
	if e.onRecognize != nil {
		e.onRecognize()
	}
	if e.delay > 0 {
		time.Sleep(e.delay)
	}

	idx := img.Bounds().Dx() - 1
	if idx < 0 || idx >= len(e.pages) {
		return &driven.Recognition{}, nil
	}
	p := e.pages[idx]
	if p.err != nil {
		return nil, p.err
	}
	return &driven.Recognition{Text: p.text, Confidence: p.confidence, Words: len(p.text)}, nil
}

func (e *scriptedEngine) Close() error {
	e.closed.Store(true)
	return nil
}

// countingFactory hands out one engine and counts constructions.
type countingFactory struct {
	engine *scriptedEngine
	err    error
	calls  atomic.Int32
}

func (f *countingFactory) build(_ context.Context) (driven.RecognitionEngine, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.engine, nil
}

// fakeRasterizer opens documents with a fixed page count.
type fakeRasterizer struct {
	pages     int
	renderErr map[int]error
	openErr   error
	closed    atomic.Int32
}

func (r *fakeRasterizer) Open(_ []byte) (driven.RasterDocument, error) {
	if r.openErr != nil {
		return nil, r.openErr
	}
	return &fakeRasterDoc{r: r}, nil
}

type fakeRasterDoc struct {
	r *fakeRasterizer
}

func (d *fakeRasterDoc) NumPages() int { return d.r.pages }

func (d *fakeRasterDoc) RenderPage(_ context.Context, index int, _ driven.RenderBounds) (image.Image, error) {
	if err := d.r.renderErr[index]; err != nil {
		return nil, err
	}
	return image.NewGray(image.Rect(0, 0, index+1, 1)), nil
}

func (d *fakeRasterDoc) Close() error {
	d.r.closed.Add(1)
	return nil
}

// fakeDecoder returns a 1x1 image (page index 0).
type fakeDecoder struct {
	err error
}

func (d *fakeDecoder) Decode(_ []byte, _ driven.RenderBounds) (image.Image, error) {
	if d.err != nil {
		return nil, d.err
	}
	return image.NewGray(image.Rect(0, 0, 1, 1)), nil
}

// brokenCache fails reads and/or writes.
type brokenCache struct {
	getErr error
	putErr error
	puts   atomic.Int32
}

func (c *brokenCache) Get(_ context.Context, _ string) (*domain.CacheEntry, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	return nil, domain.ErrNotFound
}

func (c *brokenCache) Put(_ context.Context, _ string, _ *domain.CacheEntry) error {
	c.puts.Add(1)
	return c.putErr
}

// brokenStore fails every save.
type brokenStore struct{}

func (brokenStore) Save(_ context.Context, _ *domain.ExtractionResult) error {
	return errors.New("database is locked")
}

func (brokenStore) Get(_ context.Context, _ string) (*domain.ExtractionResult, error) {
	return nil, domain.ErrNotFound
}

func (brokenStore) ListByLesson(_ context.Context, _ string) ([]domain.ExtractionResult, error) {
	return nil, nil
}

// scriptedTransport returns queued errors, then succeeds.
type scriptedTransport struct {
	mu        sync.Mutex
	errs      []error
	attempts  int
	order     []string
	inFlight  atomic.Int32
	maxFlight atomic.Int32
	delay     time.Duration
}

func (t *scriptedTransport) Upload(_ context.Context, req domain.UploadRequest) (*domain.UploadReceipt, error) {
	n := t.inFlight.Add(1)
	defer t.inFlight.Add(-1)
	if n > t.maxFlight.Load() {
		t.maxFlight.Store(n)
	}
	if t.delay > 0 {
		time.Sleep(t.delay)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.attempts++
	t.order = append(t.order, req.OriginalName)
	if len(t.errs) > 0 {
		err := t.errs[0]
		t.errs = t.errs[1:]
		return nil, err
	}
	return &domain.UploadReceipt{StoragePath: "lessons/" + req.LessonID + "/" + req.Hash}, nil
}

// staticTransferer returns a fixed outcome.
type staticTransferer struct {
	receipt *domain.UploadReceipt
	err     error
	calls   atomic.Int32
}

func (s *staticTransferer) Submit(_ context.Context, _ domain.UploadRequest) (*domain.UploadReceipt, error) {
	s.calls.Add(1)
	return s.receipt, s.err
}
