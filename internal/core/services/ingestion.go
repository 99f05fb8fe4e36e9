package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/lessonkit/refpipe/internal/core/domain"
	"github.com/lessonkit/refpipe/internal/core/ports/driven"
	"github.com/lessonkit/refpipe/internal/core/ports/driving"
	"github.com/lessonkit/refpipe/internal/logger"
)

// Ensure IngestionService implements the interface.
var _ driving.IngestionService = (*IngestionService)(nil)

// DefaultMaxArchiveDepth bounds archive-in-archive recursion.
const DefaultMaxArchiveDepth = 3

// IngestionService routes uploaded items through the content cache,
// archive expansion and the extractor for their kind.
type IngestionService struct {
	classifier driven.FileClassifier
	expander   driven.ArchiveExpander
	extractors driven.ExtractorRegistry
	cache      driven.CacheStore
	store      driven.ExtractionStore
	normalizer *ChunkNormalizer

	cleaners  driven.TextCleanerPipeline
	transfers Transferer
	maxDepth  int
}

// IngestionOption configures an IngestionService.
type IngestionOption func(*IngestionService)

// WithTransfers forwards each top-level upload through the queue before extraction.
func WithTransfers(t Transferer) IngestionOption {
	return func(s *IngestionService) {
		s.transfers = t
	}
}

// WithCleaners runs extracted units through a cleaning pipeline before chunking.
func WithCleaners(p driven.TextCleanerPipeline) IngestionOption {
	return func(s *IngestionService) {
		s.cleaners = p
	}
}

// WithMaxArchiveDepth bounds nested archive expansion.
func WithMaxArchiveDepth(depth int) IngestionOption {
	return func(s *IngestionService) {
		if depth > 0 {
			s.maxDepth = depth
		}
	}
}

// NewIngestionService creates an ingestion service.
func NewIngestionService(
	classifier driven.FileClassifier,
	expander driven.ArchiveExpander,
	extractors driven.ExtractorRegistry,
	cache driven.CacheStore,
	store driven.ExtractionStore,
	opts ...IngestionOption,
) *IngestionService {
	s := &IngestionService{
		classifier: classifier,
		expander:   expander,
		extractors: extractors,
		cache:      cache,
		store:      store,
		normalizer: NewChunkNormalizer(),
		maxDepth:   DefaultMaxArchiveDepth,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest extracts one uploaded item. Archives are expanded and each member
// is ingested independently; a member's failure becomes an error-status
// result and never aborts its siblings. The returned error is reserved for
// invalid input, a terminal upload failure or cancellation.
func (s *IngestionService) Ingest(
	ctx context.Context,
	item domain.UploadItem,
	progress domain.ProgressFunc,
) ([]domain.ExtractionResult, error) {
	if len(item.Content) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", domain.ErrInvalidInput, item.Name)
	}

	logger.Section("Ingest " + item.Name)

	report := reporter(item.Name, progress)
	report(0, domain.StageHashing)
	hash := ContentHash(item.Content)

	// The transfer precedes the cache lookup: a cache hit skips extraction,
	// but every upload still needs its own stored copy under its lesson.
	var storagePath string
	if s.transfers != nil {
		report(5, domain.StageUploading)
		receipt, err := s.transfers.Submit(ctx, domain.UploadRequest{
			Content:      item.Content,
			LessonID:     item.LessonID,
			Category:     item.Category,
			Hash:         hash,
			OriginalName: item.Name,
		})
		if err != nil {
			report(100, domain.StageFailed)
			return nil, err
		}
		storagePath = receipt.StoragePath
	}

	return s.ingest(ctx, item, hash, storagePath, progress, 0)
}

func (s *IngestionService) ingest(
	ctx context.Context,
	item domain.UploadItem,
	hash, storagePath string,
	progress domain.ProgressFunc,
	depth int,
) ([]domain.ExtractionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := reporter(item.Name, progress)
	if item.FileID == "" {
		item.FileID = hash
	}

	result := domain.NewExtractionResult(item.FileID, item.LessonID)
	result.Metadata.ContentHash = hash
	result.Metadata.FileName = item.Name
	result.Metadata.Category = item.Category
	result.Metadata.StoragePath = storagePath

	if len(item.Content) == 0 {
		return s.fail(ctx, result, fmt.Errorf("%w: %s", domain.ErrEmptyDocument, item.Name), report), nil
	}

	// Cache fast path: no extractor runs on a hit.
	if entry, ok := s.lookup(ctx, hash); ok {
		result.Metadata.Kind = s.classifier.Classify(item.Name, item.MIMEType, item.Content)
		if err := s.normalizer.FromCache(result, entry); err != nil {
			return nil, fmt.Errorf("cache result: %w", err)
		}
		logger.Debug("cache hit for %s (%s)", item.Name, hash[:12])
		s.persist(ctx, result)
		report(100, domain.StageCached)
		return []domain.ExtractionResult{*result}, nil
	}

	kind := s.classifier.Classify(item.Name, item.MIMEType, item.Content)
	result.Metadata.Kind = kind
	logger.Debug("%s classified as %s", item.Name, kind)

	if kind == domain.KindArchive {
		if depth >= s.maxDepth {
			err := fmt.Errorf("%w: archive nesting deeper than %d", domain.ErrUnsupportedType, s.maxDepth)
			return s.fail(ctx, result, err, report), nil
		}
		return s.ingestArchive(ctx, item, result, progress, depth)
	}

	if err := result.Start(); err != nil {
		return nil, err
	}
	report(10, domain.StageExtracting)

	out, err := s.extract(ctx, kind, item, func(done, total int) {
		if total > 0 {
			report(10+done*85/total, domain.StageExtracting)
		}
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return s.fail(ctx, result, err, report), nil
	}

	chunks := s.normalizer.Normalize(item.FileID, item.LessonID, out)
	result.Metadata.TotalPages = out.TotalPages
	result.Metadata.FailedUnits = out.FailedUnits
	result.Metadata.Deck = out.Deck
	if out.Confidence != nil {
		result.SetConfidence(*out.Confidence)
	}
	if err := result.Complete(chunks); err != nil {
		return nil, err
	}

	logger.Info("extracted %s: %d chunks from %d units in %dms",
		item.Name, result.ChunkCount, out.TotalPages, result.ExtractionTimeMs)

	s.persist(ctx, result)
	s.storeCache(ctx, hash, result)
	report(100, domain.StageDone)

	return []domain.ExtractionResult{*result}, nil
}

func (s *IngestionService) ingestArchive(
	ctx context.Context,
	item domain.UploadItem,
	archive *domain.ExtractionResult,
	progress domain.ProgressFunc,
	depth int,
) ([]domain.ExtractionResult, error) {
	report := reporter(item.Name, progress)

	if s.expander == nil {
		err := fmt.Errorf("%w: no archive expander configured", domain.ErrUnsupportedType)
		return s.fail(ctx, archive, err, report), nil
	}

	members, err := s.expander.Expand(ctx, item.Content)
	if err != nil {
		return s.fail(ctx, archive, fmt.Errorf("expand archive: %w", err), report), nil
	}
	if len(members) == 0 {
		return s.fail(ctx, archive, fmt.Errorf("%w: archive has no files", domain.ErrEmptyDocument), report), nil
	}

	logger.Debug("%s expanded to %d members", item.Name, len(members))

	results := make([]domain.ExtractionResult, 0, len(members))
	for i, m := range members {
		member := domain.UploadItem{
			Name:     m.Path,
			Content:  m.Content,
			LessonID: item.LessonID,
			FileID:   item.FileID + "/" + m.Path,
			Category: item.Category,
		}

		if m.Err != nil {
			failed := domain.NewExtractionResult(member.FileID, member.LessonID)
			failed.Metadata.FileName = member.Name
			results = append(results, s.fail(ctx, failed, m.Err, reporter(member.Name, progress))...)
			report((i+1)*100/len(members), domain.StageExtracting)
			continue
		}

		memberResults, err := s.ingest(ctx, member, ContentHash(m.Content), archive.Metadata.StoragePath, progress, depth+1)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return results, err
			}
			failed := domain.NewExtractionResult(member.FileID, member.LessonID)
			failed.Metadata.FileName = member.Name
			memberResults = s.fail(ctx, failed, err, reporter(member.Name, progress))
		}
		results = append(results, memberResults...)
		report((i+1)*100/len(members), domain.StageExtracting)
	}

	report(100, domain.StageDone)
	return results, nil
}

// extract runs the extractor for a kind and the cleaning pipeline over its units.
func (s *IngestionService) extract(
	ctx context.Context,
	kind domain.FileKind,
	item domain.UploadItem,
	progress driven.UnitProgress,
) (*driven.ExtractionOutput, error) {
	extractor, err := s.extractors.For(kind)
	if err != nil {
		return nil, err
	}

	out, err := extractor.Extract(ctx, driven.ExtractionInput{
		Name:    item.Name,
		Content: item.Content,
		Kind:    kind,
	}, progress)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", extractor.Name(), err)
	}

	if s.cleaners != nil && len(out.Units) > 0 {
		cleaned, err := s.cleaners.Clean(ctx, out.Units)
		if err != nil {
			return nil, fmt.Errorf("clean: %w", err)
		}
		out.Units = cleaned
	}
	return out, nil
}

// fail terminates a result with an error, persists it and wraps it in a slice.
func (s *IngestionService) fail(
	ctx context.Context,
	result *domain.ExtractionResult,
	cause error,
	report func(int, domain.ProgressStage),
) []domain.ExtractionResult {
	if err := result.Fail(cause); err != nil {
		logger.Warn("fail %s: %v", result.FileID, err)
	}
	logger.Warn("extraction of %s failed: %v", result.Metadata.FileName, cause)
	s.persist(ctx, result)
	report(100, domain.StageFailed)
	return []domain.ExtractionResult{*result}
}

// lookup reads the cache. Read errors are treated as misses.
func (s *IngestionService) lookup(ctx context.Context, hash string) (*domain.CacheEntry, bool) {
	if s.cache == nil {
		return nil, false
	}
	entry, err := s.cache.Get(ctx, hash)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logger.Warn("cache read for %s failed: %v", hash, err)
		}
		return nil, false
	}
	return entry, true
}

// storeCache writes a completed result to the cache. Failures are logged and ignored.
func (s *IngestionService) storeCache(ctx context.Context, hash string, result *domain.ExtractionResult) {
	if s.cache == nil || result.Status != domain.StatusComplete {
		return
	}
	if err := s.cache.Put(ctx, hash, s.normalizer.CacheEntry(result)); err != nil {
		logger.Warn("cache write for %s failed: %v", hash, err)
	}
}

// persist saves a result. Failures are logged and noted on the result.
func (s *IngestionService) persist(ctx context.Context, result *domain.ExtractionResult) {
	if s.store == nil {
		return
	}
	if err := s.store.Save(ctx, result); err != nil {
		logger.Error("save extraction %s: %v", result.FileID, err)
		note := "persist: " + err.Error()
		if result.Metadata.Error != "" {
			note = result.Metadata.Error + "; " + note
		}
		result.Metadata.Error = note
	}
}

// Result returns the stored result for a file.
func (s *IngestionService) Result(ctx context.Context, fileID string) (*domain.ExtractionResult, error) {
	if s.store == nil {
		return nil, domain.ErrNotFound
	}
	return s.store.Get(ctx, fileID)
}

// Results returns all stored results for a lesson.
func (s *IngestionService) Results(ctx context.Context, lessonID string) ([]domain.ExtractionResult, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.ListByLesson(ctx, lessonID)
}

// reporter clamps percentages and drops reports when no callback is set.
func reporter(name string, progress domain.ProgressFunc) func(int, domain.ProgressStage) {
	return func(percent int, stage domain.ProgressStage) {
		if progress == nil {
			return
		}
		if percent < 0 {
			percent = 0
		}
		if percent > 100 {
			percent = 100
		}
		progress(domain.Progress{FileName: name, Percent: percent, Stage: stage})
	}
}
