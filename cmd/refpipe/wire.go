package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/lessonkit/refpipe/internal/adapters/driven/config/allowlist"
	"github.com/lessonkit/refpipe/internal/adapters/driven/raster/fitz"
	"github.com/lessonkit/refpipe/internal/adapters/driven/raster/imaging"
	"github.com/lessonkit/refpipe/internal/adapters/driven/raster/pdfinfo"
	"github.com/lessonkit/refpipe/internal/adapters/driven/recognition/tesseract"
	"github.com/lessonkit/refpipe/internal/adapters/driven/storage/memory"
	"github.com/lessonkit/refpipe/internal/adapters/driven/storage/redis"
	"github.com/lessonkit/refpipe/internal/adapters/driven/storage/sqlite"
	"github.com/lessonkit/refpipe/internal/adapters/driven/upload"
	"github.com/lessonkit/refpipe/internal/adapters/driving/cli"
	"github.com/lessonkit/refpipe/internal/cleaners"
	"github.com/lessonkit/refpipe/internal/core/domain"
	"github.com/lessonkit/refpipe/internal/core/ports/driven"
	"github.com/lessonkit/refpipe/internal/core/services"
	"github.com/lessonkit/refpipe/internal/extractors"
	"github.com/lessonkit/refpipe/internal/extractors/archive"
	"github.com/lessonkit/refpipe/internal/extractors/ocr"
	"github.com/lessonkit/refpipe/internal/extractors/slidedeck"
	"github.com/lessonkit/refpipe/internal/extractors/text"
	"github.com/lessonkit/refpipe/internal/logger"
)

// application holds the wired services and what must be released on exit.
type application struct {
	services cli.Services
	closers  []func() error
}

// Close releases resources in reverse order of acquisition.
func (a *application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (a *application) onClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

// build wires every driven adapter into the core services for settings.
func build(ctx context.Context, settings domain.PipelineSettings) (_ *application, err error) {
	app := &application{}
	defer func() {
		if err != nil {
			_ = app.Close()
		}
	}()

	cache, store, err := buildStorage(ctx, app, settings)
	if err != nil {
		return nil, err
	}

	recognition := services.NewRecognitionOrchestrator(
		tesseract.Factory(
			tesseract.WithBinary(settings.OCR.TesseractPath),
			tesseract.WithLanguage(settings.OCR.Language),
		),
		fitz.New(),
		imaging.New(),
		driven.RenderBounds{
			MaxDimension: settings.OCR.MaxDimension,
			MaxScale:     settings.OCR.MaxScale,
		},
	)
	app.onClose(recognition.Close)

	registry := extractors.NewRegistry(
		slidedeck.NewExtractor(),
		text.NewPlainExtractor(),
		text.NewDocxExtractor(),
		ocr.NewPDFExtractor(recognition, pdfinfo.New()),
		ocr.NewImageExtractor(recognition),
	)

	opts, err := ingestionOptions(app, settings)
	if err != nil {
		return nil, err
	}

	ingestion := services.NewIngestionService(
		extractors.NewClassifier(),
		archive.New(),
		registry,
		cache,
		store,
		opts...,
	)

	validator := services.NewOutputValidator(settings.Validation.DefaultSlideTypes)

	app.services = cli.Services{
		Ingestion:   ingestion,
		Recognition: recognition,
		Validation:  validator,
		Plans:       services.NewPlanAssembler(validator),
		AllowLists:  allowlist.New(settings.Validation.AllowListPath, settings.Validation.DefaultSlideTypes),
	}
	return app, nil
}

// buildStorage opens the cache backend and the extraction store.
// Results live in sqlite unless the memory backend is chosen.
func buildStorage(
	ctx context.Context,
	app *application,
	settings domain.PipelineSettings,
) (driven.CacheStore, driven.ExtractionStore, error) {
	if settings.Cache.Backend == domain.CacheBackendMemory {
		logger.Debug("using in-memory cache and result store")
		return memory.NewCacheStore(), memory.NewExtractionStore(), nil
	}

	db, err := sqlite.NewStore(settings.DataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("opening store: %w", err)
	}
	app.onClose(db.Close)
	logger.Debug("result store at %s", db.Path())

	if settings.Cache.Backend != domain.CacheBackendRedis {
		return db.CacheStore(), db.ExtractionStore(), nil
	}

	cache, err := redis.NewCacheStore(ctx, redis.Config{
		Addr:     settings.Cache.RedisAddr,
		Password: settings.Cache.RedisPassword,
		DB:       settings.Cache.RedisDB,
		Prefix:   settings.Cache.RedisPrefix,
		TTL:      settings.Cache.RedisTTL,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to redis cache: %w", err)
	}
	app.onClose(cache.Close)
	return cache, db.ExtractionStore(), nil
}

// ingestionOptions builds the cleaning pipeline and, when configured,
// the upload queue.
func ingestionOptions(app *application, settings domain.PipelineSettings) ([]services.IngestionOption, error) {
	registry := cleaners.NewRegistry()
	cleaners.RegisterDefaults(registry)
	pipeline, err := registry.BuildPipeline(settings.Cleaning)
	if err != nil {
		return nil, fmt.Errorf("building cleaners: %w", err)
	}
	opts := []services.IngestionOption{services.WithCleaners(pipeline)}

	if !settings.Upload.Enabled() {
		return opts, nil
	}

	transport, err := upload.New(upload.Config{
		Endpoint:      settings.Upload.Endpoint,
		Token:         settings.Upload.Token,
		RatePerSecond: settings.Upload.RatePerSecond,
		Timeout:       settings.Upload.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("creating upload transport: %w", err)
	}
	queue := services.NewTransferQueue(transport,
		services.WithMaxRetries(settings.Upload.MaxRetries),
		services.WithBaseDelay(settings.Upload.BaseDelay),
	)
	app.onClose(func() error {
		queue.Close()
		return nil
	})
	return append(opts, services.WithTransfers(queue)), nil
}
