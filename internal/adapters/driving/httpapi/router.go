package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/lessonkit/refpipe/internal/logger"
)

// DefaultMaxUploadBytes caps a multipart upload request.
const DefaultMaxUploadBytes = 512 << 20

// Config holds router configuration.
type Config struct {
	// RequestTimeout bounds non-upload requests.
	RequestTimeout time.Duration

	// MaxUploadBytes caps the materials upload body.
	MaxUploadBytes int64
}

// DefaultConfig returns default router configuration.
func DefaultConfig() Config {
	return Config{
		RequestTimeout: 30 * time.Second,
		MaxUploadBytes: DefaultMaxUploadBytes,
	}
}

// NewRouter creates the API router with all routes configured.
func NewRouter(ports *Ports, cfg Config) (http.Handler, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}

	h := &handler{ports: ports, maxUpload: cfg.MaxUploadBytes}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", h.health)

	r.Route("/api/v1", func(r chi.Router) {
		// Extraction runs OCR and can take minutes; only it skips the timeout.
		r.Post("/lessons/{lessonID}/materials", h.uploadMaterials)

		r.Group(func(r chi.Router) {
			if cfg.RequestTimeout > 0 {
				r.Use(chimiddleware.Timeout(cfg.RequestTimeout))
			}
			r.Get("/lessons/{lessonID}/extractions", h.listExtractions)
			r.Get("/extractions/*", h.getExtraction)
			r.Post("/validate/{callType}", h.validate)
			r.Post("/plans", h.assemblePlan)
			r.Get("/allow-lists", h.allowLists)
		})
	})

	if ports.MCP != nil {
		r.Handle("/mcp", ports.MCP)
		r.Handle("/mcp/*", ports.MCP)
	}

	return r, nil
}

// requestLogger logs one line per request through the pipeline logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logger.Debug("%s %s %d %dB %s [%s]",
			r.Method, r.URL.Path, ww.Status(), ww.BytesWritten(),
			time.Since(start).Round(time.Millisecond), chimiddleware.GetReqID(r.Context()))
	})
}

// Serve runs handler on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown: %v", err)
		}
	}()

	logger.Info("listening on %s", addr)
	err := server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
