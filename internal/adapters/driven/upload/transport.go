// Package upload forwards uploaded reference materials to file storage over HTTP.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/lessonkit/refpipe/internal/core/domain"
	"github.com/lessonkit/refpipe/internal/core/ports/driven"
)

// DefaultTimeout bounds a single upload request.
const DefaultTimeout = 60 * time.Second

// maxErrorBody caps how much of an error response is quoted.
const maxErrorBody = 512

// Ensure Transport implements the interface.
var _ driven.UploadTransport = (*Transport)(nil)

// Config configures the upload transport.
type Config struct {
	// Endpoint receives multipart POSTs.
	Endpoint string
	// Token is sent as a bearer token when set.
	Token string
	// RatePerSecond paces uploads. Zero disables pacing.
	RatePerSecond float64
	Timeout       time.Duration
}

// Transport posts files as multipart forms.
type Transport struct {
	endpoint string
	client   *http.Client
	limiter  *RateLimiter
}

// New creates a transport for cfg.
func New(cfg Config) (*Transport, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("%w: upload endpoint is required", domain.ErrInvalidInput)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	client := &http.Client{}
	if cfg.Token != "" {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: cfg.Token},
		)
		client = oauth2.NewClient(context.Background(), ts)
	}
	client.Timeout = timeout

	return &Transport{
		endpoint: cfg.Endpoint,
		client:   client,
		limiter:  NewRateLimiter(cfg.RatePerSecond),
	}, nil
}

// uploadResponse is the storage service's reply.
type uploadResponse struct {
	StoragePath string `json:"storagePath"`
}

// Upload stores the bytes and returns where they were stored.
func (t *Transport) Upload(ctx context.Context, req domain.UploadRequest) (*domain.UploadReceipt, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, contentType, err := encodeForm(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("building upload request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := t.client.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: uploading %s: %w", domain.ErrTransient, req.OriginalName, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		t.limiter.RecordRateLimit(retryAfter(resp.Header.Get("Retry-After")))
		return nil, fmt.Errorf("%w: upload rate limited", domain.ErrTransient)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: upload failed with status %d: %s",
			domain.ErrTransient, resp.StatusCode, readSnippet(resp.Body))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("upload rejected with status %d: %s", resp.StatusCode, readSnippet(resp.Body))
	}

	var out uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding upload response: %w", err)
	}
	if out.StoragePath == "" {
		out.StoragePath = fmt.Sprintf("lessons/%s/%s", req.LessonID, req.Hash)
	}
	return &domain.UploadReceipt{StoragePath: out.StoragePath}, nil
}

func encodeForm(req domain.UploadRequest) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := [][2]string{
		{"lessonId", req.LessonID},
		{"category", req.Category},
		{"hash", req.Hash},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("writing field %s: %w", f[0], err)
		}
	}

	name := req.OriginalName
	if name == "" {
		name = req.Hash
	}
	part, err := w.CreateFormFile("file", name)
	if err != nil {
		return nil, "", fmt.Errorf("creating file part: %w", err)
	}
	if _, err := part.Write(req.Content); err != nil {
		return nil, "", fmt.Errorf("writing file part: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("closing form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

// retryAfter parses a Retry-After header given in seconds.
func retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func readSnippet(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	return strings.TrimSpace(string(b))
}
