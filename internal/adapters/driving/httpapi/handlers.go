package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/lessonkit/refpipe/internal/core/domain"
	"github.com/lessonkit/refpipe/internal/core/services"
	"github.com/lessonkit/refpipe/internal/logger"
)

// maxPayloadBytes caps validation and plan request bodies.
const maxPayloadBytes = 10 << 20

type handler struct {
	ports     *Ports
	maxUpload int64
}

// UploadResponse is the response for a materials upload.
type UploadResponse struct {
	LessonID string                    `json:"lessonId"`
	Results  []domain.ExtractionResult `json:"results"`
	Failures []UploadFailure           `json:"failures,omitempty"`
}

// UploadFailure names a file that could not be ingested at all.
type UploadFailure struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

// PlanResponse is the response for a plan assembly.
type PlanResponse struct {
	Summary       string           `json:"summary"`
	Plan          domain.DeckPlan  `json:"plan"`
	SlideWarnings map[int][]string `json:"slideWarnings,omitempty"`
	Warnings      []string         `json:"warnings"`
}

// HealthResponse is the response for GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	OCRJobs int    `json:"ocrJobs"`
}

// health handles GET /health.
func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	resp := HealthResponse{Status: "healthy"}
	if h.ports.Recognition != nil {
		resp.OCRJobs = h.ports.Recognition.ActiveJobs()
	}
	writeJSON(w, http.StatusOK, resp)
}

// uploadMaterials handles POST /api/v1/lessons/{lessonID}/materials.
// Every part named "files" (or "file") is ingested in order.
func (h *handler) uploadMaterials(w http.ResponseWriter, r *http.Request) {
	lessonID := chi.URLParam(r, "lessonID")
	if strings.TrimSpace(lessonID) == "" {
		writeError(w, http.StatusBadRequest, "lessonID is required", "")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart body", err.Error())
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	var headers []*multipart.FileHeader
	headers = append(headers, r.MultipartForm.File["files"]...)
	headers = append(headers, r.MultipartForm.File["file"]...)
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, "no files uploaded", "expected form field \"files\"")
		return
	}
	category := r.FormValue("category")

	resp := UploadResponse{LessonID: lessonID, Results: []domain.ExtractionResult{}}
	for _, fh := range headers {
		item, err := readPart(fh, lessonID, category)
		if err != nil {
			resp.Failures = append(resp.Failures, UploadFailure{Name: fh.Filename, Error: err.Error()})
			continue
		}

		results, err := h.ports.Ingestion.Ingest(r.Context(), item, nil)
		if err != nil {
			logger.Warn("ingest %s: %v", item.Name, err)
			resp.Failures = append(resp.Failures, UploadFailure{Name: item.Name, Error: err.Error()})
		}
		resp.Results = append(resp.Results, results...)
	}

	status := http.StatusOK
	if len(resp.Results) == 0 {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, resp)
}

func readPart(fh *multipart.FileHeader, lessonID, category string) (domain.UploadItem, error) {
	f, err := fh.Open()
	if err != nil {
		return domain.UploadItem{}, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return domain.UploadItem{}, fmt.Errorf("read %s: %w", fh.Filename, err)
	}

	mimeType := fh.Header.Get("Content-Type")
	if mimeType == "application/octet-stream" {
		mimeType = ""
	}

	return domain.UploadItem{
		Name:     fh.Filename,
		MIMEType: mimeType,
		Content:  content,
		LessonID: lessonID,
		Category: category,
	}, nil
}

// listExtractions handles GET /api/v1/lessons/{lessonID}/extractions.
func (h *handler) listExtractions(w http.ResponseWriter, r *http.Request) {
	lessonID := chi.URLParam(r, "lessonID")

	results, err := h.ports.Ingestion.Results(r.Context(), lessonID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "listing extractions failed", err.Error())
		return
	}
	if results == nil {
		results = []domain.ExtractionResult{}
	}
	if !includeChunks(r) {
		for i := range results {
			results[i].Chunks = nil
		}
	}
	writeJSON(w, http.StatusOK, results)
}

// getExtraction handles GET /api/v1/extractions/{fileID}.
// Archive member IDs contain slashes, so the ID is the whole wildcard.
func (h *handler) getExtraction(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "*")
	if fileID == "" {
		writeError(w, http.StatusBadRequest, "fileID is required", "")
		return
	}

	result, err := h.ports.Ingestion.Result(r.Context(), fileID)
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, "extraction not found", fileID)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "getting extraction failed", err.Error())
		return
	}
	if !includeChunks(r) {
		result.Chunks = nil
	}
	writeJSON(w, http.StatusOK, result)
}

// validate handles POST /api/v1/validate/{callType}.
// The body is the raw stage output; allow-lists come from the
// "standards" and "slide_types" query parameters.
func (h *handler) validate(w http.ResponseWriter, r *http.Request) {
	callType := domain.CallType(chi.URLParam(r, "callType"))
	if !callType.IsValid() {
		writeError(w, http.StatusBadRequest, "unknown call type", string(callType))
		return
	}

	payload, ok := readBody(w, r)
	if !ok {
		return
	}

	opts := services.ResolveOptions(r.Context(), h.ports.AllowLists, queryOptions(r))
	writeJSON(w, http.StatusOK, h.ports.Validation.Validate(callType, payload, opts))
}

// assemblePlan handles POST /api/v1/plans.
func (h *handler) assemblePlan(w http.ResponseWriter, r *http.Request) {
	if h.ports.Plans == nil {
		writeError(w, http.StatusServiceUnavailable, "plan assembly not configured", "")
		return
	}

	payload, ok := readBody(w, r)
	if !ok {
		return
	}

	opts := services.ResolveOptions(r.Context(), h.ports.AllowLists, queryOptions(r))
	plan, res := h.ports.Plans.Assemble(r.Context(), payload, opts)
	if plan == nil {
		writeJSON(w, http.StatusUnprocessableEntity, res)
		return
	}

	writeJSON(w, http.StatusOK, PlanResponse{
		Summary:       services.Summary(plan),
		Plan:          plan.Plan,
		SlideWarnings: plan.SlideWarnings,
		Warnings:      plan.Warnings,
	})
}

// allowLists handles GET /api/v1/allow-lists.
func (h *handler) allowLists(w http.ResponseWriter, r *http.Request) {
	lists := &domain.AllowLists{Standards: []string{}, SlideTypes: []string{}}
	if h.ports.AllowLists != nil {
		loaded, err := h.ports.AllowLists.Load(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "loading allow-lists failed", err.Error())
			return
		}
		lists = loaded
	}
	writeJSON(w, http.StatusOK, lists)
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "reading body failed", err.Error())
		return nil, false
	}
	return payload, true
}

// queryOptions reads per-request allow-lists. Each parameter may repeat
// or hold a comma-separated list.
func queryOptions(r *http.Request) domain.ValidateOptions {
	q := r.URL.Query()
	return domain.ValidateOptions{
		AllowedStandards:  splitValues(q["standards"]),
		AllowedSlideTypes: splitValues(q["slide_types"]),
	}
}

func splitValues(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func includeChunks(r *http.Request) bool {
	v := r.URL.Query().Get("chunks")
	if v == "" {
		return true
	}
	include, err := strconv.ParseBool(v)
	return err != nil || include
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message, detail string) {
	resp := map[string]string{"error": message}
	if detail != "" {
		resp["detail"] = detail
	}
	writeJSON(w, status, resp)
}
