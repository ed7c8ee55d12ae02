// Package handler exposes the import flow over HTTP. Every mutation returns
// the refreshed session state so the UI can re-render from one payload.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/casaledger/casa-ledger/internal/api/middleware"
	"github.com/casaledger/casa-ledger/internal/domain/import/ai"
	"github.com/casaledger/casa-ledger/internal/domain/import/mapping"
	"github.com/casaledger/casa-ledger/internal/domain/import/parser"
	"github.com/casaledger/casa-ledger/internal/domain/import/service"
	"github.com/casaledger/casa-ledger/internal/domain/import/session"
	"github.com/casaledger/casa-ledger/internal/domain/import/transform"
	"github.com/casaledger/casa-ledger/pkg/storage"
)

// maxUploadBytes caps statement uploads; household exports are small.
const maxUploadBytes = 16 << 20

// ImportHandler handles the import flow endpoints.
type ImportHandler struct {
	service *service.ImportService
	archive storage.Archive // optional
	logger  *slog.Logger
}

// NewImportHandler creates a new import handler.
func NewImportHandler(svc *service.ImportService, logger *slog.Logger) *ImportHandler {
	return &ImportHandler{service: svc, logger: logger}
}

// WithArchive exposes the source file archive over the handler's routes.
func (h *ImportHandler) WithArchive(archive storage.Archive) *ImportHandler {
	h.archive = archive
	return h
}

// Register mounts the import routes on mux.
func (h *ImportHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/import/state", h.State)
	mux.HandleFunc("GET /api/import/layouts", h.Layouts)
	mux.HandleFunc("POST /api/import/layout", h.SetLayout)
	mux.HandleFunc("POST /api/import/defaults", h.SetDefaults)
	mux.HandleFunc("POST /api/import/upload", h.Upload)
	mux.HandleFunc("POST /api/import/field", h.SelectField)
	mux.HandleFunc("POST /api/import/category-column", h.ToggleCategoryColumn)
	mux.HandleFunc("POST /api/import/category-binding", h.SetCategoryBinding)
	mux.HandleFunc("POST /api/import/complete", h.Complete)
	mux.HandleFunc("POST /api/import/save", h.Save)
	mux.HandleFunc("POST /api/import/back", h.Back)
	mux.HandleFunc("POST /api/import/reset", h.Reset)
	mux.HandleFunc("GET /api/import/archive", h.ListArchive)
	mux.HandleFunc("GET /api/import/archive/{id}", h.DownloadArchive)
}

// State handles GET /api/import/state.
func (h *ImportHandler) State(w http.ResponseWriter, _ *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, h.service.State())
}

// Layouts handles GET /api/import/layouts.
func (h *ImportHandler) Layouts(w http.ResponseWriter, _ *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]any{"layouts": h.service.Layouts()})
}

// SetLayout handles POST /api/import/layout.
func (h *ImportHandler) SetLayout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Layout string `json:"layout"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	state, err := h.service.SetLayout(mapping.Layout(req.Layout))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	middleware.WriteJSON(w, http.StatusOK, state)
}

// SetDefaults handles POST /api/import/defaults.
func (h *ImportHandler) SetDefaults(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Month int `json:"month"`
		Year  int `json:"year"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Month < 1 || req.Month > 12 || req.Year < 2000 || req.Year > 2100 {
		middleware.WriteError(w, http.StatusBadRequest, "month must be 1-12 and year in range")
		return
	}

	state := h.service.SetDefaults(transform.Defaults{Month: time.Month(req.Month), Year: req.Year})
	middleware.WriteJSON(w, http.StatusOK, state)
}

// Upload handles POST /api/import/upload (multipart form, field "file").
func (h *ImportHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "could not read upload")
		return
	}

	state, err := h.service.Upload(r.Context(), header.Filename, data)
	if err != nil {
		h.writeUploadError(w, header.Filename, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, state)
}

func (h *ImportHandler) writeUploadError(w http.ResponseWriter, filename string, err error) {
	switch {
	case errors.Is(err, ai.ErrRateLimited):
		middleware.WriteError(w, http.StatusTooManyRequests,
			"the statement parser is rate limited right now, try again in a minute")
	case errors.Is(err, parser.ErrEmptyFile),
		errors.Is(err, parser.ErrNoHeaders),
		errors.Is(err, parser.ErrNoDataRows),
		errors.Is(err, parser.ErrInvalidDelimiter),
		errors.Is(err, session.ErrNoLayout):
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("upload failed", "file", filename, "error", err)
		middleware.WriteError(w, http.StatusInternalServerError, "upload failed")
	}
}

// SelectField handles POST /api/import/field.
func (h *ImportHandler) SelectField(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Field  string `json:"field"`
		Column string `json:"column"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	state, err := h.service.SelectField(req.Field, req.Column)
	if err != nil {
		h.writeSessionError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, state)
}

// ToggleCategoryColumn handles POST /api/import/category-column.
func (h *ImportHandler) ToggleCategoryColumn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Column   string `json:"column"`
		Included bool   `json:"included"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	state, err := h.service.ToggleCategoryColumn(req.Column, req.Included)
	if err != nil {
		h.writeSessionError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, state)
}

// SetCategoryBinding handles POST /api/import/category-binding.
func (h *ImportHandler) SetCategoryBinding(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Column     string `json:"column"`
		CategoryID string `json:"categoryId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	state, err := h.service.SetCategoryBinding(req.Column, req.CategoryID)
	if err != nil {
		h.writeSessionError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, state)
}

// Complete handles POST /api/import/complete. A mapping validation failure
// comes back 200 with validationError set; the session stays on Map.
func (h *ImportHandler) Complete(w http.ResponseWriter, r *http.Request) {
	state, err := h.service.Complete(r.Context())
	if err != nil {
		h.writeSessionError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, state)
}

// Save handles POST /api/import/save.
func (h *ImportHandler) Save(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Save(r.Context())
	if err != nil {
		if errors.Is(err, session.ErrWrongStep) {
			middleware.WriteError(w, http.StatusConflict, "nothing previewed to save")
			return
		}
		h.logger.Error("save failed", "error", err)
		middleware.WriteError(w, http.StatusInternalServerError, "could not save the batch")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, result)
}

// Back handles POST /api/import/back.
func (h *ImportHandler) Back(w http.ResponseWriter, _ *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, h.service.Back())
}

// Reset handles POST /api/import/reset.
func (h *ImportHandler) Reset(w http.ResponseWriter, _ *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, h.service.Reset())
}

// ListArchive handles GET /api/import/archive.
func (h *ImportHandler) ListArchive(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		middleware.WriteError(w, http.StatusNotFound, "source file archiving is not enabled")
		return
	}

	files, err := h.archive.List(r.Context())
	if err != nil {
		h.logger.Error("archive listing failed", "error", err)
		middleware.WriteError(w, http.StatusInternalServerError, "could not list archived files")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{"files": files})
}

// DownloadArchive handles GET /api/import/archive/{id}, streaming the
// original upload back with its stored name and content type.
func (h *ImportHandler) DownloadArchive(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		middleware.WriteError(w, http.StatusNotFound, "source file archiving is not enabled")
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "invalid file id")
		return
	}

	file, info, err := h.archive.Download(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrFileNotFound) {
			middleware.WriteError(w, http.StatusNotFound, "no archived file with that id")
			return
		}
		h.logger.Error("archive download failed", "id", id, "error", err)
		middleware.WriteError(w, http.StatusInternalServerError, "could not read archived file")
		return
	}
	defer file.Close()

	w.Header().Set("Content-Type", info.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", info.Name))
	if _, err := io.Copy(w, file); err != nil {
		h.logger.Error("archive stream interrupted", "id", id, "error", err)
	}
}

func (h *ImportHandler) writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrWrongStep),
		errors.Is(err, session.ErrNoDocument),
		errors.Is(err, session.ErrNoLayout):
		middleware.WriteError(w, http.StatusConflict, err.Error())
	default:
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
	}
}
