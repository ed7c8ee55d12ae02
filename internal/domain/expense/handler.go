package expense

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/casaledger/casa-ledger/internal/api/middleware"
)

// Handler exposes expense CRUD and listing over HTTP.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler creates the expense HTTP handler.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the expense routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/expenses", h.List)
	mux.HandleFunc("POST /api/expenses", h.Create)
	mux.HandleFunc("GET /api/expenses/{id}", h.Get)
	mux.HandleFunc("PUT /api/expenses/{id}", h.Update)
	mux.HandleFunc("DELETE /api/expenses/{id}", h.Delete)
}

// List handles GET /api/expenses with optional year, month, categoryId and
// memberId query parameters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	expenses, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list expenses", "error", err)
		middleware.WriteError(w, http.StatusInternalServerError, "failed to list expenses")
		return
	}
	if expenses == nil {
		expenses = []Expense{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"expenses": expenses,
		"count":    len(expenses),
	})
}

// Create handles POST /api/expenses.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.service.Create(r.Context(), in)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, created)
}

// Get handles GET /api/expenses/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	e, err := h.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			middleware.WriteError(w, http.StatusNotFound, "expense not found")
			return
		}
		h.logger.Error("failed to get expense", "error", err)
		middleware.WriteError(w, http.StatusInternalServerError, "failed to get expense")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, e)
}

// Update handles PUT /api/expenses/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.service.Update(r.Context(), r.PathValue("id"), in)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			middleware.WriteError(w, http.StatusNotFound, "expense not found")
			return
		}
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	middleware.WriteJSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/expenses/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), r.PathValue("id")); err != nil {
		if errors.Is(err, ErrNotFound) {
			middleware.WriteError(w, http.StatusNotFound, "expense not found")
			return
		}
		h.logger.Error("failed to delete expense", "error", err)
		middleware.WriteError(w, http.StatusInternalServerError, "failed to delete expense")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func filterFromQuery(r *http.Request) (Filter, error) {
	var filter Filter
	q := r.URL.Query()

	if v := q.Get("year"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			return filter, errors.New("invalid year")
		}
		filter.Year = year
	}
	if v := q.Get("month"); v != "" {
		month, err := strconv.Atoi(v)
		if err != nil || month < 1 || month > 12 {
			return filter, errors.New("invalid month")
		}
		filter.Month = time.Month(month)
	}
	filter.CategoryID = q.Get("categoryId")
	filter.MemberID = q.Get("memberId")
	return filter, nil
}
