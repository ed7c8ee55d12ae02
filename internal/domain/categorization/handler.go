package categorization

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/casaledger/casa-ledger/internal/api/middleware"
)

// Handler exposes suggestions and expense search.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/suggest", h.Suggest)
	mux.HandleFunc("GET /api/expenses/search", h.Search)
}

func (h *Handler) Suggest(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		middleware.WriteError(w, http.StatusBadRequest, "q is required")
		return
	}

	suggestions := h.service.Suggest(q)
	if suggestions == nil {
		suggestions = []Suggestion{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{"suggestions": suggestions})
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		middleware.WriteError(w, http.StatusBadRequest, "q is required")
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > 100 {
			middleware.WriteError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = v
	}

	expenses, err := h.service.Search(r.Context(), q, limit)
	if err != nil {
		h.logger.Error("expense search failed", "query", q, "error", err)
		middleware.WriteError(w, http.StatusInternalServerError, "search failed")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{"expenses": expenses})
}
