package insights

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/casaledger/casa-ledger/internal/api/middleware"
)

// Handler exposes the dashboard breakdowns over HTTP.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/insights/monthly", h.Monthly)
	mux.HandleFunc("GET /api/insights/yearly", h.Yearly)
}

func (h *Handler) Monthly(w http.ResponseWriter, r *http.Request) {
	year, ok := intQuery(w, r, "year", 2000, 2100)
	if !ok {
		return
	}
	month, ok := intQuery(w, r, "month", 1, 12)
	if !ok {
		return
	}

	report, err := h.service.Monthly(r.Context(), year, time.Month(month))
	if err != nil {
		h.logger.Error("monthly insights failed", "year", year, "month", month, "error", err)
		middleware.WriteError(w, http.StatusInternalServerError, "failed to compute monthly insights")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, report)
}

func (h *Handler) Yearly(w http.ResponseWriter, r *http.Request) {
	year, ok := intQuery(w, r, "year", 2000, 2100)
	if !ok {
		return
	}

	report, err := h.service.Yearly(r.Context(), year)
	if err != nil {
		h.logger.Error("yearly insights failed", "year", year, "error", err)
		middleware.WriteError(w, http.StatusInternalServerError, "failed to compute yearly insights")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, report)
}

func intQuery(w http.ResponseWriter, r *http.Request, name string, min, max int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		middleware.WriteError(w, http.StatusBadRequest, name+" is required")
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < min || v > max {
		middleware.WriteError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return v, true
}
