package refdata

import (
	"net/http"

	"github.com/casaledger/casa-ledger/internal/api/middleware"
)

// Handler serves the reference catalog to the UI.
type Handler struct {
	catalog *Catalog
}

// NewHandler creates the refdata HTTP handler.
func NewHandler(catalog *Catalog) *Handler {
	return &Handler{catalog: catalog}
}

// Register mounts the refdata route on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/refdata", h.Get)
}

// Get handles GET /api/refdata.
func (h *Handler) Get(w http.ResponseWriter, _ *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"categories": h.catalog.Categories(),
		"tags":       h.catalog.Tags(),
		"members":    h.catalog.Members(),
	})
}
