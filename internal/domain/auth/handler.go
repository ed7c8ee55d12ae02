package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/casaledger/casa-ledger/internal/api/middleware"
)

// Handler exposes login and logout over HTTP.
type Handler struct {
	service *Service
	secure  bool // mark cookies Secure outside local development
}

// NewHandler creates the auth HTTP handler.
func NewHandler(service *Service, secure bool) *Handler {
	return &Handler{service: service, secure: secure}
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := h.service.Login(req.Password)
	if err != nil {
		if errors.Is(err, ErrWrongPassword) {
			middleware.WriteError(w, http.StatusUnauthorized, "wrong password")
			return
		}
		middleware.WriteError(w, http.StatusInternalServerError, "login failed")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.service.SessionTTL().Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "signed in"})
}

// Logout handles POST /api/auth/logout.
func (h *Handler) Logout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "signed out"})
}
