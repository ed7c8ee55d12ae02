package main

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/casaledger/casa-ledger/internal/api/middleware"
)

// newRouter assembles the HTTP surface. Login and health stay open; the rest
// of the API requires a session cookie unless demo mode is on.
func newRouter(deps *Dependencies) http.Handler {
	api := http.NewServeMux()
	deps.ExpenseHandler.Register(api)
	deps.ImportHandler.Register(api)
	deps.InsightsHandler.Register(api)
	deps.CategorizationHandler.Register(api)
	deps.RefdataHandler.Register(api)

	// Manual trigger for the nightly rollup and the search reindex, so an
	// operator can refresh the dashboard without waiting for the schedule.
	api.HandleFunc("POST /api/admin/jobs/run", func(w http.ResponseWriter, _ *http.Request) {
		deps.Scheduler.RunNow()
		middleware.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "jobs started"})
	})

	var protected http.Handler = api
	if deps.AuthService != nil {
		protected = middleware.RequireSession(deps.AuthService, api)
	}

	mux := http.NewServeMux()
	mux.Handle("/api/", protected)

	if deps.AuthHandler != nil {
		mux.HandleFunc("POST /api/auth/login", deps.AuthHandler.Login)
		mux.HandleFunc("POST /api/auth/logout", deps.AuthHandler.Logout)
	}

	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins:   deps.Config.Server.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	})

	return middleware.RequestLogger(deps.Logger, corsMiddleware.Handler(mux))
}
