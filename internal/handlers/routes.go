package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Routes builds the full router: web shell, versioned API and metrics.
func (h *Handler) Routes(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/", h.Index)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.Health)
		r.Get("/ready", h.Ready)

		r.Get("/players", h.Players)
		r.Get("/rounds", h.Rounds)

		r.Post("/predict", h.Predict)
		r.Post("/predict/batch", h.PredictBatch)

		r.Post("/ingest/observations", h.IngestObservations)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", h.CreateSession)
			r.Get("/{id}", h.GetSession)
			r.Post("/{id}/predict", h.SessionPredict)
			r.Post("/{id}/continue", h.SessionContinue)
			r.Post("/{id}/reset", h.ResetSession)
			r.Put("/{id}/player", h.ChangeSessionPlayer)
		})

		r.Post("/system/install", h.InstallDatabase)
	})

	return r
}
