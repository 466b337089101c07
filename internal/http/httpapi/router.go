package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"server/internal/http/handlers"
	"server/internal/middleware"
)

// NewRouter wires the HTTP surface. Everything but the health check sits
// behind the shared-secret gate.
func NewRouter(app *handlers.App) http.Handler {
	r := chi.NewRouter()

	r.Use(
		chimw.RealIP,
		chimw.Recoverer,
		middleware.RequestID,
		middleware.Logger(app.Logger),
		middleware.CORS(app.Config.AllowedOrigins),
	)

	r.Get("/v1/healthz", app.Health)

	r.Group(func(r chi.Router) {
		r.Use(middleware.SharedSecret(app.Config.SharedSecret))
		r.Post("/submit-fast", app.SubmitFast)
		r.Post("/submit-batch", app.SubmitBatch)
		r.Get("/status", app.BatchStatus)
		r.Get("/batches", app.ListBatches)
	})

	return r
}
