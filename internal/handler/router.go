// internal/handler/router.go
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires the API routes.
func NewRouter(campaigns *CampaignHandler, recipients *RecipientHandler) *chi.Mux {
	r := chi.NewRouter()

	// Campaign routes
	r.Post("/campaigns", campaigns.Create)
	r.Get("/campaigns", campaigns.List)
	r.Get("/campaigns/{id}", campaigns.Get)
	r.Get("/campaigns/{id}/stats", campaigns.Stats)
	r.Post("/campaigns/{id}/schedule", campaigns.Schedule)
	r.Post("/campaigns/{id}/cancel", campaigns.Cancel)
	r.Post("/campaigns/{id}/dispatch", campaigns.Dispatch)
	r.Post("/campaigns/{id}/preview", campaigns.Preview)
	r.Get("/dashboard", campaigns.Dashboard)

	// Recipient routes
	r.Post("/recipients/upload", recipients.Upload)
	r.Get("/recipients", recipients.List)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	return r
}
