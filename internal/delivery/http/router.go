package http //nolint:revive // directory-based package name, imported with alias

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const requestTimeout = 30 * time.Second

func NewRouter(h *Handler, metrics http.Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/healthz", h.HandleHealth)
	r.Method(http.MethodGet, "/metrics", metrics)

	r.Route("/api/qr", func(r chi.Router) {
		r.Post("/", h.HandleIssue)
		r.Get("/{issuance_id}", h.HandleGet)
		r.Get("/{issuance_id}/image", h.HandleImage)
	})

	return r
}
