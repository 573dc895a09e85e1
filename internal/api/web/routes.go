package web

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the page and intent routes
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Get("/", h.Page)
	r.Get("/api/state", h.State)
	r.Route("/intents", func(r chi.Router) {
		r.Post("/", h.Intent)
		r.Post("/file", h.SelectFile)
	})
}

// RegisterLiveRoutes registers long-lived routes that must not get a request timeout
func RegisterLiveRoutes(r chi.Router, h *Handler) {
	r.Get("/ws", h.Live)
}
