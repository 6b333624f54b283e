package api

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the chat API. The health endpoint stays outside the
// key check so probes do not need credentials.
func RegisterRoutes(r chi.Router, h *Handler, apiKey string) {
	r.Get("/health", h.HandleHealth)

	r.Group(func(r chi.Router) {
		r.Use(RequireAPIKey(apiKey))
		r.Post("/chat", h.HandleChat)
		r.Delete("/session/{sessionID}", h.HandleClearSession)
	})
}
