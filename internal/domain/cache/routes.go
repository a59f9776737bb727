package cache

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns the /api/cache router, every route behind admin
func (h *Handler) Routes(admin func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(admin)

	r.Get("/stats", h.Stats)
	r.Post("/cleanup/auto", h.AutoCleanup)
	r.Post("/decay", h.Decay)
	r.Delete("/clear", h.Clear)
	r.Get("/ws", h.WebSocket)

	return r
}
