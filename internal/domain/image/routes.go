package image

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns the /images router. serve answers GET /{identifier} and comes from the
// transform domain, which owns cache lookups.
func (h *Handler) Routes(serve http.HandlerFunc) chi.Router {
	r := chi.NewRouter()

	r.Get("/{identifier}", serve)
	r.Get("/{identifier}/info", h.Info)
	r.Delete("/{identifier}", h.Delete)

	return r
}

// APIRoutes returns the /api/images router
func (h *Handler) APIRoutes() chi.Router {
	r := chi.NewRouter()

	r.Get("/query", h.Query)
	r.Post("/query", h.Query)

	return r
}
