package admin

import "github.com/go-chi/chi/v5"

// Routes returns the /api/admin router
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/login", h.Login)

	return r
}
