package system

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rifs/rifs-api/internal/pkg/response"
)

// Handler handles health and system HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates system handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Health handles GET /health
// @Summary Dependency health
// @Tags System
// @Produce json
// @Success 200 {object} response.Response{data=Health}
// @Failure 503 {object} response.Response{data=Health}
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	health := h.service.Health(r.Context())

	status := http.StatusOK
	if health.Status != StatusOK {
		status = http.StatusServiceUnavailable
	}
	response.JSON(w, status, health)
}

// Ping handles GET /api/v1/ping
func (h *Handler) Ping(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]string{"message": "pong"})
}

// Stats handles GET /api/system/stats
// @Summary Connection pool, runtime and configuration snapshot
// @Tags System
// @Produce json
// @Success 200 {object} response.Response{data=Stats}
// @Router /api/system/stats [get]
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	response.OK(w, h.service.Stats())
}

// Routes returns the /api/system router
func Routes(h *Handler, admin func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(admin)

	r.Get("/stats", h.Stats)

	return r
}
