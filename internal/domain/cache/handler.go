package cache

import (
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/rifs/rifs-api/internal/pkg/errorhandler"
	"github.com/rifs/rifs-api/internal/pkg/response"
)

// Handler handles cache administration requests
type Handler struct {
	service *Service
	monitor *Monitor
	redis   *redis.Client
}

// NewHandler creates cache handler; monitor and redisClient may be nil
func NewHandler(service *Service, monitor *Monitor, redisClient *redis.Client) *Handler {
	return &Handler{service: service, monitor: monitor, redis: redisClient}
}

// Stats handles GET /api/cache/stats
// @Summary Cache usage and limits
// @Tags Cache
// @Produce json
// @Security AdminAuth
// @Success 200 {object} response.Response{data=Stats}
// @Router /api/cache/stats [get]
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		errorhandler.HandleError(r.Context(), w, err)
		return
	}
	response.OK(w, stats)
}

// AutoCleanup handles POST /api/cache/cleanup/auto.
// With ?async=true and Redis configured the run is handed to the workers.
// @Summary Run tiered cache cleanup
// @Tags Cache
// @Produce json
// @Security AdminAuth
// @Success 200 {object} response.Response{data=CleanupResult}
// @Success 202 {object} response.Response
// @Router /api/cache/cleanup/auto [post]
func (h *Handler) AutoCleanup(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("async") == "true" && h.redis != nil {
		if err := RequestCleanup(r.Context(), h.redis); err != nil {
			log.Error().Err(err).Msg("Failed to request cache cleanup")
			response.ServiceUnavailable(w, "Cleanup could not be scheduled")
			return
		}
		response.JSON(w, http.StatusAccepted, map[string]string{"status": "scheduled"})
		return
	}

	result, err := h.service.AutoCleanup(r.Context())
	if err != nil {
		errorhandler.HandleError(r.Context(), w, err)
		return
	}
	response.Message(w, "Cache cleanup finished", result)
}

// Decay handles POST /api/cache/decay
func (h *Handler) Decay(w http.ResponseWriter, r *http.Request) {
	updated, err := h.service.DecayAll(r.Context())
	if err != nil {
		errorhandler.HandleError(r.Context(), w, err)
		return
	}
	response.Message(w, "Heat scores updated", map[string]int{"updated_count": updated})
}

// Clear handles DELETE /api/cache/clear
// @Summary Drop every cached transform
// @Tags Cache
// @Produce json
// @Security AdminAuth
// @Success 200 {object} response.Response{data=CleanupResult}
// @Router /api/cache/clear [delete]
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.ClearAll(r.Context())
	if err != nil {
		errorhandler.HandleError(r.Context(), w, err)
		return
	}
	response.Message(w, "Cache cleared", result)
}

// WebSocket handles GET /api/cache/ws
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.monitor == nil {
		response.ServiceUnavailable(w, "Cache monitor is not running")
		return
	}

	stats, err := h.service.Stats(r.Context())
	if err != nil {
		errorhandler.HandleError(r.Context(), w, err)
		return
	}
	h.monitor.Serve(w, r, stats)
}
