package admin

import (
	"encoding/json"
	"net/http"

	"github.com/rifs/rifs-api/internal/pkg/errorhandler"
	"github.com/rifs/rifs-api/internal/pkg/response"
	"github.com/rifs/rifs-api/internal/pkg/validator"
)

// Handler handles admin HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates admin handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Login handles POST /api/admin/login
// @Summary Exchange the admin password for a token
// @Tags Admin
// @Accept json
// @Produce json
// @Param body body LoginRequest true "Credentials"
// @Success 200 {object} response.Response{data=LoginResponse}
// @Failure 401 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /api/admin/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errors := validator.Validate(&req); errors != nil {
		response.ValidationError(w, errors)
		return
	}

	resp, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		errorhandler.HandleError(r.Context(), w, err)
		return
	}

	response.OK(w, resp)
}
