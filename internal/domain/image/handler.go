package image

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/rifs/rifs-api/internal/pkg/errorhandler"
	"github.com/rifs/rifs-api/internal/pkg/response"
	"github.com/rifs/rifs-api/internal/pkg/validator"
)

// multipartOverhead leaves room for boundaries and part headers around the file
const multipartOverhead = 1 << 20

// Handler handles image HTTP requests
type Handler struct {
	service     *Service
	maxFileSize int64
}

// NewHandler creates image handler
func NewHandler(service *Service, maxFileSize int64) *Handler {
	return &Handler{service: service, maxFileSize: maxFileSize}
}

// Upload handles POST /upload
// @Summary Upload an original image
// @Tags Image
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Image file"
// @Success 201 {object} response.Response{data=UploadResponse}
// @Failure 400,413,500 {object} response.Response
// @Router /upload [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize+multipartOverhead)

	file, _, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			response.PayloadTooLarge(w, "Request body exceeds maximum upload size")
			return
		}
		response.BadRequest(w, "Multipart field 'file' is required")
		return
	}
	defer file.Close()

	// one extra byte tells an oversized file apart from one exactly at the limit
	data, err := io.ReadAll(io.LimitReader(file, h.maxFileSize+1))
	if err != nil {
		response.BadRequest(w, "Failed to read uploaded file")
		return
	}

	img, created, err := h.service.Put(r.Context(), data)
	if err != nil {
		errorhandler.HandleError(r.Context(), w, err)
		return
	}

	resp := &UploadResponse{ImageResponse: ImageResponseFromEntity(img), Existed: !created}
	if created {
		response.Created(w, resp)
		return
	}
	response.OK(w, resp)
}

// Info handles GET /images/{identifier}/info
// @Summary Image metadata
// @Tags Image
// @Produce json
// @Param identifier path string true "Content hash"
// @Success 200 {object} response.Response{data=ImageResponse}
// @Failure 400,404 {object} response.Response
// @Router /images/{identifier}/info [get]
func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	img, err := h.service.GetInfo(r.Context(), hashParam(r))
	if err != nil {
		errorhandler.HandleError(r.Context(), w, err)
		return
	}
	response.OK(w, ImageResponseFromEntity(img))
}

// Delete handles DELETE /images/{identifier}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), hashParam(r)); err != nil {
		errorhandler.HandleError(r.Context(), w, err)
		return
	}
	response.NoContent(w)
}

// Query handles GET and POST /api/images/query
// @Summary Search stored images
// @Tags Image
// @Accept json
// @Produce json
// @Success 200 {object} response.Response{data=[]ImageResponse}
// @Failure 400,422,500 {object} response.Response
// @Router /api/images/query [get]
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	var req *QueryRequest
	if r.Method == http.MethodPost {
		req = &QueryRequest{}
		if err := response.DecodeJSON(r.Body, req); err != nil && !errors.Is(err, io.EOF) {
			response.BadRequest(w, "Invalid JSON body")
			return
		}
	} else {
		var err error
		if req, err = QueryRequestFromValues(r.URL.Query()); err != nil {
			response.BadRequest(w, err.Error())
			return
		}
	}

	if errs := validator.Validate(req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	q := req.ToQuery()
	images, total, err := h.service.List(r.Context(), q)
	if err != nil {
		errorhandler.HandleError(r.Context(), w, err)
		return
	}

	items := make([]*ImageResponse, len(images))
	for i, img := range images {
		items[i] = ImageResponseFromEntity(img)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	response.WithMeta(w, items, response.NewMeta(total, q.Offset, limit))
}

// Stats handles GET /api/stats
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		errorhandler.HandleError(r.Context(), w, err)
		return
	}
	response.OK(w, stats)
}

// hashParam accepts "hash" and "hash.ext"
func hashParam(r *http.Request) string {
	id := chi.URLParam(r, "identifier")
	if i := strings.IndexByte(id, '.'); i >= 0 {
		id = id[:i]
	}
	return strings.ToLower(id)
}
