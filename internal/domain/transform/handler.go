package transform

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rifs/rifs-api/internal/domain/image"
	"github.com/rifs/rifs-api/internal/pkg/errorhandler"
	"github.com/rifs/rifs-api/internal/pkg/imaging"
)

const servedBy = "RIFS"

// Handler serves originals and transformed variants
type Handler struct {
	service *Service
	maxAge  int
}

// NewHandler creates transform handler. maxAge is the Cache-Control max-age in seconds.
func NewHandler(service *Service, maxAge int) *Handler {
	return &Handler{service: service, maxAge: maxAge}
}

// ParseIdentifier splits "hash@params" and strips an optional ".ext" from the hash
func ParseIdentifier(id string) (hash, params string) {
	hash = id
	if i := strings.IndexByte(id, '@'); i >= 0 {
		hash, params = id[:i], id[i+1:]
	}
	if i := strings.IndexByte(hash, '.'); i >= 0 {
		hash = hash[:i]
	}
	return strings.ToLower(hash), params
}

// Serve handles GET /images/{identifier}
// @Summary Serve an image, optionally transformed
// @Description identifier is a content hash, optionally followed by @params, e.g. <hash>@w800_h600_jpeg_q90_naw
// @Tags Image
// @Produce image/jpeg,image/png,image/webp,image/gif,image/avif,image/x-icon,application/json,text/plain
// @Param identifier path string true "hash or hash@params"
// @Success 200 {file} binary
// @Failure 400,404,500 {object} response.Response
// @Router /images/{identifier} [get]
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	hash, raw := ParseIdentifier(chi.URLParam(r, "identifier"))

	res, err := h.service.Transform(r.Context(), hash, raw)
	if err != nil {
		errorhandler.HandleError(r.Context(), w, err)
		return
	}

	h.writeHeaders(w, res, raw)

	switch res.Params.Output {
	case imaging.OutputBase64:
		w.Header().Set("x-output-format", "base64-json")
		w.Header().Set("Content-Type", "application/json")
		w.Header().Del("Content-Disposition")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(Base64Response{
			Success:  true,
			Message:  "Image retrieved",
			Data:     base64.StdEncoding.EncodeToString(res.Data),
			MimeType: res.MimeType,
			Size:     len(res.Data),
			Original: image.ImageResponseFromEntity(res.Original),
		})
	case imaging.OutputBase64Raw:
		w.Header().Set("x-output-format", "base64-raw")
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Del("Content-Disposition")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(base64.StdEncoding.EncodeToString(res.Data)))
	default:
		w.Header().Set("Content-Length", strconv.Itoa(len(res.Data)))
		w.WriteHeader(http.StatusOK)
		w.Write(res.Data)
	}
}

func (h *Handler) writeHeaders(w http.ResponseWriter, res *Result, raw string) {
	hdr := w.Header()
	orig := res.Original

	hdr.Set("Content-Type", res.MimeType)
	hdr.Set("Content-Disposition", fmt.Sprintf(`inline; filename="%s"`, filename(orig, res.MimeType)))
	hdr.Set("Cache-Control", fmt.Sprintf("public, max-age=%d", h.maxAge))

	hdr.Set("x-original-hash", orig.Hash)
	hdr.Set("x-original-size", strconv.FormatInt(orig.Size, 10))
	hdr.Set("x-original-mime", orig.MimeType)
	hdr.Set("x-original-extension", orig.Extension)
	hdr.Set("x-upload-time", orig.CreatedAt.UTC().Format("2006-01-02 15:04:05 UTC"))
	hdr.Set("x-access-count", strconv.FormatInt(orig.AccessCount, 10))

	hdr.Set("x-final-mime", res.MimeType)
	hdr.Set("x-final-size", strconv.Itoa(len(res.Data)))
	hdr.Set("x-cache", string(res.Cache))

	p := res.Params
	if p.NeedsTransform() {
		hdr.Set("x-transform-applied", strconv.FormatBool(res.Transformed))
		if p.Width != nil {
			hdr.Set("x-transform-width", strconv.Itoa(*p.Width))
		}
		if p.Height != nil {
			hdr.Set("x-transform-height", strconv.Itoa(*p.Height))
		}
		if p.Format != imaging.FormatUnknown {
			hdr.Set("x-transform-format", p.Format.String())
		}
		if p.Quality > 0 {
			hdr.Set("x-transform-quality", strconv.Itoa(p.Quality))
		}
		if p.NoAlpha {
			hdr.Set("x-transform-noalpha", "true")
			if p.Background.Kind != imaging.BackgroundNone {
				hdr.Set("x-transform-background", p.Background.String())
			}
		}
		hdr.Set("x-transform-params", raw)
		if res.FirstFrame {
			hdr.Set("x-gif-first-frame", "true")
		}
	} else {
		hdr.Set("x-transform-applied", "false")
	}

	hdr.Set("x-served-by", servedBy)
	hdr.Set("x-response-time", strconv.FormatInt(time.Now().UnixMilli(), 10))
}

func filename(orig *image.Image, mime string) string {
	if f, ok := imaging.FormatFromMime(mime); ok && mime != orig.MimeType {
		return orig.Hash + "." + f.Extension()
	}
	return orig.Filename()
}
