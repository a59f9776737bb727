package errorhandler

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/rifs/rifs-api/internal/pkg/imaging"
	"github.com/rifs/rifs-api/internal/pkg/logger"
	"github.com/rifs/rifs-api/internal/pkg/response"
)

// Kind groups domain errors by how a client should react to them.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidInput
	KindNotFound
	KindResourceExceeded
	KindUnavailable
)

type mapping struct {
	err     error
	kind    Kind
	status  int
	code    string
	message string
}

var (
	mu       sync.RWMutex
	mappings = []mapping{
		{imaging.ErrInvalidImage, KindInvalidInput, http.StatusBadRequest, "INVALID_IMAGE", "Image could not be decoded"},
		{imaging.ErrUnsupportedFormat, KindInvalidInput, http.StatusBadRequest, "UNSUPPORTED_FORMAT", "Unsupported image format"},
		{imaging.ErrInvalidParams, KindInvalidInput, http.StatusBadRequest, "INVALID_PARAMS", "Invalid transform parameters"},
		{imaging.ErrDimensionOutOfRange, KindResourceExceeded, http.StatusBadRequest, "DIMENSION_OUT_OF_RANGE", "Requested dimensions are out of range"},
		{context.DeadlineExceeded, KindUnavailable, http.StatusServiceUnavailable, "TIMEOUT", "Request timed out"},
	}
)

// Register adds a sentinel error to the mapping. Domain packages call it from init.
func Register(err error, kind Kind, status int, code, message string) {
	mu.Lock()
	defer mu.Unlock()
	mappings = append(mappings, mapping{err: err, kind: kind, status: status, code: code, message: message})
}

func lookup(err error) mapping {
	mu.RLock()
	defer mu.RUnlock()
	for _, m := range mappings {
		if errors.Is(err, m.err) {
			return m
		}
	}
	return mapping{kind: KindInternal, status: http.StatusInternalServerError, code: "INTERNAL_ERROR", message: "An unexpected error occurred"}
}

// Classify returns the error kind.
func Classify(err error) Kind {
	return lookup(err).kind
}

// Status returns the HTTP status for err.
func Status(err error) int {
	return lookup(err).status
}

// HandleError maps err to a response. Internal errors are logged with the request id
// and answered with a generic message; client errors are logged at debug level.
func HandleError(ctx context.Context, w http.ResponseWriter, err error) {
	m := lookup(err)

	l := logger.FromContext(ctx)
	if m.kind == KindInternal {
		l.Error().Err(err).Int("status_code", m.status).Msg("Request error")
	} else {
		l.Debug().Err(err).Str("error_code", m.code).Int("status_code", m.status).Msg("Request rejected")
	}

	message := m.message
	if m.kind == KindInvalidInput || m.kind == KindResourceExceeded {
		// client errors carry the wrapped detail, e.g. "dimension out of range: width 0 must be between 1 and 8192"
		message = err.Error()
	}
	response.Error(w, m.status, m.code, message)
}

// HandlePanicError logs a recovered panic and answers 500
func HandlePanicError(ctx context.Context, w http.ResponseWriter, panicErr interface{}, stackTrace string) {
	logger.FromContext(ctx).Error().
		Interface("panic_error", panicErr).
		Str("panic_stack", stackTrace).
		Msg("Request panic error")

	response.InternalError(w)
}
