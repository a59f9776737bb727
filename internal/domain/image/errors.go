package image

import (
	"errors"
	"net/http"

	"github.com/rifs/rifs-api/internal/pkg/errorhandler"
)

var (
	ErrImageNotFound   = errors.New("image not found")
	ErrEmptyFile       = errors.New("file is empty")
	ErrFileTooLarge    = errors.New("file exceeds maximum size")
	ErrInvalidMimeType = errors.New("file type not allowed")
	ErrInvalidHash     = errors.New("invalid image hash")
)

func init() {
	errorhandler.Register(ErrEmptyFile, errorhandler.KindInvalidInput, http.StatusBadRequest, "EMPTY_FILE", "File is empty")
	errorhandler.Register(ErrInvalidMimeType, errorhandler.KindInvalidInput, http.StatusBadRequest, "INVALID_MIME_TYPE", "File is not a supported image")
	errorhandler.Register(ErrInvalidHash, errorhandler.KindInvalidInput, http.StatusBadRequest, "INVALID_HASH", "Invalid image hash")
	errorhandler.Register(ErrFileTooLarge, errorhandler.KindResourceExceeded, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "File exceeds maximum size")
	errorhandler.Register(ErrImageNotFound, errorhandler.KindNotFound, http.StatusNotFound, "NOT_FOUND", "Image not found")
}
