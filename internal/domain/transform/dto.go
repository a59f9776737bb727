package transform

import (
	"github.com/rifs/rifs-api/internal/domain/image"
)

// Base64Response is the body of a structured base64 (b64) request
type Base64Response struct {
	Success  bool                 `json:"success"`
	Message  string               `json:"message"`
	Data     string               `json:"data"`
	MimeType string               `json:"mime_type"`
	Size     int                  `json:"size"`
	Original *image.ImageResponse `json:"original"`
}
