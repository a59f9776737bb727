package storage

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DetectMime sniffs the content type from magic bytes, ignoring any client-supplied type.
func DetectMime(data []byte) string {
	mimeType := mimetype.Detect(data).String()
	// "image/svg+xml; charset=utf-8" -> "image/svg+xml"
	if idx := strings.Index(mimeType, ";"); idx != -1 {
		mimeType = strings.TrimSpace(mimeType[:idx])
	}
	return mimeType
}

// ExtensionForMime returns the file extension (without dot) for a MIME type
func ExtensionForMime(mimeType string) string {
	switch mimeType {
	case "image/jpeg", "image/jpg":
		return "jpg"
	case "image/png":
		return "png"
	case "image/webp":
		return "webp"
	case "image/gif":
		return "gif"
	case "image/avif":
		return "avif"
	case "image/bmp", "image/x-ms-bmp":
		return "bmp"
	case "image/tiff":
		return "tiff"
	case "image/x-icon", "image/vnd.microsoft.icon":
		return "ico"
	default:
		return "bin"
	}
}
