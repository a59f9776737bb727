package imaging

import (
	"bytes"
	"image/gif"

	"github.com/gen2brain/webp"
	"github.com/rs/zerolog/log"
)

// IsAnimated reports whether a GIF or WebP source holds more than one frame.
// Unparseable data is treated as a still image.
func IsAnimated(mime string, data []byte) bool {
	switch mime {
	case "image/gif":
		return gifFrameCount(data) > 1
	case "image/webp":
		return webpFrameCount(data) > 1
	default:
		return false
	}
}

func gifFrameCount(data []byte) int {
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		log.Debug().Err(err).Msg("Failed to read gif frames, treating as still")
		return 0
	}
	return len(g.Image)
}

func webpFrameCount(data []byte) int {
	w, err := webp.DecodeAll(bytes.NewReader(data))
	if err != nil {
		log.Debug().Err(err).Msg("Failed to read webp frames, treating as still")
		return 0
	}
	return len(w.Image)
}
