package imaging

import (
	"bytes"
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Processed is the outcome of a transform.
type Processed struct {
	Data       []byte
	MimeType   string
	Width      int
	Height     int
	FirstFrame bool // an animated source was flattened to its first frame
	Unchanged  bool // the source bytes were returned as is
}

// Config for image processing
type Config struct {
	DefaultQuality int // used when a lossy target gets no q token (default 85)
}

// DefaultConfig returns default processing config
func DefaultConfig() Config {
	return Config{
		DefaultQuality: DefaultQuality,
	}
}

// Processor runs the decode, resize, alpha and encode pipeline.
type Processor struct {
	config Config
}

// NewProcessor creates image processor
func NewProcessor(config Config) *Processor {
	if config.DefaultQuality <= 0 || config.DefaultQuality > 100 {
		config.DefaultQuality = DefaultQuality
	}
	return &Processor{config: config}
}

// Transform applies params to the source image. Params must already be validated.
func (p *Processor) Transform(ctx context.Context, data []byte, mime string, params Params) (*Processed, error) {
	if !params.NeedsTransform() {
		return &Processed{Data: data, MimeType: mime, Unchanged: true}, nil
	}

	animated := IsAnimated(mime, data)
	if animated && params.Format == FormatUnknown {
		log.Debug().Str("mime", mime).Msg("Animated source without target format, returning original")
		return &Processed{Data: data, MimeType: mime, Unchanged: true}, nil
	}

	target, err := targetFormat(mime, params.Format)
	if err != nil {
		return nil, err
	}
	if params.Quality != 0 && !target.AcceptsQuality() {
		return nil, fmt.Errorf("%w: %s does not accept a quality setting", ErrInvalidParams, target)
	}

	img, err := Decode(data, mime)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if params.Width != nil || params.Height != nil {
		img = Resize(img, params.Width, params.Height)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	if params.NoAlpha || !target.SupportsAlpha() {
		img = RemoveAlpha(img, params.Background)
	}

	quality := params.Quality
	if quality == 0 && target.AcceptsQuality() && target != FormatPNG {
		quality = p.config.DefaultQuality
	}

	event := log.Debug().
		Str("source_mime", mime).
		Str("target", target.String()).
		Int("quality", quality).
		Bool("alpha", HasAlpha(img))
	if target == FormatPNG {
		event = event.Str("png_filter", pngFilter(img))
	}
	event.Msg("Encoding image")

	var buf bytes.Buffer
	if err := target.Encode(&buf, img, quality); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrEncode, target, err)
	}

	b := img.Bounds()
	return &Processed{
		Data:       buf.Bytes(),
		MimeType:   target.MimeType(),
		Width:      b.Dx(),
		Height:     b.Dy(),
		FirstFrame: animated,
	}, nil
}

// targetFormat picks the requested format, or the source's own format when none was
// requested. Sources without an encoder of their own (bmp, tiff) become PNG.
func targetFormat(mime string, requested Format) (Format, error) {
	if requested != FormatUnknown {
		return requested, nil
	}
	if f, ok := FormatFromMime(mime); ok {
		return f, nil
	}
	switch mime {
	case "image/bmp", "image/tiff":
		return FormatPNG, nil
	}
	return FormatUnknown, fmt.Errorf("%w: %s", ErrUnsupportedFormat, mime)
}
