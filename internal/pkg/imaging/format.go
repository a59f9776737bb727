package imaging

import (
	"image"
	"image/png"
	"io"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/avif"
	"github.com/gen2brain/webp"
	"github.com/sergeymakinen/go-ico"
)

// Format is a supported output format.
type Format int

const (
	FormatUnknown Format = iota
	FormatJPEG
	FormatPNG
	FormatGIF
	FormatWebP
	FormatAVIF
	FormatICO
)

const (
	// DefaultQuality is used by lossy encoders when no quality is requested.
	DefaultQuality = 85

	// losslessQualityThreshold switches WebP to lossless encoding.
	losslessQualityThreshold = 95

	// icoMaxSide is the largest icon the ICO container can describe.
	icoMaxSide = 256

	adaptiveFilterPixels = 1_000_000
)

type encodeFunc func(w io.Writer, img image.Image, quality int) error

type formatSpec struct {
	name     string
	mime     string
	ext      string
	alpha    bool
	quality  bool
	encode   encodeFunc
	keywords []string
}

var formats = map[Format]formatSpec{
	FormatJPEG: {name: "jpeg", mime: "image/jpeg", ext: "jpg", alpha: false, quality: true, encode: encodeJPEG, keywords: []string{"jpeg", "jpg"}},
	FormatPNG:  {name: "png", mime: "image/png", ext: "png", alpha: true, quality: true, encode: encodePNG, keywords: []string{"png"}},
	FormatGIF:  {name: "gif", mime: "image/gif", ext: "gif", alpha: true, quality: false, encode: encodeGIF, keywords: []string{"gif"}},
	FormatWebP: {name: "webp", mime: "image/webp", ext: "webp", alpha: true, quality: true, encode: encodeWebP, keywords: []string{"webp"}},
	FormatAVIF: {name: "avif", mime: "image/avif", ext: "avif", alpha: true, quality: false, encode: encodeAVIF, keywords: []string{"avif"}},
	FormatICO:  {name: "ico", mime: "image/x-icon", ext: "ico", alpha: true, quality: true, encode: encodeICO, keywords: []string{"ico"}},
}

// ParseFormat maps a format keyword (case-insensitive) to a Format.
func ParseFormat(s string) (Format, bool) {
	s = strings.ToLower(s)
	for f, def := range formats {
		for _, k := range def.keywords {
			if k == s {
				return f, true
			}
		}
	}
	return FormatUnknown, false
}

// FormatFromMime maps a source mime type to the format it re-encodes to.
func FormatFromMime(mime string) (Format, bool) {
	switch mime {
	case "image/jpeg", "image/jpg":
		return FormatJPEG, true
	case "image/png":
		return FormatPNG, true
	case "image/gif":
		return FormatGIF, true
	case "image/webp":
		return FormatWebP, true
	case "image/avif":
		return FormatAVIF, true
	case "image/x-icon", "image/vnd.microsoft.icon":
		return FormatICO, true
	default:
		return FormatUnknown, false
	}
}

func (f Format) String() string {
	if def, ok := formats[f]; ok {
		return def.name
	}
	return "unknown"
}

// MimeType returns the mime type written for this format.
func (f Format) MimeType() string {
	return formats[f].mime
}

// Extension returns the file extension without a leading dot.
func (f Format) Extension() string {
	return formats[f].ext
}

// SupportsAlpha reports whether the format can carry transparency.
func (f Format) SupportsAlpha() bool {
	return formats[f].alpha
}

// AcceptsQuality reports whether an explicit quality token is meaningful.
func (f Format) AcceptsQuality() bool {
	return formats[f].quality
}

// Encode writes img in this format. quality 0 selects the encoder default.
func (f Format) Encode(w io.Writer, img image.Image, quality int) error {
	def, ok := formats[f]
	if !ok {
		return ErrUnsupportedFormat
	}
	return def.encode(w, img, quality)
}

func encodeJPEG(w io.Writer, img image.Image, quality int) error {
	if quality == 0 {
		quality = DefaultQuality
	}
	return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality))
}

func encodePNG(w io.Writer, img image.Image, quality int) error {
	return imaging.Encode(w, img, imaging.PNG, imaging.PNGCompressionLevel(pngCompression(quality)))
}

func encodeGIF(w io.Writer, img image.Image, _ int) error {
	return imaging.Encode(w, img, imaging.GIF)
}

func encodeWebP(w io.Writer, img image.Image, quality int) error {
	if quality == 0 {
		quality = DefaultQuality
	}
	return webp.Encode(w, img, webp.Options{
		Quality:  quality,
		Lossless: quality >= losslessQualityThreshold,
	})
}

func encodeAVIF(w io.Writer, img image.Image, _ int) error {
	return avif.Encode(w, img)
}

func encodeICO(w io.Writer, img image.Image, _ int) error {
	b := img.Bounds()
	if b.Dx() > icoMaxSide || b.Dy() > icoMaxSide {
		img = imaging.Fit(img, icoMaxSide, icoMaxSide, imaging.Lanczos)
	}
	return ico.Encode(w, img)
}

// pngCompression maps quality to a compression effort tier.
func pngCompression(quality int) png.CompressionLevel {
	switch {
	case quality == 0:
		return png.DefaultCompression
	case quality >= 95:
		return png.BestCompression
	case quality >= 85:
		return png.DefaultCompression
	default:
		return png.BestSpeed
	}
}

// pngFilter names the row filter a PNG encoder should prefer for img.
// image/png picks filters itself, so the choice is only reported.
func pngFilter(img image.Image) string {
	b := img.Bounds()
	switch {
	case b.Dx()*b.Dy() > adaptiveFilterPixels:
		return "adaptive"
	case HasAlpha(img):
		return "paeth"
	default:
		return "sub"
	}
}
