package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/avif"
	"github.com/gen2brain/webp"
	"github.com/sergeymakinen/go-ico"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// SupportedMimeTypes lists the source types that can be stored and decoded.
var SupportedMimeTypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
	"image/bmp",
	"image/tiff",
	"image/avif",
	"image/x-icon",
}

// IsSupportedMime reports whether mime is a decodable source type.
func IsSupportedMime(mime string) bool {
	for _, m := range SupportedMimeTypes {
		if m == mime {
			return true
		}
	}
	return false
}

// Decode decodes data into an NRGBA image. GIF and WebP sources yield their first frame.
func Decode(data []byte, mime string) (*image.NRGBA, error) {
	var (
		img image.Image
		err error
	)

	r := bytes.NewReader(data)
	switch mime {
	case "image/gif":
		img, err = gif.Decode(r)
	case "image/webp":
		img, err = webp.Decode(r)
	case "image/avif":
		img, err = avif.Decode(r)
	case "image/x-icon", "image/vnd.microsoft.icon":
		img, err = ico.Decode(r)
	default:
		img, err = imaging.Decode(r, imaging.AutoOrientation(true))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrInvalidImage)
	}

	if nrgba, ok := img.(*image.NRGBA); ok && b.Min == (image.Point{}) {
		return nrgba, nil
	}
	return imaging.Clone(img), nil
}

// HasAlpha reports whether any pixel of img is not fully opaque.
func HasAlpha(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0xffff {
				return true
			}
		}
	}
	return false
}
