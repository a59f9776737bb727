package imaging

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// FitSize returns the dimensions that fit srcW x srcH inside the requested box while
// keeping the aspect ratio. A result larger than the source on either axis falls back
// to the source size.
func FitSize(srcW, srcH int, width, height *int) (int, int) {
	if srcW <= 0 || srcH <= 0 {
		return srcW, srcH
	}

	var w, h int
	switch {
	case width != nil && height != nil:
		ratio := math.Min(float64(*width)/float64(srcW), float64(*height)/float64(srcH))
		w = int(math.Floor(float64(srcW) * ratio))
		h = int(math.Floor(float64(srcH) * ratio))
	case width != nil:
		w = *width
		h = int(int64(srcH) * int64(*width) / int64(srcW))
	case height != nil:
		h = *height
		w = int(int64(srcW) * int64(*height) / int64(srcH))
	default:
		return srcW, srcH
	}

	if w > srcW || h > srcH {
		return srcW, srcH
	}
	return max(w, 1), max(h, 1)
}

// Resize scales img to fit the requested box using a Lanczos filter. It never upscales
// and returns img untouched when the size would not change.
func Resize(img *image.NRGBA, width, height *int) *image.NRGBA {
	b := img.Bounds()
	w, h := FitSize(b.Dx(), b.Dy(), width, height)
	if w == b.Dx() && h == b.Dy() {
		return img
	}
	return imaging.Resize(img, w, h, imaging.Lanczos)
}
