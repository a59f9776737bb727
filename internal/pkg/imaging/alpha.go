package imaging

import "image"

// RemoveAlpha blends img onto bg and returns a fully opaque copy.
// Images without transparency are returned as is.
func RemoveAlpha(img *image.NRGBA, bg Background) *image.NRGBA {
	if img.Opaque() {
		return img
	}

	br, bgG, bb := bg.RGB()
	b := img.Bounds()
	out := image.NewNRGBA(b)

	for y := 0; y < b.Dy(); y++ {
		src := img.Pix[y*img.Stride : y*img.Stride+b.Dx()*4]
		dst := out.Pix[y*out.Stride : y*out.Stride+b.Dx()*4]
		for i := 0; i < len(src); i += 4 {
			a := float64(src[i+3]) / 255
			dst[i+0] = blend(src[i+0], br, a)
			dst[i+1] = blend(src[i+1], bgG, a)
			dst[i+2] = blend(src[i+2], bb, a)
			dst[i+3] = 0xff
		}
	}

	return out
}

func blend(c, bg uint8, a float64) uint8 {
	return uint8(float64(c)*a + float64(bg)*(1-a))
}
