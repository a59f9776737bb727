package imaging

import (
	"image"
	"math"
	"testing"
)

func TestFitSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		srcW, srcH   int
		width        *int
		height       *int
		wantW, wantH int
	}{
		{name: "width only", srcW: 2000, srcH: 1000, width: intPtr(500), wantW: 500, wantH: 250},
		{name: "height only", srcW: 2000, srcH: 1000, height: intPtr(100), wantW: 200, wantH: 100},
		{name: "box limited by width", srcW: 2000, srcH: 1000, width: intPtr(800), height: intPtr(600), wantW: 800, wantH: 400},
		{name: "box limited by height", srcW: 1000, srcH: 2000, width: intPtr(800), height: intPtr(600), wantW: 300, wantH: 600},
		{name: "floor rounding", srcW: 333, srcH: 100, width: intPtr(100), wantW: 100, wantH: 30},
		{name: "no upscale width", srcW: 400, srcH: 300, width: intPtr(800), wantW: 400, wantH: 300},
		{name: "no upscale box", srcW: 400, srcH: 300, width: intPtr(1000), height: intPtr(1000), wantW: 400, wantH: 300},
		{name: "exact size", srcW: 400, srcH: 300, width: intPtr(400), height: intPtr(300), wantW: 400, wantH: 300},
		{name: "never collapses to zero", srcW: 2000, srcH: 1, width: intPtr(10), wantW: 10, wantH: 1},
		{name: "nothing requested", srcW: 40, srcH: 30, wantW: 40, wantH: 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := FitSize(tt.srcW, tt.srcH, tt.width, tt.height)
			if w != tt.wantW || h != tt.wantH {
				t.Fatalf("FitSize = %dx%d, want %dx%d", w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestFitSizeNeverUpscales(t *testing.T) {
	t.Parallel()

	for srcW := 1; srcW <= 64; srcW += 7 {
		for srcH := 1; srcH <= 64; srcH += 5 {
			for req := srcW; req <= srcW+40; req += 13 {
				reqH := srcH + (req - srcW)
				w, h := FitSize(srcW, srcH, intPtr(req), intPtr(reqH))
				if w != srcW || h != srcH {
					t.Fatalf("%dx%d in box %dx%d gave %dx%d", srcW, srcH, req, reqH, w, h)
				}
			}
		}
	}
}

func TestFitSizePreservesAspect(t *testing.T) {
	t.Parallel()

	srcW, srcH := 1920, 1080
	for width := 16; width < srcW; width += 97 {
		w, h := FitSize(srcW, srcH, intPtr(width), nil)
		want := float64(srcH) * float64(width) / float64(srcW)
		if w != width || math.Abs(float64(h)-want) >= 1 {
			t.Fatalf("width %d gave %dx%d, expected height near %.2f", width, w, h, want)
		}
	}
}

func TestResizeReturnsSameImageWhenUnchanged(t *testing.T) {
	t.Parallel()

	img := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	if got := Resize(img, intPtr(20), nil); got != img {
		t.Fatal("expected the original image when no resize is needed")
	}
	got := Resize(img, intPtr(5), nil)
	if got.Bounds().Dx() != 5 || got.Bounds().Dy() != 5 {
		t.Fatalf("expected 5x5, got %v", got.Bounds())
	}
}
