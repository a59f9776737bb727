package imaging

import (
	"bytes"
	_ "embed"
	"image"
	"image/color"
	"image/gif"
	"testing"

	"github.com/gen2brain/webp"
)

//go:embed testdata/anim.webp
var animatedWebP []byte

func gifBytes(t *testing.T, frames int) []byte {
	t.Helper()

	palette := color.Palette{color.Black, color.White, color.Transparent}
	anim := &gif.GIF{}
	for i := 0; i < frames; i++ {
		frame := image.NewPaletted(image.Rect(0, 0, 8, 8), palette)
		frame.SetColorIndex(i%8, i%8, 1)
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, 10)
	}

	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, anim); err != nil {
		t.Fatalf("encode gif: %v", err)
	}
	return buf.Bytes()
}

func stillWebP(t *testing.T) []byte {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		img.Pix[i] = 200
	}

	var buf bytes.Buffer
	if err := webp.Encode(&buf, img); err != nil {
		t.Fatalf("encode webp: %v", err)
	}
	return buf.Bytes()
}

func TestIsAnimatedGIF(t *testing.T) {
	t.Parallel()

	if IsAnimated("image/gif", gifBytes(t, 1)) {
		t.Fatal("single-frame gif reported as animated")
	}
	if !IsAnimated("image/gif", gifBytes(t, 3)) {
		t.Fatal("three-frame gif not reported as animated")
	}
	if IsAnimated("image/gif", []byte("GIF89a-broken")) {
		t.Fatal("garbage must be treated as still")
	}
}

func TestGIFFrameCount(t *testing.T) {
	t.Parallel()

	if got := gifFrameCount(gifBytes(t, 5)); got != 5 {
		t.Fatalf("expected 5 frames, got %d", got)
	}
	if got := gifFrameCount(nil); got != 0 {
		t.Fatalf("expected 0 frames for empty data, got %d", got)
	}
}

func TestIsAnimatedWebP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
		want bool
	}{
		{name: "animated", data: animatedWebP, want: true},
		{name: "still", data: stillWebP(t), want: false},
		{name: "not riff", data: []byte("definitely not a webp file"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAnimated("image/webp", tt.data); got != tt.want {
				t.Fatalf("IsAnimated = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsAnimatedOtherTypes(t *testing.T) {
	t.Parallel()

	if IsAnimated("image/png", gifBytes(t, 3)) {
		t.Fatal("only gif and webp can be animated")
	}
}
