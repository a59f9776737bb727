package imaging

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// MaxDimension is the largest width or height a transform may request.
const MaxDimension = 8192

// BackgroundKind tells how a background colour was requested.
type BackgroundKind int

const (
	BackgroundNone BackgroundKind = iota
	BackgroundWhite
	BackgroundBlack
	BackgroundCustom
)

// Background is the colour transparent pixels are blended onto.
type Background struct {
	Kind    BackgroundKind
	R, G, B uint8
}

// RGB returns the colour components. An unset background is white.
func (b Background) RGB() (uint8, uint8, uint8) {
	switch b.Kind {
	case BackgroundBlack:
		return 0, 0, 0
	case BackgroundCustom:
		return b.R, b.G, b.B
	default:
		return 255, 255, 255
	}
}

// String returns white, black, #rrggbb or an empty string when unset.
func (b Background) String() string {
	switch b.Kind {
	case BackgroundWhite:
		return "white"
	case BackgroundBlack:
		return "black"
	case BackgroundCustom:
		return fmt.Sprintf("#%02x%02x%02x", b.R, b.G, b.B)
	default:
		return ""
	}
}

// OutputMode selects how transformed bytes are framed in the HTTP response.
type OutputMode int

const (
	OutputBinary OutputMode = iota
	OutputBase64
	OutputBase64Raw
)

// Params is a parsed transform request.
type Params struct {
	Width      *int
	Height     *int
	Format     Format
	Quality    int // 0 means encoder default
	NoAlpha    bool
	Background Background
	Output     OutputMode
}

// ParseParams parses an underscore-joined token string such as w800_h600_jpeg_q90_naw.
// Unknown tokens are ignored.
func ParseParams(raw string) Params {
	var p Params
	if strings.TrimSpace(raw) == "" {
		return p
	}

	for _, tok := range strings.Split(raw, "_") {
		if tok == "" {
			continue
		}

		if f, ok := ParseFormat(tok); ok {
			p.Format = f
			continue
		}

		switch strings.ToLower(tok) {
		case "base64", "b64":
			p.Output = OutputBase64
			continue
		case "base64raw", "b64raw":
			p.Output = OutputBase64Raw
			continue
		}

		switch {
		case strings.HasPrefix(tok, "na"):
			p.NoAlpha = true
			p.Background = parseBackground(tok[2:])
		case tok[0] == 'w':
			if v, err := strconv.ParseUint(tok[1:], 10, 32); err == nil {
				w := int(v)
				p.Width = &w
			}
		case tok[0] == 'h':
			if v, err := strconv.ParseUint(tok[1:], 10, 32); err == nil {
				h := int(v)
				p.Height = &h
			}
		case tok[0] == 'q':
			if v, err := strconv.ParseUint(tok[1:], 10, 8); err == nil && v >= 1 && v <= 100 {
				p.Quality = int(v)
			}
		}
	}

	return p
}

func parseBackground(s string) Background {
	switch {
	case s == "" || s == "w":
		return Background{Kind: BackgroundWhite}
	case s == "b":
		return Background{Kind: BackgroundBlack}
	case len(s) == 7 && s[0] == '#':
		rgb, err := hex.DecodeString(s[1:])
		if err != nil {
			return Background{}
		}
		return Background{Kind: BackgroundCustom, R: rgb[0], G: rgb[1], B: rgb[2]}
	default:
		return Background{}
	}
}

// NeedsTransform reports whether any pixel-affecting field is set.
func (p Params) NeedsTransform() bool {
	return p.Width != nil || p.Height != nil || p.Format != FormatUnknown || p.Quality != 0 || p.NoAlpha
}

// Normalized serialises the params in a fixed field order. The output mode is not part of it.
func (p Params) Normalized() string {
	parts := make([]string, 0, 5)

	if p.Width != nil {
		parts = append(parts, "w"+strconv.Itoa(*p.Width))
	}
	if p.Height != nil {
		parts = append(parts, "h"+strconv.Itoa(*p.Height))
	}
	if p.Format != FormatUnknown {
		parts = append(parts, p.Format.String())
	}
	if p.Quality != 0 {
		parts = append(parts, "q"+strconv.Itoa(p.Quality))
	}
	if p.NoAlpha {
		switch p.Background.Kind {
		case BackgroundWhite:
			parts = append(parts, "naw")
		case BackgroundBlack:
			parts = append(parts, "nab")
		case BackgroundCustom:
			parts = append(parts, "na"+p.Background.String())
		default:
			parts = append(parts, "na")
		}
	}

	return strings.Join(parts, "_")
}

// TargetMime returns the mime type of the requested format, or "" if none was requested.
func (p Params) TargetMime() string {
	if p.Format == FormatUnknown {
		return ""
	}
	return p.Format.MimeType()
}

// Validate checks ranges and format compatibility before any pipeline work.
func (p Params) Validate() error {
	if p.Width != nil && (*p.Width < 1 || *p.Width > MaxDimension) {
		return fmt.Errorf("%w: width %d must be between 1 and %d", ErrDimensionOutOfRange, *p.Width, MaxDimension)
	}
	if p.Height != nil && (*p.Height < 1 || *p.Height > MaxDimension) {
		return fmt.Errorf("%w: height %d must be between 1 and %d", ErrDimensionOutOfRange, *p.Height, MaxDimension)
	}
	if p.Quality < 0 || p.Quality > 100 {
		return fmt.Errorf("%w: quality %d must be between 1 and 100", ErrInvalidParams, p.Quality)
	}
	if p.Quality != 0 && p.Format != FormatUnknown && !p.Format.AcceptsQuality() {
		return fmt.Errorf("%w: %s does not accept a quality setting", ErrInvalidParams, p.Format)
	}
	return nil
}
