package dichroma

import (
	"image/color"
	"math"
)

// RGBA represents a straight-alpha color with components in [0, 1].
type RGBA struct {
	R, G, B, A float64
}

// RGB creates an opaque color from RGB components.
func RGB(r, g, b float64) RGBA {
	return RGBA{R: r, G: g, B: b, A: 1}
}

// Hex creates a color from a hex string.
// Supports "RGB", "RRGGBB" and "RRGGBBAA", with or without a leading '#'.
// Malformed input yields opaque black.
func Hex(hex string) RGBA {
	if hex != "" && hex[0] == '#' {
		hex = hex[1:]
	}

	var r, g, b uint32
	a := uint32(255)

	switch len(hex) {
	case 3:
		r, g, b = parseHex(hex[0:1])*17, parseHex(hex[1:2])*17, parseHex(hex[2:3])*17
	case 6:
		r, g, b = parseHex(hex[0:2]), parseHex(hex[2:4]), parseHex(hex[4:6])
	case 8:
		r, g, b, a = parseHex(hex[0:2]), parseHex(hex[2:4]), parseHex(hex[4:6]), parseHex(hex[6:8])
	default:
		return RGB(0, 0, 0)
	}

	return RGBA{
		R: float64(r) / 255,
		G: float64(g) / 255,
		B: float64(b) / 255,
		A: float64(a) / 255,
	}
}

func parseHex(s string) uint32 {
	var v uint32
	for i := 0; i < len(s); i++ {
		c := s[i]
		v *= 16
		switch {
		case '0' <= c && c <= '9':
			v += uint32(c - '0')
		case 'a' <= c && c <= 'f':
			v += uint32(c - 'a' + 10)
		case 'A' <= c && c <= 'F':
			v += uint32(c - 'A' + 10)
		default:
			return 0
		}
	}
	return v
}

// FromColor converts a standard color.Color to RGBA (unpremultiplied).
func FromColor(c color.Color) RGBA {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return RGBA{
		R: float64(n.R) / 255,
		G: float64(n.G) / 255,
		B: float64(n.B) / 255,
		A: float64(n.A) / 255,
	}
}

// NRGBA converts the color to 8-bit straight alpha.
func (c RGBA) NRGBA() color.NRGBA {
	return color.NRGBA{
		R: to8(c.R),
		G: to8(c.G),
		B: to8(c.B),
		A: to8(c.A),
	}
}

// Lerp performs linear interpolation between two colors.
func (c RGBA) Lerp(other RGBA, t float64) RGBA {
	return RGBA{
		R: c.R + (other.R-c.R)*t,
		G: c.G + (other.G-c.G)*t,
		B: c.B + (other.B-c.B)*t,
		A: c.A + (other.A-c.A)*t,
	}
}

// Clamp restricts every channel to [0, 1]. NaN channels become 0.
func (c RGBA) Clamp() RGBA {
	return RGBA{R: clamp01(c.R), G: clamp01(c.G), B: clamp01(c.B), A: clamp01(c.A)}
}

// Vec4 returns the color as float32 components for GPU upload.
func (c RGBA) Vec4() [4]float32 {
	return [4]float32{float32(c.R), float32(c.G), float32(c.B), float32(c.A)}
}

// Luminance returns the ITU-R BT.601 luma of the color.
func (c RGBA) Luminance() float64 {
	return 0.299*c.R + 0.587*c.G + 0.114*c.B
}

func to8(x float64) uint8 {
	return uint8(math.Round(clamp01(x) * 255))
}

// clamp01 restricts x to [0, 1]; NaN maps to 0.
func clamp01(x float64) float64 {
	switch {
	case x > 1:
		return 1
	case x >= 0:
		return x
	default:
		// negative or NaN
		return 0
	}
}

// clampRange restricts x to [lo, hi]; NaN maps to def.
func clampRange(x, lo, hi, def float64) float64 {
	if math.IsNaN(x) {
		return def
	}
	return math.Max(lo, math.Min(hi, x))
}
