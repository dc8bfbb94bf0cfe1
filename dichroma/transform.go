package dichroma

// BT.601 luma weights.
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)

// greenSuppression scales the green channel. Canine green sensitivity is
// far below human vision.
const greenSuppression = 0.3

// luminanceEpsilon is the luma below which reconstruction yields black
// instead of dividing by a near-zero value.
const luminanceEpsilon = 1e-4

// Documented parameter domains. Values outside are clamped by Sanitize.
const (
	MaxChannelWeight = 2.0
	MaxContrast      = 4.0
)

// Params controls one application of the dichromatic transform.
type Params struct {
	// BlueWeight scales the blue channel. Domain [0, 2].
	BlueWeight float64

	// YellowWeight scales the synthesized yellow channel (mean of R and G).
	// Domain [0, 2].
	YellowWeight float64

	// ContrastMultiplier stretches luminance around mid-grey. Domain [0, 4].
	ContrastMultiplier float64

	// MotionBlurReduction blends the result back toward the unmodified
	// color, trading transform strength for temporal stability.
	// Domain [0, 1]: 0 is the full transform, 1 the original color.
	MotionBlurReduction float64
}

// DefaultParams returns the transform parameters of the Standard profile at
// neutral inputs.
func DefaultParams() Params {
	return Params{
		BlueWeight:          1,
		YellowWeight:        1,
		ContrastMultiplier:  1.1,
		MotionBlurReduction: 0,
	}
}

// Sanitize clamps every field to its documented domain. NaN fields take the
// DefaultParams value.
func (p Params) Sanitize() Params {
	d := DefaultParams()
	return Params{
		BlueWeight:          clampRange(p.BlueWeight, 0, MaxChannelWeight, d.BlueWeight),
		YellowWeight:        clampRange(p.YellowWeight, 0, MaxChannelWeight, d.YellowWeight),
		ContrastMultiplier:  clampRange(p.ContrastMultiplier, 0, MaxContrast, d.ContrastMultiplier),
		MotionBlurReduction: clampRange(p.MotionBlurReduction, 0, 1, d.MotionBlurReduction),
	}
}

// Transform converts c into its dichromat-optimized equivalent.
//
// The result is deterministic, has every channel in [0, 1] and never
// contains NaN or Inf for inputs in [0, 1]. Alpha passes through (clamped).
func Transform(c RGBA, p Params) RGBA {
	p = p.Sanitize()
	src := c.Clamp()

	lum := lumaR*src.R + lumaG*src.G + lumaB*src.B

	blue := src.B * p.BlueWeight
	yellow := 0.5 * (src.R + src.G) * p.YellowWeight
	green := src.G * greenSuppression

	enhanced := clamp01((lum-0.5)*p.ContrastMultiplier + 0.5)

	var scale float64
	if lum >= luminanceEpsilon {
		scale = enhanced / lum
	}

	out := RGBA{
		R: 0.7 * yellow * scale,
		G: 0.5 * green * scale,
		B: blue * scale,
	}

	m := p.MotionBlurReduction
	return RGBA{
		R: clamp01(out.R + (src.R-out.R)*m),
		G: clamp01(out.G + (src.G-out.G)*m),
		B: clamp01(out.B + (src.B-out.B)*m),
		A: src.A,
	}
}

// Grade applies the saturation and brightness adjustment that precedes the
// transform in the scene shaders. saturation 1 and brightness 1 are identity.
func Grade(c RGBA, brightness, saturation float64) RGBA {
	src := c.Clamp()
	lum := src.Luminance()
	s := clampRange(saturation, 0, MaxChannelWeight, 1)
	b := clampRange(brightness, 0, MaxChannelWeight, 1)
	return RGBA{
		R: clamp01((lum + (src.R-lum)*s) * b),
		G: clamp01((lum + (src.G-lum)*s) * b),
		B: clamp01((lum + (src.B-lum)*s) * b),
		A: src.A,
	}
}
