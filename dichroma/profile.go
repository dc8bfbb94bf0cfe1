package dichroma

import (
	"fmt"
	"strings"
)

// Breed selects a calibration profile. The set is closed: custom tuning is
// expressed through Derive with a hand-built Profile, not new Breed values.
type Breed uint8

const (
	// Standard is the uncalibrated default.
	Standard Breed = iota

	// LowLight favors the rod-rich low-light response: stronger blue and
	// contrast. Suits sighthounds and dim rooms.
	LowLight

	// HighStimulation boosts every component and tolerates more motion.
	// Suits working and herding breeds.
	HighStimulation

	// Brachycephalic targets breeds with low motion tolerance: stronger
	// temporal stabilization and higher contrast, damped motion.
	Brachycephalic

	// Senior brightens output and calms motion for older dogs.
	Senior

	breedCount
)

// Profile is a named preset of visual overrides applied by Derive.
// Scale fields multiply the base values; a zero scale is treated as 1.
type Profile struct {
	Breed       Breed
	Name        string
	Description string

	BrightnessScale float64
	ContrastScale   float64
	SaturationScale float64
	BlueScale       float64
	YellowScale     float64

	// MotionSensitivity scales motion intensity and animation speed.
	MotionSensitivity float64

	// MotionTolerance divides the base motion blur reduction; values above
	// 1 keep more of the transform during motion.
	MotionTolerance float64

	// ContrastTarget and StabilityTarget, when positive, pull the contrast
	// multiplier and motion blur reduction toward them by Pull in [0, 1].
	ContrastTarget  float64
	StabilityTarget float64
	Pull            float64
}

var profiles = [breedCount]Profile{
	Standard: {
		Breed:       Standard,
		Name:        "standard",
		Description: "Uncalibrated canine defaults",
	},
	LowLight: {
		Breed:         LowLight,
		Name:          "low-light",
		Description:   "Stronger blue response and contrast for dim viewing",
		BlueScale:     1.2,
		ContrastScale: 1.5,
	},
	HighStimulation: {
		Breed:             HighStimulation,
		Name:              "high-stimulation",
		Description:       "Livelier output for working and herding breeds",
		BrightnessScale:   1.1,
		ContrastScale:     1.1,
		SaturationScale:   1.1,
		BlueScale:         1.1,
		YellowScale:       1.1,
		MotionSensitivity: 1.1,
		MotionTolerance:   1.25,
	},
	Brachycephalic: {
		Breed:             Brachycephalic,
		Name:              "brachycephalic",
		Description:       "Low motion tolerance: stabilized, higher contrast, calmer motion",
		MotionSensitivity: 0.6,
		ContrastTarget:    1.6,
		StabilityTarget:   1,
		Pull:              0.6,
	},
	Senior: {
		Breed:             Senior,
		Name:              "senior",
		Description:       "Brighter, gentler output for older dogs",
		BrightnessScale:   1.15,
		ContrastScale:     1.2,
		MotionSensitivity: 0.8,
		StabilityTarget:   0.5,
		Pull:              0.3,
	},
}

// LookupProfile returns the profile for b. Unknown values yield Standard.
func LookupProfile(b Breed) Profile {
	if b >= breedCount {
		return profiles[Standard]
	}
	return profiles[b]
}

// Breeds returns every Breed in declaration order.
func Breeds() []Breed {
	out := make([]Breed, breedCount)
	for i := range out {
		out[i] = Breed(i)
	}
	return out
}

// String returns the profile name.
func (b Breed) String() string {
	if b >= breedCount {
		return fmt.Sprintf("Breed(%d)", uint8(b))
	}
	return profiles[b].Name
}

// ParseBreed resolves a profile name (case-insensitive).
func ParseBreed(name string) (Breed, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, b := range Breeds() {
		if profiles[b].Name == key {
			return b, nil
		}
	}
	return Standard, fmt.Errorf("dichroma: unknown breed profile %q", name)
}

// Inputs are the user-facing control values, each in [0, 1].
type Inputs struct {
	Intensity        float64
	ColorTemperature float64
	MotionLevel      float64
}

// Tuning is the per-frame parameter set derived from Inputs and a Profile.
type Tuning struct {
	MotionIntensity float64
	AnimationSpeed  float64
	Brightness      float64
	Saturation      float64
	Complexity      float64
	ContrastLevel   float64

	// Transform feeds the dichromatic transform. Its ContrastMultiplier
	// equals ContrastLevel.
	Transform Params
}

// Derive computes the frame tuning for in under profile p.
// Inputs are clamped to [0, 1] first; every output lies in its domain.
func Derive(in Inputs, p Profile) Tuning {
	intensity := clamp01(in.Intensity)
	temp := clamp01(in.ColorTemperature)
	motion := clamp01(in.MotionLevel)

	t := Tuning{
		MotionIntensity: motion * intensity,
		AnimationSpeed:  0.3 + 0.7*motion,
		Brightness:      0.6 + 0.4*temp,
		Saturation:      0.8 + 0.4*intensity,
		Complexity:      0.6 * intensity,
		ContrastLevel:   1.1 + 0.3*intensity,
	}
	blur := 0.25 * motion

	sens := scaleOr1(p.MotionSensitivity)
	t.MotionIntensity *= sens
	t.AnimationSpeed *= sens
	t.Brightness *= scaleOr1(p.BrightnessScale)
	t.Saturation *= scaleOr1(p.SaturationScale)
	t.ContrastLevel *= scaleOr1(p.ContrastScale)
	blur /= scaleOr1(p.MotionTolerance)

	pull := clamp01(p.Pull)
	if p.ContrastTarget > 0 {
		t.ContrastLevel += (p.ContrastTarget - t.ContrastLevel) * pull
	}
	if p.StabilityTarget > 0 {
		blur += (clamp01(p.StabilityTarget) - blur) * pull
	}

	t.MotionIntensity = clampRange(t.MotionIntensity, 0, MaxChannelWeight, 0)
	t.AnimationSpeed = clampRange(t.AnimationSpeed, 0, MaxChannelWeight, 0.3)
	t.Brightness = clampRange(t.Brightness, 0, MaxChannelWeight, 1)
	t.Saturation = clampRange(t.Saturation, 0, MaxChannelWeight, 1)
	t.ContrastLevel = clampRange(t.ContrastLevel, 0, MaxContrast, 1.1)

	t.Transform = Params{
		BlueWeight:          scaleOr1(p.BlueScale),
		YellowWeight:        scaleOr1(p.YellowScale),
		ContrastMultiplier:  t.ContrastLevel,
		MotionBlurReduction: blur,
	}.Sanitize()
	return t
}

func scaleOr1(v float64) float64 {
	if v <= 0 || v != v {
		return 1
	}
	return v
}
