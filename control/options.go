package control

import (
	"math"
	"time"

	"github.com/gogpu/dogvision/clock"
	"github.com/gogpu/dogvision/dichroma"
)

// Canine-friendly defaults applied by Start: moderate intensity, a cool
// color temperature and gentle motion.
const (
	DefaultIntensity        = 0.6
	DefaultColorTemperature = 0.3
	DefaultMotionLevel      = 0.4
)

// DefaultTransitionDuration is the blend length used by auto-rotation.
const DefaultTransitionDuration = 2 * time.Second

// Option configures a Controller.
type Option func(*options)

type options struct {
	clock clock.Clock
	breed dichroma.Breed
}

func defaultOptions() options {
	return options{clock: clock.System(), breed: dichroma.Standard}
}

// WithClock sets the time source and scheduler. Nil is ignored.
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithBreed selects the initial breed calibration profile.
func WithBreed(b dichroma.Breed) Option {
	return func(o *options) {
		o.breed = b
	}
}

// StartOption overrides a canine default applied by Start.
type StartOption func(*startOptions)

type startOptions struct {
	intensity        float64
	colorTemperature float64
	motionLevel      float64
}

func defaultStartOptions() startOptions {
	return startOptions{
		intensity:        DefaultIntensity,
		colorTemperature: DefaultColorTemperature,
		motionLevel:      DefaultMotionLevel,
	}
}

// WithIntensity overrides the starting intensity (clamped to [0, 1]).
func WithIntensity(v float64) StartOption {
	return func(o *startOptions) { o.intensity = clampSetting(v, o.intensity) }
}

// WithColorTemperature overrides the starting color temperature
// (clamped to [0, 1]).
func WithColorTemperature(v float64) StartOption {
	return func(o *startOptions) { o.colorTemperature = clampSetting(v, o.colorTemperature) }
}

// WithMotionLevel overrides the starting motion level (clamped to [0, 1]).
func WithMotionLevel(v float64) StartOption {
	return func(o *startOptions) { o.motionLevel = clampSetting(v, o.motionLevel) }
}

// clampSetting clamps v to [0, 1]; NaN yields old.
func clampSetting(v, old float64) float64 {
	if math.IsNaN(v) {
		return old
	}
	return math.Max(0, math.Min(1, v))
}
