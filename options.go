package dogvision

import (
	"github.com/gogpu/dogvision/clock"
	"github.com/gogpu/dogvision/dichroma"
	"github.com/gogpu/dogvision/gpucore"
	"github.com/gogpu/dogvision/pipeline"
)

// Option configures a Generator during creation.
// Use functional options to customize Generator behavior.
//
// Example:
//
//	// Defaults: system clock, standard profile, scene-recommended frame rate
//	gen, err := dogvision.New(device)
//
//	// Senior profile capped at 20 fps
//	gen, err := dogvision.New(device,
//	    dogvision.WithBreed(dichroma.Senior),
//	    dogvision.WithFrameRate(20))
type Option func(*options)

// options holds optional configuration for Generator creation.
type options struct {
	clock        clock.Clock
	breed        dichroma.Breed
	frameRate    int
	uniformSlots int
	compiler     pipeline.Compiler
	format       gpucore.TextureFormat
}

// defaultOptions returns the default generator options.
func defaultOptions() options {
	return options{
		clock: clock.System(),
		breed: dichroma.Standard,
		// frameRate 0 follows the active scene's recommendation.
		// uniformSlots 0 selects pipeline.DefaultUniformSlots.
		// compiler nil selects the naga WGSL compiler.
		// format 0 uses the device surface format, then bgra8unorm.
	}
}

// WithClock sets the time source driving transitions, auto-rotation and
// frame timing. Tests pass a *clock.Fake to advance virtual time.
// Nil is ignored.
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithBreed selects the initial breed calibration profile.
// Unknown values resolve to dichroma.Standard.
func WithBreed(b dichroma.Breed) Option {
	return func(o *options) {
		o.breed = b
	}
}

// WithFrameRate fixes the frame-rate cap. Values are clamped to
// [render.MinFrameRate, render.MaxFrameRate]. Without this option the cap
// follows the recommended rate of the scene being shown.
func WithFrameRate(fps int) Option {
	return func(o *options) {
		o.frameRate = fps
	}
}

// WithUniformSlots sets the number of frames the uniform ring can hold in
// flight. Values below pipeline.MinUniformSlots are raised to it.
func WithUniformSlots(n int) Option {
	return func(o *options) {
		o.uniformSlots = n
	}
}

// WithCompiler replaces the WGSL to SPIR-V compiler. Nil is ignored.
func WithCompiler(c pipeline.Compiler) Option {
	return func(o *options) {
		if c != nil {
			o.compiler = c
		}
	}
}

// WithTargetFormat sets the color format of the targets frames are drawn
// into. It must match every target passed to RenderFrame.
func WithTargetFormat(f gpucore.TextureFormat) Option {
	return func(o *options) {
		o.format = f
	}
}
