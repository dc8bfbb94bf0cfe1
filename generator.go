package dogvision

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/gogpu/dogvision/clock"
	"github.com/gogpu/dogvision/control"
	"github.com/gogpu/dogvision/dichroma"
	"github.com/gogpu/dogvision/gpucore"
	"github.com/gogpu/dogvision/internal/logging"
	"github.com/gogpu/dogvision/pipeline"
	"github.com/gogpu/dogvision/render"
	"github.com/gogpu/dogvision/scene"
)

// surfaceFormatter is implemented by devices that know their presentation
// format, such as those returned by the gpu package.
type surfaceFormatter interface {
	SurfaceFormat() gpucore.TextureFormat
}

// Generator produces dog-optimized procedural scenes on a GPU device.
//
// All methods are safe for concurrent use. Control methods (StartGeneration,
// TransitionToScene, the Adjust methods, auto-transition) never block on
// rendering; RenderFrame always sees one consistent state.
type Generator struct {
	device    gpucore.Device
	clock     clock.Clock
	pipelines *pipeline.Manager
	ctrl      *control.Controller
	renderer  *render.Renderer
	software  *render.SoftwareRenderer

	fixedRate bool
	unsub     func()

	rateMu    sync.Mutex
	rateScene scene.Scene

	closeOnce sync.Once
	closed    atomic.Bool
}

// New creates a Generator drawing on device. Every scene program is
// compiled up front; scenes whose program fails fall back to a plain
// gradient and are reported by CompileFailures.
//
// New returns an *InitializationError wrapping ErrNoDevice when device is
// nil, or wrapping the *pipeline.InitError when shared GPU resources cannot
// be created.
func New(device gpucore.Device, opts ...Option) (*Generator, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if device == nil {
		return nil, &InitializationError{Stage: "device", Err: ErrNoDevice}
	}

	format := o.format
	if sf, ok := device.(surfaceFormatter); ok && format == 0 {
		format = sf.SurfaceFormat()
	}

	pipes, err := pipeline.New(device, pipeline.Config{
		Format:       format,
		UniformSlots: o.uniformSlots,
		Compiler:     o.compiler,
	})
	if err != nil {
		return nil, &InitializationError{Stage: "pipelines", Err: err}
	}

	ctrl := control.New(control.WithClock(o.clock), control.WithBreed(o.breed))
	rate := o.frameRate
	if rate == 0 {
		rate = scene.Lookup(ctrl.Snapshot().Scene).FrameRate
	}

	g := &Generator{
		device:    device,
		clock:     o.clock,
		pipelines: pipes,
		ctrl:      ctrl,
		renderer: render.NewRenderer(device, pipes, ctrl, render.Config{
			FrameRate: rate,
			Clock:     o.clock,
		}),
		software:  render.NewSoftwareRenderer(),
		fixedRate: o.frameRate != 0,
	}
	if !g.fixedRate {
		g.rateScene = ctrl.Snapshot().Destination()
		g.unsub = ctrl.Subscribe(g.followFrameRate)
	}

	logging.Logger().Info("dogvision: generator ready",
		"format", pipes.Format().String(),
		"fallbacks", len(pipes.Failures()),
		"frameRate", g.renderer.FrameRate(),
	)
	return g, nil
}

// followFrameRate moves the frame-rate cap to the recommended rate of the
// destination scene. Notifications from concurrent writers can arrive out of
// order, so the latest snapshot is read instead of the notified state.
func (g *Generator) followFrameRate(control.State) {
	g.rateMu.Lock()
	defer g.rateMu.Unlock()
	if dst := g.ctrl.Snapshot().Destination(); dst != g.rateScene {
		g.rateScene = dst
		g.renderer.SetFrameRate(scene.Lookup(dst).FrameRate)
	}
}

// StartGeneration begins producing frames of s with canine-friendly default
// settings. Any transition in flight is cancelled.
func (g *Generator) StartGeneration(s scene.Scene, opts ...control.StartOption) {
	g.ctrl.Start(s, opts...)
}

// StopGeneration stops producing frames and cancels any transition and
// auto-transition. Stopping an idle generator is a no-op.
func (g *Generator) StopGeneration() {
	g.ctrl.Stop()
}

// TransitionToScene blends to s over d. A transition requested while
// another is in flight supersedes it. A non-positive d switches at once.
func (g *Generator) TransitionToScene(s scene.Scene, d time.Duration) {
	g.ctrl.TransitionTo(s, d)
}

// AdjustIntensity sets scene intensity, clamped to [0, 1].
func (g *Generator) AdjustIntensity(v float64) { g.ctrl.AdjustIntensity(v) }

// AdjustColorTemperature sets color temperature, clamped to [0, 1].
func (g *Generator) AdjustColorTemperature(v float64) { g.ctrl.AdjustColorTemperature(v) }

// AdjustMotionLevel sets motion level, clamped to [0, 1].
func (g *Generator) AdjustMotionLevel(v float64) { g.ctrl.AdjustMotionLevel(v) }

// SetBreed switches the breed calibration profile.
func (g *Generator) SetBreed(b dichroma.Breed) { g.ctrl.SetBreed(b) }

// StartAutoTransition cycles through the catalog, moving to the next scene
// every interval. Calling it again replaces the schedule.
func (g *Generator) StartAutoTransition(interval time.Duration) {
	g.ctrl.AutoRotate(interval)
}

// StopAutoTransition cancels auto-transition. It is idempotent.
func (g *Generator) StopAutoTransition() {
	g.ctrl.StopAutoRotate()
}

// RenderFrame draws one frame into target. It reports whether a frame was
// submitted; throttled calls, idle generators and dropped frames return
// false. Failures are logged and counted in Stats, never returned.
func (g *Generator) RenderFrame(target render.Target) bool {
	if g.closed.Load() {
		return false
	}
	return g.renderer.RenderFrame(target)
}

// RenderPreview draws the current state into a CPU target with the
// software renderer. It ignores frame pacing.
func (g *Generator) RenderPreview(target *render.PixmapTarget) error {
	if g.closed.Load() {
		return ErrClosed
	}
	return g.software.Render(target, render.PlanFrame(g.ctrl.Snapshot(), g.clock.Now()))
}

// Diagnostics is a read-only view of the generator state.
type Diagnostics struct {
	Scene            scene.Scene
	Description      string
	Intensity        float64
	ColorTemperature float64
	MotionLevel      float64
	FrameRateTarget  int
	Breed            dichroma.Breed
	Phase            control.Phase
	Session          uuid.UUID
}

// SceneMetadata returns a diagnostic snapshot of the current scene and
// settings.
func (g *Generator) SceneMetadata() Diagnostics {
	st := g.ctrl.Snapshot()
	return Diagnostics{
		Scene:            st.Scene,
		Description:      scene.Lookup(st.Scene).Description,
		Intensity:        st.Intensity,
		ColorTemperature: st.ColorTemperature,
		MotionLevel:      st.MotionLevel,
		FrameRateTarget:  g.renderer.FrameRate(),
		Breed:            st.Breed,
		Phase:            st.Phase,
		Session:          st.Session,
	}
}

// State returns the current control snapshot.
func (g *Generator) State() control.State { return g.ctrl.Snapshot() }

// Subscribe registers fn for every state change. fn runs outside internal
// locks and may call back into the Generator. The returned function
// unregisters it.
func (g *Generator) Subscribe(fn func(control.State)) (cancel func()) {
	return g.ctrl.Subscribe(fn)
}

// Stats returns frame counters.
func (g *Generator) Stats() render.Stats { return g.renderer.Stats() }

// CompileFailures lists scene programs that fell back to the baseline.
func (g *Generator) CompileFailures() []pipeline.CompileError {
	return g.pipelines.Failures()
}

// Format returns the color format targets must use.
func (g *Generator) Format() gpucore.TextureFormat { return g.pipelines.Format() }

// Close stops generation and releases GPU resources owned by the
// Generator. The device itself stays open. Close is idempotent.
func (g *Generator) Close() error {
	g.closeOnce.Do(func() {
		g.closed.Store(true)
		if g.unsub != nil {
			g.unsub()
		}
		g.ctrl.Stop()
		g.renderer.Close()
		g.pipelines.Destroy()
		logging.Logger().Info("dogvision: generator closed")
	})
	return nil
}
