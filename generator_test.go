package dogvision

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/gogpu/dogvision/clock"
	"github.com/gogpu/dogvision/control"
	"github.com/gogpu/dogvision/dichroma"
	"github.com/gogpu/dogvision/gpucore"
	"github.com/gogpu/dogvision/internal/gputest"
	"github.com/gogpu/dogvision/pipeline"
	"github.com/gogpu/dogvision/render"
	"github.com/gogpu/dogvision/scene"
)

var epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

var stubCompiler = pipeline.CompilerFunc(func(src string) ([]uint32, error) {
	return []uint32{0x07230203, uint32(len(src))}, nil
})

type harness struct {
	*Generator
	rec    *gputest.Recorder
	clk    *clock.Fake
	target *render.TextureTarget
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	rec := gputest.New()
	clk := clock.NewFake(epoch)
	opts = append([]Option{WithClock(clk), WithCompiler(stubCompiler)}, opts...)
	g, err := New(rec, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = g.Close() })

	target, err := render.NewTextureTarget(rec, 32, 24, g.Format())
	if err != nil {
		t.Fatalf("NewTextureTarget: %v", err)
	}
	t.Cleanup(target.Destroy)
	return &harness{Generator: g, rec: rec, clk: clk, target: target}
}

func newTestGenerator(t *testing.T) *Generator {
	t.Helper()
	return newHarness(t).Generator
}

// surfaceDevice reports a presentation format like gpu.Device does.
type surfaceDevice struct {
	*gputest.Recorder
	format gpucore.TextureFormat
}

func (d surfaceDevice) SurfaceFormat() gpucore.TextureFormat { return d.format }

func TestNewNilDevice(t *testing.T) {
	g, err := New(nil)
	if g != nil {
		t.Error("New(nil) returned a generator")
	}
	if !errors.Is(err, ErrNoDevice) {
		t.Fatalf("err = %v, want ErrNoDevice", err)
	}
	var ie *InitializationError
	if !errors.As(err, &ie) || ie.Stage != "device" {
		t.Errorf("err = %#v, want *InitializationError at device", err)
	}
}

func TestNewPipelineFailure(t *testing.T) {
	rec := gputest.New()
	rec.Fail("CreateBuffer", nil)

	_, err := New(rec, WithCompiler(stubCompiler))
	var ie *InitializationError
	if !errors.As(err, &ie) || ie.Stage != "pipelines" {
		t.Fatalf("err = %v, want *InitializationError at pipelines", err)
	}
	var pe *pipeline.InitError
	if !errors.As(err, &pe) {
		t.Errorf("err = %v, want wrapped *pipeline.InitError", err)
	}
	if !errors.Is(err, gputest.ErrInjected) {
		t.Errorf("err = %v, want wrapped ErrInjected", err)
	}
	if rec.Live() != 0 {
		t.Errorf("Live = %d after failed New, want 0", rec.Live())
	}
}

func TestTargetFormat(t *testing.T) {
	tests := []struct {
		name   string
		device gpucore.Device
		opts   []Option
		want   gpucore.TextureFormat
	}{
		{"default", gputest.New(), nil, gpucore.TextureFormatBGRA8Unorm},
		{"option", gputest.New(), []Option{WithTargetFormat(gpucore.TextureFormatRGBA8Unorm)}, gpucore.TextureFormatRGBA8Unorm},
		{"surface", surfaceDevice{gputest.New(), gpucore.TextureFormatRGBA8Unorm}, nil, gpucore.TextureFormatRGBA8Unorm},
		{
			"option wins over surface",
			surfaceDevice{gputest.New(), gpucore.TextureFormatRGBA8Unorm},
			[]Option{WithTargetFormat(gpucore.TextureFormatBGRA8Unorm)},
			gpucore.TextureFormatBGRA8Unorm,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := New(tt.device, append(tt.opts, WithCompiler(stubCompiler))...)
			if err != nil {
				t.Fatal(err)
			}
			defer g.Close()
			if g.Format() != tt.want {
				t.Errorf("Format = %s, want %s", g.Format(), tt.want)
			}
		})
	}
}

func TestOceanWavesFirstFrame(t *testing.T) {
	h := newHarness(t)
	h.StartGeneration(scene.OceanWaves)

	if !h.RenderFrame(h.target) {
		t.Fatalf("RenderFrame = false: %v", h.Stats().LastError)
	}

	pass, ok := h.rec.LastPass()
	if !ok || len(pass.Draws) != 1 {
		t.Fatalf("pass = %+v, want one draw", pass)
	}
	cc := pass.Desc.ClearColor
	if cc != [4]float64{scene.OceanClear.R, scene.OceanClear.G, scene.OceanClear.B, 1} {
		t.Errorf("clear = %v, want ocean clear color", cc)
	}
	got := render.PaletteColor(pass.Draws[0].Uniforms, 0)
	want := scene.OceanBlue
	if math.Abs(got.R-want.R) > 1e-6 || math.Abs(got.G-want.G) > 1e-6 || math.Abs(got.B-want.B) > 1e-6 {
		t.Errorf("palette[0] = %+v, want ocean blue %+v", got, want)
	}
}

func TestAdjustClamps(t *testing.T) {
	h := newHarness(t)
	h.StartGeneration(scene.ZenGarden)

	tests := []struct {
		in, want float64
	}{
		{-5, 0},
		{5, 1},
		{0.5, 0.5},
		{0, 0},
		{1, 1},
	}
	for _, tt := range tests {
		h.AdjustIntensity(tt.in)
		h.AdjustColorTemperature(tt.in)
		h.AdjustMotionLevel(tt.in)
		d := h.SceneMetadata()
		if d.Intensity != tt.want || d.ColorTemperature != tt.want || d.MotionLevel != tt.want {
			t.Errorf("adjust(%v) = %v/%v/%v, want %v", tt.in, d.Intensity, d.ColorTemperature, d.MotionLevel, tt.want)
		}
	}
}

func TestSceneMetadata(t *testing.T) {
	h := newHarness(t, WithBreed(dichroma.Brachycephalic))

	d := h.SceneMetadata()
	if d.Phase != control.Idle || d.Session != uuid.Nil {
		t.Errorf("idle diagnostics = %+v", d)
	}

	h.StartGeneration(scene.Fireflies)
	d = h.SceneMetadata()
	if d.Scene != scene.Fireflies || d.Description != scene.Lookup(scene.Fireflies).Description {
		t.Errorf("scene = %s %q", d.Scene, d.Description)
	}
	if d.Intensity != control.DefaultIntensity || d.ColorTemperature != control.DefaultColorTemperature ||
		d.MotionLevel != control.DefaultMotionLevel {
		t.Errorf("settings = %v/%v/%v, want canine defaults", d.Intensity, d.ColorTemperature, d.MotionLevel)
	}
	if d.Breed != dichroma.Brachycephalic {
		t.Errorf("Breed = %s", d.Breed)
	}
	if d.Phase != control.Generating || d.Session == uuid.Nil {
		t.Errorf("phase/session = %s/%s", d.Phase, d.Session)
	}

	h.SetBreed(dichroma.Senior)
	if got := h.SceneMetadata().Breed; got != dichroma.Senior {
		t.Errorf("Breed after SetBreed = %s", got)
	}
}

func TestFrameRateFollowsScene(t *testing.T) {
	h := newHarness(t)
	if got := h.SceneMetadata().FrameRateTarget; got != 24 {
		t.Errorf("initial FrameRateTarget = %d, want 24", got)
	}

	h.StartGeneration(scene.OceanWaves)
	h.TransitionToScene(scene.ZenGarden, 0)
	if got := h.SceneMetadata().FrameRateTarget; got != 20 {
		t.Errorf("zen FrameRateTarget = %d, want 20", got)
	}

	h.TransitionToScene(scene.SquirrelChase, time.Second)
	if got := h.SceneMetadata().FrameRateTarget; got != 30 {
		t.Errorf("squirrel FrameRateTarget = %d, want 30", got)
	}
}

func TestFrameRateIgnoresStaleNotification(t *testing.T) {
	h := newHarness(t)
	h.StartGeneration(scene.ZenGarden)
	if got := h.SceneMetadata().FrameRateTarget; got != 20 {
		t.Fatalf("zen FrameRateTarget = %d, want 20", got)
	}

	// A late notification carrying an older destination.
	h.followFrameRate(control.State{Scene: scene.SquirrelChase, Phase: control.Generating})
	if got := h.SceneMetadata().FrameRateTarget; got != 20 {
		t.Errorf("FrameRateTarget after stale state = %d, want 20", got)
	}
}

func TestFixedFrameRate(t *testing.T) {
	h := newHarness(t, WithFrameRate(100))
	if got := h.SceneMetadata().FrameRateTarget; got != render.MaxFrameRate {
		t.Errorf("FrameRateTarget = %d, want %d", got, render.MaxFrameRate)
	}
	h.StartGeneration(scene.ZenGarden)
	if got := h.SceneMetadata().FrameRateTarget; got != render.MaxFrameRate {
		t.Errorf("FrameRateTarget after scene change = %d, want fixed %d", got, render.MaxFrameRate)
	}
}

func TestAutoTransition(t *testing.T) {
	h := newHarness(t)
	h.StartGeneration(scene.OceanWaves)
	h.StartAutoTransition(10 * time.Second)

	h.clk.Advance(13 * time.Second)
	if got := h.State().Scene; got != scene.ForestCanopy {
		t.Fatalf("scene after one rotation = %s, want Forest Canopy", got)
	}

	h.StopAutoTransition()
	h.StopAutoTransition()
	h.clk.Advance(time.Minute)
	if got := h.State().Scene; got != scene.ForestCanopy {
		t.Errorf("scene after StopAutoTransition = %s, want Forest Canopy", got)
	}
}

func TestStopGenerationTwice(t *testing.T) {
	h := newHarness(t)
	h.StartGeneration(scene.GentleRain)
	h.StopGeneration()
	h.StopGeneration()

	if h.State().Generating() {
		t.Error("still generating after StopGeneration")
	}
	if h.RenderFrame(h.target) {
		t.Error("RenderFrame after StopGeneration = true")
	}
}

func TestCompileFailureFallsBack(t *testing.T) {
	failing := pipeline.CompilerFunc(func(src string) ([]uint32, error) {
		if strings.Contains(src, "fn firefly(") {
			return nil, errors.New("unsupported builtin")
		}
		return stubCompiler(src)
	})
	h := newHarness(t, WithCompiler(failing))

	fails := h.CompileFailures()
	if len(fails) != 1 || fails[0].Scene != scene.Fireflies {
		t.Fatalf("CompileFailures = %+v, want only Fireflies", fails)
	}

	h.StartGeneration(scene.Fireflies)
	if !h.RenderFrame(h.target) {
		t.Fatalf("RenderFrame = false: %v", h.Stats().LastError)
	}
	pass, _ := h.rec.LastPass()
	if pass.Draws[0].Pipeline != h.pipelines.Baseline() {
		t.Error("failed scene did not draw with the baseline pipeline")
	}
}

func TestRenderPreview(t *testing.T) {
	h := newHarness(t)
	h.StartGeneration(scene.SquirrelChase)
	h.clk.Advance(2 * time.Second)

	target := render.NewPixmapTarget(24, 16)
	if err := h.RenderPreview(target); err != nil {
		t.Fatalf("RenderPreview: %v", err)
	}
	if a := target.Image().RGBAAt(12, 8).A; a != 255 {
		t.Errorf("alpha = %d, want 255", a)
	}
}

func TestSubscribe(t *testing.T) {
	h := newHarness(t)

	var scenes []scene.Scene
	cancel := h.Subscribe(func(st control.State) { scenes = append(scenes, st.Scene) })
	h.StartGeneration(scene.ZenGarden)
	cancel()
	h.StartGeneration(scene.OceanWaves)

	if len(scenes) != 1 || scenes[0] != scene.ZenGarden {
		t.Errorf("notified scenes = %v, want [Zen Garden]", scenes)
	}
}

func TestStats(t *testing.T) {
	h := newHarness(t)
	h.StartGeneration(scene.OceanWaves)
	for i := 0; i < 3; i++ {
		h.RenderFrame(h.target)
		h.clk.Advance(time.Second / 24)
	}
	h.RenderFrame(render.NewPixmapTarget(4, 4))

	st := h.Stats()
	if st.Frames != 3 || st.Dropped != 1 {
		t.Errorf("Stats = %+v, want 3 frames and 1 drop", st)
	}
}

func TestClose(t *testing.T) {
	h := newHarness(t)
	h.StartGeneration(scene.OceanWaves)

	if err := h.Close(); err != nil {
		t.Fatal(err)
	}
	if err := h.Close(); err != nil {
		t.Fatal(err)
	}
	if h.State().Generating() {
		t.Error("still generating after Close")
	}
	if !h.renderer.Closed() {
		t.Error("renderer still open after Close")
	}
	h.clk.Advance(time.Second)
	if h.RenderFrame(h.target) {
		t.Error("RenderFrame after Close = true")
	}
	if err := h.RenderPreview(render.NewPixmapTarget(4, 4)); !errors.Is(err, ErrClosed) {
		t.Errorf("RenderPreview after Close = %v, want ErrClosed", err)
	}
	if n := h.rec.LiveKind("render-pipeline"); n != 0 {
		t.Errorf("live pipelines after Close = %d, want 0", n)
	}
}
