// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"encoding/binary"
	"math"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/dogvision/clock"
	"github.com/gogpu/dogvision/control"
	"github.com/gogpu/dogvision/dichroma"
	"github.com/gogpu/dogvision/pipeline"
	"github.com/gogpu/dogvision/scene"
)

func f32At(b []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b[off:]))
}

func TestUniformsMarshalLayout(t *testing.T) {
	u := Uniforms{
		Projection:          mgl32.Ident4(),
		View:                mgl32.Translate3D(1, 2, 3),
		Model:               mgl32.Scale3D(4, 5, 6),
		CameraPosition:      mgl32.Vec3{7, 8, 9},
		Time:                10,
		MotionIntensity:     11,
		ContrastLevel:       12,
		Brightness:          13,
		Saturation:          14,
		AnimationSpeed:      15,
		Complexity:          16,
		BlueWeight:          17,
		YellowWeight:        18,
		MotionBlurReduction: 19,
		TransitionFade:      20,
		Resolution:          mgl32.Vec2{21, 22},
	}
	u.Palette[2] = [4]float32{0.1, 0.2, 0.3, 0.4}

	b := u.Marshal()
	if len(b) != pipeline.UniformSize {
		t.Fatalf("len = %d, want %d", len(b), pipeline.UniformSize)
	}

	tests := []struct {
		name string
		off  int
		want float32
	}{
		{"projection[0]", 0, 1},
		{"projection[15]", 60, 1},
		{"view translation x", 64 + 48, 1},
		{"view translation z", 64 + 56, 3},
		{"model scale y", 128 + 20, 5},
		{"palette[2].g", 192 + 32 + 4, 0.2},
		{"palette[2].a", 192 + 32 + 12, 0.4},
		{"camera.z", 264, 9},
		{"time", 268, 10},
		{"motion_intensity", 272, 11},
		{"contrast_level", 276, 12},
		{"brightness", 280, 13},
		{"saturation", 284, 14},
		{"animation_speed", 288, 15},
		{"complexity", 292, 16},
		{"blue_weight", 296, 17},
		{"yellow_weight", 300, 18},
		{"motion_blur_reduction", 304, 19},
		{"transition_fade", 308, 20},
		{"resolution.x", 312, 21},
		{"resolution.y", 316, 22},
	}
	for _, tt := range tests {
		if got := f32At(b, tt.off); got != tt.want {
			t.Errorf("%s @%d = %v, want %v", tt.name, tt.off, got, tt.want)
		}
	}

	if got := PaletteColor(b, 2); math.Abs(got.B-0.3) > 1e-6 {
		t.Errorf("PaletteColor(2) = %+v", got)
	}
	if FadeOf(b) != 20 {
		t.Errorf("FadeOf = %v", FadeOf(b))
	}
}

func TestBuildUniformsCoversClipSpace(t *testing.T) {
	for _, motion := range []float64{0, 1} {
		st := generatingState(scene.OceanWaves)
		st.Intensity, st.MotionLevel = 1, motion
		f := PlanFrame(st, epoch.Add(7*time.Second))
		u := BuildUniforms(f, 800, 600)

		mvp := u.Projection.Mul4(u.View).Mul4(u.Model)
		for _, corner := range []mgl32.Vec4{{-1, -1, 0, 1}, {1, 1, 0, 1}, {-1, 1, 0, 1}, {1, -1, 0, 1}} {
			clip := mvp.Mul4x1(corner)
			if math.Abs(float64(clip.X())) < 1 || math.Abs(float64(clip.Y())) < 1 {
				t.Errorf("motion %v: corner %v maps inside clip space: %v", motion, corner, clip)
			}
			if z := clip.Z(); z < -1 || z > 1 {
				t.Errorf("motion %v: corner depth %v clipped", motion, z)
			}
		}
		if u.Resolution != (mgl32.Vec2{800, 600}) {
			t.Errorf("Resolution = %v", u.Resolution)
		}
	}
}

func TestBuildUniformsStillCamera(t *testing.T) {
	st := generatingState(scene.ZenGarden)
	st.MotionLevel = 0
	u := BuildUniforms(PlanFrame(st, epoch.Add(time.Minute)), 1, 1)
	if u.CameraPosition != (mgl32.Vec3{0, 0, cameraDistance}) {
		t.Errorf("camera = %v, want still camera", u.CameraPosition)
	}
	if u.Time != 60 {
		t.Errorf("Time = %v, want 60", u.Time)
	}
}

func TestPlanFrame(t *testing.T) {
	st := generatingState(scene.GentleRain)
	f := PlanFrame(st, epoch.Add(2*time.Second))

	m := scene.Lookup(scene.GentleRain)
	if f.Scene != scene.GentleRain || f.Palette != m.Palette || f.Clear != m.ClearColor {
		t.Errorf("frame = %+v", f)
	}
	if f.Fade != 1 || f.Progress != 1 {
		t.Errorf("fade/progress = %v/%v, want 1/1", f.Fade, f.Progress)
	}
	if f.Elapsed != 2*time.Second {
		t.Errorf("Elapsed = %v", f.Elapsed)
	}
	want := dichroma.Derive(st.Inputs(), dichroma.LookupProfile(dichroma.Standard))
	if f.Tuning != want {
		t.Errorf("Tuning = %+v, want %+v", f.Tuning, want)
	}
}

func TestPlanFrameBreed(t *testing.T) {
	st := generatingState(scene.OceanWaves)
	st.Breed = dichroma.LowLight
	f := PlanFrame(st, epoch)
	if f.Tuning.Transform.BlueWeight <= 1 {
		t.Errorf("low-light BlueWeight = %v, want > 1", f.Tuning.Transform.BlueWeight)
	}
}

func TestPlanFrameTransition(t *testing.T) {
	st := generatingState(scene.OceanWaves)
	st.Phase = control.Transitioning
	st.Transition = &control.Transition{
		From:     scene.OceanWaves,
		To:       scene.SquirrelChase,
		Start:    epoch,
		Duration: 4 * time.Second,
	}

	tests := []struct {
		at    time.Duration
		drawn scene.Scene
		fade  float64
	}{
		{0, scene.OceanWaves, 1},
		{time.Second, scene.OceanWaves, 0.675},
		{2 * time.Second, scene.SquirrelChase, 0.35},
		{3 * time.Second, scene.SquirrelChase, 0.675},
		{5 * time.Second, scene.SquirrelChase, 1},
	}
	for _, tt := range tests {
		f := PlanFrame(st, epoch.Add(tt.at))
		if f.Scene != tt.drawn {
			t.Errorf("at %v: drawn %s, want %s", tt.at, f.Scene, tt.drawn)
		}
		if math.Abs(f.Fade-tt.fade) > 1e-9 {
			t.Errorf("at %v: fade %v, want %v", tt.at, f.Fade, tt.fade)
		}
		if f.Fade < fadeFloor || f.Fade > 1 {
			t.Errorf("at %v: fade %v out of range", tt.at, f.Fade)
		}
	}

	mid := PlanFrame(st, epoch.Add(2*time.Second))
	want := scene.OceanClear.Lerp(scene.SquirrelClear, 0.5)
	if mid.Clear != want {
		t.Errorf("midpoint clear = %+v, want %+v", mid.Clear, want)
	}
}

func TestPlanFrameSupersedeKeepsShownScene(t *testing.T) {
	clk := clock.NewFake(epoch)
	ctrl := control.New(control.WithClock(clk))
	ctrl.Start(scene.OceanWaves)
	ctrl.TransitionTo(scene.Fireflies, 2*time.Second)
	clk.Advance(1800 * time.Millisecond)

	before := PlanFrame(ctrl.Snapshot(), clk.Now())
	if before.Scene != scene.Fireflies {
		t.Fatalf("before supersede: drawn %s, want %s", before.Scene, scene.Fireflies)
	}

	ctrl.TransitionTo(scene.GentleRain, 2*time.Second)
	after := PlanFrame(ctrl.Snapshot(), clk.Now())
	if after.Scene != scene.Fireflies {
		t.Errorf("after supersede: drawn %s, want %s", after.Scene, scene.Fireflies)
	}
	want := scene.Lookup(scene.Fireflies).Palette[0]
	if after.Palette[0] != want {
		t.Errorf("after supersede: palette[0] = %+v, want %+v", after.Palette[0], want)
	}
}
