// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/dogvision/dichroma"
	"github.com/gogpu/dogvision/pipeline"
)

// Byte offsets of the fields in the WGSL Uniforms struct.
const (
	offProjection     = 0
	offView           = 64
	offModel          = 128
	offPalette        = 192
	offCamera         = 256
	offTime           = 268
	offMotion         = 272
	offContrast       = 276
	offBrightness     = 280
	offSaturation     = 284
	offAnimationSpeed = 288
	offComplexity     = 292
	offBlueWeight     = 296
	offYellowWeight   = 300
	offBlurReduction  = 304
	offFade           = 308
	offResolution     = 312
)

// Camera setup. The quad is scaled past the clip volume so the drifting
// camera never reveals its edges.
const (
	cameraDistance = 1.0
	cameraDrift    = 0.03
	quadScale      = 1.1
	nearPlane      = 0.1
	farPlane       = 10.0
)

// Uniforms is the per-frame parameter block read by every scene program.
type Uniforms struct {
	Projection mgl32.Mat4
	View       mgl32.Mat4
	Model      mgl32.Mat4

	// Palette holds base, secondary, highlight and accent colors.
	Palette [4][4]float32

	CameraPosition mgl32.Vec3

	// Time is seconds since generation started. Programs scale it by
	// AnimationSpeed themselves.
	Time float32

	MotionIntensity float32
	ContrastLevel   float32
	Brightness      float32
	Saturation      float32
	AnimationSpeed  float32
	Complexity      float32

	BlueWeight          float32
	YellowWeight        float32
	MotionBlurReduction float32

	// TransitionFade multiplies the final color. 1 outside transitions.
	TransitionFade float32

	Resolution mgl32.Vec2
}

// BuildUniforms fills the uniform block for frame f drawn at width x height.
func BuildUniforms(f Frame, width, height int) Uniforms {
	t := float32(f.Elapsed.Seconds())
	mi := float32(f.Tuning.MotionIntensity)

	drift := cameraDrift * mi
	eye := mgl32.Vec3{
		drift * float32(math.Sin(0.25*float64(t))),
		drift * float32(math.Cos(0.2*float64(t))),
		cameraDistance,
	}
	center := mgl32.Vec3{eye.X(), eye.Y(), 0}

	u := Uniforms{
		Projection:     mgl32.Ortho(-1, 1, -1, 1, nearPlane, farPlane),
		View:           mgl32.LookAtV(eye, center, mgl32.Vec3{0, 1, 0}),
		Model:          mgl32.Scale3D(quadScale, quadScale, 1),
		CameraPosition: eye,
		Time:           t,

		MotionIntensity: mi,
		ContrastLevel:   float32(f.Tuning.ContrastLevel),
		Brightness:      float32(f.Tuning.Brightness),
		Saturation:      float32(f.Tuning.Saturation),
		AnimationSpeed:  float32(f.Tuning.AnimationSpeed),
		Complexity:      float32(f.Tuning.Complexity),

		BlueWeight:          float32(f.Tuning.Transform.BlueWeight),
		YellowWeight:        float32(f.Tuning.Transform.YellowWeight),
		MotionBlurReduction: float32(f.Tuning.Transform.MotionBlurReduction),

		TransitionFade: float32(f.Fade),
		Resolution:     mgl32.Vec2{float32(width), float32(height)},
	}
	for i, c := range f.Palette {
		u.Palette[i] = c.Vec4()
	}
	return u
}

// Marshal encodes u into the little-endian layout of the WGSL struct.
func (u *Uniforms) Marshal() []byte {
	buf := make([]byte, pipeline.UniformSize)
	u.MarshalTo(buf)
	return buf
}

// MarshalTo encodes u into buf, which must hold at least
// pipeline.UniformSize bytes.
func (u *Uniforms) MarshalTo(buf []byte) {
	_ = buf[pipeline.UniformSize-1]

	putMat4(buf[offProjection:], u.Projection)
	putMat4(buf[offView:], u.View)
	putMat4(buf[offModel:], u.Model)
	for i, c := range u.Palette {
		for j, v := range c {
			putF32(buf[offPalette+16*i+4*j:], v)
		}
	}
	for i, v := range u.CameraPosition {
		putF32(buf[offCamera+4*i:], v)
	}
	putF32(buf[offTime:], u.Time)
	putF32(buf[offMotion:], u.MotionIntensity)
	putF32(buf[offContrast:], u.ContrastLevel)
	putF32(buf[offBrightness:], u.Brightness)
	putF32(buf[offSaturation:], u.Saturation)
	putF32(buf[offAnimationSpeed:], u.AnimationSpeed)
	putF32(buf[offComplexity:], u.Complexity)
	putF32(buf[offBlueWeight:], u.BlueWeight)
	putF32(buf[offYellowWeight:], u.YellowWeight)
	putF32(buf[offBlurReduction:], u.MotionBlurReduction)
	putF32(buf[offFade:], u.TransitionFade)
	putF32(buf[offResolution:], u.Resolution.X())
	putF32(buf[offResolution+4:], u.Resolution.Y())
}

// mgl32 matrices are column-major, as WGSL expects.
func putMat4(b []byte, m mgl32.Mat4) {
	for i, v := range m {
		putF32(b[4*i:], v)
	}
}

func putF32(b []byte, v float32) {
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
}

// PaletteColor decodes palette entry i from a marshalled uniform block.
func PaletteColor(block []byte, i int) dichroma.RGBA {
	off := offPalette + 16*i
	return dichroma.RGBA{
		R: float64(getF32(block[off:])),
		G: float64(getF32(block[off+4:])),
		B: float64(getF32(block[off+8:])),
		A: float64(getF32(block[off+12:])),
	}
}

// FadeOf decodes the transition fade from a marshalled uniform block.
func FadeOf(block []byte) float64 { return float64(getF32(block[offFade:])) }

func getF32(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}
