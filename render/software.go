// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"image/color"
	"math"

	"github.com/gogpu/dogvision/dichroma"
	"github.com/gogpu/dogvision/internal/parallel"
	"github.com/gogpu/dogvision/scene"
)

// bandRows is the height of the horizontal bands shaded in parallel.
const bandRows = 16

// SoftwareRenderer is the CPU reference for the scene programs.
//
// It evaluates the same procedural scene functions, grade and dichromatic
// transform as the GPU path, pixel by pixel, from the same Uniforms. Output
// matches the GPU within float32 rounding. It is used for previews, headless
// exports and tests that need real pixels.
//
// Example:
//
//	renderer := render.NewSoftwareRenderer()
//	target := render.NewPixmapTarget(320, 240)
//	frame := render.PlanFrame(controller.Snapshot(), time.Now())
//	if err := renderer.Render(target, frame); err != nil {
//	    log.Printf("render failed: %v", err)
//	}
//	png.Encode(w, target.Image())
type SoftwareRenderer struct {
	pool *parallel.WorkerPool
}

// NewSoftwareRenderer creates a CPU renderer on the shared worker pool.
func NewSoftwareRenderer() *SoftwareRenderer {
	return &SoftwareRenderer{pool: parallel.Shared()}
}

// NewSoftwareRendererWithPool creates a CPU renderer on pool.
func NewSoftwareRendererWithPool(pool *parallel.WorkerPool) *SoftwareRenderer {
	return &SoftwareRenderer{pool: pool}
}

// Render shades frame f into target.
func (r *SoftwareRenderer) Render(target *PixmapTarget, f Frame) error {
	if target == nil {
		return errors.New("render: nil target")
	}
	w, h := target.Width(), target.Height()
	if w <= 0 || h <= 0 {
		return errors.New("render: empty target")
	}
	shade, ok := programs[f.Scene]
	if !ok {
		return &FrameError{Stage: StagePipeline, Scene: f.Scene, Err: errors.New("no program")}
	}

	u := BuildUniforms(f, w, h)
	in := newShaderInput(&u)
	params := f.Tuning.Transform
	params.ContrastMultiplier = float64(u.ContrastLevel)

	img := target.Image()
	r.pool.ForEachBand(h, bandRows, func(y0, y1 int) {
		for py := y0; py < y1; py++ {
			row := img.Pix[py*img.Stride:]
			for px := 0; px < w; px++ {
				uv := in.uvAt(px, py, w, h)
				c := shade(in, uv)
				graded := dichroma.Grade(c.rgba(), float64(u.Brightness), float64(u.Saturation))
				out := dichroma.Transform(graded, params)
				out.R *= f.Fade
				out.G *= f.Fade
				out.B *= f.Fade
				out.A = 1
				p := premultiply(out)
				o := px * 4
				row[o+0] = p.R
				row[o+1] = p.G
				row[o+2] = p.B
				row[o+3] = p.A
			}
		}
	})
	return nil
}

func premultiply(c dichroma.RGBA) color.RGBA {
	return color.RGBAModel.Convert(c.NRGBA()).(color.RGBA)
}

// vec3 and vec2 are the float64 counterparts of the WGSL vector types.
type (
	vec3 [3]float64
	vec2 [2]float64
)

func (v vec3) rgba() dichroma.RGBA { return dichroma.RGBA{R: v[0], G: v[1], B: v[2], A: 1} }

func (v vec3) scale(s float64) vec3 { return vec3{v[0] * s, v[1] * s, v[2] * s} }

func (v vec3) add(o vec3) vec3 { return vec3{v[0] + o[0], v[1] + o[1], v[2] + o[2]} }

func mix3(a, b vec3, t float64) vec3 {
	return vec3{a[0] + (b[0]-a[0])*t, a[1] + (b[1]-a[1])*t, a[2] + (b[2]-a[2])*t}
}

func clamp3(v vec3) vec3 {
	return vec3{clampf(v[0], 0, 1), clampf(v[1], 0, 1), clampf(v[2], 0, 1)}
}

func mix(a, b, t float64) float64 { return a + (b-a)*t }

func clampf(x, lo, hi float64) float64 { return math.Max(lo, math.Min(hi, x)) }

func smoothstep(e0, e1, x float64) float64 {
	t := clampf((x-e0)/(e1-e0), 0, 1)
	return t * t * (3 - 2*t)
}

func step(edge, x float64) float64 {
	if x < edge {
		return 0
	}
	return 1
}

func fract(x float64) float64 { return x - math.Floor(x) }

func distance(a, b vec2) float64 { return math.Hypot(a[0]-b[0], a[1]-b[1]) }

// shaderInput is the float64 view of Uniforms used by the scene programs.
type shaderInput struct {
	t          float64
	motion     float64
	complexity float64
	palette    [4]vec3

	eyeX, eyeY float64
}

func newShaderInput(u *Uniforms) *shaderInput {
	in := &shaderInput{
		t:          float64(u.Time) * float64(u.AnimationSpeed),
		motion:     float64(u.MotionIntensity),
		complexity: float64(u.Complexity),
		eyeX:       float64(u.CameraPosition.X()),
		eyeY:       float64(u.CameraPosition.Y()),
	}
	for i, c := range u.Palette {
		in.palette[i] = vec3{float64(c[0]), float64(c[1]), float64(c[2])}
	}
	return in
}

// uvAt inverts the quad transform for the center of pixel (px, py): clip
// space is the scaled quad shifted by the camera, with uv (0,0) at the
// bottom-left.
func (in *shaderInput) uvAt(px, py, w, h int) vec2 {
	nx := (float64(px)+0.5)/float64(w)*2 - 1
	ny := 1 - (float64(py)+0.5)/float64(h)*2
	x := (nx + in.eyeX) / quadScale
	y := (ny + in.eyeY) / quadScale
	return vec2{x*0.5 + 0.5, y*0.5 + 0.5}
}

type program func(in *shaderInput, uv vec2) vec3

var programs = map[scene.Scene]program{
	scene.OceanWaves:    oceanColor,
	scene.ForestCanopy:  forestColor,
	scene.Fireflies:     firefliesColor,
	scene.GentleRain:    rainColor,
	scene.ZenGarden:     zenColor,
	scene.SquirrelChase: squirrelColor,
}

func oceanColor(in *shaderInput, uv vec2) vec3 {
	t := in.t
	amp := 0.04 + 0.08*in.motion
	w1 := math.Sin(uv[0]*6+t*1.2) * amp
	w2 := math.Sin(uv[0]*13-t*0.8+1.7) * amp * 0.5 * (0.5 + in.complexity)
	depth := clampf(uv[1]+w1+w2, 0, 1)

	col := mix3(in.palette[0], in.palette[1], smoothstep(0, 0.6, depth))
	col = mix3(col, in.palette[2], smoothstep(0.55, 0.95, depth))

	crest := math.Sin((uv[0]+w1)*40+t*2)*0.5 + 0.5
	foam := smoothstep(0.92, 1, crest) * smoothstep(0.7, 0.9, depth)
	return mix3(col, in.palette[3], foam*0.6)
}

func forestColor(in *shaderInput, uv vec2) vec3 {
	t := in.t
	sway := math.Sin(t*0.7+uv[1]*3) * 0.03 * (0.5 + in.motion)
	x := uv[0] + sway
	leaves := math.Sin(x*18)*math.Sin(uv[1]*14+t*0.3)*0.5 + 0.5

	col := mix3(in.palette[0], in.palette[1], leaves)
	col = mix3(col, in.palette[2], leaves*leaves*in.complexity)

	gap := smoothstep(0.6, 0.9, leaves) * smoothstep(0.5, 1, uv[1])
	return mix3(col, in.palette[3], gap*0.5)
}

func firefly(uv vec2, seed, t float64) float64 {
	p := vec2{
		0.5 + 0.4*math.Sin(t*(0.3+seed*0.1)+seed*2.3),
		0.5 + 0.35*math.Cos(t*(0.25+seed*0.07)+seed*1.7),
	}
	d := distance(uv, p)
	pulse := 0.6 + 0.4*math.Sin(t*2+seed*4)
	return pulse * 0.0008 / (d*d + 0.0008)
}

func firefliesColor(in *shaderInput, uv vec2) vec3 {
	t := in.t
	bg := mix3(in.palette[0], in.palette[1], uv[1])

	near := firefly(uv, 1, t) + firefly(uv, 2, t) + firefly(uv, 3, t)
	far := firefly(uv, 4, t) + firefly(uv, 5, t)
	glow := clampf(near+far*in.complexity, 0, 1.5)

	light := mix3(in.palette[3], in.palette[2], clampf(glow, 0, 1))
	return clamp3(bg.add(light.scale(glow)))
}

func rainColor(in *shaderInput, uv vec2) vec3 {
	t := in.t
	bg := mix3(in.palette[0], in.palette[1], uv[1])

	laneID := math.Floor(uv[0] * 40)
	speed := 0.6 + fract(math.Sin(laneID*12.9898)*43758.5453)*0.8
	y := fract(uv[1] + t*speed*(0.5+in.motion))
	drop := smoothstep(0, 0.08, y) * (1 - smoothstep(0.08, 0.12, y))
	lane := 1 - smoothstep(0, 0.15, math.Abs(fract(uv[0]*40)-0.5))
	streak := drop * lane * (0.3 + 0.7*in.complexity)

	wave := math.Sin(distance(uv, vec2{0.5, 0})*60-t*4)*0.5 + 0.5
	ripple := wave * (1 - smoothstep(0, 0.2, uv[1]))

	col := mix3(bg, in.palette[2], streak)
	return mix3(col, in.palette[3], ripple*0.25)
}

func zenColor(in *shaderInput, uv vec2) vec3 {
	t := in.t
	d := distance(uv, vec2{0.5, 0.45})

	rings := math.Sin(d*50-t*0.5)*0.5 + 0.5
	raked := math.Sin(uv[1]*80+math.Sin(uv[0]*3+t*0.2)*2)*0.5 + 0.5
	pattern := mix(raked, rings, 1-smoothstep(0.12, 0.35, d))
	stone := 1 - smoothstep(0.08, 0.1, d)

	col := mix3(in.palette[0], in.palette[1], pattern*(0.4+0.6*in.complexity))
	col = mix3(col, in.palette[3], stone)
	return mix3(col, in.palette[2], (1-smoothstep(0, 0.3, uv[1]))*0.2)
}

func squirrelColor(in *shaderInput, uv vec2) vec3 {
	t := in.t
	sky := mix3(in.palette[0], in.palette[0].scale(1.2), uv[1])

	groundH := 0.25 + math.Sin(uv[0]*5)*0.03
	ground := 1 - smoothstep(groundH-0.005, groundH+0.005, uv[1])

	run := fract(t * (0.15 + 0.25*in.motion))
	hop := math.Abs(math.Sin(t*6)) * 0.06
	body := vec2{run*1.2 - 0.1, groundH + 0.04 + hop}
	bodyMask := 1 - smoothstep(0.03, 0.04, distance(uv, body))
	tail := 1 - smoothstep(0.025, 0.035, distance(uv, vec2{body[0] - 0.045, body[1] + 0.035}))
	trunk := (1 - smoothstep(0.03, 0.04, math.Abs(uv[0]-0.8))) * step(groundH, uv[1])

	col := mix3(sky, in.palette[3], ground)
	col = mix3(col, in.palette[3].scale(0.7), trunk*(0.4+0.6*in.complexity))
	col = mix3(col, in.palette[1], math.Max(bodyMask, tail*0.9))
	return mix3(col, in.palette[2], tail*0.5)
}
