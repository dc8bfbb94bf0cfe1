// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"math"
	"time"

	"github.com/gogpu/dogvision/control"
	"github.com/gogpu/dogvision/dichroma"
	"github.com/gogpu/dogvision/scene"
)

// fadeFloor is the brightness at the transition midpoint, where the drawn
// program switches from the source scene to the destination.
const fadeFloor = 0.35

// Frame is everything one draw needs, resolved from a single control
// snapshot. GPU and CPU renderers consume the same Frame.
type Frame struct {
	// Scene is the scene whose program is drawn.
	Scene scene.Scene

	Palette scene.Palette
	Clear   dichroma.RGBA
	Tuning  dichroma.Tuning

	// Fade multiplies the final color; 1 outside transitions.
	Fade float64

	// Progress of the in-flight transition, 1 when there is none.
	Progress float64

	Elapsed time.Duration
}

// PlanFrame resolves the frame for snapshot s at time now.
func PlanFrame(s control.State, now time.Time) Frame {
	f := Frame{
		Scene:    s.Scene,
		Tuning:   dichroma.Derive(s.Inputs(), dichroma.LookupProfile(s.Breed)),
		Fade:     1,
		Progress: 1,
		Elapsed:  s.Elapsed(now),
	}

	tr := s.Transition
	if tr == nil {
		m := scene.Lookup(s.Scene)
		f.Palette = m.Palette
		f.Clear = m.ClearColor
		return f
	}

	p := tr.Progress(now)
	from, to := scene.Lookup(tr.From), scene.Lookup(tr.To)
	for i := range f.Palette {
		f.Palette[i] = from.Palette[i].Lerp(to.Palette[i], p)
	}
	f.Clear = from.ClearColor.Lerp(to.ClearColor, p)
	f.Progress = p
	f.Fade = fadeFloor + (1-fadeFloor)*math.Abs(1-2*p)
	f.Scene = tr.Shown(now)
	return f
}

// ClearColor returns the clear color as a render pass expects it.
func (f Frame) ClearColor() [4]float64 {
	c := f.Clear.Clamp()
	return [4]float64{c.R, c.G, c.B, c.A}
}
