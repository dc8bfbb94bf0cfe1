// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"time"
)

// Frame rate bounds. Dog vision resolves flicker well above human rates, so
// output stays steady inside this band rather than chasing display refresh.
const (
	MinFrameRate     = 20
	MaxFrameRate     = 30
	DefaultFrameRate = 24
)

// Pacer caps the frame rate. It is not safe for concurrent use.
type Pacer struct {
	fps      int
	interval time.Duration
	slack    time.Duration
	last     time.Time
}

// NewPacer returns a pacer for fps frames per second, clamped to
// [MinFrameRate, MaxFrameRate]. Zero or negative selects DefaultFrameRate.
func NewPacer(fps int) *Pacer {
	fps = ClampFrameRate(fps)
	interval := time.Second / time.Duration(fps)
	return &Pacer{
		fps:      fps,
		interval: interval,
		slack:    interval / 10,
	}
}

// ClampFrameRate maps fps into the supported band.
func ClampFrameRate(fps int) int {
	if fps <= 0 {
		return DefaultFrameRate
	}
	return min(max(fps, MinFrameRate), MaxFrameRate)
}

// FrameRate returns the effective frame rate.
func (p *Pacer) FrameRate() int { return p.fps }

// Interval returns the target time between frames.
func (p *Pacer) Interval() time.Duration { return p.interval }

// SetFrameRate changes the cap to fps, clamped like NewPacer. The time of
// the latest frame is kept.
func (p *Pacer) SetFrameRate(fps int) {
	last := p.last
	*p = *NewPacer(fps)
	p.last = last
}

// Ready reports whether a frame may be produced at now and, if so, records
// now as the latest frame time. Ticks arriving up to a tenth of the interval
// early still count.
func (p *Pacer) Ready(now time.Time) bool {
	if !p.last.IsZero() && now.Sub(p.last) < p.interval-p.slack {
		return false
	}
	p.last = now
	return true
}

// Reset forgets the latest frame time so the next call to Ready succeeds.
func (p *Pacer) Reset() { p.last = time.Time{} }
