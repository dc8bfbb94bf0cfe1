// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/dogvision/clock"
	"github.com/gogpu/dogvision/control"
	"github.com/gogpu/dogvision/gpucore"
	"github.com/gogpu/dogvision/internal/logging"
	"github.com/gogpu/dogvision/pipeline"
	"github.com/gogpu/dogvision/scene"
)

// Frame failure stages.
const (
	StagePipeline = "pipeline"
	StageUniforms = "uniforms"
	StageTarget   = "target"
	StageEncode   = "encode"
	StageSubmit   = "submit"
)

var (
	// ErrNoTarget is reported when a frame has no usable color attachment.
	ErrNoTarget = errors.New("render: target has no texture view")

	// ErrClosed is returned by Run once the renderer is closed.
	ErrClosed = errors.New("render: renderer closed")
)

// FrameError describes a dropped frame.
type FrameError struct {
	Stage string
	Scene scene.Scene
	Err   error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("render: frame dropped at %s (%s): %v", e.Stage, e.Scene, e.Err)
}

func (e *FrameError) Unwrap() error { return e.Err }

// Stats counts frame outcomes since the renderer was created.
type Stats struct {
	// Frames is the number of submitted frames.
	Frames uint64

	// Dropped counts frames abandoned on a device error.
	Dropped uint64

	// Throttled counts calls rejected by the frame-rate cap.
	Throttled uint64

	// Idle counts calls made while generation was stopped.
	Idle uint64

	// LastScene is the scene drawn by the latest submitted frame.
	LastScene scene.Scene

	// LastError is the latest dropped-frame error, if any.
	LastError error
}

// StateSource supplies control snapshots.
type StateSource interface {
	Snapshot() control.State
}

// Config configures a Renderer.
type Config struct {
	// FrameRate caps output, clamped to [MinFrameRate, MaxFrameRate].
	// Zero selects DefaultFrameRate.
	FrameRate int

	// Clock provides frame timestamps. Defaults to the system clock.
	Clock clock.Clock
}

// Renderer draws one full-screen quad per frame with the active scene
// program.
//
// RenderFrame is serialized internally; the renderer may be shared between
// a render loop and callers reading Stats.
type Renderer struct {
	device    gpucore.Device
	pipelines *pipeline.Manager
	source    StateSource
	clock     clock.Clock

	mu     sync.Mutex
	pacer  *Pacer
	slot   int
	stats  Stats
	closed bool
}

// NewRenderer creates a renderer drawing with pipelines on device.
func NewRenderer(device gpucore.Device, pipelines *pipeline.Manager, source StateSource, cfg Config) *Renderer {
	clk := cfg.Clock
	if clk == nil {
		clk = clock.System()
	}
	return &Renderer{
		device:    device,
		pipelines: pipelines,
		source:    source,
		clock:     clk,
		pacer:     NewPacer(cfg.FrameRate),
	}
}

// FrameRate returns the effective frame-rate cap.
func (r *Renderer) FrameRate() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pacer.FrameRate()
}

// SetFrameRate replaces the frame-rate cap. The time of the latest frame is
// kept, so the new cap applies from that frame on.
func (r *Renderer) SetFrameRate(fps int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pacer.SetFrameRate(fps)
}

func (r *Renderer) interval() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pacer.Interval()
}

// Close waits for a frame in progress and stops further rendering. After
// Close returns, RenderFrame draws nothing and the pipelines may be
// destroyed. Close is idempotent.
func (r *Renderer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
}

// Closed reports whether Close has been called.
func (r *Renderer) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// Stats returns a copy of the frame counters.
func (r *Renderer) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// RenderFrame draws one frame into target. It returns true when a frame was
// submitted and false when the call was throttled, generation is stopped, or
// the frame was dropped. Drops are logged and counted, never fatal. After
// Close it always returns false.
func (r *Renderer) RenderFrame(target Target) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}

	now := r.clock.Now()
	if !r.pacer.Ready(now) {
		r.stats.Throttled++
		return false
	}

	st := r.source.Snapshot()
	if !st.Generating() {
		r.stats.Idle++
		r.pacer.Reset()
		return false
	}

	f := PlanFrame(st, now)
	if err := r.draw(target, f); err != nil {
		r.stats.Dropped++
		r.stats.LastError = err
		logging.Logger().Warn("render: frame dropped", "err", err, "scene", f.Scene.String())
		return false
	}

	r.slot++
	r.stats.Frames++
	r.stats.LastScene = f.Scene
	return true
}

func (r *Renderer) draw(target Target, f Frame) error {
	fail := func(stage string, err error) error {
		return &FrameError{Stage: stage, Scene: f.Scene, Err: err}
	}

	if target == nil || target.TextureView() == gpucore.InvalidID {
		return fail(StageTarget, ErrNoTarget)
	}

	h := r.pipelines.Get(f.Scene)
	if h.Pipeline == gpucore.InvalidID {
		return fail(StagePipeline, fmt.Errorf("no pipeline for %s", f.Scene))
	}

	u := BuildUniforms(f, target.Width(), target.Height())
	slot := r.pipelines.Slot(r.slot)
	if err := r.pipelines.WriteUniforms(slot, u.Marshal()); err != nil {
		return fail(StageUniforms, err)
	}

	pass, err := r.device.BeginRenderPass(&gpucore.RenderPassDesc{
		Label:      "dogvision_frame",
		View:       target.TextureView(),
		ClearColor: f.ClearColor(),
	})
	if err != nil {
		return fail(StageEncode, err)
	}
	pass.SetPipeline(h.Pipeline)
	pass.SetVertexBuffer(0, r.pipelines.QuadBuffer(), 0)
	pass.SetBindGroup(0, slot.BindGroup)
	pass.Draw(pipeline.QuadVertexCount, 1, 0, 0)
	if err := pass.End(); err != nil {
		return fail(StageSubmit, err)
	}
	return nil
}

// Run renders into the target returned by next once per frame interval
// until ctx is done or the renderer is closed. The interval is re-read every
// frame, so SetFrameRate takes effect on the next tick. A nil target skips
// the tick. Run returns ctx.Err() or ErrClosed.
func (r *Renderer) Run(ctx context.Context, next func() Target) error {
	wake := make(chan struct{}, 1)
	deadline := r.clock.Now()
	for {
		if r.Closed() {
			return ErrClosed
		}
		now := r.clock.Now()
		deadline = deadline.Add(r.interval())
		if deadline.Before(now) {
			deadline = now
		}
		timer := r.clock.AfterFunc(deadline.Sub(now), func() {
			select {
			case wake <- struct{}{}:
			default:
			}
		})

		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-wake:
		}
		if t := next(); t != nil {
			r.RenderFrame(t)
		}
	}
}
