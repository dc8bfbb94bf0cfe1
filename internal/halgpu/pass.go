// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package halgpu

import (
	"fmt"
	"time"

	"github.com/gogpu/dogvision/gpucore"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// BeginRenderPass implements gpucore.Device. The pass holds the device's
// submit lock until End so frames are encoded one at a time.
func (d *Device) BeginRenderPass(desc *gpucore.RenderPassDesc) (gpucore.RenderPassEncoder, error) {
	if d.closed.Load() {
		return nil, ErrClosed
	}
	view, ok := d.views.get(uint64(desc.View))
	if !ok {
		return nil, fmt.Errorf("halgpu: render pass %q: view %d: %w", desc.Label, desc.View, ErrUnknownID)
	}

	d.submitMu.Lock()
	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: desc.Label + "_encoder",
	})
	if err != nil {
		d.submitMu.Unlock()
		return nil, fmt.Errorf("halgpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(desc.Label); err != nil {
		d.submitMu.Unlock()
		return nil, fmt.Errorf("halgpu: begin encoding: %w", err)
	}

	c := desc.ClearColor
	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: desc.Label,
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: gputypes.Color{R: c[0], G: c[1], B: c[2], A: c[3]},
		}},
	})
	return &passEncoder{d: d, encoder: encoder, rp: rp, label: desc.Label}, nil
}

type passEncoder struct {
	d       *Device
	encoder hal.CommandEncoder
	rp      hal.RenderPassEncoder
	label   string
	err     error
	ended   bool
}

func (p *passEncoder) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}

func (p *passEncoder) SetPipeline(id gpucore.RenderPipelineID) {
	pl, ok := p.d.pipelines.get(uint64(id))
	if !ok {
		p.fail(fmt.Errorf("halgpu: set pipeline %d: %w", id, ErrUnknownID))
		return
	}
	p.rp.SetPipeline(pl)
}

func (p *passEncoder) SetBindGroup(index uint32, id gpucore.BindGroupID) {
	bg, ok := p.d.bindGroups.get(uint64(id))
	if !ok {
		p.fail(fmt.Errorf("halgpu: set bind group %d: %w", id, ErrUnknownID))
		return
	}
	p.rp.SetBindGroup(index, bg, nil)
}

func (p *passEncoder) SetVertexBuffer(slot uint32, id gpucore.BufferID, offset uint64) {
	buf, ok := p.d.buffers.get(uint64(id))
	if !ok {
		p.fail(fmt.Errorf("halgpu: set vertex buffer %d: %w", id, ErrUnknownID))
		return
	}
	p.rp.SetVertexBuffer(slot, buf, offset)
}

func (p *passEncoder) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	if p.err != nil {
		return
	}
	p.rp.Draw(vertexCount, instanceCount, firstVertex, firstInstance)
}

// End ends the pass, submits it and waits for the submission to complete. A pass that saw
// an invalid ID is discarded instead of submitted.
func (p *passEncoder) End() error {
	if p.ended {
		return fmt.Errorf("halgpu: render pass %q already ended", p.label)
	}
	p.ended = true
	defer p.d.submitMu.Unlock()

	p.rp.End()
	if p.err != nil {
		p.encoder.DiscardEncoding()
		return p.err
	}

	cmdBuf, err := p.encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("halgpu: end encoding: %w", err)
	}

	idx, err := p.d.queue.Submit([]hal.CommandBuffer{cmdBuf})
	if err != nil {
		p.d.device.FreeCommandBuffer(cmdBuf)
		return fmt.Errorf("halgpu: submit: %w", err)
	}
	if err := p.d.waitSubmission(idx); err != nil {
		// The GPU may still read cmdBuf; it is not freed.
		return err
	}
	p.d.device.FreeCommandBuffer(cmdBuf)
	return nil
}

// waitSubmission polls the queue until submission idx completes or the
// submit timeout passes. The caller holds submitMu.
func (d *Device) waitSubmission(idx uint64) error {
	deadline := time.Now().Add(d.timeout)
	for d.queue.PollCompleted() < idx {
		if time.Now().After(deadline) {
			return fmt.Errorf("halgpu: submission %d after %v: %w", idx, d.timeout, ErrSubmitTimeout)
		}
		time.Sleep(submitPollInterval)
	}
	return nil
}
