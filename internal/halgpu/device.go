// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package halgpu

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/dogvision/gpucore"
	"github.com/gogpu/dogvision/internal/logging"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// DefaultSubmitTimeout bounds the wait for each submitted pass.
const DefaultSubmitTimeout = 2 * time.Second

const submitPollInterval = 100 * time.Microsecond

// ErrClosed is returned by operations on a closed Device.
var ErrClosed = errors.New("halgpu: device closed")

// ErrUnknownID is returned when an ID does not name a live resource.
var ErrUnknownID = errors.New("halgpu: unknown resource id")

// ErrSubmitTimeout is returned when submitted work does not complete within
// the submit timeout.
var ErrSubmitTimeout = errors.New("halgpu: timed out waiting for GPU")

// Device implements gpucore.Device on a HAL device and queue.
type Device struct {
	device   hal.Device
	queue    hal.Queue
	instance hal.Instance
	owned    bool
	format   gpucore.TextureFormat

	// submitMu serializes encoding and submission.
	submitMu sync.Mutex
	timeout  time.Duration

	nextID atomic.Uint64
	closed atomic.Bool

	shaders    *registry[hal.ShaderModule]
	buffers    *registry[hal.Buffer]
	textures   *registry[hal.Texture]
	views      *registry[hal.TextureView]
	bgLayouts  *registry[hal.BindGroupLayout]
	pipeLayout *registry[hal.PipelineLayout]
	pipelines  *registry[hal.RenderPipeline]
	bindGroups *registry[hal.BindGroup]

	// imported views belong to the host and are never destroyed here.
	imported *registry[struct{}]
}

func newDevice(device hal.Device, queue hal.Queue, format gpucore.TextureFormat) *Device {
	return &Device{
		device:     device,
		queue:      queue,
		format:     format,
		timeout:    DefaultSubmitTimeout,
		shaders:    newRegistry[hal.ShaderModule](),
		buffers:    newRegistry[hal.Buffer](),
		textures:   newRegistry[hal.Texture](),
		views:      newRegistry[hal.TextureView](),
		bgLayouts:  newRegistry[hal.BindGroupLayout](),
		pipeLayout: newRegistry[hal.PipelineLayout](),
		pipelines:  newRegistry[hal.RenderPipeline](),
		bindGroups: newRegistry[hal.BindGroup](),
		imported:   newRegistry[struct{}](),
	}
}

func (d *Device) id() uint64 { return d.nextID.Add(1) }

// SurfaceFormat returns the preferred color target format. For shared
// devices this is the host surface format.
func (d *Device) SurfaceFormat() gpucore.TextureFormat { return d.format }

// SetSubmitTimeout changes the submission wait bound. Non-positive values
// restore DefaultSubmitTimeout.
func (d *Device) SetSubmitTimeout(t time.Duration) {
	if t <= 0 {
		t = DefaultSubmitTimeout
	}
	d.submitMu.Lock()
	d.timeout = t
	d.submitMu.Unlock()
}

// HalDevice returns the underlying HAL device.
func (d *Device) HalDevice() hal.Device { return d.device }

// HalQueue returns the underlying HAL queue.
func (d *Device) HalQueue() hal.Queue { return d.queue }

// Limits implements gpucore.Device.
func (d *Device) Limits() gpucore.Limits {
	return gpucore.Limits{MinUniformBufferOffsetAlignment: gpucore.DefaultUniformAlignment}
}

// CreateShaderModule implements gpucore.Device.
func (d *Device) CreateShaderModule(spirv []uint32, label string) (gpucore.ShaderModuleID, error) {
	if d.closed.Load() {
		return gpucore.InvalidID, ErrClosed
	}
	if len(spirv) == 0 {
		return gpucore.InvalidID, fmt.Errorf("halgpu: shader module %q: empty SPIR-V", label)
	}
	m, err := d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: hal.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("halgpu: create shader module %q: %w", label, err)
	}
	id := d.id()
	d.shaders.put(id, m)
	return gpucore.ShaderModuleID(id), nil
}

// DestroyShaderModule implements gpucore.Device.
func (d *Device) DestroyShaderModule(id gpucore.ShaderModuleID) {
	if m, ok := d.shaders.take(uint64(id)); ok {
		d.device.DestroyShaderModule(m)
	}
}

// CreateBuffer implements gpucore.Device.
func (d *Device) CreateBuffer(desc *gpucore.BufferDesc) (gpucore.BufferID, error) {
	if d.closed.Load() {
		return gpucore.InvalidID, ErrClosed
	}
	buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: desc.Label,
		Size:  desc.Size,
		Usage: bufferUsage(desc.Usage),
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("halgpu: create buffer %q: %w", desc.Label, err)
	}
	id := d.id()
	d.buffers.put(id, buf)
	logging.Logger().Debug("halgpu: buffer created", "label", desc.Label, "size", desc.Size)
	return gpucore.BufferID(id), nil
}

// DestroyBuffer implements gpucore.Device.
func (d *Device) DestroyBuffer(id gpucore.BufferID) {
	if b, ok := d.buffers.take(uint64(id)); ok {
		d.device.DestroyBuffer(b)
	}
}

// WriteBuffer implements gpucore.Device.
func (d *Device) WriteBuffer(id gpucore.BufferID, offset uint64, data []byte) error {
	if d.closed.Load() {
		return ErrClosed
	}
	b, ok := d.buffers.get(uint64(id))
	if !ok {
		return fmt.Errorf("halgpu: write buffer %d: %w", id, ErrUnknownID)
	}
	if err := d.queue.WriteBuffer(b, offset, data); err != nil {
		return fmt.Errorf("halgpu: write buffer %d: %w", id, err)
	}
	return nil
}

// CreateTexture implements gpucore.Device.
func (d *Device) CreateTexture(desc *gpucore.TextureDesc) (gpucore.TextureID, error) {
	if d.closed.Load() {
		return gpucore.InvalidID, ErrClosed
	}
	if desc.Width == 0 || desc.Height == 0 {
		return gpucore.InvalidID, fmt.Errorf("halgpu: texture %q: zero size %dx%d", desc.Label, desc.Width, desc.Height)
	}
	tex, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label: desc.Label,
		Size: hal.Extent3D{
			Width:              desc.Width,
			Height:             desc.Height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        formatToGPU(desc.Format),
		Usage:         textureUsage(desc.Usage),
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("halgpu: create texture %q: %w", desc.Label, err)
	}
	id := d.id()
	d.textures.put(id, tex)
	return gpucore.TextureID(id), nil
}

// DestroyTexture implements gpucore.Device.
func (d *Device) DestroyTexture(id gpucore.TextureID) {
	if t, ok := d.textures.take(uint64(id)); ok {
		d.device.DestroyTexture(t)
	}
}

// CreateTextureView implements gpucore.Device.
func (d *Device) CreateTextureView(tex gpucore.TextureID, label string) (gpucore.TextureViewID, error) {
	if d.closed.Load() {
		return gpucore.InvalidID, ErrClosed
	}
	t, ok := d.textures.get(uint64(tex))
	if !ok {
		return gpucore.InvalidID, fmt.Errorf("halgpu: texture view %q: %w", label, ErrUnknownID)
	}
	v, err := d.device.CreateTextureView(t, &hal.TextureViewDescriptor{Label: label})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("halgpu: create texture view %q: %w", label, err)
	}
	id := d.id()
	d.views.put(id, v)
	return gpucore.TextureViewID(id), nil
}

// ImportView registers a host-owned texture view, such as the current
// swapchain image, so it can be used as a render pass target. Release it
// with DestroyTextureView once the host presents it; the HAL view itself is
// left to the host.
func (d *Device) ImportView(view hal.TextureView) (gpucore.TextureViewID, error) {
	if d.closed.Load() {
		return gpucore.InvalidID, ErrClosed
	}
	if view == nil {
		return gpucore.InvalidID, fmt.Errorf("halgpu: import nil texture view")
	}
	id := d.id()
	d.views.put(id, view)
	d.imported.put(id, struct{}{})
	return gpucore.TextureViewID(id), nil
}

// DestroyTextureView implements gpucore.Device.
func (d *Device) DestroyTextureView(id gpucore.TextureViewID) {
	v, ok := d.views.take(uint64(id))
	if !ok {
		return
	}
	if _, host := d.imported.take(uint64(id)); host {
		return
	}
	d.device.DestroyTextureView(v)
}

// CreateBindGroupLayout implements gpucore.Device.
func (d *Device) CreateBindGroupLayout(desc *gpucore.BindGroupLayoutDesc) (gpucore.BindGroupLayoutID, error) {
	if d.closed.Load() {
		return gpucore.InvalidID, ErrClosed
	}
	entries := make([]gputypes.BindGroupLayoutEntry, len(desc.Entries))
	for i, e := range desc.Entries {
		vis := gputypes.ShaderStageVertex | gputypes.ShaderStageFragment
		switch e.Visibility {
		case gpucore.ShaderStageVertex:
			vis = gputypes.ShaderStageVertex
		case gpucore.ShaderStageFragment:
			vis = gputypes.ShaderStageFragment
		}
		entries[i] = gputypes.BindGroupLayoutEntry{
			Binding:    e.Binding,
			Visibility: vis,
			Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
		}
	}
	l, err := d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   desc.Label,
		Entries: entries,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("halgpu: create bind group layout %q: %w", desc.Label, err)
	}
	id := d.id()
	d.bgLayouts.put(id, l)
	return gpucore.BindGroupLayoutID(id), nil
}

// DestroyBindGroupLayout implements gpucore.Device.
func (d *Device) DestroyBindGroupLayout(id gpucore.BindGroupLayoutID) {
	if l, ok := d.bgLayouts.take(uint64(id)); ok {
		d.device.DestroyBindGroupLayout(l)
	}
}

// CreatePipelineLayout implements gpucore.Device.
func (d *Device) CreatePipelineLayout(layouts []gpucore.BindGroupLayoutID, label string) (gpucore.PipelineLayoutID, error) {
	if d.closed.Load() {
		return gpucore.InvalidID, ErrClosed
	}
	halLayouts := make([]hal.BindGroupLayout, len(layouts))
	for i, lid := range layouts {
		l, ok := d.bgLayouts.get(uint64(lid))
		if !ok {
			return gpucore.InvalidID, fmt.Errorf("halgpu: pipeline layout %q: bind group layout %d: %w", label, lid, ErrUnknownID)
		}
		halLayouts[i] = l
	}
	pl, err := d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            label,
		BindGroupLayouts: halLayouts,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("halgpu: create pipeline layout %q: %w", label, err)
	}
	id := d.id()
	d.pipeLayout.put(id, pl)
	return gpucore.PipelineLayoutID(id), nil
}

// DestroyPipelineLayout implements gpucore.Device.
func (d *Device) DestroyPipelineLayout(id gpucore.PipelineLayoutID) {
	if pl, ok := d.pipeLayout.take(uint64(id)); ok {
		d.device.DestroyPipelineLayout(pl)
	}
}

// CreateRenderPipeline implements gpucore.Device.
func (d *Device) CreateRenderPipeline(desc *gpucore.RenderPipelineDesc) (gpucore.RenderPipelineID, error) {
	if d.closed.Load() {
		return gpucore.InvalidID, ErrClosed
	}
	layout, ok := d.pipeLayout.get(uint64(desc.Layout))
	if !ok {
		return gpucore.InvalidID, fmt.Errorf("halgpu: render pipeline %q: layout: %w", desc.Label, ErrUnknownID)
	}
	module, ok := d.shaders.get(uint64(desc.Module))
	if !ok {
		return gpucore.InvalidID, fmt.Errorf("halgpu: render pipeline %q: shader: %w", desc.Label, ErrUnknownID)
	}

	target := gputypes.ColorTargetState{
		Format:    formatToGPU(desc.Format),
		WriteMask: gputypes.ColorWriteMaskAll,
	}
	if desc.Blend {
		premulBlend := gputypes.BlendStatePremultiplied()
		target.Blend = &premulBlend
	}

	p, err := d.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  desc.Label,
		Layout: layout,
		Vertex: hal.VertexState{
			Module:     module,
			EntryPoint: desc.VertexEntryPoint,
			Buffers: []gputypes.VertexBufferLayout{{
				ArrayStride: desc.Vertex.Stride,
				StepMode:    gputypes.VertexStepModeVertex,
				Attributes: []gputypes.VertexAttribute{{
					Format:         gputypes.VertexFormatFloat32x2,
					Offset:         0,
					ShaderLocation: 0,
				}},
			}},
		},
		Fragment: &hal.FragmentState{
			Module:     module,
			EntryPoint: desc.FragmentEntryPoint,
			Targets:    []gputypes.ColorTargetState{target},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleStrip,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("halgpu: create render pipeline %q: %w", desc.Label, err)
	}
	id := d.id()
	d.pipelines.put(id, p)
	return gpucore.RenderPipelineID(id), nil
}

// DestroyRenderPipeline implements gpucore.Device.
func (d *Device) DestroyRenderPipeline(id gpucore.RenderPipelineID) {
	if p, ok := d.pipelines.take(uint64(id)); ok {
		d.device.DestroyRenderPipeline(p)
	}
}

// CreateBindGroup implements gpucore.Device.
func (d *Device) CreateBindGroup(desc *gpucore.BindGroupDesc) (gpucore.BindGroupID, error) {
	if d.closed.Load() {
		return gpucore.InvalidID, ErrClosed
	}
	layout, ok := d.bgLayouts.get(uint64(desc.Layout))
	if !ok {
		return gpucore.InvalidID, fmt.Errorf("halgpu: bind group %q: layout: %w", desc.Label, ErrUnknownID)
	}
	entries := make([]gputypes.BindGroupEntry, len(desc.Entries))
	for i, e := range desc.Entries {
		buf, ok := d.buffers.get(uint64(e.Buffer))
		if !ok {
			return gpucore.InvalidID, fmt.Errorf("halgpu: bind group %q: buffer %d: %w", desc.Label, e.Buffer, ErrUnknownID)
		}
		entries[i] = gputypes.BindGroupEntry{
			Binding: e.Binding,
			Resource: gputypes.BufferBinding{
				Buffer: buf.NativeHandle(),
				Offset: e.Offset,
				Size:   e.Size,
			},
		}
	}
	bg, err := d.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   desc.Label,
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("halgpu: create bind group %q: %w", desc.Label, err)
	}
	id := d.id()
	d.bindGroups.put(id, bg)
	return gpucore.BindGroupID(id), nil
}

// DestroyBindGroup implements gpucore.Device.
func (d *Device) DestroyBindGroup(id gpucore.BindGroupID) {
	if bg, ok := d.bindGroups.take(uint64(id)); ok {
		d.device.DestroyBindGroup(bg)
	}
}

// Close releases the device and instance when the Device owns them.
// Resources still registered are destroyed first. Close is idempotent.
func (d *Device) Close() {
	if d.closed.Swap(true) {
		return
	}
	d.submitMu.Lock()
	defer d.submitMu.Unlock()

	destroyAll(d.bindGroups, d.device.DestroyBindGroup)
	destroyAll(d.pipelines, d.device.DestroyRenderPipeline)
	destroyAll(d.pipeLayout, d.device.DestroyPipelineLayout)
	destroyAll(d.bgLayouts, d.device.DestroyBindGroupLayout)
	destroyAll(d.shaders, d.device.DestroyShaderModule)
	for id, v := range drain(d.views) {
		if _, host := d.imported.take(id); !host {
			d.device.DestroyTextureView(v)
		}
	}
	destroyAll(d.textures, d.device.DestroyTexture)
	destroyAll(d.buffers, d.device.DestroyBuffer)

	if d.owned {
		d.device.Destroy()
		if d.instance != nil {
			d.instance.Destroy()
		}
	}
	logging.Logger().Debug("halgpu: device closed", "owned", d.owned)
}

func drain[T any](r *registry[T]) map[uint64]T {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := r.items
	r.items = make(map[uint64]T)
	return items
}

func destroyAll[T any](r *registry[T], destroy func(T)) {
	for _, v := range drain(r) {
		destroy(v)
	}
}

func bufferUsage(u gpucore.BufferUsage) gputypes.BufferUsage {
	var out gputypes.BufferUsage
	if u&gpucore.BufferUsageCopySrc != 0 {
		out |= gputypes.BufferUsageCopySrc
	}
	if u&gpucore.BufferUsageCopyDst != 0 {
		out |= gputypes.BufferUsageCopyDst
	}
	if u&gpucore.BufferUsageVertex != 0 {
		out |= gputypes.BufferUsageVertex
	}
	if u&gpucore.BufferUsageUniform != 0 {
		out |= gputypes.BufferUsageUniform
	}
	return out
}

func textureUsage(u gpucore.TextureUsage) gputypes.TextureUsage {
	var out gputypes.TextureUsage
	if u&gpucore.TextureUsageCopySrc != 0 {
		out |= gputypes.TextureUsageCopySrc
	}
	if u&gpucore.TextureUsageRenderAttachment != 0 {
		out |= gputypes.TextureUsageRenderAttachment
	}
	return out
}

var _ gpucore.Device = (*Device)(nil)
