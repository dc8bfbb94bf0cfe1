// Package gputest provides an in-memory gpucore.Device for tests.
package gputest

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gogpu/dogvision/gpucore"
)

// ErrInjected is returned by operations failed through Recorder.Fail.
var ErrInjected = errors.New("gputest: injected failure")

// Draw is one recorded draw call with the state bound at the time.
type Draw struct {
	Pipeline      gpucore.RenderPipelineID
	BindGroup     gpucore.BindGroupID
	VertexBuffer  gpucore.BufferID
	VertexCount   uint32
	InstanceCount uint32

	// Uniforms is a copy of the bytes bound at group 0 when Draw was called.
	Uniforms []byte
}

// Pass is one recorded render pass.
type Pass struct {
	Desc      gpucore.RenderPassDesc
	Draws     []Draw
	Submitted bool
}

type resource struct {
	kind  string
	label string
}

// Recorder implements gpucore.Device by recording calls in memory.
// The zero value is not usable; call New.
type Recorder struct {
	mu sync.Mutex

	next      uint64
	live      map[uint64]resource
	destroyed []uint64

	buffers    map[gpucore.BufferID][]byte
	bindGroups map[gpucore.BindGroupID]gpucore.BindGroupDesc
	pipelines  map[gpucore.RenderPipelineID]gpucore.RenderPipelineDesc
	passes     []*Pass

	failOps    map[string]error
	failLabels map[string]error
	limits     gpucore.Limits
}

// New returns an empty recorder.
func New() *Recorder {
	return &Recorder{
		live:       make(map[uint64]resource),
		buffers:    make(map[gpucore.BufferID][]byte),
		bindGroups: make(map[gpucore.BindGroupID]gpucore.BindGroupDesc),
		pipelines:  make(map[gpucore.RenderPipelineID]gpucore.RenderPipelineDesc),
		failOps:    make(map[string]error),
		failLabels: make(map[string]error),
		limits:     gpucore.Limits{MinUniformBufferOffsetAlignment: gpucore.DefaultUniformAlignment},
	}
}

// Fail makes every later call of the named operation (for example
// "CreateBuffer", "BeginRenderPass" or "End") return err. A nil err uses
// ErrInjected.
func (r *Recorder) Fail(op string, err error) {
	if err == nil {
		err = ErrInjected
	}
	r.mu.Lock()
	r.failOps[op] = err
	r.mu.Unlock()
}

// FailLabel makes creation of any resource whose label contains substr
// return err. A nil err uses ErrInjected.
func (r *Recorder) FailLabel(substr string, err error) {
	if err == nil {
		err = ErrInjected
	}
	r.mu.Lock()
	r.failLabels[substr] = err
	r.mu.Unlock()
}

// Heal clears all injected failures.
func (r *Recorder) Heal() {
	r.mu.Lock()
	clear(r.failOps)
	clear(r.failLabels)
	r.mu.Unlock()
}

// SetLimits overrides the reported device limits.
func (r *Recorder) SetLimits(l gpucore.Limits) {
	r.mu.Lock()
	r.limits = l
	r.mu.Unlock()
}

func (r *Recorder) failure(op, label string) error {
	if err, ok := r.failOps[op]; ok {
		return fmt.Errorf("%s %q: %w", op, label, err)
	}
	for substr, err := range r.failLabels {
		if label != "" && strings.Contains(label, substr) {
			return fmt.Errorf("%s %q: %w", op, label, err)
		}
	}
	return nil
}

func (r *Recorder) create(op, kind, label string) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failure(op, label); err != nil {
		return gpucore.InvalidID, err
	}
	r.next++
	r.live[r.next] = resource{kind: kind, label: label}
	return r.next, nil
}

func (r *Recorder) destroy(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.live[id]; !ok {
		return
	}
	delete(r.live, id)
	r.destroyed = append(r.destroyed, id)
}

// Limits implements gpucore.Device.
func (r *Recorder) Limits() gpucore.Limits {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.limits
}

// CreateShaderModule implements gpucore.Device.
func (r *Recorder) CreateShaderModule(spirv []uint32, label string) (gpucore.ShaderModuleID, error) {
	if len(spirv) == 0 {
		return gpucore.InvalidID, fmt.Errorf("shader module %q: empty SPIR-V", label)
	}
	id, err := r.create("CreateShaderModule", "shader", label)
	return gpucore.ShaderModuleID(id), err
}

// DestroyShaderModule implements gpucore.Device.
func (r *Recorder) DestroyShaderModule(id gpucore.ShaderModuleID) { r.destroy(uint64(id)) }

// CreateBuffer implements gpucore.Device.
func (r *Recorder) CreateBuffer(desc *gpucore.BufferDesc) (gpucore.BufferID, error) {
	id, err := r.create("CreateBuffer", "buffer", desc.Label)
	if err != nil {
		return gpucore.InvalidID, err
	}
	r.mu.Lock()
	r.buffers[gpucore.BufferID(id)] = make([]byte, desc.Size)
	r.mu.Unlock()
	return gpucore.BufferID(id), nil
}

// DestroyBuffer implements gpucore.Device.
func (r *Recorder) DestroyBuffer(id gpucore.BufferID) {
	r.mu.Lock()
	delete(r.buffers, id)
	r.mu.Unlock()
	r.destroy(uint64(id))
}

// WriteBuffer implements gpucore.Device.
func (r *Recorder) WriteBuffer(id gpucore.BufferID, offset uint64, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failure("WriteBuffer", ""); err != nil {
		return err
	}
	buf, ok := r.buffers[id]
	if !ok {
		return fmt.Errorf("write buffer %d: unknown buffer", id)
	}
	if offset+uint64(len(data)) > uint64(len(buf)) {
		return fmt.Errorf("write buffer %d: %d bytes at %d overflow size %d", id, len(data), offset, len(buf))
	}
	copy(buf[offset:], data)
	return nil
}

// CreateTexture implements gpucore.Device.
func (r *Recorder) CreateTexture(desc *gpucore.TextureDesc) (gpucore.TextureID, error) {
	if desc.Width == 0 || desc.Height == 0 {
		return gpucore.InvalidID, fmt.Errorf("texture %q: zero size", desc.Label)
	}
	id, err := r.create("CreateTexture", "texture", desc.Label)
	return gpucore.TextureID(id), err
}

// DestroyTexture implements gpucore.Device.
func (r *Recorder) DestroyTexture(id gpucore.TextureID) { r.destroy(uint64(id)) }

// CreateTextureView implements gpucore.Device.
func (r *Recorder) CreateTextureView(_ gpucore.TextureID, label string) (gpucore.TextureViewID, error) {
	id, err := r.create("CreateTextureView", "view", label)
	return gpucore.TextureViewID(id), err
}

// DestroyTextureView implements gpucore.Device.
func (r *Recorder) DestroyTextureView(id gpucore.TextureViewID) { r.destroy(uint64(id)) }

// CreateBindGroupLayout implements gpucore.Device.
func (r *Recorder) CreateBindGroupLayout(desc *gpucore.BindGroupLayoutDesc) (gpucore.BindGroupLayoutID, error) {
	id, err := r.create("CreateBindGroupLayout", "bind-group-layout", desc.Label)
	return gpucore.BindGroupLayoutID(id), err
}

// DestroyBindGroupLayout implements gpucore.Device.
func (r *Recorder) DestroyBindGroupLayout(id gpucore.BindGroupLayoutID) { r.destroy(uint64(id)) }

// CreatePipelineLayout implements gpucore.Device.
func (r *Recorder) CreatePipelineLayout(_ []gpucore.BindGroupLayoutID, label string) (gpucore.PipelineLayoutID, error) {
	id, err := r.create("CreatePipelineLayout", "pipeline-layout", label)
	return gpucore.PipelineLayoutID(id), err
}

// DestroyPipelineLayout implements gpucore.Device.
func (r *Recorder) DestroyPipelineLayout(id gpucore.PipelineLayoutID) { r.destroy(uint64(id)) }

// CreateRenderPipeline implements gpucore.Device.
func (r *Recorder) CreateRenderPipeline(desc *gpucore.RenderPipelineDesc) (gpucore.RenderPipelineID, error) {
	id, err := r.create("CreateRenderPipeline", "render-pipeline", desc.Label)
	if err != nil {
		return gpucore.InvalidID, err
	}
	r.mu.Lock()
	r.pipelines[gpucore.RenderPipelineID(id)] = *desc
	r.mu.Unlock()
	return gpucore.RenderPipelineID(id), nil
}

// DestroyRenderPipeline implements gpucore.Device.
func (r *Recorder) DestroyRenderPipeline(id gpucore.RenderPipelineID) { r.destroy(uint64(id)) }

// CreateBindGroup implements gpucore.Device.
func (r *Recorder) CreateBindGroup(desc *gpucore.BindGroupDesc) (gpucore.BindGroupID, error) {
	id, err := r.create("CreateBindGroup", "bind-group", desc.Label)
	if err != nil {
		return gpucore.InvalidID, err
	}
	d := *desc
	d.Entries = append([]gpucore.BindGroupEntry(nil), desc.Entries...)
	r.mu.Lock()
	r.bindGroups[gpucore.BindGroupID(id)] = d
	r.mu.Unlock()
	return gpucore.BindGroupID(id), nil
}

// DestroyBindGroup implements gpucore.Device.
func (r *Recorder) DestroyBindGroup(id gpucore.BindGroupID) { r.destroy(uint64(id)) }

// BeginRenderPass implements gpucore.Device.
func (r *Recorder) BeginRenderPass(desc *gpucore.RenderPassDesc) (gpucore.RenderPassEncoder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failure("BeginRenderPass", desc.Label); err != nil {
		return nil, err
	}
	if _, ok := r.live[uint64(desc.View)]; !ok {
		return nil, fmt.Errorf("render pass %q: unknown view %d", desc.Label, desc.View)
	}
	p := &Pass{Desc: *desc}
	r.passes = append(r.passes, p)
	return &passEncoder{r: r, pass: p}, nil
}

type passEncoder struct {
	r     *Recorder
	pass  *Pass
	state Draw
	ended bool
}

func (e *passEncoder) SetPipeline(id gpucore.RenderPipelineID) { e.state.Pipeline = id }

func (e *passEncoder) SetBindGroup(index uint32, id gpucore.BindGroupID) {
	if index == 0 {
		e.state.BindGroup = id
	}
}

func (e *passEncoder) SetVertexBuffer(slot uint32, id gpucore.BufferID, _ uint64) {
	if slot == 0 {
		e.state.VertexBuffer = id
	}
}

func (e *passEncoder) Draw(vertexCount, instanceCount, _, _ uint32) {
	e.r.mu.Lock()
	defer e.r.mu.Unlock()
	d := e.state
	d.VertexCount = vertexCount
	d.InstanceCount = instanceCount
	if bg, ok := e.r.bindGroups[d.BindGroup]; ok && len(bg.Entries) > 0 {
		ent := bg.Entries[0]
		if buf, ok := e.r.buffers[ent.Buffer]; ok {
			end := uint64(len(buf))
			if ent.Size > 0 && ent.Offset+ent.Size < end {
				end = ent.Offset + ent.Size
			}
			if ent.Offset <= end {
				d.Uniforms = append([]byte(nil), buf[ent.Offset:end]...)
			}
		}
	}
	e.pass.Draws = append(e.pass.Draws, d)
}

func (e *passEncoder) End() error {
	e.r.mu.Lock()
	defer e.r.mu.Unlock()
	if e.ended {
		return errors.New("render pass already ended")
	}
	e.ended = true
	if err := e.r.failure("End", e.pass.Desc.Label); err != nil {
		return err
	}
	e.pass.Submitted = true
	return nil
}

// Passes returns copies of every recorded pass in order.
func (r *Recorder) Passes() []Pass {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Pass, len(r.passes))
	for i, p := range r.passes {
		out[i] = *p
		out[i].Draws = append([]Draw(nil), p.Draws...)
	}
	return out
}

// LastPass returns the most recent pass, or false if none was recorded.
func (r *Recorder) LastPass() (Pass, bool) {
	passes := r.Passes()
	if len(passes) == 0 {
		return Pass{}, false
	}
	return passes[len(passes)-1], true
}

// Buffer returns a copy of a live buffer's contents.
func (r *Recorder) Buffer(id gpucore.BufferID) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]byte(nil), r.buffers[id]...)
}

// Pipeline returns the descriptor a pipeline was created with.
func (r *Recorder) Pipeline(id gpucore.RenderPipelineID) (gpucore.RenderPipelineDesc, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.pipelines[id]
	return d, ok
}

// Live returns the number of resources not yet destroyed.
func (r *Recorder) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.live)
}

// LiveKind returns the number of live resources of a kind, such as
// "render-pipeline" or "buffer".
func (r *Recorder) LiveKind(kind string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, res := range r.live {
		if res.kind == kind {
			n++
		}
	}
	return n
}

// Destroyed returns destroyed IDs in destruction order.
func (r *Recorder) Destroyed() []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]uint64(nil), r.destroyed...)
}

var _ gpucore.Device = (*Recorder)(nil)
