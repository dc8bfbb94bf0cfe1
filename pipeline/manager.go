package pipeline

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/gogpu/dogvision/gpucore"
	"github.com/gogpu/dogvision/internal/logging"
	"github.com/gogpu/dogvision/scene"
)

// UniformSize is the size in bytes of the per-frame uniform block.
const UniformSize = 320

// Uniform slot bounds.
const (
	MinUniformSlots     = 2
	DefaultUniformSlots = 3
)

// QuadVertexCount is the number of vertices in the full-screen quad
// triangle strip.
const QuadVertexCount = 4

const quadVertexStride = 8 // float32x2

// quadVertices covers clip space [-1,1]² in strip order.
var quadVertices = [QuadVertexCount][2]float32{
	{-1, -1}, {1, -1}, {-1, 1}, {1, 1},
}

// Config configures a Manager.
type Config struct {
	// Format is the color target format. Zero means BGRA8Unorm.
	Format gpucore.TextureFormat

	// UniformSlots is the ring length. Values below MinUniformSlots are
	// raised; zero means DefaultUniformSlots.
	UniformSlots int

	// Compiler turns WGSL into SPIR-V. Nil means NagaCompiler.
	Compiler Compiler
}

func (c Config) withDefaults() Config {
	if c.Format == 0 {
		c.Format = gpucore.TextureFormatBGRA8Unorm
	}
	if c.UniformSlots == 0 {
		c.UniformSlots = DefaultUniformSlots
	}
	c.UniformSlots = max(c.UniformSlots, MinUniformSlots)
	if c.Compiler == nil {
		c.Compiler = NagaCompiler
	}
	return c
}

// Handle identifies the render pipeline that draws a scene.
type Handle struct {
	Scene    scene.Scene
	Pipeline gpucore.RenderPipelineID

	// Fallback reports that the scene's own program failed to build and
	// the baseline program is used instead.
	Fallback bool
}

// Slot is one entry of the uniform ring.
type Slot struct {
	Index     int
	Offset    uint64
	BindGroup gpucore.BindGroupID
}

// Manager owns the compiled pipelines and shared buffers for one device.
// Its methods are safe for concurrent use.
type Manager struct {
	device gpucore.Device
	cfg    Config

	mu      sync.Mutex
	cleanup []func()
	closed  bool

	layout     gpucore.BindGroupLayoutID
	pipeLayout gpucore.PipelineLayoutID
	quad       gpucore.BufferID
	uniforms   gpucore.BufferID
	stride     uint64
	slots      []Slot

	baseline gpucore.RenderPipelineID
	handles  [scene.Count]Handle
	failures []CompileError
}

// New builds every pipeline eagerly. It returns an *InitError when the
// device is nil, a shared resource cannot be allocated, or the baseline
// program fails. Scene program failures are recorded and logged, never
// returned.
func New(device gpucore.Device, cfg Config) (*Manager, error) {
	if device == nil {
		return nil, &InitError{Stage: "device", Err: ErrNilDevice}
	}
	m := &Manager{device: device, cfg: cfg.withDefaults()}

	if err := m.initShared(); err != nil {
		m.Destroy()
		return nil, err
	}
	if err := m.initBaseline(); err != nil {
		m.Destroy()
		return nil, err
	}
	for _, s := range scene.All() {
		m.initScene(s)
	}

	logging.Logger().Debug("pipeline: manager ready",
		"scenes", scene.Count,
		"fallbacks", len(m.failures),
		"slots", len(m.slots),
		"stride", m.stride,
	)
	return m, nil
}

func (m *Manager) onDestroy(f func()) { m.cleanup = append(m.cleanup, f) }

func (m *Manager) initShared() error {
	d := m.device

	layout, err := d.CreateBindGroupLayout(&gpucore.BindGroupLayoutDesc{
		Label: "dogvision_uniform_layout",
		Entries: []gpucore.BindGroupLayoutEntry{{
			Binding:    0,
			Visibility: gpucore.ShaderStageVertex | gpucore.ShaderStageFragment,
		}},
	})
	if err != nil {
		return &InitError{Stage: "bind group layout", Err: err}
	}
	m.layout = layout
	m.onDestroy(func() { d.DestroyBindGroupLayout(layout) })

	pipeLayout, err := d.CreatePipelineLayout([]gpucore.BindGroupLayoutID{layout}, "dogvision_pipe_layout")
	if err != nil {
		return &InitError{Stage: "pipeline layout", Err: err}
	}
	m.pipeLayout = pipeLayout
	m.onDestroy(func() { d.DestroyPipelineLayout(pipeLayout) })

	quad, err := d.CreateBuffer(&gpucore.BufferDesc{
		Label: "dogvision_quad",
		Size:  QuadVertexCount * quadVertexStride,
		Usage: gpucore.BufferUsageVertex | gpucore.BufferUsageCopyDst,
	})
	if err != nil {
		return &InitError{Stage: "quad buffer", Err: err}
	}
	m.quad = quad
	m.onDestroy(func() { d.DestroyBuffer(quad) })
	if err := d.WriteBuffer(quad, 0, quadBytes()); err != nil {
		return &InitError{Stage: "quad buffer", Err: err}
	}

	align := d.Limits().MinUniformBufferOffsetAlignment
	if align == 0 {
		align = gpucore.DefaultUniformAlignment
	}
	m.stride = alignUp(UniformSize, align)

	n := m.cfg.UniformSlots
	uniforms, err := d.CreateBuffer(&gpucore.BufferDesc{
		Label: "dogvision_uniforms",
		Size:  m.stride * uint64(n),
		Usage: gpucore.BufferUsageUniform | gpucore.BufferUsageCopyDst,
	})
	if err != nil {
		return &InitError{Stage: "uniform buffer", Err: err}
	}
	m.uniforms = uniforms
	m.onDestroy(func() { d.DestroyBuffer(uniforms) })

	m.slots = make([]Slot, n)
	for i := range m.slots {
		offset := m.stride * uint64(i)
		bg, err := d.CreateBindGroup(&gpucore.BindGroupDesc{
			Label:  fmt.Sprintf("dogvision_uniforms_%d", i),
			Layout: layout,
			Entries: []gpucore.BindGroupEntry{{
				Binding: 0,
				Buffer:  uniforms,
				Offset:  offset,
				Size:    UniformSize,
			}},
		})
		if err != nil {
			return &InitError{Stage: "bind group", Err: err}
		}
		m.onDestroy(func() { d.DestroyBindGroup(bg) })
		m.slots[i] = Slot{Index: i, Offset: offset, BindGroup: bg}
	}
	return nil
}

func (m *Manager) initBaseline() error {
	id, stage, err := m.build("baseline", BaselineShader)
	if err != nil {
		return &InitError{Stage: "baseline " + stage, Err: err}
	}
	m.baseline = id
	return nil
}

func (m *Manager) initScene(s scene.Scene) {
	meta := scene.Lookup(s)
	id, stage, err := m.build("scene_"+meta.Shader, meta.Shader)
	if err != nil {
		ce := CompileError{Scene: s, Stage: stage, Err: err}
		m.failures = append(m.failures, ce)
		m.handles[s] = Handle{Scene: s, Pipeline: m.baseline, Fallback: true}
		logging.Logger().Warn("pipeline: scene program unavailable, using baseline",
			"scene", s.String(), "stage", stage, "err", err)
		return
	}
	m.handles[s] = Handle{Scene: s, Pipeline: id}
}

// build compiles shader and creates its render pipeline. On failure it
// reports the stage that failed.
func (m *Manager) build(label, shader string) (gpucore.RenderPipelineID, string, error) {
	d := m.device

	src, err := Program(shader)
	if err != nil {
		return gpucore.InvalidID, "source", err
	}
	spirv, err := m.cfg.Compiler.Compile(src)
	if err != nil {
		return gpucore.InvalidID, "compile", err
	}
	module, err := d.CreateShaderModule(spirv, label+"_shader")
	if err != nil {
		return gpucore.InvalidID, "module", err
	}
	pipeline, err := d.CreateRenderPipeline(&gpucore.RenderPipelineDesc{
		Label:              label + "_pipeline",
		Layout:             m.pipeLayout,
		Module:             module,
		VertexEntryPoint:   VertexEntryPoint,
		FragmentEntryPoint: FragmentEntryPoint,
		Vertex:             gpucore.VertexLayout{Stride: quadVertexStride},
		Format:             m.cfg.Format,
		Blend:              true,
	})
	if err != nil {
		d.DestroyShaderModule(module)
		return gpucore.InvalidID, "pipeline", err
	}
	m.onDestroy(func() { d.DestroyShaderModule(module) })
	m.onDestroy(func() { d.DestroyRenderPipeline(pipeline) })
	return pipeline, "", nil
}

// Get returns the pipeline handle for s. Scenes outside the catalog get
// the baseline program with Fallback set.
func (m *Manager) Get(s scene.Scene) Handle {
	if !s.Valid() {
		return Handle{Scene: s, Pipeline: m.baseline, Fallback: true}
	}
	return m.handles[s]
}

// Baseline returns the fallback pipeline.
func (m *Manager) Baseline() gpucore.RenderPipelineID { return m.baseline }

// Failures returns the scene programs that fell back to the baseline.
func (m *Manager) Failures() []CompileError {
	return append([]CompileError(nil), m.failures...)
}

// Format returns the color target format pipelines were built for.
func (m *Manager) Format() gpucore.TextureFormat { return m.cfg.Format }

// QuadBuffer returns the shared full-screen quad vertex buffer.
func (m *Manager) QuadBuffer() gpucore.BufferID { return m.quad }

// Slots returns the uniform ring length.
func (m *Manager) Slots() int { return len(m.slots) }

// Slot returns ring entry i modulo the ring length.
func (m *Manager) Slot(i int) Slot {
	n := len(m.slots)
	return m.slots[((i%n)+n)%n]
}

// Stride returns the byte distance between uniform slots.
func (m *Manager) Stride() uint64 { return m.stride }

// UniformBuffer returns the uniform ring buffer.
func (m *Manager) UniformBuffer() gpucore.BufferID { return m.uniforms }

// WriteUniforms copies a uniform block into slot.
func (m *Manager) WriteUniforms(slot Slot, data []byte) error {
	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()
	if closed {
		return ErrClosed
	}
	if uint64(len(data)) > m.stride {
		return fmt.Errorf("pipeline: uniform block of %d bytes exceeds slot stride %d", len(data), m.stride)
	}
	return m.device.WriteBuffer(m.uniforms, slot.Offset, data)
}

// Destroy releases every resource in reverse creation order. It is
// idempotent.
func (m *Manager) Destroy() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	for i := len(m.cleanup) - 1; i >= 0; i-- {
		m.cleanup[i]()
	}
	m.cleanup = nil
}

func alignUp(n, align uint64) uint64 {
	return (n + align - 1) / align * align
}

func quadBytes() []byte {
	buf := make([]byte, 0, QuadVertexCount*quadVertexStride)
	for _, v := range quadVertices {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v[0]))
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v[1]))
	}
	return buf
}
