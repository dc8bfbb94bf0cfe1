package gpucore

// Resource IDs
//
// These opaque IDs represent GPU resources. Each device implementation
// maintains a mapping between IDs and actual backend resources.
// IDs are uint64 to accommodate various backend handle sizes.

// BufferID is an opaque handle to a GPU buffer.
type BufferID uint64

// TextureID is an opaque handle to a GPU texture.
type TextureID uint64

// TextureViewID is an opaque handle to a texture view usable as a color
// attachment.
type TextureViewID uint64

// ShaderModuleID is an opaque handle to a compiled shader module.
type ShaderModuleID uint64

// RenderPipelineID is an opaque handle to a render pipeline.
type RenderPipelineID uint64

// BindGroupLayoutID is an opaque handle to a bind group layout.
type BindGroupLayoutID uint64

// BindGroupID is an opaque handle to a bind group.
type BindGroupID uint64

// PipelineLayoutID is an opaque handle to a pipeline layout.
type PipelineLayoutID uint64

// InvalidID is the zero value, representing an invalid/null resource.
const InvalidID = 0

// BufferUsage is a bitmask specifying how a buffer will be used.
type BufferUsage uint32

// Buffer usage flags.
const (
	// BufferUsageCopySrc indicates the buffer can be used as a copy source.
	BufferUsageCopySrc BufferUsage = 1 << 0

	// BufferUsageCopyDst indicates the buffer can be used as a copy destination.
	BufferUsageCopyDst BufferUsage = 1 << 1

	// BufferUsageVertex indicates the buffer can be used as a vertex buffer.
	BufferUsageVertex BufferUsage = 1 << 2

	// BufferUsageUniform indicates the buffer can be used as a uniform buffer.
	BufferUsageUniform BufferUsage = 1 << 3
)

// TextureFormat specifies the format of texture data.
type TextureFormat uint32

// Texture formats.
const (
	// TextureFormatBGRA8Unorm is 8-bit BGRA, normalized unsigned integer.
	// This is the usual swapchain format and the default target format.
	TextureFormatBGRA8Unorm TextureFormat = iota + 1

	// TextureFormatRGBA8Unorm is 8-bit RGBA, normalized unsigned integer.
	TextureFormatRGBA8Unorm
)

// String returns the format name.
func (f TextureFormat) String() string {
	switch f {
	case TextureFormatBGRA8Unorm:
		return "bgra8unorm"
	case TextureFormatRGBA8Unorm:
		return "rgba8unorm"
	default:
		return "unknown"
	}
}

// TextureUsage is a bitmask specifying how a texture will be used.
type TextureUsage uint32

// Texture usage flags.
const (
	// TextureUsageCopySrc indicates the texture can be used as a copy source.
	TextureUsageCopySrc TextureUsage = 1 << 0

	// TextureUsageRenderAttachment indicates the texture can be used as a render target.
	TextureUsageRenderAttachment TextureUsage = 1 << 1
)

// ShaderStage is a bitmask of shader stages that can see a binding.
type ShaderStage uint32

// Shader stages.
const (
	ShaderStageVertex   ShaderStage = 1 << 0
	ShaderStageFragment ShaderStage = 1 << 1
)

// BufferDesc describes a buffer.
type BufferDesc struct {
	Label string
	Size  uint64
	Usage BufferUsage
}

// TextureDesc describes a 2D texture.
type TextureDesc struct {
	Label  string
	Width  uint32
	Height uint32
	Format TextureFormat
	Usage  TextureUsage
}

// BindGroupLayoutDesc describes a bind group layout.
type BindGroupLayoutDesc struct {
	// Label is an optional debug label.
	Label string

	// Entries defines the bindings in this layout.
	Entries []BindGroupLayoutEntry
}

// BindGroupLayoutEntry describes a uniform buffer binding in a layout.
type BindGroupLayoutEntry struct {
	// Binding is the binding index.
	Binding uint32

	// Visibility lists the stages that read the binding.
	Visibility ShaderStage
}

// BindGroupEntry describes a single buffer binding in a bind group.
type BindGroupEntry struct {
	// Binding is the binding index.
	Binding uint32

	// Buffer is the buffer to bind.
	Buffer BufferID

	// Offset is the offset into the buffer.
	Offset uint64

	// Size is the size of the buffer range to bind.
	// Use 0 to bind the entire buffer from offset.
	Size uint64
}

// BindGroupDesc describes a bind group.
type BindGroupDesc struct {
	// Label is an optional debug label.
	Label string

	// Layout is the bind group layout.
	Layout BindGroupLayoutID

	// Entries are the resource bindings.
	Entries []BindGroupEntry
}

// VertexLayout describes a single interleaved vertex buffer holding
// float32x2 positions at shader location 0.
type VertexLayout struct {
	// Stride is the byte distance between vertices.
	Stride uint64
}

// RenderPipelineDesc describes a render pipeline drawing a triangle strip
// into one color target.
type RenderPipelineDesc struct {
	Label string

	Layout PipelineLayoutID

	// Module holds both entry points.
	Module ShaderModuleID

	VertexEntryPoint   string
	FragmentEntryPoint string

	Vertex VertexLayout

	// Format is the color target format.
	Format TextureFormat

	// Blend enables premultiplied alpha blending on the color target.
	Blend bool
}

// RenderPassDesc describes a render pass with a single color attachment
// that is cleared at the start of the pass.
type RenderPassDesc struct {
	Label string

	View TextureViewID

	// ClearColor is RGBA in [0,1].
	ClearColor [4]float64
}

// Limits reports device limits relevant to uniform ring buffers.
type Limits struct {
	// MinUniformBufferOffsetAlignment is the required alignment of a
	// uniform binding offset.
	MinUniformBufferOffsetAlignment uint64
}

// DefaultUniformAlignment is the portable uniform offset alignment.
const DefaultUniformAlignment = 256
