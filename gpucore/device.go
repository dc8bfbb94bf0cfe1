package gpucore

// Device abstracts over different GPU backend implementations.
//
// This interface is the core abstraction that allows the render pipeline
// to work with multiple backends. Implementations must be safe for
// concurrent use.
//
// Resource lifecycle:
//   - Resources are created via Create* methods
//   - Resources must be explicitly destroyed via Destroy* methods
//   - Destroying a resource while in use is undefined behavior
//   - IDs become invalid after destruction and are not reused
type Device interface {
	// Limits returns the device limits.
	Limits() Limits

	// CreateShaderModule creates a shader module from SPIR-V bytecode.
	// The SPIR-V is compiled by naga before being passed here.
	CreateShaderModule(spirv []uint32, label string) (ShaderModuleID, error)

	// DestroyShaderModule releases a shader module.
	DestroyShaderModule(id ShaderModuleID)

	// CreateBuffer creates a GPU buffer.
	CreateBuffer(desc *BufferDesc) (BufferID, error)

	// DestroyBuffer releases a GPU buffer.
	DestroyBuffer(id BufferID)

	// WriteBuffer writes data to a buffer at offset. The data is copied
	// before WriteBuffer returns.
	WriteBuffer(id BufferID, offset uint64, data []byte) error

	// CreateTexture creates a 2D texture.
	CreateTexture(desc *TextureDesc) (TextureID, error)

	// DestroyTexture releases a texture.
	DestroyTexture(id TextureID)

	// CreateTextureView creates a full view of a texture.
	CreateTextureView(tex TextureID, label string) (TextureViewID, error)

	// DestroyTextureView releases a texture view.
	DestroyTextureView(id TextureViewID)

	// CreateBindGroupLayout creates a bind group layout.
	CreateBindGroupLayout(desc *BindGroupLayoutDesc) (BindGroupLayoutID, error)

	// DestroyBindGroupLayout releases a bind group layout.
	DestroyBindGroupLayout(id BindGroupLayoutID)

	// CreatePipelineLayout creates a pipeline layout from bind group layouts.
	CreatePipelineLayout(layouts []BindGroupLayoutID, label string) (PipelineLayoutID, error)

	// DestroyPipelineLayout releases a pipeline layout.
	DestroyPipelineLayout(id PipelineLayoutID)

	// CreateRenderPipeline creates a render pipeline.
	CreateRenderPipeline(desc *RenderPipelineDesc) (RenderPipelineID, error)

	// DestroyRenderPipeline releases a render pipeline.
	DestroyRenderPipeline(id RenderPipelineID)

	// CreateBindGroup creates a bind group.
	CreateBindGroup(desc *BindGroupDesc) (BindGroupID, error)

	// DestroyBindGroup releases a bind group.
	DestroyBindGroup(id BindGroupID)

	// BeginRenderPass begins encoding a render pass. The returned encoder
	// must be ended with RenderPassEncoder.End, which submits the work.
	BeginRenderPass(desc *RenderPassDesc) (RenderPassEncoder, error)
}

// RenderPassEncoder records draw commands for one pass.
type RenderPassEncoder interface {
	// SetPipeline sets the active render pipeline.
	SetPipeline(id RenderPipelineID)

	// SetBindGroup binds a bind group at index.
	SetBindGroup(index uint32, id BindGroupID)

	// SetVertexBuffer binds a vertex buffer to slot.
	SetVertexBuffer(slot uint32, id BufferID, offset uint64)

	// Draw issues a non-indexed draw.
	Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32)

	// End finishes the pass and submits it to the queue. The encoder must
	// not be used afterwards.
	End() error
}
