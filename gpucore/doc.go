// Package gpucore defines the GPU device abstraction used by the dogvision
// render pipeline.
//
// The [Device] interface abstracts over backend implementations so the
// pipeline manager and frame renderer can run against:
//   - gogpu/wgpu HAL devices (Vulkan, or the noop backend for headless runs)
//   - devices shared by a host through gpucontext.DeviceProvider
//   - in-memory recorders used by tests
//
// # Resource Management
//
// GPU resources are managed via opaque IDs ([BufferID], [RenderPipelineID],
// etc.). Implementations map IDs to backend resources. The zero ID is
// invalid and never returned by a successful Create call.
//
// # Frame Encoding
//
// A frame is a single render pass:
//
//	pass, err := dev.BeginRenderPass(&gpucore.RenderPassDesc{
//	    Label:      "frame",
//	    View:       target.TextureView(),
//	    ClearColor: [4]float64{0.02, 0.08, 0.25, 1},
//	})
//	if err != nil {
//	    return err
//	}
//	pass.SetPipeline(pipeline)
//	pass.SetVertexBuffer(0, quad, 0)
//	pass.SetBindGroup(0, group)
//	pass.Draw(4, 1, 0, 0)
//	return pass.End() // submits
package gpucore
