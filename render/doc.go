// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render turns control snapshots into frames.
//
// Every frame is one full-screen quad drawn with the active scene program.
// The scene itself is procedural: all motion, color and detail come from the
// uniform block, so a frame costs one uniform write and one draw call.
//
// # Frame Flow
//
//	control.State ──PlanFrame──▶ Frame ──BuildUniforms──▶ Uniforms
//	                                │                        │
//	                                ▼                        ▼
//	                        pipeline.Handle          uniform ring slot
//	                                └──────────┬─────────────┘
//	                                           ▼
//	                            BeginRenderPass (clear color)
//	                            SetPipeline / SetVertexBuffer
//	                            SetBindGroup / Draw(4, 1, 0, 0)
//	                            End (submit)
//
// A Frame is resolved from exactly one snapshot, so every value in a frame's
// uniforms belongs to the same control state.
//
// # Transitions
//
// While the controller is transitioning, the palette and clear color blend
// from the source scene to the destination by transition progress. The
// source program is drawn until the midpoint and the destination program
// after it; a brightness dip centered on the midpoint hides the swap.
//
// # Renderers
//
//   - Renderer: GPU path on a gpucore.Device, paced to 20..30 fps
//   - SoftwareRenderer: CPU reference producing *image.RGBA from the same
//     Frame, used for previews and tests
//
// # Targets
//
//   - TextureTarget: offscreen texture created on the device
//   - ViewTarget: a host-provided view, e.g. the current swapchain image
//   - PixmapTarget: CPU-backed *image.RGBA
//
// # Failure Handling
//
// A frame that cannot be encoded or submitted is dropped: RenderFrame logs
// a FrameError at Warn level, counts it in Stats and returns false. The next
// call starts from a clean state.
//
// # Thread Safety
//
// Renderer serializes RenderFrame internally. SoftwareRenderer is safe for
// concurrent use on distinct targets. Targets are not thread-safe.
package render
