// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package halgpu implements gpucore.Device on top of gogpu/wgpu HAL.
//
// A Device is obtained in one of three ways:
//   - Open creates a standalone Vulkan device
//   - OpenHeadless creates a noop device that accepts every command
//   - FromProvider borrows the device and queue of a host application
//     through gpucontext.DeviceProvider
//
// Every render pass is submitted on End and waited on until the queue
// reports the submission complete, bounded by the submit timeout so a frame
// never blocks the caller indefinitely.
package halgpu
