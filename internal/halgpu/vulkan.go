// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package halgpu

// Registers the Vulkan backend with hal.GetBackend.
import _ "github.com/gogpu/wgpu/hal/vulkan"
