// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package halgpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/dogvision/gpucore"
	"github.com/gogpu/dogvision/internal/logging"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// ErrNoAdapter is returned when a backend reports no usable adapter.
var ErrNoAdapter = errors.New("halgpu: no GPU adapters found")

// Open creates a standalone Vulkan device. It prefers a discrete or
// integrated GPU over software adapters.
func Open() (*Device, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("halgpu: vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("halgpu: create instance: %w", err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoAdapter
	}

	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("halgpu: open device: %w", err)
	}

	logging.Logger().Info("halgpu: GPU initialized", "adapter", selected.Info.Name)
	d := newDevice(openDev.Device, openDev.Queue, gpucore.TextureFormatBGRA8Unorm)
	d.instance = instance
	d.owned = true
	return d, nil
}

// OpenHeadless creates a device on the noop backend. Every command
// succeeds without touching real hardware, which makes it suitable for
// tests and for driving the pipeline on machines without a GPU.
func OpenHeadless() (*Device, error) {
	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		return nil, fmt.Errorf("halgpu: create noop instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoAdapter
	}
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("halgpu: open noop device: %w", err)
	}

	logging.Logger().Debug("halgpu: headless device opened")
	d := newDevice(openDev.Device, openDev.Queue, gpucore.TextureFormatBGRA8Unorm)
	d.instance = instance
	d.owned = true
	return d, nil
}

// FromProvider wraps the device shared by a host. The provider must also
// expose HalDevice() any and HalQueue() any returning hal.Device and
// hal.Queue. The host keeps ownership; Close releases only resources the
// Device created.
func FromProvider(provider gpucontext.DeviceProvider) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	if provider == nil {
		return nil, fmt.Errorf("halgpu: nil device provider")
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("halgpu: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("halgpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("halgpu: provider HalQueue is not hal.Queue")
	}

	format := formatFromGPU(provider.SurfaceFormat())
	logging.Logger().Debug("halgpu: using shared GPU device", "format", format)
	return newDevice(device, queue, format), nil
}

func formatFromGPU(f gputypes.TextureFormat) gpucore.TextureFormat {
	if f == gputypes.TextureFormatRGBA8Unorm {
		return gpucore.TextureFormatRGBA8Unorm
	}
	return gpucore.TextureFormatBGRA8Unorm
}

func formatToGPU(f gpucore.TextureFormat) gputypes.TextureFormat {
	if f == gpucore.TextureFormatRGBA8Unorm {
		return gputypes.TextureFormatRGBA8Unorm
	}
	return gputypes.TextureFormatBGRA8Unorm
}
