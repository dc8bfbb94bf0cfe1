// Package gpu opens GPU devices for the dogvision generator.
//
// Three sources are supported:
//
//	dev, err := gpu.Open()           // standalone Vulkan device
//	dev, err := gpu.OpenHeadless()   // noop backend, no hardware needed
//	dev, err := gpu.FromProvider(p)  // device shared by a gogpu host
//
// Every returned Device implements gpucore.Device and must be closed by
// the caller.
package gpu

import (
	"time"

	"github.com/gogpu/dogvision/gpucore"
	"github.com/gogpu/dogvision/internal/halgpu"
	"github.com/gogpu/gpucontext"
)

// Device is a GPU device usable by dogvision.New.
type Device interface {
	gpucore.Device

	// SurfaceFormat is the preferred color target format.
	SurfaceFormat() gpucore.TextureFormat

	// SetSubmitTimeout bounds the wait after each submitted frame.
	SetSubmitTimeout(time.Duration)

	// Close releases the device. Shared devices are left to their host.
	Close()
}

// ErrNoAdapter is returned when the backend reports no usable adapter.
var ErrNoAdapter = halgpu.ErrNoAdapter

// Open creates a standalone Vulkan device.
func Open() (Device, error) {
	d, err := halgpu.Open()
	if err != nil {
		return nil, err
	}
	return d, nil
}

// OpenHeadless creates a device on the noop backend.
func OpenHeadless() (Device, error) {
	d, err := halgpu.OpenHeadless()
	if err != nil {
		return nil, err
	}
	return d, nil
}

// FromProvider wraps a device shared by a host application (e.g., gogpu).
// The provider must also expose HalDevice() any and HalQueue() any.
func FromProvider(provider gpucontext.DeviceProvider) (Device, error) {
	d, err := halgpu.FromProvider(provider)
	if err != nil {
		return nil, err
	}
	return d, nil
}
