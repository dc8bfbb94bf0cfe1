// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"fmt"
	"image"

	"github.com/gogpu/dogvision/dichroma"
	"github.com/gogpu/dogvision/gpucore"
)

// Target defines where a frame goes.
//
//   - TextureTarget: offscreen texture owned by the target
//   - ViewTarget: a view supplied by the host, such as the current swapchain
//     image
//   - PixmapTarget: CPU-backed *image.RGBA for the SoftwareRenderer
//
// GPU renderers require a valid TextureView; CPU-only targets return
// gpucore.InvalidID.
type Target interface {
	// TextureView returns the color attachment view, or gpucore.InvalidID
	// for CPU-only targets.
	TextureView() gpucore.TextureViewID

	// Width returns the target width in pixels.
	Width() int

	// Height returns the target height in pixels.
	Height() int
}

// PixmapTarget is a CPU-backed render target using *image.RGBA.
//
// Example:
//
//	target := render.NewPixmapTarget(640, 480)
//	render.NewSoftwareRenderer().Render(target, frame)
//	img := target.Image()
type PixmapTarget struct {
	img *image.RGBA
}

// NewPixmapTarget creates a new CPU-backed render target.
func NewPixmapTarget(width, height int) *PixmapTarget {
	return &PixmapTarget{
		img: image.NewRGBA(image.Rect(0, 0, width, height)),
	}
}

// NewPixmapTargetFromImage wraps an existing *image.RGBA as a render target.
// The image is used directly without copying.
func NewPixmapTargetFromImage(img *image.RGBA) *PixmapTarget {
	return &PixmapTarget{img: img}
}

// Width returns the target width in pixels.
func (t *PixmapTarget) Width() int {
	return t.img.Bounds().Dx()
}

// Height returns the target height in pixels.
func (t *PixmapTarget) Height() int {
	return t.img.Bounds().Dy()
}

// TextureView returns gpucore.InvalidID as this is a CPU-only target.
func (t *PixmapTarget) TextureView() gpucore.TextureViewID {
	return gpucore.InvalidID
}

// Image returns the underlying *image.RGBA.
// The returned image shares memory with the target.
func (t *PixmapTarget) Image() *image.RGBA {
	return t.img
}

// Clear fills the entire target with c.
func (t *PixmapTarget) Clear(c dichroma.RGBA) {
	px := premultiply(c)
	pix := t.img.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i+0] = px.R
		pix[i+1] = px.G
		pix[i+2] = px.B
		pix[i+3] = px.A
	}
}

// Resize replaces the backing image. The contents are not preserved.
func (t *PixmapTarget) Resize(width, height int) {
	t.img = image.NewRGBA(image.Rect(0, 0, width, height))
}

var _ Target = (*PixmapTarget)(nil)

// TextureTarget is an offscreen texture render target owned by the caller.
type TextureTarget struct {
	device gpucore.Device
	width  int
	height int
	format gpucore.TextureFormat
	tex    gpucore.TextureID
	view   gpucore.TextureViewID
}

// NewTextureTarget allocates a width x height texture and its view on
// device.
func NewTextureTarget(device gpucore.Device, width, height int, format gpucore.TextureFormat) (*TextureTarget, error) {
	if device == nil {
		return nil, fmt.Errorf("render: texture target: nil device")
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("render: texture target: invalid size %dx%d", width, height)
	}
	if format == 0 {
		format = gpucore.TextureFormatBGRA8Unorm
	}

	tex, err := device.CreateTexture(&gpucore.TextureDesc{
		Label:  "dogvision_target",
		Width:  uint32(width),  //nolint:gosec // checked positive above
		Height: uint32(height), //nolint:gosec // checked positive above
		Format: format,
		Usage:  gpucore.TextureUsageRenderAttachment | gpucore.TextureUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("render: texture target: %w", err)
	}
	view, err := device.CreateTextureView(tex, "dogvision_target_view")
	if err != nil {
		device.DestroyTexture(tex)
		return nil, fmt.Errorf("render: texture target view: %w", err)
	}
	return &TextureTarget{
		device: device,
		width:  width,
		height: height,
		format: format,
		tex:    tex,
		view:   view,
	}, nil
}

// Width returns the target width in pixels.
func (t *TextureTarget) Width() int {
	return t.width
}

// Height returns the target height in pixels.
func (t *TextureTarget) Height() int {
	return t.height
}

// Format returns the pixel format.
func (t *TextureTarget) Format() gpucore.TextureFormat {
	return t.format
}

// Texture returns the backing texture.
func (t *TextureTarget) Texture() gpucore.TextureID {
	return t.tex
}

// TextureView returns the color attachment view. It is gpucore.InvalidID
// after Destroy.
func (t *TextureTarget) TextureView() gpucore.TextureViewID {
	return t.view
}

// Destroy releases the view and texture. It is safe to call more than once.
func (t *TextureTarget) Destroy() {
	if t.view != gpucore.InvalidID {
		t.device.DestroyTextureView(t.view)
		t.view = gpucore.InvalidID
	}
	if t.tex != gpucore.InvalidID {
		t.device.DestroyTexture(t.tex)
		t.tex = gpucore.InvalidID
	}
}

var _ Target = (*TextureTarget)(nil)

// ViewTarget wraps a texture view owned by the host application, typically
// the current swapchain image. The host keeps ownership of the view.
type ViewTarget struct {
	width  int
	height int
	view   gpucore.TextureViewID
}

// NewViewTarget creates a render target from a host-provided view.
func NewViewTarget(view gpucore.TextureViewID, width, height int) *ViewTarget {
	return &ViewTarget{
		width:  width,
		height: height,
		view:   view,
	}
}

// Width returns the target width in pixels.
func (t *ViewTarget) Width() int {
	return t.width
}

// Height returns the target height in pixels.
func (t *ViewTarget) Height() int {
	return t.height
}

// TextureView returns the host view.
func (t *ViewTarget) TextureView() gpucore.TextureViewID {
	return t.view
}

// SetView swaps in the view for the next frame, for hosts that acquire a new
// swapchain image every frame.
func (t *ViewTarget) SetView(view gpucore.TextureViewID, width, height int) {
	t.view = view
	t.width = width
	t.height = height
}

var _ Target = (*ViewTarget)(nil)
