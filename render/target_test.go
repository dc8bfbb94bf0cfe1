// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/dogvision/dichroma"
	"github.com/gogpu/dogvision/gpucore"
	"github.com/gogpu/dogvision/internal/gputest"
)

func TestNewPixmapTarget(t *testing.T) {
	tests := []struct {
		name   string
		width  int
		height int
	}{
		{"small", 100, 100},
		{"medium", 800, 600},
		{"wide", 1000, 100},
		{"tall", 100, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := NewPixmapTarget(tt.width, tt.height)
			if target.Width() != tt.width || target.Height() != tt.height {
				t.Errorf("size = %dx%d, want %dx%d", target.Width(), target.Height(), tt.width, tt.height)
			}
			if target.TextureView() != gpucore.InvalidID {
				t.Error("PixmapTarget reported a texture view")
			}
			if len(target.Image().Pix) != tt.width*tt.height*4 {
				t.Errorf("len(Pix) = %d", len(target.Image().Pix))
			}
		})
	}
}

func TestPixmapTargetFromImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	target := NewPixmapTargetFromImage(img)
	if target.Image() != img {
		t.Error("image was copied")
	}
	target.Clear(dichroma.RGB(1, 0, 0))
	if got := img.RGBAAt(2, 1); got != (color.RGBA{R: 255, A: 255}) {
		t.Errorf("pixel = %v, want opaque red", got)
	}
}

func TestPixmapTargetResize(t *testing.T) {
	target := NewPixmapTarget(4, 4)
	target.Resize(10, 2)
	if target.Width() != 10 || target.Height() != 2 {
		t.Errorf("size = %dx%d, want 10x2", target.Width(), target.Height())
	}
}

func TestTextureTarget(t *testing.T) {
	rec := gputest.New()
	target, err := NewTextureTarget(rec, 320, 200, 0)
	if err != nil {
		t.Fatalf("NewTextureTarget: %v", err)
	}
	if target.Format() != gpucore.TextureFormatBGRA8Unorm {
		t.Errorf("Format = %s, want default bgra8unorm", target.Format())
	}
	if target.TextureView() == gpucore.InvalidID || target.Texture() == gpucore.InvalidID {
		t.Fatal("invalid texture or view")
	}
	if rec.LiveKind("texture") != 1 || rec.LiveKind("view") != 1 {
		t.Errorf("live textures/views = %d/%d, want 1/1", rec.LiveKind("texture"), rec.LiveKind("view"))
	}

	target.Destroy()
	target.Destroy()
	if rec.Live() != 0 {
		t.Errorf("Live = %d after Destroy, want 0", rec.Live())
	}
	if target.TextureView() != gpucore.InvalidID {
		t.Error("view still reported after Destroy")
	}
}

func TestTextureTargetErrors(t *testing.T) {
	if _, err := NewTextureTarget(nil, 8, 8, 0); err == nil {
		t.Error("nil device: want error")
	}

	rec := gputest.New()
	for _, size := range [][2]int{{0, 8}, {8, 0}, {-1, 4}} {
		if _, err := NewTextureTarget(rec, size[0], size[1], 0); err == nil {
			t.Errorf("size %v: want error", size)
		}
	}

	rec.FailLabel("_view", nil)
	_, err := NewTextureTarget(rec, 8, 8, gpucore.TextureFormatRGBA8Unorm)
	if !errors.Is(err, gputest.ErrInjected) {
		t.Fatalf("err = %v, want ErrInjected", err)
	}
	if rec.Live() != 0 {
		t.Errorf("Live = %d after failed view, want 0", rec.Live())
	}
}

func TestViewTarget(t *testing.T) {
	target := NewViewTarget(7, 640, 480)
	if target.TextureView() != 7 || target.Width() != 640 || target.Height() != 480 {
		t.Errorf("target = %+v", target)
	}
	target.SetView(9, 800, 600)
	if target.TextureView() != 9 || target.Width() != 800 || target.Height() != 600 {
		t.Errorf("after SetView = %+v", target)
	}
}
