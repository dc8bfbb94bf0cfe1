package gputest

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/gogpu/dogvision/gpucore"
)

func TestRecorderDrawCapturesUniforms(t *testing.T) {
	r := New()
	buf, err := r.CreateBuffer(&gpucore.BufferDesc{Label: "uniforms", Size: 512, Usage: gpucore.BufferUsageUniform})
	if err != nil {
		t.Fatal(err)
	}
	layout, _ := r.CreateBindGroupLayout(&gpucore.BindGroupLayoutDesc{Label: "layout"})
	bg, err := r.CreateBindGroup(&gpucore.BindGroupDesc{
		Layout:  layout,
		Entries: []gpucore.BindGroupEntry{{Buffer: buf, Offset: 256, Size: 8}},
	})
	if err != nil {
		t.Fatal(err)
	}
	data := make([]byte, 8)
	binary.LittleEndian.PutUint32(data, 42)
	if err := r.WriteBuffer(buf, 256, data); err != nil {
		t.Fatal(err)
	}
	tex, _ := r.CreateTexture(&gpucore.TextureDesc{Width: 4, Height: 4})
	view, _ := r.CreateTextureView(tex, "view")

	pass, err := r.BeginRenderPass(&gpucore.RenderPassDesc{View: view, ClearColor: [4]float64{1, 0, 0, 1}})
	if err != nil {
		t.Fatal(err)
	}
	pass.SetBindGroup(0, bg)
	pass.Draw(4, 1, 0, 0)
	if err := pass.End(); err != nil {
		t.Fatal(err)
	}
	if err := pass.End(); err == nil {
		t.Error("second End should fail")
	}

	p, ok := r.LastPass()
	if !ok || !p.Submitted || len(p.Draws) != 1 {
		t.Fatalf("unexpected pass %+v", p)
	}
	if got := binary.LittleEndian.Uint32(p.Draws[0].Uniforms); got != 42 {
		t.Errorf("uniform = %d, want 42", got)
	}
	if p.Desc.ClearColor != [4]float64{1, 0, 0, 1} {
		t.Errorf("clear = %v", p.Desc.ClearColor)
	}
}

func TestRecorderInjectedFailures(t *testing.T) {
	r := New()
	r.FailLabel("scene-", nil)
	if _, err := r.CreateRenderPipeline(&gpucore.RenderPipelineDesc{Label: "scene-ocean"}); !errors.Is(err, ErrInjected) {
		t.Errorf("err = %v, want ErrInjected", err)
	}
	if _, err := r.CreateRenderPipeline(&gpucore.RenderPipelineDesc{Label: "baseline"}); err != nil {
		t.Errorf("unexpected err %v", err)
	}
	r.Fail("CreateBuffer", nil)
	if _, err := r.CreateBuffer(&gpucore.BufferDesc{Size: 4}); err == nil {
		t.Error("expected CreateBuffer failure")
	}
	r.Heal()
	if _, err := r.CreateBuffer(&gpucore.BufferDesc{Size: 4}); err != nil {
		t.Errorf("after Heal: %v", err)
	}
}

func TestRecorderWriteOverflow(t *testing.T) {
	r := New()
	buf, _ := r.CreateBuffer(&gpucore.BufferDesc{Size: 4})
	if err := r.WriteBuffer(buf, 2, []byte{1, 2, 3}); err == nil {
		t.Error("expected overflow error")
	}
}

func TestRecorderDestroyOrder(t *testing.T) {
	r := New()
	a, _ := r.CreateBuffer(&gpucore.BufferDesc{Size: 4})
	b, _ := r.CreateBuffer(&gpucore.BufferDesc{Size: 4})
	r.DestroyBuffer(b)
	r.DestroyBuffer(a)
	r.DestroyBuffer(a)
	got := r.Destroyed()
	if len(got) != 2 || got[0] != uint64(b) || got[1] != uint64(a) {
		t.Errorf("destroyed = %v", got)
	}
	if r.Live() != 0 {
		t.Errorf("live = %d", r.Live())
	}
}
