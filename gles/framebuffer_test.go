// Copyright 2024 The GLOVE Authors. All rights reserved.

package gles

import (
	"testing"

	"github.com/kimberly990/GLOVE/driver"
	"github.com/kimberly990/GLOVE/driver/soft"
	"github.com/kimberly990/GLOVE/wsi"
)

func testContext(t *testing.T) (*Context, *soft.GPU) {
	t.Helper()
	var d soft.Driver
	gpu, err := d.Open()
	if err != nil {
		t.Fatalf("Driver.Open failed: %v", err)
	}
	ctx, err := NewContext(gpu)
	if err != nil {
		t.Fatalf("NewContext failed: %v", err)
	}
	return ctx, gpu.(*soft.GPU)
}

func newTestTexture(t *testing.T, ctx *Context, format Format, width, height int) *Texture {
	t.Helper()
	tex, err := NewTexture(ctx, &TexParam{Format: format, Width: width, Height: height})
	if err != nil {
		t.Fatalf("NewTexture failed: %v", err)
	}
	return tex
}

func TestCheckStatus(t *testing.T) {
	ctx, _ := testContext(t)
	defer ctx.Free()

	cases := []struct {
		name  string
		setup func(f *Framebuffer, ts *TextureStore, rs *RenderbufferStore)
		want  Status
	}{
		{
			"no attachments",
			func(f *Framebuffer, ts *TextureStore, rs *RenderbufferStore) {},
			IncompleteMissingAttachment,
		},
		{
			"color texture",
			func(f *Framebuffer, ts *TextureStore, rs *RenderbufferStore) {
				f.Attach(PointColor, AttachTexture, ts.Add(newTestTexture(t, ctx, RGBA8, 8, 8)))
			},
			Complete,
		},
		{
			"color renderbuffer",
			func(f *Framebuffer, ts *TextureStore, rs *RenderbufferStore) {
				rb := NewRenderbuffer(ctx)
				if err := rb.Storage(RGBA4, 8, 8); err != nil {
					t.Fatalf("Renderbuffer.Storage failed: %v", err)
				}
				f.Attach(PointColor, AttachRenderbuffer, rs.Add(rb))
			},
			Complete,
		},
		{
			"depth only",
			func(f *Framebuffer, ts *TextureStore, rs *RenderbufferStore) {
				f.Attach(PointDepth, AttachTexture, ts.Add(newTestTexture(t, ctx, Depth24, 8, 8)))
			},
			Complete,
		},
		{
			"color not renderable",
			func(f *Framebuffer, ts *TextureStore, rs *RenderbufferStore) {
				f.Attach(PointColor, AttachTexture, ts.Add(newTestTexture(t, ctx, Depth16, 8, 8)))
			},
			IncompleteAttachment,
		},
		{
			"dangling name",
			func(f *Framebuffer, ts *TextureStore, rs *RenderbufferStore) {
				name := ts.Add(newTestTexture(t, ctx, RGBA8, 8, 8))
				f.Attach(PointColor, AttachTexture, name)
				ts.Remove(name)
				f.CleanCachedAttachment(PointColor)
			},
			IncompleteAttachment,
		},
		{
			"dimension mismatch",
			func(f *Framebuffer, ts *TextureStore, rs *RenderbufferStore) {
				f.Attach(PointColor, AttachTexture, ts.Add(newTestTexture(t, ctx, RGBA8, 8, 8)))
				f.Attach(PointDepth, AttachTexture, ts.Add(newTestTexture(t, ctx, Depth24, 4, 4)))
			},
			IncompleteDimensions,
		},
		{
			"attachment fault before dimensions",
			func(f *Framebuffer, ts *TextureStore, rs *RenderbufferStore) {
				f.Attach(PointColor, AttachTexture, ts.Add(newTestTexture(t, ctx, Depth16, 8, 8)))
				f.Attach(PointDepth, AttachTexture, ts.Add(newTestTexture(t, ctx, Depth24, 4, 4)))
			},
			IncompleteAttachment,
		},
	}
	for _, c := range cases {
		ts := NewTextureStore()
		rs := NewRenderbufferStore()
		f := NewFramebuffer(ctx, ts, rs)
		c.setup(f, ts, rs)
		if s := f.CheckStatus(); s != c.want {
			t.Fatalf("%s: CheckStatus\nhave %v\nwant %v", c.name, s, c.want)
		}
	}
}

func TestPrepareRenderPassReuse(t *testing.T) {
	ctx, _ := testContext(t)
	defer ctx.Free()
	ts := NewTextureStore()
	rs := NewRenderbufferStore()
	f := NewFramebuffer(ctx, ts, rs)
	defer f.Free()
	f.Attach(PointColor, AttachTexture, ts.Add(newTestTexture(t, ctx, RGBA8, 8, 8)))

	p := PassParam{
		ClearColor: true,
		WriteColor: true,
		ColorValue: [4]float32{1, 0, 0, 1},
		Area:       Rect{0, 0, 8, 8},
	}
	if err := f.PrepareRenderPass(&p); err != nil {
		t.Fatalf("PrepareRenderPass failed: %v", err)
	}
	if len(f.fbs) != 1 {
		t.Fatalf("native framebuffers\nhave %d\nwant 1", len(f.fbs))
	}
	pass, fb := f.pass, f.fbs[0]

	// Changing clear value and area must not rebuild.
	p.ColorValue = [4]float32{0, 1, 0, 1}
	p.Area = Rect{1, 1, 2, 2}
	if err := f.PrepareRenderPass(&p); err != nil {
		t.Fatalf("PrepareRenderPass failed: %v", err)
	}
	if f.pass != pass || f.fbs[0] != fb {
		t.Fatal("rebuilt native objects without a state change")
	}
	if f.clearArea != (driver.Scissor{X: 1, Y: 1, Width: 2, Height: 2}) {
		t.Fatalf("clear area not refreshed\nhave %v", f.clearArea)
	}
	if f.clearValues[0].Color != p.ColorValue {
		t.Fatalf("clear value not refreshed\nhave %v\nwant %v", f.clearValues[0].Color, p.ColorValue)
	}

	// Changing a write flag must rebuild.
	p.WriteColor = false
	if err := f.PrepareRenderPass(&p); err != nil {
		t.Fatalf("PrepareRenderPass failed: %v", err)
	}
	if f.pass == pass {
		t.Fatal("render pass not rebuilt on flag change")
	}

	// Rebinding the attachment must rebuild.
	pass = f.pass
	f.Attach(PointColor, AttachTexture, ts.Add(newTestTexture(t, ctx, RGBA8, 8, 8)))
	if err := f.PrepareRenderPass(&p); err != nil {
		t.Fatalf("PrepareRenderPass failed: %v", err)
	}
	if f.pass == pass {
		t.Fatal("render pass not rebuilt on attachment change")
	}
}

func TestPrepareRenderPassFailureRetry(t *testing.T) {
	ctx, gpu := testContext(t)
	defer ctx.Free()
	ts := NewTextureStore()
	rs := NewRenderbufferStore()
	f := NewFramebuffer(ctx, ts, rs)
	defer f.Free()
	f.Attach(PointColor, AttachTexture, ts.Add(newTestTexture(t, ctx, RGBA8, 8, 8)))

	p := PassParam{WriteColor: true, Area: Rect{0, 0, 8, 8}}
	gpu.FailFB(1)
	if err := f.PrepareRenderPass(&p); err != driver.ErrNoDeviceMemory {
		t.Fatalf("PrepareRenderPass\nhave %v\nwant %v", err, driver.ErrNoDeviceMemory)
	}
	if len(f.fbs) != 0 {
		t.Fatalf("partial native framebuffers kept after failure: %d", len(f.fbs))
	}
	if err := f.PrepareRenderPass(&p); err != nil {
		t.Fatalf("PrepareRenderPass retry failed: %v", err)
	}
	if len(f.fbs) != 1 {
		t.Fatalf("native framebuffers after retry\nhave %d\nwant 1", len(f.fbs))
	}
}

func TestCheckForUpdatedResources(t *testing.T) {
	ctx, _ := testContext(t)
	defer ctx.Free()
	ts := NewTextureStore()
	rs := NewRenderbufferStore()
	f := NewFramebuffer(ctx, ts, rs)
	defer f.Free()
	tex := newTestTexture(t, ctx, RGBA8, 8, 8)
	f.Attach(PointColor, AttachTexture, ts.Add(tex))

	p := PassParam{WriteColor: true, Area: Rect{0, 0, 8, 8}}
	if err := f.PrepareRenderPass(&p); err != nil {
		t.Fatalf("PrepareRenderPass failed: %v", err)
	}
	pass := f.pass

	f.CheckForUpdatedResources()
	if err := f.PrepareRenderPass(&p); err != nil {
		t.Fatalf("PrepareRenderPass failed: %v", err)
	}
	if f.pass != pass {
		t.Fatal("rebuilt native objects without a resource update")
	}

	tex.MarkDataUpdated()
	f.CheckForUpdatedResources()
	if err := f.PrepareRenderPass(&p); err != nil {
		t.Fatalf("PrepareRenderPass failed: %v", err)
	}
	if f.pass == pass {
		t.Fatal("render pass not rebuilt after texel update")
	}
}

func TestRenderPassClear(t *testing.T) {
	ctx, _ := testContext(t)
	defer ctx.Free()
	ts := NewTextureStore()
	rs := NewRenderbufferStore()
	f := NewFramebuffer(ctx, ts, rs)
	defer f.Free()
	tex := newTestTexture(t, ctx, RGBA8, 4, 4)
	f.Attach(PointColor, AttachTexture, ts.Add(tex))

	p := PassParam{
		ClearColor: true,
		WriteColor: true,
		ColorValue: [4]float32{1, 0, 0, 1},
		Area:       Rect{0, 0, 4, 4},
	}
	if err := f.PrepareRenderPass(&p); err != nil {
		t.Fatalf("PrepareRenderPass failed: %v", err)
	}
	if err := f.BeginRenderPass(); err != nil {
		t.Fatalf("BeginRenderPass failed: %v", err)
	}
	if !f.IsInDrawState() {
		t.Fatal("not in draw state after BeginRenderPass")
	}
	if !f.EndRenderPass() {
		t.Fatal("EndRenderPass outside draw state")
	}
	if f.EndRenderPass() {
		t.Fatal("EndRenderPass succeeded twice")
	}
	if err := ctx.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	dst := make([]byte, 4*4*4)
	if err := tex.readPixels(Rect{0, 0, 4, 4}, false, 4, dst); err != nil {
		t.Fatalf("readPixels failed: %v", err)
	}
	for i := 0; i < len(dst); i += 4 {
		if dst[i] != 0xff || dst[i+1] != 0 || dst[i+2] != 0 || dst[i+3] != 0xff {
			t.Fatalf("texel %d\nhave %v\nwant [255 0 0 255]", i/4, dst[i:i+4])
		}
	}
}

func TestSystemFramebuffer(t *testing.T) {
	ctx, _ := testContext(t)
	defer ctx.Free()
	surf, err := wsi.New(wsi.Config{
		Platform:   wsi.Offscreen,
		Width:      16,
		Height:     16,
		ImageCount: 3,
	}, ctx.GPU())
	if err != nil {
		t.Fatalf("wsi.New failed: %v", err)
	}
	defer surf.Free()

	f, err := NewSystemFramebuffer(ctx, surf, 24, 8)
	if err != nil {
		t.Fatalf("NewSystemFramebuffer failed: %v", err)
	}
	if !f.IsSystem() {
		t.Fatal("IsSystem is false")
	}
	if surf.DepthStencilView() == nil {
		t.Fatal("depth/stencil view not registered with the surface")
	}
	if s := f.CheckStatus(); s != Complete {
		t.Fatalf("CheckStatus\nhave %v\nwant %v", s, Complete)
	}

	p := PassParam{
		ClearColor: true,
		ClearDepth: true,
		WriteColor: true,
		WriteDepth: true,
		Area:       Rect{0, 0, 16, 16},
	}
	if err := f.PrepareRenderPass(&p); err != nil {
		t.Fatalf("PrepareRenderPass failed: %v", err)
	}
	if len(f.fbs) != 3 {
		t.Fatalf("native framebuffers\nhave %d\nwant 3", len(f.fbs))
	}
	fb0 := f.fbs[0]
	if f.bufferIndex() != 0 {
		t.Fatalf("buffer index\nhave %d\nwant 0", f.bufferIndex())
	}

	// Rotating the swap image must retarget without
	// rebuilding.
	if _, err := surf.Advance(); err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	if err := f.PrepareRenderPass(&p); err != nil {
		t.Fatalf("PrepareRenderPass failed: %v", err)
	}
	if f.fbs[0] != fb0 {
		t.Fatal("rebuilt native objects on swap image rotation")
	}
	if f.bufferIndex() != surf.ImageIndex() {
		t.Fatalf("buffer index\nhave %d\nwant %d", f.bufferIndex(), surf.ImageIndex())
	}

	if err := f.BeginRenderPass(); err != nil {
		t.Fatalf("BeginRenderPass failed: %v", err)
	}
	f.EndRenderPass()
	if err := ctx.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	f.Free()
	if surf.DepthStencilView() != nil {
		t.Fatal("depth/stencil view still registered after Free")
	}
}
