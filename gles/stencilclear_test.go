// Copyright 2024 The GLOVE Authors. All rights reserved.

package gles

import (
	"bytes"
	"testing"
)

func TestClearStencilMasked(t *testing.T) {
	ctx, _ := testContext(t)
	defer ctx.Free()
	ts := NewTextureStore()
	rs := NewRenderbufferStore()

	f := NewFramebuffer(ctx, ts, rs)
	defer f.Free()
	name := ts.Add(newTestTexture(t, ctx, Depth24Stencil8, 4, 4))
	f.Attach(PointDepth, AttachTexture, name)
	f.Attach(PointStencil, AttachTexture, name)
	p := PassParam{WriteDepth: true, WriteStencil: true, Area: Rect{0, 0, 4, 4}}
	if err := f.PrepareRenderPass(&p); err != nil {
		t.Fatalf("PrepareRenderPass failed: %v", err)
	}
	st := f.depthStencil.tex

	// Seed every texel with known depth bytes and stencil
	// 0xaa.
	seed := bytes.Repeat([]byte{0x11, 0x22, 0x33, 0xaa}, 16)
	if err := st.writePixels(Rect{0, 0, 4, 4}, false, 4, seed); err != nil {
		t.Fatalf("writePixels failed: %v", err)
	}

	if err := f.ClearStencilMasked(0x05, 0x0f, Rect{0, 0, 4, 4}); err != nil {
		t.Fatalf("ClearStencilMasked failed: %v", err)
	}

	out := make([]byte, len(seed))
	if err := st.readPixels(Rect{0, 0, 4, 4}, false, 4, out); err != nil {
		t.Fatalf("readPixels failed: %v", err)
	}
	for i := 0; i < len(out); i += 4 {
		if out[i] != 0x11 || out[i+1] != 0x22 || out[i+2] != 0x33 {
			t.Fatalf("texel %d: depth bytes modified: %v", i/4, out[i:i+4])
		}
		// 0x05 | 0xaa&^0x0f
		if out[i+3] != 0xa5 {
			t.Fatalf("texel %d: stencil byte\nhave %#02x\nwant 0xa5", i/4, out[i+3])
		}
	}
}

func TestClearStencilMaskedSubregion(t *testing.T) {
	ctx, _ := testContext(t)
	defer ctx.Free()
	ts := NewTextureStore()
	rs := NewRenderbufferStore()

	f := NewFramebuffer(ctx, ts, rs)
	defer f.Free()
	name := ts.Add(newTestTexture(t, ctx, Depth24Stencil8, 4, 4))
	f.Attach(PointDepth, AttachTexture, name)
	f.Attach(PointStencil, AttachTexture, name)
	p := PassParam{WriteDepth: true, WriteStencil: true, Area: Rect{0, 0, 4, 4}}
	if err := f.PrepareRenderPass(&p); err != nil {
		t.Fatalf("PrepareRenderPass failed: %v", err)
	}
	st := f.depthStencil.tex

	seed := bytes.Repeat([]byte{0xaa}, 4*4)
	if err := st.writePixels(Rect{0, 0, 4, 4}, true, 4, seed); err != nil {
		t.Fatalf("writePixels failed: %v", err)
	}

	if err := f.ClearStencilMasked(0x7f, 0xff, Rect{1, 1, 2, 2}); err != nil {
		t.Fatalf("ClearStencilMasked failed: %v", err)
	}

	out := make([]byte, 4*4)
	if err := st.readPixels(Rect{0, 0, 4, 4}, true, 4, out); err != nil {
		t.Fatalf("readPixels failed: %v", err)
	}
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			want := byte(0xaa)
			if x >= 1 && x < 3 && y >= 1 && y < 3 {
				want = 0x7f
			}
			if have := out[y*4+x]; have != want {
				t.Fatalf("stencil at (%d, %d)\nhave %#02x\nwant %#02x", x, y, have, want)
			}
		}
	}
}

func TestClearStencilMaskedErrors(t *testing.T) {
	ctx, _ := testContext(t)
	defer ctx.Free()
	ts := NewTextureStore()
	rs := NewRenderbufferStore()

	f := NewFramebuffer(ctx, ts, rs)
	defer f.Free()
	f.Attach(PointColor, AttachTexture, ts.Add(newTestTexture(t, ctx, RGBA8, 4, 4)))
	if err := f.ClearStencilMasked(0, 0xff, Rect{0, 0, 4, 4}); err == nil {
		t.Fatal("clear of stencil-less framebuffer succeeded")
	}

	name := ts.Add(newTestTexture(t, ctx, Depth24Stencil8, 4, 4))
	f.Attach(PointDepth, AttachTexture, name)
	f.Attach(PointStencil, AttachTexture, name)
	p := PassParam{WriteStencil: true, Area: Rect{0, 0, 4, 4}}
	if err := f.PrepareRenderPass(&p); err != nil {
		t.Fatalf("PrepareRenderPass failed: %v", err)
	}
	if err := f.ClearStencilMasked(0, 0xff, Rect{2, 2, 4, 4}); err == nil {
		t.Fatal("out of bounds clear succeeded")
	}
}
