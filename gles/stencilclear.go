// Copyright 2024 The GLOVE Authors. All rights reserved.

package gles

import "errors"

// ClearStencilMasked clears the stencil aspect of the
// framebuffer's depth/stencil surface within area, keeping
// the stencil bits excluded by mask and all depth bits.
// Native clears cannot express a write mask, so the plane
// is read back, merged texel by texel and written again:
//
//	new = value&0xff | old&^(mask&0xff)
//
// The clear value is merged as given; callers wanting GL
// semantics pre-mask it.
//
// With a full mask callers should clear through a render
// pass load op instead.
func (f *Framebuffer) ClearStencilMasked(value, mask uint32, area Rect) error {
	var tex *Texture
	if f.depthStencil != nil {
		tex = f.depthStencil.tex
	} else {
		tex = f.StencilTexture()
	}
	if tex == nil || !tex.NativeFormat().HasStencil() {
		return errors.New("framebuffer: no stencil surface to clear")
	}
	if area.Width < 1 || area.Height < 1 ||
		area.X < 0 || area.Y < 0 ||
		area.X+area.Width > tex.Width() || area.Y+area.Height > tex.Height() {
		return errors.New("framebuffer: stencil clear area out of bounds")
	}

	// One byte per texel, rows padded to 4 bytes.
	stride := (area.Width + 3) &^ 3
	data := make([]byte, stride*area.Height)
	if err := tex.readPixels(area, true, stride, data); err != nil {
		return err
	}

	v := byte(value & 0xff)
	m := byte(mask & 0xff)
	for y := 0; y < area.Height; y++ {
		row := data[y*stride : y*stride+area.Width]
		for x, old := range row {
			row[x] = v | old&^m
		}
	}

	return tex.writePixels(area, true, stride, data)
}
