// Copyright 2024 The GLOVE Authors. All rights reserved.

package gles

import (
	"errors"

	"github.com/kimberly990/GLOVE/driver"
)

const texPrefix = "texture: "

// TexParam describes parameters of a texture.
type TexParam struct {
	Format Format
	Width  int
	Height int
}

// Texture wraps a driver.Image for use as a framebuffer
// attachment source.
type Texture struct {
	ctx    *Context
	img    driver.Image
	view   driver.ImageView
	owned  bool
	format Format
	pf     driver.PixelFmt
	width  int
	height int
	// Number of framebuffer attachment points currently
	// referring to this texture.
	bound int
	// Set when texel data changed since the last
	// framebuffer poll.
	dataUpdated bool
	// Combined depth/stencil surface adopted by this
	// texture, shared with sibling framebuffers.
	ds *dsSurface
}

// NewTexture creates a texture with storage.
func NewTexture(ctx *Context, param *TexParam) (*Texture, error) {
	limits := ctx.Limits()
	var reason string
	switch {
	case param == nil:
		reason = "nil param"
	case param.Format == FormatNone:
		reason = "invalid format"
	case param.Width < 1, param.Height < 1:
		reason = "invalid size"
	case param.Width > limits.MaxImage2D, param.Height > limits.MaxImage2D:
		reason = "size too big"
	default:
		goto validParam
	}
	return nil, errors.New(texPrefix + reason)
validParam:
	return newTextureNative(ctx, param.Format, param.Format.nativeFormat(), param.Width, param.Height)
}

// newTextureNative creates a texture with an explicitly
// chosen native format. The depth/stencil surface manager
// uses it after format fallback.
func newTextureNative(ctx *Context, format Format, pf driver.PixelFmt, width, height int) (*Texture, error) {
	usage := driver.UCopySrc | driver.UCopyDst | driver.UShaderSample | driver.URenderTarget
	img, err := ctx.GPU().NewImage(pf, driver.Dim3D{Width: width, Height: height}, usage)
	if err != nil {
		return nil, err
	}
	view, err := img.NewView()
	if err != nil {
		img.Destroy()
		return nil, err
	}
	return &Texture{
		ctx:    ctx,
		img:    img,
		view:   view,
		owned:  true,
		format: format,
		pf:     pf,
		width:  width,
		height: height,
	}, nil
}

// wrapTextureView wraps an externally owned image view,
// such as a window-system swap image.
// Free leaves the view and its image untouched.
func wrapTextureView(ctx *Context, view driver.ImageView, width, height int) *Texture {
	pf := view.Image().PixelFmt()
	return &Texture{
		ctx:    ctx,
		img:    view.Image(),
		view:   view,
		format: formatFromNative(pf),
		pf:     pf,
		width:  width,
		height: height,
	}
}

// Format returns the internal format of t.
func (t *Texture) Format() Format { return t.format }

// NativeFormat returns the driver format of t's storage.
func (t *Texture) NativeFormat() driver.PixelFmt { return t.pf }

// Width returns the width of t.
func (t *Texture) Width() int { return t.width }

// Height returns the height of t.
func (t *Texture) Height() int { return t.height }

// View returns the driver view of t's storage.
func (t *Texture) View() driver.ImageView { return t.view }

// Bind notifies t that a framebuffer attachment now
// refers to it.
func (t *Texture) Bind() { t.bound++ }

// Unbind undoes one Bind.
func (t *Texture) Unbind() {
	if t.bound == 0 {
		panic("texture: unbalanced Unbind")
	}
	t.bound--
}

// Bound returns the number of framebuffer attachment
// points referring to t.
func (t *Texture) Bound() int { return t.bound }

// MarkDataUpdated records that t's texel data changed.
func (t *Texture) MarkDataUpdated() { t.dataUpdated = true }

// TakeDataUpdated returns whether t's texel data changed
// since the last call, clearing the flag.
func (t *Texture) TakeDataUpdated() bool {
	upd := t.dataUpdated
	t.dataUpdated = false
	return upd
}

// DepthStencil returns the combined depth/stencil surface
// registered with t, or nil.
func (t *Texture) DepthStencil() *dsSurface { return t.ds }

// setDepthStencil registers s as t's combined surface so
// that sibling framebuffers can adopt it.
func (t *Texture) setDepthStencil(s *dsSurface) { t.ds = s }

// readPixels copies a region of t's storage into dst,
// synchronously.
// rowStride is given in texels and must reflect the row
// layout of dst, padding included. With stencilOnly set,
// dst receives one byte per texel holding the stencil
// aspect.
func (t *Texture) readPixels(region Rect, stencilOnly bool, rowStride int, dst []byte) error {
	buf, err := t.ctx.GPU().NewBuffer(int64(len(dst)), true, driver.UCopySrc|driver.UCopyDst)
	if err != nil {
		return err
	}
	defer buf.Destroy()
	cmd, err := t.ctx.Cmd()
	if err != nil {
		return err
	}
	cmd.CopyImgToBuf(&driver.BufImgCopy{
		Buf:         buf,
		RowStride:   rowStride,
		Img:         t.img,
		ImgOff:      driver.Off3D{X: region.X, Y: region.Y},
		Size:        driver.Dim3D{Width: region.Width, Height: region.Height},
		StencilOnly: stencilOnly,
	})
	if err := t.ctx.Flush(); err != nil {
		return err
	}
	copy(dst, buf.Bytes())
	return nil
}

// writePixels copies src into a region of t's storage,
// synchronously. Layout rules match readPixels.
func (t *Texture) writePixels(region Rect, stencilOnly bool, rowStride int, src []byte) error {
	buf, err := t.ctx.GPU().NewBuffer(int64(len(src)), true, driver.UCopySrc|driver.UCopyDst)
	if err != nil {
		return err
	}
	defer buf.Destroy()
	copy(buf.Bytes(), src)
	cmd, err := t.ctx.Cmd()
	if err != nil {
		return err
	}
	cmd.CopyBufToImg(&driver.BufImgCopy{
		Buf:         buf,
		RowStride:   rowStride,
		Img:         t.img,
		ImgOff:      driver.Off3D{X: region.X, Y: region.Y},
		Size:        driver.Dim3D{Width: region.Width, Height: region.Height},
		StencilOnly: stencilOnly,
	})
	if err := t.ctx.Flush(); err != nil {
		return err
	}
	t.dataUpdated = true
	return nil
}

// Free invalidates t and destroys owned driver resources.
func (t *Texture) Free() {
	if t.owned {
		if t.view != nil {
			t.view.Destroy()
		}
		if t.img != nil {
			t.img.Destroy()
		}
	}
	*t = Texture{}
}
