// Copyright 2024 The GLOVE Authors. All rights reserved.

package gles

import (
	"errors"

	"github.com/kimberly990/GLOVE/driver"
)

const rbPrefix = "renderbuffer: "

// Renderbuffer is an attachment source without sampling
// support. Its storage is a texture, which the framebuffer
// resolves through.
type Renderbuffer struct {
	ctx *Context
	tex *Texture
}

// NewRenderbuffer creates a renderbuffer without storage.
func NewRenderbuffer(ctx *Context) *Renderbuffer {
	return &Renderbuffer{ctx: ctx}
}

// Storage allocates or replaces the renderbuffer storage.
func (r *Renderbuffer) Storage(format Format, width, height int) error {
	tex, err := NewTexture(r.ctx, &TexParam{Format: format, Width: width, Height: height})
	if err != nil {
		return errors.New(rbPrefix + "storage allocation failed: " + err.Error())
	}
	if r.tex != nil {
		bound := r.tex.Bound()
		r.tex.Free()
		// Keep attachment notifications balanced across
		// storage replacement.
		for i := 0; i < bound; i++ {
			tex.Bind()
		}
	}
	r.tex = tex
	return nil
}

// Texture returns the backing texture, or nil when no
// storage was allocated.
func (r *Renderbuffer) Texture() *Texture { return r.tex }

// Format returns the internal format of the storage.
func (r *Renderbuffer) Format() Format {
	if r.tex == nil {
		return FormatNone
	}
	return r.tex.Format()
}

// NativeFormat returns the driver format of the storage.
func (r *Renderbuffer) NativeFormat() driver.PixelFmt {
	if r.tex == nil {
		return driver.FInvalid
	}
	return r.tex.NativeFormat()
}

// Bind notifies the renderbuffer that a framebuffer
// attachment now refers to it.
func (r *Renderbuffer) Bind() {
	if r.tex != nil {
		r.tex.Bind()
	}
}

// Unbind undoes one Bind.
func (r *Renderbuffer) Unbind() {
	if r.tex != nil {
		r.tex.Unbind()
	}
}

// Free invalidates r and destroys the storage.
func (r *Renderbuffer) Free() {
	if r.tex != nil {
		r.tex.Free()
	}
	*r = Renderbuffer{}
}
