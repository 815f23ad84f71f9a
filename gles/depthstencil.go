// Copyright 2024 The GLOVE Authors. All rights reserved.

package gles

import "github.com/kimberly990/GLOVE/driver"

// dsSurface is a reference-counted combined depth/stencil
// surface.
// The color-adjacent texture it is registered with holds
// the canonical slot; every framebuffer that renders
// through it holds one reference. The decrement-to-zero
// transition frees the storage, never an arbitrary
// co-owner.
type dsSurface struct {
	tex *Texture
	// Texture holding the canonical slot; nil for
	// window-system targets.
	owner *Texture
	refs  int
}

// newDSSurface wraps tex into a counted handle with one
// reference, held by the creating framebuffer.
func newDSSurface(tex, owner *Texture) *dsSurface {
	return &dsSurface{tex: tex, owner: owner, refs: 1}
}

// retain adds a reference.
func (s *dsSurface) retain() {
	if s.refs < 1 {
		panic("framebuffer: retain of freed depth/stencil surface")
	}
	s.refs++
}

// release drops a reference, freeing the surface when this
// was the last holder.
func (s *dsSurface) release() {
	switch {
	case s.refs < 1:
		panic("framebuffer: release of freed depth/stencil surface")
	case s.refs == 1:
		if s.owner != nil && s.owner.ds == s {
			s.owner.setDepthStencil(nil)
		}
		s.tex.Free()
		s.refs = 0
	default:
		s.refs--
	}
}

// ensureDepthStencil allocates, adopts or releases the
// framebuffer's combined depth/stencil surface to match
// the current depth/stencil attachments and size.
// It is re-run whenever the size or a depth/stencil
// attachment changes.
func (f *Framebuffer) ensureDepthStencil() error {
	dt := f.depthAttachmentSource()
	st := f.stencilAttachmentSource()
	if dt == nil && st == nil {
		// No surface needed; drop any held reference.
		if f.depthStencil != nil {
			f.depthStencil.release()
			f.depthStencil = nil
		}
		return nil
	}

	// Sharing fast path: a sibling framebuffer rendering
	// into the same texture already allocated a surface
	// of the right size.
	if !f.system && dt != nil {
		if s := dt.DepthStencil(); s != nil &&
			s.tex.Width() == f.width && s.tex.Height() == f.height {
			if s != f.depthStencil {
				s.retain()
				if f.depthStencil != nil {
					f.depthStencil.release()
				}
				f.depthStencil = s
			}
			return nil
		}
	}

	if f.depthStencil != nil {
		f.depthStencil.release()
		f.depthStencil = nil
	}

	var df, sf Format
	if dt != nil {
		df = dt.Format()
	}
	if st != nil {
		sf = st.Format()
	}
	ideal := combinedDepthStencilFormat(df, sf)
	pf := supportedDepthStencilFormat(f.ctx.Limits(), ideal.DepthBits(), ideal.StencilBits())
	if pf == driver.FInvalid {
		pf = ideal
	}
	tex, err := newTextureNative(f.ctx, formatFromNative(pf), pf, f.width, f.height)
	if err != nil {
		return err
	}

	var owner *Texture
	if !f.system {
		owner = dt
	}
	f.depthStencil = newDSSurface(tex, owner)
	if owner != nil {
		owner.setDepthStencil(f.depthStencil)
	}
	return nil
}
