// Copyright 2024 The GLOVE Authors. All rights reserved.

package gles

import (
	"github.com/kimberly990/GLOVE/driver"
	"github.com/kimberly990/GLOVE/wsi"
)

// AttachmentKind identifies what an attachment point is
// bound to.
type AttachmentKind int

// Attachment kinds.
const (
	AttachNone AttachmentKind = iota
	AttachTexture
	AttachRenderbuffer
)

// AttachmentPoint identifies a logical attachment point.
type AttachmentPoint int

// Attachment points.
const (
	PointColor AttachmentPoint = iota
	PointDepth
	PointStencil
)

// Status is a framebuffer completeness verdict.
type Status int

// Completeness verdicts.
const (
	Complete Status = iota
	IncompleteMissingAttachment
	IncompleteAttachment
	IncompleteDimensions
)

// String returns the verdict name.
func (s Status) String() string {
	switch s {
	case Complete:
		return "complete"
	case IncompleteMissingAttachment:
		return "incomplete: missing attachment"
	case IncompleteAttachment:
		return "incomplete: attachment"
	case IncompleteDimensions:
		return "incomplete: dimensions"
	}
	return "unknown status"
}

// Rect is a region of a render target.
type Rect struct {
	X, Y, Width, Height int
}

// Attachment is one binding point of a framebuffer.
// Either name refers to an object in the context's stores
// (kind says which), or tex holds an image directly; the
// latter is how window-system swap images are attached.
type Attachment struct {
	kind AttachmentKind
	name uint32
	tex  *Texture
}

// Kind returns the attachment kind.
func (a *Attachment) Kind() AttachmentKind {
	if a.tex != nil {
		return AttachTexture
	}
	return a.kind
}

// Name returns the bound object name (0 when unbound).
func (a *Attachment) Name() uint32 { return a.name }

// PassParam describes the per-pass clear and write-enable
// configuration of PrepareRenderPass.
type PassParam struct {
	ClearColor   bool
	ClearDepth   bool
	ClearStencil bool
	WriteColor   bool
	WriteDepth   bool
	WriteStencil bool
	ColorValue   [4]float32
	DepthValue   float32
	StencilValue uint32
	Area         Rect
}

// passFlags is the subset of PassParam that is baked into
// the native render-pass description. A mismatch with the
// last-applied flags forces a rebuild; values and area do
// not, they are refreshed on every call.
type passFlags struct {
	clearColor, clearDepth, clearStencil bool
	writeColor, writeDepth, writeStencil bool
}

func (p *PassParam) flags() passFlags {
	return passFlags{
		p.ClearColor, p.ClearDepth, p.ClearStencil,
		p.WriteColor, p.WriteDepth, p.WriteStencil,
	}
}

// Framebuffer is a logical render target: an attachment
// table plus lazily built native objects.
// It is either offscreen (attachments bound by name) or
// window-system backed ("system"), in which case color
// attachments multiplex across the surface's swap images.
type Framebuffer struct {
	ctx           *Context
	textures      *TextureStore
	renderbuffers *RenderbufferStore

	system  bool
	surface *wsi.Surface

	// For system framebuffers there is one color
	// attachment per swap image; otherwise only
	// index 0 is used.
	colors  []Attachment
	depth   Attachment
	stencil Attachment

	width  int
	height int

	contentDirty bool
	sizeDirty    bool
	drawing      bool

	depthStencil *dsSurface

	// Resolved-object caches, one slot per attachment
	// point. Filled on first lookup, cleared on rebind.
	cacheTex [3]*Texture
	cacheRB  [3]*Renderbuffer

	pass     driver.RenderPass
	flags    passFlags
	havePass bool
	fbs      []driver.Framebuf

	clearValues []driver.ClearValue
	clearArea   driver.Scissor
}

// NewFramebuffer creates an empty offscreen framebuffer.
func NewFramebuffer(ctx *Context, textures *TextureStore, renderbuffers *RenderbufferStore) *Framebuffer {
	return &Framebuffer{
		ctx:           ctx,
		textures:      textures,
		renderbuffers: renderbuffers,
		contentDirty:  true,
	}
}

// NewSystemFramebuffer creates the window-system
// framebuffer for a surface.
// One color attachment is created per swap image. When
// depth or stencil bits are requested, the combined
// depth/stencil surface is allocated here and its view is
// registered with the surface.
func NewSystemFramebuffer(ctx *Context, surface *wsi.Surface, depthBits, stencilBits int) (*Framebuffer, error) {
	f := &Framebuffer{
		ctx:          ctx,
		system:       true,
		surface:      surface,
		width:        surface.Width(),
		height:       surface.Height(),
		contentDirty: true,
	}
	for _, v := range surface.Views() {
		f.colors = append(f.colors, Attachment{
			kind: AttachTexture,
			tex:  wrapTextureView(ctx, v, surface.Width(), surface.Height()),
		})
	}
	if depthBits > 0 || stencilBits > 0 {
		pf := supportedDepthStencilFormat(ctx.Limits(), depthBits, stencilBits)
		if pf == driver.FInvalid {
			f.Free()
			return nil, driver.ErrNoDeviceMemory
		}
		tex, err := newTextureNative(ctx, formatFromNative(pf), pf, f.width, f.height)
		if err != nil {
			f.Free()
			return nil, err
		}
		f.depthStencil = newDSSurface(tex, nil)
		if pf.HasDepth() {
			f.depth = Attachment{kind: AttachTexture, tex: tex}
		}
		if pf.HasStencil() {
			f.stencil = Attachment{kind: AttachTexture, tex: tex}
		}
		surface.SetDepthStencilView(tex.View())
	}
	return f, nil
}

// IsSystem returns whether f is window-system backed.
func (f *Framebuffer) IsSystem() bool { return f.system }

// Width returns the framebuffer width.
// It is meaningful only while an attachment exists.
func (f *Framebuffer) Width() int { return f.width }

// Height returns the framebuffer height.
func (f *Framebuffer) Height() int { return f.height }

// AttachmentInfo returns the kind and name bound at the
// given point.
func (f *Framebuffer) AttachmentInfo(point AttachmentPoint) (AttachmentKind, uint32) {
	a := f.attachmentPtr(point, false)
	if a == nil {
		return AttachNone, 0
	}
	return a.Kind(), a.name
}

// attachmentPtr returns the attachment at point, creating
// the color slot if grow is set.
func (f *Framebuffer) attachmentPtr(point AttachmentPoint, grow bool) *Attachment {
	switch point {
	case PointColor:
		if len(f.colors) == 0 {
			if !grow {
				return nil
			}
			f.colors = append(f.colors, Attachment{})
		}
		return &f.colors[0]
	case PointDepth:
		return &f.depth
	case PointStencil:
		return &f.stencil
	}
	panic("framebuffer: invalid attachment point")
}

// Attach binds an object to an attachment point.
// kind AttachNone with name 0 detaches. The previously
// bound object receives an Unbind notification and the
// new one a Bind; the resolution cache for the point is
// invalidated.
func (f *Framebuffer) Attach(point AttachmentPoint, kind AttachmentKind, name uint32) {
	if f.system {
		panic("framebuffer: attach on system framebuffer")
	}
	if (kind == AttachNone) != (name == 0) {
		panic("framebuffer: attachment kind/name mismatch")
	}
	f.unrefAttachment(point)
	f.cacheTex[point] = nil
	f.cacheRB[point] = nil
	a := f.attachmentPtr(point, true)
	a.kind, a.name = kind, name
	f.refAttachment(point)

	f.updateSize()
	f.contentDirty = true
	switch point {
	case PointDepth, PointStencil:
		f.sizeDirty = true
	default:
		f.sizeDirty = f.depthStencil == nil ||
			f.depthStencil.tex.Width() != f.width ||
			f.depthStencil.tex.Height() != f.height
	}
}

// Detach unbinds an attachment point.
func (f *Framebuffer) Detach(point AttachmentPoint) {
	f.Attach(point, AttachNone, 0)
}

// SetColorAttachment sizes the primary color attachment
// slot without binding an object. It is the resize path
// of window-system targets.
func (f *Framebuffer) SetColorAttachment(width, height int) {
	f.attachmentPtr(PointColor, true)
	f.width = width
	f.height = height
	f.contentDirty = true
	f.sizeDirty = f.depthStencil == nil ||
		f.depthStencil.tex.Width() != width ||
		f.depthStencil.tex.Height() != height
}

// refAttachment sends the Bind notification for the
// object bound at point.
func (f *Framebuffer) refAttachment(point AttachmentPoint) {
	a := f.attachmentPtr(point, false)
	if a == nil || a.name == 0 {
		return
	}
	switch a.kind {
	case AttachTexture:
		if t := f.textures.Get(a.name); t != nil {
			t.Bind()
		}
	case AttachRenderbuffer:
		if r := f.renderbuffers.Get(a.name); r != nil {
			r.Bind()
		}
	}
}

// unrefAttachment sends the Unbind notification for the
// object bound at point, resolving through the cache
// when filled so a store removal cannot skip it.
func (f *Framebuffer) unrefAttachment(point AttachmentPoint) {
	a := f.attachmentPtr(point, false)
	if a == nil || a.name == 0 {
		return
	}
	switch a.kind {
	case AttachTexture:
		t := f.cacheTex[point]
		if t == nil {
			t = f.textures.Get(a.name)
		}
		if t != nil {
			t.Unbind()
		}
	case AttachRenderbuffer:
		r := f.cacheRB[point]
		if r == nil {
			r = f.renderbuffers.Get(a.name)
		}
		if r != nil {
			r.Unbind()
		}
	}
}

// CleanCachedAttachment invalidates the resolution cache
// for point. It must be called when the referenced object
// is deleted from its store.
func (f *Framebuffer) CleanCachedAttachment(point AttachmentPoint) {
	f.cacheTex[point] = nil
	f.cacheRB[point] = nil
}

// attachmentSource resolves the texture backing the
// attachment at point, memoizing the store lookup.
// System color attachments resolve directly; system
// depth/stencil attachments resolve to nil here (the
// combined surface is not a client object).
func (f *Framebuffer) attachmentSource(point AttachmentPoint) *Texture {
	a := f.attachmentPtr(point, false)
	if a == nil {
		return nil
	}
	if a.tex != nil && point == PointColor {
		return a.tex
	}
	if a.name == 0 {
		return nil
	}
	switch a.kind {
	case AttachTexture:
		if f.cacheTex[point] == nil {
			f.cacheTex[point] = f.textures.Get(a.name)
		}
		return f.cacheTex[point]
	case AttachRenderbuffer:
		if f.cacheRB[point] == nil {
			f.cacheRB[point] = f.renderbuffers.Get(a.name)
		}
		if f.cacheRB[point] != nil {
			return f.cacheRB[point].Texture()
		}
	}
	return nil
}

// depthAttachmentSource resolves the client depth
// attachment (nil for system framebuffers).
func (f *Framebuffer) depthAttachmentSource() *Texture {
	if f.system {
		return nil
	}
	return f.attachmentSource(PointDepth)
}

// stencilAttachmentSource resolves the client stencil
// attachment (nil for system framebuffers).
func (f *Framebuffer) stencilAttachmentSource() *Texture {
	if f.system {
		return nil
	}
	return f.attachmentSource(PointStencil)
}

// colorSourceAt resolves the color texture for swap
// image i.
func (f *Framebuffer) colorSourceAt(i int) *Texture {
	if f.system {
		return f.colors[i].tex
	}
	return f.attachmentSource(PointColor)
}

// bufferIndex returns the index of the native framebuffer
// that rendering currently targets.
func (f *Framebuffer) bufferIndex() int {
	if f.system {
		return f.surface.ImageIndex()
	}
	return 0
}

// ColorTexture returns the texture backing the active
// color attachment, or nil.
func (f *Framebuffer) ColorTexture() *Texture {
	if len(f.colors) == 0 {
		return nil
	}
	return f.colorSourceAt(f.bufferIndex())
}

// DepthTexture returns the texture serving the depth
// attachment point, or nil. For system framebuffers this
// is the combined depth/stencil surface.
func (f *Framebuffer) DepthTexture() *Texture {
	if f.system {
		if f.depth.tex != nil {
			return f.depth.tex
		}
		return nil
	}
	return f.attachmentSource(PointDepth)
}

// StencilTexture returns the texture serving the stencil
// attachment point, or nil.
func (f *Framebuffer) StencilTexture() *Texture {
	if f.system {
		if f.stencil.tex != nil {
			return f.stencil.tex
		}
		return nil
	}
	return f.attachmentSource(PointStencil)
}

// updateSize re-derives width/height from the resolved
// attachments, first one wins.
func (f *Framebuffer) updateSize() {
	for _, p := range [...]AttachmentPoint{PointColor, PointDepth, PointStencil} {
		if t := f.attachmentSource(p); t != nil {
			f.width, f.height = t.Width(), t.Height()
			return
		}
	}
}

// CheckStatus validates the current attachment set.
// It is pure: no native state is touched. Fault precedence
// is fixed: missing attachment, then per-attachment
// renderability, then cross-attachment dimensions.
func (f *Framebuffer) CheckStatus() Status {
	ck, _ := f.AttachmentInfo(PointColor)
	dk, _ := f.AttachmentInfo(PointDepth)
	sk, _ := f.AttachmentInfo(PointStencil)

	if ck == AttachNone && dk == AttachNone && sk == AttachNone {
		return IncompleteMissingAttachment
	}

	ct, dt, st := f.ColorTexture(), f.DepthTexture(), f.StencilTexture()
	if ck != AttachNone &&
		(ct == nil || !ct.Format().ColorRenderable() || ct.Width() <= 0 || ct.Height() <= 0) {
		return IncompleteAttachment
	}
	if dk != AttachNone &&
		(dt == nil || !dt.Format().DepthRenderable() || dt.Width() <= 0 || dt.Height() <= 0) {
		return IncompleteAttachment
	}
	if sk != AttachNone &&
		(st == nil || !st.Format().StencilRenderable() || st.Width() <= 0 || st.Height() <= 0) {
		return IncompleteAttachment
	}

	if ck != AttachNone && dk != AttachNone &&
		(ct.Width() != dt.Width() || ct.Height() != dt.Height()) {
		return IncompleteDimensions
	}
	if ck != AttachNone && sk != AttachNone &&
		(ct.Width() != st.Width() || ct.Height() != st.Height()) {
		return IncompleteDimensions
	}
	if dk != AttachNone && sk != AttachNone &&
		(dt.Width() != st.Width() || dt.Height() != st.Height()) {
		return IncompleteDimensions
	}

	return Complete
}

// CheckForUpdatedResources polls the color attachment for
// out-of-band changes (texel uploads, storage resize) and
// dirties the framebuffer accordingly.
// Callers run it before PrepareRenderPass.
func (f *Framebuffer) CheckForUpdatedResources() {
	ct := f.ColorTexture()
	if ct == nil {
		return
	}
	if ct.TakeDataUpdated() {
		f.contentDirty = true
	}
	if ct.Width() != f.width || ct.Height() != f.height {
		f.width, f.height = ct.Width(), ct.Height()
		f.sizeDirty = true
	}
}

// PrepareRenderPass brings the native render-target
// objects up to date and applies the per-pass clear
// configuration.
// Native objects are rebuilt only when an attachment, the
// size, or one of the six clear/write flags changed; clear
// values and area are refreshed unconditionally.
// On failure no partial state is published and the next
// call attempts a full rebuild again.
func (f *Framebuffer) PrepareRenderPass(p *PassParam) error {
	flags := p.flags()
	if f.contentDirty || f.sizeDirty || !f.havePass || flags != f.flags {
		if f.sizeDirty && !f.system {
			if err := f.ensureDepthStencil(); err != nil {
				return err
			}
		}
		if err := f.buildRenderPass(flags); err != nil {
			return err
		}
		if err := f.buildFramebuffers(); err != nil {
			return err
		}
		f.contentDirty = false
		f.sizeDirty = false
	}

	f.clearValues = f.clearValues[:0]
	if f.ColorTexture() != nil {
		f.clearValues = append(f.clearValues, driver.ClearValue{Color: p.ColorValue})
	}
	if f.depthStencil != nil {
		f.clearValues = append(f.clearValues, driver.ClearValue{
			Depth:   p.DepthValue,
			Stencil: p.StencilValue,
		})
	}
	f.clearArea = driver.Scissor(p.Area)
	return nil
}

// buildRenderPass recreates the native render-pass
// description from the resolved attachment formats and
// the requested flags.
func (f *Framebuffer) buildRenderPass(flags passFlags) error {
	var att []driver.Attachment
	if ct := f.ColorTexture(); ct != nil {
		att = append(att, driver.Attachment{
			Format: ct.NativeFormat(),
			Load:   [2]driver.LoadOp{loadOp(flags.clearColor), driver.LDontCare},
			Store:  [2]driver.StoreOp{storeOp(flags.writeColor), driver.SDontCare},
		})
	}
	if f.depthStencil != nil {
		att = append(att, driver.Attachment{
			Format: f.depthStencil.tex.NativeFormat(),
			Load:   [2]driver.LoadOp{loadOp(flags.clearDepth), loadOp(flags.clearStencil)},
			Store:  [2]driver.StoreOp{storeOp(flags.writeDepth), storeOp(flags.writeStencil)},
		})
	}
	pass, err := f.ctx.GPU().NewRenderPass(att)
	if err != nil {
		return err
	}
	// The old framebuffers were created from the old
	// pass; they go first.
	f.releaseFramebuffers()
	if f.pass != nil {
		f.pass.Destroy()
	}
	f.pass = pass
	f.flags = flags
	f.havePass = true
	return nil
}

func loadOp(clear bool) driver.LoadOp {
	if clear {
		return driver.LClear
	}
	return driver.LLoad
}

func storeOp(write bool) driver.StoreOp {
	if write {
		return driver.SStore
	}
	return driver.SDontCare
}

// buildFramebuffers recreates the native framebuffer
// objects, one per swap image for system targets and
// exactly one otherwise.
// Any per-image failure releases everything created so
// far and reports failure; partial results are never
// kept.
func (f *Framebuffer) buildFramebuffers() error {
	f.releaseFramebuffers()
	count := 1
	if f.system {
		count = len(f.colors)
	}
	for i := 0; i < count; i++ {
		var iv []driver.ImageView
		if ct := f.colorSourceAt(i); ct != nil {
			iv = append(iv, ct.View())
		}
		if f.depthStencil != nil {
			iv = append(iv, f.depthStencil.tex.View())
		}
		fb, err := f.pass.NewFB(iv, f.width, f.height)
		if err != nil {
			f.releaseFramebuffers()
			return err
		}
		f.fbs = append(f.fbs, fb)
	}
	return nil
}

// releaseFramebuffers destroys all held native
// framebuffer objects.
func (f *Framebuffer) releaseFramebuffers() {
	for _, fb := range f.fbs {
		fb.Destroy()
	}
	f.fbs = f.fbs[:0]
}

// BeginRenderPass begins a render pass targeting the
// native framebuffer selected by the current swap image
// index.
// PrepareRenderPass must have succeeded since the last
// relevant change.
func (f *Framebuffer) BeginRenderPass() error {
	if !f.havePass || len(f.fbs) == 0 {
		panic("framebuffer: render pass not prepared")
	}
	cmd, err := f.ctx.Cmd()
	if err != nil {
		return err
	}
	cmd.BeginPass(f.pass, f.fbs[f.bufferIndex()], f.clearValues, f.clearArea)
	f.drawing = true
	return nil
}

// EndRenderPass ends the current render pass.
// It reports whether a pass was actually in progress.
func (f *Framebuffer) EndRenderPass() bool {
	if !f.drawing {
		return false
	}
	cmd, err := f.ctx.Cmd()
	if err != nil {
		return false
	}
	cmd.EndPass()
	f.drawing = false
	return true
}

// IsInDrawState returns whether a render pass is in
// progress on f.
func (f *Framebuffer) IsInDrawState() bool { return f.drawing }

// Free releases native objects, drops the depth/stencil
// surface reference and sends detach notifications for
// bound client objects.
func (f *Framebuffer) Free() {
	f.releaseFramebuffers()
	if f.pass != nil {
		f.pass.Destroy()
	}
	if f.depthStencil != nil {
		f.depthStencil.release()
		f.depthStencil = nil
	}
	if f.system {
		if f.surface != nil {
			f.surface.SetDepthStencilView(nil)
		}
		for i := range f.colors {
			if f.colors[i].tex != nil {
				f.colors[i].tex.Free()
			}
		}
	} else {
		for _, p := range [...]AttachmentPoint{PointColor, PointDepth, PointStencil} {
			f.unrefAttachment(p)
		}
	}
	*f = Framebuffer{}
}
