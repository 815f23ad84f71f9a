// Copyright 2024 The GLOVE Authors. All rights reserved.

// Package soft implements the driver interfaces entirely in
// host memory.
// It backs offscreen surfaces and is the device used by
// the GL layer's tests.
package soft

import (
	"errors"

	"github.com/kimberly990/GLOVE/driver"
)

const prefix = "soft: "

// Driver implements driver.Driver.
type Driver struct {
	gpu *GPU
}

var drv Driver

func init() {
	driver.Register(&drv)
}

// Open initializes the driver.
// The first call creates the GPU; further calls return
// the same instance.
func (d *Driver) Open() (driver.GPU, error) {
	if d.gpu == nil {
		d.gpu = &GPU{d: d}
	}
	return d.gpu, nil
}

// Name returns the driver name.
func (d *Driver) Name() string { return "soft" }

// Close deinitializes the driver.
func (d *Driver) Close() { d.gpu = nil }

// GPU implements driver.GPU.
type GPU struct {
	d *Driver
	// Remaining NewFB calls to fail on purpose.
	failFB int
}

// FailFB makes the next n RenderPass.NewFB calls fail
// with driver.ErrNoDeviceMemory. Tests use it to drive
// rebuild-failure paths through the public surface.
func (g *GPU) FailFB(n int) { g.failFB = n }

// Driver returns the driver.Driver that owns g.
func (g *GPU) Driver() driver.Driver { return g.d }

// Limits returns the implementation limits.
func (g *GPU) Limits() driver.Limits {
	return driver.Limits{
		MaxImage2D:      16384,
		MaxColorTargets: 4,
		MaxFBSize:       [2]int{16384, 16384},
		DepthStencilFmts: []driver.PixelFmt{
			driver.D24UnormS8Uint,
			driver.D32FloatS8Uint,
			driver.D16Unorm,
			driver.D32Float,
			driver.S8Uint,
		},
	}
}

// NewCmdBuffer creates a new command buffer.
func (g *GPU) NewCmdBuffer() (driver.CmdBuffer, error) {
	return &cmdBuffer{g: g}, nil
}

// NewBuffer creates a new buffer.
func (g *GPU) NewBuffer(size int64, visible bool, usg driver.Usage) (driver.Buffer, error) {
	if size <= 0 {
		return nil, errors.New(prefix + "invalid buffer size")
	}
	return &buffer{
		data:    make([]byte, size),
		visible: visible,
	}, nil
}

// NewImage creates a new image.
func (g *GPU) NewImage(pf driver.PixelFmt, size driver.Dim3D, usg driver.Usage) (driver.Image, error) {
	switch {
	case pf == driver.FInvalid:
		return nil, errors.New(prefix + "invalid pixel format")
	case size.Width < 1, size.Height < 1:
		return nil, errors.New(prefix + "invalid image size")
	}
	return &image{
		pf:   pf,
		size: size,
		data: make([]byte, pf.Size()*size.Width*size.Height),
	}, nil
}

// NewRenderPass creates a new render pass.
func (g *GPU) NewRenderPass(att []driver.Attachment) (driver.RenderPass, error) {
	a := make([]driver.Attachment, len(att))
	copy(a, att)
	return &renderPass{g: g, att: a}, nil
}

// Commit commits command buffers for execution.
// Commands execute in recording order; the result is
// sent to ch on completion.
func (g *GPU) Commit(cb []driver.CmdBuffer, ch chan<- error) {
	go func() {
		var err error
		for _, x := range cb {
			c := x.(*cmdBuffer)
			if c.recording || !c.ended {
				err = errors.New(prefix + "commit of unended command buffer")
				break
			}
			for _, cmd := range c.cmds {
				if err = cmd(); err != nil {
					break
				}
			}
			c.cmds = c.cmds[:0]
			c.ended = false
			if err != nil {
				break
			}
		}
		ch <- err
	}()
}

// buffer implements driver.Buffer.
type buffer struct {
	data    []byte
	visible bool
}

func (b *buffer) Destroy()      { *b = buffer{} }
func (b *buffer) Visible() bool { return b.visible }
func (b *buffer) Cap() int64    { return int64(len(b.data)) }

func (b *buffer) Bytes() []byte {
	if !b.visible {
		return nil
	}
	return b.data
}

// image implements driver.Image.
type image struct {
	pf   driver.PixelFmt
	size driver.Dim3D
	data []byte
}

func (m *image) Destroy()                 { *m = image{} }
func (m *image) PixelFmt() driver.PixelFmt { return m.pf }
func (m *image) Size() driver.Dim3D       { return m.size }

func (m *image) NewView() (driver.ImageView, error) {
	if m.data == nil {
		return nil, errors.New(prefix + "view of destroyed image")
	}
	return &imageView{m: m}, nil
}

// texel returns the byte range of the texel at (x, y).
func (m *image) texel(x, y int) []byte {
	n := m.pf.Size()
	off := (y*m.size.Width + x) * n
	return m.data[off : off+n]
}

// imageView implements driver.ImageView.
type imageView struct {
	m *image
}

func (v *imageView) Destroy()            { *v = imageView{} }
func (v *imageView) Image() driver.Image { return v.m }

// renderPass implements driver.RenderPass.
type renderPass struct {
	g   *GPU
	att []driver.Attachment
}

func (p *renderPass) Destroy() { *p = renderPass{} }

// NewFB creates a new framebuffer.
func (p *renderPass) NewFB(iv []driver.ImageView, width, height int) (driver.Framebuf, error) {
	if p.g.failFB > 0 {
		p.g.failFB--
		return nil, driver.ErrNoDeviceMemory
	}
	if len(iv) != len(p.att) {
		return nil, errors.New(prefix + "attachment count mismatch")
	}
	views := make([]*imageView, len(iv))
	for i := range iv {
		v, ok := iv[i].(*imageView)
		if !ok || v == nil {
			return nil, errors.New(prefix + "nil image view")
		}
		if v.m.pf != p.att[i].Format {
			return nil, errors.New(prefix + "view format differs from attachment")
		}
		views[i] = v
	}
	return &framebuf{p: p, views: views, width: width, height: height}, nil
}

// framebuf implements driver.Framebuf.
type framebuf struct {
	p      *renderPass
	views  []*imageView
	width  int
	height int
}

func (f *framebuf) Destroy() { *f = framebuf{} }
