// Copyright 2024 The GLOVE Authors. All rights reserved.

package soft

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/kimberly990/GLOVE/driver"
)

// cmdBuffer implements driver.CmdBuffer.
// Commands are recorded as closures and executed by
// GPU.Commit.
type cmdBuffer struct {
	g         *GPU
	cmds      []func() error
	recording bool
	ended     bool
	inPass    bool
}

func (c *cmdBuffer) Destroy() { *c = cmdBuffer{} }

func (c *cmdBuffer) Begin() error {
	if c.recording {
		return errors.New(prefix + "nested Begin")
	}
	c.recording = true
	c.ended = false
	return nil
}

func (c *cmdBuffer) IsRecording() bool { return c.recording }

func (c *cmdBuffer) End() error {
	if !c.recording {
		return errors.New(prefix + "End without Begin")
	}
	if c.inPass {
		c.cmds = c.cmds[:0]
		c.recording = false
		return errors.New(prefix + "End within render pass")
	}
	c.recording = false
	c.ended = true
	return nil
}

func (c *cmdBuffer) Reset() error {
	c.cmds = c.cmds[:0]
	c.recording = false
	c.ended = false
	c.inPass = false
	return nil
}

// BeginPass begins a render pass.
// Load ops are applied on begin: LClear overwrites the
// clear area of the matching attachment, anything else
// preserves the current contents.
func (c *cmdBuffer) BeginPass(pass driver.RenderPass, fb driver.Framebuf, clear []driver.ClearValue, area driver.Scissor) {
	if !c.recording || c.inPass {
		panic("soft: BeginPass outside recording")
	}
	c.inPass = true
	p := pass.(*renderPass)
	f := fb.(*framebuf)
	cv := make([]driver.ClearValue, len(clear))
	copy(cv, clear)
	c.cmds = append(c.cmds, func() error {
		for i := range p.att {
			if i >= len(f.views) || i >= len(cv) {
				break
			}
			clearAttachment(f.views[i].m, &p.att[i], &cv[i], area)
		}
		return nil
	})
}

func (c *cmdBuffer) EndPass() {
	if !c.inPass {
		panic("soft: EndPass without BeginPass")
	}
	c.inPass = false
}

func (c *cmdBuffer) CopyBufToImg(param *driver.BufImgCopy) {
	cp := *param
	c.cmds = append(c.cmds, func() error { return runCopy(&cp, true) })
}

func (c *cmdBuffer) CopyImgToBuf(param *driver.BufImgCopy) {
	cp := *param
	c.cmds = append(c.cmds, func() error { return runCopy(&cp, false) })
}

// runCopy moves texel data between a buffer and an image,
// row by row. With StencilOnly set, the buffer side holds
// one byte per texel and only the stencil byte of each
// image texel is touched.
func runCopy(cp *driver.BufImgCopy, toImg bool) error {
	m, ok := cp.Img.(*image)
	if !ok || m.data == nil {
		return errors.New(prefix + "copy with invalid image")
	}
	b, ok := cp.Buf.(*buffer)
	if !ok || b.data == nil {
		return errors.New(prefix + "copy with invalid buffer")
	}
	texSize := m.pf.Size()
	soff := 0
	if cp.StencilOnly {
		soff = m.pf.StencilOffset()
		if soff < 0 {
			return errors.New(prefix + "stencil copy of stencil-less format")
		}
		texSize = 1
	}
	rowStride := cp.RowStride
	if rowStride < cp.Size.Width {
		return errors.New(prefix + "row stride less than copy width")
	}
	end := cp.BufOff + int64((cp.Size.Height-1)*rowStride+cp.Size.Width)*int64(texSize)
	if end > b.Cap() {
		return errors.New(prefix + "copy out of buffer bounds")
	}
	if cp.ImgOff.X < 0 || cp.ImgOff.Y < 0 ||
		cp.ImgOff.X+cp.Size.Width > m.size.Width ||
		cp.ImgOff.Y+cp.Size.Height > m.size.Height {
		return errors.New(prefix + "copy out of image bounds")
	}
	for row := 0; row < cp.Size.Height; row++ {
		boff := cp.BufOff + int64(row*rowStride*texSize)
		for col := 0; col < cp.Size.Width; col++ {
			tx := m.texel(cp.ImgOff.X+col, cp.ImgOff.Y+row)
			bx := b.data[boff+int64(col*texSize):]
			switch {
			case cp.StencilOnly && toImg:
				tx[soff] = bx[0]
			case cp.StencilOnly:
				bx[0] = tx[soff]
			case toImg:
				copy(tx, bx[:texSize])
			default:
				copy(bx[:texSize], tx)
			}
		}
	}
	return nil
}

// clearAttachment applies an attachment's clear load ops
// to the given area of an image.
func clearAttachment(m *image, att *driver.Attachment, cv *driver.ClearValue, area driver.Scissor) {
	x0, y0 := max(area.X, 0), max(area.Y, 0)
	x1 := min(area.X+area.Width, m.size.Width)
	y1 := min(area.Y+area.Height, m.size.Height)
	clearMain := att.Load[0] == driver.LClear
	clearStencil := att.Load[1] == driver.LClear && m.pf.HasStencil()
	if !clearMain && !clearStencil {
		return
	}
	var texel []byte
	if clearMain {
		texel = encodeTexel(m.pf, cv)
	}
	soff := m.pf.StencilOffset()
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			tx := m.texel(x, y)
			if clearMain {
				if soff >= 0 && !clearStencil {
					// Stencil load op is not LClear;
					// keep the stencil byte intact.
					s := tx[soff]
					copy(tx, texel)
					tx[soff] = s
				} else {
					copy(tx, texel)
				}
			}
			if clearStencil {
				tx[soff] = byte(cv.Stencil)
			}
		}
	}
}

// encodeTexel encodes a clear value into one packed texel.
// For depth/stencil formats only the depth aspect is
// encoded; the stencil byte (if any) is handled by the
// stencil load op.
func encodeTexel(pf driver.PixelFmt, cv *driver.ClearValue) []byte {
	tx := make([]byte, pf.Size())
	switch pf {
	case driver.RGBA8Unorm:
		for i := 0; i < 4; i++ {
			tx[i] = unorm8(cv.Color[i])
		}
	case driver.BGRA8Unorm:
		tx[0] = unorm8(cv.Color[2])
		tx[1] = unorm8(cv.Color[1])
		tx[2] = unorm8(cv.Color[0])
		tx[3] = unorm8(cv.Color[3])
	case driver.RGB565Unorm:
		v := uint16(unormN(cv.Color[0], 31))<<11 |
			uint16(unormN(cv.Color[1], 63))<<5 |
			uint16(unormN(cv.Color[2], 31))
		binary.LittleEndian.PutUint16(tx, v)
	case driver.RGBA4Unorm:
		v := uint16(unormN(cv.Color[0], 15))<<12 |
			uint16(unormN(cv.Color[1], 15))<<8 |
			uint16(unormN(cv.Color[2], 15))<<4 |
			uint16(unormN(cv.Color[3], 15))
		binary.LittleEndian.PutUint16(tx, v)
	case driver.RGB5A1Unorm:
		v := uint16(unormN(cv.Color[0], 31))<<11 |
			uint16(unormN(cv.Color[1], 31))<<6 |
			uint16(unormN(cv.Color[2], 31))<<1 |
			uint16(unormN(cv.Color[3], 1))
		binary.LittleEndian.PutUint16(tx, v)
	case driver.D16Unorm:
		binary.LittleEndian.PutUint16(tx, uint16(unormN(cv.Depth, 65535)))
	case driver.D24UnormS8Uint:
		d := unormN(cv.Depth, 1<<24-1)
		tx[0] = byte(d)
		tx[1] = byte(d >> 8)
		tx[2] = byte(d >> 16)
	case driver.D32Float:
		binary.LittleEndian.PutUint32(tx, math.Float32bits(cv.Depth))
	case driver.D32FloatS8Uint:
		binary.LittleEndian.PutUint32(tx, math.Float32bits(cv.Depth))
	case driver.S8Uint:
		tx[0] = byte(cv.Stencil)
	}
	return tx
}

func unorm8(v float32) byte { return byte(unormN(v, 255)) }

func unormN(v float32, n uint32) uint32 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return n
	}
	return uint32(v*float32(n) + 0.5)
}
