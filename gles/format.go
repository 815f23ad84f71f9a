// Copyright 2024 The GLOVE Authors. All rights reserved.

package gles

import "github.com/kimberly990/GLOVE/driver"

// Format is an internal (GL-side) pixel format.
type Format int

// Internal formats.
const (
	FormatNone Format = iota
	// Color.
	RGBA8
	BGRA8
	RGB565
	RGBA4
	RGB5A1
	// Depth.
	Depth16
	Depth24
	Depth32F
	// Stencil.
	Stencil8
	// Combined.
	Depth24Stencil8
)

// ColorRenderable returns whether f can back a color
// attachment.
func (f Format) ColorRenderable() bool {
	switch f {
	case RGBA8, BGRA8, RGB565, RGBA4, RGB5A1:
		return true
	}
	return false
}

// DepthRenderable returns whether f can back a depth
// attachment.
func (f Format) DepthRenderable() bool { return f.DepthBits() != 0 }

// StencilRenderable returns whether f can back a stencil
// attachment.
func (f Format) StencilRenderable() bool { return f.StencilBits() != 0 }

// DepthBits returns the number of depth bits in f.
func (f Format) DepthBits() int {
	switch f {
	case Depth16:
		return 16
	case Depth24, Depth24Stencil8:
		return 24
	case Depth32F:
		return 32
	}
	return 0
}

// StencilBits returns the number of stencil bits in f.
func (f Format) StencilBits() int {
	switch f {
	case Stencil8, Depth24Stencil8:
		return 8
	}
	return 0
}

// nativeFormat maps f to the closest driver format.
func (f Format) nativeFormat() driver.PixelFmt {
	switch f {
	case RGBA8:
		return driver.RGBA8Unorm
	case BGRA8:
		return driver.BGRA8Unorm
	case RGB565:
		return driver.RGB565Unorm
	case RGBA4:
		return driver.RGBA4Unorm
	case RGB5A1:
		return driver.RGB5A1Unorm
	case Depth16:
		return driver.D16Unorm
	case Depth24, Depth24Stencil8:
		return driver.D24UnormS8Uint
	case Depth32F:
		return driver.D32Float
	case Stencil8:
		return driver.S8Uint
	}
	return driver.FInvalid
}

// formatFromNative re-derives the internal format from a
// chosen native format.
func formatFromNative(pf driver.PixelFmt) Format {
	switch pf {
	case driver.RGBA8Unorm:
		return RGBA8
	case driver.BGRA8Unorm:
		return BGRA8
	case driver.RGB565Unorm:
		return RGB565
	case driver.RGBA4Unorm:
		return RGBA4
	case driver.RGB5A1Unorm:
		return RGB5A1
	case driver.D16Unorm:
		return Depth16
	case driver.D24UnormS8Uint, driver.D32FloatS8Uint:
		return Depth24Stencil8
	case driver.D32Float:
		return Depth32F
	case driver.S8Uint:
		return Stencil8
	}
	return FormatNone
}

// combinedDepthStencilFormat derives the ideal native
// format for a combined surface serving a depth attachment
// of format df and a stencil attachment of format sf.
// Either may be FormatNone.
func combinedDepthStencilFormat(df, sf Format) driver.PixelFmt {
	db := df.DepthBits()
	sb := sf.StencilBits()
	switch {
	case db > 24:
		if sb > 0 {
			return driver.D32FloatS8Uint
		}
		return driver.D32Float
	case db > 16:
		return driver.D24UnormS8Uint
	case db > 0:
		if sb > 0 {
			return driver.D24UnormS8Uint
		}
		return driver.D16Unorm
	case sb > 0:
		return driver.S8Uint
	}
	return driver.FInvalid
}

// supportedDepthStencilFormat returns the closest natively
// supported depth/stencil format honoring the given bit
// counts, falling back to any format carrying the needed
// aspects when no exact match exists.
func supportedDepthStencilFormat(limits *driver.Limits, depthBits, stencilBits int) driver.PixelFmt {
	for _, pf := range limits.DepthStencilFmts {
		if pf.DepthBits() >= depthBits && pf.StencilBits() >= stencilBits {
			return pf
		}
	}
	for _, pf := range limits.DepthStencilFmts {
		if (depthBits == 0 || pf.HasDepth()) && (stencilBits == 0 || pf.HasStencil()) {
			return pf
		}
	}
	return driver.FInvalid
}
