// Copyright 2024 The GLOVE Authors. All rights reserved.

// Package wsi provides window system integration (WSI)
// for the GL layer.
// A Surface multiplexes rendering across a number of
// rotating swap images. Because a system need not have a
// window system, platform support is conditional; the
// Offscreen platform is always available.
package wsi

import (
	"errors"

	"github.com/kimberly990/GLOVE/driver"
)

// Platform identifies an underlying platform used to
// implement wsi.
type Platform int

// Platforms.
const (
	// Offscreen renders into plain GPU images and
	// never presents. It is always available.
	Offscreen Platform = iota
	XCB
	Wayland
	Android
	Win32
	MacOS
	PlaneDisplay
)

// String returns the platform name.
func (p Platform) String() string {
	switch p {
	case Offscreen:
		return "offscreen"
	case XCB:
		return "xcb"
	case Wayland:
		return "wayland"
	case Android:
		return "android"
	case Win32:
		return "win32"
	case MacOS:
		return "macos"
	case PlaneDisplay:
		return "plane-display"
	}
	return "unknown"
}

// Config selects the platform and describes the surface
// to create. It is expected to be produced once at
// startup; platform choice is a pure function of this
// value, there is no package-level selection state.
type Config struct {
	Platform   Platform
	Width      int
	Height     int
	ImageCount int
	// Format of the swap images. The zero value
	// selects BGRA8Unorm.
	Format driver.PixelFmt
}

// ErrNoPlatform means that the requested platform is not
// supported by this build.
var ErrNoPlatform = errors.New("wsi: platform not supported in this build")

// Surface is a presentable render target backed by one
// or more swap images.
// The GL layer's system framebuffer queries ImageIndex
// to select the native framebuffer to render into.
type Surface struct {
	platform Platform
	pf       driver.PixelFmt
	width    int
	height   int
	images   []driver.Image
	views    []driver.ImageView
	dsView   driver.ImageView
	index    int
	present  func(int) error
}

// New creates a Surface from cfg.
// Each platform has its own constructor; the choice is
// made here, once, from the configuration alone.
func New(cfg Config, gpu driver.GPU) (*Surface, error) {
	switch {
	case cfg.Width < 1, cfg.Height < 1:
		return nil, errors.New("wsi: invalid surface size")
	case cfg.ImageCount < 1:
		return nil, errors.New("wsi: invalid image count")
	}
	if cfg.Format == 0 {
		cfg.Format = driver.BGRA8Unorm
	}
	switch cfg.Platform {
	case Offscreen:
		return newOffscreen(cfg, gpu)
	case XCB:
		return newXCB(cfg, gpu)
	case Wayland:
		return newWayland(cfg, gpu)
	case Android:
		return newAndroid(cfg, gpu)
	case Win32:
		return newWin32(cfg, gpu)
	case MacOS:
		return newMacOS(cfg, gpu)
	case PlaneDisplay:
		return newPlaneDisplay(cfg, gpu)
	}
	return nil, errors.New("wsi: unknown platform")
}

// Platform returns the platform s was created for.
func (s *Surface) Platform() Platform { return s.platform }

// Format returns the swap images' pixel format.
func (s *Surface) Format() driver.PixelFmt { return s.pf }

// Width returns the surface width.
func (s *Surface) Width() int { return s.width }

// Height returns the surface height.
func (s *Surface) Height() int { return s.height }

// Views returns one color view per swap image.
// The slice remains unchanged for the lifetime of s.
func (s *Surface) Views() []driver.ImageView { return s.views }

// ImageIndex returns the index of the swap image that
// rendering currently targets.
func (s *Surface) ImageIndex() int { return s.index }

// Advance presents the current swap image and rotates to
// the next one, returning its index.
func (s *Surface) Advance() (int, error) {
	if s.present != nil {
		if err := s.present(s.index); err != nil {
			return s.index, err
		}
	}
	s.index = (s.index + 1) % len(s.views)
	return s.index, nil
}

// SetDepthStencilView stores the shared depth/stencil
// view used alongside every swap image.
func (s *Surface) SetDepthStencilView(v driver.ImageView) { s.dsView = v }

// DepthStencilView returns the view set by
// SetDepthStencilView, or nil.
func (s *Surface) DepthStencilView() driver.ImageView { return s.dsView }

// Free destroys the swap images and views owned by s.
// The depth/stencil view is not owned by the surface and
// is left untouched.
func (s *Surface) Free() {
	for _, v := range s.views {
		v.Destroy()
	}
	for _, m := range s.images {
		m.Destroy()
	}
	*s = Surface{}
}

// newOffscreen creates a surface whose swap images are
// plain render-target images.
func newOffscreen(cfg Config, gpu driver.GPU) (*Surface, error) {
	s := &Surface{
		platform: Offscreen,
		pf:       cfg.Format,
		width:    cfg.Width,
		height:   cfg.Height,
	}
	size := driver.Dim3D{Width: cfg.Width, Height: cfg.Height}
	usg := driver.URenderTarget | driver.UCopySrc
	for i := 0; i < cfg.ImageCount; i++ {
		m, err := gpu.NewImage(cfg.Format, size, usg)
		if err != nil {
			s.Free()
			return nil, err
		}
		s.images = append(s.images, m)
		v, err := m.NewView()
		if err != nil {
			s.Free()
			return nil, err
		}
		s.views = append(s.views, v)
	}
	return s, nil
}
