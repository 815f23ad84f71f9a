// Copyright 2024 The GLOVE Authors. All rights reserved.

// Package gles implements the render-target model of the
// GL API on top of the driver interfaces.
// It owns framebuffer objects, their attachments and the
// native render-pass state derived from them; textures and
// renderbuffers are wrapped just enough to serve as
// attachment sources.
package gles

import (
	"github.com/kimberly990/GLOVE/driver"
)

// Context carries the command-submission state shared by
// every object created against one GL context.
// All methods must be called from the single goroutine
// driving command recording for the context.
type Context struct {
	gpu    driver.GPU
	limits driver.Limits
	cmd    driver.CmdBuffer
	ch     chan error
}

// NewContext creates a Context on the given GPU.
func NewContext(gpu driver.GPU) (*Context, error) {
	cmd, err := gpu.NewCmdBuffer()
	if err != nil {
		return nil, err
	}
	return &Context{
		gpu:    gpu,
		limits: gpu.Limits(),
		cmd:    cmd,
		ch:     make(chan error, 1),
	}, nil
}

// GPU returns the driver.GPU the context was created on.
func (c *Context) GPU() driver.GPU { return c.gpu }

// Limits returns the GPU limits.
// The value is queried once at context creation and must
// not be changed by the caller.
func (c *Context) Limits() *driver.Limits { return &c.limits }

// Cmd returns the command buffer currently being recorded,
// beginning a new recording if none is in progress.
func (c *Context) Cmd() (driver.CmdBuffer, error) {
	if !c.cmd.IsRecording() {
		if err := c.cmd.Begin(); err != nil {
			return nil, err
		}
	}
	return c.cmd, nil
}

// Flush submits the recorded commands and blocks until
// they complete execution.
// It is a no-op when nothing was recorded.
func (c *Context) Flush() error {
	if !c.cmd.IsRecording() {
		return nil
	}
	if err := c.cmd.End(); err != nil {
		return err
	}
	c.gpu.Commit([]driver.CmdBuffer{c.cmd}, c.ch)
	return <-c.ch
}

// Free destroys the context's command buffer.
func (c *Context) Free() {
	if c.cmd != nil {
		c.cmd.Destroy()
	}
	*c = Context{}
}
