// Copyright 2024 The GLOVE Authors. All rights reserved.

package driver

// GPU is the main interface to an underlying driver
// implementation.
// It is used to create other types and to execute commands.
// A GPU is obtained from a call to Driver.Open.
type GPU interface {
	// Driver returns the Driver that owns the GPU.
	Driver() Driver

	// Commit commits a batch of command buffers to the GPU
	// for execution.
	// This method sends the result to ch when all commands
	// complete execution. Command buffers in cb cannot be
	// used for recording until then.
	Commit(cb []CmdBuffer, ch chan<- error)

	// NewCmdBuffer creates a new command buffer.
	NewCmdBuffer() (CmdBuffer, error)

	// NewRenderPass creates a new render pass.
	NewRenderPass(att []Attachment) (RenderPass, error)

	// NewBuffer creates a new buffer.
	NewBuffer(size int64, visible bool, usg Usage) (Buffer, error)

	// NewImage creates a new image.
	NewImage(pf PixelFmt, size Dim3D, usg Usage) (Image, error)

	// Limits returns the implementation limits.
	// They are immutable for the lifetime of the GPU.
	Limits() Limits
}

// Destroyer is the interface that wraps the Destroy method.
// Types that implement this interface may allocate external
// memory that is not managed by GC, so Destroy must be
// called explicitly to ensure such memory is deallocated.
type Destroyer interface {
	Destroy()
}

// CmdBuffer is the interface that defines a command buffer.
// Commands are recorded into command buffers and later
// committed to the GPU for execution. The usage is as
// follows: first, call Begin to prepare the command buffer
// for recording, then record render passes (BeginPass,
// draw state, EndPass) and/or copy commands, and finally
// call End followed by GPU.Commit.
type CmdBuffer interface {
	Destroyer

	// Begin prepares the command buffer for recording.
	// It must be called before any command is recorded,
	// and again after the command buffer is executed
	// or reset.
	Begin() error

	// IsRecording returns whether Begin was called and
	// recording is still in progress.
	IsRecording() bool

	// BeginPass begins a render pass.
	// Each clear value corresponds to the render pass'
	// attachment of same index; it is ignored for
	// attachments whose load op is not LClear.
	// Clearing is restricted to the given area.
	BeginPass(pass RenderPass, fb Framebuf, clear []ClearValue, area Scissor)

	// EndPass ends the current render pass.
	EndPass()

	// CopyBufToImg copies data from a buffer to an image.
	CopyBufToImg(param *BufImgCopy)

	// CopyImgToBuf copies data from an image to a buffer.
	CopyImgToBuf(param *BufImgCopy)

	// End ends command recording and prepares the command
	// buffer for execution.
	// Upon failure, the command buffer is reset.
	End() error

	// Reset discards all recorded commands from the
	// command buffer.
	Reset() error
}

// BufImgCopy describes the parameters of a copy command
// that copies data between a buffer and an image.
// RowStride is given in texels and defines the addressing
// of image rows in the buffer; it must not be less than
// Size.Width.
type BufImgCopy struct {
	Buf       Buffer
	BufOff    int64
	RowStride int
	Img       Image
	ImgOff    Off3D
	Size      Dim3D
	// StencilOnly selects the stencil aspect of Img.
	// The buffer then holds one byte per texel and the
	// depth aspect is left untouched. It is only valid
	// for images whose PixelFmt has stencil bits.
	StencilOnly bool
}

// LoadOp is the type of an attachment's load operation.
type LoadOp int

// Load operations.
const (
	LDontCare LoadOp = iota
	LClear
	LLoad
)

// StoreOp is the type of an attachment's store operation.
type StoreOp int

// Store operations.
const (
	SDontCare StoreOp = iota
	SStore
)

// Attachment describes the configuration of a single
// render target for use in a render pass.
// In the Load and Store arrays, [0] applies to the
// color or depth aspect and [1] to the stencil aspect.
type Attachment struct {
	Format PixelFmt
	Load   [2]LoadOp
	Store  [2]StoreOp
}

// RenderPass is the interface that defines a render pass
// into which draw commands operate.
type RenderPass interface {
	Destroyer

	// NewFB creates a new framebuffer.
	// Each image view in iv corresponds to the render
	// pass' attachment of same index. A view's pixel
	// format must match the attachment's.
	// All framebuffers created from a given render pass
	// must be destroyed before the render pass itself
	// is destroyed.
	NewFB(iv []ImageView, width, height int) (Framebuf, error)
}

// Framebuf is the interface that defines the render targets
// of a render pass.
type Framebuf interface {
	Destroyer
}

// ClearValue defines clear values for color or
// depth/stencil aspects of a render target.
type ClearValue struct {
	Color   [4]float32
	Depth   float32
	Stencil uint32
}

// Scissor defines a scissor rectangle.
type Scissor struct {
	X, Y, Width, Height int
}

// Usage is a mask indicating valid uses for a resource.
type Usage int

// Usage flags for Buffer and Image.
const (
	// The resource can be the source of a copy command.
	UCopySrc Usage = 1 << iota
	// The resource can be the destination of a copy command.
	UCopyDst
	// The resource can be sampled in shaders.
	// Valid only for Image.
	UShaderSample
	// The resource can be used as render target.
	// Valid only for Image.
	URenderTarget
	// The resource can be used for any purpose.
	UGeneric Usage = 1<<iota - 1
)

// Buffer is the interface that defines a GPU buffer.
// The size of the buffer is fixed.
type Buffer interface {
	Destroyer

	// Visible returns whether the buffer is host visible.
	// Non-visible memory cannot be accessed by the CPU.
	Visible() bool

	// Bytes returns a slice of length Cap referring to the
	// underlying data. If the buffer is not host visible,
	// it returns nil instead.
	// The slice is valid for the lifetime of the buffer.
	Bytes() []byte

	// Cap returns the capacity of the buffer in bytes.
	// This value is immutable.
	Cap() int64
}

// PixelFmt describes the format of a pixel.
type PixelFmt int

// Pixel formats.
const (
	// FInvalid is the sentinel for "no format".
	// Render pass attachments with this format are
	// treated as absent.
	FInvalid PixelFmt = iota
	// Color, 8-bit channels.
	RGBA8Unorm
	BGRA8Unorm
	// Color, packed 16-bit.
	RGB565Unorm
	RGBA4Unorm
	RGB5A1Unorm
	// Depth/Stencil.
	D16Unorm
	D24UnormS8Uint
	D32Float
	D32FloatS8Uint
	S8Uint
)

// Size returns the size in bytes of one texel of f.
func (f PixelFmt) Size() int {
	switch f {
	case RGBA8Unorm, BGRA8Unorm, D24UnormS8Uint, D32Float:
		return 4
	case RGB565Unorm, RGBA4Unorm, RGB5A1Unorm, D16Unorm:
		return 2
	case D32FloatS8Uint:
		return 5
	case S8Uint:
		return 1
	}
	return 0
}

// DepthBits returns the number of depth bits in f.
func (f PixelFmt) DepthBits() int {
	switch f {
	case D16Unorm:
		return 16
	case D24UnormS8Uint:
		return 24
	case D32Float, D32FloatS8Uint:
		return 32
	}
	return 0
}

// StencilBits returns the number of stencil bits in f.
func (f PixelFmt) StencilBits() int {
	switch f {
	case D24UnormS8Uint, D32FloatS8Uint, S8Uint:
		return 8
	}
	return 0
}

// HasDepth returns whether f has a depth aspect.
func (f PixelFmt) HasDepth() bool { return f.DepthBits() != 0 }

// HasStencil returns whether f has a stencil aspect.
func (f PixelFmt) HasStencil() bool { return f.StencilBits() != 0 }

// IsColor returns whether f is a color format.
func (f PixelFmt) IsColor() bool {
	return f != FInvalid && !f.HasDepth() && !f.HasStencil()
}

// StencilOffset returns the byte offset of the stencil
// aspect within one packed texel of f.
// It returns -1 if f has no stencil bits.
func (f PixelFmt) StencilOffset() int {
	switch f {
	case S8Uint:
		return 0
	case D24UnormS8Uint:
		return 3
	case D32FloatS8Uint:
		return 4
	}
	return -1
}

// Dim3D is a three-dimensional size.
type Dim3D struct {
	Width, Height, Depth int
}

// Off3D is a three-dimensional offset.
type Off3D struct {
	X, Y, Z int
}

// Image is the interface that defines a GPU image.
// Direct access to image memory is not provided, so moving
// data between the CPU and an image resource requires the
// use of a staging buffer.
type Image interface {
	Destroyer

	// NewView creates a new image view.
	// All views created from a given image must be
	// destroyed before the image itself is destroyed.
	NewView() (ImageView, error)

	// PixelFmt returns the format the image was
	// created with.
	PixelFmt() PixelFmt

	// Size returns the dimensions the image was
	// created with.
	Size() Dim3D
}

// ImageView is the interface that defines a typed view of
// an Image resource.
type ImageView interface {
	Destroyer

	// Image returns the image the view was created from.
	Image() Image
}

// Limits describes implementation limits.
// These may vary across drivers and devices.
type Limits struct {
	// Maximum width and height of 2D images.
	MaxImage2D int
	// Maximum number of color render targets in a
	// render pass.
	MaxColorTargets int
	// Maximum width/height for a framebuffer.
	MaxFBSize [2]int
	// Combined depth/stencil formats supported as
	// render targets, in order of preference.
	DepthStencilFmts []PixelFmt
}
