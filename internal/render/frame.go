package render

import (
	"fmt"
	"image"
	"sync"
)

// BytesPerPixel is fixed by the rawvideo rgba input format.
const BytesPerPixel = 4

// Frame is one RGBA picture, row-major, Stride == Width*4. Ownership moves
// from the producer to the queue to the writer, which calls Release after
// the bytes are transmitted.
type Frame struct {
	Pix       []byte
	Width     int
	Height    int
	Stride    int
	Timestamp float64
	Sequence  int

	release func([]byte)
}

// NewFrame allocates a zeroed frame.
func NewFrame(width, height int) *Frame {
	return &Frame{
		Pix:    make([]byte, width*height*BytesPerPixel),
		Width:  width,
		Height: height,
		Stride: width * BytesPerPixel,
	}
}

// FrameFromImage wraps img's pixel buffer without copying. img must be tightly
// packed.
func FrameFromImage(img *image.RGBA) (*Frame, error) {
	b := img.Bounds()
	if img.Stride != b.Dx()*BytesPerPixel || len(img.Pix) < b.Dx()*b.Dy()*BytesPerPixel {
		return nil, fmt.Errorf("image is not tightly packed (stride %d, width %d)", img.Stride, b.Dx())
	}
	return &Frame{
		Pix:    img.Pix[:b.Dx()*b.Dy()*BytesPerPixel],
		Width:  b.Dx(),
		Height: b.Dy(),
		Stride: img.Stride,
	}, nil
}

// Image returns an image.RGBA view over the frame's pixels.
func (f *Frame) Image() *image.RGBA {
	return &image.RGBA{Pix: f.Pix, Stride: f.Stride, Rect: image.Rect(0, 0, f.Width, f.Height)}
}

// Size returns the byte length the encoder expects for one frame.
func (f *Frame) Size() int { return f.Width * f.Height * BytesPerPixel }

// Validate checks the layout against the expected dimensions.
func (f *Frame) Validate(width, height int) error {
	if f.Width != width || f.Height != height {
		return fmt.Errorf("frame is %dx%d, expected %dx%d", f.Width, f.Height, width, height)
	}
	if f.Stride != width*BytesPerPixel {
		return fmt.Errorf("frame stride %d, expected %d", f.Stride, width*BytesPerPixel)
	}
	if len(f.Pix) != f.Size() {
		return fmt.Errorf("frame has %d bytes, expected %d", len(f.Pix), f.Size())
	}
	return nil
}

// Release hands the pixel buffer back to its pool. The frame must not be
// used afterwards.
func (f *Frame) Release() {
	if f == nil || f.release == nil {
		return
	}
	release := f.release
	f.release = nil
	release(f.Pix)
	f.Pix = nil
}

// bufferPool recycles frame buffers of one size.
type bufferPool struct {
	size int
	pool sync.Pool
}

func newBufferPool(size int) *bufferPool {
	p := &bufferPool{size: size}
	p.pool.New = func() any {
		buf := make([]byte, size)
		return &buf
	}
	return p
}

func (p *bufferPool) frame(width, height int) *Frame {
	buf := p.pool.Get().(*[]byte)
	return &Frame{
		Pix:     (*buf)[:p.size],
		Width:   width,
		Height:  height,
		Stride:  width * BytesPerPixel,
		release: p.put,
	}
}

func (p *bufferPool) put(buf []byte) {
	if cap(buf) < p.size {
		return
	}
	buf = buf[:p.size]
	p.pool.Put(&buf)
}
