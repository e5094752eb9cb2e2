// Package framebuf holds the shared color and depth grids written by the
// clear stage, the rasterizer and the ray caster.
//
// Each pixel is a single 64-bit cell: the high half stores the depth as
// float32 bits, the low half the RGBA8 color. Depths are never negative, so
// the unsigned order of a cell is the depth order with the color as a
// deterministic tie-break. Nearest-wins compositing is then an atomic
// minimum over cells, which keeps depth and color consistent without locks.
package framebuf

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"sync/atomic"

	"dualmode-renderer/internal/dispatch"
)

// MaxPixels bounds the allocation done by New and Resize.
const MaxPixels = 1 << 27

// ErrResolution is returned for resolutions that cannot be allocated.
var ErrResolution = errors.New("framebuf: invalid resolution")

// FarDepth is the depth sentinel a cleared pixel holds.
var FarDepth = math.Inf(1)

// FrameBuffer is a Width×Height color grid and depth grid. Row 0 is the
// bottom row of the image.
type FrameBuffer struct {
	Width  int
	Height int
	cells  []atomic.Uint64
}

// New allocates a frame buffer. Every cell starts cleared to transparent
// black at FarDepth.
func New(w, h int) (*FrameBuffer, error) {
	fb := &FrameBuffer{}
	if err := fb.Resize(w, h); err != nil {
		return nil, err
	}
	return fb, nil
}

// Resize reallocates the grids. The previous contents are discarded.
func (fb *FrameBuffer) Resize(w, h int) error {
	if w <= 0 || h <= 0 || w > MaxPixels/h {
		return fmt.Errorf("%w: %dx%d", ErrResolution, w, h)
	}
	fb.Width = w
	fb.Height = h
	fb.cells = make([]atomic.Uint64, w*h)
	sentinel := pack(FarDepth, color.NRGBA{})
	for i := range fb.cells {
		fb.cells[i].Store(sentinel)
	}
	return nil
}

// Len returns the number of pixels.
func (fb *FrameBuffer) Len() int {
	return len(fb.cells)
}

// Index returns the linear index of pixel (x, y).
func (fb *FrameBuffer) Index(x, y int) int {
	return y*fb.Width + x
}

// Clear resets every pixel to bg at FarDepth, one task per pixel. The call
// returns after all pixels are reset.
func (fb *FrameBuffer) Clear(d *dispatch.Dispatcher, bg color.NRGBA) error {
	sentinel := pack(FarDepth, bg)
	return d.ForRange(len(fb.cells), func(lo, hi int) error {
		for i := lo; i < hi; i++ {
			fb.cells[i].Store(sentinel)
		}
		return nil
	})
}

// Store writes (depth, c) at pixel i if it is nearer than what the pixel
// holds. The compare and the write are one atomic step, so concurrent
// writers to the same pixel always leave the nearest sample. It reports
// whether the candidate won.
func (fb *FrameBuffer) Store(i int, depth float64, c color.NRGBA) bool {
	if math.IsNaN(depth) {
		return false
	}
	cand := pack(depth, c)
	cell := &fb.cells[i]
	for {
		old := cell.Load()
		if cand >= old {
			return false
		}
		if cell.CompareAndSwap(old, cand) {
			return true
		}
	}
}

// Set unconditionally overwrites pixel i. Only for stages whose tasks own
// disjoint pixels.
func (fb *FrameBuffer) Set(i int, depth float64, c color.NRGBA) {
	fb.cells[i].Store(pack(depth, c))
}

// At returns the depth and color of pixel i.
func (fb *FrameBuffer) At(i int) (float64, color.NRGBA) {
	return unpack(fb.cells[i].Load())
}

// Color returns the color at (x, y).
func (fb *FrameBuffer) Color(x, y int) color.NRGBA {
	_, c := fb.At(fb.Index(x, y))
	return c
}

// Depth returns the depth at (x, y).
func (fb *FrameBuffer) Depth(x, y int) float64 {
	d, _ := fb.At(fb.Index(x, y))
	return d
}

// Covered reports whether any surface was written at (x, y) this frame.
func (fb *FrameBuffer) Covered(x, y int) bool {
	return !math.IsInf(fb.Depth(x, y), 1)
}

// ColorImage copies the color grid into an image with the usual top-down
// row order.
func (fb *FrameBuffer) ColorImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, fb.Width, fb.Height))
	for y := 0; y < fb.Height; y++ {
		row := (fb.Height - 1 - y) * img.Stride
		for x := 0; x < fb.Width; x++ {
			c := fb.Color(x, y)
			off := row + x*4
			img.Pix[off] = c.R
			img.Pix[off+1] = c.G
			img.Pix[off+2] = c.B
			img.Pix[off+3] = c.A
		}
	}
	return img
}

// DepthImage maps depth linearly from [near, far] to white..black. Pixels
// at FarDepth are black.
func (fb *FrameBuffer) DepthImage(near, far float64) *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, fb.Width, fb.Height))
	span := far - near
	if span <= 0 {
		span = 1
	}
	for y := 0; y < fb.Height; y++ {
		for x := 0; x < fb.Width; x++ {
			d := fb.Depth(x, y)
			v := 0.0
			if !math.IsInf(d, 1) {
				v = 1 - (d-near)/span
				v = math.Max(0, math.Min(1, v))
			}
			img.SetGray16(x, fb.Height-1-y, color.Gray16{Y: uint16(v*65535 + 0.5)})
		}
	}
	return img
}

func pack(depth float64, c color.NRGBA) uint64 {
	if depth < 0 {
		depth = 0
	}
	bits := uint64(math.Float32bits(float32(depth)))
	rgba := uint64(c.R)<<24 | uint64(c.G)<<16 | uint64(c.B)<<8 | uint64(c.A)
	return bits<<32 | rgba
}

func unpack(v uint64) (float64, color.NRGBA) {
	depth := float64(math.Float32frombits(uint32(v >> 32)))
	return depth, color.NRGBA{
		R: uint8(v >> 24),
		G: uint8(v >> 16),
		B: uint8(v >> 8),
		A: uint8(v),
	}
}
