package raster

import (
	"image/color"

	"dualmode-renderer/internal/mathutil"
)

// SlotsPerTriangle is the fixed clip output budget of one input triangle.
const SlotsPerTriangle = 2

// Bounds is an inclusive pixel rectangle. A rectangle with Min > Max on
// either axis is empty.
type Bounds struct {
	MinX, MinY int
	MaxX, MaxY int
}

// EmptyBounds is the canonical empty rectangle.
var EmptyBounds = Bounds{MinX: 0, MinY: 0, MaxX: -1, MaxY: -1}

func (b Bounds) Empty() bool {
	return b.MinX > b.MaxX || b.MinY > b.MaxY
}

func (b Bounds) Width() int {
	if b.Empty() {
		return 0
	}
	return b.MaxX - b.MinX + 1
}

// Area returns the number of pixels inside the rectangle.
func (b Bounds) Area() int {
	if b.Empty() {
		return 0
	}
	return (b.MaxX - b.MinX + 1) * (b.MaxY - b.MinY + 1)
}

// Slot is one clipped triangle, or nothing. Vertices are stored with
// counter-clockwise winding in pixel space.
type Slot struct {
	Valid bool

	Clip   [3]mathutil.Vec4 // before the homogeneous divide
	NDC    [3]mathutil.Vec3 // after the divide
	Screen [3][2]float64    // pixel space, row 0 at the bottom
	Bounds Bounds
	Color  color.NRGBA

	// Area is twice the signed pixel-space area (always > 0 when Valid).
	Area float64
}

// reset marks the slot empty.
func (s *Slot) reset() {
	*s = Slot{Bounds: EmptyBounds}
}

// Slots is the geometry stage output: exactly SlotsPerTriangle entries per
// scene triangle, slot 2i and 2i+1 belonging to triangle i.
type Slots []Slot

// NewSlots allocates the slot array for n scene triangles.
func NewSlots(n int) Slots {
	s := make(Slots, n*SlotsPerTriangle)
	for i := range s {
		s[i].reset()
	}
	return s
}

// Pair returns the two slots of scene triangle i.
func (s Slots) Pair(i int) *[SlotsPerTriangle]Slot {
	return (*[SlotsPerTriangle]Slot)(s[i*SlotsPerTriangle : (i+1)*SlotsPerTriangle])
}

// ValidCount returns the number of non-empty slots.
func (s Slots) ValidCount() int {
	n := 0
	for i := range s {
		if s[i].Valid {
			n++
		}
	}
	return n
}
