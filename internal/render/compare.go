package render

import (
	"fmt"
	"math"

	"dualmode-renderer/internal/framebuf"
)

// Agreement summarizes how two frames of the same pose differ.
type Agreement struct {
	Pixels   int
	Both     int // covered in both frames
	OnlyA    int
	OnlyB    int
	Mismatch int // covered in both, depth differs by more than the tolerance
	MaxDelta float64
}

// Coverage returns the fraction of pixels covered in either frame that are
// covered in both.
func (a Agreement) Coverage() float64 {
	union := a.Both + a.OnlyA + a.OnlyB
	if union == 0 {
		return 1
	}
	return float64(a.Both) / float64(union)
}

// Compare checks a and b pixel by pixel. Depths match when they differ by at
// most tolerance, scaled by the depth itself beyond 1.
func Compare(a, b *framebuf.FrameBuffer, tolerance float64) (Agreement, error) {
	if a.Width != b.Width || a.Height != b.Height {
		return Agreement{}, fmt.Errorf("render: compare %dx%d with %dx%d", a.Width, a.Height, b.Width, b.Height)
	}
	res := Agreement{Pixels: a.Len()}
	for i := 0; i < a.Len(); i++ {
		da, _ := a.At(i)
		db, _ := b.At(i)
		inA, inB := !math.IsInf(da, 1), !math.IsInf(db, 1)
		switch {
		case inA && inB:
			res.Both++
			delta := math.Abs(da - db)
			res.MaxDelta = math.Max(res.MaxDelta, delta)
			if delta > tolerance*math.Max(1, math.Min(da, db)) {
				res.Mismatch++
			}
		case inA:
			res.OnlyA++
		case inB:
			res.OnlyB++
		}
	}
	return res, nil
}
