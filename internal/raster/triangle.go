package raster

import "dualmode-renderer/internal/pipeline"

// farTolerance absorbs rounding when comparing fragment depth to the far
// plane.
const farTolerance = 1e-9

// edge returns twice the signed area of (a, b, p); positive when p is to
// the left of a→b.
func edge(a, b, p [2]float64) float64 {
	return (b[0]-a[0])*(p[1]-a[1]) - (b[1]-a[1])*(p[0]-a[0])
}

// topLeft reports whether a→b is a top or left edge of a counter-clockwise
// triangle in y-up pixel space. Pixels exactly on such an edge belong to the
// triangle; pixels on the other edges belong to the neighbour.
func topLeft(a, b [2]float64) bool {
	dx, dy := b[0]-a[0], b[1]-a[1]
	return dy < 0 || (dy == 0 && dx < 0)
}

// covers applies the fill rule to one edge value.
func covers(e float64, tl bool) bool {
	return e > 0 || (e == 0 && tl)
}

// fragment is the per-pixel result of testing a slot.
type fragment struct {
	depth float64
	ok    bool
}

// shadePixel tests the center of pixel (x, y) against slot s and returns
// its perspective-correct camera-space depth.
func shadePixel(s *Slot, far float64, x, y int) fragment {
	p := [2]float64{float64(x) + 0.5, float64(y) + 0.5}
	v0, v1, v2 := s.Screen[0], s.Screen[1], s.Screen[2]

	e0 := edge(v1, v2, p)
	e1 := edge(v2, v0, p)
	e2 := edge(v0, v1, p)
	if !covers(e0, topLeft(v1, v2)) || !covers(e1, topLeft(v2, v0)) || !covers(e2, topLeft(v0, v1)) {
		return fragment{}
	}

	// Barycentrics in screen space; 1/w is affine there, depth is not.
	inv := 1.0 / s.Area
	b0, b1, b2 := e0*inv, e1*inv, e2*inv
	invW := b0/s.Clip[0][3] + b1/s.Clip[1][3] + b2/s.Clip[2][3]
	if invW <= 0 {
		return fragment{}
	}
	depth := 1.0 / invW
	if depth > far*(1+farTolerance) {
		return fragment{}
	}
	return fragment{depth: depth, ok: true}
}

// rasterizeSpan processes pixels [lo, hi) of slot s, numbered row by row
// over its bounds, and writes the survivors with the atomic depth test.
// It returns the number of fragments that covered a pixel and how many of
// them won the depth test.
func rasterizeSpan(ctx *pipeline.Context, s *Slot, lo, hi int) (covered, written int) {
	fb := ctx.Target
	far := ctx.Frame.Far
	bw := s.Bounds.Width()
	for k := lo; k < hi; k++ {
		x := s.Bounds.MinX + k%bw
		y := s.Bounds.MinY + k/bw
		idx := fb.Index(x, y)
		if !ctx.Pixels.Contains(idx) {
			continue
		}
		f := shadePixel(s, far, x, y)
		if !f.ok {
			continue
		}
		covered++
		if fb.Store(idx, f.depth, s.Color) {
			written++
		}
	}
	return covered, written
}
