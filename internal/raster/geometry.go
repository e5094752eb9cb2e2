package raster

import (
	"math"

	"dualmode-renderer/internal/mathutil"
	"dualmode-renderer/internal/pipeline"
)

// minW is the smallest |w| a clipped vertex may have before the divide.
const minW = 1e-6

// minArea rejects slivers with no measurable pixel-space area.
const minArea = 1e-12

// ProcessGeometry runs the geometry stage: one task per scene triangle
// writes that triangle's two slots. Triangles outside ctx.Triangles get two
// empty slots. slots must hold SlotsPerTriangle entries per scene triangle.
func ProcessGeometry(ctx *pipeline.Context, slots Slots) error {
	n := ctx.Scene.Len()
	if len(slots) != n*SlotsPerTriangle {
		panic("raster: slot array does not match scene size")
	}
	return ctx.Dispatcher.For(n, func(i int) {
		pair := slots.Pair(i)
		pair[0].reset()
		pair[1].reset()
		if !ctx.Triangles.Contains(i) {
			return
		}
		processTriangle(ctx, i, pair)
	})
}

func processTriangle(ctx *pipeline.Context, i int, out *[SlotsPerTriangle]Slot) {
	tri := ctx.Scene.At(i)
	vp := ctx.Frame.ViewProj

	a, b, c := tri.At(0), tri.At(1), tri.At(2)
	poly := clipTriangle(vp.MulVec4(a), vp.MulVec4(b), vp.MulVec4(c))
	if poly.triangles() == 0 {
		return
	}

	col := ctx.Light.Face(a.Vec3(), b.Vec3(), c.Vec3())
	w, h := ctx.Target.Width, ctx.Target.Height
	for k := 0; k < poly.triangles(); k++ {
		s := &out[k]
		setupSlot(s, poly.v[0], poly.v[k+1], poly.v[k+2], w, h)
		s.Color = col
	}
}

// setupSlot divides, maps to pixels, orients counter-clockwise and bounds
// one clipped triangle. Any failure leaves the slot empty.
func setupSlot(s *Slot, a, b, c mathutil.Vec4, w, h int) {
	s.reset()
	clipV := [3]mathutil.Vec4{a, b, c}
	for _, v := range clipV {
		if math.Abs(v[3]) < minW {
			return
		}
	}

	var ndc [3]mathutil.Vec3
	var scr [3][2]float64
	for k, v := range clipV {
		ndc[k] = v.Divide()
		scr[k] = [2]float64{
			(ndc[k][0] + 1) * 0.5 * float64(w),
			(ndc[k][1] + 1) * 0.5 * float64(h),
		}
	}

	area := edge(scr[0], scr[1], scr[2])
	if math.IsNaN(area) || math.Abs(area) < minArea {
		return
	}
	if area < 0 {
		clipV[1], clipV[2] = clipV[2], clipV[1]
		ndc[1], ndc[2] = ndc[2], ndc[1]
		scr[1], scr[2] = scr[2], scr[1]
		area = -area
	}

	bounds := pixelBounds(scr, w, h)
	if bounds.Empty() {
		return
	}

	s.Valid = true
	s.Clip = clipV
	s.NDC = ndc
	s.Screen = scr
	s.Area = area
	s.Bounds = bounds
}

// pixelBounds returns the pixels whose centers can fall inside the
// triangle, clamped to the frame.
func pixelBounds(scr [3][2]float64, w, h int) Bounds {
	minX := math.Min(scr[0][0], math.Min(scr[1][0], scr[2][0]))
	maxX := math.Max(scr[0][0], math.Max(scr[1][0], scr[2][0]))
	minY := math.Min(scr[0][1], math.Min(scr[1][1], scr[2][1]))
	maxY := math.Max(scr[0][1], math.Max(scr[1][1], scr[2][1]))

	// Pixel x is sampled at x+0.5.
	b := Bounds{
		MinX: clampInt(math.Ceil(minX-0.5), 0, w),
		MaxX: clampInt(math.Floor(maxX-0.5), -1, w-1),
		MinY: clampInt(math.Ceil(minY-0.5), 0, h),
		MaxY: clampInt(math.Floor(maxY-0.5), -1, h-1),
	}
	if b.Empty() {
		return EmptyBounds
	}
	return b
}

func clampInt(v float64, lo, hi int) int {
	if v < float64(lo) {
		return lo
	}
	if v > float64(hi) {
		return hi
	}
	return int(v)
}
