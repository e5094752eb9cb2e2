// Package raycast renders the scene by casting one primary ray per pixel
// and searching every triangle for the nearest hit.
package raycast

import (
	"image/color"
	"math"
	"sync/atomic"

	"dualmode-renderer/internal/framebuf"
	"dualmode-renderer/internal/mathutil"
	"dualmode-renderer/internal/pipeline"
	"dualmode-renderer/internal/scene"
)

// prepared caches the per-triangle data every ray needs.
type prepared struct {
	a, e1, e2 mathutil.Vec3
	color     color.NRGBA
}

// Stats summarises one ray-cast stage.
type Stats struct {
	Rays  int
	Tests int64
	Hits  int64
}

// Caster owns the per-frame scratch state reused between frames.
type Caster struct {
	tris []prepared
}

// Nearest returns the closest hit of r among tris[span], or false.
func Nearest(r Ray, tris []scene.Triangle, span pipeline.Span) (Hit, bool) {
	best := Hit{T: math.Inf(1), Triangle: -1}
	for i := max(span.Lo, 0); i <= span.Hi && i < len(tris); i++ {
		t := tris[i]
		h, ok := Intersect(r, t.Vertex(0), t.Vertex(1), t.Vertex(2))
		if ok && h.T < best.T {
			h.Triangle = i
			best = h
		}
	}
	return best, best.Triangle >= 0
}

// Cast runs the ray-cast stage: one independent task per pixel in
// ctx.Pixels. Each task owns its pixel, so writes need no synchronisation.
func (c *Caster) Cast(ctx *pipeline.Context) (Stats, error) {
	c.prepare(ctx)

	fb := ctx.Target
	frame := ctx.Frame
	stats := Stats{Rays: ctx.Pixels.Len()}
	var tests, hits atomic.Int64

	w, h := float64(fb.Width), float64(fb.Height)
	err := ctx.Dispatcher.ForRange(stats.Rays, func(lo, hi int) error {
		var localHits int64
		for k := lo; k < hi; k++ {
			idx := ctx.Pixels.Lo + k
			x, y := idx%fb.Width, idx/fb.Width

			target := frame.PlanePoint((float64(x)+0.5)/w, (float64(y)+0.5)/h)
			ray := Ray{Origin: frame.Position, Dir: target.Sub(frame.Position).Normalize()}

			depth, col, ok := c.trace(ray, frame.Forward, frame.Near, frame.Far)
			if !ok {
				fb.Set(idx, framebuf.FarDepth, ctx.Background)
				continue
			}
			localHits++
			fb.Set(idx, depth, col)
		}
		tests.Add(int64(hi-lo) * int64(len(c.tris)))
		hits.Add(localHits)
		return nil
	})

	stats.Tests = tests.Load()
	stats.Hits = hits.Load()
	return stats, err
}

// trace returns the camera-space depth and color of the nearest surface
// along ray whose depth lies in [near, far].
func (c *Caster) trace(ray Ray, forward mathutil.Vec3, near, far float64) (float64, color.NRGBA, bool) {
	cosTheta := ray.Dir.Dot(forward)
	bestT := math.Inf(1)
	best := -1
	for i := range c.tris {
		p := &c.tris[i]
		hit, ok := intersectEdges(ray, p.a, p.e1, p.e2)
		if !ok || hit.T >= bestT {
			continue
		}
		depth := hit.T * cosTheta
		if depth < near || depth > far {
			continue
		}
		bestT = hit.T
		best = i
	}
	if best < 0 {
		return 0, color.NRGBA{}, false
	}
	return bestT * cosTheta, c.tris[best].color, true
}

// prepare caches edges and flat colors of the triangles in ctx.Triangles.
func (c *Caster) prepare(ctx *pipeline.Context) {
	c.tris = c.tris[:0]
	tris := ctx.Scene.Triangles()
	for i := max(ctx.Triangles.Lo, 0); i <= ctx.Triangles.Hi && i < len(tris); i++ {
		a, b, cc := tris[i].Vertex(0), tris[i].Vertex(1), tris[i].Vertex(2)
		c.tris = append(c.tris, prepared{
			a:     a,
			e1:    b.Sub(a),
			e2:    cc.Sub(a),
			color: ctx.Light.Face(a, b, cc),
		})
	}
}
