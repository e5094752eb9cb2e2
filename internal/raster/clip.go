package raster

import "dualmode-renderer/internal/mathutil"

// maxClipVerts bounds the polygon produced by clipping a triangle against
// two planes.
const maxClipVerts = 5

// polygon is a fixed-capacity vertex list so clipping never allocates.
type polygon struct {
	v [maxClipVerts]mathutil.Vec4
	n int
}

// plane returns the signed distance of a clip-space vertex to a clip plane;
// the vertex is inside when the distance is >= 0.
type plane func(v mathutil.Vec4) float64

// nearPlane is z >= 0, which under our projection also implies w >= near.
func nearPlane(v mathutil.Vec4) float64 {
	return v[2]
}

// farPlane is z <= w.
func farPlane(v mathutil.Vec4) float64 {
	return v[3] - v[2]
}

// clip runs one Sutherland–Hodgman pass of in against p. A polygon that is
// entirely inside comes out unchanged, vertex order included. New vertices
// are linear interpolations along the crossing edge at the plane.
func clip(in *polygon, p plane, out *polygon) {
	out.n = 0
	if in.n == 0 {
		return
	}
	prev := in.v[in.n-1]
	dPrev := p(prev)
	for i := 0; i < in.n; i++ {
		cur := in.v[i]
		dCur := p(cur)
		if dCur >= 0 {
			if dPrev < 0 {
				out.push(intersect(prev, cur, dPrev, dCur))
			}
			out.push(cur)
		} else if dPrev >= 0 {
			out.push(intersect(prev, cur, dPrev, dCur))
		}
		prev, dPrev = cur, dCur
	}
}

// intersect interpolates from the inside vertex toward the outside one so
// that both triangles sharing an edge compute the same point.
func intersect(a, b mathutil.Vec4, da, db float64) mathutil.Vec4 {
	if da < 0 {
		a, b, da, db = b, a, db, da
	}
	t := da / (da - db)
	v := a.Lerp(b, t)
	return v
}

func (p *polygon) push(v mathutil.Vec4) {
	if p.n < maxClipVerts {
		p.v[p.n] = v
		p.n++
	}
}

// triangles returns how many triangles a fan over the polygon yields.
func (p *polygon) triangles() int {
	if p.n < 3 {
		return 0
	}
	return p.n - 2
}

// clipTriangle clips a clip-space triangle against the near and far planes
// and returns the polygon to triangulate. When both planes cut the triangle
// the result can need three triangles; in that case only the near clip is
// applied and fragments beyond far are rejected during rasterization.
func clipTriangle(a, b, c mathutil.Vec4) polygon {
	in := polygon{n: 3}
	in.v[0], in.v[1], in.v[2] = a, b, c

	var near, far polygon
	clip(&in, nearPlane, &near)
	if near.n < 3 {
		return polygon{}
	}
	clip(&near, farPlane, &far)
	switch {
	case far.n < 3:
		return polygon{}
	case far.triangles() > SlotsPerTriangle:
		return near
	}
	return far
}
