package raycast

import (
	"math"

	"dualmode-renderer/internal/mathutil"
)

// epsilon is the parallel-ray threshold of the determinant and the
// smallest accepted hit distance.
const epsilon = 1e-9

// Ray is a half-line with a unit direction.
type Ray struct {
	Origin mathutil.Vec3
	Dir    mathutil.Vec3
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float64) mathutil.Vec3 {
	return r.Origin.Add(r.Dir.Scale(t))
}

// Hit describes a ray/triangle intersection. U and V are the barycentric
// weights of the second and third vertex.
type Hit struct {
	T        float64
	U, V     float64
	Triangle int
}

// Intersect tests r against the triangle (a, b, c) using the Möller–Trumbore
// formulation. Both faces are hit. ok is false when the ray is parallel to
// the triangle's plane, misses the triangle, or hits behind the origin.
func Intersect(r Ray, a, b, c mathutil.Vec3) (hit Hit, ok bool) {
	return intersectEdges(r, a, b.Sub(a), c.Sub(a))
}

func intersectEdges(r Ray, a, e1, e2 mathutil.Vec3) (Hit, bool) {
	p := r.Dir.Cross(e2)
	det := e1.Dot(p)
	if math.Abs(det) < epsilon {
		return Hit{}, false
	}
	invDet := 1.0 / det

	s := r.Origin.Sub(a)
	u := s.Dot(p) * invDet
	if u < 0 || u > 1 {
		return Hit{}, false
	}

	q := s.Cross(e1)
	v := r.Dir.Dot(q) * invDet
	if v < 0 || u+v > 1 {
		return Hit{}, false
	}

	t := e2.Dot(q) * invDet
	if t <= epsilon {
		return Hit{}, false
	}
	return Hit{T: t, U: u, V: v}, true
}
