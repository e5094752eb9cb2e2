package scene

import (
	"fmt"

	"dualmode-renderer/internal/mathutil"
)

// Triangle holds three homogeneous world-space vertices. It is immutable
// once built.
type Triangle struct {
	v [3]mathutil.Vec4
}

// NewTriangle builds a triangle from three points, setting w=1.
func NewTriangle(a, b, c mathutil.Vec3) Triangle {
	return Triangle{v: [3]mathutil.Vec4{a.Point(), b.Point(), c.Point()}}
}

// At returns vertex i. Any index outside {0, 1, 2} is a broken invariant
// and panics.
func (t Triangle) At(i int) mathutil.Vec4 {
	switch i {
	case 0, 1, 2:
		return t.v[i]
	}
	panic(fmt.Sprintf("scene: triangle vertex index %d out of range", i))
}

// Vertex returns vertex i as a 3D point.
func (t Triangle) Vertex(i int) mathutil.Vec3 {
	return t.At(i).Vec3()
}

// Mesh holds indexed triangle geometry in object-local space.
type Mesh struct {
	Name     string
	Vertices []mathutil.Vec3
	Indices  []int // triples into Vertices
}

// TriangleCount returns the number of complete index triples.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Object is a renderable element of the host scene. Objects without a mesh
// return nil from Mesh and are skipped.
type Object interface {
	Mesh() *Mesh
	Transform() mathutil.Mat4
}

// StaticObject is an Object with a fixed mesh and world transform.
type StaticObject struct {
	Name  string
	Geom  *Mesh
	World mathutil.Mat4
}

func (o *StaticObject) Mesh() *Mesh {
	return o.Geom
}

func (o *StaticObject) Transform() mathutil.Mat4 {
	return o.World
}
