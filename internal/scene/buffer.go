// Package scene extracts the static world-space triangle list both render
// pipelines consume, and loads scene descriptions from disk.
package scene

import (
	"dualmode-renderer/internal/log"
	"dualmode-renderer/internal/mathutil"
)

var logger = log.New("scene")

// Buffer is the ordered, index-stable list of world-space triangles. It is
// built once and never mutated.
type Buffer struct {
	tris []Triangle
}

// Build transforms every mesh-bearing object into world space and appends
// its triangles in index order, preserving the order of objects. Objects
// without a mesh are skipped. Malformed index triples (short tail, index out
// of range) are dropped.
func Build(objects []Object) *Buffer {
	total := 0
	for _, o := range objects {
		if m := meshOf(o); m != nil {
			total += m.TriangleCount()
		}
	}

	b := &Buffer{tris: make([]Triangle, 0, total)}
	skipped := 0
	for _, o := range objects {
		m := meshOf(o)
		if m == nil {
			continue
		}
		if len(m.Indices)%3 != 0 {
			skipped++
		}

		world := o.Transform()
		nv := len(m.Vertices)
		for i := 0; i+2 < len(m.Indices); i += 3 {
			i0, i1, i2 := m.Indices[i], m.Indices[i+1], m.Indices[i+2]
			if i0 < 0 || i0 >= nv || i1 < 0 || i1 >= nv || i2 < 0 || i2 >= nv {
				skipped++
				continue
			}
			b.tris = append(b.tris, NewTriangle(
				world.MulPoint(m.Vertices[i0]),
				world.MulPoint(m.Vertices[i1]),
				world.MulPoint(m.Vertices[i2]),
			))
		}
	}

	if skipped > 0 {
		logger.Debugf("skipped %d malformed index triples", skipped)
	}
	logger.Infof("extracted %d triangles from %d objects", len(b.tris), len(objects))
	return b
}

// FromTriangles wraps an already world-space triangle list.
func FromTriangles(tris []Triangle) *Buffer {
	return &Buffer{tris: append([]Triangle(nil), tris...)}
}

func meshOf(o Object) *Mesh {
	if o == nil {
		return nil
	}
	return o.Mesh()
}

// Len returns the number of triangles.
func (b *Buffer) Len() int {
	return len(b.tris)
}

// At returns triangle i.
func (b *Buffer) At(i int) Triangle {
	return b.tris[i]
}

// Triangles exposes the backing slice. Callers must treat it as read-only.
func (b *Buffer) Triangles() []Triangle {
	return b.tris
}

// Bounds returns the world-space axis-aligned bounds of all triangles.
func (b *Buffer) Bounds() (min, max mathutil.Vec3, ok bool) {
	if len(b.tris) == 0 {
		return min, max, false
	}
	min = b.tris[0].Vertex(0)
	max = min
	for _, t := range b.tris {
		for k := 0; k < 3; k++ {
			v := t.Vertex(k)
			for a := 0; a < 3; a++ {
				if v[a] < min[a] {
					min[a] = v[a]
				}
				if v[a] > max[a] {
					max[a] = v[a]
				}
			}
		}
	}
	return min, max, true
}
