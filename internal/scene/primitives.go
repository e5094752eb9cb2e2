package scene

import "dualmode-renderer/internal/mathutil"

// Quad returns a unit quad in the XY plane facing -z, centered on the origin.
func Quad() *Mesh {
	return &Mesh{
		Name: "quad",
		Vertices: []mathutil.Vec3{
			{-0.5, -0.5, 0}, {0.5, -0.5, 0}, {0.5, 0.5, 0}, {-0.5, 0.5, 0},
		},
		Indices: []int{0, 2, 1, 0, 3, 2},
	}
}

// Cube returns a unit cube centered on the origin.
func Cube() *Mesh {
	return &Mesh{
		Name: "cube",
		Vertices: []mathutil.Vec3{
			{-0.5, -0.5, -0.5}, {0.5, -0.5, -0.5}, {0.5, 0.5, -0.5}, {-0.5, 0.5, -0.5},
			{-0.5, -0.5, 0.5}, {0.5, -0.5, 0.5}, {0.5, 0.5, 0.5}, {-0.5, 0.5, 0.5},
		},
		Indices: []int{
			0, 2, 1, 0, 3, 2, // -z
			4, 5, 6, 4, 6, 7, // +z
			0, 1, 5, 0, 5, 4, // -y
			3, 6, 2, 3, 7, 6, // +y
			0, 4, 7, 0, 7, 3, // -x
			1, 2, 6, 1, 6, 5, // +x
		},
	}
}

// builtin maps the names accepted in scene files to primitive constructors.
var builtin = map[string]func() *Mesh{
	"quad": Quad,
	"cube": Cube,
}

// DefaultDescription is the scene rendered when none is configured: a floor
// with two cubes on it.
func DefaultDescription() Description {
	return Description{Objects: []ObjectDesc{
		{Name: "floor", Mesh: "builtin:quad", Rotation: mathutil.Vec3{90, 0, 0}, Scale: &mathutil.Vec3{8, 8, 1}},
		{Name: "cube", Mesh: "builtin:cube", Position: mathutil.Vec3{-0.8, 0.5, 0}, Rotation: mathutil.Vec3{0, 30, 0}},
		{Name: "tower", Mesh: "builtin:cube", Position: mathutil.Vec3{1, 1, 1}, Scale: &mathutil.Vec3{1, 2, 1}},
	}}
}
