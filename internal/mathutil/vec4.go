package mathutil

// Vec4 is a homogeneous 4-component vector (x, y, z, w).
type Vec4 [4]float64

func (a Vec4) Add(b Vec4) Vec4 {
	return Vec4{a[0] + b[0], a[1] + b[1], a[2] + b[2], a[3] + b[3]}
}

func (a Vec4) Sub(b Vec4) Vec4 {
	return Vec4{a[0] - b[0], a[1] - b[1], a[2] - b[2], a[3] - b[3]}
}

func (v Vec4) Scale(s float64) Vec4 {
	return Vec4{v[0] * s, v[1] * s, v[2] * s, v[3] * s}
}

// Lerp returns a + (b-a)*t.
func (a Vec4) Lerp(b Vec4, t float64) Vec4 {
	return Vec4{
		a[0] + (b[0]-a[0])*t,
		a[1] + (b[1]-a[1])*t,
		a[2] + (b[2]-a[2])*t,
		a[3] + (b[3]-a[3])*t,
	}
}

// Vec3 drops the w component without dividing.
func (v Vec4) Vec3() Vec3 {
	return Vec3{v[0], v[1], v[2]}
}

// Divide performs the homogeneous divide (x/w, y/w, z/w).
func (v Vec4) Divide() Vec3 {
	inv := 1.0 / v[3]
	return Vec3{v[0] * inv, v[1] * inv, v[2] * inv}
}
