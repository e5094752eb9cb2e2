package mathutil

import "math"

// Mat4 is a 4×4 matrix stored row-major and applied to column vectors.
type Mat4 [16]float64

func Mat4Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Mat4Mul returns a × b.
func Mat4Mul(a, b Mat4) Mat4 {
	var m Mat4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			m[r*4+c] = a[r*4+0]*b[0*4+c] + a[r*4+1]*b[1*4+c] +
				a[r*4+2]*b[2*4+c] + a[r*4+3]*b[3*4+c]
		}
	}
	return m
}

// MulPoint transforms a 3D point (w=1) by the 4×4 matrix, ignoring the
// projective row.
func (m Mat4) MulPoint(v Vec3) Vec3 {
	return Vec3{
		m[0]*v[0] + m[1]*v[1] + m[2]*v[2] + m[3],
		m[4]*v[0] + m[5]*v[1] + m[6]*v[2] + m[7],
		m[8]*v[0] + m[9]*v[1] + m[10]*v[2] + m[11],
	}
}

// MulVec4 returns M × v.
func (m Mat4) MulVec4(v Vec4) Vec4 {
	return Vec4{
		m[0]*v[0] + m[1]*v[1] + m[2]*v[2] + m[3]*v[3],
		m[4]*v[0] + m[5]*v[1] + m[6]*v[2] + m[7]*v[3],
		m[8]*v[0] + m[9]*v[1] + m[10]*v[2] + m[11]*v[3],
		m[12]*v[0] + m[13]*v[1] + m[14]*v[2] + m[15]*v[3],
	}
}

// FromMat3Translation builds a 4×4 affine matrix from a 3×3 rotation and translation.
func FromMat3Translation(r Mat3, t Vec3) Mat4 {
	return Mat4{
		r[0], r[1], r[2], t[0],
		r[3], r[4], r[5], t[1],
		r[6], r[7], r[8], t[2],
		0, 0, 0, 1,
	}
}

// Mat4TRS composes translate × rotate × scale, the usual local-to-world
// transform of a scene object.
func Mat4TRS(t Vec3, r Mat3, s Vec3) Mat4 {
	return FromMat3Translation(Mat3Mul(r, Mat3Diag(s[0], s[1], s[2])), t)
}

// Mat4Perspective returns the left-handed perspective projection used by
// the rasterizer. Camera space looks down +z; clip w equals camera depth and
// after the divide z maps near→0, far→1.
func Mat4Perspective(fovY, aspect, near, far float64) Mat4 {
	cot := 1.0 / math.Tan(fovY/2)
	zs := far / (far - near)
	return Mat4{
		cot / aspect, 0, 0, 0,
		0, cot, 0, 0,
		0, 0, zs, -near * zs,
		0, 0, 1, 0,
	}
}

// Mat4View builds the world-to-camera matrix from an orthonormal basis.
func Mat4View(pos, right, up, forward Vec3) Mat4 {
	return Mat4{
		right[0], right[1], right[2], -right.Dot(pos),
		up[0], up[1], up[2], -up.Dot(pos),
		forward[0], forward[1], forward[2], -forward.Dot(pos),
		0, 0, 0, 1,
	}
}
