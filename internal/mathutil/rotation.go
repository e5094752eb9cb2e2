package mathutil

import "math"

// RotX returns a 3×3 rotation matrix around the X axis. Angle in radians.
func RotX(a float64) Mat3 {
	c, s := math.Cos(a), math.Sin(a)
	return Mat3{
		1, 0, 0,
		0, c, -s,
		0, s, c,
	}
}

// RotY returns a 3×3 rotation matrix around the Y axis.
func RotY(a float64) Mat3 {
	c, s := math.Cos(a), math.Sin(a)
	return Mat3{
		c, 0, s,
		0, 1, 0,
		-s, 0, c,
	}
}

// RotZ returns a 3×3 rotation matrix around the Z axis.
func RotZ(a float64) Mat3 {
	c, s := math.Cos(a), math.Sin(a)
	return Mat3{
		c, -s, 0,
		s, c, 0,
		0, 0, 1,
	}
}

// EulerDeg builds the rotation for Euler angles in degrees, applied roll
// (Z) first, then pitch (X), then yaw (Y). With +z forward a positive
// pitch tilts the view down and a positive yaw turns it right.
func EulerDeg(pitch, yaw, roll float64) Mat3 {
	return Mat3Mul(Mat3Mul(RotY(Deg2Rad(yaw)), RotX(Deg2Rad(pitch))), RotZ(Deg2Rad(roll)))
}

// Deg2Rad converts degrees to radians.
func Deg2Rad(d float64) float64 {
	return d * math.Pi / 180
}

// Mat3ToEulerDeg is the inverse of EulerDeg: it returns (pitch, yaw, roll)
// in degrees. At ±90° pitch the roll is folded into yaw.
func Mat3ToEulerDeg(m Mat3) (pitch, yaw, roll float64) {
	sp := -m[5]
	if sp > 1 {
		sp = 1
	} else if sp < -1 {
		sp = -1
	}
	pitch = math.Asin(sp)
	if math.Abs(sp) > 1-1e-9 {
		yaw = math.Atan2(-m[6], m[0])
	} else {
		yaw = math.Atan2(m[2], m[8])
		roll = math.Atan2(m[3], m[4])
	}
	return Rad2Deg(pitch), Rad2Deg(yaw), Rad2Deg(roll)
}

// Rad2Deg converts radians to degrees.
func Rad2Deg(r float64) float64 {
	return r * 180 / math.Pi
}
