package batch

import (
	"math"

	"dualmode-renderer/internal/camera"
	"dualmode-renderer/internal/mathutil"
)

// Key is a camera key of a path.
type Key struct {
	Position    mathutil.Vec3
	Orientation mathutil.Quat
}

// KeyFromPose captures the position and orientation of p.
func KeyFromPose(p camera.Pose) Key {
	return Key{
		Position:    p.Position,
		Orientation: mathutil.QuatFromEulerDeg(p.Rotation[0], p.Rotation[1], p.Rotation[2]),
	}
}

// Interpolate returns n poses spread evenly over the keys, the first on the
// first key and the last on the last key. Positions are interpolated
// linearly, orientations along the shortest arc. Everything else is copied
// from base.
func Interpolate(base camera.Pose, keys []Key, n int) []camera.Pose {
	if n <= 0 || len(keys) == 0 {
		return nil
	}
	poses := make([]camera.Pose, n)
	for i := range poses {
		var k Key
		switch {
		case len(keys) == 1 || n == 1:
			k = keys[0]
		default:
			t := float64(i) / float64(n-1) * float64(len(keys)-1)
			seg := int(math.Floor(t))
			if seg > len(keys)-2 {
				seg = len(keys) - 2
			}
			k = lerpKey(keys[seg], keys[seg+1], t-float64(seg))
		}
		p := base
		p.Position = k.Position
		pitch, yaw, roll := mathutil.Mat3ToEulerDeg(mathutil.QuatToMat3(k.Orientation))
		p.Rotation = mathutil.Vec3{pitch, yaw, roll}
		poses[i] = p
	}
	return poses
}

func lerpKey(a, b Key, t float64) Key {
	return Key{
		Position:    a.Position.Add(b.Position.Sub(a.Position).Scale(t)),
		Orientation: mathutil.Slerp(a.Orientation, b.Orientation, t),
	}
}
