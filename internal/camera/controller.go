package camera

import (
	"math"

	"dualmode-renderer/internal/mathutil"
)

// MaxPitch is the pitch limit of the fly controller.
const MaxPitch = 89.0

// NormalizePitch maps an Euler X angle in degrees (as reported by an engine
// in [0, 360)) to the equivalent pitch in [-90, 90].
func NormalizePitch(theta float64) float64 {
	n := int(math.Floor(theta/180.0 + 0.5))
	if n%2 == 0 {
		return theta - float64(n)*180.0
	}
	return -theta + float64(n)*180.0
}

// NormalizeYaw wraps a yaw angle in degrees into [0, 360).
func NormalizeYaw(theta float64) float64 {
	theta = math.Mod(theta, 360.0)
	if theta < 0 {
		theta += 360.0
	}
	return theta
}

// Turn applies a relative pitch/yaw change the way the fly controller does:
// pitch is clamped to ±MaxPitch and yaw is wrapped.
func (p Pose) Turn(dPitch, dYaw float64) Pose {
	p.Rotation[0] = math.Max(-MaxPitch, math.Min(MaxPitch, p.Rotation[0]+dPitch))
	p.Rotation[1] = NormalizeYaw(p.Rotation[1] + dYaw)
	return p
}

// LookAt returns p re-oriented so that it faces target. Roll is reset.
func (p Pose) LookAt(target mathutil.Vec3) Pose {
	d := target.Sub(p.Position).Normalize()
	if d.Len() == 0 {
		return p
	}
	pitch := -math.Asin(math.Max(-1, math.Min(1, d[1]))) * 180 / math.Pi
	yaw := math.Atan2(d[0], d[2]) * 180 / math.Pi
	p.Rotation = mathutil.Vec3{pitch, NormalizeYaw(yaw), 0}
	return p
}
