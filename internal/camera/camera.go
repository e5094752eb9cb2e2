// Package camera derives the per-frame projection parameters both pipelines
// need from a camera pose.
package camera

import (
	"math"

	"dualmode-renderer/internal/mathutil"
)

// minNear keeps the projection finite for degenerate poses.
const minNear = 1e-4

// Pose is the camera state produced by the (external) camera controller.
// Camera space is left-handed: +x right, +y up, +z forward.
type Pose struct {
	Position mathutil.Vec3
	Rotation mathutil.Vec3 // pitch, yaw, roll in degrees
	FOV      float64       // vertical field of view in degrees
	Near     float64
	Far      float64
	Aspect   float64 // width / height
}

// Frame holds everything derived from a Pose for one frame. It is read-only
// for the duration of the frame.
type Frame struct {
	Position mathutil.Vec3
	Forward  mathutil.Vec3
	Up       mathutil.Vec3
	Right    mathutil.Vec3

	FOV    float64 // radians
	Near   float64
	Far    float64
	Aspect float64

	// World to clip space, used by the rasterizer.
	View       mathutil.Mat4
	Projection mathutil.Mat4
	ViewProj   mathutil.Mat4

	// Near-plane basis used by the ray caster: a point on the plane is
	// LowerLeft + Horizontal*u + Vertical*v for u, v in [0, 1].
	LowerLeft  mathutil.Vec3
	Horizontal mathutil.Vec3
	Vertical   mathutil.Vec3
}

// Project computes the Frame for p. It has no side effects.
func Project(p Pose) Frame {
	near := math.Max(p.Near, minNear)
	far := p.Far
	if far <= near {
		far = near * 2
	}
	aspect := p.Aspect
	if aspect <= 0 {
		aspect = 1
	}
	fov := mathutil.Deg2Rad(p.FOV)

	rot := mathutil.EulerDeg(p.Rotation[0], p.Rotation[1], p.Rotation[2])
	right := rot.Column(0)
	up := rot.Column(1)
	forward := rot.Column(2)

	view := mathutil.Mat4View(p.Position, right, up, forward)
	proj := mathutil.Mat4Perspective(fov, aspect, near, far)

	planeH := 2 * near * math.Tan(fov/2)
	planeW := planeH * aspect
	horizontal := right.Scale(planeW)
	vertical := up.Scale(planeH)
	lowerLeft := p.Position.
		Add(forward.Scale(near)).
		Sub(horizontal.Scale(0.5)).
		Sub(vertical.Scale(0.5))

	return Frame{
		Position:   p.Position,
		Forward:    forward,
		Up:         up,
		Right:      right,
		FOV:        fov,
		Near:       near,
		Far:        far,
		Aspect:     aspect,
		View:       view,
		Projection: proj,
		ViewProj:   mathutil.Mat4Mul(proj, view),
		LowerLeft:  lowerLeft,
		Horizontal: horizontal,
		Vertical:   vertical,
	}
}

// PlanePoint returns the world-space point at normalized screen offset
// (u, v) on the near plane; (0, 0) is the lower-left corner.
func (f *Frame) PlanePoint(u, v float64) mathutil.Vec3 {
	return f.LowerLeft.Add(f.Horizontal.Scale(u)).Add(f.Vertical.Scale(v))
}

// ViewDepth returns the camera-space depth of a world-space point, the
// quantity both pipelines store in the depth buffer.
func (f *Frame) ViewDepth(p mathutil.Vec3) float64 {
	return p.Sub(f.Position).Dot(f.Forward)
}
