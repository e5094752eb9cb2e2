// Package shade computes the flat per-face color shared by both pipelines.
package shade

import (
	"image/color"
	"math"

	"dualmode-renderer/internal/mathutil"
)

// LightConfig holds precomputed lighting parameters.
type LightConfig struct {
	Albedo   color.NRGBA
	LightDir mathutil.Vec3
	RimDir   mathutil.Vec3
	HalfMain mathutil.Vec3 // precomputed half-vector for Blinn-Phong
	Ambient  float64
	Hemi     float64
	Direct   float64
	Rim      float64
	SpecInt  float64
	SpecPow  float64
	Exposure float64
	InvGamma float64
}

// DefaultLightConfig returns a neutral grey material under a key light
// above and to the right of the default viewing direction (+z).
func DefaultLightConfig() LightConfig {
	lightDir := mathutil.Vec3{140, 260, -180}.Normalize()
	rimDir := mathutil.Vec3{-160, 130, 210}.Normalize()
	viewDir := mathutil.Vec3{0, 0, 1}

	return LightConfig{
		Albedo:   color.NRGBA{R: 180, G: 180, B: 190, A: 255},
		LightDir: lightDir,
		RimDir:   rimDir,
		HalfMain: lightDir.Sub(viewDir).Normalize(),
		Ambient:  0.35,
		Hemi:     0.40,
		Direct:   1.10,
		Rim:      0.40,
		SpecInt:  0.25,
		SpecPow:  12.0,
		Exposure: 1.0,
		InvGamma: 1.0 / 2.2,
	}
}

// ComputeShade returns the combined lighting scalar for a face normal.
func (lc *LightConfig) ComputeShade(normal mathutil.Vec3) float64 {
	// Lambertian (abs for double-sided)
	ndlMain := math.Abs(normal.Dot(lc.LightDir))
	ndlRim := math.Abs(normal.Dot(lc.RimDir))

	hemi := (1.0-math.Abs(normal[1]))*0.5 + 0.5
	hemiLight := hemi * lc.Hemi

	ndh := math.Abs(normal.Dot(lc.HalfMain))
	spec := math.Pow(ndh, lc.SpecPow) * lc.SpecInt

	return lc.Ambient + hemiLight + ndlMain*lc.Direct + ndlRim*lc.Rim + spec
}

// Face returns the flat color of the world-space triangle (a, b, c).
// Degenerate triangles get the unlit albedo.
func (lc *LightConfig) Face(a, b, c mathutil.Vec3) color.NRGBA {
	n := b.Sub(a).Cross(c.Sub(a))
	if n.Len() < 1e-12 {
		return lc.Albedo
	}
	shade := lc.ComputeShade(n.Normalize()) * lc.Exposure

	return color.NRGBA{
		R: encode(srgbToLinear[lc.Albedo.R]*shade, lc.InvGamma),
		G: encode(srgbToLinear[lc.Albedo.G]*shade, lc.InvGamma),
		B: encode(srgbToLinear[lc.Albedo.B]*shade, lc.InvGamma),
		A: lc.Albedo.A,
	}
}

// Precomputed sRGB-to-linear lookup table (256 entries).
var srgbToLinear [256]float64

func init() {
	for i := 0; i < 256; i++ {
		srgbToLinear[i] = math.Pow(float64(i)/255.0, 2.2)
	}
}

// ACESTonemap applies ACES Filmic tone mapping to a linear value.
func ACESTonemap(x float64) float64 {
	return (x * (2.51*x + 0.03)) / (x*(2.43*x+0.59) + 0.14)
}

func encode(linear, invGamma float64) uint8 {
	return clamp255(math.Pow(ACESTonemap(linear), invGamma) * 255)
}

func clamp255(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
