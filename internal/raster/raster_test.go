package raster

import (
	"image/color"
	"math"
	"math/rand"
	"testing"

	"dualmode-renderer/internal/camera"
	"dualmode-renderer/internal/config"
	"dualmode-renderer/internal/dispatch"
	"dualmode-renderer/internal/framebuf"
	"dualmode-renderer/internal/mathutil"
	"dualmode-renderer/internal/pipeline"
	"dualmode-renderer/internal/scene"
	"dualmode-renderer/internal/shade"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPose = camera.Pose{FOV: 90, Near: 1, Far: 100, Aspect: 1}

func newContext(t *testing.T, tris []scene.Triangle, w, h int, pose camera.Pose) *pipeline.Context {
	t.Helper()
	fb, err := framebuf.New(w, h)
	require.NoError(t, err)
	frame := camera.Project(pose)
	light := shade.DefaultLightConfig()
	sc := scene.FromTriangles(tris)
	ctx := &pipeline.Context{
		Dispatcher: dispatch.New(4),
		Frame:      &frame,
		Scene:      sc,
		Target:     fb,
		Light:      &light,
		Background: color.NRGBA{A: 255},
		Triangles:  pipeline.Full(sc.Len()),
		Pixels:     pipeline.Full(fb.Len()),
	}
	require.NoError(t, ctx.Clear())
	return ctx
}

func geometry(t *testing.T, ctx *pipeline.Context) Slots {
	t.Helper()
	slots := NewSlots(ctx.Scene.Len())
	require.NoError(t, ProcessGeometry(ctx, slots))
	return slots
}

func tri(a, b, c mathutil.Vec3) scene.Triangle {
	return scene.NewTriangle(a, b, c)
}

func TestGeometryFullyInside(t *testing.T) {
	ctx := newContext(t, []scene.Triangle{
		tri(mathutil.Vec3{-1, -1, 5}, mathutil.Vec3{1, -1, 5}, mathutil.Vec3{0, 1, 5}),
	}, 16, 16, testPose)
	slots := geometry(t, ctx)

	require.Len(t, slots, 2)
	s := slots[0]
	require.True(t, s.Valid)
	assert.False(t, slots[1].Valid)

	vp := ctx.Frame.ViewProj
	in := ctx.Scene.At(0)
	for k := 0; k < 3; k++ {
		assert.Equal(t, vp.MulVec4(in.At(k)), s.Clip[k], "vertex %d is the plain transform", k)
		assert.InDelta(t, 5, s.Clip[k][3], 1e-12)
	}
	assert.Equal(t, Bounds{MinX: 6, MinY: 6, MaxX: 9, MaxY: 9}, s.Bounds)
	assert.Positive(t, s.Area)
}

func TestGeometryNearCrossing(t *testing.T) {
	specs := []struct {
		name  string
		tri   scene.Triangle
		slots int
	}{
		{"one vertex behind", tri(mathutil.Vec3{-2, -1, 5}, mathutil.Vec3{2, -1, 5}, mathutil.Vec3{0, 0.5, -3}), 2},
		{"two vertices behind", tri(mathutil.Vec3{-2, -1, -5}, mathutil.Vec3{2, -1, -5}, mathutil.Vec3{0, 0.5, 4}), 1},
		{"one vertex beyond far", tri(mathutil.Vec3{-20, -10, 50}, mathutil.Vec3{20, -10, 50}, mathutil.Vec3{0, 5, 300}), 2},
	}
	for _, s := range specs {
		t.Run(s.name, func(t *testing.T) {
			ctx := newContext(t, []scene.Triangle{s.tri}, 32, 32, testPose)
			slots := geometry(t, ctx)
			assert.Equal(t, s.slots, slots.ValidCount())
			for i := range slots {
				if !slots[i].Valid {
					continue
				}
				for k, v := range slots[i].Clip {
					// Clipped vertices lie inside both planes, new ones on a plane.
					assert.GreaterOrEqual(t, v[2], -1e-9, "slot %d vertex %d", i, k)
					assert.LessOrEqual(t, v[2]-v[3], 1e-9, "slot %d vertex %d", i, k)
					ndc := slots[i].NDC[k]
					assert.InDelta(t, 0.5, ndc[2], 0.5+1e-9)
				}
			}
			if s.slots == 2 {
				// Fan triangulation shares the first vertex and an edge.
				assert.Equal(t, slots[0].Clip[0], slots[1].Clip[0])
			}
		})
	}
}

// projectedArea returns the pixel-space area of a camera-space polygon seen
// through testPose, which has an identity view and cot(fov/2) = 1.
func projectedArea(poly []mathutil.Vec3, w, h int) float64 {
	sum := 0.0
	for i := range poly {
		a, b := poly[i], poly[(i+1)%len(poly)]
		ax, ay := (a[0]/a[2]+1)*0.5*float64(w), (a[1]/a[2]+1)*0.5*float64(h)
		bx, by := (b[0]/b[2]+1)*0.5*float64(w), (b[1]/b[2]+1)*0.5*float64(h)
		sum += ax*by - bx*ay
	}
	return math.Abs(sum) / 2
}

func TestGeometryClippedArea(t *testing.T) {
	specs := []struct {
		name    string
		tri     scene.Triangle
		polygon []mathutil.Vec3 // clipped polygon in camera space
		plane   plane
		area    float64
	}{
		{
			name: "near",
			tri:  tri(mathutil.Vec3{-2, -1, 5}, mathutil.Vec3{2, -1, 5}, mathutil.Vec3{0, 0.5, -3}),
			// Edges to the vertex behind cross z = near = 1 halfway.
			polygon: []mathutil.Vec3{{-2, -1, 5}, {2, -1, 5}, {1, -0.25, 1}, {-1, -0.25, 1}},
			plane:   nearPlane,
			area:    17.92,
		},
		{
			name: "far",
			tri:  tri(mathutil.Vec3{-20, -10, 50}, mathutil.Vec3{20, -10, 50}, mathutil.Vec3{0, 5, 300}),
			// Edges to the far vertex cross z = far = 100 at a fifth.
			polygon: []mathutil.Vec3{{-20, -10, 50}, {20, -10, 50}, {16, -7, 100}, {-16, -7, 100}},
			plane:   farPlane,
			area:    18.6368,
		},
	}
	for _, s := range specs {
		t.Run(s.name, func(t *testing.T) {
			ctx := newContext(t, []scene.Triangle{s.tri}, 32, 32, testPose)
			slots := geometry(t, ctx)
			require.Equal(t, 2, slots.ValidCount())

			exp := projectedArea(s.polygon, 32, 32)
			assert.InDelta(t, s.area, exp, 1e-9)
			assert.InDelta(t, exp, (slots[0].Area+slots[1].Area)/2, 1e-6)

			vp := ctx.Frame.ViewProj
			in := ctx.Scene.At(0)
			orig := map[mathutil.Vec4]bool{}
			for k := 0; k < 3; k++ {
				orig[vp.MulVec4(in.At(k))] = true
			}
			created := 0
			for i := range slots {
				for k, v := range slots[i].Clip {
					if orig[v] {
						continue
					}
					created++
					assert.InDelta(t, 0, s.plane(v), 1e-9*math.Max(1, v[3]), "slot %d vertex %d", i, k)
				}
			}
			// Two new vertices, one of them shared by both fan triangles.
			assert.Equal(t, 3, created)
		})
	}
}

func TestGeometryRejected(t *testing.T) {
	specs := []struct {
		name string
		tri  scene.Triangle
	}{
		{"behind camera", tri(mathutil.Vec3{-1, -1, -5}, mathutil.Vec3{1, -1, -5}, mathutil.Vec3{0, 1, -5})},
		{"beyond far", tri(mathutil.Vec3{-1, -1, 500}, mathutil.Vec3{1, -1, 500}, mathutil.Vec3{0, 1, 500})},
		{"off screen", tri(mathutil.Vec3{50, -1, 5}, mathutil.Vec3{52, -1, 5}, mathutil.Vec3{51, 1, 5})},
		{"edge on", tri(mathutil.Vec3{-1, 0, 5}, mathutil.Vec3{1, 0, 5}, mathutil.Vec3{0, 0, 8})},
		{"degenerate", tri(mathutil.Vec3{0, 0, 5}, mathutil.Vec3{0, 0, 5}, mathutil.Vec3{0, 0, 5})},
	}
	for _, s := range specs {
		t.Run(s.name, func(t *testing.T) {
			ctx := newContext(t, []scene.Triangle{s.tri}, 16, 16, testPose)
			slots := geometry(t, ctx)
			assert.Zero(t, slots.ValidCount())
			for i := range slots {
				assert.True(t, slots[i].Bounds.Empty())
			}
		})
	}
}

func TestGeometryBothPlanes(t *testing.T) {
	// One vertex behind the camera and one beyond far: clipping against
	// both planes yields a pentagon, which does not fit the slot budget.
	ctx := newContext(t, []scene.Triangle{
		tri(mathutil.Vec3{-3, -1, -2}, mathutil.Vec3{3, -1, 20}, mathutil.Vec3{0, -1, 400}),
	}, 64, 64, testPose)
	slots := geometry(t, ctx)
	require.Equal(t, 2, slots.ValidCount())

	var r Rasterizer
	stats, err := r.Rasterize(ctx, slots)
	require.NoError(t, err)
	assert.Positive(t, stats.Written)

	fb := ctx.Target
	for y := 0; y < fb.Height; y++ {
		for x := 0; x < fb.Width; x++ {
			if fb.Covered(x, y) {
				d := fb.Depth(x, y)
				assert.True(t, d >= ctx.Frame.Near-1e-4 && d <= ctx.Frame.Far*(1+1e-6), "pixel (%d,%d) depth %v", x, y, d)
			}
		}
	}
}

func TestGeometryTriangleRange(t *testing.T) {
	tris := []scene.Triangle{
		tri(mathutil.Vec3{-1, -1, 5}, mathutil.Vec3{1, -1, 5}, mathutil.Vec3{0, 1, 5}),
		tri(mathutil.Vec3{-1, -1, 6}, mathutil.Vec3{1, -1, 6}, mathutil.Vec3{0, 1, 6}),
		tri(mathutil.Vec3{-1, -1, 7}, mathutil.Vec3{1, -1, 7}, mathutil.Vec3{0, 1, 7}),
	}
	ctx := newContext(t, tris, 16, 16, testPose)
	lo, hi := (&config.Range{Min: 1, Max: 1}).Clamp(len(tris))
	ctx.Triangles = pipeline.Span{Lo: lo, Hi: hi}

	slots := geometry(t, ctx)
	assert.False(t, slots.Pair(0)[0].Valid)
	assert.True(t, slots.Pair(1)[0].Valid)
	assert.False(t, slots.Pair(2)[0].Valid)
}

func TestProcessGeometryPanicsOnSlotMismatch(t *testing.T) {
	ctx := newContext(t, []scene.Triangle{
		tri(mathutil.Vec3{-1, -1, 5}, mathutil.Vec3{1, -1, 5}, mathutil.Vec3{0, 1, 5}),
	}, 4, 4, testPose)
	assert.Panics(t, func() { _ = ProcessGeometry(ctx, NewSlots(3)) })
}

func TestPixelBounds(t *testing.T) {
	specs := []struct {
		scr [3][2]float64
		exp Bounds
	}{
		{[3][2]float64{{0.5, 0.5}, {3.5, 0.5}, {0.5, 3.5}}, Bounds{0, 0, 3, 3}},
		{[3][2]float64{{0.6, 0.6}, {3.4, 0.6}, {0.6, 3.4}}, Bounds{1, 1, 2, 2}},
		{[3][2]float64{{-10, -10}, {40, -10}, {-10, 40}}, Bounds{0, 0, 7, 7}},
		{[3][2]float64{{0.6, 0.6}, {0.9, 0.6}, {0.6, 0.9}}, EmptyBounds},
		{[3][2]float64{{20, 20}, {30, 20}, {20, 30}}, EmptyBounds},
	}
	for i, s := range specs {
		assert.Equal(t, s.exp, pixelBounds(s.scr, 8, 8), "case %d", i)
	}
}

// ndcSlot builds a slot directly from pixel-space points on an 8x8 target.
func ndcSlot(t *testing.T, pts ...[2]float64) Slot {
	t.Helper()
	var v [3]mathutil.Vec4
	for k, p := range pts {
		v[k] = mathutil.Vec4{p[0]/4 - 1, p[1]/4 - 1, 0.5, 1}
	}
	var s Slot
	setupSlot(&s, v[0], v[1], v[2], 8, 8)
	require.True(t, s.Valid)
	return s
}

func TestTopLeftRuleSharedEdges(t *testing.T) {
	// A square whose edges and diagonal pass through pixel centers.
	bl, br, tr, tl := [2]float64{0.5, 0.5}, [2]float64{6.5, 0.5}, [2]float64{6.5, 6.5}, [2]float64{0.5, 6.5}
	specs := [][2]Slot{
		{ndcSlot(t, bl, br, tr), ndcSlot(t, bl, tr, tl)},
		// Clockwise input is reoriented.
		{ndcSlot(t, tr, br, bl), ndcSlot(t, tl, tr, bl)},
	}
	for i, pair := range specs {
		total := 0
		for y := 0; y < 8; y++ {
			for x := 0; x < 8; x++ {
				n := 0
				for k := range pair {
					if shadePixel(&pair[k], 100, x, y).ok {
						n++
					}
				}
				assert.LessOrEqual(t, n, 1, "case %d: pixel (%d,%d) covered twice", i, x, y)
				if x == y && x >= 1 && x < 6 {
					assert.Equal(t, 1, n, "case %d: diagonal pixel %d", i, x)
				}
				total += n
			}
		}
		// Left and top edges are in, right and bottom edges are out.
		assert.Equal(t, 36, total, "case %d", i)
	}
}

func TestPerspectiveDepth(t *testing.T) {
	// A plane tilted away from the camera: z = 5 + y.
	ctx := newContext(t, []scene.Triangle{
		tri(mathutil.Vec3{-20, -2, 3}, mathutil.Vec3{20, -2, 3}, mathutil.Vec3{0, 4, 9}),
	}, 32, 32, testPose)
	slots := geometry(t, ctx)
	var r Rasterizer
	_, err := r.Rasterize(ctx, slots)
	require.NoError(t, err)

	fb := ctx.Target
	f := ctx.Frame
	checked := 0
	for y := 0; y < fb.Height; y++ {
		for x := 0; x < fb.Width; x++ {
			if !fb.Covered(x, y) {
				continue
			}
			// Intersect the pixel ray with the plane y - z + 5 = 0.
			dir := f.PlanePoint((float64(x)+0.5)/32, (float64(y)+0.5)/32).Sub(f.Position)
			tHit := -5 / (dir[1] - dir[2])
			exp := f.ViewDepth(dir.Scale(tHit).Add(f.Position))
			assert.InDelta(t, exp, fb.Depth(x, y), 1e-4*exp, "pixel (%d,%d)", x, y)
			checked++
		}
	}
	assert.Positive(t, checked)
}

func randomTriangles(rng *rand.Rand, n int) []scene.Triangle {
	tris := make([]scene.Triangle, n)
	for i := range tris {
		c := mathutil.Vec3{rng.Float64()*8 - 4, rng.Float64()*8 - 4, rng.Float64()*30 - 2}
		var v [3]mathutil.Vec3
		for k := range v {
			v[k] = c.Add(mathutil.Vec3{rng.Float64()*4 - 2, rng.Float64()*4 - 2, rng.Float64()*4 - 2})
		}
		tris[i] = tri(v[0], v[1], v[2])
	}
	return tris
}

func rasterize(t *testing.T, tris []scene.Triangle, schedule Schedule) *framebuf.FrameBuffer {
	t.Helper()
	ctx := newContext(t, tris, 48, 32, camera.Pose{FOV: 70, Near: 0.5, Far: 25, Aspect: 1.5})
	slots := geometry(t, ctx)
	r := Rasterizer{Schedule: schedule}
	stats, err := r.Rasterize(ctx, slots)
	require.NoError(t, err)
	assert.Equal(t, slots.ValidCount(), stats.Slots)
	assert.LessOrEqual(t, stats.Written, stats.Covered)
	return ctx.Target
}

func assertSameFrame(t *testing.T, exp, got *framebuf.FrameBuffer) {
	t.Helper()
	for i := 0; i < exp.Len(); i++ {
		d1, c1 := exp.At(i)
		d2, c2 := got.At(i)
		if d1 != d2 || c1 != c2 {
			t.Fatalf("pixel %d: expected (%v, %v); got (%v, %v)", i, d1, c1, d2, c2)
		}
	}
}

func TestRasterOrderIndependent(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	tris := randomTriangles(rng, 60)

	ref := rasterize(t, tris, Serial)
	assertSameFrame(t, ref, rasterize(t, tris, Batched))

	for round := 0; round < 3; round++ {
		shuffled := append([]scene.Triangle(nil), tris...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		assertSameFrame(t, ref, rasterize(t, shuffled, Batched))
	}
}

func TestRasterNearestWins(t *testing.T) {
	near := tri(mathutil.Vec3{-1, -1, 5}, mathutil.Vec3{1, -1, 5}, mathutil.Vec3{0, 1, 5})
	far := tri(mathutil.Vec3{-4, -4, 9}, mathutil.Vec3{4, -4, 9}, mathutil.Vec3{0, 4, 9})

	for _, order := range [][]scene.Triangle{{near, far}, {far, near}} {
		ctx := newContext(t, order, 16, 16, testPose)
		var r Rasterizer
		_, err := r.Rasterize(ctx, geometry(t, ctx))
		require.NoError(t, err)
		assert.InDelta(t, 5, ctx.Target.Depth(8, 8), 1e-6)
		assert.InDelta(t, 9, ctx.Target.Depth(8, 5), 1e-6)
	}
}

func TestRasterPixelRange(t *testing.T) {
	ctx := newContext(t, []scene.Triangle{
		tri(mathutil.Vec3{-10, -10, 5}, mathutil.Vec3{10, -10, 5}, mathutil.Vec3{0, 10, 5}),
	}, 8, 8, testPose)
	ctx.Pixels = pipeline.Span{Lo: 16, Hi: 23}

	var r Rasterizer
	_, err := r.Rasterize(ctx, geometry(t, ctx))
	require.NoError(t, err)

	fb := ctx.Target
	for i := 0; i < fb.Len(); i++ {
		d, _ := fb.At(i)
		assert.Equal(t, ctx.Pixels.Contains(i), !math.IsInf(d, 1), "pixel %d", i)
	}
}

func TestParseSchedule(t *testing.T) {
	s, err := ParseSchedule("")
	require.NoError(t, err)
	assert.Equal(t, Batched, s)
	s, err = ParseSchedule("serial")
	require.NoError(t, err)
	assert.Equal(t, "serial", s.String())
	_, err = ParseSchedule("tiled")
	assert.Error(t, err)
}
