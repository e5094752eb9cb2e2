// Package render runs one frame of either pipeline against the static scene
// and the shared frame buffer.
package render

import (
	"fmt"
	"time"

	"dualmode-renderer/internal/camera"
	"dualmode-renderer/internal/dispatch"
	"dualmode-renderer/internal/framebuf"
	"dualmode-renderer/internal/log"
	"dualmode-renderer/internal/pipeline"
	"dualmode-renderer/internal/raster"
	"dualmode-renderer/internal/raycast"
	"dualmode-renderer/internal/scene"
)

var logger = log.New("render")

// StageStats records one dispatched stage.
type StageStats struct {
	Name     string
	Tasks    int
	Duration time.Duration
}

// FrameStats describes the last rendered frame.
type FrameStats struct {
	Mode   Mode
	Stages []StageStats
	Total  time.Duration
	Raster raster.Stats
	Cast   raycast.Stats
}

// Renderer owns the frame buffer and per-pipeline scratch state for a
// session. It is not safe for concurrent use; each Render call is one frame.
type Renderer struct {
	opts       Options
	dispatcher *dispatch.Dispatcher
	scene      *scene.Buffer
	target     *framebuf.FrameBuffer
	slots      raster.Slots
	rasterizer raster.Rasterizer
	caster     raycast.Caster
	stats      FrameStats
}

// New allocates the frame buffer at the configured resolution. Failing to
// allocate is fatal: no renderer is returned.
func New(sc *scene.Buffer, opts Options) (*Renderer, error) {
	target, err := framebuf.New(opts.Width, opts.Height)
	if err != nil {
		return nil, fmt.Errorf("render: allocate frame buffer: %w", err)
	}
	r := &Renderer{
		opts:       opts,
		dispatcher: dispatch.New(opts.Workers),
		scene:      sc,
		target:     target,
		slots:      raster.NewSlots(sc.Len()),
		rasterizer: raster.Rasterizer{Schedule: opts.Schedule},
	}
	logger.Infof("renderer ready: %dx%d, %d triangles, %d workers, mode %s",
		opts.Width, opts.Height, sc.Len(), r.dispatcher.Workers(), opts.Mode)
	return r, nil
}

// SetMode switches the pipeline used by subsequent frames.
func (r *Renderer) SetMode(m Mode) {
	r.opts.Mode = m
}

// Mode returns the active pipeline.
func (r *Renderer) Mode() Mode {
	return r.opts.Mode
}

// Resize reallocates the frame buffer.
func (r *Renderer) Resize(w, h int) error {
	if err := r.target.Resize(w, h); err != nil {
		return fmt.Errorf("render: resize: %w", err)
	}
	r.opts.Width, r.opts.Height = w, h
	return nil
}

// Target returns the shared frame buffer. Its contents are valid after
// Render returns without error.
func (r *Renderer) Target() *framebuf.FrameBuffer {
	return r.target
}

// Slots returns the geometry stage output of the last rasterized frame.
func (r *Renderer) Slots() raster.Slots {
	return r.slots
}

// Stats returns statistics for the last frame.
func (r *Renderer) Stats() FrameStats {
	return r.stats
}

// Context builds the per-frame stage context for frame.
func (r *Renderer) Context(frame *camera.Frame) *pipeline.Context {
	tLo, tHi := r.opts.TriangleRange.Clamp(r.scene.Len())
	pLo, pHi := r.opts.PixelRange.Clamp(r.target.Len())
	light := r.opts.Light
	return &pipeline.Context{
		Dispatcher: r.dispatcher,
		Frame:      frame,
		Scene:      r.scene,
		Target:     r.target,
		Light:      &light,
		Background: r.opts.Background,
		Triangles:  pipeline.Span{Lo: tLo, Hi: tHi},
		Pixels:     pipeline.Span{Lo: pLo, Hi: pHi},
	}
}

// Render draws one frame for pose. An aspect ratio of zero in the pose is
// replaced by the frame buffer's. Any stage error aborts the frame.
func (r *Renderer) Render(pose camera.Pose) (*framebuf.FrameBuffer, error) {
	if pose.Aspect <= 0 {
		pose.Aspect = float64(r.target.Width) / float64(r.target.Height)
	}
	frame := camera.Project(pose)
	ctx := r.Context(&frame)

	start := time.Now()
	r.stats = FrameStats{Mode: r.opts.Mode}

	if err := r.stage("clear", r.target.Len(), ctx.Clear); err != nil {
		return nil, err
	}

	switch r.opts.Mode {
	case RayCasting:
		err := r.stage("raycast", ctx.Pixels.Len(), func() error {
			var err error
			r.stats.Cast, err = r.caster.Cast(ctx)
			return err
		})
		if err != nil {
			return nil, err
		}
	default:
		err := r.stage("geometry", r.scene.Len(), func() error {
			return raster.ProcessGeometry(ctx, r.slots)
		})
		if err != nil {
			return nil, err
		}
		err = r.stage("raster", 0, func() error {
			var err error
			r.stats.Raster, err = r.rasterizer.Rasterize(ctx, r.slots)
			return err
		})
		if err != nil {
			return nil, err
		}
		r.stats.Stages[len(r.stats.Stages)-1].Tasks = r.stats.Raster.Tasks
	}

	r.stats.Total = time.Since(start)
	logger.Debugf("frame (%s) rendered in %s", r.opts.Mode, r.stats.Total)
	return r.target, nil
}

// stage runs one dispatched stage and records its timing. Returning from fn
// is the barrier before the next stage.
func (r *Renderer) stage(name string, tasks int, fn func() error) error {
	start := time.Now()
	err := fn()
	r.stats.Stages = append(r.stats.Stages, StageStats{Name: name, Tasks: tasks, Duration: time.Since(start)})
	if err != nil {
		return fmt.Errorf("render: %s stage: %w", name, err)
	}
	return nil
}
