package main

import (
	"math"

	"dualmode-renderer/internal/camera"
	"dualmode-renderer/internal/config"
	"dualmode-renderer/internal/mathutil"
	"dualmode-renderer/internal/render"
	"dualmode-renderer/internal/scene"

	"github.com/urfave/cli"
)

// session is what every command needs before rendering.
type session struct {
	cfg   config.Config
	scene *scene.Buffer
	pose  camera.Pose
}

// loadConfig reads the optional config file and applies command flags.
func loadConfig(ctx *cli.Context) (config.Config, error) {
	var cfg config.Config
	if path := ctx.GlobalString("config"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return cfg, err
		}
	}
	cfg.Resolve(config.Flags{
		ScenePath:   ctx.String("scene"),
		OutputDir:   ctx.String("out"),
		Width:       ctx.Int("width"),
		Height:      ctx.Int("height"),
		Mode:        ctx.String("mode"),
		Schedule:    ctx.String("schedule"),
		Workers:     ctx.Int("workers"),
		Supersample: ctx.Int("supersample"),
	})
	return cfg, nil
}

func setup(ctx *cli.Context) (*session, error) {
	setupLogging(ctx)

	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil, err
	}

	var objects []scene.Object
	if cfg.ScenePath != "" {
		if objects, err = scene.Load(cfg.ScenePath); err != nil {
			return nil, err
		}
	} else {
		logger.Notice("no scene configured, using the built-in scene")
		if objects, err = scene.DefaultDescription().Resolve("."); err != nil {
			return nil, err
		}
	}
	sc := scene.Build(objects)
	logger.Infof("scene: %d objects, %d triangles", len(objects), sc.Len())

	if cfg.PixelRange != nil && cfg.Supersample > 1 {
		w, h := cfg.RenderSize()
		logger.Warningf("pixel_range indexes the %dx%d supersampled target", w, h)
	}
	return &session{cfg: cfg, scene: sc, pose: initialPose(cfg, sc)}, nil
}

// initialPose returns the configured camera. A camera left at the origin
// with no orientation is moved back to frame the whole scene.
func initialPose(cfg config.Config, sc *scene.Buffer) camera.Pose {
	cam := cfg.Camera
	pose := camera.Pose{
		Position: cam.Position,
		Rotation: cam.Rotation,
		FOV:      cam.FOV,
		Near:     cam.Near,
		Far:      cam.Far,
		Aspect:   cfg.Aspect(),
	}
	if cam.LookAt != nil {
		return pose.LookAt(*cam.LookAt)
	}
	if pose.Position != (mathutil.Vec3{}) || pose.Rotation != (mathutil.Vec3{}) {
		return pose
	}
	center, radius, ok := sceneSphere(sc)
	if !ok {
		return pose
	}
	return framingPose(pose, center, radius, 0)
}

// framingPose places the camera on a circle around center, high enough to
// look down on the scene and far enough to see all of it.
func framingPose(pose camera.Pose, center mathutil.Vec3, radius, yawDeg float64) camera.Pose {
	dist := radius / math.Sin(mathutil.Deg2Rad(pose.FOV)/2) * 1.1
	yaw := mathutil.Deg2Rad(yawDeg)
	offset := mathutil.Vec3{-math.Sin(yaw), 0.5, -math.Cos(yaw)}.Normalize().Scale(dist)
	pose.Position = center.Add(offset)
	return pose.LookAt(center)
}

func sceneSphere(sc *scene.Buffer) (mathutil.Vec3, float64, bool) {
	lo, hi, ok := sc.Bounds()
	if !ok {
		return mathutil.Vec3{}, 0, false
	}
	center := lo.Add(hi).Scale(0.5)
	radius := hi.Sub(lo).Len() / 2
	if radius == 0 {
		radius = 1
	}
	return center, radius, true
}

// newRenderer creates a renderer at the supersampled resolution.
func newRenderer(s *session, mode string) (*render.Renderer, error) {
	opts, err := render.OptionsFromConfig(s.cfg)
	if err != nil {
		return nil, err
	}
	if mode != "" {
		if opts.Mode, err = render.ParseMode(mode); err != nil {
			return nil, err
		}
	}
	opts.Width, opts.Height = s.cfg.RenderSize()
	return render.New(s.scene, opts)
}
