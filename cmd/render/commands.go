package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"dualmode-renderer/internal/batch"
	"dualmode-renderer/internal/config"
	"dualmode-renderer/internal/postprocess"
	"dualmode-renderer/internal/render"

	"github.com/urfave/cli"
)

func batchConfig(cfg config.Config) (batch.Config, error) {
	format, err := postprocess.ParseFormat(cfg.Format)
	if err != nil {
		return batch.Config{}, err
	}
	return batch.Config{
		OutputDir:   cfg.OutputDir,
		Format:      format,
		Width:       cfg.Width,
		Height:      cfg.Height,
		Supersample: cfg.Supersample,
		WriteDepth:  cfg.WriteDepth,
		Workers:     cfg.Workers,
	}, nil
}

// Render a still frame.
func renderFrame(ctx *cli.Context) error {
	s, err := setup(ctx)
	if err != nil {
		return err
	}
	bc, err := batchConfig(s.cfg)
	if err != nil {
		return err
	}

	r, err := newRenderer(s, "")
	if err != nil {
		return err
	}
	fb, err := r.Render(s.pose)
	if err != nil {
		return err
	}
	displayFrameStats(r.Stats())

	res := batch.Save(bc, batch.Snapshot(fb, 0, ctx.String("name"), s.pose, bc.WriteDepth))
	if !res.Success {
		return errors.New(res.Error)
	}
	logger.Noticef("wrote %s", filepath.Join(bc.OutputDir, res.Image))
	return nil
}

// Render a camera path and write the manifest.
func renderSequence(ctx *cli.Context) error {
	s, err := setup(ctx)
	if err != nil {
		return err
	}
	bc, err := batchConfig(s.cfg)
	if err != nil {
		return err
	}
	frames := s.cfg.Sequence.Frames
	if n := ctx.Int("frames"); n > 0 {
		frames = n
	}

	poses := batch.Interpolate(s.pose, sequenceKeys(s), frames)
	if len(poses) == 0 {
		return errors.New("empty camera path")
	}

	r, err := newRenderer(s, "")
	if err != nil {
		return err
	}

	logger.Noticef("rendering %d frames (%s) to %s", len(poses), r.Mode(), bc.OutputDir)
	start := time.Now()
	results := batch.Run(bc, r, poses)

	failed := 0
	for _, res := range results {
		if !res.Success {
			failed++
			logger.Warningf("frame %d: %s", res.Index, res.Error)
		}
	}
	logger.Noticef("rendered %d/%d frames in %.1fs", len(results)-failed, len(results), time.Since(start).Seconds())

	if err := os.MkdirAll(bc.OutputDir, 0755); err != nil {
		return err
	}
	manifestPath := filepath.Join(bc.OutputDir, "manifest.json")
	if err := batch.WriteManifest(manifestPath, poses, results); err != nil {
		return err
	}
	logger.Noticef("manifest: %s", manifestPath)

	if failed > 0 {
		return fmt.Errorf("%d frames failed", failed)
	}
	return nil
}

// sequenceKeys returns the configured keyframes, or a full orbit around the
// scene starting at the initial pose.
func sequenceKeys(s *session) []batch.Key {
	if kfs := s.cfg.Sequence.Keyframes; len(kfs) > 0 {
		keys := make([]batch.Key, len(kfs))
		for i, kf := range kfs {
			p := s.pose
			p.Position = kf.Position
			p.Rotation = kf.Rotation
			if kf.LookAt != nil {
				p = p.LookAt(*kf.LookAt)
			}
			keys[i] = batch.KeyFromPose(p)
		}
		return keys
	}

	center, radius, ok := sceneSphere(s.scene)
	if !ok {
		return []batch.Key{batch.KeyFromPose(s.pose)}
	}
	keys := make([]batch.Key, 0, 9)
	for yaw := 0.0; yaw <= 360; yaw += 45 {
		keys = append(keys, batch.KeyFromPose(framingPose(s.pose, center, radius, yaw)))
	}
	return keys
}

// Render the same pose with both pipelines and report how they agree.
func compareModes(ctx *cli.Context) error {
	s, err := setup(ctx)
	if err != nil {
		return err
	}

	frames := make(map[render.Mode]*render.Renderer, 2)
	for _, mode := range []render.Mode{render.Rasterizer, render.RayCasting} {
		r, err := newRenderer(s, mode.String())
		if err != nil {
			return err
		}
		if _, err := r.Render(s.pose); err != nil {
			return err
		}
		displayFrameStats(r.Stats())
		frames[mode] = r
	}

	raster, cast := frames[render.Rasterizer], frames[render.RayCasting]
	agreement, err := render.Compare(raster.Target(), cast.Target(), ctx.Float64("tolerance"))
	if err != nil {
		return err
	}
	displayAgreement(agreement)

	if ctx.Bool("write") {
		bc, err := batchConfig(s.cfg)
		if err != nil {
			return err
		}
		for i, r := range []*render.Renderer{raster, cast} {
			res := batch.Save(bc, batch.Snapshot(r.Target(), i, "compare_"+r.Mode().String(), s.pose, bc.WriteDepth))
			if !res.Success {
				return errors.New(res.Error)
			}
		}
	}
	return nil
}
