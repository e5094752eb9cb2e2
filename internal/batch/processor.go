// Package batch renders a camera path frame by frame and writes the frames
// to disk with a pool of encoder workers.
package batch

import (
	"fmt"
	"image"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"dualmode-renderer/internal/camera"
	"dualmode-renderer/internal/framebuf"
	"dualmode-renderer/internal/log"
	"dualmode-renderer/internal/postprocess"
)

var logger = log.New("batch")

// Config holds the output settings shared by every frame of a run.
type Config struct {
	OutputDir   string
	Format      postprocess.Format
	Width       int // output resolution, before supersampling
	Height      int
	Supersample int
	WriteDepth  bool
	Workers     int
}

// FrameRenderer produces the frame buffer for one pose. The returned buffer
// is only read until the next call.
type FrameRenderer interface {
	Render(pose camera.Pose) (*framebuf.FrameBuffer, error)
}

// Frame is a snapshot of a rendered frame, detached from the frame buffer
// so the renderer can move on while it is encoded.
type Frame struct {
	Index int
	Name  string
	Color *image.NRGBA
	Depth *image.Gray16
}

// Result holds the outcome of one frame.
type Result struct {
	Index   int
	Image   string
	Depth   string
	Success bool
	Error   string
}

// Snapshot copies fb into a Frame. The depth image is only taken when
// requested; it maps [near, far] onto the full gray range.
func Snapshot(fb *framebuf.FrameBuffer, index int, name string, pose camera.Pose, depth bool) Frame {
	f := Frame{Index: index, Name: name, Color: fb.ColorImage()}
	if depth {
		f.Depth = fb.DepthImage(pose.Near, pose.Far)
	}
	return f
}

// Save downsamples and encodes f into cfg.OutputDir. Paths in the result are
// relative to the output directory.
func Save(cfg Config, f Frame) Result {
	res := Result{Index: f.Index}

	img, depth := f.Color, f.Depth
	if cfg.Supersample > 1 {
		img = postprocess.Downsample(img, cfg.Width, cfg.Height)
		if depth != nil {
			depth = postprocess.DownsampleDepth(depth, cfg.Width, cfg.Height)
		}
	}

	res.Image = f.Name + cfg.Format.Ext()
	if err := postprocess.WriteFile(filepath.Join(cfg.OutputDir, res.Image), img, cfg.Format); err != nil {
		res.Error = err.Error()
		return res
	}

	if depth != nil {
		// Depth keeps 16 bits, which only PNG preserves.
		res.Depth = f.Name + "_depth" + postprocess.PNG.Ext()
		if err := postprocess.WriteFile(filepath.Join(cfg.OutputDir, res.Depth), depth, postprocess.PNG); err != nil {
			res.Error = err.Error()
			return res
		}
	}

	res.Success = true
	return res
}

// FrameName returns the file stem of frame i.
func FrameName(i int) string {
	return fmt.Sprintf("frame_%04d", i)
}

// Run renders every pose in order on the calling goroutine and hands the
// snapshots to cfg.Workers encoders. A frame whose render fails is reported
// in its Result and not written.
func Run(cfg Config, r FrameRenderer, poses []camera.Pose) []Result {
	total := len(poses)
	results := make([]Result, total)
	var processed atomic.Int64

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p := processed.Load()
				if p > 0 {
					elapsed := time.Since(start).Seconds()
					rate := float64(p) / elapsed
					logger.Noticef("[%d/%d] %.1f frames/sec", p, total, rate)
				}
			}
		}
	}()

	// Encoder pool
	frameChan := make(chan Frame, workers*2)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for f := range frameChan {
				results[f.Index] = Save(cfg, f)
				processed.Add(1)
			}
		}()
	}

	// Render and send work
	for i, pose := range poses {
		fb, err := r.Render(pose)
		if err != nil {
			logger.Errorf("frame %d: %v", i, err)
			results[i] = Result{Index: i, Error: err.Error()}
			processed.Add(1)
			continue
		}
		frameChan <- Snapshot(fb, i, FrameName(i), pose, cfg.WriteDepth)
	}
	close(frameChan)

	wg.Wait()
	close(done)

	logger.Infof("%d frames in %s", total, time.Since(start).Round(time.Millisecond))
	return results
}
