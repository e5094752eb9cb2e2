package render

import (
	"fmt"
	"image/color"

	"dualmode-renderer/internal/config"
	"dualmode-renderer/internal/raster"
	"dualmode-renderer/internal/shade"
)

// Mode selects the pipeline that produces a frame.
type Mode int

const (
	Rasterizer Mode = iota
	RayCasting
)

func (m Mode) String() string {
	switch m {
	case Rasterizer:
		return "raster"
	case RayCasting:
		return "raycast"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode converts a config string to a Mode.
func ParseMode(v string) (Mode, error) {
	switch v {
	case "", "raster", "rasterizer":
		return Rasterizer, nil
	case "raycast", "raycasting":
		return RayCasting, nil
	}
	return Rasterizer, fmt.Errorf("render: unknown mode %q", v)
}

// Options configures a Renderer.
type Options struct {
	Width      int
	Height     int
	Mode       Mode
	Schedule   raster.Schedule
	Background color.NRGBA
	Workers    int
	Light      shade.LightConfig

	// Debug limits; nil selects everything.
	TriangleRange *config.Range
	PixelRange    *config.Range
}

// OptionsFromConfig converts a resolved config into renderer options.
func OptionsFromConfig(cfg config.Config) (Options, error) {
	mode, err := ParseMode(cfg.Mode)
	if err != nil {
		return Options{}, err
	}
	schedule, err := raster.ParseSchedule(cfg.Schedule)
	if err != nil {
		return Options{}, err
	}
	bg, err := cfg.BackgroundColor()
	if err != nil {
		return Options{}, err
	}
	return Options{
		Width:         cfg.Width,
		Height:        cfg.Height,
		Mode:          mode,
		Schedule:      schedule,
		Background:    bg,
		Workers:       cfg.Workers,
		Light:         shade.DefaultLightConfig(),
		TriangleRange: cfg.TriangleRange,
		PixelRange:    cfg.PixelRange,
	}, nil
}
