package config

import (
	"encoding/json"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// Config holds all configurable paths and render settings.
type Config struct {
	// Paths
	ScenePath string `json:"scene"`
	OutputDir string `json:"output_dir"`

	// Render settings
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	Mode          string `json:"mode"`     // "raster" or "raycast"
	Schedule      string `json:"schedule"` // "batched" or "serial"
	Background    string `json:"background"`
	TriangleRange *Range `json:"triangle_range,omitempty"`
	PixelRange    *Range `json:"pixel_range,omitempty"` // cells of the supersampled target, see RenderSize
	Workers       int    `json:"workers"`

	// Output settings
	Supersample int    `json:"supersample"`
	Format      string `json:"format"` // "webp", "png" or "tga"
	WriteDepth  bool   `json:"write_depth"`

	Camera   Camera   `json:"camera"`
	Sequence Sequence `json:"sequence"`
}

// Camera holds the initial camera pose.
type Camera struct {
	Position [3]float64  `json:"position"`
	Rotation [3]float64  `json:"rotation"` // pitch, yaw, roll in degrees
	LookAt   *[3]float64 `json:"look_at,omitempty"`
	FOV      float64     `json:"fov"`
	Near     float64     `json:"near"`
	Far      float64     `json:"far"`
}

// Keyframe is one camera key of a sequence. LookAt, when set, overrides
// Rotation.
type Keyframe struct {
	Position [3]float64  `json:"position"`
	Rotation [3]float64  `json:"rotation"`
	LookAt   *[3]float64 `json:"look_at,omitempty"`
}

// Sequence describes a camera path rendered by the sequence command.
type Sequence struct {
	Frames    int        `json:"frames"`
	Keyframes []Keyframe `json:"keyframes"`
}

// Load reads a JSON config file and returns Config.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	// Relative paths in the file are relative to the file.
	base := filepath.Dir(path)
	if cfg.ScenePath != "" && !filepath.IsAbs(cfg.ScenePath) {
		cfg.ScenePath = filepath.Join(base, cfg.ScenePath)
	}
	if cfg.OutputDir != "" && !filepath.IsAbs(cfg.OutputDir) {
		cfg.OutputDir = filepath.Join(base, cfg.OutputDir)
	}

	return cfg, nil
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	ScenePath   string
	OutputDir   string
	Width       int
	Height      int
	Mode        string
	Schedule    string
	Workers     int
	Supersample int
}

// Resolve applies CLI overrides and fills any unset field with its default.
// CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	if flags.ScenePath != "" {
		c.ScenePath = flags.ScenePath
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.Width > 0 {
		c.Width = flags.Width
	}
	if flags.Height > 0 {
		c.Height = flags.Height
	}
	if flags.Mode != "" {
		c.Mode = flags.Mode
	}
	if flags.Schedule != "" {
		c.Schedule = flags.Schedule
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.Supersample > 0 {
		c.Supersample = flags.Supersample
	}

	if c.OutputDir == "" {
		c.OutputDir = "renders"
	}
	if c.Width <= 0 {
		c.Width = 640
	}
	if c.Height <= 0 {
		c.Height = 360
	}
	if c.Mode == "" {
		c.Mode = "raster"
	}
	if c.Schedule == "" {
		c.Schedule = "batched"
	}
	if c.Background == "" {
		c.Background = "#191a1fff"
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.Supersample <= 0 {
		c.Supersample = 1
	}
	if c.Format == "" {
		c.Format = "webp"
	}

	if c.Sequence.Frames <= 0 {
		c.Sequence.Frames = 48
	}

	if c.Camera.FOV <= 0 || c.Camera.FOV >= 180 {
		c.Camera.FOV = 60
	}
	if c.Camera.Near <= 0 {
		c.Camera.Near = 0.3
	}
	if c.Camera.Far <= c.Camera.Near {
		c.Camera.Far = 1000
	}
}

// RenderSize returns the size of the render target, the output size times
// Supersample. PixelRange indexes cells of this target in row-major order
// from the bottom row, so a range selects different output pixels when
// Supersample changes.
func (c *Config) RenderSize() (w, h int) {
	s := c.Supersample
	if s < 1 {
		s = 1
	}
	return c.Width * s, c.Height * s
}

// Aspect returns width / height of the configured resolution.
func (c *Config) Aspect() float64 {
	return float64(c.Width) / float64(c.Height)
}

// BackgroundColor parses Background.
func (c *Config) BackgroundColor() (color.NRGBA, error) {
	return ParseColor(c.Background)
}

// ParseColor parses "#rrggbb" or "#rrggbbaa".
func ParseColor(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return color.NRGBA{}, fmt.Errorf("config: invalid color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("config: invalid color %q: %w", s, err)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
