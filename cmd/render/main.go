package main

import (
	"os"

	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "render"
	app.Usage = "render static scenes with a rasterizer or a ray caster"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
		cli.StringFlag{
			Name:  "config, c",
			Usage: "path to a JSON config file",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "frame",
			Usage: "render a single frame",
			Description: `
Render one frame of the scene from the configured camera and write it to the
output directory. With --mode raycast the ray casting pipeline is used.`,
			Flags:  append(renderFlags(), cli.StringFlag{Name: "name", Value: "frame", Usage: "output file name without extension"}),
			Action: renderFrame,
		},
		{
			Name:  "sequence",
			Usage: "render a camera path",
			Description: `
Render the keyframed camera path of the config file, or an orbit around the
scene when no keyframes are given, and write a manifest.json next to the
frames.`,
			Flags:  append(renderFlags(), cli.IntFlag{Name: "frames", Usage: "number of frames (default: config or 48)"}),
			Action: renderSequence,
		},
		{
			Name:  "compare",
			Usage: "render with both pipelines and compare coverage and depth",
			Flags: append(renderFlags(),
				cli.Float64Flag{Name: "tolerance", Value: 1e-3, Usage: "relative depth tolerance"},
				cli.BoolFlag{Name: "write", Usage: "also write both frames"},
			),
			Action: compareModes,
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}

func renderFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{Name: "scene, s", Usage: "scene description (JSON) or Wavefront OBJ file"},
		cli.StringFlag{Name: "out, o", Usage: "output directory (default: renders)"},
		cli.IntFlag{Name: "width", Usage: "frame width (default: 640)"},
		cli.IntFlag{Name: "height", Usage: "frame height (default: 360)"},
		cli.StringFlag{Name: "mode, m", Usage: "raster or raycast"},
		cli.StringFlag{Name: "schedule", Usage: "rasterizer schedule: batched or serial"},
		cli.IntFlag{Name: "workers, w", Usage: "number of worker goroutines (default: NumCPU)"},
		cli.IntFlag{Name: "supersample", Usage: "render at N× resolution and downsample"},
	}
}
