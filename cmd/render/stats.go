package main

import (
	"bytes"
	"fmt"

	"dualmode-renderer/internal/render"

	"github.com/olekukonko/tablewriter"
)

func displayFrameStats(stats render.FrameStats) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Stage", "Tasks", "% of frame", "Time"})
	for _, stage := range stats.Stages {
		pct := 0.0
		if stats.Total > 0 {
			pct = 100 * float64(stage.Duration) / float64(stats.Total)
		}
		table.Append([]string{
			stage.Name,
			fmt.Sprintf("%d", stage.Tasks),
			fmt.Sprintf("%02.1f %%", pct),
			stage.Duration.String(),
		})
	}
	table.SetFooter([]string{stats.Mode.String(), "", "TOTAL", stats.Total.String()})

	table.Render()
	logger.Noticef("frame statistics\n%s", buf.String())

	switch stats.Mode {
	case render.RayCasting:
		logger.Infof("rays %d, intersection tests %d, hits %d", stats.Cast.Rays, stats.Cast.Tests, stats.Cast.Hits)
	default:
		logger.Infof("slots %d, pixel tasks %d, covered %d, written %d, dispatches %d",
			stats.Raster.Slots, stats.Raster.Tasks, stats.Raster.Covered, stats.Raster.Written, stats.Raster.Dispatches)
	}
}

func displayAgreement(a render.Agreement) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Pixels", "Both", "Raster only", "Raycast only", "Depth mismatch", "Max Δdepth"})
	table.Append([]string{
		fmt.Sprintf("%d", a.Pixels),
		fmt.Sprintf("%d", a.Both),
		fmt.Sprintf("%d", a.OnlyA),
		fmt.Sprintf("%d", a.OnlyB),
		fmt.Sprintf("%d", a.Mismatch),
		fmt.Sprintf("%.3g", a.MaxDelta),
	})
	table.Render()
	logger.Noticef("mode agreement (coverage %.2f %%)\n%s", 100*a.Coverage(), buf.String())
}
