package raster

import (
	"fmt"
	"sort"
	"sync/atomic"

	"dualmode-renderer/internal/pipeline"
)

// Schedule selects how slot pixel tasks are dispatched.
type Schedule int

const (
	// Batched dispatches the pixels of every slot in one grid. Tasks of
	// different slots hit the same pixels concurrently and rely on the
	// atomic depth test for nearest-wins.
	Batched Schedule = iota
	// Serial dispatches one grid per slot, in slot order. Pixels within a
	// slot are still processed in parallel.
	Serial
)

func (s Schedule) String() string {
	switch s {
	case Batched:
		return "batched"
	case Serial:
		return "serial"
	}
	return fmt.Sprintf("Schedule(%d)", int(s))
}

// ParseSchedule converts a config string to a Schedule.
func ParseSchedule(v string) (Schedule, error) {
	switch v {
	case "", "batched":
		return Batched, nil
	case "serial":
		return Serial, nil
	}
	return Batched, fmt.Errorf("raster: unknown schedule %q", v)
}

// Stats summarises one raster stage.
type Stats struct {
	Slots      int   // non-empty slots
	Tasks      int   // pixel tasks dispatched
	Covered    int64 // fragments inside a triangle
	Written    int64 // fragments that won the depth test
	Dispatches int
}

// Rasterizer owns the scratch state reused between frames.
type Rasterizer struct {
	Schedule Schedule

	active  []int // indices of non-empty slots
	offsets []int // prefix sums of active slot areas
}

// Rasterize runs the raster stage over the geometry stage output. The
// target must already be cleared.
func (r *Rasterizer) Rasterize(ctx *pipeline.Context, slots Slots) (Stats, error) {
	r.active = r.active[:0]
	r.offsets = append(r.offsets[:0], 0)
	for i := range slots {
		if slots[i].Valid && !slots[i].Bounds.Empty() {
			r.active = append(r.active, i)
			r.offsets = append(r.offsets, r.offsets[len(r.offsets)-1]+slots[i].Bounds.Area())
		}
	}

	stats := Stats{Slots: len(r.active), Tasks: r.offsets[len(r.offsets)-1]}
	var covered, written atomic.Int64

	switch r.Schedule {
	case Serial:
		for _, si := range r.active {
			s := &slots[si]
			err := ctx.Dispatcher.ForRange(s.Bounds.Area(), func(lo, hi int) error {
				c, w := rasterizeSpan(ctx, s, lo, hi)
				covered.Add(int64(c))
				written.Add(int64(w))
				return nil
			})
			stats.Dispatches++
			if err != nil {
				return stats, err
			}
		}
	default:
		err := ctx.Dispatcher.ForRange(stats.Tasks, func(lo, hi int) error {
			c, w := r.rasterizeTasks(ctx, slots, lo, hi)
			covered.Add(int64(c))
			written.Add(int64(w))
			return nil
		})
		stats.Dispatches = 1
		if err != nil {
			return stats, err
		}
	}

	stats.Covered = covered.Load()
	stats.Written = written.Load()
	return stats, nil
}

// rasterizeTasks runs global pixel tasks [lo, hi), which may span several
// slots.
func (r *Rasterizer) rasterizeTasks(ctx *pipeline.Context, slots Slots, lo, hi int) (covered, written int) {
	// First active slot whose range ends after lo.
	a := sort.SearchInts(r.offsets[1:], lo+1)
	for lo < hi && a < len(r.active) {
		base := r.offsets[a]
		end := r.offsets[a+1]
		if end > hi {
			end = hi
		}
		c, w := rasterizeSpan(ctx, &slots[r.active[a]], lo-base, end-base)
		covered += c
		written += w
		lo = end
		a++
	}
	return covered, written
}
