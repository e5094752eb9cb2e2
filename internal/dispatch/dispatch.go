// Package dispatch models grid dispatch on a CPU worker pool: a stage is a
// parallel-for over an index range, and returning from a dispatch call is the
// barrier that separates one stage from the next.
package dispatch

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"

	"golang.org/x/sync/errgroup"
)

// chunksPerWorker controls how finely an index range is split. More chunks
// than workers keeps the pool busy when per-index cost is uneven.
const chunksPerWorker = 8

// Dispatcher runs data-parallel stages with a bounded number of workers.
type Dispatcher struct {
	workers int
}

// New creates a dispatcher. workers <= 0 selects runtime.NumCPU().
func New(workers int) *Dispatcher {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Dispatcher{workers: workers}
}

// Workers returns the size of the worker pool.
func (d *Dispatcher) Workers() int {
	return d.workers
}

// TaskPanic carries a panic raised inside a task back to the dispatching
// goroutine.
type TaskPanic struct {
	Lo, Hi int
	Value  interface{}
	Stack  []byte
}

func (p *TaskPanic) Error() string {
	return fmt.Sprintf("dispatch: task [%d,%d) panicked: %v\n%s", p.Lo, p.Hi, p.Value, p.Stack)
}

// For runs fn(i) once for every i in [0, n) and blocks until all calls
// have returned.
func (d *Dispatcher) For(n int, fn func(i int)) error {
	return d.ForRange(n, func(lo, hi int) error {
		for i := lo; i < hi; i++ {
			fn(i)
		}
		return nil
	})
}

// ForRange splits [0, n) into contiguous chunks and runs fn on each chunk
// concurrently. It blocks until every chunk has finished. The first error
// returned by a chunk is returned; the remaining chunks still run to
// completion so that no task outlives the call. A panic inside a chunk is
// re-raised on the calling goroutine as a *TaskPanic once the stage is done.
func (d *Dispatcher) ForRange(n int, fn func(lo, hi int) error) error {
	if n <= 0 {
		return nil
	}

	chunk := (n + d.workers*chunksPerWorker - 1) / (d.workers * chunksPerWorker)
	if chunk < 1 {
		chunk = 1
	}

	var (
		panicMu  sync.Mutex
		panicked *TaskPanic
	)
	run := func(lo, hi int) error {
		defer func() {
			if r := recover(); r != nil {
				panicMu.Lock()
				if panicked == nil {
					panicked = &TaskPanic{Lo: lo, Hi: hi, Value: r, Stack: debug.Stack()}
				}
				panicMu.Unlock()
			}
		}()
		return fn(lo, hi)
	}

	// Single chunk: run inline.
	if chunk >= n || d.workers == 1 {
		err := run(0, n)
		if panicked != nil {
			panic(panicked)
		}
		return err
	}

	var g errgroup.Group
	g.SetLimit(d.workers)

	for lo := 0; lo < n; lo += chunk {
		lo, hi := lo, lo+chunk
		if hi > n {
			hi = n
		}
		g.Go(func() error {
			return run(lo, hi)
		})
	}

	err := g.Wait()
	if panicked != nil {
		panic(panicked)
	}
	return err
}
