package dispatch

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForVisitsEveryIndexOnce(t *testing.T) {
	for _, workers := range []int{1, 3, 8} {
		for _, n := range []int{0, 1, 7, 100, 1031} {
			d := New(workers)
			hits := make([]int32, n)
			err := d.For(n, func(i int) {
				atomic.AddInt32(&hits[i], 1)
			})
			require.NoError(t, err)
			for i, h := range hits {
				assert.EqualValues(t, 1, h, "workers %d, n %d: index %d", workers, n, i)
			}
		}
	}
}

func TestForIsABarrier(t *testing.T) {
	d := New(4)
	const n = 4096
	var first atomic.Int64
	require.NoError(t, d.For(n, func(int) { first.Add(1) }))

	// Every task of the first stage has finished before the second starts.
	var seen atomic.Int64
	require.NoError(t, d.For(n, func(int) {
		if first.Load() != n {
			seen.Add(1)
		}
	}))
	assert.Zero(t, seen.Load())
}

func TestForRangeReturnsError(t *testing.T) {
	d := New(4)
	boom := errors.New("boom")
	var ran atomic.Int64
	err := d.ForRange(1000, func(lo, hi int) error {
		ran.Add(int64(hi - lo))
		if lo == 0 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
	assert.EqualValues(t, 1000, ran.Load(), "remaining chunks still run")
}

func TestForRangePanic(t *testing.T) {
	for _, workers := range []int{1, 4} {
		d := New(workers)
		func() {
			defer func() {
				r := recover()
				require.NotNil(t, r)
				p, ok := r.(*TaskPanic)
				require.True(t, ok, "got %T", r)
				assert.Equal(t, "bad task", p.Value)
				assert.True(t, p.Lo <= 500 && 500 < p.Hi)
			}()
			_ = d.For(1000, func(i int) {
				if i == 500 {
					panic("bad task")
				}
			})
		}()
	}
}

func TestNewDefaultsToNumCPU(t *testing.T) {
	assert.Positive(t, New(0).Workers())
	assert.Equal(t, 3, New(3).Workers())
}
