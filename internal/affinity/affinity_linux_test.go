//go:build linux

package affinity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type pinResult struct {
	allowed []int
	cpus    []int
	pinErr  error
	err     error
}

// pinIn runs Pin(cpu) on a fresh locked goroutine. When narrow is set the
// thread is first restricted to the last CPU of its mask. The goroutine exits
// locked, so its thread is discarded.
func pinIn(cpu int, narrow bool) pinResult {
	ch := make(chan pinResult, 1)
	go func() {
		var r pinResult
		defer func() { ch <- r }()
		if r.allowed, r.err = allowedCPUs(); r.err != nil {
			return
		}
		if narrow {
			if r.pinErr = Pin(len(r.allowed) - 1); r.pinErr != nil {
				return
			}
			if r.allowed, r.err = allowedCPUs(); r.err != nil {
				return
			}
		}
		if r.pinErr = Pin(cpu); r.pinErr != nil {
			return
		}
		r.cpus, r.err = allowedCPUs()
	}()
	return <-ch
}

func TestPin(t *testing.T) {
	r := pinIn(1, false)
	require.NoError(t, r.err)
	if r.pinErr != nil {
		t.Skipf("sched_setaffinity unavailable: %v", r.pinErr)
	}
	require.Equal(t, []int{r.allowed[1%len(r.allowed)]}, r.cpus)
}

func TestPin_WrapsAllowedSet(t *testing.T) {
	r := pinIn(1000, false)
	require.NoError(t, r.err)
	if r.pinErr != nil {
		t.Skipf("sched_setaffinity unavailable: %v", r.pinErr)
	}
	require.Equal(t, []int{r.allowed[1000%len(r.allowed)]}, r.cpus)
}

func TestPin_NarrowedMask(t *testing.T) {
	r := pinIn(0, true)
	require.NoError(t, r.err)
	if r.pinErr != nil {
		t.Skipf("sched_setaffinity unavailable: %v", r.pinErr)
	}
	require.Len(t, r.allowed, 1)
	// Index 0 of a mask holding only the last CPU is that CPU, not CPU 0.
	require.Equal(t, r.allowed, r.cpus)
}
