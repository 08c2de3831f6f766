package barrier

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

// waitTimeout fails the test if fn does not return within d.
func waitTimeout(t *testing.T, d time.Duration, fn func()) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		fn()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(d):
		t.Fatalf("did not return within %s", d)
	}
}

func TestStart_ReleasesAllWaiters(t *testing.T) {
	s := NewStart()
	require.False(t, s.Fired())

	const waiters = 32
	var (
		wg       sync.WaitGroup
		released atomic.Int32
	)
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Wait()
			released.Add(1)
		}()
	}

	time.Sleep(10 * time.Millisecond)
	require.Zero(t, released.Load(), "no waiter may pass before Release")

	s.Release()
	require.True(t, s.Fired())
	waitTimeout(t, 5*time.Second, wg.Wait)
	require.Equal(t, int32(waiters), released.Load())
}

func TestStart_ReleaseTwice(t *testing.T) {
	s := NewStart()
	s.Release()
	require.NotPanics(t, s.Release)
	waitTimeout(t, time.Second, s.Wait)
}

func TestCompletion_SignalErrors(t *testing.T) {
	c := NewCompletion(2)
	require.True(t, errors.Is(c.Signal(2), ErrSlotRange))
	require.True(t, errors.Is(c.Signal(-1), ErrSlotRange))
	require.NoError(t, c.Signal(0))
	require.True(t, errors.Is(c.Signal(0), ErrSlotSignaled))
	require.Equal(t, 1, c.Pending())
}

// TestCompletion_FanIn verifies that Wait does not return until every slot
// has been signaled individually, for 1..64 slots.
func TestCompletion_FanIn(t *testing.T) {
	for n := 1; n <= 64; n++ {
		c := NewCompletion(n)
		require.Equal(t, n, c.Len())

		returned := make(chan struct{})
		go func() {
			c.Wait()
			close(returned)
		}()

		// Signal all but the last slot, in reverse order.
		for i := n - 1; i >= 1; i-- {
			require.NoError(t, c.Signal(i))
		}
		select {
		case <-returned:
			t.Fatalf("n=%d: Wait returned with slot 0 unsignaled", n)
		case <-time.After(time.Millisecond):
		}
		require.Equal(t, 1, c.Pending())

		require.NoError(t, c.Signal(0))
		select {
		case <-returned:
		case <-time.After(5 * time.Second):
			t.Fatalf("n=%d: Wait did not return", n)
		}
		require.Zero(t, c.Pending())
	}
}

// TestCompletion_Visibility verifies writes before Signal are visible after
// Wait. Run with -race to make this meaningful.
func TestCompletion_Visibility(t *testing.T) {
	const n = 16
	c := NewCompletion(n)
	values := make([]int, n)
	for i := 0; i < n; i++ {
		go func(i int) {
			values[i] = i * i
			require.NoError(t, c.Signal(i))
		}(i)
	}
	waitTimeout(t, 5*time.Second, c.Wait)
	for i := 0; i < n; i++ {
		require.Equal(t, i*i, values[i])
	}
}

func TestCompletion_Done(t *testing.T) {
	c := NewCompletion(3)
	require.NoError(t, c.Signal(1))
	select {
	case <-c.Done(1):
	default:
		t.Fatal("slot 1 should be closed")
	}
	select {
	case <-c.Done(2):
		t.Fatal("slot 2 should be open")
	default:
	}
}
