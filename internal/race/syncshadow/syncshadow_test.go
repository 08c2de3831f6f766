package syncshadow

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kolkov/lockbench/internal/race/vectorclock"
)

func TestDo_CreatesOnce(t *testing.T) {
	s := New()
	var first, second *SyncVar
	s.Do("lock", func(sv *SyncVar) { first = sv })
	s.Do("lock", func(sv *SyncVar) { second = sv })
	require.Same(t, first, second)
	require.Equal(t, 1, s.Len())
	require.Nil(t, first.ReleaseClock())
}

func TestSetReleaseClock_Copies(t *testing.T) {
	var sv SyncVar
	clock := vectorclock.VectorClock{1, 2, 3}
	sv.SetReleaseClock(clock)
	clock.Increment(0)

	require.Equal(t, vectorclock.VectorClock{1, 2, 3}, sv.ReleaseClock())
	require.Equal(t, uint64(1), sv.Releases())

	sv.SetReleaseClock(vectorclock.VectorClock{0, 0, 9})
	require.Equal(t, vectorclock.VectorClock{0, 0, 9}, sv.ReleaseClock())
}

func TestMergeReleaseClock(t *testing.T) {
	var sv SyncVar
	sv.MergeReleaseClock(vectorclock.VectorClock{0, 4, 0})
	sv.MergeReleaseClock(vectorclock.VectorClock{0, 1, 6})
	require.Equal(t, vectorclock.VectorClock{0, 4, 6}, sv.ReleaseClock())
	require.Equal(t, uint64(2), sv.Releases())
}

func TestConcurrentDo(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Do("slot", func(sv *SyncVar) {
					sv.MergeReleaseClock(vectorclock.New(4))
				})
			}
		}()
	}
	wg.Wait()
	s.Do("slot", func(sv *SyncVar) {
		require.Equal(t, uint64(3200), sv.Releases())
	})
}

func TestLen(t *testing.T) {
	s := New()
	require.Zero(t, s.Len())
	s.Do("a", func(*SyncVar) {})
	s.Do("b", func(*SyncVar) {})
	s.Do("a", func(*SyncVar) {})
	require.Equal(t, 2, s.Len())
}
