package strategy

import (
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
	}{
		{"spin", Spin},
		{"SpinLock", Spin},
		{" spin-lock ", Spin},
		{"mutex", Mutex},
		{"blocking-mutex", Mutex},
		{"unguarded", Unguarded},
		{"none", Unguarded},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		require.NoError(t, err, tt.in)
		require.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseKind("semaphore")
	require.True(t, errors.Is(err, ErrUnknownKind))
	require.Contains(t, err.Error(), `"semaphore"`)
}

func TestKindString(t *testing.T) {
	for _, k := range []Kind{Spin, Mutex, Unguarded} {
		back, err := ParseKind(k.String())
		require.NoError(t, err)
		require.Equal(t, k, back)
	}
	require.Equal(t, "unknown", Kind(42).String())
}

func TestExclusive(t *testing.T) {
	require.True(t, Spin.Exclusive())
	require.True(t, Mutex.Exclusive())
	require.False(t, Unguarded.Exclusive())
	require.Equal(t, []Kind{Spin, Mutex}, Kinds)
}

func TestNew(t *testing.T) {
	for _, k := range []Kind{Spin, Mutex, Unguarded} {
		s, err := New(k)
		require.NoError(t, err)
		require.Equal(t, k, s.Kind())
	}
	_, err := New(Kind(-1))
	require.True(t, errors.Is(err, ErrUnknownKind))
}

func TestSpinLock_TryAcquire(t *testing.T) {
	l := NewSpinLock()
	require.True(t, l.TryAcquire())
	require.False(t, l.TryAcquire())
	l.Release()
	require.True(t, l.TryAcquire())
	l.Release()
}

// TestSpinLock_BlocksWhileHeld verifies that Acquire does not return while
// another holder owns the lock.
func TestSpinLock_BlocksWhileHeld(t *testing.T) {
	l := NewSpinLock()
	l.Acquire()

	acquired := make(chan struct{})
	go func() {
		l.Acquire()
		close(acquired)
		l.Release()
	}()

	select {
	case <-acquired:
		t.Fatal("Acquire returned while the lock was held")
	case <-time.After(20 * time.Millisecond):
	}
	l.Release()

	select {
	case <-acquired:
	case <-time.After(5 * time.Second):
		t.Fatal("Acquire did not return after Release")
	}
}

// TestMutualExclusion checks that no two holders are ever inside the
// critical section at once, for every exclusive strategy.
func TestMutualExclusion(t *testing.T) {
	for _, k := range Kinds {
		t.Run(k.String(), func(t *testing.T) {
			s, err := New(k)
			require.NoError(t, err)

			const workers, iterations = 16, 2000
			var (
				wg      sync.WaitGroup
				inside  int
				overlap int
				count   int
			)
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for j := 0; j < iterations; j++ {
						s.Acquire()
						inside++
						if inside != 1 {
							overlap++
						}
						count++
						inside--
						s.Release()
					}
				}()
			}
			wg.Wait()
			require.Zero(t, overlap)
			require.Equal(t, workers*iterations, count)
		})
	}
}

func BenchmarkStrategy(b *testing.B) {
	for _, k := range Kinds {
		b.Run(k.String(), func(b *testing.B) {
			s, _ := New(k)
			var n int
			b.RunParallel(func(pb *testing.PB) {
				for pb.Next() {
					s.Acquire()
					n++
					s.Release()
				}
			})
			_ = n
		})
	}
}

func TestKindText(t *testing.T) {
	b, err := Mutex.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "mutex", string(b))

	var k Kind
	require.NoError(t, k.UnmarshalText([]byte("SpinLock")))
	require.Equal(t, Spin, k)

	_, err = Kind(9).MarshalText()
	require.ErrorIs(t, err, ErrUnknownKind)
	require.Error(t, k.UnmarshalText([]byte("rwlock")))
}
