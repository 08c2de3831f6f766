package detector

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kolkov/lockbench/internal/race/goroutine"
)

// start fires the start barrier from the runner and lets every worker
// observe it, returning the worker contexts.
func start(d *Detector, workers int) (*goroutine.Context, []*goroutine.Context) {
	runner := d.Participant(0)
	d.OnBroadcast(runner, ObjStart)
	ctxs := make([]*goroutine.Context, workers)
	for i := range ctxs {
		ctxs[i] = d.Participant(uint16(i + 1))
		d.OnAcquire(ctxs[i], ObjStart)
	}
	return runner, ctxs
}

func guardedInc(d *Detector, ctx *goroutine.Context) {
	d.OnAcquire(ctx, ObjLock)
	d.OnRead(ctx)
	d.OnWrite(ctx)
	d.OnRelease(ctx, ObjLock)
}

func unguardedInc(d *Detector, ctx *goroutine.Context) {
	d.OnRead(ctx)
	d.OnWrite(ctx)
}

// TestGuardedIncrements_NoRace verifies lock-ordered increments from many
// workers in an arbitrary interleaving produce no report.
func TestGuardedIncrements_NoRace(t *testing.T) {
	d := New(5)
	_, ws := start(d, 4)
	for round := 0; round < 10; round++ {
		for _, i := range []int{2, 0, 3, 1} {
			guardedInc(d, ws[i])
		}
	}
	require.Zero(t, d.RacesDetected())
	st := d.Stats()
	require.Equal(t, uint64(40), st.Reads)
	require.Equal(t, uint64(40), st.Writes)
	require.Zero(t, st.EarlyAccesses)
}

// TestUnguardedIncrements_RaceReported verifies that two workers touching
// the counter without a lock are always reported, even sequentially.
func TestUnguardedIncrements_RaceReported(t *testing.T) {
	d := New(3)
	_, ws := start(d, 2)
	unguardedInc(d, ws[0])
	unguardedInc(d, ws[1])

	require.NotZero(t, d.RacesDetected())
	reports := d.Reports()
	require.Equal(t, RaceTypeWriteRead, reports[0].Type)
	require.Equal(t, uint16(2), reports[0].Current.Worker)
	require.Equal(t, uint16(1), reports[0].Previous.Worker)
}

// TestDeduplication verifies one report per race type and worker pair.
func TestDeduplication(t *testing.T) {
	d := New(3)
	_, ws := start(d, 2)
	for i := 0; i < 50; i++ {
		unguardedInc(d, ws[0])
		unguardedInc(d, ws[1])
	}
	// write-read and write-write between the same pair, nothing else.
	require.Equal(t, 2, d.RacesDetected())
}

// TestConcurrentReads_Promotion verifies read-shared promotion and the
// read-write race that follows an unordered write.
func TestConcurrentReads_Promotion(t *testing.T) {
	d := New(4)
	_, ws := start(d, 3)
	d.OnRead(ws[0])
	d.OnRead(ws[1])
	require.Equal(t, uint64(1), d.Stats().Promotions)
	require.Zero(t, d.RacesDetected())

	d.OnWrite(ws[2])
	reports := d.Reports()
	require.NotEmpty(t, reports)
	require.Equal(t, RaceTypeReadWrite, reports[0].Type)
}

// TestCompletionJoin verifies that the runner's final read after joining the
// completion object is ordered after every worker write.
func TestCompletionJoin(t *testing.T) {
	d := New(4)
	runner, ws := start(d, 3)
	for _, w := range ws {
		guardedInc(d, w)
		d.OnMerge(w, ObjCompletion)
	}
	d.OnAcquire(runner, ObjCompletion)
	d.OnRead(runner)
	require.Zero(t, d.RacesDetected())
}

// TestFinalReadWithoutJoin verifies that skipping the completion join is
// caught: the runner's read is not ordered after the last write.
func TestFinalReadWithoutJoin(t *testing.T) {
	d := New(2)
	runner, ws := start(d, 1)
	guardedInc(d, ws[0])
	d.OnRead(runner)
	require.Equal(t, 1, d.RacesDetected())
	require.Equal(t, uint16(0), d.Reports()[0].Current.Worker)
}

// TestEarlyAccess verifies accesses before the start broadcast are counted.
func TestEarlyAccess(t *testing.T) {
	d := New(2)
	w := d.Participant(1)
	d.OnRead(w)
	d.OnWrite(w)
	require.Equal(t, 2, d.Stats().EarlyAccesses)

	runner := d.Participant(0)
	d.OnBroadcast(runner, ObjStart)
	d.OnAcquire(w, ObjStart)
	d.OnRead(w)
	require.Equal(t, 2, d.Stats().EarlyAccesses)
}

// TestSampling verifies that sampled-out accesses are not checked.
func TestSampling(t *testing.T) {
	d := NewWithSampler(3, NewSampler(SamplerConfig{Enabled: true, Rate: 4}))
	_, ws := start(d, 2)
	for i := 0; i < 8; i++ {
		guardedInc(d, ws[i%2])
	}
	st := d.Stats()
	require.Equal(t, uint64(12), st.Skipped)
	require.Equal(t, uint64(4), st.Reads+st.Writes)
}

// TestConcurrentWorkers drives the detector from real goroutines under a
// real mutex; the recorded order follows the real lock order.
func TestConcurrentWorkers(t *testing.T) {
	const workers = 8
	d := New(workers + 1)
	runner := d.Participant(0)

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		startCh = make(chan struct{})
	)
	for i := 1; i <= workers; i++ {
		wg.Add(1)
		go func(tid uint16) {
			defer wg.Done()
			ctx := d.Participant(tid)
			<-startCh
			d.OnAcquire(ctx, ObjStart)
			for j := 0; j < 200; j++ {
				mu.Lock()
				guardedInc(d, ctx)
				mu.Unlock()
			}
			d.OnMerge(ctx, ObjCompletion)
		}(uint16(i))
	}
	d.OnBroadcast(runner, ObjStart)
	close(startCh)
	wg.Wait()
	d.OnAcquire(runner, ObjCompletion)
	d.OnRead(runner)

	require.Zero(t, d.RacesDetected())
	require.Equal(t, uint64(workers*200), d.Stats().Writes)
	require.Equal(t, 3, d.Stats().SyncObjects)
}
