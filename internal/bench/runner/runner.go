// Package runner executes one concurrent-increment run: a fixed pool of
// workers released together by a start barrier, each incrementing a shared
// counter under an exclusion strategy, joined by a completion barrier.
package runner

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/kolkov/lockbench/internal/bench/barrier"
	"github.com/kolkov/lockbench/internal/bench/strategy"
	"github.com/kolkov/lockbench/internal/metrics"
	"github.com/kolkov/lockbench/internal/race/detector"
	"github.com/kolkov/lockbench/internal/race/goroutine"
)

// MaxThreads bounds the worker count; the checker encodes participant IDs
// in 16 bits.
const MaxThreads = 1<<16 - 2

// Runner owns the state of one run at a time. Run may be called repeatedly
// but not concurrently; use one Runner per goroutine.
type Runner struct {
	opts    options
	counter Counter
	state   atomic.Int32
	tracer  *detector.Detector
}

// New returns an idle Runner.
func New(opts ...Option) *Runner {
	r := &Runner{}
	r.opts.spawn = goSpawner
	if cpu, err := NewProcessSampler(); err == nil {
		r.opts.cpu = cpu
	} else {
		glog.V(1).Infof("CPU accounting disabled: %v", err)
	}
	for _, opt := range opts {
		opt(&r.opts)
	}
	if r.opts.spawn == nil {
		r.opts.spawn = goSpawner
	}
	return r
}

// State returns the current lifecycle state.
func (r *Runner) State() State {
	return State(r.state.Load())
}

// Tracer returns the happens-before checker of the last traced run, or nil.
func (r *Runner) Tracer() *detector.Detector {
	return r.tracer
}

func (r *Runner) transition(to State) {
	from := State(r.state.Swap(int32(to)))
	if r.opts.transition != nil {
		r.opts.transition(from, to)
	}
}

// Run executes threads workers, each incrementing the counter iterations
// times under s, and checks the final count against threads*iterations.
//
// A count mismatch is not an error: it is reported through RunResult.Passed
// and RunResult.Err. Run returns an error only when the run could not be
// carried out (invalid parameters or a worker that failed to spawn).
//
// There is no timeout. A strategy that never grants access hangs Run.
func (r *Runner) Run(s strategy.Strategy, threads, iterations int) (RunResult, error) {
	if s == nil {
		return RunResult{}, errors.Wrap(ErrInvalidParams, "nil strategy")
	}
	if threads < 1 || iterations < 1 || threads > MaxThreads {
		return RunResult{}, errors.Wrapf(ErrInvalidParams,
			"threads=%d iterations=%d", threads, iterations)
	}
	res := RunResult{
		Strategy:      s.Kind(),
		Threads:       threads,
		Iterations:    iterations,
		ExpectedCount: int64(threads) * int64(iterations),
	}

	r.state.Store(int32(Idle))
	r.counter.Reset()
	r.tracer = nil
	r.transition(Spawning)

	run := &shared{
		start:    barrier.NewStart(),
		done:     barrier.NewCompletion(threads),
		counter:  &r.counter,
		strategy: s,
	}
	if r.opts.trace {
		var sampler *detector.Sampler
		if r.opts.sampler != nil {
			sampler = detector.NewSampler(*r.opts.sampler)
		}
		r.tracer = detector.NewWithSampler(threads+1, sampler)
		run.tracer = r.tracer
	}

	ready := make(chan error, threads)
	spawned, err := r.spawnAll(run, threads, iterations, ready)
	for i := 0; i < spawned; i++ {
		if werr := <-ready; werr != nil && err == nil {
			err = errors.Wrapf(ErrSpawn, "worker: %v", werr)
		}
	}
	if err != nil {
		r.abort(run, spawned, threads)
		return res, err
	}

	cpuBefore := r.sampleCPU()
	var runnerCtx *goroutine.Context
	if r.tracer != nil {
		runnerCtx = r.tracer.Participant(0)
		r.tracer.OnBroadcast(runnerCtx, detector.ObjStart)
	}
	begin := time.Now()
	run.start.Release()
	r.transition(Running)

	r.transition(Draining)
	run.done.Wait()
	res.Duration = time.Since(begin)
	if cpuBefore >= 0 {
		if after := r.sampleCPU(); after >= cpuBefore {
			res.CPUTime = after - cpuBefore
		}
	}

	if r.tracer != nil {
		r.tracer.OnAcquire(runnerCtx, detector.ObjCompletion)
		r.tracer.OnRead(runnerCtx)
	}
	res.FinalCount = r.counter.Load()
	res.Passed = res.FinalCount == res.ExpectedCount
	if r.tracer != nil {
		st := r.tracer.Stats()
		res.Races = st.Races
		res.EarlyAccesses = st.EarlyAccesses
	}
	r.transition(Completed)

	if !res.Passed {
		glog.Warningf("Lock safety violated: %v", res.Err())
	}
	if glog.V(1) {
		glog.Infof("%s: %d threads x %d iterations = %d in %s",
			res.Strategy, threads, iterations, res.FinalCount, res.Duration)
	}
	metrics.RecordRun(context.Background(), metrics.Run{
		Strategy:  res.Strategy.String(),
		Passed:    res.Passed,
		LatencyMs: float64(res.Duration) / float64(time.Millisecond),
		Races:     res.Races,
	})
	return res, nil
}

// spawnAll starts workers in index order and stops at the first failure.
// It returns the number of workers started.
func (r *Runner) spawnAll(run *shared, threads, iterations int, ready chan<- error) (int, error) {
	for i := 0; i < threads; i++ {
		w := &worker{
			index:      i,
			iterations: iterations,
			pin:        r.opts.pin,
			run:        run,
		}
		if err := r.opts.spawn(i, func() { w.main(ready) }); err != nil {
			return i, errors.Wrapf(ErrSpawn, "worker %d of %d: %v", i, threads, err)
		}
	}
	return threads, nil
}

// abort releases the already spawned workers with the abort flag set, fills
// the slots of workers that never started and drains the completion barrier.
func (r *Runner) abort(run *shared, spawned, threads int) {
	run.aborted.Store(true)
	run.start.Release()
	for i := spawned; i < threads; i++ {
		if err := run.done.Signal(i); err != nil {
			glog.Errorf("while draining slot %d: %v", i, err)
		}
	}
	run.done.Wait()
	r.transition(Failed)
}

func (r *Runner) sampleCPU() time.Duration {
	if r.opts.cpu == nil {
		return -1
	}
	d, err := r.opts.cpu.CPUTime()
	if err != nil {
		glog.V(1).Infof("CPU sampling failed: %v", err)
		return -1
	}
	return d
}
