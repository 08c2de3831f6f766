package runner

import (
	"sync/atomic"

	"github.com/golang/glog"

	"github.com/kolkov/lockbench/internal/affinity"
	"github.com/kolkov/lockbench/internal/bench/barrier"
	"github.com/kolkov/lockbench/internal/bench/strategy"
	"github.com/kolkov/lockbench/internal/race/detector"
	"github.com/kolkov/lockbench/internal/race/goroutine"
)

// shared is the per-run state every worker of a run points to.
type shared struct {
	start    *barrier.Start
	done     *barrier.Completion
	counter  *Counter
	strategy strategy.Strategy
	tracer   *detector.Detector

	// aborted is set before the start barrier fires when spawning failed;
	// released workers then exit without touching the counter.
	aborted atomic.Bool
}

// worker increments the counter a fixed number of times. Workers are used
// for exactly one run.
type worker struct {
	index      int
	iterations int
	pin        bool
	run        *shared
}

// main is the worker goroutine body. It reports readiness (or a pinning
// failure) on ready before waiting for the start barrier.
func (w *worker) main(ready chan<- error) {
	if w.pin {
		if err := affinity.Pin(w.index); err != nil {
			ready <- err
			w.signal()
			return
		}
	}
	ready <- nil

	w.run.start.Wait()

	var ctx *goroutine.Context
	tr := w.run.tracer
	if tr != nil {
		ctx = tr.Participant(uint16(w.index + 1))
		tr.OnAcquire(ctx, detector.ObjStart)
	}
	if !w.run.aborted.Load() {
		w.increment(ctx)
	}
	if tr != nil {
		tr.OnMerge(ctx, detector.ObjCompletion)
	}
	w.signal()
}

func (w *worker) increment(ctx *goroutine.Context) {
	var (
		s         = w.run.strategy
		c         = w.run.counter
		tr        = w.run.tracer
		exclusive = s.Kind().Exclusive()
	)
	if glog.V(2) {
		glog.Infof("worker %d: %d increments under %s", w.index, w.iterations, s.Kind())
	}
	for i := 0; i < w.iterations; i++ {
		s.Acquire()
		if tr != nil {
			if exclusive {
				tr.OnAcquire(ctx, detector.ObjLock)
			}
			tr.OnRead(ctx)
		}
		v := c.Load()
		if tr != nil {
			tr.OnWrite(ctx)
		}
		c.Store(v + 1)
		if tr != nil && exclusive {
			tr.OnRelease(ctx, detector.ObjLock)
		}
		s.Release()
	}
}

func (w *worker) signal() {
	if err := w.run.done.Signal(w.index); err != nil {
		glog.Errorf("worker %d: %v", w.index, err)
	}
}
