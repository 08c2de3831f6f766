// Package bench runs concurrent-increment benchmarks that check mutual
// exclusion primitives for correctness.
//
// A run starts a fixed pool of workers. Each worker waits on a shared start
// barrier, then increments one shared counter a fixed number of times, taking
// the exclusion strategy around every read-increment-write, and finally
// signals its own slot of a completion barrier. Once every slot is signaled
// the counter must equal threads * iterations exactly.
//
// # Quick Start
//
//	results, err := bench.RunSuite()
//	if err != nil {
//		log.Fatal(err)
//	}
//	for _, r := range results {
//		fmt.Println(r.Strategy, r.FinalCount, r.Passed)
//	}
//
// # Strategies
//
//   - [Spin]: busy-waits on an atomic compare-and-swap, yielding the
//     processor only after a burst of failed attempts.
//   - [Mutex]: sync.Mutex; waiters are parked by the scheduler.
//   - [Unguarded]: no exclusion. Used to show that the harness detects lost
//     updates; never part of [RunSuite].
//
// # Happens-before checking
//
// A correct final count does not prove the lock is correct: a broken lock
// can get lucky. [WithTracing] records every synchronization event and
// counter access in a FastTrack vector-clock checker, which reports any
// counter access not ordered after the previous one. This is deterministic:
// an unguarded run with two or more workers is always reported, whatever
// the final count.
//
// # Errors
//
// [Run] returns [ErrInvalidParams] for a non-positive worker or iteration
// count and [ErrSpawn] when a worker could not be started. In the latter case
// no worker touches the counter and the run is abandoned; the worker count is
// never silently reduced. A count mismatch is not an error of [Run]; use
// [Result].Err, which wraps [ErrCorrectnessViolation].
//
// There is no timeout: a strategy that never grants access hangs the run.
package bench
