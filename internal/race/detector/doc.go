// Package detector checks that every access to the shared counter of a
// benchmark run is ordered by happens-before.
//
// It is a FastTrack-style checker specialised to a single watched variable:
// the counter has a last-write epoch and a last-read epoch that is promoted
// to a vector clock when reads become concurrent. Synchronization events
// (lock acquire/release, start barrier broadcast/observe, completion signal
// and join) move vector clocks between participants through syncshadow.
//
// # Determinism
//
// A lost update only shows up in the final count when two read-modify-write
// sequences actually interleave. An access that is not ordered by the
// recorded synchronization is reported on every run, regardless of
// scheduling.
//
// # Example Usage
//
//	d := detector.New(workers + 1)
//	runner := d.Participant(0)
//	d.OnBroadcast(runner, detector.ObjStart)
//	// worker side
//	w := d.Participant(1)
//	d.OnAcquire(w, detector.ObjStart)
//	d.OnAcquire(w, detector.ObjLock)
//	d.OnRead(w)
//	d.OnWrite(w)
//	d.OnRelease(w, detector.ObjLock)
//
// All methods are safe for concurrent calls; each Context must only be used
// by the goroutine that owns it.
package detector
