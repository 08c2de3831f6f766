// Package strategy provides the interchangeable mutual-exclusion strategies
// compared by the benchmark.
//
// Every Strategy guards the same critical section, a read-increment-write of
// the shared counter:
//
//	s.Acquire()
//	v := counter
//	counter = v + 1
//	s.Release()
//
// SpinLock busy-waits on an atomic flag; BlockingMutex parks the goroutine
// on sync.Mutex. Both publish the previous holder's writes to the next
// holder. Unguarded does nothing and exists to prove the harness can see
// lost updates.
package strategy
