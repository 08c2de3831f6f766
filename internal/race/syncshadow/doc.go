// Package syncshadow implements shadow state for synchronization objects.
//
// Every synchronization object of a benchmark run (the exclusion lock, the
// start barrier, the completion barrier) has a SyncVar holding the vector clock
// published by its last release:
//
//	Acquire(m):  Ct := Ct ⊔ Lm  (participant clock joins object clock)
//	             Ct[t]++
//
//	Release(m):  Lm := Ct        (object clock = participant clock)
//	             Ct[t]++
//
//	Merge(m):    Lm := Lm ⊔ Ct   (fan-in: several releasers, one observer)
//	             Ct[t]++
//
// Objects are identified by name rather than address so that the checker
// never has to take the address of the lock under test.
package syncshadow
