package strategy

import (
	"runtime"
	"sync/atomic"
)

// spinsBeforeYield is the number of failed attempts between two
// runtime.Gosched calls. With more workers than GOMAXPROCS the holder may be
// waiting for a P, so waiters must yield now and then.
const spinsBeforeYield = 64

// SpinLock is a test-and-test-and-set lock.
//
// Acquire never parks the goroutine on a runtime semaphore: it loads the
// flag until it looks free, then tries to claim it with a CAS. The CAS
// (acquire) and the atomic store in Release (release) are the
// synchronization edge between consecutive holders.
//
// Keep the critical section short and free of blocking calls; a waiter
// burns a core for as long as the lock is held.
type SpinLock struct {
	state uint32
	_     [60]byte // keep the flag on its own cache line
}

// NewSpinLock returns an unlocked SpinLock.
func NewSpinLock() *SpinLock {
	return &SpinLock{}
}

// Acquire spins until the lock is claimed.
func (l *SpinLock) Acquire() {
	spins := 0
	for {
		if atomic.LoadUint32(&l.state) == 0 && atomic.CompareAndSwapUint32(&l.state, 0, 1) {
			return
		}
		spins++
		if spins%spinsBeforeYield == 0 {
			runtime.Gosched()
		}
	}
}

// TryAcquire claims the lock if it is free and reports whether it did.
func (l *SpinLock) TryAcquire() bool {
	return atomic.CompareAndSwapUint32(&l.state, 0, 1)
}

// Release frees the lock. Releasing an unheld lock is a no-op.
func (l *SpinLock) Release() {
	atomic.StoreUint32(&l.state, 0)
}

// Kind implements Strategy.
func (l *SpinLock) Kind() Kind { return Spin }
