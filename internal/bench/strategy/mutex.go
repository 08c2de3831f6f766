package strategy

import "sync"

// BlockingMutex wraps sync.Mutex. A contended Acquire parks the goroutine
// until the holder releases.
type BlockingMutex struct {
	mu sync.Mutex
}

// NewBlockingMutex returns an unlocked BlockingMutex.
func NewBlockingMutex() *BlockingMutex {
	return &BlockingMutex{}
}

// Acquire implements Strategy.
func (m *BlockingMutex) Acquire() { m.mu.Lock() }

// Release implements Strategy.
func (m *BlockingMutex) Release() { m.mu.Unlock() }

// Kind implements Strategy.
func (m *BlockingMutex) Kind() Kind { return Mutex }

// NoLock is the absence of a lock. It is only useful to check that the
// harness detects lost updates.
type NoLock struct{}

// NewNoLock returns the no-op strategy.
func NewNoLock() NoLock { return NoLock{} }

// Acquire implements Strategy.
func (NoLock) Acquire() {}

// Release implements Strategy.
func (NoLock) Release() {}

// Kind implements Strategy.
func (NoLock) Kind() Kind { return Unguarded }
