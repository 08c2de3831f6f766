// Package barrier provides the two synchronization points of a benchmark
// run: a one-shot Start broadcast (fan-out) and a per-worker Completion
// barrier (fan-in).
package barrier

import (
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/zeromicro/go-zero/core/syncx"
)

var (
	// ErrSlotRange is returned when signaling a slot that does not exist.
	ErrSlotRange = errors.New("completion slot out of range")
	// ErrSlotSignaled is returned when a slot is signaled a second time.
	ErrSlotSignaled = errors.New("completion slot already signaled")
)

// Start is a one-shot broadcast. Every Wait returns once Release has been
// called; Release after the first call is a no-op.
type Start struct {
	done  *syncx.DoneChan
	fired atomic.Bool
}

// NewStart returns an unfired Start barrier.
func NewStart() *Start {
	return &Start{done: syncx.NewDoneChan()}
}

// Release fires the barrier, unblocking all current and future waiters.
func (s *Start) Release() {
	s.fired.Store(true)
	s.done.Close()
}

// Wait blocks until the barrier fires.
func (s *Start) Wait() {
	<-s.done.Done()
}

// Fired reports whether Release has been called.
func (s *Start) Fired() bool {
	return s.fired.Load()
}

// Completion is a fan-in barrier with one slot per worker.
//
// Each slot is a channel closed by Signal. Wait receives from every slot, so
// everything a worker wrote before signaling is visible to the waiter after
// Wait returns.
type Completion struct {
	slots    []chan struct{}
	signaled []atomic.Bool
	pending  atomic.Int64
}

// NewCompletion returns a barrier with n unsignaled slots.
func NewCompletion(n int) *Completion {
	c := &Completion{
		slots:    make([]chan struct{}, n),
		signaled: make([]atomic.Bool, n),
	}
	for i := range c.slots {
		c.slots[i] = make(chan struct{})
	}
	c.pending.Store(int64(n))
	return c
}

// Signal marks slot i as done. Each slot may be signaled exactly once.
func (c *Completion) Signal(i int) error {
	if i < 0 || i >= len(c.slots) {
		return errors.Wrapf(ErrSlotRange, "slot %d of %d", i, len(c.slots))
	}
	if !c.signaled[i].CompareAndSwap(false, true) {
		return errors.Wrapf(ErrSlotSignaled, "slot %d", i)
	}
	c.pending.Add(-1)
	close(c.slots[i])
	return nil
}

// Wait blocks until every slot has been signaled.
func (c *Completion) Wait() {
	for _, ch := range c.slots {
		<-ch
	}
}

// Done returns the channel of slot i, closed once the slot is signaled.
func (c *Completion) Done(i int) <-chan struct{} {
	return c.slots[i]
}

// Pending returns the number of slots not yet signaled.
func (c *Completion) Pending() int {
	return int(c.pending.Load())
}

// Len returns the number of slots.
func (c *Completion) Len() int {
	return len(c.slots)
}
