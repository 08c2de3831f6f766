package goroutine

import (
	"github.com/kolkov/lockbench/internal/race/epoch"
	"github.com/kolkov/lockbench/internal/race/vectorclock"
)

// Context represents the checker state for a single participant.
//
// Invariant: Epoch == epoch.New(TID, C[TID]). IncrementClock and Join keep
// the cache in sync.
type Context struct {
	// TID is the participant ID.
	TID uint16

	// C is the participant's vector clock.
	C vectorclock.VectorClock

	// Epoch is the cached epoch for this participant.
	Epoch epoch.Epoch
}

// Alloc creates a Context for participant tid in a run of width participants.
//
// The participant's own clock starts at 1 so that its first access never
// collides with epoch.Zero, the "never accessed" marker.
//
// Example:
//
//	ctx := Alloc(3, 17)
//	// ctx.C[3] = 1, every other entry 0, ctx.Epoch = 1@3
func Alloc(tid uint16, width int) *Context {
	if int(tid) >= width {
		width = int(tid) + 1
	}
	ctx := &Context{
		TID: tid,
		C:   vectorclock.New(width),
	}
	ctx.C.Set(tid, 1)
	ctx.Epoch = epoch.New(tid, 1)
	return ctx
}

// IncrementClock advances the participant's logical clock.
func (c *Context) IncrementClock() {
	c.C.Increment(c.TID)
	c.Epoch = epoch.New(c.TID, c.C.Get(c.TID))
}

// Join merges other into the participant's clock.
//
// The own entry never decreases, so the epoch cache stays valid; it is
// refreshed anyway to keep the invariant obvious.
func (c *Context) Join(other vectorclock.VectorClock) {
	c.C.Join(other)
	c.Epoch = epoch.New(c.TID, c.C.Get(c.TID))
}

// GetEpoch returns the cached epoch.
func (c *Context) GetEpoch() epoch.Epoch {
	return c.Epoch
}
