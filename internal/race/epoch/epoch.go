// Package epoch implements compact logical timestamps for the happens-before checker.
//
// Epoch represents a single participant's logical time as a 64-bit value:
//   - Top 16 bits: participant ID (0 is the runner, 1..N are workers)
//   - Bottom 48 bits: clock value
//
// Most checks compare one epoch against a vector clock, which is O(1).
package epoch

import (
	"strconv"

	"github.com/kolkov/lockbench/internal/race/vectorclock"
)

// Epoch is a 64-bit logical timestamp encoding both participant ID and clock.
// Layout: [TID:16][Clock:48]
type Epoch uint64

const (
	// TIDBits is the number of bits allocated for the participant ID.
	TIDBits = 16

	// ClockBits is the number of bits allocated for the clock value.
	ClockBits = 48

	// ClockMask extracts the clock value.
	ClockMask = (uint64(1) << ClockBits) - 1
)

// Zero is the epoch of an access that never happened.
const Zero Epoch = 0

// New creates an epoch from participant ID and clock value.
// Clock values beyond 48 bits are truncated.
func New(tid uint16, clock uint64) Epoch {
	return Epoch(uint64(tid)<<ClockBits | (clock & ClockMask))
}

// Decode extracts the participant ID and clock value from an epoch.
func (e Epoch) Decode() (tid uint16, clock uint64) {
	tid = uint16(uint64(e) >> ClockBits)
	clock = uint64(e) & ClockMask
	return
}

// TID returns the participant ID.
func (e Epoch) TID() uint16 {
	tid, _ := e.Decode()
	return tid
}

// HappensBefore reports whether this epoch is ordered before vc.
//
// Returns true if epoch's clock <= vc[epoch's TID]. The zero epoch happens
// before everything.
func (e Epoch) HappensBefore(vc vectorclock.VectorClock) bool {
	if e == Zero {
		return true
	}
	tid, clock := e.Decode()
	return clock <= vc.Get(tid)
}

// String returns "clock@tid", e.g. "42@5".
func (e Epoch) String() string {
	tid, clock := e.Decode()
	return strconv.FormatUint(clock, 10) + "@" + strconv.Itoa(int(tid))
}
