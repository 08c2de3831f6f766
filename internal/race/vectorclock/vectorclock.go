// Package vectorclock implements vector clocks for tracking happens-before relations.
//
// A benchmark run has a fixed, small set of participants (the runner plus one
// slot per worker), so clocks are dense slices sized once per run instead of
// the fixed 64K-entry arrays a general-purpose detector needs.
//
// Key operations:
//   - Join: Synchronization (point-wise maximum) - used on lock acquire and
//     barrier observation
//   - LessOrEqual: Happens-before check (partial order)
package vectorclock

import (
	"strconv"
	"strings"
)

// VectorClock represents logical time across the participants of one run.
//
// Element vc[tid] stores the clock value for participant tid. TID 0 is the
// runner; workers occupy 1..N.
//
// Example: [3 7 0 2] means runner@3, worker1@7, worker2@0, worker3@2.
type VectorClock []uint64

// New creates a zero-initialized vector clock for width participants.
func New(width int) VectorClock {
	return make(VectorClock, width)
}

// Clone creates a deep copy of the vector clock.
func (vc VectorClock) Clone() VectorClock {
	clone := make(VectorClock, len(vc))
	copy(clone, vc)
	return clone
}

// CopyFrom overwrites vc with other, growing vc if needed.
//
// Returns the (possibly reallocated) clock; callers must keep the result.
func (vc VectorClock) CopyFrom(other VectorClock) VectorClock {
	if cap(vc) < len(other) {
		vc = make(VectorClock, len(other))
	}
	vc = vc[:len(other)]
	copy(vc, other)
	return vc
}

// Join performs point-wise maximum: vc = vc ⊔ other.
//
// Used when a participant acquires a lock or observes a barrier:
// Ct := Ct ⊔ Lm. Entries of other beyond len(vc) are ignored; all clocks of
// a run share one width.
func (vc VectorClock) Join(other VectorClock) {
	n := min(len(vc), len(other))
	for i := 0; i < n; i++ {
		if other[i] > vc[i] {
			vc[i] = other[i]
		}
	}
}

// LessOrEqual checks partial order: vc ⊑ other.
//
// Returns true if vc[i] <= other[i] for all participants i. Missing entries
// in other count as zero.
func (vc VectorClock) LessOrEqual(other VectorClock) bool {
	for i, c := range vc {
		var o uint64
		if i < len(other) {
			o = other[i]
		}
		if c > o {
			return false
		}
	}
	return true
}

// HappensBefore is an alias for LessOrEqual.
func (vc VectorClock) HappensBefore(other VectorClock) bool {
	return vc.LessOrEqual(other)
}

// Increment advances the clock for participant tid.
func (vc VectorClock) Increment(tid uint16) {
	vc[tid]++
}

// Get returns the clock value for participant tid, or 0 if tid is outside
// the clock's width.
func (vc VectorClock) Get(tid uint16) uint64 {
	if int(tid) >= len(vc) {
		return 0
	}
	return vc[tid]
}

// Set sets the clock value for participant tid.
func (vc VectorClock) Set(tid uint16, clock uint64) {
	vc[tid] = clock
}

// String returns a debug representation showing only non-zero clocks.
//
// Example: "{0:3, 1:7, 3:2}".
func (vc VectorClock) String() string {
	var parts []string
	for i, c := range vc {
		if c != 0 {
			parts = append(parts, strconv.Itoa(i)+":"+strconv.FormatUint(c, 10))
		}
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
