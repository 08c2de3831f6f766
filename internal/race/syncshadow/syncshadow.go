package syncshadow

import (
	"sync"

	"github.com/kolkov/lockbench/internal/race/vectorclock"
)

// SyncVar holds the release clock of one synchronization object.
//
// Thread Safety: NOT thread-safe on its own; Shadow serializes access.
type SyncVar struct {
	// releaseClock is nil until the first release.
	releaseClock vectorclock.VectorClock

	// releases counts Set/Merge calls, used for reporting.
	releases uint64
}

// ReleaseClock returns the release clock, or nil if never released.
func (sv *SyncVar) ReleaseClock() vectorclock.VectorClock {
	return sv.releaseClock
}

// Releases returns how many times the object was released.
func (sv *SyncVar) Releases() uint64 {
	return sv.releases
}

// SetReleaseClock copies clock into the release clock (Lm := Ct).
func (sv *SyncVar) SetReleaseClock(clock vectorclock.VectorClock) {
	sv.releaseClock = sv.releaseClock.CopyFrom(clock)
	sv.releases++
}

// MergeReleaseClock joins clock into the release clock (Lm := Lm ⊔ Ct).
func (sv *SyncVar) MergeReleaseClock(clock vectorclock.VectorClock) {
	if sv.releaseClock == nil {
		sv.releaseClock = clock.Clone()
	} else {
		sv.releaseClock.Join(clock)
	}
	sv.releases++
}

// Shadow maps object names to their SyncVar.
//
// All participants of a run share one Shadow. The mutex only protects the
// map; ordering between participants is derived from the recorded clocks.
type Shadow struct {
	mu   sync.Mutex
	vars map[string]*SyncVar
}

// New creates an empty Shadow.
func New() *Shadow {
	return &Shadow{vars: make(map[string]*SyncVar)}
}

// Do runs fn with the SyncVar for name, creating it on first use.
func (s *Shadow) Do(name string, fn func(sv *SyncVar)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sv, ok := s.vars[name]
	if !ok {
		sv = &SyncVar{}
		s.vars[name] = sv
	}
	fn(sv)
}

// Len returns the number of objects seen so far.
func (s *Shadow) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.vars)
}
