package detector

import (
	"sync"

	"github.com/golang/glog"

	"github.com/kolkov/lockbench/internal/race/epoch"
	"github.com/kolkov/lockbench/internal/race/goroutine"
	"github.com/kolkov/lockbench/internal/race/syncshadow"
	"github.com/kolkov/lockbench/internal/race/vectorclock"
)

// Names of the synchronization objects of a run.
const (
	ObjLock       = "lock"
	ObjStart      = "start"
	ObjCompletion = "completion"
)

// Stats summarises what the detector saw during a run.
type Stats struct {
	Reads         uint64 // Counter reads checked.
	Writes        uint64 // Counter writes checked.
	Skipped       uint64 // Accesses skipped by the sampler.
	Promotions    uint64 // Read epoch → vector clock promotions.
	Races         int    // Unique races reported.
	EarlyAccesses int    // Accesses recorded before the start barrier fired.
	SyncObjects   int    // Distinct synchronization objects seen.
}

// varState is the FastTrack access history of the counter.
type varState struct {
	w epoch.Epoch // last write

	// r is the last read epoch while reads are totally ordered.
	r epoch.Epoch
	// rvc replaces r once two reads are concurrent (read-shared).
	rvc vectorclock.VectorClock
}

// Detector records synchronization and counter access events for one run.
type Detector struct {
	width   int
	shadow  *syncshadow.Shadow
	sampler *Sampler

	mu       sync.Mutex
	counter  varState
	started  bool
	stats    Stats
	reported map[string]struct{}
	reports  []*Report
}

// New creates a detector for a run with width participants (runner + workers).
func New(width int) *Detector {
	return NewWithSampler(width, nil)
}

// NewWithSampler creates a detector that checks only the counter accesses
// selected by s. Synchronization events are always recorded. A nil sampler
// checks every access.
func NewWithSampler(width int, s *Sampler) *Detector {
	if s == nil {
		s = NewSampler(SamplerConfig{})
	}
	return &Detector{
		width:    width,
		shadow:   syncshadow.New(),
		sampler:  s,
		reported: make(map[string]struct{}),
	}
}

// Width returns the number of participants the detector was sized for.
func (d *Detector) Width() int {
	return d.width
}

// Participant allocates the context for participant tid.
func (d *Detector) Participant(tid uint16) *goroutine.Context {
	return goroutine.Alloc(tid, d.width)
}

// OnAcquire records that ctx acquired obj: Ct := Ct ⊔ Lm; Ct[t]++.
//
// Must be called after the real acquire returned.
func (d *Detector) OnAcquire(ctx *goroutine.Context, obj string) {
	d.shadow.Do(obj, func(sv *syncshadow.SyncVar) {
		if rc := sv.ReleaseClock(); rc != nil {
			ctx.Join(rc)
		}
	})
	ctx.IncrementClock()
}

// OnRelease records that ctx released obj: Lm := Ct; Ct[t]++.
//
// Must be called before the real release.
func (d *Detector) OnRelease(ctx *goroutine.Context, obj string) {
	d.shadow.Do(obj, func(sv *syncshadow.SyncVar) {
		sv.SetReleaseClock(ctx.C)
	})
	ctx.IncrementClock()
}

// OnMerge records a fan-in release: Lm := Lm ⊔ Ct; Ct[t]++.
//
// Used for completion signals, where many workers release the same object
// and a single observer joins it.
func (d *Detector) OnMerge(ctx *goroutine.Context, obj string) {
	d.shadow.Do(obj, func(sv *syncshadow.SyncVar) {
		sv.MergeReleaseClock(ctx.C)
	})
	ctx.IncrementClock()
}

// OnBroadcast records the start barrier firing. Accesses recorded before it
// are counted as early.
func (d *Detector) OnBroadcast(ctx *goroutine.Context, obj string) {
	d.mu.Lock()
	d.started = true
	d.mu.Unlock()
	d.OnRelease(ctx, obj)
}

// OnRead checks a read of the counter by ctx.
//
// [FT READ]: the last write must happen-before the read, otherwise a
// write-read race is reported.
func (d *Detector) OnRead(ctx *goroutine.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.access() {
		return
	}
	d.stats.Reads++
	cur := ctx.GetEpoch()
	_, clock := cur.Decode()
	vs := &d.counter

	if !vs.w.HappensBefore(ctx.C) {
		d.report(RaceTypeWriteRead, vs.w, cur)
	}

	switch {
	case vs.rvc != nil:
		vs.rvc.Set(ctx.TID, clock)
	case vs.r.HappensBefore(ctx.C):
		vs.r = cur
	default:
		// Concurrent reads: promote to a vector clock holding both.
		d.stats.Promotions++
		vs.rvc = vectorclock.New(d.width)
		prevTID, prevClock := vs.r.Decode()
		vs.rvc.Set(prevTID, prevClock)
		vs.rvc.Set(ctx.TID, clock)
	}
	ctx.IncrementClock()
}

// OnWrite checks a write of the counter by ctx.
//
// [FT WRITE]: the last write and every read since must happen-before the
// write. A successful write dominates all previous reads, so read state is
// cleared and demoted back to an epoch.
func (d *Detector) OnWrite(ctx *goroutine.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.access() {
		return
	}
	d.stats.Writes++
	cur := ctx.GetEpoch()
	vs := &d.counter

	if !vs.w.HappensBefore(ctx.C) {
		d.report(RaceTypeWriteWrite, vs.w, cur)
	}
	if vs.rvc != nil {
		if !vs.rvc.LessOrEqual(ctx.C) {
			d.report(RaceTypeReadWrite, d.concurrentReader(vs.rvc, ctx), cur)
		}
	} else if !vs.r.HappensBefore(ctx.C) {
		d.report(RaceTypeReadWrite, vs.r, cur)
	}

	vs.w = cur
	vs.r = epoch.Zero
	vs.rvc = nil
	ctx.IncrementClock()
}

// access does the per-access bookkeeping. Caller holds d.mu.
func (d *Detector) access() bool {
	if !d.started {
		d.stats.EarlyAccesses++
	}
	if !d.sampler.ShouldSample() {
		d.stats.Skipped++
		return false
	}
	return true
}

// concurrentReader picks a read out of rvc that is not ordered before ctx.
func (d *Detector) concurrentReader(rvc vectorclock.VectorClock, ctx *goroutine.Context) epoch.Epoch {
	for i, c := range rvc {
		if c > ctx.C.Get(uint16(i)) {
			return epoch.New(uint16(i), c)
		}
	}
	return epoch.Zero
}

// report records a race once per (type, participant pair). Caller holds d.mu.
func (d *Detector) report(raceType string, prev, cur epoch.Epoch) {
	r := NewReport(raceType, prev, cur)
	if _, dup := d.reported[r.DeduplicationKey]; dup {
		return
	}
	d.reported[r.DeduplicationKey] = struct{}{}
	d.reports = append(d.reports, r)
	d.stats.Races++
	if glog.V(1) {
		glog.Warningf("data race on counter: %s", r.Summary())
	}
}

// RacesDetected returns the number of unique races reported.
func (d *Detector) RacesDetected() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats.Races
}

// Reports returns the recorded race reports in detection order.
func (d *Detector) Reports() []*Report {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*Report, len(d.reports))
	copy(out, d.reports)
	return out
}

// Stats returns a snapshot of the detector statistics.
func (d *Detector) Stats() Stats {
	d.mu.Lock()
	st := d.stats
	d.mu.Unlock()
	st.SyncObjects = d.shadow.Len()
	return st
}
