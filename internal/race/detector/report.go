package detector

import (
	"fmt"
	"io"
	"strings"

	"github.com/kolkov/lockbench/internal/race/epoch"
)

// AccessType represents the type of counter access (Read or Write).
type AccessType int

const (
	// AccessRead indicates a read of the counter.
	AccessRead AccessType = iota
	// AccessWrite indicates a write of the counter.
	AccessWrite
)

// String returns the string representation of an AccessType.
func (a AccessType) String() string {
	switch a {
	case AccessRead:
		return "Read"
	case AccessWrite:
		return "Write"
	default:
		return "Unknown"
	}
}

// Race type constants for deduplication and reporting.
const (
	// RaceTypeWriteWrite indicates a write-write data race.
	RaceTypeWriteWrite = "write-write"
	// RaceTypeReadWrite indicates a read followed by an unordered write.
	RaceTypeReadWrite = "read-write"
	// RaceTypeWriteRead indicates a write followed by an unordered read.
	RaceTypeWriteRead = "write-read"
)

// AccessInfo describes one side of a race.
type AccessInfo struct {
	Type   AccessType
	Worker uint16 // participant ID; 0 is the runner
	Epoch  epoch.Epoch
}

// Report represents a race between two accesses to the counter.
type Report struct {
	Type     string
	Current  AccessInfo
	Previous AccessInfo

	// DeduplicationKey is "{type}:{tid1}:{tid2}" with tid1 <= tid2, so a race
	// between workers A and B is reported once regardless of who saw it.
	DeduplicationKey string
}

// NewReport builds a report for raceType between prev and cur.
func NewReport(raceType string, prev, cur epoch.Epoch) *Report {
	r := &Report{
		Type:     raceType,
		Current:  AccessInfo{Worker: cur.TID(), Epoch: cur},
		Previous: AccessInfo{Worker: prev.TID(), Epoch: prev},
	}
	switch raceType {
	case RaceTypeWriteWrite:
		r.Current.Type, r.Previous.Type = AccessWrite, AccessWrite
	case RaceTypeReadWrite:
		r.Current.Type, r.Previous.Type = AccessWrite, AccessRead
	case RaceTypeWriteRead:
		r.Current.Type, r.Previous.Type = AccessRead, AccessWrite
	}
	r.DeduplicationKey = dedupKey(raceType, r.Previous.Worker, r.Current.Worker)
	return r
}

func dedupKey(raceType string, a, b uint16) string {
	return fmt.Sprintf("%s:%d:%d", raceType, min(a, b), max(a, b))
}

// Summary returns a one-line description, e.g.
// "write-write: Write by worker 3 [12@3] vs previous Write by worker 1 [9@1]".
func (r *Report) Summary() string {
	return fmt.Sprintf("%s: %s by %s [%s] vs previous %s by %s [%s]",
		r.Type,
		r.Current.Type, participant(r.Current.Worker), r.Current.Epoch,
		r.Previous.Type, participant(r.Previous.Worker), r.Previous.Epoch)
}

func participant(tid uint16) string {
	if tid == 0 {
		return "runner"
	}
	return fmt.Sprintf("worker %d", tid)
}

// Format writes the report in the familiar race detector layout:
//
//	==================
//	WARNING: DATA RACE
//	Write of counter by worker 3:
//	  [epoch: 12@3]
//
//	Previous Write of counter by worker 1:
//	  [epoch: 9@1]
//	==================
//
//nolint:errcheck // best-effort diagnostic output
func (r *Report) Format(w io.Writer) {
	fmt.Fprintf(w, "==================\n")
	fmt.Fprintf(w, "WARNING: DATA RACE\n")
	fmt.Fprintf(w, "%s of counter by %s:\n", r.Current.Type, participant(r.Current.Worker))
	fmt.Fprintf(w, "  [epoch: %s]\n", r.Current.Epoch)
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Previous %s of counter by %s:\n", r.Previous.Type, participant(r.Previous.Worker))
	fmt.Fprintf(w, "  [epoch: %s]\n", r.Previous.Epoch)
	fmt.Fprintf(w, "==================\n")
}

// String returns the formatted report.
func (r *Report) String() string {
	var buf strings.Builder
	r.Format(&buf)
	return buf.String()
}
