package runner

import (
	"time"

	"github.com/pkg/errors"

	"github.com/kolkov/lockbench/internal/bench/strategy"
)

var (
	// ErrCorrectnessViolation means the final count differs from
	// threads * iterations: the strategy failed to serialize increments.
	ErrCorrectnessViolation = errors.New("correctness violation")
	// ErrInvalidParams is returned for a nil strategy or non-positive sizes.
	ErrInvalidParams = errors.New("invalid run parameters")
	// ErrSpawn is returned when a worker could not be started.
	ErrSpawn = errors.New("worker spawn failed")
)

// RunResult is the outcome of one run.
type RunResult struct {
	Strategy      strategy.Kind `json:"strategy"`
	Threads       int           `json:"threads"`
	Iterations    int           `json:"iterations"`
	FinalCount    int64         `json:"final_count"`
	ExpectedCount int64         `json:"expected_count"`
	Passed        bool          `json:"passed"`

	// Duration is the wall-clock time from the start barrier firing until
	// the completion barrier opened.
	Duration time.Duration `json:"duration_ns"`
	// CPUTime is the process user+system CPU time consumed over the same
	// window, or zero if the sampler failed.
	CPUTime time.Duration `json:"cpu_time_ns"`

	// Races is the number of unique races found by the happens-before
	// checker; always zero without tracing.
	Races int `json:"races"`
	// EarlyAccesses counts counter accesses the checker saw before the
	// start barrier fired; always zero without tracing. Anything other than
	// zero is a harness bug.
	EarlyAccesses int `json:"early_accesses"`
}

// Err returns a wrapped ErrCorrectnessViolation if the run did not pass.
func (r RunResult) Err() error {
	if r.Passed {
		return nil
	}
	return errors.Wrapf(ErrCorrectnessViolation,
		"%s: final count %d, expected %d (%d threads x %d iterations)",
		r.Strategy, r.FinalCount, r.ExpectedCount, r.Threads, r.Iterations)
}

// OpsPerSecond returns increments per second of wall-clock time.
func (r RunResult) OpsPerSecond() float64 {
	if r.Duration <= 0 {
		return 0
	}
	return float64(r.ExpectedCount) / r.Duration.Seconds()
}
