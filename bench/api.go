// Package bench provides the public API of the lock benchmark harness.
//
// See doc.go for detailed documentation and examples.
package bench

import (
	"github.com/kolkov/lockbench/internal/bench/runner"
	"github.com/kolkov/lockbench/internal/bench/strategy"
	"github.com/kolkov/lockbench/internal/bench/suite"
	"github.com/kolkov/lockbench/internal/race/detector"
)

// Result is the outcome of one run.
type Result = runner.RunResult

// Kind identifies an exclusion strategy.
type Kind = strategy.Kind

// Strategy kinds.
const (
	Spin      = strategy.Spin
	Mutex     = strategy.Mutex
	Unguarded = strategy.Unguarded
)

// Errors returned by Run and reported by Result.Err.
var (
	ErrCorrectnessViolation = runner.ErrCorrectnessViolation
	ErrInvalidParams        = runner.ErrInvalidParams
	ErrSpawn                = runner.ErrSpawn
	ErrUnknownKind          = strategy.ErrUnknownKind
)

// RaceReport describes one unordered pair of counter accesses found by the
// happens-before checker.
type RaceReport = detector.Report

// Option configures a run.
type Option = runner.Option

// WithTracing enables the happens-before checker for the run.
//
// Every lock, barrier and counter event is recorded, and Result.Races counts
// counter accesses that were not ordered by synchronization. Tracing
// serializes event recording and slows the run down considerably.
func WithTracing() Option {
	return runner.WithTracing(true)
}

// WithPinning pins every worker to its own OS thread and logical CPU.
// Linux only; on other platforms Run fails with ErrSpawn.
func WithPinning() Option {
	return runner.WithPinning(true)
}

// ParseKind converts a strategy name ("spin", "mutex", "unguarded" or an
// alias such as "spinlock") into a Kind.
func ParseKind(name string) (Kind, error) {
	return strategy.ParseKind(name)
}

// Run executes one run: threads workers, each incrementing a shared counter
// iterations times under a fresh strategy of the given kind.
//
// Parameters:
//   - kind: the exclusion strategy
//   - threads: number of workers, at least 1
//   - iterations: increments per worker, at least 1
//
// Returns the result and an error only if the run could not be carried out.
// A wrong final count is reported via Result.Passed and Result.Err.
//
// Example:
//
//	res, err := bench.Run(bench.Spin, 16, 512)
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(res.FinalCount) // 8192
func Run(kind Kind, threads, iterations int, opts ...Option) (Result, error) {
	s, err := strategy.New(kind)
	if err != nil {
		return Result{}, err
	}
	return runner.New(opts...).Run(s, threads, iterations)
}

// RunTraced is Run with tracing enabled. It also returns the race reports,
// one per race type and pair of participants, in detection order.
func RunTraced(kind Kind, threads, iterations int) (Result, []*RaceReport, error) {
	s, err := strategy.New(kind)
	if err != nil {
		return Result{}, nil, err
	}
	r := runner.New(runner.WithTracing(true))
	res, err := r.Run(s, threads, iterations)
	if err != nil {
		return res, nil, err
	}
	return res, r.Tracer().Reports(), nil
}

// RunSuite runs the reference benchmark: SpinLock then BlockingMutex, each
// with 16 workers x 512 increments. Results are returned in that order.
func RunSuite() ([]Result, error) {
	return suite.Run(suite.DefaultConfig())
}
