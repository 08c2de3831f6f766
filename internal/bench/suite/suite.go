// Package suite runs the reference benchmark: one SpinLock run followed by
// one BlockingMutex run with the same worker count and iteration count.
package suite

import (
	"context"
	"math"
	"runtime"
	"sync"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/kolkov/lockbench/internal/bench/runner"
	"github.com/kolkov/lockbench/internal/bench/strategy"
)

const (
	// DefaultThreads is the reference worker count.
	DefaultThreads = 16
	// DefaultIterations is the reference per-worker increment count.
	DefaultIterations = 512
)

// Config parameterizes a suite or trial series.
type Config struct {
	Threads    int
	Iterations int
	// Parallel bounds the number of concurrent trials. Zero means GOMAXPROCS.
	Parallel int
	Trace    bool
	Pin      bool
}

// DefaultConfig returns the reference parameters.
func DefaultConfig() Config {
	return Config{
		Threads:    DefaultThreads,
		Iterations: DefaultIterations,
	}
}

func (c Config) options() []runner.Option {
	return []runner.Option{
		runner.WithTracing(c.Trace),
		runner.WithPinning(c.Pin),
	}
}

// Run executes one run per exclusive strategy, SpinLock first, and returns
// the results in that order. A run that fails to spawn stops the suite; a
// count mismatch does not.
func Run(cfg Config) ([]runner.RunResult, error) {
	results := make([]runner.RunResult, 0, len(strategy.Kinds))
	for _, k := range strategy.Kinds {
		s, err := strategy.New(k)
		if err != nil {
			return results, err
		}
		res, err := runner.New(cfg.options()...).Run(s, cfg.Threads, cfg.Iterations)
		if err != nil {
			return results, errors.Wrapf(err, "while running %s", k)
		}
		glog.Infof("%s: final count = %d, expected = %d", k, res.FinalCount, res.ExpectedCount)
		results = append(results, res)
	}
	return results, nil
}

// Passed reports whether every result passed.
func Passed(results []runner.RunResult) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}

// TrialSummary aggregates repeated runs of one strategy.
type TrialSummary struct {
	Strategy strategy.Kind `json:"strategy"`
	Runs     int           `json:"runs"`
	Failures int           `json:"failures"`
	Expected int64         `json:"expected"`
	MinCount int64         `json:"min_count"`
	MaxCount int64         `json:"max_count"`
	Races    int           `json:"races"`
}

// FailureRate returns Failures/Runs.
func (s TrialSummary) FailureRate() float64 {
	if s.Runs == 0 {
		return 0
	}
	return float64(s.Failures) / float64(s.Runs)
}

func (s *TrialSummary) add(r runner.RunResult) {
	s.Runs++
	if !r.Passed {
		s.Failures++
	}
	s.MinCount = min(s.MinCount, r.FinalCount)
	s.MaxCount = max(s.MaxCount, r.FinalCount)
	s.Races += r.Races
}

// Trials repeats a run of kind n times. Every trial gets its own Runner and
// strategy; at most cfg.Parallel trials run at once. The first spawn error
// cancels the remaining trials and is returned.
func Trials(parent context.Context, cfg Config, kind strategy.Kind, n int) (TrialSummary, error) {
	sum := TrialSummary{
		Strategy: kind,
		Expected: int64(cfg.Threads) * int64(cfg.Iterations),
		MinCount: math.MaxInt64,
		MaxCount: math.MinInt64,
	}
	if n < 1 {
		return TrialSummary{Strategy: kind}, errors.Wrapf(runner.ErrInvalidParams, "trials=%d", n)
	}
	parallel := cfg.Parallel
	if parallel < 1 {
		parallel = runtime.GOMAXPROCS(0)
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(parent)
	g.SetLimit(parallel)
	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			s, err := strategy.New(kind)
			if err != nil {
				return err
			}
			res, err := runner.New(cfg.options()...).Run(s, cfg.Threads, cfg.Iterations)
			if err != nil {
				return err
			}
			mu.Lock()
			sum.add(res)
			mu.Unlock()
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = parent.Err()
	}
	if err != nil {
		return sum, errors.Wrapf(err, "while running %s trials", kind)
	}
	glog.Infof("%s: %d trials, %d failures, counts in [%d, %d], expected %d",
		kind, sum.Runs, sum.Failures, sum.MinCount, sum.MaxCount, sum.Expected)
	return sum, nil
}
