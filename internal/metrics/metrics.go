// Package metrics defines the OpenCensus measures recorded by benchmark runs
// and exposes them to Prometheus.
package metrics

import (
	"context"
	"net/http"
	"sync"

	ocprom "contrib.go.opencensus.io/exporter/prometheus"
	"github.com/golang/glog"
	"github.com/pkg/errors"
	ostats "go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

var (
	// Runs counts completed runs.
	Runs = ostats.Int64("lockbench/runs",
		"Number of completed benchmark runs", ostats.UnitDimensionless)
	// LatencyMs records the wall-clock time of a run, start barrier to
	// completion barrier.
	LatencyMs = ostats.Float64("lockbench/latency",
		"Run latency in milliseconds", ostats.UnitMilliseconds)
	// Violations counts runs whose final count did not match the expected count.
	Violations = ostats.Int64("lockbench/violations",
		"Number of correctness violations", ostats.UnitDimensionless)
	// Races counts unsynchronized counter accesses found by the checker.
	Races = ostats.Int64("lockbench/races",
		"Number of data races reported by the happens-before checker", ostats.UnitDimensionless)

	// KeyStrategy is the exclusion strategy of a run.
	KeyStrategy = tag.MustNewKey("strategy")
	// KeyOutcome is "pass" or "fail".
	KeyOutcome = tag.MustNewKey("outcome")

	allTagKeys = []tag.Key{KeyStrategy, KeyOutcome}

	defaultLatencyMsDistribution = view.Distribution(
		0, 0.1, 0.25, 0.5, 1, 2, 4, 8, 16, 32, 64, 128, 256, 512, 1024, 2048, 4096)

	allViews = []*view.View{
		{
			Name:        Runs.Name(),
			Measure:     Runs,
			Description: Runs.Description(),
			Aggregation: view.Count(),
			TagKeys:     allTagKeys,
		},
		{
			Name:        LatencyMs.Name(),
			Measure:     LatencyMs,
			Description: LatencyMs.Description(),
			Aggregation: defaultLatencyMsDistribution,
			TagKeys:     []tag.Key{KeyStrategy},
		},
		{
			Name:        Violations.Name(),
			Measure:     Violations,
			Description: Violations.Description(),
			Aggregation: view.Sum(),
			TagKeys:     []tag.Key{KeyStrategy},
		},
		{
			Name:        Races.Name(),
			Measure:     Races,
			Description: Races.Description(),
			Aggregation: view.Sum(),
			TagKeys:     []tag.Key{KeyStrategy},
		},
	}

	registerOnce sync.Once
	registerErr  error
)

// Run is the subset of a run result the metrics need.
type Run struct {
	Strategy  string
	Passed    bool
	LatencyMs float64
	Races     int
}

// Register registers all views. It is safe to call more than once.
func Register() error {
	registerOnce.Do(func() {
		registerErr = errors.Wrap(view.Register(allViews...), "while registering views")
	})
	return registerErr
}

// RecordRun records the measures of one finished run. Without Register the
// measurements are dropped.
func RecordRun(ctx context.Context, r Run) {
	outcome := "pass"
	if !r.Passed {
		outcome = "fail"
	}
	mutators := []tag.Mutator{
		tag.Upsert(KeyStrategy, r.Strategy),
		tag.Upsert(KeyOutcome, outcome),
	}
	ms := []ostats.Measurement{Runs.M(1), LatencyMs.M(r.LatencyMs)}
	if !r.Passed {
		ms = append(ms, Violations.M(1))
	}
	if r.Races > 0 {
		ms = append(ms, Races.M(int64(r.Races)))
	}
	if err := ostats.RecordWithTags(ctx, mutators, ms...); err != nil {
		glog.Errorf("Error while recording run metrics: %v", err)
	}
}

// Handler registers the views and returns an http.Handler serving them in
// the Prometheus exposition format.
func Handler() (http.Handler, error) {
	if err := Register(); err != nil {
		return nil, err
	}
	pe, err := ocprom.NewExporter(ocprom.Options{Namespace: "lockbench"})
	if err != nil {
		return nil, errors.Wrap(err, "while creating prometheus exporter")
	}
	return pe, nil
}
