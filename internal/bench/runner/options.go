package runner

import "github.com/kolkov/lockbench/internal/race/detector"

// Spawner starts fn on a new goroutine for worker index. A non-nil error
// means fn was not started.
type Spawner func(index int, fn func()) error

// TransitionFunc observes every state change of a Runner.
type TransitionFunc func(from, to State)

type options struct {
	pin        bool
	trace      bool
	sampler    *detector.SamplerConfig
	cpu        CPUSampler
	spawn      Spawner
	transition TransitionFunc
}

// Option configures a Runner.
type Option func(*options)

// WithPinning pins every worker to its own OS thread and logical CPU.
func WithPinning(pin bool) Option {
	return func(o *options) {
		o.pin = pin
	}
}

// WithTracing records every barrier, lock and counter event in a
// happens-before checker and reports unordered counter accesses in
// RunResult.Races.
func WithTracing(trace bool) Option {
	return func(o *options) {
		o.trace = trace
	}
}

// WithSampling checks only one in rate counter accesses when tracing.
func WithSampling(rate uint64) Option {
	return func(o *options) {
		o.sampler = &detector.SamplerConfig{Enabled: rate > 1, Rate: rate}
	}
}

// WithCPUSampler replaces the process CPU time sampler. A nil sampler
// disables CPU accounting.
func WithCPUSampler(s CPUSampler) Option {
	return func(o *options) {
		o.cpu = s
	}
}

// WithSpawner replaces the goroutine spawn hook.
func WithSpawner(s Spawner) Option {
	return func(o *options) {
		o.spawn = s
	}
}

// WithTransitionHook registers fn to be called on every state change.
// fn runs on the goroutine calling Run and must not block.
func WithTransitionHook(fn TransitionFunc) Option {
	return func(o *options) {
		o.transition = fn
	}
}

func goSpawner(_ int, fn func()) error {
	go fn()
	return nil
}
