package detector

import (
	"sync/atomic"
)

// SamplerConfig configures sampling of counter accesses.
//
// Long runs (millions of iterations) make every checked access pay for the
// detector mutex; sampling trades detection rate for speed. Synchronization
// events are never sampled, only the counter checks.
type SamplerConfig struct {
	// Enabled turns sampling on. When false every access is checked.
	Enabled bool

	// Rate checks 1 in Rate accesses. 0 and 1 both mean "check all".
	Rate uint64
}

// Sampler selects which accesses get checked.
//
// Uses an atomic position counter with modulo selection, so there is no RNG
// and selection is uniform within a run.
type Sampler struct {
	config   SamplerConfig
	tracePos uint64
}

// NewSampler creates a Sampler with the given configuration.
func NewSampler(config SamplerConfig) *Sampler {
	if config.Rate == 0 {
		config.Rate = 1
	}
	return &Sampler{config: config}
}

// ShouldSample reports whether the current access should be checked.
func (s *Sampler) ShouldSample() bool {
	if !s.IsEnabled() {
		return true
	}
	pos := atomic.AddUint64(&s.tracePos, 1)
	return pos%s.config.Rate == 0
}

// IsEnabled returns true if sampling actually skips accesses.
func (s *Sampler) IsEnabled() bool {
	return s.config.Enabled && s.config.Rate > 1
}

// EffectiveRate returns the rate in use; 1 when disabled.
func (s *Sampler) EffectiveRate() uint64 {
	if !s.IsEnabled() {
		return 1
	}
	return s.config.Rate
}

// ExpectedDetectionRate returns 1 - (1 - 1/R)^N, the probability that at
// least one of N racy accesses gets checked.
func (s *Sampler) ExpectedDetectionRate(accessesPerRace int) float64 {
	if !s.IsEnabled() || accessesPerRace <= 0 {
		return 1.0
	}
	miss := 1.0
	step := 1.0 - 1.0/float64(s.config.Rate)
	for i := 0; i < accessesPerRace; i++ {
		miss *= step
	}
	return 1.0 - miss
}
