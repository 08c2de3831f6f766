package runner

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v3/process"
)

// CPUSampler reports the CPU time consumed by the process so far.
type CPUSampler interface {
	CPUTime() (time.Duration, error)
}

// processSampler reads user+system time of the current process.
type processSampler struct {
	proc *process.Process
}

// NewProcessSampler returns a CPUSampler for the current process.
func NewProcessSampler() (CPUSampler, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, errors.Wrap(err, "unable to track process")
	}
	return &processSampler{proc: proc}, nil
}

func (s *processSampler) CPUTime() (time.Duration, error) {
	times, err := s.proc.Times()
	if err != nil {
		return 0, errors.Wrap(err, "unable to read CPU times")
	}
	secs := times.User + times.System
	return time.Duration(secs * float64(time.Second)), nil
}
