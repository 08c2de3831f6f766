// Package affinity pins the calling goroutine's OS thread to a logical CPU.
//
// Platform-specific implementations live in affinity_linux.go and
// affinity_other.go.
package affinity

import (
	"runtime"

	"github.com/pkg/errors"
)

// ErrUnsupported is returned on platforms without thread affinity support.
var ErrUnsupported = errors.New("affinity: not supported on this platform")

// Pin locks the calling goroutine to its OS thread and binds that thread to
// one CPU of its current affinity mask: the cpu-th allowed CPU, wrapping
// around. Under a cpuset or taskset the allowed CPUs need not be 0..N-1.
//
// The goroutine stays locked. When it exits without unlocking, the runtime
// terminates the thread, so the narrowed CPU mask never reaches other
// goroutines. On failure the goroutine is left unlocked.
func Pin(cpu int) error {
	runtime.LockOSThread()
	allowed, err := allowedCPUs()
	if err != nil {
		runtime.UnlockOSThread()
		return errors.Wrap(err, "while reading cpu mask")
	}
	if len(allowed) == 0 {
		runtime.UnlockOSThread()
		return errors.New("affinity: empty cpu mask")
	}
	if cpu < 0 {
		cpu = -cpu
	}
	target := allowed[cpu%len(allowed)]
	if err := setAffinity(target); err != nil {
		runtime.UnlockOSThread()
		return errors.Wrapf(err, "while pinning to cpu %d", target)
	}
	return nil
}
