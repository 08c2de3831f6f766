package strategy

import (
	"strings"

	"github.com/pkg/errors"
)

// ErrUnknownKind is returned for a strategy name or Kind that does not exist.
var ErrUnknownKind = errors.New("unknown exclusion strategy")

// Strategy is a mutual-exclusion capability.
//
// Acquire blocks until exclusive access is granted; Release relinquishes it.
// Once Acquire returns, the caller observes every write made inside the
// previous holder's critical section.
type Strategy interface {
	Acquire()
	Release()
	Kind() Kind
}

// Kind identifies a Strategy variant.
type Kind int

const (
	// Spin is a busy-wait exclusive lock.
	Spin Kind = iota
	// Mutex is a blocking, scheduler-cooperative lock.
	Mutex
	// Unguarded performs no exclusion at all.
	Unguarded
)

// Kinds lists the exclusive variants, in suite order.
var Kinds = []Kind{Spin, Mutex}

// String returns the canonical name of k.
func (k Kind) String() string {
	switch k {
	case Spin:
		return "spin"
	case Mutex:
		return "mutex"
	case Unguarded:
		return "unguarded"
	default:
		return "unknown"
	}
}

// Exclusive reports whether the variant actually provides mutual exclusion.
func (k Kind) Exclusive() bool {
	return k == Spin || k == Mutex
}

// ParseKind converts a name into a Kind. Matching is case-insensitive and
// accepts a few aliases.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "spin", "spinlock", "spin-lock":
		return Spin, nil
	case "mutex", "blocking-mutex", "blockingmutex":
		return Mutex, nil
	case "unguarded", "none":
		return Unguarded, nil
	}
	return 0, errors.Wrapf(ErrUnknownKind, "%q", name)
}

// New returns a fresh, unlocked strategy of kind k.
func New(k Kind) (Strategy, error) {
	switch k {
	case Spin:
		return NewSpinLock(), nil
	case Mutex:
		return NewBlockingMutex(), nil
	case Unguarded:
		return NewNoLock(), nil
	}
	return nil, errors.Wrapf(ErrUnknownKind, "kind %d", int(k))
}

// MarshalText encodes k by name.
func (k Kind) MarshalText() ([]byte, error) {
	if k.String() == "unknown" {
		return nil, errors.Wrapf(ErrUnknownKind, "kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText decodes a name accepted by ParseKind.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
