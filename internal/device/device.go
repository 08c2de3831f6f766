// Package device models the benchmark's character-device surface in user
// space: opening the device runs the reference suite, reading it returns the
// latest report, writing to it echoes short messages into the log.
package device

import (
	"bytes"
	"io"
	"sync"

	"github.com/eapache/queue"
	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/kolkov/lockbench/internal/bench/runner"
	"github.com/kolkov/lockbench/internal/bench/suite"
	"github.com/kolkov/lockbench/internal/report"
)

// MaxWrite is the largest accepted write, in bytes.
const MaxWrite = 255

// DefaultHistory is the number of reports kept when Config.History is unset.
const DefaultHistory = 8

var (
	// ErrClosed is returned by operations on a released handle or a closed device.
	ErrClosed = errors.New("device closed")
	// ErrNoReport is returned by Read when no suite has completed yet.
	ErrNoReport = errors.New("no report available")
	// ErrTooLong is returned by Write for input longer than MaxWrite.
	ErrTooLong = errors.New("write too long")
)

// Config configures a Device.
type Config struct {
	Name    string
	Suite   suite.Config
	History int
}

// RunFunc runs a suite. It is suite.Run unless replaced in tests.
type RunFunc func(suite.Config) ([]runner.RunResult, error)

// Device keeps the reports of past suites. It is safe for concurrent use;
// suites triggered by concurrent opens run one at a time.
type Device struct {
	cfg Config
	run RunFunc

	runMu sync.Mutex

	mu      sync.Mutex
	history *queue.Queue
	closed  bool
	opens   uint64
}

// New returns an open device.
func New(cfg Config) *Device {
	if cfg.History < 1 {
		cfg.History = DefaultHistory
	}
	if cfg.Name == "" {
		cfg.Name = "lockbench"
	}
	return &Device{
		cfg:     cfg,
		run:     suite.Run,
		history: queue.New(),
	}
}

// NewWithRunner returns a device that runs suites with fn.
func NewWithRunner(cfg Config, fn RunFunc) *Device {
	d := New(cfg)
	d.run = fn
	return d
}

// Name returns the device name.
func (d *Device) Name() string {
	return d.cfg.Name
}

// Open runs the suite, records its report and returns a handle.
//
// A failing suite does not fail the open: the error is logged and the
// handle reads the most recent successful report, if any.
func (d *Device) Open() (*Handle, error) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil, ErrClosed
	}
	d.opens++
	d.mu.Unlock()

	d.runMu.Lock()
	results, err := d.run(d.cfg.Suite)
	d.runMu.Unlock()
	if err != nil {
		glog.Errorf("%s: suite failed: %v", d.cfg.Name, err)
		return &Handle{dev: d, cause: err}, nil
	}

	rep := report.New(results)
	if !rep.Passed {
		glog.Warningf("%s: suite reported a correctness violation", d.cfg.Name)
	}
	d.push(rep)
	return &Handle{dev: d}, nil
}

func (d *Device) push(rep *report.Report) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.history.Add(rep)
	for d.history.Length() > d.cfg.History {
		d.history.Remove()
	}
}

// Latest returns the most recent report, or nil.
func (d *Device) Latest() *report.Report {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.history.Length() == 0 {
		return nil
	}
	return d.history.Get(-1).(*report.Report)
}

// History returns the kept reports, oldest first.
func (d *Device) History() []*report.Report {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*report.Report, d.history.Length())
	for i := range out {
		out[i] = d.history.Get(i).(*report.Report)
	}
	return out
}

// Opens returns the number of successful Open calls.
func (d *Device) Opens() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.opens
}

// Close tears the device down. Further opens and operations on existing
// handles fail with ErrClosed.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	d.closed = true
	glog.Infof("%s: closed after %d opens", d.cfg.Name, d.opens)
	return nil
}

func (d *Device) isClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// Handle is one open of the device. A Handle must not be used from
// multiple goroutines concurrently.
type Handle struct {
	dev      *Device
	cause    error
	text     []byte
	off      int
	loaded   bool
	released bool
}

var _ io.ReadWriteCloser = (*Handle)(nil)

func (h *Handle) check() error {
	if h.released || h.dev.isClosed() {
		return ErrClosed
	}
	return nil
}

// Read copies the text of the latest report into p, continuing where the
// previous Read stopped. It returns io.EOF once the report is exhausted.
// The report is captured on the first Read.
func (h *Handle) Read(p []byte) (int, error) {
	if err := h.check(); err != nil {
		return 0, err
	}
	if !h.loaded {
		rep := h.dev.Latest()
		if rep == nil {
			if h.cause != nil {
				return 0, errors.Wrapf(ErrNoReport, "suite failed: %v", h.cause)
			}
			return 0, ErrNoReport
		}
		var buf bytes.Buffer
		if err := rep.WriteText(&buf); err != nil {
			return 0, err
		}
		h.text = buf.Bytes()
		h.loaded = true
	}
	if h.off >= len(h.text) {
		return 0, io.EOF
	}
	n := copy(p, h.text[h.off:])
	h.off += n
	return n, nil
}

// Write logs p. Input longer than MaxWrite is rejected with ErrTooLong.
func (h *Handle) Write(p []byte) (int, error) {
	if err := h.check(); err != nil {
		return 0, err
	}
	if len(p) > MaxWrite {
		glog.Warningf("%s: write of %d bytes rejected", h.dev.cfg.Name, len(p))
		return 0, errors.Wrapf(ErrTooLong, "%d > %d bytes", len(p), MaxWrite)
	}
	glog.Infof("%s: %s", h.dev.cfg.Name, bytes.TrimRight(p, "\n"))
	return len(p), nil
}

// Release closes the handle.
func (h *Handle) Release() error {
	if h.released {
		return ErrClosed
	}
	h.released = true
	h.text = nil
	return nil
}

// Close is Release, for io.Closer.
func (h *Handle) Close() error {
	return h.Release()
}
