// Package report renders run results as text or JSON.
package report

import (
	"fmt"
	"io"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v3/cpu"

	"github.com/kolkov/lockbench/internal/bench/runner"
	"github.com/kolkov/lockbench/internal/bench/suite"
)

// Env describes the machine a report was produced on.
type Env struct {
	GoVersion  string `json:"go_version"`
	GOOS       string `json:"goos"`
	GOARCH     string `json:"goarch"`
	GOMAXPROCS int    `json:"gomaxprocs"`
	CPUs       int    `json:"cpus"`
	CPUModel   string `json:"cpu_model,omitempty"`
}

// CurrentEnv collects the environment of the running process. CPU details
// that cannot be read are left empty.
func CurrentEnv() Env {
	env := Env{
		GoVersion:  runtime.Version(),
		GOOS:       runtime.GOOS,
		GOARCH:     runtime.GOARCH,
		GOMAXPROCS: runtime.GOMAXPROCS(0),
		CPUs:       runtime.NumCPU(),
	}
	if n, err := cpu.Counts(true); err == nil && n > 0 {
		env.CPUs = n
	}
	if infos, err := cpu.Info(); err == nil && len(infos) > 0 {
		env.CPUModel = strings.TrimSpace(infos[0].ModelName)
	}
	return env
}

// Report is a rendered set of results.
type Report struct {
	Time    time.Time            `json:"time"`
	Env     Env                  `json:"env"`
	Results []runner.RunResult   `json:"results,omitempty"`
	Trials  []suite.TrialSummary `json:"trials,omitempty"`
	Passed  bool                 `json:"passed"`
}

// New builds a report for results, stamped with the current time and
// environment.
func New(results []runner.RunResult) *Report {
	return &Report{
		Time:    time.Now().UTC(),
		Env:     CurrentEnv(),
		Results: results,
		Passed:  suite.Passed(results),
	}
}

// WithTrials attaches trial summaries. Trials do not affect Passed: an
// unguarded series is expected to fail.
func (r *Report) WithTrials(trials ...suite.TrialSummary) *Report {
	r.Trials = append(r.Trials, trials...)
	return r
}

// Format selects a rendering.
type Format string

const (
	Text Format = "text"
	JSON Format = "json"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case Text, JSON:
		return f, nil
	}
	return "", errors.Errorf("unknown report format %q", s)
}

// Write renders r to w in format f.
func (r *Report) Write(w io.Writer, f Format) error {
	switch f {
	case JSON:
		return r.WriteJSON(w)
	case Text, "":
		return r.WriteText(w)
	}
	return errors.Errorf("unknown report format %q", f)
}

// WriteJSON writes r as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	data, err := sonic.ConfigStd.MarshalIndent(r, "", "  ")
	if err != nil {
		return errors.Wrap(err, "while encoding report")
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// WriteJSONList writes reps as one indented JSON array.
func WriteJSONList(w io.Writer, reps []*Report) error {
	if reps == nil {
		reps = []*Report{}
	}
	data, err := sonic.ConfigStd.MarshalIndent(reps, "", "  ")
	if err != nil {
		return errors.Wrap(err, "while encoding reports")
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// WriteText writes r in the human-readable form also served by the device.
func (r *Report) WriteText(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s/%s GOMAXPROCS=%d CPUs=%d",
		r.Env.GoVersion, r.Env.GOOS, r.Env.GOARCH, r.Env.GOMAXPROCS, r.Env.CPUs)
	if r.Env.CPUModel != "" {
		fmt.Fprintf(&b, " (%s)", r.Env.CPUModel)
	}
	b.WriteByte('\n')
	for _, res := range r.Results {
		b.WriteString(Line(res))
		b.WriteByte('\n')
	}
	for _, t := range r.Trials {
		fmt.Fprintf(&b, "%s: %s trials, %s failures (%.1f%%), counts %s..%s, expected %s\n",
			t.Strategy, humanize.Comma(int64(t.Runs)), humanize.Comma(int64(t.Failures)),
			100*t.FailureRate(), humanize.Comma(t.MinCount), humanize.Comma(t.MaxCount),
			humanize.Comma(t.Expected))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Line renders one result on a single line, e.g.
//
//	spin: final count = 8,192, expected = 8,192 PASS (1.2ms, 6.8 Mops/s)
func Line(res runner.RunResult) string {
	verdict := "PASS"
	if !res.Passed {
		verdict = "FAIL"
	}
	s := fmt.Sprintf("%s: final count = %s, expected = %s %s (%s, %s)",
		res.Strategy, humanize.Comma(res.FinalCount), humanize.Comma(res.ExpectedCount),
		verdict, res.Duration.Round(time.Microsecond),
		rate(res.OpsPerSecond()))
	if res.CPUTime > 0 {
		s += fmt.Sprintf(" cpu=%s", res.CPUTime.Round(time.Microsecond))
	}
	if res.Races > 0 {
		s += fmt.Sprintf(" races=%d", res.Races)
	}
	return s
}

// rate formats ops/s with an SI prefix, rounded to one decimal.
func rate(ops float64) string {
	v, prefix := humanize.ComputeSI(ops)
	return strconv.FormatFloat(v, 'f', 1, 64) + " " + prefix + "ops/s"
}
