package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kolkov/lockbench/internal/bench/suite"
	"github.com/kolkov/lockbench/internal/device"
)

// execute runs the root command with args and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

// TestSuiteCommand tests the reference trigger.
func TestSuiteCommand(t *testing.T) {
	out, err := execute(t, "suite")
	if err != nil {
		t.Fatalf("suite failed: %v\n%s", err, out)
	}
	for _, want := range []string{
		"spin: final count = 8,192, expected = 8,192 PASS",
		"mutex: final count = 8,192, expected = 8,192 PASS",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

// TestSuiteCommand_JSON tests the JSON rendering.
func TestSuiteCommand_JSON(t *testing.T) {
	out, err := execute(t, "suite", "--format=json", "--threads=4", "--iterations=10")
	if err != nil {
		t.Fatalf("suite failed: %v", err)
	}
	var got struct {
		Passed  bool `json:"passed"`
		Results []struct {
			FinalCount int64 `json:"final_count"`
		} `json:"results"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if !got.Passed || len(got.Results) != 2 || got.Results[0].FinalCount != 40 {
		t.Errorf("unexpected report: %+v", got)
	}
}

// TestRunCommand_Traced tests a single traced run.
func TestRunCommand_Traced(t *testing.T) {
	out, err := execute(t, "run", "--strategy=mutex", "--threads=4", "--iterations=50", "--trace")
	if err != nil {
		t.Fatalf("run failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "mutex: final count = 200, expected = 200 PASS") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

// TestRunCommand_BadInput tests argument validation.
func TestRunCommand_BadInput(t *testing.T) {
	tests := [][]string{
		{"run", "--strategy=rwlock"},
		{"run", "--threads=0"},
		{"suite", "--format=xml"},
		{"trials", "--count=0"},
	}
	for _, args := range tests {
		if _, err := execute(t, args...); err == nil {
			t.Errorf("%v: expected error", args)
		}
	}
}

// TestTrialsCommand tests trials of an exclusive strategy.
func TestTrialsCommand(t *testing.T) {
	out, err := execute(t, "trials", "--strategy=spin", "--count=5", "--threads=4", "--iterations=32")
	if err != nil {
		t.Fatalf("trials failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "spin: 5 trials, 0 failures") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

// TestDeviceCommand tests the device round trip with an echoed message.
func TestDeviceCommand(t *testing.T) {
	out, err := execute(t, "device", "hello", "--threads=2", "--iterations=8")
	if err != nil {
		t.Fatalf("device failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "spin: final count = 16, expected = 16 PASS") {
		t.Errorf("unexpected output:\n%s", out)
	}

	if _, err := execute(t, "device", strings.Repeat("x", device.MaxWrite+1)); err == nil {
		t.Error("expected error for an oversized write")
	}
}

// TestVersionCommand tests the version output.
func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "lockbench version v") {
		t.Errorf("unexpected output: %q", out)
	}
}

// TestServeMux tests the HTTP surface without a listener.
func TestServeMux(t *testing.T) {
	dev := device.New(device.Config{Suite: suite.Config{Threads: 2, Iterations: 16}})
	defer dev.Close()
	mux, err := newServeMux(dev)
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/device/read")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("read before open: status %d, want 404", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/device/open")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET open: status %d, want 405", resp.StatusCode)
	}

	resp, err = http.Post(srv.URL+"/device/open", "text/plain", nil)
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "final count = 32") {
		t.Errorf("open: status %d body:\n%s", resp.StatusCode, body)
	}

	resp, err = http.Post(srv.URL+"/device/open", "text/plain", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/device/history")
	if err != nil {
		t.Fatal(err)
	}
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	if !json.Valid(body) {
		t.Fatalf("history is not valid JSON:\n%s", body)
	}
	var history []json.RawMessage
	if err := json.Unmarshal(body, &history); err != nil {
		t.Fatal(err)
	}
	if len(history) != 2 {
		t.Errorf("history has %d reports, want 2", len(history))
	}

	resp, err = http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "lockbench_") {
		t.Errorf("metrics missing lockbench series:\n%s", body)
	}
}
