// Package goroutine holds the per-participant state of the happens-before checker.
//
// Each participant of a benchmark run (the runner and every worker) owns one
// Context which stores:
//   - TID: participant ID (0 for the runner, 1..N for workers)
//   - C: vector clock over all participants of the run
//   - Epoch: cached C[TID]
//
// A Context is only ever touched by the goroutine that owns it, so it needs
// no locking of its own.
package goroutine
