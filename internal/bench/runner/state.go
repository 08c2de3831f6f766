package runner

// State is the lifecycle phase of a Runner.
type State int32

const (
	// Idle: no run in progress.
	Idle State = iota
	// Spawning: workers are being started and are not yet released.
	Spawning
	// Running: the start barrier fired; workers are incrementing.
	Running
	// Draining: the runner is waiting on the completion barrier.
	Draining
	// Completed: every worker signaled and the counter was checked.
	Completed
	// Failed: the run aborted, e.g. because a worker could not be spawned.
	Failed
)

var stateNames = [...]string{
	Idle:      "idle",
	Spawning:  "spawning",
	Running:   "running",
	Draining:  "draining",
	Completed: "completed",
	Failed:    "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether no further transition follows s within a run.
func (s State) Terminal() bool {
	return s == Completed || s == Failed
}
