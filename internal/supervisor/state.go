// Package supervisor runs one ChoiceScript test at a time.
//
// A Supervisor owns the single active run. It streams the child's output into
// a sink, scans stdout for iteration markers, and classifies the exit into an
// Outcome. Every sink write and callback of a run happens on one goroutine, so
// callbacks never run concurrently.
package supervisor

import (
	"os"
	"syscall"
)

// State is the lifecycle state of a run.
type State int

const (
	// StateIdle is a run that has not started.
	StateIdle State = iota

	// StateRunning is a run whose process has not yet been classified.
	StateRunning

	// StateFinished is a run whose exit has been classified.
	StateFinished
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Outcome is the terminal classification of a run.
type Outcome int

const (
	// OutcomeUnknown is an exit with neither a code nor a signal, e.g. a
	// process that never spawned.
	OutcomeUnknown Outcome = iota

	// OutcomePassed is exit code 0.
	OutcomePassed

	// OutcomeCancelled is termination by SIGTERM.
	OutcomeCancelled

	// OutcomeFailed is any other exit code or signal.
	OutcomeFailed
)

// String returns the outcome label used in logs and metrics.
func (o Outcome) String() string {
	switch o {
	case OutcomePassed:
		return "passed"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ExitStatus is how a process ended. A process that was never started, or
// whose status could not be read, has neither a code nor a signal.
type ExitStatus struct {
	Code     int
	HasCode  bool
	Signal   syscall.Signal
	Signaled bool
}

// exitStatusOf reads the exit status from a finished process.
func exitStatusOf(ps *os.ProcessState) ExitStatus {
	if ps == nil {
		return ExitStatus{}
	}
	if ws, ok := ps.Sys().(syscall.WaitStatus); ok {
		if ws.Signaled() {
			return ExitStatus{Signal: ws.Signal(), Signaled: true}
		}
		if ws.Exited() {
			return ExitStatus{Code: ws.ExitStatus(), HasCode: true}
		}
		return ExitStatus{}
	}
	if code := ps.ExitCode(); code >= 0 {
		return ExitStatus{Code: code, HasCode: true}
	}
	return ExitStatus{}
}

// Classify maps an exit status to an outcome, in priority order:
// code 0, then SIGTERM, then any other code or signal.
func Classify(st ExitStatus) Outcome {
	switch {
	case st.HasCode && st.Code == 0:
		return OutcomePassed
	case st.Signaled && st.Signal == syscall.SIGTERM:
		return OutcomeCancelled
	case st.HasCode || st.Signaled:
		return OutcomeFailed
	default:
		return OutcomeUnknown
	}
}
