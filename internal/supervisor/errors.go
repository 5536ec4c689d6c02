package supervisor

import (
	"errors"
	"fmt"
)

// ErrAlreadyRunning is returned by Start while a run is active. The active
// run is not affected.
var ErrAlreadyRunning = errors.New("a test is already running")

// ErrNotRunning is returned when signalling a run whose process is gone or
// never started.
var ErrNotRunning = errors.New("test process is not running")

// SpawnError reports a process that could not be launched.
type SpawnError struct {
	Name string
	Path string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("start %s (%s): %v", e.Name, e.Path, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}
