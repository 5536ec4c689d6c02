package logging

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// MaxLineLength is the longest output line logged before truncation.
const MaxLineLength = 4096

// Stream names a child output stream.
type Stream string

const (
	StreamStdout Stream = "stdout"
	StreamStderr Stream = "stderr"
)

// OutputLogger mirrors test script output into the structured log.
//
// Stdout lines are logged at debug. Stderr lines are logged at warn, since
// the test scripts only write there when something is wrong.
type OutputLogger struct {
	logger *slog.Logger
	name   string
	runID  string

	stdoutLines atomic.Int64
	stderrLines atomic.Int64
}

// NewOutputLogger creates an output logger for one run.
func NewOutputLogger(logger *slog.Logger, name, runID string) *OutputLogger {
	return &OutputLogger{logger: logger, name: name, runID: runID}
}

// HandleLine logs one line from stream.
func (h *OutputLogger) HandleLine(stream Stream, line string) {
	if len(line) > MaxLineLength {
		line = line[:MaxLineLength] + "...(truncated)"
	}

	level := slog.LevelDebug
	if stream == StreamStderr {
		h.stderrLines.Add(1)
		level = slog.LevelWarn
	} else {
		h.stdoutLines.Add(1)
	}

	ctx := context.Background()
	if !h.logger.Enabled(ctx, level) {
		return
	}
	h.logger.Log(ctx, level, "test_output",
		"test", h.name,
		"run_id", h.runID,
		"stream", string(stream),
		"line", line,
	)
}

// Lines returns the number of lines seen on each stream.
func (h *OutputLogger) Lines() (stdout, stderr int64) {
	return h.stdoutLines.Load(), h.stderrLines.Load()
}
