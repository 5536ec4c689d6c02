package supervisor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/randomizedcoder/go-cstest/internal/logging"
	"github.com/randomizedcoder/go-cstest/internal/parser"
	"github.com/randomizedcoder/go-cstest/internal/sink"
)

// Result is the terminal report of a run.
type Result struct {
	RunID    string
	Name     string
	Outcome  Outcome
	Exit     ExitStatus
	LastLine string

	// Message is the outcome message, e.g. "Quicktest passed".
	Message string

	// Error is the script location parsed from the last line of a failed run.
	Error *parser.ErrorLocation

	// SpawnErr is set when the process could not be launched.
	SpawnErr error

	Iterations uint64
	Started    time.Time
	Duration   time.Duration
	Output     OutputStats

	// Display is set when a Document sink was displayed; DisplayErr when
	// that failed.
	Display    *sink.Display
	DisplayErr error
}

// OutputStats counts what a run wrote.
type OutputStats struct {
	StdoutChunks int64
	StderrChunks int64
	StdoutLines  int64
	StderrLines  int64
	StdoutBytes  int64
	StderrBytes  int64
}

type eventKind int

const (
	eventStdout eventKind = iota
	eventStderr
	eventSpawnError
	eventExit
)

type event struct {
	kind  eventKind
	data  string
	err   error
	state *os.ProcessState
	read  OutputStats
}

// Run is one invocation of a test script.
type Run struct {
	ID   string
	Name string

	sup     *Supervisor
	req     Request
	started time.Time
	events  chan event
	out     *logging.OutputLogger
	iter    *parser.IterationParser

	// Owned by the event goroutine.
	lastLine string
	spawnErr error
	stats    OutputStats

	mu            sync.Mutex
	state         State
	cmd           *exec.Cmd
	exited        bool
	cancelPending bool
	last          string

	done   chan struct{}
	result Result
}

func newRun(s *Supervisor, req Request) *Run {
	r := &Run{
		ID:      newRunID(),
		Name:    req.Name,
		sup:     s,
		req:     req,
		started: s.now(),
		events:  make(chan event, 64),
		done:    make(chan struct{}),
	}
	r.out = logging.NewOutputLogger(s.logger, req.Name, r.ID)
	r.iter = parser.NewIterationParser(req.Callbacks.iteration)
	return r
}

// spawn starts the process and the goroutines feeding r.events. The exit
// event is always sent last.
//
// The pipe read ends belong to the run, not to exec.Cmd, so Wait returns as
// soon as the child exits even if a background process it started still
// holds stdout or stderr. Readers then get drainTimeout to reach EOF before
// their reads are cut off.
func (r *Run) spawn(ctx context.Context) {
	cmd := r.req.Build(ctx)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return signalGroup(cmd.Process.Pid, syscall.SIGTERM)
	}

	fail := func(err error) {
		r.mu.Lock()
		r.exited = true
		r.mu.Unlock()
		go func() {
			r.events <- event{kind: eventSpawnError, err: &SpawnError{Name: r.Name, Path: r.req.Path, Err: err}}
			r.events <- event{kind: eventExit}
		}()
	}

	stdout, stdoutW, err := os.Pipe()
	if err != nil {
		fail(fmt.Errorf("stdout pipe: %w", err))
		return
	}
	stderr, stderrW, err := os.Pipe()
	if err != nil {
		stdout.Close()
		stdoutW.Close()
		fail(fmt.Errorf("stderr pipe: %w", err))
		return
	}
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	err = cmd.Start()
	// The child has its own copies of the write ends.
	stdoutW.Close()
	stderrW.Close()
	if err != nil {
		stdout.Close()
		stderr.Close()
		fail(err)
		return
	}

	r.mu.Lock()
	r.cmd = cmd
	pending := r.cancelPending
	if pending {
		if err := signalGroup(cmd.Process.Pid, syscall.SIGTERM); err != nil {
			r.sup.logger.Warn("run_cancel_failed", "test", r.Name, "run_id", r.ID, "error", err)
		}
	}
	r.mu.Unlock()

	r.sup.logger.Debug("run_spawned", "test", r.Name, "run_id", r.ID, "pid", cmd.Process.Pid, "cancel_pending", pending)

	readers := []*pipeReader{
		{file: stdout, chunks: parser.NewChunkReader(stdout, func(chunk string) {
			r.events <- event{kind: eventStdout, data: chunk}
		})},
		{file: stderr, chunks: parser.NewChunkReader(stderr, func(chunk string) {
			r.events <- event{kind: eventStderr, data: chunk}
		})},
	}

	drained := make(chan struct{})
	var wg sync.WaitGroup
	for _, pr := range readers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pr.chunks.Run()
		}()
	}
	go func() {
		wg.Wait()
		close(drained)
	}()

	go func() {
		// Wait may report a context error instead of the exit status;
		// classification reads ProcessState.
		_ = cmd.Wait()

		r.mu.Lock()
		r.exited = true
		r.mu.Unlock()

		timer := time.NewTimer(r.sup.drainTimeout)
		select {
		case <-drained:
			timer.Stop()
		case <-timer.C:
			r.sup.logger.Warn("output_drain_timeout",
				"test", r.Name,
				"run_id", r.ID,
				"timeout", r.sup.drainTimeout.String(),
			)
			for _, pr := range readers {
				if !pr.chunks.Done() {
					_ = pr.file.SetReadDeadline(time.Now())
				}
			}
			<-drained
		}

		for _, pr := range readers {
			pr.file.Close()
			if err := pr.chunks.Err(); err != nil && !errors.Is(err, os.ErrDeadlineExceeded) {
				r.sup.logger.Warn("output_read_failed", "test", r.Name, "run_id", r.ID, "error", err)
			}
		}

		outBytes, outChunks, _ := readers[0].chunks.Stats()
		errBytes, errChunks, _ := readers[1].chunks.Stats()
		r.events <- event{
			kind:  eventExit,
			state: cmd.ProcessState,
			read: OutputStats{
				StdoutChunks: outChunks,
				StdoutBytes:  outBytes,
				StderrChunks: errChunks,
				StderrBytes:  errBytes,
			},
		}
	}()
}

// pipeReader is one output pipe and the reader draining it.
type pipeReader struct {
	file   *os.File
	chunks *parser.ChunkReader
}

// loop handles every event of the run in order.
func (r *Run) loop(ctx context.Context) {
	for ev := range r.events {
		switch ev.kind {
		case eventStdout:
			r.handleStdout(ev.data)
		case eventStderr:
			r.handleStderr(ev.data)
		case eventSpawnError:
			r.handleSpawnError(ev.err)
		case eventExit:
			r.stats.StdoutChunks = ev.read.StdoutChunks
			r.stats.StdoutBytes = ev.read.StdoutBytes
			r.stats.StderrChunks = ev.read.StderrChunks
			r.stats.StderrBytes = ev.read.StderrBytes
			r.finish(ctx, ev.state)
			return
		}
	}
}

func (r *Run) handleStdout(chunk string) {
	norm := parser.NormalizeChunk(chunk)
	lines := parser.SplitLines(norm)
	r.req.Sink.AppendBlock(lines)

	if last := parser.LastLine(norm); last != "" {
		r.lastLine = last
		r.mu.Lock()
		r.last = last
		r.mu.Unlock()
	}

	for _, line := range lines {
		r.stats.StdoutLines++
		r.iter.ParseLine(parser.StripANSI(line))
		r.out.HandleLine(logging.StreamStdout, line)
	}
}

func (r *Run) handleStderr(chunk string) {
	lines := parser.SplitLines(parser.NormalizeChunk(chunk))
	r.req.Sink.Append("Error:")
	r.req.Sink.AppendBlock(lines)

	for _, line := range lines {
		r.stats.StderrLines++
		r.out.HandleLine(logging.StreamStderr, line)
	}
}

func (r *Run) handleSpawnError(err error) {
	r.spawnErr = err
	r.req.Sink.Append("Process error:")
	r.req.Sink.Append(err.Error())
	r.sup.logger.Error("run_spawn_failed", "test", r.Name, "run_id", r.ID, "error", err)
}

// finish classifies the exit and reports it. The active run is released
// last, so nothing from this run reaches the sink after a new run starts.
func (r *Run) finish(ctx context.Context, ps *os.ProcessState) {
	st := exitStatusOf(ps)
	outcome := Classify(st)
	cb := r.req.Callbacks

	res := Result{
		RunID:    r.ID,
		Name:     r.Name,
		Outcome:  outcome,
		Exit:     st,
		LastLine: r.lastLine,
		SpawnErr: r.spawnErr,
		Started:  r.started,
		Duration: r.sup.now().Sub(r.started),
		Output:   r.stats,
	}
	if n, ok := r.iter.Last(); ok {
		res.Iterations = n
	}

	level := MessageInfo
	switch outcome {
	case OutcomePassed:
		res.Message = r.Name + " passed"
	case OutcomeCancelled:
		res.Message = r.Name + " stopped"
	case OutcomeFailed:
		level = MessageError
		if loc, ok := parser.ParseErrorLine(r.lastLine); ok {
			res.Error = &loc
			cb.scriptError(loc, strings.TrimSpace(loc.Message))
		}
		res.Message = r.Name + " failed"
		if r.lastLine != "" {
			res.Message += ": " + r.lastLine
		}
	default:
		res.Message = r.Name + " ended with an unexpected signal"
	}

	_, markers := r.iter.Stats()
	r.sup.logger.Info("run_exited",
		"test", r.Name,
		"run_id", r.ID,
		"outcome", outcome.String(),
		"exit_code", exitCodeAttr(st),
		"signal", signalAttr(st),
		"iterations", res.Iterations,
		"iteration_markers", markers,
		"stdout_bytes", res.Output.StdoutBytes,
		"stderr_bytes", res.Output.StderrBytes,
		"duration", res.Duration.String(),
	)

	cb.message(level, res.Message)
	r.req.Sink.Append(res.Message)
	r.req.Sink.Append(fmt.Sprintf("%s finished at %s", r.Name, r.sup.now().Format(time.RFC3339)))

	if doc, ok := r.req.Sink.(*sink.Document); ok && r.sup.displayer != nil {
		d, err := r.sup.displayer.Display(ctx, doc)
		if err != nil {
			res.DisplayErr = err
			cb.message(MessageError, err.Error())
			r.sup.logger.Error("document_display_failed", "test", r.Name, "run_id", r.ID, "error", err)
		} else {
			res.Display = &d
			if d.Kind != sink.DisplayInline {
				cb.message(MessageInfo, d.Message())
				r.sup.logger.Info("document_overflow_saved", "test", r.Name, "path", d.Path, "bytes", d.Size)
			}
		}
	}

	r.mu.Lock()
	r.state = StateFinished
	r.cmd = nil
	r.result = res
	r.mu.Unlock()

	r.sup.release(r)
	cb.status(false)
	close(r.done)
}

// Cancel sends SIGTERM to the run's process group. A run that has not
// spawned yet is signalled as soon as it does. Returns ErrNotRunning once
// the process has exited.
func (r *Run) Cancel() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case r.state == StateFinished || r.exited:
		return ErrNotRunning
	case r.cmd == nil:
		r.cancelPending = true
		r.sup.logger.Info("run_cancel_requested", "test", r.Name, "run_id", r.ID, "pending", true)
		return nil
	}

	// The reaper sets exited under mu as soon as Wait returns.
	if err := signalGroup(r.cmd.Process.Pid, syscall.SIGTERM); err != nil {
		return fmt.Errorf("cancel %s: %w", r.Name, err)
	}
	r.sup.logger.Info("run_cancel_requested", "test", r.Name, "run_id", r.ID)
	return nil
}

// Wait blocks until the run has been classified and returns its Result.
func (r *Run) Wait() Result {
	<-r.done
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.result
}

// Done is closed when the run has been classified.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// State returns the run's lifecycle state.
func (r *Run) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Run) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

// LastLine returns the last non-empty stdout line seen so far.
func (r *Run) LastLine() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

func exitCodeAttr(st ExitStatus) any {
	if st.HasCode {
		return st.Code
	}
	return nil
}

func signalAttr(st ExitStatus) string {
	if st.Signaled {
		return st.Signal.String()
	}
	return ""
}
