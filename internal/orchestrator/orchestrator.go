// Package orchestrator ties settings resolution, output sinks and the
// process supervisor together into the two test runs: quicktest and
// randomtest.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/randomizedcoder/go-cstest/internal/config"
	"github.com/randomizedcoder/go-cstest/internal/metrics"
	"github.com/randomizedcoder/go-cstest/internal/preflight"
	"github.com/randomizedcoder/go-cstest/internal/process"
	"github.com/randomizedcoder/go-cstest/internal/settings"
	"github.com/randomizedcoder/go-cstest/internal/sink"
	"github.com/randomizedcoder/go-cstest/internal/stats"
	"github.com/randomizedcoder/go-cstest/internal/supervisor"
)

// Sink names.
const (
	QuicktestSinkName  = "ChoiceScript Quicktest"
	RandomtestSinkName = "ChoiceScript Randomtest"
	ResultsDocName     = "Randomtest Results"
)

// Options holds the optional collaborators of an Orchestrator.
type Options struct {
	// Collector runs the interactive settings dialog. Required for
	// settings.SourceInteractive only.
	Collector settings.Collector

	// Store persists the last-run settings. nil = FileStore in the
	// workspace root, or a MemoryStore without one.
	Store settings.Store

	// Metrics records run metrics. nil disables them.
	Metrics *metrics.Collector

	// Displayer shows result documents. nil = built from the config.
	Displayer *sink.Displayer

	// Output receives transient sink output and inline documents.
	// nil = stdout.
	Output io.Writer

	// Callbacks are forwarded every run event.
	Callbacks supervisor.Callbacks

	// Now defaults to time.Now.
	Now func() time.Time
}

// Orchestrator runs ChoiceScript tests, one at a time.
type Orchestrator struct {
	config *config.Config
	logger *slog.Logger

	project    process.Project
	supervisor *supervisor.Supervisor
	resolver   *settings.Resolver
	metrics    *metrics.Collector
	history    *stats.History
	callbacks  supervisor.Callbacks
	output     io.Writer
	now        func() time.Time
}

// New creates a new Orchestrator with the given configuration.
func New(cfg *config.Config, logger *slog.Logger, opts Options) *Orchestrator {
	output := opts.Output
	if output == nil {
		output = os.Stdout
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	displayer := opts.Displayer
	if displayer == nil {
		displayer = NewDisplayer(cfg, output)
	}

	store := opts.Store
	if store == nil && cfg.WorkspaceRoot != "" {
		store = settings.NewFileStore(cfg.WorkspaceRoot)
	}

	return &Orchestrator{
		config: cfg,
		logger: logger,
		project: process.Project{
			Interpreter:      cfg.Interpreter,
			ChoicescriptPath: cfg.ChoicescriptPath,
			ScenesPath:       cfg.ScenesPath,
			ImagesPath:       cfg.ImagesPath,
		},
		supervisor: supervisor.New(supervisor.Config{
			Logger:    logger,
			Displayer: displayer,
			Now:       now,
		}),
		resolver: settings.NewResolver(settings.ResolverConfig{
			Config:    cfg,
			Store:     store,
			Collector: opts.Collector,
			Logger:    logger,
		}),
		metrics:   opts.Metrics,
		history:   stats.NewHistory(0),
		callbacks: opts.Callbacks,
		output:    output,
		now:       now,
	}
}

// NewDisplayer builds the document displayer described by cfg. Saved files
// are opened with cfg.OpenCommand, or their path is printed to out.
func NewDisplayer(cfg *config.Config, out io.Writer) *sink.Displayer {
	var opener sink.Opener = sink.PrintOpener{W: out}
	if cfg.OpenCommand != "" {
		opener = sink.CommandOpener{Command: cfg.OpenCommand}
	}
	return &sink.Displayer{
		WorkspaceRoot: cfg.WorkspaceRoot,
		Out:           out,
		Opener:        opener,
	}
}

// =============================================================================
// Preflight
// =============================================================================

// Preflight runs the startup checks and writes the results to w.
func (o *Orchestrator) Preflight(ctx context.Context, w io.Writer) error {
	result := preflight.RunAll(ctx, preflight.Options{
		Interpreter:      o.config.Interpreter,
		QuicktestPath:    o.config.QuicktestPath,
		RandomtestPath:   o.config.RandomtestPath,
		ChoicescriptPath: o.config.ChoicescriptPath,
		ScenesPath:       o.config.ScenesPath,
		ImagesPath:       o.config.ImagesPath,
		WorkspaceRoot:    o.config.WorkspaceRoot,
	})
	preflight.PrintResults(w, result)
	if !result.Passed {
		return fmt.Errorf("preflight checks failed: %v (use --skip-preflight to override)", result.Failed())
	}
	return nil
}

// =============================================================================
// Commands
// =============================================================================

// QuicktestCommand returns the quicktest invocation without running it.
func (o *Orchestrator) QuicktestCommand() process.Command {
	return process.NewQuicktestRunner(o.project, o.config.QuicktestPath).Command()
}

// RandomtestCommand returns the randomtest invocation for s without running
// it.
func (o *Orchestrator) RandomtestCommand(s settings.Settings) process.Command {
	return process.NewRandomtestRunner(o.project, o.config.RandomtestPath, s).Command()
}

// ResolveSettings resolves randomtest settings from source. A failed
// snapshot save is logged and the settings are still returned.
func (o *Orchestrator) ResolveSettings(ctx context.Context, source settings.Source) (settings.Settings, error) {
	s, err := o.resolver.Resolve(ctx, source)
	if err != nil {
		var snapErr *settings.SnapshotError
		if !errors.As(err, &snapErr) {
			return settings.Settings{}, err
		}
		o.logger.Warn("settings_snapshot_not_saved", "error", snapErr.Err)
	}
	return s, nil
}

// =============================================================================
// Runs
// =============================================================================

// RunQuicktest runs the quicktest script into a transient sink and blocks
// until it finishes.
func (o *Orchestrator) RunQuicktest(ctx context.Context) (supervisor.Result, error) {
	out := sink.NewTransient(QuicktestSinkName, o.output, 0)
	return o.run(ctx, o.QuicktestCommand(), out)
}

// RunRandomtest resolves settings from source and runs the randomtest
// script, blocking until it finishes. Results go to a document when the
// settings ask for one, else to a transient sink.
func (o *Orchestrator) RunRandomtest(ctx context.Context, source settings.Source) (supervisor.Result, error) {
	// Refuse before prompting for settings nobody can use.
	if o.supervisor.Running() {
		o.rejected(process.RandomtestName)
		return supervisor.Result{}, supervisor.ErrAlreadyRunning
	}

	s, err := o.ResolveSettings(ctx, source)
	if err != nil {
		return supervisor.Result{}, fmt.Errorf("resolve randomtest settings: %w", err)
	}

	return o.run(ctx, o.RandomtestCommand(s), o.randomtestSink(s))
}

// randomtestSink picks the sink for s.
func (o *Orchestrator) randomtestSink(s settings.Settings) sink.Sink {
	if !s.PutResultsInDocument {
		return sink.NewTransient(RandomtestSinkName, o.output, 0)
	}
	name := ResultsDocName
	if s.PutResultsInUniqueDocument {
		name = fmt.Sprintf("%s %s", ResultsDocName, uuid.NewString()[:8])
	}
	return sink.NewDocument(name)
}

// run starts cmd, waits for it and records the result.
func (o *Orchestrator) run(ctx context.Context, cmd process.Command, out sink.Sink) (supervisor.Result, error) {
	rs := stats.NewRunStats(cmd.Name, "", o.now())

	r, err := o.supervisor.Start(ctx, supervisor.Request{
		Command:   cmd,
		Sink:      out,
		Callbacks: o.wrapCallbacks(cmd.Name, rs),
	})
	if err != nil {
		if errors.Is(err, supervisor.ErrAlreadyRunning) {
			o.rejected(cmd.Name)
		}
		return supervisor.Result{}, err
	}

	res := r.Wait()
	o.record(res, rs)
	return res, nil
}

// wrapCallbacks feeds run events to metrics and stats before forwarding
// them to the caller's callbacks.
func (o *Orchestrator) wrapCallbacks(name string, rs *stats.RunStats) supervisor.Callbacks {
	user := o.callbacks
	return supervisor.Callbacks{
		OnStatus: func(running bool) {
			if running && o.metrics != nil {
				o.metrics.RunStarted(name)
			}
			if user.OnStatus != nil {
				user.OnStatus(running)
			}
		},
		OnError: func(scene string, line uint64, message string) {
			if o.metrics != nil {
				o.metrics.RecordScriptError(scene)
			}
			if user.OnError != nil {
				user.OnError(scene, line, message)
			}
		},
		OnIterationCount: func(count uint64) {
			interval := rs.RecordIteration(count, o.now())
			if o.metrics != nil {
				o.metrics.RecordIteration(name, count, interval)
			}
			if user.OnIterationCount != nil {
				user.OnIterationCount(count)
			}
		},
		OnMessage: user.OnMessage,
	}
}

func (o *Orchestrator) rejected(name string) {
	if o.metrics != nil {
		o.metrics.RunRejected()
	}
	o.logger.Debug("start_refused", "test", name)
}

// record adds a finished run to the metrics and history.
func (o *Orchestrator) record(res supervisor.Result, rs *stats.RunStats) {
	if o.metrics != nil {
		o.metrics.RunFinished(res.Name, res.Outcome.String(), res.Duration,
			res.Output.StdoutLines, res.Output.StderrLines)
	}
	o.history.Add(Summarize(res, rs))
}

// Summarize merges a run result with its iteration stats.
func Summarize(res supervisor.Result, rs *stats.RunStats) stats.Summary {
	s := rs.Summary()
	s.Name = res.Name
	s.RunID = res.RunID
	s.Outcome = res.Outcome.String()
	s.Message = res.Message
	s.Started = res.Started
	s.Duration = res.Duration
	if res.Iterations > s.Iterations {
		s.Iterations = res.Iterations
	}
	if res.Error != nil {
		s.ErrorLocation = fmt.Sprintf("%s:%d", res.Error.Scene, res.Error.Line)
	}
	s.StdoutChunks = res.Output.StdoutChunks
	s.StderrChunks = res.Output.StderrChunks
	s.StdoutLines = res.Output.StdoutLines
	s.StderrLines = res.Output.StderrLines
	s.StdoutBytes = res.Output.StdoutBytes
	s.StderrBytes = res.Output.StderrBytes
	return s
}

// Cancel requests termination of the active run. Returns false if no run is
// active.
func (o *Orchestrator) Cancel() bool {
	return o.supervisor.Cancel()
}

// Running reports whether a run is active.
func (o *Orchestrator) Running() bool {
	return o.supervisor.Running()
}

// History returns the summaries of finished runs.
func (o *Orchestrator) History() *stats.History {
	return o.history
}

// Metrics returns the metrics collector, or nil.
func (o *Orchestrator) Metrics() *metrics.Collector {
	return o.metrics
}
