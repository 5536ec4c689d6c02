package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"

	"github.com/randomizedcoder/go-cstest/internal/config"
	"github.com/randomizedcoder/go-cstest/internal/logging"
	"github.com/randomizedcoder/go-cstest/internal/metrics"
	"github.com/randomizedcoder/go-cstest/internal/orchestrator"
	"github.com/randomizedcoder/go-cstest/internal/settings"
	"github.com/randomizedcoder/go-cstest/internal/stats"
	"github.com/randomizedcoder/go-cstest/internal/supervisor"
	"github.com/randomizedcoder/go-cstest/internal/tui"
	"github.com/randomizedcoder/go-cstest/internal/wizard"
)

// Exit codes for test commands.
const (
	exitPassed    = 0
	exitFailed    = 1
	exitSignal    = 2
	exitCancelled = 130
)

const flagSource = "source"

func sourceFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    flagSource,
		Aliases: []string{"s"},
		Usage:   `Where randomtest settings come from: "configured", "last" or "interactive"`,
		Value:   settings.SourceConfigured.String(),
	}
}

func quicktestCommand() *cli.Command {
	return &cli.Command{
		Name:  "quicktest",
		Usage: "Run quicktest against the game's scenes",
		Flags: config.Flags(),
		Action: func(c *cli.Context) error {
			return runTest(c, false, func(ctx context.Context, e *env) (supervisor.Result, error) {
				if e.cfg.PrintCmd {
					fmt.Fprintln(e.stdout, e.orch.QuicktestCommand().String())
					return supervisor.Result{}, errPrinted
				}
				return e.orch.RunQuicktest(ctx)
			})
		},
	}
}

func randomtestCommand() *cli.Command {
	return &cli.Command{
		Name:  "randomtest",
		Usage: "Run randomtest playthroughs of the game",
		Flags: append(config.Flags(), sourceFlag()),
		Action: func(c *cli.Context) error {
			source, err := settings.ParseSource(c.String(flagSource))
			if err != nil {
				return cli.Exit(err.Error(), exitFailed)
			}
			return runTest(c, source == settings.SourceInteractive, func(ctx context.Context, e *env) (supervisor.Result, error) {
				if e.cfg.PrintCmd {
					s, err := e.orch.ResolveSettings(ctx, source)
					if err != nil {
						return supervisor.Result{}, err
					}
					fmt.Fprintln(e.stdout, e.orch.RandomtestCommand(s).String())
					return supervisor.Result{}, errPrinted
				}
				return e.orch.RunRandomtest(ctx, source)
			})
		},
	}
}

// errPrinted ends a --print-cmd invocation without running anything.
var errPrinted = errors.New("command printed")

// env holds what a test command needs.
type env struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	orch     *orchestrator.Orchestrator
	stdout   io.Writer
	stderr   io.Writer
}

// newEnv loads and validates the configuration and builds the
// orchestrator. With interactive set, logs are discarded so they do not
// draw over the settings dialog. With readOnly set (or --print-cmd),
// resolving settings does not replace the last-run snapshot.
func newEnv(c *cli.Context, interactive, readOnly bool) (*env, error) {
	cfg, err := config.FromContext(c)
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("Error loading config: %v", err), exitFailed)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, cli.Exit(fmt.Sprintf("Configuration error: %v", err), exitFailed)
	}

	stdout, stderr := c.App.Writer, c.App.ErrWriter

	var logger *slog.Logger
	if interactive {
		logger = logging.NewLoggerWithWriter(io.Discard, cfg.LogFormat, cfg.LogLevel)
	} else {
		logger = logging.New(logging.Options{
			Format:  cfg.LogFormat,
			Level:   cfg.LogLevel,
			Verbose: cfg.Verbose,
			Writer:  stderr,
		})
	}
	logging.SetDefault(logger)

	store := snapshotStore(cfg)
	if readOnly || cfg.PrintCmd {
		store = readOnlyStore{store}
	}

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollectorWithRegistry(metrics.CollectorConfig{
		Version:     version,
		ProjectPath: cfg.ScenesPath,
	}, registry)

	orch := orchestrator.New(cfg, logger, orchestrator.Options{
		Collector: wizard.Collector{Prompter: &tui.Prompter{Out: stderr}},
		Store:     store,
		Metrics:   collector,
		Output:    stdout,
		Callbacks: statusCallbacks(stderr, cfg.ScenesPath),
	})

	return &env{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		orch:     orch,
		stdout:   stdout,
		stderr:   stderr,
	}, nil
}

// runTest sets up the environment, runs start and maps the result to an
// exit code. SIGINT and SIGTERM cancel the settings dialog or the run.
func runTest(c *cli.Context, interactive bool, start func(context.Context, *env) (supervisor.Result, error)) error {
	e, err := newEnv(c, interactive, false)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !e.cfg.PrintCmd && !e.cfg.SkipPreflight {
		if err := e.orch.Preflight(ctx, e.stderr); err != nil {
			return cli.Exit(err.Error(), exitFailed)
		}
	}

	if e.cfg.MetricsAddr != "" && !e.cfg.PrintCmd {
		server := metrics.NewServer(e.cfg.MetricsAddr, e.registry, e.logger)
		if err := server.Start(); err != nil {
			return cli.Exit(fmt.Sprintf("failed to start metrics server: %v", err), exitFailed)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				e.logger.Warn("metrics_server_shutdown_error", "error", err)
			}
		}()
	}

	e.logger.Info("starting", "version", version, "command", c.Command.Name, "scenes", e.cfg.ScenesPath)

	res, err := start(ctx, e)
	e.dumpMetrics()

	switch {
	case errors.Is(err, errPrinted):
		return nil
	case errors.Is(err, wizard.ErrCancelled):
		return cli.Exit(tui.StatusLine(tui.LevelWarning, "Settings dialog cancelled"), exitCancelled)
	case err != nil:
		return cli.Exit(tui.StatusLine(tui.LevelError, "%v", err), exitFailed)
	}

	if last, ok := e.orch.History().Last(); ok {
		fmt.Fprint(e.stdout, stats.FormatRunSummary(last))
	}
	return outcomeExit(res)
}

// dumpMetrics writes the metrics file if one is configured.
func (e *env) dumpMetrics() {
	if e.cfg.MetricsFile == "" {
		return
	}
	if err := metrics.WriteFile(e.cfg.MetricsFile, e.registry); err != nil {
		e.logger.Warn("metrics_file_write_failed", "path", e.cfg.MetricsFile, "error", err)
		return
	}
	e.logger.Debug("metrics_file_written", "path", e.cfg.MetricsFile)
}

// outcomeExit maps a run outcome to the command's exit.
func outcomeExit(res supervisor.Result) error {
	switch res.Outcome {
	case supervisor.OutcomePassed:
		return nil
	case supervisor.OutcomeCancelled:
		return cli.Exit("", exitCancelled)
	case supervisor.OutcomeFailed:
		return cli.Exit("", exitFailed)
	default:
		return cli.Exit("", exitSignal)
	}
}

// statusCallbacks prints run messages and script error locations to w.
func statusCallbacks(w io.Writer, scenesPath string) supervisor.Callbacks {
	return supervisor.Callbacks{
		OnError: func(scene string, line uint64, message string) {
			fmt.Fprintln(w, tui.StatusLine(tui.LevelError, "%s:%d: %s",
				filepath.Join(scenesPath, scene+".txt"), line, message))
		},
		OnMessage: func(m supervisor.Message) {
			fmt.Fprintln(w, tui.StatusLine(messageLevel(m.Level), "%s", m.Text))
		},
	}
}

func messageLevel(l supervisor.MessageLevel) tui.Level {
	switch l {
	case supervisor.MessageError:
		return tui.LevelError
	case supervisor.MessageWarning:
		return tui.LevelWarning
	default:
		return tui.LevelInfo
	}
}
