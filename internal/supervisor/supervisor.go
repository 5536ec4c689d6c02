package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/randomizedcoder/go-cstest/internal/logging"
	"github.com/randomizedcoder/go-cstest/internal/parser"
	"github.com/randomizedcoder/go-cstest/internal/process"
	"github.com/randomizedcoder/go-cstest/internal/sink"
)

// MessageLevel is the severity of a user-facing message.
type MessageLevel int

const (
	MessageInfo MessageLevel = iota
	MessageWarning
	MessageError
)

// String returns the level name.
func (l MessageLevel) String() string {
	switch l {
	case MessageWarning:
		return "warning"
	case MessageError:
		return "error"
	default:
		return "info"
	}
}

// Message is a status line for the user, e.g. "Quicktest passed".
type Message struct {
	Level MessageLevel
	Text  string
}

// Callbacks contains optional callback functions for run events.
// They are called from the run's event goroutine, never concurrently.
type Callbacks struct {
	// OnStatus is called with true when a run starts and false when it ends.
	OnStatus func(running bool)

	// OnError is called at most once, when a failed run's last line carries
	// a scene location.
	OnError func(scene string, line uint64, message string)

	// OnIterationCount is called for every iteration marker on stdout.
	OnIterationCount func(count uint64)

	// OnMessage receives outcome and display messages.
	OnMessage func(Message)
}

func (c Callbacks) status(running bool) {
	if c.OnStatus != nil {
		c.OnStatus(running)
	}
}

func (c Callbacks) scriptError(loc parser.ErrorLocation, message string) {
	if c.OnError != nil {
		c.OnError(loc.Scene, loc.Line, message)
	}
}

func (c Callbacks) iteration(n uint64) {
	if c.OnIterationCount != nil {
		c.OnIterationCount(n)
	}
}

func (c Callbacks) message(level MessageLevel, text string) {
	if c.OnMessage != nil {
		c.OnMessage(Message{Level: level, Text: text})
	}
}

// Request describes a run to start.
type Request struct {
	process.Command

	// Sink receives the run's output. Document sinks are displayed when the
	// run ends.
	Sink sink.Sink

	Callbacks Callbacks
}

// Config holds configuration for creating a new Supervisor.
type Config struct {
	Logger *slog.Logger

	// Displayer shows Document sinks after the run. nil skips display.
	Displayer *sink.Displayer

	// Now returns the time used in banners. Defaults to time.Now.
	Now func() time.Time

	// DrainTimeout bounds how long output is read after the process exits.
	// Defaults to DefaultDrainTimeout.
	DrainTimeout time.Duration
}

// DefaultDrainTimeout is how long a run keeps reading output after its
// process exited, for pipes still held open by processes it left behind.
const DefaultDrainTimeout = 2 * time.Second

// Supervisor enforces at most one active run.
type Supervisor struct {
	logger       *slog.Logger
	displayer    *sink.Displayer
	now          func() time.Time
	drainTimeout time.Duration

	mu     sync.Mutex
	active *Run
}

// New creates a new Supervisor with the given configuration.
func New(cfg Config) *Supervisor {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	drain := cfg.DrainTimeout
	if drain <= 0 {
		drain = DefaultDrainTimeout
	}
	return &Supervisor{
		logger:       logger,
		displayer:    cfg.Displayer,
		now:          now,
		drainTimeout: drain,
	}
}

// Start launches req. It fails fast with ErrAlreadyRunning while another run
// is active, without touching req.Sink.
//
// The returned Run completes asynchronously; use Wait for its Result.
// Cancelling ctx terminates the process the same way Cancel does.
func (s *Supervisor) Start(ctx context.Context, req Request) (*Run, error) {
	if req.Sink == nil {
		return nil, fmt.Errorf("start %s: no output sink", req.Name)
	}

	s.mu.Lock()
	if s.active != nil {
		active := s.active
		s.mu.Unlock()
		s.logger.Warn("run_rejected",
			"test", req.Name,
			"active_test", active.Name,
			"active_run_id", active.ID,
		)
		return nil, ErrAlreadyRunning
	}
	r := newRun(s, req)
	s.active = r
	s.mu.Unlock()

	r.setState(StateRunning)
	req.Callbacks.status(true)

	req.Sink.Clear()
	req.Sink.Show()
	req.Sink.Append(fmt.Sprintf("%s started at %s", req.Name, r.started.Format(time.RFC3339)))

	s.logger.Info("run_started",
		"test", req.Name,
		"run_id", r.ID,
		"command", req.Command.String(),
	)

	r.spawn(ctx)
	go r.loop(context.WithoutCancel(ctx))
	return r, nil
}

// Cancel sends SIGTERM to the active run. Returns false if no run is active
// or it could not be signalled. Completion is reported through the run's
// normal exit classification.
func (s *Supervisor) Cancel() bool {
	r := s.Active()
	if r == nil {
		return false
	}
	return r.Cancel() == nil
}

// Active returns the active run, or nil.
func (s *Supervisor) Active() *Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Running reports whether a run is active.
func (s *Supervisor) Running() bool {
	return s.Active() != nil
}

// release clears the active run if it is r.
func (s *Supervisor) release(r *Run) {
	s.mu.Lock()
	if s.active == r {
		s.active = nil
	}
	s.mu.Unlock()
}

func newRunID() string {
	return uuid.NewString()
}

// signalGroup sends sig to the process group of pid, falling back to the
// process alone.
func signalGroup(pid int, sig syscall.Signal) error {
	if pgid, err := syscall.Getpgid(pid); err == nil {
		return syscall.Kill(-pgid, sig)
	}
	return syscall.Kill(pid, sig)
}
