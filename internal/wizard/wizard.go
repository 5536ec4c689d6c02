// Package wizard collects randomtest settings one step at a time.
//
// The wizard is a state machine over a fixed sequence of steps:
//
//	iterations -> seed -> show full text -> avoid used options -> show choices -> show coverage -> done
//
// Each step can be answered (advance), rejected by validation (stay), backed
// out of (return to the previous step with its entered value as default), or
// cancelled. The Prompter that renders steps is pluggable; internal/tui
// provides the terminal implementation.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/randomizedcoder/go-cstest/internal/settings"
)

// ErrCancelled is returned when the user abandons the wizard.
var ErrCancelled = errors.New("settings wizard cancelled")

// Step identifies a wizard step.
type Step int

const (
	StepIterations Step = iota
	StepSeed
	StepShowFullText
	StepAvoidUsedOptions
	StepShowChoices
	StepShowCoverage
	StepDone
)

// TotalSteps is the number of answerable steps.
const TotalSteps = int(StepDone)

// Kind is the input type of a step.
type Kind int

const (
	// KindInteger takes a non-negative integer typed as text.
	KindInteger Kind = iota

	// KindYesNo takes a yes/no choice.
	KindYesNo
)

// stepDef describes one step and its place in the transition table.
type stepDef struct {
	title       string
	placeholder string
	kind        Kind
	next        Step
	prev        Step
}

var steps = map[Step]stepDef{
	StepIterations: {
		title:       "Number of iterations",
		placeholder: "e.g. 1000",
		kind:        KindInteger,
		next:        StepSeed,
		prev:        StepIterations,
	},
	StepSeed: {
		title:       "Random seed",
		placeholder: "e.g. 0",
		kind:        KindInteger,
		next:        StepShowFullText,
		prev:        StepIterations,
	},
	StepShowFullText: {
		title: "Show full text?",
		kind:  KindYesNo,
		next:  StepAvoidUsedOptions,
		prev:  StepSeed,
	},
	StepAvoidUsedOptions: {
		title: "Avoid used options?",
		kind:  KindYesNo,
		next:  StepShowChoices,
		prev:  StepShowFullText,
	},
	StepShowChoices: {
		title: "Show choices?",
		kind:  KindYesNo,
		next:  StepShowCoverage,
		prev:  StepAvoidUsedOptions,
	},
	StepShowCoverage: {
		title: "Show coverage?",
		kind:  KindYesNo,
		next:  StepDone,
		prev:  StepShowChoices,
	},
}

// String returns the step title.
func (s Step) String() string {
	if def, ok := steps[s]; ok {
		return def.title
	}
	if s == StepDone {
		return "done"
	}
	return "unknown"
}

// ValidationError rejects an answer. The wizard stays on the same step.
type ValidationError struct {
	Step   Step
	Input  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %q %s", e.Step, e.Input, e.Reason)
}

// Prompt is what a Prompter shows for the current step.
type Prompt struct {
	Step        Step
	Number      int // 1-based
	Total       int
	Title       string
	Placeholder string
	Kind        Kind

	// Default is the value pre-filled for the step: the configured value,
	// or the value entered earlier if the user came back with Back.
	Default string

	// Err is the validation error of the previous answer to this step.
	Err error
}

// ReplyKind says what the user did with a prompt.
type ReplyKind int

const (
	ReplyAnswer ReplyKind = iota
	ReplyBack
	ReplyCancel
)

// Reply is the user's response to a prompt.
type Reply struct {
	Kind  ReplyKind
	Value string
}

// Prompter shows one prompt and waits for the reply. It blocks until the
// user answers or ctx is done.
type Prompter interface {
	Prompt(ctx context.Context, p Prompt) (Reply, error)
}

// Wizard holds the state of one settings dialog.
type Wizard struct {
	step    Step
	values  settings.Settings
	lastErr error
}

// New starts a wizard seeded with defaults.
func New(defaults settings.Settings) *Wizard {
	return &Wizard{step: StepIterations, values: defaults}
}

// Step returns the current step.
func (w *Wizard) Step() Step {
	return w.step
}

// Done reports whether every step has been answered.
func (w *Wizard) Done() bool {
	return w.step == StepDone
}

// Result returns the collected settings.
func (w *Wizard) Result() settings.Settings {
	return w.values
}

// Current returns the prompt for the current step.
func (w *Wizard) Current() Prompt {
	def := steps[w.step]
	return Prompt{
		Step:        w.step,
		Number:      int(w.step) + 1,
		Total:       TotalSteps,
		Title:       def.title,
		Placeholder: def.placeholder,
		Kind:        def.kind,
		Default:     w.currentValue(),
		Err:         w.lastErr,
	}
}

// Answer validates input for the current step and advances on success.
// On a *ValidationError the state is unchanged.
func (w *Wizard) Answer(input string) error {
	if w.Done() {
		return errors.New("wizard already complete")
	}
	def := steps[w.step]

	switch def.kind {
	case KindInteger:
		n, err := ParseUint(input)
		if err != nil {
			w.lastErr = &ValidationError{Step: w.step, Input: input, Reason: err.Error()}
			return w.lastErr
		}
		switch w.step {
		case StepIterations:
			w.values.Iterations = n
		case StepSeed:
			w.values.Seed = n
		}

	case KindYesNo:
		b, err := ParseYesNo(input)
		if err != nil {
			w.lastErr = &ValidationError{Step: w.step, Input: input, Reason: err.Error()}
			return w.lastErr
		}
		switch w.step {
		case StepShowFullText:
			w.values.ShowFullText = b
		case StepAvoidUsedOptions:
			w.values.AvoidUsedOptions = b
		case StepShowChoices:
			w.values.ShowChoices = b
		case StepShowCoverage:
			w.values.ShowCoverage = b
		}
	}

	w.lastErr = nil
	w.step = def.next
	return nil
}

// Back returns to the previous step. Returns false on the first step.
func (w *Wizard) Back() bool {
	if w.Done() || w.step == StepIterations {
		return false
	}
	w.lastErr = nil
	w.step = steps[w.step].prev
	return true
}

// currentValue formats the stored value of the current step.
func (w *Wizard) currentValue() string {
	switch w.step {
	case StepIterations:
		return strconv.FormatUint(w.values.Iterations, 10)
	case StepSeed:
		return strconv.FormatUint(w.values.Seed, 10)
	case StepShowFullText:
		return FormatYesNo(w.values.ShowFullText)
	case StepAvoidUsedOptions:
		return FormatYesNo(w.values.AvoidUsedOptions)
	case StepShowChoices:
		return FormatYesNo(w.values.ShowChoices)
	case StepShowCoverage:
		return FormatYesNo(w.values.ShowCoverage)
	default:
		return ""
	}
}

// Run drives the wizard with p until it completes, the user cancels, or
// ctx is done. Cancellation of any kind returns ErrCancelled.
func Run(ctx context.Context, p Prompter, defaults settings.Settings) (settings.Settings, error) {
	w := New(defaults)
	for !w.Done() {
		if ctx.Err() != nil {
			return settings.Settings{}, ErrCancelled
		}

		reply, err := p.Prompt(ctx, w.Current())
		if err != nil {
			if errors.Is(err, ErrCancelled) || ctx.Err() != nil {
				return settings.Settings{}, ErrCancelled
			}
			return settings.Settings{}, fmt.Errorf("prompt %s: %w", w.Step(), err)
		}

		switch reply.Kind {
		case ReplyCancel:
			return settings.Settings{}, ErrCancelled
		case ReplyBack:
			w.Back()
		default:
			// Validation errors are shown on the next prompt of the same step.
			_ = w.Answer(reply.Value)
		}
	}
	return w.Result(), nil
}

// Collector adapts a Prompter to settings.Collector.
type Collector struct {
	Prompter Prompter
}

// Collect implements settings.Collector.
func (c Collector) Collect(ctx context.Context, defaults settings.Settings) (settings.Settings, error) {
	return Run(ctx, c.Prompter, defaults)
}

var _ settings.Collector = Collector{}

// ParseUint accepts a non-negative decimal integer, ignoring surrounding
// whitespace. Signs, separators, and trailing characters are rejected.
func ParseUint(input string) (uint64, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return 0, errors.New("is empty")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, errors.New("is not a non-negative integer")
		}
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, errors.New("is too large")
	}
	return n, nil
}

// ParseYesNo accepts yes/y/true and no/n/false, case-insensitively.
func ParseYesNo(input string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "yes", "y", "true":
		return true, nil
	case "no", "n", "false":
		return false, nil
	default:
		return false, errors.New("is not yes or no")
	}
}

// FormatYesNo renders a boolean the way ParseYesNo reads it.
func FormatYesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
