package process

import (
	"strconv"

	"github.com/randomizedcoder/go-cstest/internal/settings"
)

// Test names shown in banners and messages.
const (
	QuicktestName  = "Quicktest"
	RandomtestName = "Randomtest"
)

// Project locates a ChoiceScript project and the interpreter for its scripts.
type Project struct {
	// Interpreter runs the test scripts, e.g. "node". Empty runs them directly.
	Interpreter string

	// ChoicescriptPath is the ChoiceScript module directory.
	ChoicescriptPath string

	// ScenesPath holds the scene files.
	ScenesPath string

	// ImagesPath holds the image files.
	ImagesPath string

	// Dir is the working directory for the test process.
	Dir string
}

// QuicktestRunner implements Runner for the quicktest script.
type QuicktestRunner struct {
	project Project
	script  string
}

// NewQuicktestRunner creates a quicktest runner.
func NewQuicktestRunner(project Project, script string) *QuicktestRunner {
	return &QuicktestRunner{project: project, script: script}
}

// Name returns "Quicktest".
func (r *QuicktestRunner) Name() string {
	return QuicktestName
}

// Args returns the script arguments. The third slot is reserved and always
// empty.
func (r *QuicktestRunner) Args() []string {
	return []string{
		r.project.ChoicescriptPath,
		r.project.ScenesPath,
		"",
		r.project.ImagesPath,
	}
}

// Command implements Runner.
func (r *QuicktestRunner) Command() Command {
	path, args := resolve(r.project.Interpreter, r.script, r.Args())
	return Command{Name: r.Name(), Path: path, Args: args, Dir: r.project.Dir}
}

// RandomtestRunner implements Runner for the randomtest script.
type RandomtestRunner struct {
	project  Project
	script   string
	settings settings.Settings
}

// NewRandomtestRunner creates a randomtest runner for resolved settings.
func NewRandomtestRunner(project Project, script string, s settings.Settings) *RandomtestRunner {
	return &RandomtestRunner{project: project, script: script, settings: s}
}

// Name returns "Randomtest".
func (r *RandomtestRunner) Name() string {
	return RandomtestName
}

// Args returns the key=value arguments in the order randomtest expects.
// saveStats=true is always last.
func (r *RandomtestRunner) Args() []string {
	s := r.settings
	return []string{
		"cs=" + r.project.ChoicescriptPath,
		"project=" + r.project.ScenesPath,
		"num=" + strconv.FormatUint(s.Iterations, 10),
		"seed=" + strconv.FormatUint(s.Seed, 10),
		"showText=" + strconv.FormatBool(s.ShowFullText),
		"avoidUsedOptions=" + strconv.FormatBool(s.AvoidUsedOptions),
		"showChoices=" + strconv.FormatBool(s.ShowChoices),
		"showCoverage=" + strconv.FormatBool(s.ShowCoverage),
		"saveStats=true",
	}
}

// Settings returns the settings the runner was built with.
func (r *RandomtestRunner) Settings() settings.Settings {
	return r.settings
}

// Command implements Runner.
func (r *RandomtestRunner) Command() Command {
	path, args := resolve(r.project.Interpreter, r.script, r.Args())
	return Command{Name: r.Name(), Path: path, Args: args, Dir: r.project.Dir}
}

var (
	_ Runner = (*QuicktestRunner)(nil)
	_ Runner = (*RandomtestRunner)(nil)
)
