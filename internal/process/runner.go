// Package process builds the commands that run the ChoiceScript test scripts.
package process

import (
	"context"
	"os/exec"
	"strings"

	"al.essio.dev/pkg/shellescape"
)

// Runner creates executable commands for a test.
// This interface allows the supervisor to be test-agnostic.
type Runner interface {
	// Command returns the command to run. Nothing is started.
	Command() Command

	// Name returns the human-readable test name, e.g. "Quicktest".
	Name() string
}

// Command is a resolved invocation of a test script.
type Command struct {
	Name string   // human label
	Path string   // executable
	Args []string // arguments, not including Path
	Dir  string   // working directory ("" = inherit)
}

// Build returns an unstarted exec.Cmd for c.
func (c Command) Build(ctx context.Context) *exec.Cmd {
	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Dir = c.Dir
	return cmd
}

// String returns the command line, shell-escaped so it can be pasted.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, shellescape.Quote(c.Path))
	for _, a := range c.Args {
		parts = append(parts, shellescape.Quote(a))
	}
	return strings.Join(parts, " ")
}

// resolve places script behind interpreter, or runs it directly when no
// interpreter is configured.
func resolve(interpreter, script string, args []string) (string, []string) {
	if interpreter == "" {
		return script, args
	}
	return interpreter, append([]string{script}, args...)
}
