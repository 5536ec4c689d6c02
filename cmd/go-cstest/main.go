// Package main provides the go-cstest CLI entry point.
//
// go-cstest runs the ChoiceScript quicktest and randomtest scripts against a
// game project, one run at a time, and reports how they ended.
//
// Usage:
//
//	go-cstest quicktest [options]
//	go-cstest randomtest [--source configured|last|interactive] [options]
//	go-cstest settings show [--source ...] [options]
//	go-cstest version
//
// Exit codes:
//   - 0: test passed
//   - 1: test failed, or a usage or configuration error
//   - 2: test ended with an unexpected signal
//   - 130: test or settings dialog cancelled
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"
)

// version is set at build time via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0" ./cmd/go-cstest
var version = "dev"

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	app := newApp(stdout, stderr)
	if err := app.Run(args); err != nil {
		return exitCode(err, stderr)
	}
	return 0
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "go-cstest",
		Usage:     "Run ChoiceScript quicktest and randomtest",
		Version:   version,
		Writer:    stdout,
		ErrWriter: stderr,
		// Exit codes are mapped in run
		ExitErrHandler: func(*cli.Context, error) {},
		Commands: []*cli.Command{
			quicktestCommand(),
			randomtestCommand(),
			settingsCommand(),
			versionCommand(),
		},
	}
}

// exitCode maps an error from the app to an exit code, printing its
// message unless it is empty.
func exitCode(err error, stderr io.Writer) int {
	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		msg := exitCoder.Error()
		// cli.Exit("", N).Error() returns "exit status N"
		if msg != "" && msg != fmt.Sprintf("exit status %d", code) {
			fmt.Fprintln(stderr, msg)
		}
		return code
	}

	fmt.Fprintf(stderr, "Error: %v\n", err)
	return 1
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show version information",
		Action: func(c *cli.Context) error {
			fmt.Fprintf(c.App.Writer, "go-cstest %s\n", version)
			return nil
		},
	}
}
