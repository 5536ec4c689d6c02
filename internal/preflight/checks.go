// Package preflight provides startup validation checks.
package preflight

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/randomizedcoder/go-cstest/internal/process"
)

// Check represents the result of a single preflight check.
type Check struct {
	Name     string // Name of the check
	Required int    // Required value (if applicable)
	Actual   int    // Actual value found
	Passed   bool   // Whether the check passed
	Warning  bool   // True if it's a warning (non-fatal)
	Message  string // Additional context
}

// Result holds the results of all preflight checks.
type Result struct {
	Checks []Check
	Passed bool
}

// String returns a human-readable summary of the check.
func (c Check) String() string {
	status := "✓"
	if !c.Passed {
		status = "✗"
	} else if c.Warning {
		status = "⚠"
	}

	if c.Required > 0 {
		return fmt.Sprintf("  %s %s: %d available (need %d)", status, c.Name, c.Actual, c.Required)
	}
	return fmt.Sprintf("  %s %s: %s", status, c.Name, c.Message)
}

// Options locates everything a test run needs.
type Options struct {
	Interpreter      string
	QuicktestPath    string
	RandomtestPath   string
	ChoicescriptPath string
	ScenesPath       string
	ImagesPath       string
	WorkspaceRoot    string

	// Dir resolves relative paths ("" = current directory).
	Dir string
}

// MinFileDescriptors is the open file limit below which a run is refused.
// A run holds two pipes, the document file and the metrics listener.
const MinFileDescriptors = 64

// RunAll executes all preflight checks.
func RunAll(ctx context.Context, opts Options) *Result {
	result := &Result{
		Checks: make([]Check, 0, 8),
		Passed: true,
	}

	add := func(c Check) {
		result.Checks = append(result.Checks, c)
		if !c.Passed {
			result.Passed = false
		}
	}

	add(checkFileDescriptors(MinFileDescriptors))
	if opts.Interpreter != "" {
		add(checkInterpreter(ctx, opts.Interpreter, opts.Dir))
	}
	add(checkScript("quicktest_script", opts.QuicktestPath, opts.Interpreter == "", opts.Dir))
	add(checkScript("randomtest_script", opts.RandomtestPath, opts.Interpreter == "", opts.Dir))
	add(checkDir("choicescript_dir", opts.ChoicescriptPath, opts.Dir, false))
	add(checkDir("scenes_dir", opts.ScenesPath, opts.Dir, false))
	// Images are optional for both scripts
	add(checkDir("images_dir", opts.ImagesPath, opts.Dir, true))
	add(checkWorkspace(opts.WorkspaceRoot, opts.Dir))

	return result
}

// checkFileDescriptors verifies sufficient file descriptors are available.
func checkFileDescriptors(required int) Check {
	var limit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &limit); err != nil {
		return Check{
			Name:    "file_descriptors",
			Passed:  true,
			Warning: true,
			Message: fmt.Sprintf("unable to check: %v", err),
		}
	}

	actual := int(limit.Cur)
	if limit.Cur > uint64(1<<31-1) {
		actual = 1<<31 - 1
	}

	return Check{
		Name:     "file_descriptors",
		Required: required,
		Actual:   actual,
		Passed:   actual >= required,
		Message:  fmt.Sprintf("ulimit -n %d (need %d)", actual, required),
	}
}

// checkInterpreter verifies the interpreter is available and reports its
// version when it answers --version.
func checkInterpreter(ctx context.Context, name, dir string) Check {
	path, err := process.LookPath(name, dir)
	if err != nil {
		return Check{
			Name:    "interpreter",
			Passed:  false,
			Message: fmt.Sprintf("%s not found: %v", name, err),
		}
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	version := "unknown"
	// "v20.11.1"
	if out, err := exec.CommandContext(ctx, path, "--version").Output(); err == nil {
		if fields := strings.Fields(string(out)); len(fields) > 0 {
			version = fields[0]
		}
	}

	return Check{
		Name:    "interpreter",
		Passed:  true,
		Message: fmt.Sprintf("found at %s (version %s)", path, version),
	}
}

// checkScript verifies a test script exists. Scripts run without an
// interpreter must also be executable.
func checkScript(name, path string, direct bool, dir string) Check {
	if path == "" {
		return Check{Name: name, Passed: false, Message: "not configured"}
	}
	full := resolvePath(path, dir)

	info, err := os.Stat(full)
	if err != nil {
		if direct && filepath.Base(path) == path {
			// Bare names run directly are looked up on PATH
			if found, lerr := process.LookPath(path, dir); lerr == nil {
				return Check{Name: name, Passed: true, Message: "found at " + found}
			}
		}
		return Check{Name: name, Passed: false, Message: fmt.Sprintf("%s: %v", full, err)}
	}
	if info.IsDir() {
		return Check{Name: name, Passed: false, Message: full + " is a directory"}
	}
	if direct && info.Mode().Perm()&0o111 == 0 {
		return Check{Name: name, Passed: false, Message: full + " is not executable"}
	}
	return Check{Name: name, Passed: true, Message: full}
}

// checkDir verifies a project directory exists. Optional directories only
// warn.
func checkDir(name, path, dir string, optional bool) Check {
	fail := func(msg string) Check {
		if optional {
			return Check{Name: name, Passed: true, Warning: true, Message: msg}
		}
		return Check{Name: name, Passed: false, Message: msg}
	}

	if path == "" {
		return fail("not configured")
	}
	full := resolvePath(path, dir)
	info, err := os.Stat(full)
	if err != nil {
		return fail(fmt.Sprintf("%s: %v", full, err))
	}
	if !info.IsDir() {
		return fail(full + " is not a directory")
	}
	return Check{Name: name, Passed: true, Message: full}
}

// checkWorkspace verifies result documents and the settings snapshot can be
// written. Warning only: quicktest never writes there.
func checkWorkspace(path, dir string) Check {
	if path == "" {
		return Check{
			Name:    "workspace",
			Passed:  true,
			Warning: true,
			Message: "no workspace root; oversized documents cannot be saved",
		}
	}
	full := resolvePath(path, dir)
	f, err := os.CreateTemp(full, ".cstest-preflight-*")
	if err != nil {
		return Check{
			Name:    "workspace",
			Passed:  true,
			Warning: true,
			Message: fmt.Sprintf("%s not writable: %v", full, err),
		}
	}
	name := f.Name()
	f.Close()
	os.Remove(name)

	return Check{Name: "workspace", Passed: true, Message: full + " writable"}
}

func resolvePath(path, dir string) string {
	if filepath.IsAbs(path) || dir == "" {
		return path
	}
	return filepath.Join(dir, path)
}

// PrintResults writes the preflight check results to w.
func PrintResults(w io.Writer, result *Result) {
	fmt.Fprintln(w, "Preflight checks:")
	for _, check := range result.Checks {
		fmt.Fprintln(w, check.String())
		if !check.Passed {
			fmt.Fprintf(w, "    Fix: %s\n", suggestFix(check.Name))
		}
	}
	fmt.Fprintln(w)
}

// Failed returns the names of the checks that did not pass.
func (r *Result) Failed() []string {
	var names []string
	for _, c := range r.Checks {
		if !c.Passed {
			names = append(names, c.Name)
		}
	}
	return names
}

// suggestFix returns a suggestion for fixing a failed check.
func suggestFix(name string) string {
	switch name {
	case "file_descriptors":
		return "ulimit -n 1024 (or edit /etc/security/limits.conf)"
	case "interpreter":
		return "install node (apt install nodejs / brew install node) or set --interpreter"
	case "quicktest_script", "randomtest_script":
		return "point --quicktest / --randomtest at the scripts from the ChoiceScript repo"
	case "choicescript_dir":
		return "set --choicescript to the ChoiceScript checkout"
	case "scenes_dir":
		return "set --scenes to the game's scenes directory"
	default:
		return "see documentation"
	}
}
