package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"trace", slog.LevelInfo},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			result := parseLevel(tc.input)
			if result != tc.expected {
				t.Errorf("parseLevel(%q) = %v, want %v", tc.input, result, tc.expected)
			}
		})
	}
}

func TestNew_VerboseForcesDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Format: "text", Level: "error", Verbose: true, Writer: &buf})
	logger.Debug("debug message")

	output := buf.String()
	if !strings.Contains(output, "debug message") {
		t.Errorf("verbose logger dropped debug message: %q", output)
	}
	if !strings.Contains(output, "source=") {
		t.Errorf("verbose logger should add source locations: %q", output)
	}
}

func TestNew_DefaultFormatIsJSON(t *testing.T) {
	var buf bytes.Buffer
	New(Options{Writer: &buf}).Info("run_started", "test", "Quicktest")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if entry["msg"] != "run_started" || entry["test"] != "Quicktest" {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestNewLoggerWithWriter_Text(t *testing.T) {
	var buf bytes.Buffer

	logger := NewLoggerWithWriter(&buf, "text", "info")
	logger.Info("test message", "key", "value")

	output := buf.String()
	if !strings.Contains(output, "test message") {
		t.Errorf("Expected message in output, got: %s", output)
	}
	if !strings.Contains(output, "key=value") {
		t.Errorf("Expected key=value in output, got: %s", output)
	}
}

func TestNewLoggerWithWriter_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, "text", "warn")

	logger.Info("info message")
	logger.Warn("warn message")

	output := buf.String()
	if strings.Contains(output, "info message") {
		t.Error("warn-level logger should not log info")
	}
	if !strings.Contains(output, "warn message") {
		t.Error("warn-level logger should log warn")
	}
}

func TestNewLoggerWithWriter_NilWriter(t *testing.T) {
	logger := NewLoggerWithWriter(nil, "json", "info")
	// Should not panic
	logger.Info("dropped")
}

func TestSetDefault(t *testing.T) {
	orig := slog.Default()
	defer slog.SetDefault(orig)

	var buf bytes.Buffer
	SetDefault(NewLoggerWithWriter(&buf, "text", "info"))
	slog.Info("via default")

	if !strings.Contains(buf.String(), "via default") {
		t.Errorf("default logger not replaced: %q", buf.String())
	}
}

// =============================================================================
// OutputLogger
// =============================================================================

func TestOutputLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	h := NewOutputLogger(NewLoggerWithWriter(&buf, "text", "info"), "Randomtest", "run-1")

	h.HandleLine(StreamStdout, "*****Iteration 1 ")
	h.HandleLine(StreamStderr, "TypeError: x is undefined")

	output := buf.String()
	if strings.Contains(output, "Iteration") {
		t.Error("stdout lines should be logged at debug only")
	}
	if !strings.Contains(output, "TypeError") {
		t.Errorf("stderr line missing from log: %q", output)
	}
	if !strings.Contains(output, "run_id=run-1") || !strings.Contains(output, "test=Randomtest") {
		t.Errorf("run attributes missing: %q", output)
	}

	stdout, stderr := h.Lines()
	if stdout != 1 || stderr != 1 {
		t.Errorf("Lines() = %d, %d, want 1, 1", stdout, stderr)
	}
}

func TestOutputLogger_Truncation(t *testing.T) {
	var buf bytes.Buffer
	h := NewOutputLogger(NewLoggerWithWriter(&buf, "json", "debug"), "Quicktest", "run-2")

	h.HandleLine(StreamStdout, strings.Repeat("x", MaxLineLength+100))

	if !strings.Contains(buf.String(), "...(truncated)") {
		t.Error("long line was not truncated")
	}
}

func TestOutputLogger_Concurrent(t *testing.T) {
	h := NewOutputLogger(Discard(), "Quicktest", "run-3")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				h.HandleLine(StreamStdout, "line")
				h.HandleLine(StreamStderr, "err")
			}
		}()
	}
	wg.Wait()

	stdout, stderr := h.Lines()
	if stdout != 1000 || stderr != 1000 {
		t.Errorf("Lines() = %d, %d, want 1000, 1000", stdout, stderr)
	}
}
