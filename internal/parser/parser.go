// Package parser extracts structured events from quicktest/randomtest output.
//
// The test scripts write free-form text. Two fixed markers carry structure:
//
//	*****Iteration 42 of 100        iteration progress (randomtest)
//	chapter3 line 112: bad command  error location (last line before a failed exit)
//
// Extraction is best-effort: a line without a marker is a no-op, never an error.
package parser

import (
	"strings"

	"github.com/acarl005/stripansi"
)

// LineParser is implemented by IterationParser and anything else that wants
// to observe stdout one line at a time.
type LineParser interface {
	ParseLine(line string)
}

// StripANSI removes terminal color sequences. Node test harnesses colorize
// some of their output when they think they are on a TTY.
func StripANSI(s string) string {
	if !strings.Contains(s, "\x1b[") {
		return s
	}
	return stripansi.Strip(s)
}

// NormalizeChunk strips at most one trailing line terminator from a chunk.
//
// Output arrives in arbitrarily sized chunks. Most chunks end with a newline,
// and forwarding that newline would add a blank line to the sink.
func NormalizeChunk(chunk string) string {
	if strings.HasSuffix(chunk, "\r\n") {
		return chunk[:len(chunk)-2]
	}
	return strings.TrimSuffix(chunk, "\n")
}

// SplitLines splits a normalized chunk into lines, accepting \n and \r\n.
func SplitLines(chunk string) []string {
	lines := strings.Split(chunk, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// LastLine returns the final non-empty line of a chunk, trimmed and with
// ANSI sequences removed. Returns "" if the chunk holds only whitespace.
func LastLine(chunk string) string {
	lines := SplitLines(chunk)
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(StripANSI(lines[i])); l != "" {
			return l
		}
	}
	return ""
}
