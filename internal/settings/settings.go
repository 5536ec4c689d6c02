// Package settings resolves randomtest settings from configuration, the
// previous run, or an interactive wizard.
package settings

import (
	"fmt"
	"strings"
)

// Settings are the options passed to randomtest.
type Settings struct {
	Iterations       uint64 `msgpack:"iterations" yaml:"iterations"`
	Seed             uint64 `msgpack:"seed" yaml:"seed"`
	ShowFullText     bool   `msgpack:"show_full_text" yaml:"show_full_text"`
	AvoidUsedOptions bool   `msgpack:"avoid_used_options" yaml:"avoid_used_options"`
	ShowChoices      bool   `msgpack:"show_choices" yaml:"show_choices"`
	ShowCoverage     bool   `msgpack:"show_coverage" yaml:"show_coverage"`

	// PutResultsInDocument is derived from DocumentMode and ShowFullText.
	// It is recomputed on every resolution and never set by the user.
	PutResultsInDocument bool `msgpack:"put_results_in_document" yaml:"put_results_in_document"`

	// PutResultsInUniqueDocument always follows the live configuration,
	// even when replaying a previous run.
	PutResultsInUniqueDocument bool `msgpack:"put_results_in_unique_document" yaml:"put_results_in_unique_document"`
}

// DocumentMode controls when randomtest output goes to a Document sink.
type DocumentMode string

const (
	// DocumentAlways puts results in a document for every run.
	DocumentAlways DocumentMode = "always"

	// DocumentFulltext puts results in a document only when full text is shown.
	DocumentFulltext DocumentMode = "fulltext"

	// DocumentNever always uses the transient output channel.
	DocumentNever DocumentMode = "never"
)

// ParseDocumentMode parses "always", "fulltext" or "never" (case-insensitive).
func ParseDocumentMode(s string) (DocumentMode, error) {
	switch m := DocumentMode(strings.ToLower(strings.TrimSpace(s))); m {
	case DocumentAlways, DocumentFulltext, DocumentNever:
		return m, nil
	default:
		return "", fmt.Errorf("invalid document mode %q (want always, fulltext or never)", s)
	}
}

// PutResultsInDocument applies the derivation rule:
// mode is always, or mode is fulltext and full text is shown.
func (m DocumentMode) PutResultsInDocument(showFullText bool) bool {
	return m == DocumentAlways || (m == DocumentFulltext && showFullText)
}

// Source selects where settings come from.
type Source int

const (
	// SourceConfigured reads the settings from configuration.
	SourceConfigured Source = iota

	// SourceLastRun replays the settings of the previous run.
	SourceLastRun

	// SourceInteractive asks the user step by step.
	SourceInteractive
)

// String returns the flag value for the source.
func (s Source) String() string {
	switch s {
	case SourceConfigured:
		return "configured"
	case SourceLastRun:
		return "last"
	case SourceInteractive:
		return "interactive"
	default:
		return "unknown"
	}
}

// ParseSource parses "configured", "last" or "interactive".
func ParseSource(s string) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "configured", "config", "":
		return SourceConfigured, nil
	case "last", "last-run", "lastrun":
		return SourceLastRun, nil
	case "interactive", "wizard":
		return SourceInteractive, nil
	default:
		return 0, fmt.Errorf("invalid settings source %q (want configured, last or interactive)", s)
	}
}
