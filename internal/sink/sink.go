// Package sink provides the destinations that receive streamed test output.
//
// Two implementations share the Sink interface:
//
//	Transient  bounded in-memory ring, echoed live to a writer (the "output channel")
//	Document   every line retained until cleared, displayed when the run ends,
//	           saved to a file instead when it grows past OverflowLineThreshold
package sink

// Sink accepts output lines from a test run.
type Sink interface {
	// Append adds a single line.
	Append(line string)

	// AppendBlock adds lines in order.
	AppendBlock(lines []string)

	// Clear discards all retained lines.
	Clear()

	// Show makes the sink visible to the user.
	Show()

	// Name identifies the sink (used for display and overflow filenames).
	Name() string
}
