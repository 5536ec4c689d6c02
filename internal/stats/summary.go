package stats

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// FormatRunSummary renders the summary of one finished run as a two-column
// table.
func FormatRunSummary(s Summary) string {
	t := table.NewWriter()
	t.SetTitle("%s Summary", s.Name)
	t.SetStyle(table.StyleLight)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignRight},
	})

	t.AppendRow(table.Row{"Outcome", s.Outcome})
	if s.ErrorLocation != "" {
		t.AppendRow(table.Row{"Error at", s.ErrorLocation})
	}
	t.AppendRow(table.Row{"Duration", FormatDuration(s.Duration)})
	t.AppendRow(table.Row{"Iterations", s.Iterations})

	if s.IntervalSamples > 0 {
		t.AppendSeparator()
		t.AppendRow(table.Row{"Iteration P50", FormatMs(s.IntervalP50)})
		t.AppendRow(table.Row{"Iteration P95", FormatMs(s.IntervalP95)})
		t.AppendRow(table.Row{"Iteration P99", FormatMs(s.IntervalP99)})
		t.AppendRow(table.Row{"Iteration min/max", FormatMs(s.IntervalMin) + " / " + FormatMs(s.IntervalMax)})
	}

	t.AppendSeparator()
	t.AppendRow(table.Row{"Stdout", fmt.Sprintf("%s lines, %s chunks, %s",
		FormatNumber(s.StdoutLines), FormatNumber(s.StdoutChunks), FormatBytes(s.StdoutBytes))})
	t.AppendRow(table.Row{"Stderr", fmt.Sprintf("%s lines, %s chunks, %s",
		FormatNumber(s.StderrLines), FormatNumber(s.StderrChunks), FormatBytes(s.StderrBytes))})

	return t.Render() + "\n"
}

// =============================================================================
// Formatting helpers
// =============================================================================

// FormatDuration formats a duration as HH:MM:SS.
func FormatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// FormatNumber formats a number with K/M suffixes for readability.
func FormatNumber(n int64) string {
	if n >= 1_000_000 {
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	}
	if n >= 1_000 {
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	}
	return fmt.Sprintf("%d", n)
}

// FormatBytes formats bytes with KB/MB/GB suffixes.
func FormatBytes(n int64) string {
	if n >= 1_000_000_000 {
		return fmt.Sprintf("%.2f GB", float64(n)/1_000_000_000)
	}
	if n >= 1_000_000 {
		return fmt.Sprintf("%.2f MB", float64(n)/1_000_000)
	}
	if n >= 1_000 {
		return fmt.Sprintf("%.2f KB", float64(n)/1_000)
	}
	return fmt.Sprintf("%d B", n)
}

// FormatMs formats a duration as milliseconds.
func FormatMs(d time.Duration) string {
	ms := d.Milliseconds()
	if ms == 0 && d > 0 {
		// Sub-millisecond, show microseconds
		return fmt.Sprintf("%d µs", d.Microseconds())
	}
	return fmt.Sprintf("%d ms", ms)
}
