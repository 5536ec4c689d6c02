// Package tui renders the randomtest settings wizard and run status lines in
// the terminal.
//
// The wizard uses Bubble Tea for the application framework, bubbles for the
// text input and key bindings, and Lipgloss for styling.
package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// Color Palette
// =============================================================================

// Colors based on a modern dark theme
var (
	// Primary colors
	colorPrimary   = lipgloss.Color("#7C3AED") // Purple
	colorSecondary = lipgloss.Color("#06B6D4") // Cyan

	// Status colors
	colorSuccess = lipgloss.Color("#10B981") // Green
	colorWarning = lipgloss.Color("#F59E0B") // Amber
	colorError   = lipgloss.Color("#EF4444") // Red
	colorInfo    = lipgloss.Color("#3B82F6") // Blue

	// Neutral colors
	colorText      = lipgloss.Color("#E5E7EB") // Light gray
	colorTextMuted = lipgloss.Color("#9CA3AF") // Medium gray
	colorTextDim   = lipgloss.Color("#6B7280") // Dark gray
)

// =============================================================================
// Wizard Styles
// =============================================================================

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	stepStyle = lipgloss.NewStyle().
			Foreground(colorSecondary)

	choiceActiveStyle = lipgloss.NewStyle().
				Foreground(colorText).
				Background(colorPrimary).
				Bold(true).
				Padding(0, 1)

	choiceInactiveStyle = lipgloss.NewStyle().
				Foreground(colorTextMuted).
				Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorError)

	helpStyle = lipgloss.NewStyle().
			Foreground(colorTextDim).
			MarginTop(1)
)

// =============================================================================
// Status Indicator Styles
// =============================================================================

var (
	statusOK = lipgloss.NewStyle().
			Foreground(colorSuccess).
			Bold(true)

	statusWarning = lipgloss.NewStyle().
			Foreground(colorWarning).
			Bold(true)

	statusError = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)

	statusInfo = lipgloss.NewStyle().
			Foreground(colorInfo).
			Bold(true)
)

// Level classifies a status line.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarning
	LevelError
)

// StatusLine renders a one-line status message with a colored marker.
func StatusLine(level Level, format string, args ...any) string {
	msg := fmt.Sprintf(format, args...)
	switch level {
	case LevelSuccess:
		return statusOK.Render("✓") + " " + msg
	case LevelWarning:
		return statusWarning.Render("⚠") + " " + msg
	case LevelError:
		return statusError.Render("✗") + " " + msg
	default:
		return statusInfo.Render("•") + " " + msg
	}
}
