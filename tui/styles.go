package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorPrimary = lipgloss.Color("62")  // purple/blue
	colorSuccess = lipgloss.Color("42")  // green
	colorError   = lipgloss.Color("196") // red
	colorWarning = lipgloss.Color("214") // orange
	colorInfo    = lipgloss.Color("39")  // cyan
	colorMuted   = lipgloss.Color("240")
	colorBorder  = lipgloss.Color("238")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			MarginBottom(1)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	fieldLabelStyle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true).
			Width(16)

	successStyle = lipgloss.NewStyle().
			Foreground(colorSuccess).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(colorInfo)

	helpStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Italic(true)

	buttonStyle = lipgloss.NewStyle().
			Padding(0, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder)

	focusedButtonStyle = buttonStyle.
				BorderForeground(colorPrimary).
				Foreground(colorPrimary).
				Bold(true)

	disabledButtonStyle = buttonStyle.
				Foreground(colorMuted)

	logBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(colorBorder)

	alertStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(colorWarning).
			Padding(1, 3)
)

// logLineStyle colors a log line by its bracketed tag.
func logLineStyle(line string) lipgloss.Style {
	switch {
	case strings.HasPrefix(line, "[ERROR]"):
		return errorStyle
	case strings.HasPrefix(line, "[SUCCESS]"), strings.HasPrefix(line, "[DONE]"), strings.HasPrefix(line, "[SAVE]"):
		return successStyle
	case strings.HasPrefix(line, "[STOP]"), strings.HasPrefix(line, "[LIMIT]"), strings.HasPrefix(line, "[CHECK]"), strings.HasPrefix(line, "[SKIP]"):
		return lipgloss.NewStyle().Foreground(colorWarning)
	case strings.HasPrefix(line, "[LOAD]"), strings.HasPrefix(line, "[START]"):
		return infoStyle
	}
	return lipgloss.NewStyle()
}

func renderTitle(title string) string {
	return titleStyle.Render(title)
}

func renderButton(label string, focused, enabled bool) string {
	switch {
	case !enabled:
		return disabledButtonStyle.Render(label)
	case focused:
		return focusedButtonStyle.Render(label)
	}
	return buttonStyle.Render(label)
}
