package theme

import (
	"charm.land/lipgloss/v2"
)

// Color palette
var (
	Primary   = lipgloss.Color("#8B5CF6") // Vivid Purple
	Secondary = lipgloss.Color("#14B8A6") // Teal
	Accent    = lipgloss.Color("#F97316") // Orange
	Success   = lipgloss.Color("#22C55E") // Green
	Text      = lipgloss.Color("#F8FAFC") // White
	TextDim   = lipgloss.Color("#94A3B8") // Slate
	Border    = lipgloss.Color("#334155") // Slate
)

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)

	Label = lipgloss.NewStyle().
		Foreground(TextDim).
		Width(22)

	Value = lipgloss.NewStyle().
		Foreground(Text).
		Bold(true)
)

// Messages
var (
	// Moment frames a time line that fired.
	Moment = lipgloss.NewStyle().
		Foreground(Secondary).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(0, 2)

	// Nudge frames a reflective nudge.
	Nudge = lipgloss.NewStyle().
		Foreground(Accent).
		Italic(true).
		Padding(0, 2)

	Ok = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)
)

// Row renders a label/value pair on one line.
func Row(label, value string) string {
	return Label.Render(label) + Value.Render(value)
}
