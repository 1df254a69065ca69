package ui

import "github.com/charmbracelet/lipgloss"

var (
	accent  = lipgloss.Color("#00B3B3")
	green   = lipgloss.Color("#3FBF3F")
	yellow  = lipgloss.Color("#D7AF00")
	orange  = lipgloss.Color("#FF8700")
	red     = lipgloss.Color("#E03C31")
	dimGrey = lipgloss.Color("#8A8A8A")

	labelStyle = lipgloss.NewStyle().
			Foreground(accent).
			Bold(true)

	valueStyle = lipgloss.NewStyle().
			Foreground(yellow)

	successStyle = lipgloss.NewStyle().
			Foreground(green).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(red).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(orange).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(dimGrey)

	titleStyle = lipgloss.NewStyle().
			Foreground(accent).
			Bold(true).
			Underline(true)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 1)
)

// Cyan renders text in the accent colour
func Cyan(text string) string { return labelStyle.Render(text) }

// Yellow renders a value
func Yellow(text string) string { return valueStyle.Render(text) }

// Green renders success text
func Green(text string) string { return successStyle.Render(text) }

// Red renders error text
func Red(text string) string { return errorStyle.Render(text) }

// Dim renders secondary text
func Dim(text string) string { return dimStyle.Render(text) }
