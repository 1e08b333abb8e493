package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary = lipgloss.Color("#7D56F4")
	colorMuted   = lipgloss.Color("#626262")
	colorError   = lipgloss.Color("#FF5F87")

	styleTitle    = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	styleMuted    = lipgloss.NewStyle().Foreground(colorMuted)
	styleError    = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	styleSelected = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	styleCell     = lipgloss.NewStyle().Width(24).MarginRight(1)
)
