package tui

import "github.com/charmbracelet/lipgloss"

// Colors
var (
	colorPrimary  = lipgloss.Color("#7C3AED") // Purple
	colorDanger   = lipgloss.Color("#EF4444") // Red
	colorMuted    = lipgloss.Color("#6B7280") // Gray
	colorBorder   = lipgloss.Color("#374151") // Dark gray
	colorSelected = lipgloss.Color("#4F46E5") // Indigo
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(colorPrimary).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	rowStyle = lipgloss.NewStyle().
			Padding(0, 1)

	selectedRowStyle = lipgloss.NewStyle().
				Background(colorSelected).
				Foreground(lipgloss.Color("#FFFFFF")).
				Padding(0, 1)

	failedStyle = lipgloss.NewStyle().
			Foreground(colorDanger).
			Bold(true)

	detailsTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorPrimary).
				MarginBottom(1)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	helpStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Padding(0, 1)
)
