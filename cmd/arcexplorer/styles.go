package main

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/joshuapare/arctree/pkg/types"
)

var (
	// Color palette
	primaryColor   = lipgloss.Color("#7D56F4")
	secondaryColor = lipgloss.Color("#00D7FF")
	accentColor    = lipgloss.Color("#FF00FF")
	successColor   = lipgloss.Color("#04B575")
	warningColor   = lipgloss.Color("#FFA500")
	errorColor     = lipgloss.Color("#FF4B4B")
	mutedColor     = lipgloss.Color("#666666")
	borderColor    = lipgloss.Color("#383838")

	// Header styles
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Background(lipgloss.Color("#1A1A1A")).
			Padding(0, 1)

	pathStyle = lipgloss.NewStyle().
			Foreground(secondaryColor).
			Italic(true)

	// Pane styles
	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor).
			Padding(0, 1)

	activePaneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)

	paneTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	// Row styles
	cursorRowStyle = lipgloss.NewStyle().
			Background(primaryColor).
			Foreground(lipgloss.Color("#FFFFFF")).
			Bold(true)

	selectedMarkStyle = lipgloss.NewStyle().
				Foreground(accentColor).
				Bold(true)

	levelStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	moreRowStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	// Status bar styles
	statusStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Background(lipgloss.Color("#1A1A1A")).
			Padding(0, 1)

	statusCountStyle = lipgloss.NewStyle().
				Foreground(primaryColor).
				Bold(true)

	// Help overlay styles
	helpTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(1, 2).
			Background(lipgloss.Color("#1A1A1A"))

	// Search styles
	searchPromptStyle = lipgloss.NewStyle().
				Foreground(accentColor).
				Bold(true)

	// Error styles
	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true)

	// Record status badges
	statusBadgeStyles = map[types.StatusClass]lipgloss.Style{
		types.StatusSuccess: lipgloss.NewStyle().Foreground(successColor),
		types.StatusWarning: lipgloss.NewStyle().Foreground(warningColor),
		types.StatusError:   lipgloss.NewStyle().Foreground(errorColor).Bold(true),
	}
)

// statusBadge renders a record status label in its class color.
func statusBadge(class types.StatusClass, label string) string {
	if label == "" {
		return ""
	}
	st, ok := statusBadgeStyles[class]
	if !ok {
		st = levelStyle
	}
	return st.Render("{" + label + "}")
}
