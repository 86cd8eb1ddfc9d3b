// Package watch implements the sitekit deployment watch TUI: a live terminal
// view over the status API's event stream and deployment history.
package watch

import "github.com/charmbracelet/lipgloss"

// Theme centralizes all styling for the watch TUI.
type Theme struct {
	// Status colors
	StatusOK       lipgloss.Style
	StatusBuilding lipgloss.Style
	StatusFailed   lipgloss.Style
	StatusPending  lipgloss.Style
	StatusCanceled lipgloss.Style

	// UI elements
	Border    lipgloss.Style
	Title     lipgloss.Style
	Header    lipgloss.Style
	Dim       lipgloss.Style
	Highlight lipgloss.Style

	// Indicators
	TickerActive   lipgloss.Style
	TickerInactive lipgloss.Style
}

func NewDefaultTheme() Theme {
	teal := lipgloss.Color("#2DD4BF")

	return Theme{
		StatusOK:       lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00")),
		StatusBuilding: lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFF00")),
		StatusFailed:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")),
		StatusPending:  lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")),
		StatusCanceled: lipgloss.NewStyle().Foreground(lipgloss.Color("#666666")),

		Border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(teal),
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Padding(0, 1),
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#61AFEF")),
		Dim:       lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")),
		Highlight: lipgloss.NewStyle().Foreground(lipgloss.Color("#E5C07B")),

		TickerActive:   lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00")),
		TickerInactive: lipgloss.NewStyle().Foreground(lipgloss.Color("#444444")),
	}
}
