package watch

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
)

func renderHeader(m Model) string {
	var status string
	switch {
	case !m.connected:
		status = m.theme.StatusFailed.Render("● DISCONNECTED")
	case m.health.Status == "ok":
		status = m.theme.StatusOK.Render("● CONNECTED")
	default:
		status = m.theme.StatusPending.Render("● CONNECTING")
	}

	env := m.health.Environment
	if env == "" {
		env = "unknown"
	}

	left := lipgloss.JoinHorizontal(lipgloss.Center,
		m.theme.Title.Render("SITEKIT WATCH"),
		m.theme.Dim.Render(" │ "),
		m.theme.Highlight.Render(env),
		m.theme.Dim.Render(" │ "),
		status,
	)

	right := lipgloss.JoinHorizontal(lipgloss.Center,
		m.theme.Dim.Render(fmt.Sprintf("up %s", formatDuration(time.Duration(m.health.UptimeSeconds)*time.Second))),
		m.theme.Dim.Render(" │ "),
		m.ticker.Render(m.theme),
		" ",
		m.spinner.Render(m.theme),
	)

	width := m.width
	if width <= 0 {
		width = 80
	}
	gap := width - lipgloss.Width(left) - lipgloss.Width(right) - 4
	if gap < 1 {
		gap = 1
	}

	line := left + lipgloss.NewStyle().Width(gap).Render("") + right
	return m.theme.Border.Width(width - 2).Render(line)
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
}
