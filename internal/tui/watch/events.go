package watch

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/harborview/sitekit/internal/events"
)

const eventStreamLines = 10

func renderEventStream(m Model) string {
	title := m.theme.Header.Render("EVENTS")

	if len(m.eventLog) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, title,
			m.theme.Dim.Render("  waiting for events..."))
	}

	// Newest first.
	lines := make([]string, 0, eventStreamLines)
	for i := len(m.eventLog) - 1; i >= 0 && len(lines) < eventStreamLines; i-- {
		lines = append(lines, formatEvent(m.theme, m.eventLog[i]))
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(lines, "\n"))
}

func formatEvent(theme Theme, ev events.Event) string {
	ts := theme.Dim.Render(ev.At.Format("15:04:05"))

	var name string
	switch {
	case strings.HasSuffix(ev.Type, ".failed") || ev.Type == events.TypeWebhookRejected:
		name = theme.StatusFailed.Render(ev.Type)
	case strings.HasSuffix(ev.Type, ".completed") || ev.Type == events.TypeDeployTriggered:
		name = theme.StatusOK.Render(ev.Type)
	case ev.Type == events.TypeDeployQueued:
		name = theme.StatusBuilding.Render(ev.Type)
	default:
		name = theme.Highlight.Render(ev.Type)
	}

	detail := string(ev.Data)
	if len(detail) > 60 {
		detail = detail[:57] + "..."
	}

	return "  " + ts + " " + name + " " + theme.Dim.Render(detail)
}
