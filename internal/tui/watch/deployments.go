package watch

import (
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/harborview/sitekit/internal/deploy"
)

func newDeploymentTable() table.Model {
	columns := []table.Column{
		{Title: "ENV", Width: 12},
		{Title: "STATUS", Width: 10},
		{Title: "ID", Width: 22},
		{Title: "DURATION", Width: 10},
		{Title: "UPDATED", Width: 10},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithHeight(6),
		table.WithFocused(false),
	)

	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true).Foreground(lipgloss.Color("#61AFEF"))
	styles.Selected = lipgloss.NewStyle()
	t.SetStyles(styles)
	return t
}

func deploymentRows(environments map[string]deploy.Deployment) []table.Row {
	envs := make([]string, 0, len(environments))
	for env := range environments {
		envs = append(envs, env)
	}
	sort.Strings(envs)

	rows := make([]table.Row, 0, len(envs))
	for _, env := range envs {
		d := environments[env]
		rows = append(rows, table.Row{
			env,
			string(d.Status),
			d.ID,
			formatBuildDuration(d.DurationMs),
			d.UpdatedAt.Format("15:04:05"),
		})
	}
	return rows
}

func formatBuildDuration(ms *int64) string {
	if ms == nil {
		return "-"
	}
	return formatDuration(time.Duration(*ms) * time.Millisecond)
}

func renderDeployments(m Model) string {
	title := m.theme.Header.Render("DEPLOYMENTS")
	body := m.table.View()

	metrics := m.theme.Dim.Render(fmt.Sprintf(
		"builds %d (%d ok, %d failed) │ uptime %.1f%% │ avg %s",
		m.status.Metrics.TotalBuilds,
		m.status.Metrics.SuccessfulBuilds,
		m.status.Metrics.FailedBuilds,
		m.status.Metrics.Uptime,
		formatDuration(time.Duration(m.status.Metrics.AverageDurationMs)*time.Millisecond),
	))

	return lipgloss.JoinVertical(lipgloss.Left, title, body, metrics)
}
