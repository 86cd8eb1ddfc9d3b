package watch

import (
	"context"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harborview/sitekit/internal/events"
)

// Model is the bubbletea model for `sitekit watch`.
type Model struct {
	apiURL string
	token  string

	ctx    context.Context
	cancel context.CancelFunc

	width  int
	height int
	ticks  int

	health    healthInfo
	status    statusSummary
	connected bool
	lastErr   error

	eventLog  []events.Event
	hubEvents chan events.Event

	table   table.Model
	ticker  *Ticker
	spinner *Spinner
	theme   Theme
}

const eventLogCap = 50

func NewModel(apiURL, token string) Model {
	ctx, cancel := context.WithCancel(context.Background())
	return Model{
		apiURL:    apiURL,
		token:     token,
		ctx:       ctx,
		cancel:    cancel,
		hubEvents: make(chan events.Event, 32),
		table:     newDeploymentTable(),
		ticker:    NewTicker(),
		spinner:   NewSpinner(),
		theme:     NewDefaultTheme(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tick(),
		fetchHealth(m.apiURL),
		fetchStatus(m.apiURL),
		subscribeToEvents(m.ctx, m.apiURL, m.token, m.hubEvents),
		receiveNextEvent(m.hubEvents),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.cancel()
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		m.ticks++
		// Poll health and status every 10th tick, i.e. every 5 seconds.
		if m.ticks%10 == 0 {
			return m, tea.Batch(tick(), fetchHealth(m.apiURL), fetchStatus(m.apiURL))
		}
		return m, tick()

	case healthMsg:
		m.health = healthInfo(msg)
		m.connected = true

	case statusMsg:
		m.status = statusSummary(msg)
		m.table.SetRows(deploymentRows(m.status.Environments))
		m.ticker.Activity()

	case eventMsg:
		m.eventLog = append(m.eventLog, events.Event(msg))
		if len(m.eventLog) > eventLogCap {
			m.eventLog = m.eventLog[len(m.eventLog)-eventLogCap:]
		}
		m.spinner.Activity()
		m.ticker.Activity()
		if msg.Type == events.TypeDeploymentUpdated || msg.Type == events.TypeDeployTriggered {
			return m, tea.Batch(receiveNextEvent(m.hubEvents), fetchStatus(m.apiURL))
		}
		return m, receiveNextEvent(m.hubEvents)

	case sseDisconnectedMsg:
		m.connected = false
		return m, scheduleReconnect()

	case reconnectMsg:
		return m, tea.Batch(
			subscribeToEvents(m.ctx, m.apiURL, m.token, m.hubEvents),
			receiveNextEvent(m.hubEvents),
		)

	case errMsg:
		m.lastErr = msg.err
	}

	return m, nil
}

func (m Model) View() string {
	sections := []string{
		renderHeader(m),
		"",
		renderDeployments(m),
		"",
		renderEventStream(m),
	}

	if m.lastErr != nil {
		sections = append(sections, "", m.theme.StatusFailed.Render("error: "+m.lastErr.Error()))
	}

	sections = append(sections, "", m.theme.Dim.Render("q to quit"))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
