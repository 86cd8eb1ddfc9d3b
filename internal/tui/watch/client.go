package watch

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/harborview/sitekit/internal/deploy"
	"github.com/harborview/sitekit/internal/events"
)

// Messages delivered to the bubbletea update loop.
type (
	tickMsg            time.Time
	eventMsg           events.Event
	statusMsg          statusSummary
	errMsg             struct{ err error }
	sseDisconnectedMsg struct{}
	reconnectMsg       struct{}
)

// statusSummary mirrors the format=summary response of the status API.
type statusSummary struct {
	Environments map[string]deploy.Deployment `json:"environments"`
	Metrics      deploy.BuildMetrics          `json:"metrics"`
	Tracked      int                          `json:"tracked"`
}

// healthInfo mirrors the /healthz response.
type healthInfo struct {
	Status        string  `json:"status"`
	Environment   string  `json:"environment"`
	Domain        string  `json:"domain"`
	UptimeSeconds float64 `json:"uptimeSeconds"`
}

type healthMsg healthInfo

func tick() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func scheduleReconnect() tea.Cmd {
	return tea.Tick(3*time.Second, func(time.Time) tea.Msg {
		return reconnectMsg{}
	})
}

// subscribeToEvents opens the SSE stream and feeds parsed events into ch.
// The returned command completes when the stream drops.
func subscribeToEvents(ctx context.Context, apiURL, token string, ch chan<- events.Event) tea.Cmd {
	return func() tea.Msg {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL+"/api/events", nil)
		if err != nil {
			return errMsg{err}
		}
		req.Header.Set("Accept", "text/event-stream")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return sseDisconnectedMsg{}
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return errMsg{fmt.Errorf("event stream: unexpected status %d", resp.StatusCode)}
		}

		scanner := bufio.NewScanner(resp.Body)
		var ev events.Event
		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case strings.HasPrefix(line, "id: "):
				fmt.Sscanf(strings.TrimPrefix(line, "id: "), "%d", &ev.ID)
			case strings.HasPrefix(line, "event: "):
				ev.Type = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				ev.Data = []byte(strings.TrimPrefix(line, "data: "))
			case line == "":
				if ev.Type != "" {
					ev.At = time.Now()
					select {
					case ch <- ev:
					case <-ctx.Done():
						return sseDisconnectedMsg{}
					}
				}
				ev = events.Event{}
			}
		}
		return sseDisconnectedMsg{}
	}
}

// receiveNextEvent pulls one event off the channel for the update loop.
func receiveNextEvent(ch <-chan events.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return sseDisconnectedMsg{}
		}
		return eventMsg(ev)
	}
}

func fetchHealth(apiURL string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL+"/healthz", nil)
		if err != nil {
			return errMsg{err}
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return errMsg{err}
		}
		defer resp.Body.Close()

		var h healthInfo
		if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
			return errMsg{err}
		}
		return healthMsg(h)
	}
}

func fetchStatus(apiURL string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL+"/api/deployment/status?format=summary", nil)
		if err != nil {
			return errMsg{err}
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return errMsg{err}
		}
		defer resp.Body.Close()

		var s statusSummary
		if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
			return errMsg{err}
		}
		return statusMsg(s)
	}
}
