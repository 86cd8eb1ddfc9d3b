package watch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/harborview/sitekit/internal/deploy"
	"github.com/harborview/sitekit/internal/events"
)

func TestDeploymentRowsSortedByEnvironment(t *testing.T) {
	ms := int64(4200)
	rows := deploymentRows(map[string]deploy.Deployment{
		"staging": {
			ID:          "dpl_2",
			Environment: "staging",
			Status:      deploy.StatusBuilding,
			UpdatedAt:   time.Date(2026, 8, 28, 10, 30, 0, 0, time.UTC),
		},
		"production": {
			ID:          "dpl_1",
			Environment: "production",
			Status:      deploy.StatusReady,
			DurationMs:  &ms,
			UpdatedAt:   time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC),
		},
	})

	assert.Len(t, rows, 2)
	assert.Equal(t, "production", rows[0][0])
	assert.Equal(t, "ready", rows[0][1])
	assert.Equal(t, "4s", rows[0][3])
	assert.Equal(t, "staging", rows[1][0])
	assert.Equal(t, "-", rows[1][3])
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "45s", formatDuration(45*time.Second))
	assert.Equal(t, "2m30s", formatDuration(150*time.Second))
	assert.Equal(t, "1h5m", formatDuration(65*time.Minute))
}

func TestEventLogCapped(t *testing.T) {
	m := NewModel("http://localhost:8080", "")
	defer m.cancel()

	for i := 0; i < eventLogCap+10; i++ {
		next, _ := m.Update(eventMsg(events.Event{ID: int64(i + 1), Type: events.TypeWebhookReceived, At: time.Now()}))
		m = next.(Model)
	}

	assert.Len(t, m.eventLog, eventLogCap)
	assert.Equal(t, int64(11), m.eventLog[0].ID)
}

func TestFormatEventColorsBySuffix(t *testing.T) {
	theme := NewDefaultTheme()
	at := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	failed := formatEvent(theme, events.Event{Type: events.TypeRevalidateFailed, At: at})
	assert.Contains(t, failed, "revalidate.failed")

	ok := formatEvent(theme, events.Event{Type: events.TypeRevalidated, At: at, Data: []byte(`{"paths":3}`)})
	assert.Contains(t, ok, "revalidate.completed")
	assert.Contains(t, ok, `{"paths":3}`)
}
