package deploy

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartThenMarkReadyExplicitDuration(t *testing.T) {
	m := NewMonitor(newFakeClock(), nil)

	m.StartDeployment("dep-1", EnvStaging)
	duration := int64(5000)
	m.MarkReady("dep-1", "https://x", &duration)

	d, ok := m.GetDeployment("dep-1")
	require.True(t, ok)
	assert.Equal(t, StatusReady, d.Status)
	assert.Equal(t, "https://x", d.URL)
	require.NotNil(t, d.DurationMs)
	assert.Equal(t, int64(5000), *d.DurationMs)
}

func TestMarkReadyComputesDuration(t *testing.T) {
	clock := newFakeClock()
	m := NewMonitor(clock, nil)

	m.StartDeployment("dep-1", EnvProduction)
	clock.Advance(42 * time.Second)
	m.MarkReady("dep-1", "https://x", nil)

	d, _ := m.GetDeployment("dep-1")
	require.NotNil(t, d.DurationMs)
	assert.Equal(t, int64(42000), *d.DurationMs)
}

func TestMarkOperationsUpsertUnknownID(t *testing.T) {
	m := NewMonitor(newFakeClock(), nil)

	// No prior StartDeployment: record is created with defaults first.
	m.MarkBuilding("ghost")

	d, ok := m.GetDeployment("ghost")
	require.True(t, ok)
	assert.Equal(t, EnvStaging, d.Environment)
	assert.Equal(t, StatusBuilding, d.Status)
}

func TestMarkFailedRecordsError(t *testing.T) {
	m := NewMonitor(newFakeClock(), nil)

	m.StartDeployment("dep-1", EnvStaging)
	m.MarkFailed("dep-1", "build exploded", nil)

	d, _ := m.GetDeployment("dep-1")
	assert.Equal(t, StatusError, d.Status)
	assert.Equal(t, "build exploded", d.Error)
	assert.NotNil(t, d.DurationMs)
}

func TestHistoryBoundEvictsEarliest(t *testing.T) {
	m := NewMonitor(newFakeClock(), nil)

	for i := 0; i < 51; i++ {
		m.StartDeployment(fmt.Sprintf("dep-%d", i), EnvStaging)
	}

	assert.Equal(t, 50, m.Size())

	_, ok := m.GetDeployment("dep-0")
	assert.False(t, ok, "earliest-inserted record should be evicted")
	_, ok = m.GetDeployment("dep-50")
	assert.True(t, ok)
}

func TestHistoryMostRecentFirst(t *testing.T) {
	clock := newFakeClock()
	m := NewMonitor(clock, nil)

	m.StartDeployment("a", EnvStaging)
	clock.Advance(time.Second)
	m.StartDeployment("b", EnvStaging)
	clock.Advance(time.Second)
	m.StartDeployment("c", EnvProduction)

	history := m.History("", 0)
	require.Len(t, history, 3)
	assert.Equal(t, "c", history[0].ID)
	assert.Equal(t, "b", history[1].ID)
	assert.Equal(t, "a", history[2].ID)

	staging := m.History(EnvStaging, 1)
	require.Len(t, staging, 1)
	assert.Equal(t, "b", staging[0].ID)
}

func TestLatestByEnvironment(t *testing.T) {
	clock := newFakeClock()
	m := NewMonitor(clock, nil)

	m.StartDeployment("old", EnvStaging)
	clock.Advance(time.Second)
	m.StartDeployment("new", EnvStaging)
	m.StartDeployment("prod", EnvProduction)

	latest := m.LatestByEnvironment()
	assert.Equal(t, "new", latest[EnvStaging].ID)
	assert.Equal(t, "prod", latest[EnvProduction].ID)
}

func TestBuildMetricsEmpty(t *testing.T) {
	m := NewMonitor(newFakeClock(), nil)

	metrics := m.BuildMetrics("")

	assert.Equal(t, 0, metrics.TotalBuilds)
	assert.Equal(t, float64(100), metrics.Uptime)
}

func TestBuildMetricsMixedOutcomes(t *testing.T) {
	m := NewMonitor(newFakeClock(), nil)

	d1 := int64(1000)
	d2 := int64(3000)
	m.StartDeployment("a", EnvStaging)
	m.MarkReady("a", "https://x", &d1)
	m.StartDeployment("b", EnvStaging)
	m.MarkReady("b", "https://x", &d2)
	m.StartDeployment("c", EnvStaging)
	m.MarkFailed("c", "boom", nil)
	m.StartDeployment("pending", EnvStaging) // not completed, excluded

	metrics := m.BuildMetrics(EnvStaging)

	assert.Equal(t, 3, metrics.TotalBuilds)
	assert.Equal(t, 2, metrics.SuccessfulBuilds)
	assert.Equal(t, 1, metrics.FailedBuilds)
	assert.InDelta(t, 66.6, metrics.Uptime, 0.1)
	assert.NotNil(t, metrics.LastBuildAt)
}

func TestUpdateMergesFields(t *testing.T) {
	m := NewMonitor(newFakeClock(), nil)

	m.StartDeployment("dep-1", EnvStaging)
	m.Update("dep-1", UpdateOptions{
		Status:    StatusCanceled,
		BuildLogs: []string{"step 1 ok", "canceled by operator"},
	})

	d, _ := m.GetDeployment("dep-1")
	assert.Equal(t, StatusCanceled, d.Status)
	assert.Len(t, d.BuildLogs, 2)
}
