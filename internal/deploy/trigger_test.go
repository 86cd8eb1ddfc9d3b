package deploy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborview/sitekit/internal/config"
)

func triggerConfig(url string) config.DeployConfig {
	cfg := config.DeployConfig{
		RequestTimeout: 2 * time.Second,
		Hooks:          map[string]config.DeployHook{},
	}
	if url != "" {
		cfg.Hooks[EnvStaging] = config.DeployHook{URL: url, Name: "example-staging", Branch: "develop"}
	}
	return cfg
}

func TestTriggerDeployNoHookConfigured(t *testing.T) {
	tr := NewTrigger(triggerConfig(""), newFakeClock(), nil, nil)

	result := tr.TriggerDeploy(context.Background(), EnvStaging, "content change")

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "no deploy hook configured")
	assert.Empty(t, result.DeploymentID)
}

func TestTriggerDeploySuccess(t *testing.T) {
	var body hookBody
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	monitor := NewMonitor(newFakeClock(), nil)
	tr := NewTrigger(triggerConfig(srv.URL), newFakeClock(), monitor, nil)

	result := tr.TriggerDeploy(context.Background(), EnvStaging, "settings updated")

	assert.True(t, result.Success)
	assert.NotEmpty(t, result.DeploymentID)
	assert.Empty(t, result.Error)

	assert.Equal(t, "settings updated", body.Reason)
	assert.Equal(t, EnvStaging, body.Environment)
	assert.NotEmpty(t, body.Timestamp)

	// A successful trigger registers a pending deployment.
	d, ok := monitor.GetDeployment(result.DeploymentID)
	require.True(t, ok)
	assert.Equal(t, StatusPending, d.Status)
	assert.Equal(t, EnvStaging, d.Environment)
}

func TestTriggerDeployNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	tr := NewTrigger(triggerConfig(srv.URL), newFakeClock(), nil, nil)

	result := tr.TriggerDeploy(context.Background(), EnvStaging, "r")

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "502")
}

func TestTriggerDeployNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	tr := NewTrigger(triggerConfig(srv.URL), newFakeClock(), nil, nil)

	result := tr.TriggerDeploy(context.Background(), EnvStaging, "r")

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "unreachable")
}

func TestQueueDeploymentDebounce(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	clock := newFakeClock()
	tr := NewTrigger(triggerConfig(srv.URL), clock, nil, nil)

	// Two queues within the window: the second replaces the first timer.
	tr.QueueDeployment(EnvStaging, "first", time.Second)
	tr.QueueDeployment(EnvStaging, "second", time.Second)

	clock.Advance(2 * time.Second)

	assert.Equal(t, int32(1), calls.Load(), "rapid successive queues must coalesce into one deploy")
}

func TestQueueDeploymentClearsPendingAfterFire(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	clock := newFakeClock()
	tr := NewTrigger(triggerConfig(srv.URL), clock, nil, nil)

	tr.QueueDeployment(EnvStaging, "first", time.Second)
	clock.Advance(2 * time.Second)

	// The pending entry was cleared, so a new queue schedules fresh.
	tr.QueueDeployment(EnvStaging, "second", time.Second)
	clock.Advance(2 * time.Second)

	assert.Equal(t, int32(2), calls.Load())
}

func TestQueueDeploymentIndependentEnvironments(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	cfg := triggerConfig(srv.URL)
	cfg.Hooks[EnvProduction] = config.DeployHook{URL: srv.URL}

	clock := newFakeClock()
	tr := NewTrigger(cfg, clock, nil, nil)

	tr.QueueDeployment(EnvStaging, "r", time.Second)
	tr.QueueDeployment(EnvProduction, "r", time.Second)
	clock.Advance(2 * time.Second)

	assert.Equal(t, int32(2), calls.Load(), "environments debounce independently")
}

func TestStopCancelsPendingTimers(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	clock := newFakeClock()
	tr := NewTrigger(triggerConfig(srv.URL), clock, nil, nil)

	tr.QueueDeployment(EnvStaging, "r", time.Second)
	tr.Stop()
	clock.Advance(2 * time.Second)

	assert.Equal(t, int32(0), calls.Load())
}
