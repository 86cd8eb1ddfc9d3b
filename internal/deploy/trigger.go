package deploy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/harborview/sitekit/internal/config"
	"github.com/harborview/sitekit/internal/events"
	"github.com/harborview/sitekit/internal/log"
	"github.com/harborview/sitekit/internal/metrics"
)

// DeploymentRecorder receives lifecycle notifications for triggered deploys.
// Satisfied by *Monitor.
type DeploymentRecorder interface {
	StartDeployment(id, environment string) Deployment
}

// Trigger fires deploy hooks for configured environments, with per-environment
// debouncing so bursts of content changes coalesce into one rebuild.
type Trigger struct {
	hooks          map[string]config.DeployHook
	requestTimeout time.Duration
	client         *http.Client
	clock          Clock
	recorder       DeploymentRecorder
	hub            *events.Hub
	logger         *slog.Logger

	mu      sync.Mutex
	pending map[string]Timer
}

// NewTrigger creates a Trigger. recorder and hub may be nil.
func NewTrigger(cfg config.DeployConfig, clock Clock, recorder DeploymentRecorder, hub *events.Hub) *Trigger {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Trigger{
		hooks:          cfg.Hooks,
		requestTimeout: timeout,
		client:         &http.Client{Timeout: timeout},
		clock:          clock,
		recorder:       recorder,
		hub:            hub,
		logger:         log.WithComponent("deploy"),
	}
}

// hookBody is the JSON payload POSTed to a deploy hook.
type hookBody struct {
	Reason      string `json:"reason"`
	Timestamp   string `json:"timestamp"`
	Environment string `json:"environment"`
}

// TriggerDeploy fires the configured hook for an environment immediately.
//
// Every failure mode (unconfigured environment, network error, non-2xx) is
// captured in the returned TriggerResult; nothing is propagated as an error.
func (t *Trigger) TriggerDeploy(ctx context.Context, environment, reason string) TriggerResult {
	hook, ok := t.hooks[environment]
	if !ok || hook.URL == "" {
		t.logger.Warn("no deploy hook configured", "environment", environment)
		return TriggerResult{
			Success: false,
			Error:   fmt.Sprintf("no deploy hook configured for environment %q", environment),
		}
	}

	body, err := json.Marshal(hookBody{
		Reason:      reason,
		Timestamp:   t.clock.Now().UTC().Format(time.RFC3339),
		Environment: environment,
	})
	if err != nil {
		return TriggerResult{Success: false, Error: fmt.Sprintf("encode hook payload: %v", err)}
	}

	reqCtx, cancel := context.WithTimeout(ctx, t.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, hook.URL, bytes.NewReader(body))
	if err != nil {
		return TriggerResult{Success: false, Error: fmt.Sprintf("build hook request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		t.logger.Error("deploy hook unreachable", "environment", environment, "error", err)
		t.publish(events.TypeDeployFailed, map[string]any{"environment": environment, "error": err.Error()})
		metrics.DeployTriggers.WithLabelValues(environment, "unreachable").Inc()
		return TriggerResult{Success: false, Error: fmt.Sprintf("deploy hook unreachable: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		t.logger.Error("deploy hook rejected", "environment", environment, "status", resp.Status)
		t.publish(events.TypeDeployFailed, map[string]any{"environment": environment, "status": resp.Status})
		metrics.DeployTriggers.WithLabelValues(environment, "rejected").Inc()
		return TriggerResult{Success: false, Error: fmt.Sprintf("deploy hook returned %s", resp.Status)}
	}

	metrics.DeployTriggers.WithLabelValues(environment, "ok").Inc()

	deploymentID := uuid.NewString()
	if t.recorder != nil {
		t.recorder.StartDeployment(deploymentID, environment)
	}

	t.logger.Info("deploy hook triggered",
		"environment", environment,
		"reason", reason,
		"deployment_id", deploymentID,
	)
	t.publish(events.TypeDeployTriggered, map[string]any{
		"environment":   environment,
		"reason":        reason,
		"deployment_id": deploymentID,
	})

	return TriggerResult{Success: true, DeploymentID: deploymentID}
}

// QueueDeployment schedules a debounced deploy. A pending timer for the same
// environment is cancelled and replaced, so rapid successive triggers
// coalesce into one deployment (last-write-wins).
func (t *Trigger) QueueDeployment(environment, reason string, delay time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if timer, ok := t.pending[environment]; ok {
		timer.Stop()
	}
	if t.pending == nil {
		t.pending = make(map[string]Timer)
	}

	t.pending[environment] = t.clock.AfterFunc(delay, func() {
		// Clear the pending entry whatever the trigger outcome.
		defer func() {
			t.mu.Lock()
			delete(t.pending, environment)
			t.mu.Unlock()
		}()
		t.TriggerDeploy(context.Background(), environment, reason)
	})

	t.logger.Info("deployment queued",
		"environment", environment,
		"reason", reason,
		"delay", delay,
	)
	t.publish(events.TypeDeployQueued, map[string]any{
		"environment": environment,
		"reason":      reason,
		"delay_ms":    delay.Milliseconds(),
	})
}

// Stop cancels all pending debounce timers.
func (t *Trigger) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for env, timer := range t.pending {
		timer.Stop()
		delete(t.pending, env)
	}
}

func (t *Trigger) publish(eventType string, data any) {
	if t.hub != nil {
		t.hub.Publish(eventType, data)
	}
}
