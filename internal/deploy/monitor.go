package deploy

import (
	"log/slog"
	"sync"

	"github.com/harborview/sitekit/internal/events"
	"github.com/harborview/sitekit/internal/log"
)

// DefaultHistoryCapacity bounds the deployment ledger.
const DefaultHistoryCapacity = 50

// Monitor is the in-memory ledger of deployment lifecycle records. It owns
// the collection exclusively for the process lifetime; state is not
// persisted, so a restart discards history (operational visibility only,
// not a source of truth).
//
// Mark-operations are merge-on-write upserts: an unknown id is created as a
// staging/pending record before the update applies. There is no
// illegal-transition rejection.
type Monitor struct {
	mu       sync.Mutex
	records  map[string]*Deployment
	order    []string // insertion order, oldest first; drives eviction
	capacity int
	clock    Clock
	hub      *events.Hub
	logger   *slog.Logger
}

// NewMonitor creates a Monitor with the default history capacity.
func NewMonitor(clock Clock, hub *events.Hub) *Monitor {
	return &Monitor{
		records:  make(map[string]*Deployment),
		capacity: DefaultHistoryCapacity,
		clock:    clock,
		hub:      hub,
		logger:   log.WithComponent("monitor"),
	}
}

// ensureLocked returns the record for id, creating a defaulted one if absent.
// Eviction is insertion-order: the earliest-inserted record goes first.
func (m *Monitor) ensureLocked(id, environment string) *Deployment {
	if d, ok := m.records[id]; ok {
		return d
	}

	if environment == "" {
		environment = EnvStaging
	}
	now := m.clock.Now().UTC()
	d := &Deployment{
		ID:          id,
		Environment: environment,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.records[id] = d
	m.order = append(m.order, id)

	for len(m.order) > m.capacity {
		evicted := m.order[0]
		m.order = m.order[1:]
		delete(m.records, evicted)
	}

	return d
}

func (m *Monitor) publishLocked(d *Deployment) {
	if m.hub == nil {
		return
	}
	m.hub.Publish(events.TypeDeploymentUpdated, *d)
}

// StartDeployment records a new pending deployment.
func (m *Monitor) StartDeployment(id, environment string) Deployment {
	m.mu.Lock()
	defer m.mu.Unlock()

	d := m.ensureLocked(id, environment)
	d.Status = StatusPending
	d.UpdatedAt = m.clock.Now().UTC()
	m.publishLocked(d)
	m.logger.Info("deployment started", "deployment_id", id, "environment", d.Environment)
	return *d
}

// MarkBuilding transitions a deployment to building.
func (m *Monitor) MarkBuilding(id string) Deployment {
	m.mu.Lock()
	defer m.mu.Unlock()

	d := m.ensureLocked(id, "")
	d.Status = StatusBuilding
	d.UpdatedAt = m.clock.Now().UTC()
	m.publishLocked(d)
	return *d
}

// MarkReady completes a deployment successfully. If durationMs is nil, the
// duration is computed since CreatedAt.
func (m *Monitor) MarkReady(id, url string, durationMs *int64) Deployment {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now().UTC()
	d := m.ensureLocked(id, "")
	d.Status = StatusReady
	d.URL = url
	d.UpdatedAt = now
	if durationMs != nil {
		d.DurationMs = durationMs
	} else {
		elapsed := now.Sub(d.CreatedAt).Milliseconds()
		d.DurationMs = &elapsed
	}
	m.publishLocked(d)
	m.logger.Info("deployment ready", "deployment_id", id, "url", url, "duration_ms", *d.DurationMs)
	return *d
}

// MarkFailed completes a deployment with an error. If durationMs is nil, the
// duration is computed since CreatedAt.
func (m *Monitor) MarkFailed(id, errMsg string, durationMs *int64) Deployment {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now().UTC()
	d := m.ensureLocked(id, "")
	d.Status = StatusError
	d.Error = errMsg
	d.UpdatedAt = now
	if durationMs != nil {
		d.DurationMs = durationMs
	} else {
		elapsed := now.Sub(d.CreatedAt).Milliseconds()
		d.DurationMs = &elapsed
	}
	m.publishLocked(d)
	m.logger.Warn("deployment failed", "deployment_id", id, "error", errMsg)
	return *d
}

// UpdateOptions carries optional fields for a generic status update.
type UpdateOptions struct {
	Status    Status
	URL       string
	Error     string
	BuildLogs []string
}

// Update applies a generic merge-on-write update (the "update" action of the
// status API).
func (m *Monitor) Update(id string, opts UpdateOptions) Deployment {
	m.mu.Lock()
	defer m.mu.Unlock()

	d := m.ensureLocked(id, "")
	if opts.Status != "" {
		d.Status = opts.Status
	}
	if opts.URL != "" {
		d.URL = opts.URL
	}
	if opts.Error != "" {
		d.Error = opts.Error
	}
	if len(opts.BuildLogs) > 0 {
		d.BuildLogs = append(d.BuildLogs, opts.BuildLogs...)
	}
	d.UpdatedAt = m.clock.Now().UTC()
	m.publishLocked(d)
	return *d
}

// GetDeployment returns one deployment by id.
func (m *Monitor) GetDeployment(id string) (Deployment, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.records[id]
	if !ok {
		return Deployment{}, false
	}
	return *d, true
}

// LatestByEnvironment returns the most recently updated deployment per
// environment.
func (m *Monitor) LatestByEnvironment() map[string]Deployment {
	m.mu.Lock()
	defer m.mu.Unlock()

	latest := make(map[string]Deployment)
	for _, id := range m.order {
		d := m.records[id]
		cur, ok := latest[d.Environment]
		if !ok || d.UpdatedAt.After(cur.UpdatedAt) {
			latest[d.Environment] = *d
		}
	}
	return latest
}

// History returns deployments most-recent-first, optionally filtered by
// environment, bounded by limit (0 means all retained records).
func (m *Monitor) History(environment string, limit int) []Deployment {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Deployment, 0, len(m.order))
	for i := len(m.order) - 1; i >= 0; i-- {
		d := m.records[m.order[i]]
		if environment != "" && d.Environment != environment {
			continue
		}
		out = append(out, *d)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// Size returns the number of retained records.
func (m *Monitor) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// BuildMetrics computes aggregate metrics over retained deployments,
// optionally filtered by environment. Uptime is the percentage of completed
// builds that succeeded; 100 when nothing has completed.
func (m *Monitor) BuildMetrics(environment string) BuildMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	var metrics BuildMetrics
	var durationSum int64
	var durationCount int64

	for _, id := range m.order {
		d := m.records[id]
		if environment != "" && d.Environment != environment {
			continue
		}
		switch d.Status {
		case StatusReady:
			metrics.SuccessfulBuilds++
		case StatusError:
			metrics.FailedBuilds++
		default:
			continue
		}
		metrics.TotalBuilds++
		if d.DurationMs != nil {
			durationSum += *d.DurationMs
			durationCount++
		}
		if metrics.LastBuildAt == nil || d.UpdatedAt.After(*metrics.LastBuildAt) {
			at := d.UpdatedAt
			metrics.LastBuildAt = &at
		}
	}

	if durationCount > 0 {
		metrics.AverageDurationMs = durationSum / durationCount
	}
	if metrics.TotalBuilds == 0 {
		metrics.Uptime = 100
	} else {
		metrics.Uptime = float64(metrics.SuccessfulBuilds) / float64(metrics.TotalBuilds) * 100
	}
	return metrics
}
