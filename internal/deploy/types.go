package deploy

import "time"

// Status is a deployment lifecycle state.
type Status string

const (
	StatusPending  Status = "pending"
	StatusBuilding Status = "building"
	StatusReady    Status = "ready"
	StatusError    Status = "error"
	// StatusCanceled is terminal but only ever set externally (PaaS side);
	// no modeled transition produces it.
	StatusCanceled Status = "canceled"
)

// Environments sitekit deploys to.
const (
	EnvStaging    = "staging"
	EnvProduction = "production"
)

// Deployment is one tracked deployment's lifecycle record.
type Deployment struct {
	ID          string    `json:"id"`
	Environment string    `json:"environment"`
	Status      Status    `json:"status"`
	URL         string    `json:"url,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	// DurationMs is the build duration; computed from CreatedAt on
	// completion when not supplied explicitly.
	DurationMs *int64   `json:"duration,omitempty"`
	Error      string   `json:"error,omitempty"`
	BuildLogs  []string `json:"buildLogs,omitempty"`
}

// TriggerResult is the structured outcome of a deploy-hook call. Callers
// always receive one of these; trigger failures are never propagated as
// errors.
type TriggerResult struct {
	Success      bool   `json:"success"`
	DeploymentID string `json:"deploymentId,omitempty"`
	Error        string `json:"error,omitempty"`
}

// BuildMetrics is a derived view over recorded deployments, recomputed per
// query and never stored.
type BuildMetrics struct {
	TotalBuilds       int        `json:"totalBuilds"`
	SuccessfulBuilds  int        `json:"successfulBuilds"`
	FailedBuilds      int        `json:"failedBuilds"`
	AverageDurationMs int64      `json:"averageDurationMs"`
	Uptime            float64    `json:"uptime"`
	LastBuildAt       *time.Time `json:"lastBuildAt,omitempty"`
}
