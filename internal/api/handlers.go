package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/harborview/sitekit/internal/deploy"
	"github.com/harborview/sitekit/internal/seo"
)

// handleHealthz handles GET /healthz (no auth).
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"service":       "sitekit",
		"environment":   s.site.Environment,
		"domain":        s.site.Domain,
		"uptimeSeconds": int64(time.Since(s.startedAt).Seconds()),
		"tracked":       s.monitor.Size(),
	})
}

// handleDeploymentStatusGet handles
// GET /api/deployment/status?environment=&format=summary|metrics|history|latest|export&limit=.
func (s *Server) handleDeploymentStatusGet(w http.ResponseWriter, r *http.Request) {
	environment := r.URL.Query().Get("environment")
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "summary"
	}
	limit := parseLimit(r.URL.Query().Get("limit"), 20)

	switch format {
	case "summary":
		s.writeJSON(w, http.StatusOK, map[string]any{
			"environments": s.monitor.LatestByEnvironment(),
			"metrics":      s.monitor.BuildMetrics(environment),
			"tracked":      s.monitor.Size(),
		})

	case "metrics":
		s.writeJSON(w, http.StatusOK, s.monitor.BuildMetrics(environment))

	case "history":
		s.writeJSON(w, http.StatusOK, map[string]any{
			"deployments": s.monitor.History(environment, limit),
		})

	case "latest":
		latest := s.monitor.LatestByEnvironment()
		if environment != "" {
			d, ok := latest[environment]
			if !ok {
				s.writeError(w, http.StatusNotFound, "no deployments for environment")
				return
			}
			s.writeJSON(w, http.StatusOK, d)
			return
		}
		s.writeJSON(w, http.StatusOK, latest)

	case "export":
		s.writeJSON(w, http.StatusOK, map[string]any{
			"generatedAt": time.Now().UTC().Format(time.RFC3339),
			"environment": environment,
			"deployments": s.monitor.History(environment, 0),
			"metrics":     s.monitor.BuildMetrics(environment),
		})

	default:
		s.writeError(w, http.StatusBadRequest, "unknown format")
	}
}

// statusUpdateRequest is the POST /api/deployment/status body.
type statusUpdateRequest struct {
	Action       string   `json:"action"`
	DeploymentID string   `json:"deploymentId"`
	Environment  string   `json:"environment,omitempty"`
	Status       string   `json:"status,omitempty"`
	URL          string   `json:"url,omitempty"`
	Error        string   `json:"error,omitempty"`
	BuildTime    *int64   `json:"buildTime,omitempty"`
	BuildLogs    []string `json:"buildLogs,omitempty"`
}

// handleDeploymentStatusPost drives the deployment monitor state machine.
func (s *Server) handleDeploymentStatusPost(w http.ResponseWriter, r *http.Request) {
	var req statusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.DeploymentID == "" {
		s.writeError(w, http.StatusBadRequest, "deploymentId is required")
		return
	}

	var d deploy.Deployment
	switch req.Action {
	case "start":
		d = s.monitor.StartDeployment(req.DeploymentID, req.Environment)
	case "building":
		d = s.monitor.MarkBuilding(req.DeploymentID)
	case "ready":
		d = s.monitor.MarkReady(req.DeploymentID, req.URL, req.BuildTime)
	case "failed":
		d = s.monitor.MarkFailed(req.DeploymentID, req.Error, req.BuildTime)
	case "update":
		d = s.monitor.Update(req.DeploymentID, deploy.UpdateOptions{
			Status:    deploy.Status(req.Status),
			URL:       req.URL,
			Error:     req.Error,
			BuildLogs: req.BuildLogs,
		})
	default:
		s.writeError(w, http.StatusBadRequest, "unknown action")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"deployment": d,
	})
}

// handleDeploymentTrigger fires a deploy hook immediately, bypassing the
// debounce window. Useful for manual rebuilds from operational tooling.
func (s *Server) handleDeploymentTrigger(w http.ResponseWriter, r *http.Request) {
	if s.trigger == nil {
		s.writeError(w, http.StatusServiceUnavailable, "deploy hooks not configured")
		return
	}

	var req struct {
		Environment string `json:"environment"`
		Reason      string `json:"reason,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Environment == "" {
		s.writeError(w, http.StatusBadRequest, "environment is required")
		return
	}
	if req.Reason == "" {
		req.Reason = "manual trigger"
	}

	result := s.trigger.TriggerDeploy(r.Context(), req.Environment, req.Reason)
	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadGateway
	}
	s.writeJSON(w, status, result)
}

// handleDeliveries handles GET /api/webhooks/deliveries?limit=.
func (s *Server) handleDeliveries(w http.ResponseWriter, r *http.Request) {
	if s.ledger == nil {
		s.writeError(w, http.StatusServiceUnavailable, "delivery log not available")
		return
	}

	limit := parseLimit(r.URL.Query().Get("limit"), 50)
	entries, err := s.ledger.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to read delivery log", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to read delivery log")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"deliveries": entries})
}

// handleSitemap handles GET /sitemap.xml.
func (s *Server) handleSitemap(w http.ResponseWriter, r *http.Request) {
	if s.contents == nil {
		s.writeError(w, http.StatusServiceUnavailable, "content not available")
		return
	}

	pages, err := s.contents.ListPublishedPages(r.Context())
	if err != nil {
		s.logger.Error("failed to list pages for sitemap", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to generate sitemap")
		return
	}
	posts, err := s.contents.ListPublishedPosts(r.Context(), 0)
	if err != nil {
		s.logger.Error("failed to list posts for sitemap", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to generate sitemap")
		return
	}

	body, err := seo.Sitemap(s.site.BaseURL, pages, posts)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to generate sitemap")
		return
	}
	s.writeArtifact(w, "application/xml; charset=utf-8", body)
}

// handleRSS handles GET /rss.xml.
func (s *Server) handleRSS(w http.ResponseWriter, r *http.Request) {
	if s.contents == nil {
		s.writeError(w, http.StatusServiceUnavailable, "content not available")
		return
	}

	posts, err := s.contents.ListPublishedPosts(r.Context(), 50)
	if err != nil {
		s.logger.Error("failed to list posts for rss", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to generate feed")
		return
	}

	site := s.site
	if settings, err := s.contents.GetSettings(r.Context()); err == nil && settings != nil {
		if settings.Title != "" {
			site.Title = settings.Title
		}
		if settings.Description != "" {
			site.Description = settings.Description
		}
	}

	body, err := seo.RSS(site, posts)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to generate feed")
		return
	}
	s.writeArtifact(w, "application/rss+xml; charset=utf-8", body)
}

// handleRobots handles GET /robots.txt.
func (s *Server) handleRobots(w http.ResponseWriter, r *http.Request) {
	s.writeArtifact(w, "text/plain; charset=utf-8", seo.Robots(s.site.Environment, s.site.BaseURL))
}

func (s *Server) writeArtifact(w http.ResponseWriter, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, statusCode int, message string) {
	s.writeJSON(w, statusCode, map[string]string{"error": message})
}

func parseLimit(v string, fallback int) int {
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
