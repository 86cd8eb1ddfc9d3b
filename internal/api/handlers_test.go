package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborview/sitekit/internal/config"
	"github.com/harborview/sitekit/internal/content"
	"github.com/harborview/sitekit/internal/deploy"
	"github.com/harborview/sitekit/internal/ledger"
)

type fakeContent struct {
	pages    []content.Page
	posts    []content.Post
	settings *content.SiteSettings
	err      error
}

func (f *fakeContent) ListPublishedPages(context.Context) ([]content.Page, error) {
	return f.pages, f.err
}

func (f *fakeContent) ListPublishedPosts(context.Context, int) ([]content.Post, error) {
	return f.posts, f.err
}

func (f *fakeContent) GetSettings(context.Context) (*content.SiteSettings, error) {
	return f.settings, f.err
}

type fakeDeliveryLog struct {
	entries []ledger.Entry
	gotLim  int
}

func (f *fakeDeliveryLog) Recent(_ context.Context, limit int) ([]ledger.Entry, error) {
	f.gotLim = limit
	return f.entries, nil
}

func newTestAPI(t *testing.T, token string) (*Server, *deploy.Monitor) {
	t.Helper()
	monitor := deploy.NewMonitor(deploy.NewClock(), nil)
	srv := New(
		config.APIConfig{Listen: "127.0.0.1:0", Token: token},
		config.SiteConfig{Domain: "example.com", BaseURL: "https://example.com", Environment: "production", Title: "Example"},
		monitor,
		nil,
		&fakeContent{},
		&fakeDeliveryLog{},
		nil,
	)
	return srv, monitor
}

func doJSON(t *testing.T, srv *Server, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestAPI(t, "")
	rec := doJSON(t, srv, http.MethodGet, "/healthz", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, "production", resp["environment"])
}

func TestStatusPostRequiresToken(t *testing.T) {
	srv, _ := newTestAPI(t, "sekrit")

	rec := doJSON(t, srv, http.MethodPost, "/api/deployment/status", "", map[string]string{
		"action": "start", "deploymentId": "d1",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/deployment/status", "wrong", map[string]string{
		"action": "start", "deploymentId": "d1",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/deployment/status", "sekrit", map[string]string{
		"action": "start", "deploymentId": "d1", "environment": "staging",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStatusPostLifecycle(t *testing.T) {
	srv, monitor := newTestAPI(t, "")

	rec := doJSON(t, srv, http.MethodPost, "/api/deployment/status", "", map[string]any{
		"action": "start", "deploymentId": "d1", "environment": "production",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/deployment/status", "", map[string]any{
		"action": "building", "deploymentId": "d1",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/deployment/status", "", map[string]any{
		"action": "ready", "deploymentId": "d1", "url": "https://example.com", "buildTime": 5000,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success    bool              `json:"success"`
		Deployment deploy.Deployment `json:"deployment"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, deploy.StatusReady, resp.Deployment.Status)
	require.NotNil(t, resp.Deployment.DurationMs)
	assert.Equal(t, int64(5000), *resp.Deployment.DurationMs)

	d, ok := monitor.GetDeployment("d1")
	require.True(t, ok)
	assert.Equal(t, "production", d.Environment)
}

func TestStatusPostUpdateAction(t *testing.T) {
	srv, _ := newTestAPI(t, "")

	rec := doJSON(t, srv, http.MethodPost, "/api/deployment/status", "", map[string]any{
		"action":       "update",
		"deploymentId": "d2",
		"status":       "canceled",
		"buildLogs":    []string{"cancelled by operator"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Deployment deploy.Deployment `json:"deployment"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, deploy.StatusCanceled, resp.Deployment.Status)
	assert.Equal(t, []string{"cancelled by operator"}, resp.Deployment.BuildLogs)
}

func TestStatusPostValidation(t *testing.T) {
	srv, _ := newTestAPI(t, "")

	rec := doJSON(t, srv, http.MethodPost, "/api/deployment/status", "", map[string]string{
		"action": "start",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/deployment/status", "", map[string]string{
		"action": "explode", "deploymentId": "d1",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/deployment/status", bytes.NewReader([]byte("{not json")))
	rec2 := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec2, req)
	assert.Equal(t, http.StatusBadRequest, rec2.Code)
}

func TestStatusGetFormats(t *testing.T) {
	srv, monitor := newTestAPI(t, "")
	monitor.StartDeployment("d1", "staging")
	monitor.MarkReady("d1", "https://staging.example.com", int64Ptr(4000))
	monitor.StartDeployment("d2", "production")
	monitor.MarkFailed("d2", "build exploded", int64Ptr(8000))

	rec := doJSON(t, srv, http.MethodGet, "/api/deployment/status", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var summary struct {
		Environments map[string]deploy.Deployment `json:"environments"`
		Metrics      deploy.BuildMetrics          `json:"metrics"`
		Tracked      int                          `json:"tracked"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Len(t, summary.Environments, 2)
	assert.Equal(t, 2, summary.Tracked)
	assert.Equal(t, 2, summary.Metrics.TotalBuilds)

	rec = doJSON(t, srv, http.MethodGet, "/api/deployment/status?format=metrics&environment=staging", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var m deploy.BuildMetrics
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	assert.Equal(t, 1, m.TotalBuilds)
	assert.Equal(t, float64(100), m.Uptime)

	rec = doJSON(t, srv, http.MethodGet, "/api/deployment/status?format=history&limit=1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var hist struct {
		Deployments []deploy.Deployment `json:"deployments"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hist))
	require.Len(t, hist.Deployments, 1)
	assert.Equal(t, "d2", hist.Deployments[0].ID)

	rec = doJSON(t, srv, http.MethodGet, "/api/deployment/status?format=latest&environment=staging", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var latest deploy.Deployment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &latest))
	assert.Equal(t, "d1", latest.ID)

	rec = doJSON(t, srv, http.MethodGet, "/api/deployment/status?format=latest&environment=preview", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/deployment/status?format=export", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var export struct {
		GeneratedAt string              `json:"generatedAt"`
		Deployments []deploy.Deployment `json:"deployments"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &export))
	assert.NotEmpty(t, export.GeneratedAt)
	assert.Len(t, export.Deployments, 2)

	rec = doJSON(t, srv, http.MethodGet, "/api/deployment/status?format=csv", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeliveriesEndpoint(t *testing.T) {
	srv, _ := newTestAPI(t, "")
	logStub := &fakeDeliveryLog{entries: []ledger.Entry{
		{ID: "e1", Event: "content.changed", ContentType: "post", Success: true},
	}}
	srv.ledger = logStub

	rec := doJSON(t, srv, http.MethodGet, "/api/webhooks/deliveries?limit=5", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, logStub.gotLim)

	var resp struct {
		Deliveries []ledger.Entry `json:"deliveries"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Deliveries, 1)
	assert.Equal(t, "content.changed", resp.Deliveries[0].Event)
}

func TestSitemapEndpoint(t *testing.T) {
	srv, _ := newTestAPI(t, "")
	srv.contents = &fakeContent{
		pages: []content.Page{{Slug: "home", UpdatedAt: time.Now()}, {Slug: "about", UpdatedAt: time.Now()}},
		posts: []content.Post{{Slug: "hello", UpdatedAt: time.Now()}},
	}

	rec := doJSON(t, srv, http.MethodGet, "/sitemap.xml", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/xml")
	assert.Contains(t, rec.Body.String(), "<loc>https://example.com/about</loc>")
	assert.Contains(t, rec.Body.String(), "<loc>https://example.com/blog/hello</loc>")
}

func TestRSSEndpointUsesSettingsTitle(t *testing.T) {
	srv, _ := newTestAPI(t, "")
	published := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	srv.contents = &fakeContent{
		posts:    []content.Post{{Slug: "hello", Title: "Hello", PublishedAt: &published}},
		settings: &content.SiteSettings{Title: "From CMS"},
	}

	rec := doJSON(t, srv, http.MethodGet, "/rss.xml", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/rss+xml")
	assert.Contains(t, rec.Body.String(), "<title>From CMS</title>")
	assert.Contains(t, rec.Body.String(), "https://example.com/blog/hello")
}

func TestRobotsEndpoint(t *testing.T) {
	srv, _ := newTestAPI(t, "")
	rec := doJSON(t, srv, http.MethodGet, "/robots.txt", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Sitemap: https://example.com/sitemap.xml")

	srv.site.Environment = "staging"
	rec = doJSON(t, srv, http.MethodGet, "/robots.txt", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Disallow: /\n")
	assert.NotContains(t, rec.Body.String(), "Sitemap:")
}

func TestDeploymentTriggerEndpoint(t *testing.T) {
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer hook.Close()

	srv, monitor := newTestAPI(t, "")
	srv.trigger = deploy.NewTrigger(config.DeployConfig{
		Hooks:          map[string]config.DeployHook{"production": {URL: hook.URL}},
		RequestTimeout: 2 * time.Second,
	}, deploy.NewClock(), monitor, nil)

	rec := doJSON(t, srv, http.MethodPost, "/api/deployment/trigger", "", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/deployment/trigger", "", map[string]string{
		"environment": "production",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var result deploy.TriggerResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Success)
	assert.NotEmpty(t, result.DeploymentID)

	// Unconfigured environment surfaces the structured failure.
	rec = doJSON(t, srv, http.MethodPost, "/api/deployment/trigger", "", map[string]string{
		"environment": "preview",
	})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func int64Ptr(v int64) *int64 { return &v }
