// Package api implements the public status HTTP server: deployment status
// queries and updates, the webhook delivery log, SEO artifacts and the SSE
// event stream.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/harborview/sitekit/internal/auth"
	"github.com/harborview/sitekit/internal/config"
	"github.com/harborview/sitekit/internal/content"
	"github.com/harborview/sitekit/internal/deploy"
	"github.com/harborview/sitekit/internal/events"
	"github.com/harborview/sitekit/internal/ledger"
	"github.com/harborview/sitekit/internal/log"
	"github.com/harborview/sitekit/internal/metrics"
)

// ContentProvider supplies published content for the SEO artifacts.
// Satisfied by *content.Repository.
type ContentProvider interface {
	ListPublishedPages(ctx context.Context) ([]content.Page, error)
	ListPublishedPosts(ctx context.Context, limit int) ([]content.Post, error)
	GetSettings(ctx context.Context) (*content.SiteSettings, error)
}

// DeliveryLog reads recorded webhook deliveries. Satisfied by *ledger.Ledger.
type DeliveryLog interface {
	Recent(ctx context.Context, limit int) ([]ledger.Entry, error)
}

// Server is the status API HTTP server.
type Server struct {
	cfg       config.APIConfig
	site      config.SiteConfig
	monitor   *deploy.Monitor
	trigger   *deploy.Trigger
	contents  ContentProvider
	ledger    DeliveryLog
	hub       *events.Hub
	logger    *slog.Logger
	server    *http.Server
	startedAt time.Time
}

// New creates an API server. contents, ledger, trigger and hub may be nil;
// the corresponding endpoints degrade gracefully.
func New(cfg config.APIConfig, site config.SiteConfig, monitor *deploy.Monitor, trigger *deploy.Trigger, contents ContentProvider, deliveries DeliveryLog, hub *events.Hub) *Server {
	return &Server{
		cfg:       cfg,
		site:      site,
		monitor:   monitor,
		trigger:   trigger,
		contents:  contents,
		ledger:    deliveries,
		hub:       hub,
		logger:    log.WithComponent("api"),
		startedAt: time.Now(),
	}
}

// Start runs the HTTP server until ctx is cancelled (blocking).
func (s *Server) Start(ctx context.Context) error {
	router := s.Routes()

	s.server = &http.Server{
		Addr:         s.cfg.Listen,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("API server starting", "listen", s.cfg.Listen)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("API server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
}

// Routes configures the HTTP router. Exposed for tests.
func (s *Server) Routes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(metrics.HTTPMiddleware("api"))
	r.Use(middleware.Recoverer)

	// Unauthenticated ops and crawler endpoints.
	r.Get("/healthz", s.handleHealthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/sitemap.xml", s.handleSitemap)
	r.Get("/rss.xml", s.handleRSS)
	r.Get("/robots.txt", s.handleRobots)

	// Read-only deployment state.
	r.Get("/api/deployment/status", s.handleDeploymentStatusGet)

	// Protected surface.
	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Post("/api/deployment/status", s.handleDeploymentStatusPost)
		r.Post("/api/deployment/trigger", s.handleDeploymentTrigger)
		r.Get("/api/webhooks/deliveries", s.handleDeliveries)
		r.Get("/api/events", s.handleEvents)
	})

	return r
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// authMiddleware validates the bearer token from the Authorization header.
// An empty configured token disables auth (dev setups).
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.Token == "" {
			next.ServeHTTP(w, r)
			return
		}

		token, err := auth.ExtractBearerToken(r)
		if err != nil {
			s.writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		if !auth.Authenticate(token, s.cfg.Token) {
			s.writeError(w, http.StatusUnauthorized, "invalid API token")
			return
		}

		next.ServeHTTP(w, r)
	})
}
