package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/harborview/sitekit/internal/config"
	"github.com/harborview/sitekit/internal/events"
	"github.com/harborview/sitekit/internal/ledger"
	"github.com/harborview/sitekit/internal/log"
	"github.com/harborview/sitekit/internal/metrics"
	"github.com/harborview/sitekit/internal/revalidate"
)

// Signature headers checked on inbound deliveries, in order.
const (
	SignatureHeader         = "X-Signature-256"
	FallbackSignatureHeader = "X-Hub-Signature-256"
)

// BuildWebhookPath is the endpoint the CMS delivers content changes to.
const BuildWebhookPath = "/api/webhooks/build"

// Deployer schedules a debounced deployment after successful revalidation.
// Satisfied by *deploy.Trigger.
type Deployer interface {
	QueueDeployment(environment, reason string, delay time.Duration)
}

// Server is the inbound webhook listener. It runs on its own listener,
// separate from the status API, so the CMS-facing surface can be firewalled
// independently.
type Server struct {
	cfg        config.WebhookConfig
	site       config.SiteConfig
	debounce   time.Duration
	dispatcher *revalidate.Dispatcher
	deployer   Deployer
	ledger     *ledger.Ledger
	hub        *events.Hub
	logger     *slog.Logger
	server     *http.Server
}

// NewServer creates a webhook server. deployer, ledger and hub may be nil.
func NewServer(cfg config.WebhookConfig, site config.SiteConfig, debounce time.Duration, dispatcher *revalidate.Dispatcher, deployer Deployer, ldg *ledger.Ledger, hub *events.Hub) *Server {
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = 1 << 20
	}
	return &Server{
		cfg:        cfg,
		site:       site,
		debounce:   debounce,
		dispatcher: dispatcher,
		deployer:   deployer,
		ledger:     ldg,
		hub:        hub,
		logger:     log.WithComponent("webhook"),
	}
}

// Start runs the webhook HTTP server until ctx is cancelled (blocking).
func (s *Server) Start(ctx context.Context) error {
	router := s.Routes()

	s.server = &http.Server{
		Addr:         s.cfg.Listen,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("webhook server starting", "listen", s.cfg.Listen)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("webhook server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("webhook server shutdown failed: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("webhook server error: %w", err)
	}
}

// Routes builds the HTTP router. Exposed for tests.
func (s *Server) Routes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(metrics.HTTPMiddleware("webhook"))
	r.Use(middleware.Recoverer)

	r.Post(BuildWebhookPath, s.handleBuildWebhook)
	r.Get(BuildWebhookPath, s.handleHealth)

	return r
}

// loggingMiddleware logs HTTP requests (excludes payload bodies).
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Info("webhook request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
			"remote_addr", r.RemoteAddr,
		)
	})
}

// handleHealth reports listener liveness to the CMS and uptime probes.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status":      "healthy",
		"service":     "sitekit-webhook",
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"environment": s.site.Environment,
	})
}

// handleBuildWebhook verifies, validates and dispatches one CMS delivery.
func (s *Server) handleBuildWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	limitedReader := io.LimitReader(r.Body, s.cfg.MaxBodySize+1)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to read request body", "")
		return
	}
	if int64(len(body)) > s.cfg.MaxBodySize {
		metrics.WebhookDeliveries.WithLabelValues("rejected").Inc()
		s.respondError(w, http.StatusRequestEntityTooLarge, "payload too large", "")
		return
	}

	signature := r.Header.Get(SignatureHeader)
	if signature == "" {
		signature = r.Header.Get(FallbackSignatureHeader)
	}
	if !VerifySignature(body, signature, s.cfg.Secret) {
		s.logger.Warn("webhook signature verification failed",
			"request_id", middleware.GetReqID(ctx),
			"remote_addr", r.RemoteAddr,
		)
		metrics.WebhookDeliveries.WithLabelValues("rejected").Inc()
		s.publish(events.TypeWebhookRejected, map[string]string{"reason": "invalid signature"})
		s.respondError(w, http.StatusUnauthorized, "Invalid signature", "")
		return
	}

	ev, err := ParseEvent(body)
	if err != nil {
		s.logger.Warn("webhook payload rejected", "error", err)
		metrics.WebhookDeliveries.WithLabelValues("malformed").Inc()
		s.publish(events.TypeWebhookRejected, map[string]string{"reason": err.Error()})
		s.respondError(w, http.StatusBadRequest, "Invalid payload", err.Error())
		return
	}

	s.logger.Info("webhook received",
		"event", ev.Event,
		"type", ev.Data.Type,
		"action", ev.Data.Action,
		"slug", ev.Data.Slug,
	)
	s.publish(events.TypeWebhookReceived, ev)

	result := s.dispatcher.Dispatch(ctx, revalidate.Change{
		Event:  ev.Event,
		Type:   ev.Data.Type,
		Action: ev.Data.Action,
		Domain: ev.Data.Domain,
		Slug:   ev.Data.Slug,
	})
	s.record(ctx, ev, result)

	if !result.Success {
		metrics.WebhookDeliveries.WithLabelValues("failed").Inc()
		s.publish(events.TypeRevalidateFailed, result)
		s.respondJSON(w, http.StatusInternalServerError, map[string]any{
			"error":          "Revalidation failed",
			"details":        result.Error,
			"processingTime": result.ProcessingTimeMs,
		})
		return
	}

	metrics.WebhookDeliveries.WithLabelValues("accepted").Inc()
	s.publish(events.TypeRevalidated, result)

	if s.deployer != nil {
		reason := fmt.Sprintf("%s %s", ev.Data.Type, ev.Data.Action)
		if ev.Data.Action == "" {
			reason = ev.Event
		}
		s.deployer.QueueDeployment(s.site.Environment, reason, s.debounce)
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"event":   ev.Event,
		"revalidated": map[string]any{
			"paths": result.RevalidatedPaths,
			"tags":  result.RevalidatedTags,
		},
		"processingTime": time.Since(start).Milliseconds(),
	})
}

// record writes one delivery to the ledger. Ledger failures are logged, never
// surfaced to the CMS.
func (s *Server) record(ctx context.Context, ev *Event, result revalidate.Result) {
	if s.ledger == nil {
		return
	}
	_, err := s.ledger.Record(ctx, ledger.Entry{
		Event:       ev.Event,
		ContentType: ev.Data.Type,
		Action:      ev.Data.Action,
		Domain:      ev.Data.Domain,
		Success:     result.Success,
		Error:       result.Error,
		Paths:       len(result.RevalidatedPaths),
		Tags:        len(result.RevalidatedTags),
		DurationMs:  result.ProcessingTimeMs,
	})
	if err != nil {
		s.logger.Error("failed to record webhook delivery", "error", err)
	}
}

func (s *Server) publish(eventType string, data any) {
	if s.hub != nil {
		s.hub.Publish(eventType, data)
	}
}

// respondJSON sends a JSON response.
func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends a JSON error response.
func (s *Server) respondError(w http.ResponseWriter, status int, message, details string) {
	payload := map[string]string{"error": message}
	if details != "" {
		payload["details"] = details
	}
	s.respondJSON(w, status, payload)
}
