package revalidate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/harborview/sitekit/internal/log"
	"github.com/harborview/sitekit/internal/metrics"
)

// Well-known paths invalidated by content changes.
const (
	HomePath      = "/"
	BlogIndexPath = "/blog"
	SitemapPath   = "/sitemap.xml"
	RSSPath       = "/rss.xml"
)

// PageSlugHome is the sentinel slug the CMS uses for the root page.
const PageSlugHome = "home"

// Content types delivered by the CMS.
const (
	TypePost     = "post"
	TypePage     = "page"
	TypeSettings = "settings"
	TypeMedia    = "media"
)

// Change identifies one content change to revalidate for. The webhook server
// builds it from a validated delivery.
type Change struct {
	Event  string
	Type   string
	Action string
	Domain string
	Slug   string
}

// Result is the outcome of one webhook-driven revalidation pass.
// Immutable once returned.
type Result struct {
	Success          bool     `json:"success"`
	RevalidatedPaths []string `json:"revalidatedPaths"`
	RevalidatedTags  []string `json:"revalidatedTags"`
	Error            string   `json:"error,omitempty"`
	ProcessingTimeMs int64    `json:"processingTimeMs"`
}

// Dispatcher maps validated webhook events to cache invalidation operations.
type Dispatcher struct {
	cache  Revalidator
	logger *slog.Logger
}

// New creates a Dispatcher backed by the given cache.
func New(cache Revalidator) *Dispatcher {
	return &Dispatcher{
		cache:  cache,
		logger: log.WithComponent("revalidate"),
	}
}

// plan is the set of invalidations a content type maps to.
type plan struct {
	paths []string
	tags  []string
}

// planFor builds the invalidation plan for a change. ok is false for
// unknown content types.
func planFor(ch Change) (plan, bool) {
	switch ch.Type {
	case TypePost:
		p := plan{
			paths: []string{BlogIndexPath},
			tags:  []string{"blog-posts"},
		}
		if ch.Slug != "" {
			p.paths = append(p.paths, BlogIndexPath+"/"+ch.Slug)
		}
		p.paths = append(p.paths, SitemapPath, RSSPath)
		return p, true

	case TypePage:
		p := plan{tags: []string{"pages"}}
		if ch.Slug != "" {
			if ch.Slug == PageSlugHome {
				p.paths = append(p.paths, HomePath)
			} else {
				p.paths = append(p.paths, "/"+ch.Slug)
			}
		}
		p.paths = append(p.paths, SitemapPath)
		return p, true

	case TypeSettings:
		return plan{
			paths: []string{HomePath, BlogIndexPath},
			tags:  []string{"site-settings", "layout", "navigation"},
		}, true

	case TypeMedia:
		return plan{tags: []string{"media", "images"}}, true
	}

	return plan{}, false
}

// Dispatch runs the invalidation plan for a validated change.
//
// Every operation in the plan is attempted independently; individual
// failures are collected and aggregated into the result error rather than
// aborting the pass. An unknown content type yields a failed result but
// never an error value, the caller decides how to surface it.
func (d *Dispatcher) Dispatch(ctx context.Context, ch Change) Result {
	start := time.Now()

	logger := d.logger.With(
		"event", ch.Event,
		"type", ch.Type,
		"action", ch.Action,
		"domain", ch.Domain,
	)

	p, ok := planFor(ch)
	if !ok {
		logger.Warn("unknown content type in webhook event")
		return Result{
			Success:          false,
			RevalidatedPaths: []string{},
			RevalidatedTags:  []string{},
			Error:            fmt.Sprintf("unknown content type %q", ch.Type),
			ProcessingTimeMs: time.Since(start).Milliseconds(),
		}
	}

	result := Result{
		RevalidatedPaths: make([]string, 0, len(p.paths)),
		RevalidatedTags:  make([]string, 0, len(p.tags)),
	}
	var failures []string

	for _, path := range p.paths {
		if err := d.cache.RevalidatePath(ctx, path); err != nil {
			logger.Error("path revalidation failed", "path", path, "error", err)
			failures = append(failures, fmt.Sprintf("path %s: %v", path, err))
			metrics.Revalidations.WithLabelValues("path", "error").Inc()
			continue
		}
		result.RevalidatedPaths = append(result.RevalidatedPaths, path)
		metrics.Revalidations.WithLabelValues("path", "ok").Inc()
	}

	for _, tag := range p.tags {
		if err := d.cache.RevalidateTag(ctx, tag); err != nil {
			logger.Error("tag revalidation failed", "tag", tag, "error", err)
			failures = append(failures, fmt.Sprintf("tag %s: %v", tag, err))
			metrics.Revalidations.WithLabelValues("tag", "error").Inc()
			continue
		}
		result.RevalidatedTags = append(result.RevalidatedTags, tag)
		metrics.Revalidations.WithLabelValues("tag", "ok").Inc()
	}

	result.Success = len(failures) == 0
	if len(failures) > 0 {
		result.Error = fmt.Sprintf("%d of %d revalidations failed: %s",
			len(failures), len(p.paths)+len(p.tags), strings.Join(failures, "; "))
	}
	result.ProcessingTimeMs = time.Since(start).Milliseconds()

	logger.Info("revalidation completed",
		"success", result.Success,
		"paths", len(result.RevalidatedPaths),
		"tags", len(result.RevalidatedTags),
		"duration_ms", result.ProcessingTimeMs,
	)

	return result
}
