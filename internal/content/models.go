// Package content fetches pages, posts and site settings for a domain from
// the hosted CMS database (Supabase Postgres).
package content

import (
	"errors"
	"time"
)

// ErrNotFound indicates the requested content does not exist (or is not
// published) for the domain.
var ErrNotFound = errors.New("content not found")

// Publication states used by the CMS.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusArchived  = "archived"
)

// Page is a marketing page composed of typed sections.
type Page struct {
	ID          string
	Domain      string
	Slug        string
	Title       string
	Description string
	Sections    []Section
	Status      string
	PublishedAt *time.Time
	UpdatedAt   time.Time
}

// Post is a blog post.
type Post struct {
	ID          string
	Domain      string
	Slug        string
	Title       string
	Excerpt     string
	Body        string
	Author      string
	Tags        []string
	Status      string
	PublishedAt *time.Time
	UpdatedAt   time.Time
}

// NavItem is one navigation link in the site settings.
type NavItem struct {
	Label string `json:"label"`
	Href  string `json:"href"`
}

// SiteSettings is the per-domain site configuration stored in the CMS.
type SiteSettings struct {
	Domain      string
	Title       string
	Description string
	Navigation  []NavItem
	Social      map[string]string
	UpdatedAt   time.Time
}
