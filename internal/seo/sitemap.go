// Package seo renders the sitemap, RSS feed and robots.txt for the site.
// Artifacts are generated from published content on demand; the status API
// serves them with short cache headers.
package seo

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/harborview/sitekit/internal/content"
)

const sitemapNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

// Sitemap renders the XML sitemap for all published pages and posts.
// The home page is listed first at priority 1.0.
func Sitemap(baseURL string, pages []content.Page, posts []content.Post) ([]byte, error) {
	base := strings.TrimSuffix(baseURL, "/")

	set := urlSet{Xmlns: sitemapNamespace}

	// Home first, then pages, then the blog index and posts.
	var home *content.Page
	for i := range pages {
		if pages[i].Slug == "home" {
			home = &pages[i]
			break
		}
	}
	set.URLs = append(set.URLs, sitemapURL{
		Loc:        base + "/",
		LastMod:    pageLastMod(home),
		ChangeFreq: "weekly",
		Priority:   "1.0",
	})

	for i := range pages {
		p := &pages[i]
		if p.Slug == "home" {
			continue
		}
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        base + "/" + p.Slug,
			LastMod:    lastMod(p.PublishedAt, p.UpdatedAt),
			ChangeFreq: "monthly",
			Priority:   "0.8",
		})
	}

	if len(posts) > 0 {
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        base + "/blog",
			LastMod:    posts[0].UpdatedAt.Format("2006-01-02"),
			ChangeFreq: "daily",
			Priority:   "0.9",
		})
	}
	for i := range posts {
		p := &posts[i]
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        base + "/blog/" + p.Slug,
			LastMod:    lastMod(p.PublishedAt, p.UpdatedAt),
			ChangeFreq: "monthly",
			Priority:   "0.7",
		})
	}

	body, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("render sitemap: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}

func pageLastMod(p *content.Page) string {
	if p == nil {
		return ""
	}
	return lastMod(p.PublishedAt, p.UpdatedAt)
}

// lastMod prefers the update timestamp; published is the floor for content
// that has never been edited after publishing.
func lastMod(published *time.Time, updated time.Time) string {
	if !updated.IsZero() {
		return updated.Format("2006-01-02")
	}
	if published != nil {
		return published.Format("2006-01-02")
	}
	return ""
}
