package seo

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/harborview/sitekit/internal/config"
	"github.com/harborview/sitekit/internal/content"
)

const atomNamespace = "http://www.w3.org/2005/Atom"

type rssFeed struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Atom    string     `xml:"xmlns:atom,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	Language      string    `xml:"language,omitempty"`
	LastBuildDate string    `xml:"lastBuildDate,omitempty"`
	AtomLink      atomLink  `xml:"atom:link"`
	Items         []rssItem `xml:"item"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	GUID        string `xml:"guid"`
	Description string `xml:"description,omitempty"`
	Author      string `xml:"author,omitempty"`
	PubDate     string `xml:"pubDate,omitempty"`
}

// RSS renders the RSS 2.0 feed for published posts, newest first.
func RSS(site config.SiteConfig, posts []content.Post) ([]byte, error) {
	base := strings.TrimSuffix(site.BaseURL, "/")

	channel := rssChannel{
		Title:       site.Title,
		Link:        base + "/blog",
		Description: site.Description,
		Language:    "en",
		AtomLink: atomLink{
			Href: base + "/rss.xml",
			Rel:  "self",
			Type: "application/rss+xml",
		},
	}
	if channel.Title == "" {
		channel.Title = site.Domain
	}

	for i := range posts {
		p := &posts[i]
		link := base + "/blog/" + p.Slug
		item := rssItem{
			Title:       p.Title,
			Link:        link,
			GUID:        link,
			Description: p.Excerpt,
			Author:      p.Author,
		}
		if p.PublishedAt != nil {
			item.PubDate = p.PublishedAt.UTC().Format(time.RFC1123Z)
		}
		channel.Items = append(channel.Items, item)
	}

	if len(posts) > 0 && posts[0].PublishedAt != nil {
		channel.LastBuildDate = posts[0].PublishedAt.UTC().Format(time.RFC1123Z)
	}

	feed := rssFeed{Version: "2.0", Atom: atomNamespace, Channel: channel}
	body, err := xml.MarshalIndent(feed, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("render rss feed: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}
