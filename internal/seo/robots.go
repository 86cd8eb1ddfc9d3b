package seo

import (
	"fmt"
	"strings"
)

// Robots renders robots.txt. Staging environments are fully disallowed so
// preview sites never leak into search indexes; production blocks only the
// operational surfaces and advertises the sitemap.
func Robots(environment, baseURL string) []byte {
	var b strings.Builder

	if environment == "staging" {
		b.WriteString("User-agent: *\n")
		b.WriteString("Disallow: /\n")
		return []byte(b.String())
	}

	b.WriteString("User-agent: *\n")
	b.WriteString("Disallow: /api/\n")
	b.WriteString("Disallow: /admin/\n")
	b.WriteString("Disallow: /_internal/\n")
	fmt.Fprintf(&b, "\nSitemap: %s/sitemap.xml\n", strings.TrimSuffix(baseURL, "/"))

	return []byte(b.String())
}
