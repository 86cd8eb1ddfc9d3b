package cache

import (
	"strings"
	"testing"
)

func TestETagDeterministic(t *testing.T) {
	body := []byte("<html>hello</html>")

	a := ETag(body)
	b := ETag(body)
	if a != b {
		t.Errorf("ETag should be deterministic: %q != %q", a, b)
	}

	if !strings.HasPrefix(a, `"`) || !strings.HasSuffix(a, `"`) {
		t.Errorf("ETag should be quoted, got %q", a)
	}
}

func TestETagDiffersPerBody(t *testing.T) {
	if ETag([]byte("a")) == ETag([]byte("b")) {
		t.Error("different bodies should produce different ETags")
	}
}

func TestKeyNamespacing(t *testing.T) {
	c := &Cache{prefix: "sitekit:"}

	if got := c.pageKey("/blog/foo"); got != "sitekit:page:/blog/foo" {
		t.Errorf("pageKey = %q", got)
	}
	if got := c.tagKey("blog-posts"); got != "sitekit:tag:blog-posts" {
		t.Errorf("tagKey = %q", got)
	}
}
