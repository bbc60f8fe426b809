package robots

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParseGroupFallback(t *testing.T) {
	content := `
User-agent: Googlebot
Disallow: /private

User-agent: *
Disallow: /admin
Allow: /admin/public
Sitemap: https://example.com/sitemap.xml
`
	p := Parse(content, "kirk-crawl")
	if len(p.Sitemaps) != 1 || p.Sitemaps[0] != "https://example.com/sitemap.xml" {
		t.Fatalf("expected one sitemap directive, got %v", p.Sitemaps)
	}
	if !Allowed("https://example.com/admin/public", p) {
		t.Errorf("allow pattern should beat disallow")
	}
	if Allowed("https://example.com/admin/secret", p) {
		t.Errorf("disallow should deny non-allowed admin path")
	}
	if !Allowed("https://example.com/private", p) {
		t.Errorf("googlebot-only disallow should not apply to kirk-crawl (falls to * group)")
	}
}

func TestParseExactUAOverridesWildcard(t *testing.T) {
	content := `
User-agent: *
Disallow: /

User-agent: kirk-crawl
Allow: /
`
	p := Parse(content, "kirk-crawl")
	if !Allowed("https://example.com/anything", p) {
		t.Errorf("exact UA group should override wildcard disallow")
	}
}

func TestWildcardPattern(t *testing.T) {
	if !matchesPattern("/foo/bar.pdf", "/foo/*.pdf$") {
		t.Errorf("wildcard+anchor pattern should match")
	}
	if matchesPattern("/foo/bar.pdf.html", "/foo/*.pdf$") {
		t.Errorf("anchored wildcard should not match when suffix differs")
	}
}

func TestFetchPermissiveOn404(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewFetcher()
	policy, warn, err := f.Fetch(context.Background(), srv.URL, DefaultUserAgent)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if warn {
		t.Errorf("404 should be silently permissive")
	}
	if len(policy.DisallowPatterns) != 0 {
		t.Errorf("expected permissive policy")
	}
}

func TestFetchWarnOn500(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := NewFetcher()
	_, warn, err := f.Fetch(context.Background(), srv.URL, DefaultUserAgent)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !warn {
		t.Errorf("5xx should be permissive-with-warning")
	}
}
