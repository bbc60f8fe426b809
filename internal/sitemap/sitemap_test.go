package sitemap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParseURLSet(t *testing.T) {
	const body = `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>https://example.com/a</loc><lastmod>2024-01-02</lastmod><priority>0.8</priority></url>
  <url><loc>https://example.com/b</loc></url>
</urlset>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer srv.Close()

	c := NewClient()
	entries := c.Parse(context.Background(), srv.URL, 100, 3)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Loc != "https://example.com/a" || !entries[0].HasLastMod {
		t.Errorf("unexpected first entry: %+v", entries[0])
	}
}

func TestParseSitemapIndexRecursion(t *testing.T) {
	var childBody = `<?xml version="1.0"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>https://example.com/c</loc></url>
</urlset>`

	mux := http.NewServeMux()
	mux.HandleFunc("/sitemap_index.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<?xml version="1.0"?>
<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <sitemap><loc>CHILD</loc></sitemap>
</sitemapindex>`))
	})
	mux.HandleFunc("/child.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(childBody))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	// Patch child loc to point at the test server.
	mux.HandleFunc("/sitemap_index2.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<?xml version="1.0"?>
<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <sitemap><loc>` + srv.URL + `/child.xml</loc></sitemap>
</sitemapindex>`))
	})

	c := NewClient()
	entries := c.Parse(context.Background(), srv.URL+"/sitemap_index2.xml", 100, 3)
	if len(entries) != 1 || entries[0].Loc != "https://example.com/c" {
		t.Fatalf("expected recursion into child sitemap, got %+v", entries)
	}
}

func TestParseMaxDepthStopsRecursion(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/idx.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<?xml version="1.0"?>
<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <sitemap><loc>IDX</loc></sitemap>
</sitemapindex>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient()
	entries := c.Parse(context.Background(), srv.URL+"/idx.xml", 100, 0)
	if len(entries) != 0 {
		t.Errorf("maxDepth=0 should yield no entries, got %d", len(entries))
	}
}

func TestParseLastModVariants(t *testing.T) {
	for _, raw := range []string{
		"2024-01-02",
		"2024-01-02T15:04:05",
		"2024-01-02T15:04:05Z",
		"2024-01-02T15:04:05+02:00",
	} {
		if _, ok := parseLastMod(raw); !ok {
			t.Errorf("parseLastMod(%q) failed", raw)
		}
	}
	if _, ok := parseLastMod("not a date"); ok {
		t.Error("parseLastMod accepted garbage")
	}
}

func TestProbeRobotsHintsWin(t *testing.T) {
	c := NewClient()
	hints := []string{"https://example.com/custom-sitemap.xml"}
	found := c.Probe(context.Background(), "https://example.com", hints)
	if len(found) != 1 || found[0] != hints[0] {
		t.Errorf("expected robots hints to short-circuit probing, got %v", found)
	}
}

func TestProbeFallsBackToCommonPaths(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/sitemap_index.xml", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient()
	found := c.Probe(context.Background(), srv.URL, nil)
	if len(found) != 1 || found[0] != srv.URL+"/sitemap_index.xml" {
		t.Errorf("expected fallback to sitemap_index.xml, got %v", found)
	}
}
