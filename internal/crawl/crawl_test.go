package crawl

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"kirk-crawl/internal/mapengine"
)

func TestFilterLinks_SkipsAlreadyScraped(t *testing.T) {
	store := newMemoryManifest()
	store.Append("https://a.example/seen")
	links := []mapengine.Link{
		{URL: "https://a.example/seen"},
		{URL: "https://a.example/new"},
	}
	out := filterLinks(links, store, Options{})
	assert.Equal(t, []string{"https://a.example/new"}, out)
}

func TestFilterLinks_IncludePatternNarrowsResults(t *testing.T) {
	store := newMemoryManifest()
	links := []mapengine.Link{
		{URL: "https://a.example/blog/post-1"},
		{URL: "https://a.example/about"},
	}
	out := filterLinks(links, store, Options{IncludePatterns: []string{"*/blog/*"}})
	assert.Equal(t, []string{"https://a.example/blog/post-1"}, out)
}

func TestFilterLinks_ExcludePatternDropsResults(t *testing.T) {
	store := newMemoryManifest()
	links := []mapengine.Link{
		{URL: "https://a.example/blog/post-1"},
		{URL: "https://a.example/admin/login"},
	}
	out := filterLinks(links, store, Options{ExcludePatterns: []string{"*/admin/*"}})
	assert.Equal(t, []string{"https://a.example/blog/post-1"}, out)
}

func TestFilterLinks_DedupeSimilarURLs(t *testing.T) {
	store := newMemoryManifest()
	links := []mapengine.Link{
		{URL: "https://a.example/x?utm_source=foo"},
		{URL: "https://a.example/x?utm_source=bar"},
	}
	out := filterLinks(links, store, Options{DedupeSimilarURLs: true})
	assert.Len(t, out, 1)
}

func TestFilterLinks_DedupeOffKeepsBoth(t *testing.T) {
	store := newMemoryManifest()
	links := []mapengine.Link{
		{URL: "https://a.example/x?utm_source=foo"},
		{URL: "https://a.example/x?utm_source=bar"},
	}
	out := filterLinks(links, store, Options{DedupeSimilarURLs: false})
	assert.Len(t, out, 2)
}

func TestDeriveScrapeFormats_DefaultsToMarkdown(t *testing.T) {
	out := deriveScrapeFormats(nil)
	assert.Equal(t, []string{"markdown"}, out)
}

func TestDeriveScrapeFormats_JSONExpandsToMarkdownAndHTML(t *testing.T) {
	out := deriveScrapeFormats([]string{"json"})
	assert.ElementsMatch(t, []string{"markdown", "html"}, out)
}

func TestDeriveScrapeFormats_HTMLOnly(t *testing.T) {
	out := deriveScrapeFormats([]string{"html"})
	assert.Equal(t, []string{"html"}, out)
}
