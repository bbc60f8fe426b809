package mapengine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"kirk-crawl/internal/events"
	"kirk-crawl/internal/robots"
)

func TestIsSameDomain_ExactMatch(t *testing.T) {
	assert.True(t, isSameDomain("https://example.com/page", "example.com", false))
}

func TestIsSameDomain_DifferentDomainRejected(t *testing.T) {
	assert.False(t, isSameDomain("https://other.com/page", "example.com", false))
}

func TestIsSameDomain_SubdomainRejectedByDefault(t *testing.T) {
	assert.False(t, isSameDomain("https://blog.example.com/page", "example.com", false))
}

func TestIsSameDomain_SubdomainAllowedWhenIncluded(t *testing.T) {
	assert.True(t, isSameDomain("https://blog.example.com/page", "example.com", true))
}

func TestIsSameDomain_InvalidURL(t *testing.T) {
	assert.False(t, isSameDomain("://not a url", "example.com", false))
}

func TestStripFragment(t *testing.T) {
	assert.Equal(t, "https://a.example/page", stripFragment("https://a.example/page#section"))
	assert.Equal(t, "https://a.example/page", stripFragment("https://a.example/page"))
}

// With MaxDepth=0 the seed is emitted but never expanded, so the crawl
// touches neither the frontier beyond the seed nor the browser pool.
func TestBFSCrawl_MaxDepthZeroReturnsOnlySeed(t *testing.T) {
	sink := events.NewSink(8)
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for range sink {
		}
	}()

	got := bfsCrawl(context.Background(), nil, "https://a.example/", "a.example",
		robots.Permissive(), Options{Limit: 10, MaxDepth: 0, Concurrency: 2}, sink)

	close(sink)
	<-drained
	assert.Equal(t, []string{"https://a.example/"}, got)
}
