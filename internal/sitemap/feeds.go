package sitemap

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// feedPaths are probed opportunistically alongside sitemap discovery:
// a handful of well-known endpoints, first hit per path wins.
var feedPaths = []string{"/feed/", "/rss.xml", "/atom.xml"}

// FeedEntry is a map-candidate URL surfaced from an RSS/Atom feed, a
// discovery source supplementary to the XML sitemap contract.
type FeedEntry struct {
	URL   string
	Title string
}

// DiscoverFeeds probes common feed endpoints for origin and parses any
// that respond, returning their item links as additional map
// candidates. Failures on any one feed are non-fatal; the others are
// still attempted.
func DiscoverFeeds(ctx context.Context, origin string) []FeedEntry {
	origin = strings.TrimRight(origin, "/")
	parser := gofeed.NewParser()
	client := &http.Client{Timeout: 15 * time.Second}

	var entries []FeedEntry
	for _, path := range feedPaths {
		feedURL := origin + path
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
		if err != nil {
			continue
		}
		resp, err := client.Do(req)
		if err != nil {
			continue
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			continue
		}
		feed, perr := parser.Parse(resp.Body)
		resp.Body.Close()
		if perr != nil || feed == nil {
			continue
		}
		for _, item := range feed.Items {
			if item.Link == "" {
				continue
			}
			entries = append(entries, FeedEntry{URL: item.Link, Title: item.Title})
		}
	}
	return entries
}
