// Package mapengine implements a sitemap+BFS hybrid URL discovery
// pass that streams progress events and finishes with a
// bounded-concurrency metadata-extraction phase.
package mapengine

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"

	"kirk-crawl/internal/browser"
	"kirk-crawl/internal/events"
	"kirk-crawl/internal/htmlx"
	"kirk-crawl/internal/logging"
	"kirk-crawl/internal/robots"
	"kirk-crawl/internal/sitemap"
)

// SitemapMode controls how sitemap discovery combines with BFS.
type SitemapMode string

const (
	SitemapInclude SitemapMode = "include"
	SitemapSkip    SitemapMode = "skip"
	SitemapOnly    SitemapMode = "only"
)

// Options configures a Map run, mirroring MapService.map's parameters.
type Options struct {
	Limit int
	// MaxDepth bounds the BFS depth: frontier entries at depth ==
	// MaxDepth are still emitted but not expanded, so 0 yields exactly
	// the seed. A negative value selects the default of 3.
	MaxDepth            int
	Sitemap             SitemapMode
	IncludeSubdomains   bool
	Search              string
	IgnoreQueryParams   bool
	AllowExternalLinks  bool
	Concurrency         int
	WaitUntil           browser.WaitUntil
}

// withDefaults fills unset or out-of-range options. MaxDepth uses a
// negative sentinel for "unset" so an explicit 0 survives.
func (o Options) withDefaults() Options {
	if o.Concurrency <= 0 {
		o.Concurrency = defaultConcurrency
	}
	if o.MaxDepth < 0 {
		o.MaxDepth = 3
	}
	if o.Limit <= 0 {
		o.Limit = 200
	}
	return o
}

const defaultConcurrency = 10
const defaultBatchFloor = 20

// Link is a discovered URL with best-effort metadata.
type Link struct {
	URL         string
	Title       string
	Description string
}

// Result is the final output of a Map run.
type Result struct {
	Success bool
	Links   []Link
	Error   string
}

// Map discovers URLs starting from startURL, combining sitemap lookup
// and a domain-scoped BFS crawl per opts.Sitemap, then extracts
// per-URL title/description metadata in bounded-concurrency batches.
// Progress is streamed on sink; Map always closes sink before
// returning.
func Map(ctx context.Context, pool *browser.Pool, startURL string, opts Options, sink events.Sink) Result {
	defer close(sink)

	opts = opts.withDefaults()

	parsed, err := url.Parse(startURL)
	if err != nil {
		result := Result{Success: false, Error: err.Error()}
		sink.Emit(events.Event{Type: events.TypeError, Message: err.Error()})
		return result
	}
	domain := parsed.Host
	origin := parsed.Scheme + "://" + parsed.Host

	policy, warn, _ := robots.NewFetcher().Fetch(ctx, origin, robots.DefaultUserAgent)
	if warn {
		logging.Default.Warnf(ctx, "robots.txt fetch for %s degraded to permissive", origin)
	}

	discovered := map[string]struct{}{}

	if opts.Sitemap != SitemapSkip {
		sink.Emit(events.Event{Type: events.TypeSitemap, Message: "fetching sitemap from " + startURL})
		urls := fetchSitemapURLs(ctx, startURL, policy.Sitemaps)
		for _, u := range urls {
			discovered[u] = struct{}{}
		}
		for _, entry := range sitemap.DiscoverFeeds(ctx, origin) {
			discovered[entry.URL] = struct{}{}
		}
		sink.Emit(events.Event{Type: events.TypeSitemap, Completed: len(discovered), Message: "found sitemap and feed urls"})
	}

	if opts.Sitemap != SitemapOnly {
		sink.Emit(events.Event{Type: events.TypeDiscovery, Message: "starting url discovery from " + startURL})
		bfsURLs := bfsCrawl(ctx, pool, startURL, domain, policy, opts, sink)
		for _, u := range bfsURLs {
			discovered[u] = struct{}{}
		}
	}

	if opts.IgnoreQueryParams {
		normalized := map[string]struct{}{}
		for u := range discovered {
			normalized[stripQuery(u)] = struct{}{}
		}
		discovered = normalized
	}

	urlsList := make([]string, 0, len(discovered))
	for u := range discovered {
		urlsList = append(urlsList, u)
		if len(urlsList) >= opts.Limit {
			break
		}
	}

	if opts.Search != "" {
		filtered := urlsList[:0]
		needle := strings.ToLower(opts.Search)
		for _, u := range urlsList {
			if strings.Contains(strings.ToLower(u), needle) {
				filtered = append(filtered, u)
			}
		}
		urlsList = filtered
	}

	links := extractMetadataBatched(ctx, pool, urlsList, opts, sink)

	if ctx.Err() != nil {
		result := Result{Success: false, Error: "map cancelled: " + ctx.Err().Error()}
		sink.Emit(events.Event{Type: events.TypeError, Message: result.Error, Cancelled: true})
		return result
	}

	result := Result{Success: true, Links: links}
	sink.Emit(events.Event{Type: events.TypeComplete, Message: "map complete", Data: result})
	return result
}

// stripQuery reprojects a URL to scheme://host/path, dropping the
// query string and fragment entirely, for the ignore-query-params
// post-filter.
func stripQuery(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	parsed.RawQuery = ""
	parsed.Fragment = ""
	return parsed.String()
}

func fetchSitemapURLs(ctx context.Context, startURL string, robotsSitemaps []string) []string {
	client := sitemap.NewClient()
	candidates := client.Probe(ctx, startURL, robotsSitemaps)

	var urls []string
	for _, candidate := range candidates {
		entries := client.Parse(ctx, candidate, 5000, 5)
		for _, e := range entries {
			urls = append(urls, e.Loc)
		}
	}
	return urls
}

func extractMetadataBatched(ctx context.Context, pool *browser.Pool, urls []string, opts Options, sink events.Sink) []Link {
	total := len(urls)
	if total == 0 {
		return nil
	}

	sink.Emit(events.Event{Type: events.TypeMetadata, Completed: 0, Total: total, Message: "extracting metadata"})

	batchSize := opts.Concurrency * 2
	if batchSize < defaultBatchFloor {
		batchSize = defaultBatchFloor
	}

	links := make([]Link, 0, total)
	completed := 0

	for start := 0; start < total; start += batchSize {
		end := start + batchSize
		if end > total {
			end = total
		}
		batch := urls[start:end]
		batchLinks := extractBatch(ctx, pool, batch, opts.Concurrency)
		links = append(links, batchLinks...)
		completed += len(batchLinks)

		sink.Emit(events.Event{Type: events.TypeMetadata, Completed: completed, Total: total, Message: "extracted metadata batch"})
	}

	return links
}

func extractBatch(ctx context.Context, pool *browser.Pool, urls []string, concurrency int) []Link {
	sem := semaphore.NewWeighted(int64(concurrency))
	results := make([]Link, len(urls))
	var wg sync.WaitGroup

	for i, u := range urls {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			defer sem.Release(1)
			results[i] = extractOne(ctx, pool, u)
		}(i, u)
	}
	wg.Wait()
	return results
}

func extractOne(ctx context.Context, pool *browser.Pool, targetURL string) Link {
	link := Link{URL: targetURL}

	page, err := pool.Lease(ctx)
	if err != nil {
		return link
	}
	defer page.Release()

	content, err := browser.Fetch(ctx, page, targetURL, browser.FetchOptions{WaitUntil: browser.WaitLoad})
	if err != nil {
		return link
	}

	meta, err := htmlx.ExtractMetadata(content.HTML)
	if err != nil {
		return link
	}
	link.Title = meta.Title
	link.Description = meta.Description
	return link
}
