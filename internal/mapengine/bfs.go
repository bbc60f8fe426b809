package mapengine

import (
	"context"
	"net/url"
	"strings"

	"golang.org/x/sync/semaphore"

	"kirk-crawl/internal/browser"
	"kirk-crawl/internal/events"
	"kirk-crawl/internal/robots"
)

type frontierEntry struct {
	url   string
	depth int
}

// bfsCrawl performs a breadth-first, domain-scoped link discovery
// crawl starting from startURL, extracting links from each page in
// concurrency-bounded batches and streaming discovery progress on
// sink. It stops once limit URLs have been discovered or the frontier is
// exhausted. URLs disallowed by policy are dropped from the frontier
// without being queued for link extraction.
func bfsCrawl(ctx context.Context, pool *browser.Pool, startURL, domain string, policy robots.Policy, opts Options, sink events.Sink) []string {
	visited := map[string]struct{}{}
	queue := []frontierEntry{{url: stripFragment(startURL), depth: 0}}
	var discovered []string

	for len(queue) > 0 && len(discovered) < opts.Limit {
		var batch []frontierEntry
		var toExtract []frontierEntry

		for len(queue) > 0 && len(batch) < opts.Concurrency && len(discovered)+len(batch) < opts.Limit {
			entry := queue[0]
			queue = queue[1:]

			if _, seen := visited[entry.url]; seen {
				continue
			}
			visited[entry.url] = struct{}{}

			if !opts.AllowExternalLinks && !isSameDomain(entry.url, domain, opts.IncludeSubdomains) {
				continue
			}
			if !robots.Allowed(entry.url, policy) {
				continue
			}

			batch = append(batch, entry)
			if entry.depth < opts.MaxDepth {
				toExtract = append(toExtract, entry)
			}
		}

		if len(batch) == 0 {
			continue
		}

		for _, entry := range batch {
			discovered = append(discovered, entry.url)
			sink.Emit(events.Event{Type: events.TypeDiscovery, URL: entry.url, Completed: len(discovered), Total: opts.Limit, Message: entry.url})
		}

		linkSets := extractLinksBatch(ctx, pool, toExtract, opts)
		for i, entry := range toExtract {
			for _, link := range linkSets[i] {
				normalized := stripFragment(link)
				if _, seen := visited[normalized]; !seen {
					queue = append(queue, frontierEntry{url: normalized, depth: entry.depth + 1})
				}
			}
		}
	}

	return discovered
}

func extractLinksBatch(ctx context.Context, pool *browser.Pool, entries []frontierEntry, opts Options) [][]string {
	results := make([][]string, len(entries))
	sem := semaphore.NewWeighted(int64(opts.Concurrency))
	done := make(chan struct{}, len(entries))

	for i, entry := range entries {
		if err := sem.Acquire(ctx, 1); err != nil {
			done <- struct{}{}
			continue
		}
		go func(i int, targetURL string) {
			defer sem.Release(1)
			defer func() { done <- struct{}{} }()
			results[i] = extractLinksOne(ctx, pool, targetURL, opts.WaitUntil)
		}(i, entry.url)
	}
	for range entries {
		<-done
	}
	return results
}

func extractLinksOne(ctx context.Context, pool *browser.Pool, targetURL string, waitUntil browser.WaitUntil) []string {
	page, err := pool.Lease(ctx)
	if err != nil {
		return nil
	}
	defer page.Release()

	links, err := browser.ExtractLinks(ctx, page, targetURL, waitUntil)
	if err != nil {
		return nil
	}
	return links
}

// stripFragment strips a URL's fragment so the BFS visited set and
// frontier are keyed on the raw, fragment-stripped URL.
func stripFragment(rawURL string) string {
	if i := strings.IndexByte(rawURL, '#'); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}

// isSameDomain reports whether target belongs to domain, optionally
// treating any subdomain of domain as a match.
func isSameDomain(target, domain string, includeSubdomains bool) bool {
	parsed, err := url.Parse(target)
	if err != nil {
		return false
	}
	host := parsed.Host
	if host == domain {
		return true
	}
	if includeSubdomains && strings.HasSuffix(host, "."+domain) {
		return true
	}
	return false
}
