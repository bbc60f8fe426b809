// Package crawl implements the crawl orchestrator: composes the map
// engine and scrape service, enforces include/exclude and dedupe
// policies, and persists a resumable manifest + per-page files.
package crawl

import (
	"context"
	"sync"

	"github.com/gobwas/glob"
	"golang.org/x/sync/semaphore"

	"kirk-crawl/internal/browser"
	"kirk-crawl/internal/events"
	"kirk-crawl/internal/kerrors"
	"kirk-crawl/internal/logging"
	"kirk-crawl/internal/mapengine"
	"kirk-crawl/internal/scrape"
	"kirk-crawl/internal/urlnorm"
)

// Options configures a Crawl run, mirroring CrawlService.crawl's
// parameters.
type Options struct {
	Limit               int
	MaxDepth            int
	IncludePatterns     []string
	ExcludePatterns     []string
	OutputDir           string
	Resume              bool
	Formats             []string
	DedupeSimilarURLs   bool
	AllowExternalLinks  bool
	SaveFiles           bool
	Concurrency         int
	WaitUntil           browser.WaitUntil
}

const defaultConcurrency = 10

// Orchestrator composes the map engine and scrape service for one
// crawl run.
type Orchestrator struct {
	Pool   *browser.Pool
	Scrape *scrape.Service
	Log    *logging.Logger
}

// New builds an Orchestrator.
func New(pool *browser.Pool, svc *scrape.Service) *Orchestrator {
	return &Orchestrator{Pool: pool, Scrape: svc, Log: logging.Default}
}

// Crawl discovers, filters, and scrapes URLs starting at seed,
// streaming progress on sink. Crawl always closes sink before
// returning.
func (o *Orchestrator) Crawl(ctx context.Context, seed string, opts Options, sink events.Sink) {
	defer close(sink)

	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}

	var store *manifestStore
	var err error
	if opts.OutputDir != "" {
		store, err = openManifest(opts.OutputDir)
		if err != nil {
			sink.Emit(events.Event{Type: events.TypeError, Message: kerrors.Wrap(kerrors.KindManifestIO, "open manifest", err).Error()})
			return
		}
	} else {
		store = newMemoryManifest()
	}

	if opts.Resume {
		store.Load()
	}

	mapSink := events.NewSink(32)
	mapDone := make(chan mapengine.Result, 1)
	go func() {
		mapDone <- mapengine.Map(ctx, o.Pool, seed, mapengine.Options{
			Limit:              opts.Limit,
			MaxDepth:           opts.MaxDepth,
			Sitemap:            mapengine.SitemapInclude,
			AllowExternalLinks: opts.AllowExternalLinks,
			Concurrency:        opts.Concurrency,
			WaitUntil:          opts.WaitUntil,
		}, mapSink)
	}()
	for ev := range mapSink {
		if ev.Type == events.TypeComplete || ev.Type == events.TypeError {
			continue
		}
		sink.Emit(events.Event{Type: events.TypeMapping, Completed: ev.Completed, Total: ev.Total, URL: ev.URL, Message: ev.Message})
	}
	mapResult := <-mapDone

	if !mapResult.Success {
		sink.Emit(events.Event{Type: events.TypeError, Message: mapResult.Error})
		return
	}

	urls := filterLinks(mapResult.Links, store, opts)
	total := len(urls)
	sink.Emit(events.Event{Type: events.TypeProgress, Completed: 0, Total: total})

	scrapeFormats := deriveScrapeFormats(opts.Formats)

	var completed int
	var mu sync.Mutex
	sem := semaphore.NewWeighted(int64(opts.Concurrency))
	var wg sync.WaitGroup

	for _, targetURL := range urls {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(u string) {
			defer wg.Done()
			defer sem.Release(1)

			result := o.Scrape.Scrape(ctx, u, scrape.Options{Formats: scrapeFormats, WaitUntil: opts.WaitUntil})

			mu.Lock()
			completed++
			n := completed
			mu.Unlock()

			if !result.Success {
				sink.Emit(events.Event{Type: events.TypeError, URL: u, Message: result.Error, Completed: n, Total: total})
			} else {
				if opts.OutputDir != "" {
					if perr := persistPage(opts.OutputDir, u, result.Data, opts); perr != nil {
						o.Log.Warnf(ctx, "persist page %s: %v", u, perr)
					}
				}
				store.Append(u)
				sink.Emit(events.Event{Type: events.TypePage, URL: u, Data: result.Data, Completed: n, Total: total})
			}
			sink.Emit(events.Event{Type: events.TypeProgress, Completed: n, Total: total})
		}(targetURL)
	}
	wg.Wait()

	if ctx.Err() != nil {
		sink.Emit(events.Event{Type: events.TypeError, Message: "crawl cancelled: " + ctx.Err().Error(), Completed: completed, Total: total, Cancelled: true})
		return
	}

	sink.Emit(events.Event{Type: events.TypeComplete, Completed: completed, Total: total})
}

// filterLinks applies the already-scraped, include, exclude, and
// optional dedupe-similar-urls filters in that fixed order.
func filterLinks(links []mapengine.Link, store *manifestStore, opts Options) []string {
	var includeGlobs, excludeGlobs []glob.Glob
	for _, p := range opts.IncludePatterns {
		if g, err := glob.Compile(p); err == nil {
			includeGlobs = append(includeGlobs, g)
		}
	}
	for _, p := range opts.ExcludePatterns {
		if g, err := glob.Compile(p); err == nil {
			excludeGlobs = append(excludeGlobs, g)
		}
	}

	seenDedupe := map[string]struct{}{}
	var out []string
	for _, link := range links {
		u := link.URL
		if store.Has(u) {
			continue
		}
		if len(includeGlobs) > 0 && !matchesAny(includeGlobs, u) {
			continue
		}
		if matchesAny(excludeGlobs, u) {
			continue
		}
		if opts.DedupeSimilarURLs {
			key := urlnorm.DedupeKey(u)
			if _, dup := seenDedupe[key]; dup {
				continue
			}
			seenDedupe[key] = struct{}{}
		}
		out = append(out, u)
	}
	return out
}

func matchesAny(globs []glob.Glob, s string) bool {
	for _, g := range globs {
		if g.Match(s) {
			return true
		}
	}
	return false
}

// deriveScrapeFormats maps the crawl's requested output formats onto
// the narrower set the scrape service understands: markdown|json ->
// scrape with markdown; html|json -> scrape with html; default
// markdown.
func deriveScrapeFormats(corpusFormats []string) []string {
	var out []string
	for _, f := range corpusFormats {
		if f == "markdown" || f == "json" {
			out = append(out, "markdown")
			break
		}
	}
	for _, f := range corpusFormats {
		if f == "html" || f == "json" {
			out = append(out, "html")
			break
		}
	}
	if len(out) == 0 {
		out = []string{"markdown"}
	}
	return out
}
