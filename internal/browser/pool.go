// Package browser implements the browser pool and page fetcher: a pool
// of chromedp browser contexts with per-request isolation, stealth
// injection, proxy support, and SPA stability waiting.
package browser

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// Options configures the pool's allocator-level behaviour.
type Options struct {
	Headless        bool // false (the zero value) runs headful; the CLI defaults it to true, and to false for enhanced stealth unless --headless is given.
	EnhancedStealth bool
	Proxy           *ProxyConfig
	UserAgent       string
	TimeoutMS       int
}

// Pool hands out isolated rendering contexts backed by one shared
// browser process: chromedp.NewContext establishes the browser context
// exactly once, and every Lease derives its own incognito browser
// context (own cookies/storage/cache) from it rather than launching a
// fresh Chrome. The pool is the single writer of the browser lifecycle.
type Pool struct {
	opts        Options
	allocCtx    context.Context
	allocStop   context.CancelFunc
	browserCtx  context.Context
	browserStop context.CancelFunc

	mu   sync.Mutex
	size int
}

// NewPool starts the shared allocator and establishes the long-lived
// browser context. The browser process itself launches lazily on the
// first lease. Callers must call Close when done to terminate it.
func NewPool(opts Options) (*Pool, error) {
	if opts.TimeoutMS == 0 {
		opts.TimeoutMS = 30_000
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.Flag("headless", opts.Headless))
	if opts.EnhancedStealth {
		allocOpts = append(allocOpts,
			chromedp.Flag("disable-blink-features", "AutomationControlled"),
			chromedp.Flag("exclude-switches", "enable-automation"),
		)
	}
	if opts.Proxy != nil {
		allocOpts = append(allocOpts, chromedp.ProxyServer(opts.Proxy.Server))
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}

	allocCtx, allocStop := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, browserStop := chromedp.NewContext(allocCtx)
	return &Pool{
		opts:        opts,
		allocCtx:    allocCtx,
		allocStop:   allocStop,
		browserCtx:  browserCtx,
		browserStop: browserStop,
	}, nil
}

// Close tears down the browser context, then the allocator and any
// browser process it started. Safe to call more than once.
func (p *Pool) Close() {
	p.browserStop()
	p.allocStop()
}

// Page is a leased tab. Release returns it to the pool's bookkeeping
// (each Page owns its own chromedp context, so "release" just cancels
// it — there is no tab reuse across requests; every request gets a
// fresh context.WithTimeout(ctx, ...) wrapping).
type Page struct {
	ctx        context.Context
	cancel     context.CancelFunc
	pool       *Pool
	statusCode atomic.Int32
}

// StatusCode returns the HTTP status of the most recently received
// main-document response on this tab, for the bot-block detector's
// status-code branch. Defaults to 200 before any navigation has
// completed.
func (p *Page) StatusCode() int {
	return int(p.statusCode.Load())
}

// Lease opens a fresh incognito browser context in the shared browser
// (equivalent to a private-browsing window: no cookies, storage, or
// cache shared with other in-flight leases) with the pool's timeout
// applied, injecting stealth scripts before any page script runs.
func (p *Pool) Lease(ctx context.Context) (*Page, error) {
	p.mu.Lock()
	p.size++
	p.mu.Unlock()

	tabCtx, tabCancel := chromedp.NewContext(p.browserCtx, chromedp.WithNewBrowserContext())
	timeout := time.Duration(p.opts.TimeoutMS) * time.Millisecond
	deadlineCtx, deadlineCancel := context.WithTimeout(tabCtx, timeout)

	page := &Page{
		ctx: deadlineCtx,
		cancel: func() {
			deadlineCancel()
			tabCancel()
		},
		pool: p,
	}
	page.statusCode.Store(200)

	if p.opts.Proxy != nil && p.opts.Proxy.Username != "" {
		if err := chromedp.Run(page.ctx, enableProxyAuth(p.opts.Proxy)); err != nil {
			page.Release()
			return nil, fmt.Errorf("enable proxy auth: %w", err)
		}
	}

	if err := chromedp.Run(page.ctx, trackMainDocumentStatus(page)); err != nil {
		page.Release()
		return nil, fmt.Errorf("enable response tracking: %w", err)
	}

	if err := chromedp.Run(page.ctx, injectStealthActions()...); err != nil {
		page.Release()
		return nil, fmt.Errorf("inject stealth scripts: %w", err)
	}

	return page, nil
}

// enableProxyAuth wires the Fetch domain's auth-required handshake so
// navigation doesn't hang behind a credentialed proxy: every paused
// request is resumed unmodified, and every auth challenge is answered
// with the proxy's username/password.
func enableProxyAuth(proxy *ProxyConfig) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		chromedp.ListenTarget(ctx, func(ev interface{}) {
			switch e := ev.(type) {
			case *fetch.EventAuthRequired:
				go func() {
					c := chromedp.FromContext(ctx)
					execCtx := cdp.WithExecutor(ctx, c.Target)
					_ = fetch.ContinueWithAuth(e.RequestID, &fetch.AuthChallengeResponse{
						Response: fetch.AuthChallengeResponseResponseProvideCredentials,
						Username: proxy.Username,
						Password: proxy.Password,
					}).Do(execCtx)
				}()
			case *fetch.EventRequestPaused:
				go func() {
					c := chromedp.FromContext(ctx)
					execCtx := cdp.WithExecutor(ctx, c.Target)
					_ = fetch.ContinueRequest(e.RequestID).Do(execCtx)
				}()
			}
		})
		return fetch.Enable().WithHandleAuthRequests(true).Do(ctx)
	})
}

// trackMainDocumentStatus listens for the tab's main-document response
// and records its HTTP status on page, so the page fetcher can surface
// a real status code instead of assuming 200 (the bot-block detector
// needs 403/429/503 to actually reach it).
func trackMainDocumentStatus(page *Page) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		chromedp.ListenTarget(ctx, func(ev interface{}) {
			e, ok := ev.(*network.EventResponseReceived)
			if !ok || e.Type != network.ResourceTypeDocument || e.Response == nil {
				return
			}
			page.statusCode.Store(int32(e.Response.Status))
		})
		return network.Enable().Do(ctx)
	})
}

// Context returns the chromedp-bound context for this tab, for
// callers (the action runner, page fetcher) that issue their own
// chromedp actions against the leased page.
func (p *Page) Context() context.Context {
	return p.ctx
}

// Release cancels the page's context and returns its slot to the pool.
func (p *Page) Release() {
	p.cancel()
	p.pool.mu.Lock()
	p.pool.size--
	p.pool.mu.Unlock()
}

// Size returns the number of currently leased pages, exposed for
// tests and metrics.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.size
}

// injectStealthActions registers each stealth script via
// Page.addScriptToEvaluateOnNewDocument so the overrides survive every
// navigation the tab makes, not just the current document.
func injectStealthActions() []chromedp.Action {
	actions := make([]chromedp.Action, 0, len(stealthScripts))
	for _, script := range stealthScripts {
		s := script
		actions = append(actions, chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(s).Do(ctx)
			return err
		}))
	}
	return actions
}
