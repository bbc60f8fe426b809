package browser

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// WaitUntil mirrors Playwright/CDP's page load strategies.
type WaitUntil string

const (
	WaitCommit           WaitUntil = "commit"
	WaitDOMContentLoaded WaitUntil = "domcontentloaded"
	WaitLoad             WaitUntil = "load"
	WaitNetworkIdle      WaitUntil = "networkidle"
)

// FetchOptions configures a single page fetch.
type FetchOptions struct {
	WaitUntil          WaitUntil
	WaitForSPA         bool
	SPATimeoutMS       int
	CaptureScreenshot  bool
	ScreenshotFullPage bool
	CapturePDF         bool
}

// PageContent is everything a fetch produced.
type PageContent struct {
	URL        string
	HTML       string
	StatusCode int
	Screenshot []byte
	PDF        []byte
}

// Fetch navigates to url in the leased page and returns its content.
// It waits for the requested load state, then (unless the caller asked
// for networkidle, which already implies a quiet DOM) optionally waits
// for SPA content stability before reading back the document.
func Fetch(ctx context.Context, p *Page, targetURL string, opts FetchOptions) (*PageContent, error) {
	waitUntil := opts.WaitUntil
	if waitUntil == "" {
		waitUntil = WaitLoad
	}

	if err := chromedp.Run(p.ctx, chromedp.Navigate(targetURL), waitAction(waitUntil)); err != nil {
		return nil, fmt.Errorf("navigate %s: %w", targetURL, err)
	}

	if opts.WaitForSPA && waitUntil != WaitNetworkIdle {
		timeout := opts.SPATimeoutMS
		if timeout <= 0 {
			timeout = 5000
		}
		waitForContentLandmark(p.ctx)
		waitForSPAStability(p.ctx, timeout)
	}

	return Capture(p, targetURL, opts)
}

// Capture reads back the leased page's current document (and, if
// requested, a screenshot/PDF) without navigating. Scrape callers that
// run actions (C7) between navigation and final extraction call this
// again afterward so the emitted content reflects any page mutation
// the actions caused, per the fetch sequence's capture-last ordering.
// When wait_until is anything but networkidle, an additional 500ms is
// slept first to let residual JS (e.g. late DOM mutations from actions)
// settle.
func Capture(p *Page, targetURL string, opts FetchOptions) (*PageContent, error) {
	waitUntil := opts.WaitUntil
	if waitUntil == "" {
		waitUntil = WaitLoad
	}
	if waitUntil != WaitNetworkIdle {
		time.Sleep(500 * time.Millisecond)
	}

	var html string
	if err := chromedp.Run(p.ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return nil, fmt.Errorf("read outer html: %w", err)
	}

	content := &PageContent{URL: targetURL, HTML: html, StatusCode: p.StatusCode()}

	if opts.CaptureScreenshot {
		var buf []byte
		var action chromedp.Action
		if opts.ScreenshotFullPage {
			action = chromedp.FullScreenshot(&buf, 90)
		} else {
			action = chromedp.CaptureScreenshot(&buf)
		}
		if err := chromedp.Run(p.ctx, action); err != nil {
			return nil, fmt.Errorf("screenshot: %w", err)
		}
		content.Screenshot = buf
	}

	if opts.CapturePDF {
		var buf []byte
		if err := chromedp.Run(p.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			buf, _, err = page.PrintToPDF().Do(ctx)
			return err
		})); err != nil {
			return nil, fmt.Errorf("pdf: %w", err)
		}
		content.PDF = buf
	}

	return content, nil
}

// ExtractLinks navigates to url and returns the absolute http(s) hrefs
// found on the rendered page.
func ExtractLinks(ctx context.Context, p *Page, targetURL string, waitUntil WaitUntil) ([]string, error) {
	if waitUntil == "" {
		waitUntil = WaitLoad
	}

	var links []string
	err := chromedp.Run(p.ctx,
		chromedp.Navigate(targetURL),
		waitAction(waitUntil),
		chromedp.Evaluate(`
			Array.from(document.querySelectorAll('a[href]'))
				.map(a => a.href)
				.filter(href => href && href.startsWith('http'))
		`, &links),
	)
	if err != nil {
		return nil, fmt.Errorf("extract links %s: %w", targetURL, err)
	}
	return links, nil
}

func waitAction(waitUntil WaitUntil) chromedp.Action {
	switch waitUntil {
	case WaitCommit:
		return chromedp.ActionFunc(func(ctx context.Context) error { return nil })
	case WaitNetworkIdle:
		return chromedp.ActionFunc(func(ctx context.Context) error {
			waitForSPAStability(ctx, 5000)
			return nil
		})
	case WaitDOMContentLoaded, WaitLoad:
		fallthrough
	default:
		return chromedp.WaitReady("body", chromedp.ByQuery)
	}
}

// waitForContentLandmark waits briefly for a main content landmark so
// the stability probe doesn't declare an empty SPA shell stable. Timing
// out here is not an error; the probe runs either way.
func waitForContentLandmark(ctx context.Context) {
	short, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	_ = chromedp.Run(short, chromedp.WaitReady("h1, h2, main, article", chromedp.ByQuery))
}

// waitForSPAStability polls the rendered DOM every 200ms and considers
// content stable after 3 consecutive identical content hashes. Errors
// reading the document are treated as "stop waiting" rather than
// fatal, since the caller still has a usable page either way.
func waitForSPAStability(ctx context.Context, timeoutMS int) {
	deadline := time.Now().Add(time.Duration(timeoutMS) * time.Millisecond)

	const requiredStable = 3
	lastHash := ""
	stableCount := 0

	for time.Now().Before(deadline) {
		var html string
		if err := chromedp.Run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
			return
		}
		hash := contentHash(html)
		if hash == lastHash {
			stableCount++
			if stableCount >= requiredStable {
				return
			}
		} else {
			stableCount = 0
			lastHash = hash
		}
		time.Sleep(200 * time.Millisecond)
	}
}

func contentHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:16]
}
