// Package htmlx implements the HTML cleaner and extractor: boilerplate
// removal, include/exclude selectors, metadata, links, images, and
// branding extraction, built on goquery.
package htmlx

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// alwaysStripped are removed from every cleaned document regardless of
// caller options.
var alwaysStripped = []string{"script", "style", "nav", "footer", "header", "noscript", "iframe"}

// mainContentSelectors are tried in order when OnlyMainContent is set
// and no IncludeTags were given.
var mainContentSelectors = []string{"main", "article", "[role=main]", ".content", "#content"}

// CleanOptions configures Clean.
type CleanOptions struct {
	OnlyMainContent bool
	IncludeTags     []string
	ExcludeTags     []string
}

// Clean removes boilerplate elements from html and returns the cleaned
// fragment as an HTML string: always-stripped tags, then
// exclude_tags, then include_tags (if any, takes precedence), else
// only_main_content, else body/document.
func Clean(html string, opts CleanOptions) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}

	for _, tag := range alwaysStripped {
		doc.Find(tag).Remove()
	}

	for _, selector := range opts.ExcludeTags {
		if !validSelector(selector) {
			continue
		}
		doc.Find(selector).Remove()
	}

	if len(opts.IncludeTags) > 0 {
		return renderIncludeTags(doc, opts.IncludeTags), nil
	}

	if opts.OnlyMainContent {
		for _, selector := range mainContentSelectors {
			sel := doc.Find(selector).First()
			if sel.Length() > 0 {
				out, rerr := goquery.OuterHtml(sel)
				if rerr == nil {
					return out, nil
				}
			}
		}
	}

	if body := doc.Find("body").First(); body.Length() > 0 {
		out, rerr := goquery.OuterHtml(body)
		if rerr == nil {
			return out, nil
		}
	}
	out, rerr := doc.Html()
	if rerr != nil {
		return "", rerr
	}
	return out, nil
}

func renderIncludeTags(doc *goquery.Document, includeTags []string) string {
	var sb strings.Builder
	sb.WriteString("<div>")
	for _, selector := range includeTags {
		if !validSelector(selector) {
			continue
		}
		doc.Find(selector).Each(func(i int, s *goquery.Selection) {
			if out, err := goquery.OuterHtml(s); err == nil {
				sb.WriteString(out)
			}
		})
	}
	sb.WriteString("</div>")
	return sb.String()
}

// validSelector reports whether selector compiles as a CSS selector,
// letting callers skip invalid selectors silently. goquery
// (via cascadia) panics on malformed selectors rather than returning
// an error, so this recovers and reports false.
func validSelector(selector string) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	_, err := cascadia.Compile(selector)
	return err == nil
}

// StripAlwaysTags is exposed for callers (tests, invariant checks) that
// need to assert the always-stripped set without running full Clean.
func StripAlwaysTags() []string {
	out := make([]string, len(alwaysStripped))
	copy(out, alwaysStripped)
	return out
}
