// Package sitemap discovers and parses XML sitemaps: robots.txt probe
// order, gzip handling, recursion depth, and lastmod parsing.
package sitemap

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
)

// commonPaths are probed in order after robots.txt Sitemap directives
// are exhausted; the first 200 response wins.
var commonPaths = []string{
	"/sitemap.xml",
	"/sitemap_index.xml",
	"/sitemaps/sitemap.xml",
	"/sitemap/sitemap.xml",
}

// Entry is one <url> element from a sitemap.
type Entry struct {
	Loc        string
	LastMod    time.Time
	HasLastMod bool
	ChangeFreq string
	Priority   float64
	HasPriority bool
}

// Client fetches and parses sitemaps. Fetching goes through a colly
// Collector rather than a bare http.Client, so redirect-following, UA,
// and timeout behaviour stay consistent with the rest of the crawl
// stack.
type Client struct {
	UserAgent string
	Timeout   time.Duration
}

// NewClient builds a sitemap Client with a 60s timeout.
func NewClient() *Client {
	return &Client{UserAgent: "kirk-crawl/1.0", Timeout: 60 * time.Second}
}

// Probe finds sitemap URLs for origin by checking the given robots
// sitemap hints first, then falling back to common locations (first
// 200 wins). robotsSitemaps may be nil/empty.
func (c *Client) Probe(ctx context.Context, origin string, robotsSitemaps []string) []string {
	if len(robotsSitemaps) > 0 {
		return robotsSitemaps
	}
	origin = strings.TrimRight(origin, "/")
	for _, path := range commonPaths {
		candidate := origin + path
		status, _, err := c.collyGet(candidate)
		if err != nil {
			continue
		}
		if status == http.StatusOK {
			return []string{candidate}
		}
	}
	return nil
}

// collyGet performs a single GET through a fresh colly Collector,
// returning the response status and body. A fresh Collector is used
// per call since Collector state (visited-URL dedup, callbacks) is not
// meant to be shared across unrelated fetches.
func (c *Client) collyGet(rawURL string) (status int, body []byte, err error) {
	col := colly.NewCollector(
		colly.UserAgent(c.UserAgent),
		colly.AllowURLRevisit(),
		colly.ParseHTTPErrorResponse(), // surface non-2xx statuses to OnResponse instead of only OnError
	)
	col.SetRequestTimeout(c.Timeout)

	col.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = r.Body
	})

	if verr := col.Visit(rawURL); verr != nil && status == 0 {
		return 0, nil, verr
	}
	return status, body, nil
}

// Parse fetches and parses a sitemap URL, recursing into sitemap
// indexes up to maxDepth and capping output at maxURLs. Any IO or XML
// error on a branch yields an empty list for that branch; traversal of
// sibling branches continues.
func (c *Client) Parse(ctx context.Context, sitemapURL string, maxURLs, maxDepth int) []Entry {
	return c.parseRecursive(ctx, sitemapURL, maxURLs, maxDepth, 0)
}

func (c *Client) parseRecursive(ctx context.Context, sitemapURL string, maxURLs, maxDepth, depth int) []Entry {
	if depth >= maxDepth {
		return nil
	}
	body, err := c.fetchContent(ctx, sitemapURL)
	if err != nil || body == nil {
		return nil
	}

	var probe struct {
		XMLName xml.Name
	}
	if err := xml.Unmarshal(body, &probe); err != nil {
		return nil
	}

	switch stripNamespace(probe.XMLName.Local) {
	case "sitemapindex":
		var idx sitemapIndexXML
		if err := xml.Unmarshal(body, &idx); err != nil {
			return nil
		}
		var out []Entry
		for _, child := range idx.Sitemaps {
			if len(out) >= maxURLs {
				break
			}
			if child.Loc == "" {
				continue
			}
			nested := c.parseRecursive(ctx, strings.TrimSpace(child.Loc), maxURLs-len(out), maxDepth, depth+1)
			out = append(out, nested...)
		}
		return out
	case "urlset":
		var set urlSetXML
		if err := xml.Unmarshal(body, &set); err != nil {
			return nil
		}
		var out []Entry
		for _, u := range set.URLs {
			if len(out) >= maxURLs {
				break
			}
			if u.Loc == "" {
				continue
			}
			e := Entry{Loc: strings.TrimSpace(u.Loc), ChangeFreq: strings.TrimSpace(u.ChangeFreq)}
			if u.LastMod != "" {
				if t, ok := parseLastMod(strings.TrimSpace(u.LastMod)); ok {
					e.LastMod = t
					e.HasLastMod = true
				}
			}
			if u.Priority != "" {
				if f, perr := strconv.ParseFloat(strings.TrimSpace(u.Priority), 64); perr == nil {
					e.Priority = f
					e.HasPriority = true
				}
			}
			out = append(out, e)
		}
		return out
	default:
		return nil
	}
}

func (c *Client) fetchContent(ctx context.Context, sitemapURL string) ([]byte, error) {
	status, body, err := c.collyGet(sitemapURL)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("sitemap %s returned status %d", sitemapURL, status)
	}
	if strings.HasSuffix(sitemapURL, ".gz") || looksGzipMagic(body) {
		if decoded, derr := decompress(body); derr == nil {
			body = decoded
		}
	}
	return body, nil
}

// looksGzipMagic reports whether body starts with the gzip magic
// bytes, covering servers that serve a .gz sitemap without an explicit
// .gz suffix or Content-Encoding header (colly/net/http already
// auto-decompresses the Content-Encoding case transparently).
func looksGzipMagic(body []byte) bool {
	return len(body) >= 2 && body[0] == 0x1f && body[1] == 0x8b
}

func decompress(body []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func stripNamespace(tag string) string {
	if idx := strings.Index(tag, "}"); idx >= 0 {
		return tag[idx+1:]
	}
	return tag
}

type sitemapIndexXML struct {
	XMLName  xml.Name `xml:"sitemapindex"`
	Sitemaps []struct {
		Loc string `xml:"loc"`
	} `xml:"sitemap"`
}

type urlSetXML struct {
	XMLName xml.Name `xml:"urlset"`
	URLs    []struct {
		Loc        string `xml:"loc"`
		LastMod    string `xml:"lastmod"`
		ChangeFreq string `xml:"changefreq"`
		Priority   string `xml:"priority"`
	} `xml:"url"`
}

var offsetColonRE = regexp.MustCompile(`([+-]\d{2}):(\d{2})$`)

// parseLastMod parses an ISO-8601 variant lastmod value. A "+HH:MM"
// offset is normalised to "+HHMM" before the final attempt.
func parseLastMod(raw string) (time.Time, bool) {
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05Z",
		"2006-01-02T15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	normalised := offsetColonRE.ReplaceAllString(raw, "$1$2")
	if t, err := time.Parse("2006-01-02T15:04:05-0700", normalised); err == nil {
		return t, true
	}
	return time.Time{}, false
}
