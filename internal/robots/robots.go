// Package robots fetches, parses, and evaluates robots.txt policies:
// user-agent group matching, allow/disallow pattern precedence, and
// crawl-delay/request-rate directives.
package robots

import (
	"context"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
)

// Policy is the parsed form of a robots.txt file for one user agent.
type Policy struct {
	UserAgent        string
	CrawlDelay       float64
	HasCrawlDelay    bool
	RequestRate      float64
	HasRequestRate   bool
	Sitemaps         []string
	AllowPatterns    []string
	DisallowPatterns []string
}

// Permissive returns the zero-restriction policy used whenever
// robots.txt is absent, unreachable, or returns a server error.
func Permissive() Policy {
	return Policy{UserAgent: "*"}
}

// DefaultUserAgent is the identifier the crawler presents in both the
// robots.txt group match and its own request headers.
const DefaultUserAgent = "kirk-crawl"

// Fetcher fetches robots.txt. Transport is a colly Collector rather
// than a bare http.Client, built fresh per fetch, so non-rendered
// requests behave like the rest of the crawl stack.
type Fetcher struct {
	Timeout time.Duration
}

// NewFetcher builds a Fetcher with a 30s timeout.
func NewFetcher() *Fetcher {
	return &Fetcher{Timeout: 30 * time.Second}
}

// Fetch retrieves and parses robots.txt for origin (scheme://host).
// Every non-200 response and any transport error yield a permissive
// policy. The warn flag tells the caller whether to log a warning: it
// is false for a 404 (which stays silent) and true for 5xx, transport
// errors, and any other non-200 status.
func (f *Fetcher) Fetch(ctx context.Context, origin string, userAgent string) (policy Policy, warn bool, err error) {
	col := colly.NewCollector(
		colly.UserAgent(DefaultUserAgent+"/1.0"),
		colly.AllowURLRevisit(),
		colly.ParseHTTPErrorResponse(),
	)
	col.SetRequestTimeout(f.Timeout)

	var status int
	var body []byte
	col.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = r.Body
	})

	target := strings.TrimRight(origin, "/") + "/robots.txt"
	if verr := col.Visit(target); verr != nil && status == 0 {
		return Permissive(), true, nil
	}

	if status == http.StatusNotFound {
		return Permissive(), false, nil
	}
	if status >= 500 {
		return Permissive(), true, nil
	}
	if status != http.StatusOK {
		return Permissive(), true, nil
	}

	return Parse(string(body), userAgent), false, nil
}

// Parse parses raw robots.txt content for the given user agent.
// Directives are case-insensitive; groups are delimited by
// "User-agent:" lines; a group matches if its UA equals userAgent
// (case-insensitive exact) or is "*" and no exact-match group exists.
// Sitemap directives apply regardless of group.
func Parse(content string, userAgent string) Policy {
	policy := Policy{UserAgent: userAgent}
	uaLower := strings.ToLower(userAgent)

	var currentUA string
	exactMatched := false
	for _, rawLine := range strings.Split(content, "\n") {
		line := rawLine
		if idx := strings.Index(line, "#"); idx >= 0 {
			line = line[:idx]
		}
		if idx := strings.Index(line, ":"); idx >= 0 &&
			strings.ToLower(strings.TrimSpace(line[:idx])) == "user-agent" &&
			strings.ToLower(strings.TrimSpace(line[idx+1:])) == uaLower {
			exactMatched = true
			break
		}
	}

	for _, rawLine := range strings.Split(content, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if idx := strings.Index(line, "#"); idx >= 0 {
			line = strings.TrimSpace(line[:idx])
		}
		if line == "" {
			continue
		}
		idx := strings.Index(line, ":")
		if idx < 0 {
			continue
		}
		directive := strings.ToLower(strings.TrimSpace(line[:idx]))
		value := strings.TrimSpace(line[idx+1:])

		switch directive {
		case "user-agent":
			currentUA = strings.ToLower(value)
		case "sitemap":
			if value != "" && !contains(policy.Sitemaps, value) {
				policy.Sitemaps = append(policy.Sitemaps, value)
			}
		default:
			if currentUA == "" {
				continue
			}
			matching := currentUA == uaLower || (currentUA == "*" && !exactMatched)
			if !matching {
				continue
			}
			switch directive {
			case "disallow":
				if value != "" {
					policy.DisallowPatterns = append(policy.DisallowPatterns, value)
				}
			case "allow":
				if value != "" {
					policy.AllowPatterns = append(policy.AllowPatterns, value)
				}
			case "crawl-delay":
				if f, perr := strconv.ParseFloat(value, 64); perr == nil {
					policy.CrawlDelay = f
					policy.HasCrawlDelay = true
				}
			case "request-rate":
				if parts := strings.SplitN(value, "/", 2); len(parts) == 2 {
					reqs, rerr := strconv.ParseFloat(parts[0], 64)
					secs, serr := strconv.ParseFloat(parts[1], 64)
					if rerr == nil && serr == nil && secs != 0 {
						policy.RequestRate = reqs / secs
						policy.HasRequestRate = true
					}
				}
			}
		}
	}

	return policy
}

// Allowed evaluates whether url's path is permitted by policy: allow
// patterns are checked first (any match allows), then disallow
// patterns (any match denies); the default is allow.
func Allowed(rawURL string, policy Policy) bool {
	path := pathOf(rawURL)
	for _, p := range policy.AllowPatterns {
		if matchesPattern(path, p) {
			return true
		}
	}
	for _, p := range policy.DisallowPatterns {
		if matchesPattern(path, p) {
			return false
		}
	}
	return true
}

func pathOf(rawURL string) string {
	// Avoid importing net/url just for the path: robots patterns only
	// ever need the path+query portion after the authority.
	idx := strings.Index(rawURL, "://")
	rest := rawURL
	if idx >= 0 {
		rest = rawURL[idx+3:]
	}
	slash := strings.Index(rest, "/")
	if slash < 0 {
		return "/"
	}
	path := rest[slash:]
	if path == "" {
		return "/"
	}
	return path
}

func matchesPattern(path, pattern string) bool {
	if pattern == "" {
		return false
	}
	anchored := strings.HasSuffix(pattern, "$")
	if anchored {
		pattern = pattern[:len(pattern)-1]
	}
	if strings.Contains(pattern, "*") {
		escaped := regexp.QuoteMeta(pattern)
		escaped = strings.ReplaceAll(escaped, `\*`, ".*")
		if anchored {
			escaped += "$"
		} else {
			escaped = "^" + escaped
		}
		re, err := regexp.Compile(escaped)
		if err != nil {
			return false
		}
		return re.MatchString(path)
	}
	if anchored {
		return path == pattern
	}
	return strings.HasPrefix(path, pattern)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
