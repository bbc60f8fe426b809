package htmlx

import (
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var trackingPixelSubstrings = []string{"1x1", "pixel", "tracking", "analytics"}

var cssBackgroundImageRE = regexp.MustCompile(`background-image\s*:\s*url\(([^)]+)\)`)

// ExtractImages returns the deduplicated, sorted union of image URLs
// found via <img src>, <img srcset>, <source src/srcset>, and CSS
// background-image declarations (inline style + <style> blocks),
// absolutised against baseURL. data: URIs and obvious tracking pixels
// are filtered out.
func ExtractImages(html, baseURL string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	set := map[string]struct{}{}
	add := func(raw string) {
		raw = strings.TrimSpace(raw)
		if raw == "" || strings.HasPrefix(strings.ToLower(raw), "data:") {
			return
		}
		abs := resolveURL(baseURL, raw)
		if abs == "" || isTrackingPixel(abs) {
			return
		}
		set[abs] = struct{}{}
	}

	doc.Find("img").Each(func(i int, s *goquery.Selection) {
		if src, ok := s.Attr("src"); ok {
			add(src)
		}
		if srcset, ok := s.Attr("srcset"); ok {
			for _, u := range parseSrcset(srcset) {
				add(u)
			}
		}
	})
	doc.Find("source").Each(func(i int, s *goquery.Selection) {
		if src, ok := s.Attr("src"); ok {
			add(src)
		}
		if srcset, ok := s.Attr("srcset"); ok {
			for _, u := range parseSrcset(srcset) {
				add(u)
			}
		}
	})
	doc.Find("[style]").Each(func(i int, s *goquery.Selection) {
		style, _ := s.Attr("style")
		for _, m := range cssBackgroundImageRE.FindAllStringSubmatch(style, -1) {
			add(unquoteCSSURL(m[1]))
		}
	})
	doc.Find("style").Each(func(i int, s *goquery.Selection) {
		for _, m := range cssBackgroundImageRE.FindAllStringSubmatch(s.Text(), -1) {
			add(unquoteCSSURL(m[1]))
		}
	})

	out := make([]string, 0, len(set))
	for u := range set {
		out = append(out, u)
	}
	sort.Strings(out)
	return out, nil
}

func parseSrcset(srcset string) []string {
	var urls []string
	for _, part := range strings.Split(srcset, ",") {
		fields := strings.Fields(strings.TrimSpace(part))
		if len(fields) > 0 {
			urls = append(urls, fields[0])
		}
	}
	return urls
}

func unquoteCSSURL(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.Trim(raw, `'"`)
	return raw
}

func isTrackingPixel(url string) bool {
	lower := strings.ToLower(url)
	for _, substr := range trackingPixelSubstrings {
		if strings.Contains(lower, substr) {
			return true
		}
	}
	return false
}
