package htmlx

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Metadata is page metadata extracted from HTML.
type Metadata struct {
	Title       string
	Description string
	Language    string
	Canonical   string
	OpenGraph   map[string]string
	Timezone    string
}

// ExtractMetadata parses title/description with fallback chains
// (<title> -> og:title -> twitter:title, same order for description),
// language, canonical URL, the open-graph set, and a best-effort
// timezone from JSON-LD or meta tags.
func ExtractMetadata(html string) (Metadata, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Metadata{}, err
	}

	meta := Metadata{OpenGraph: map[string]string{}}
	meta.Title = firstNonEmpty(
		strings.TrimSpace(doc.Find("title").First().Text()),
		metaContent(doc, "property", "og:title"),
		metaContent(doc, "name", "twitter:title"),
	)
	meta.Description = firstNonEmpty(
		metaContent(doc, "name", "description"),
		metaContent(doc, "property", "og:description"),
		metaContent(doc, "name", "twitter:description"),
	)
	meta.Language, _ = doc.Find("html").First().Attr("lang")
	meta.Canonical, _ = doc.Find(`link[rel="canonical"]`).First().Attr("href")

	doc.Find(`meta[property^="og:"]`).Each(func(i int, s *goquery.Selection) {
		prop, _ := s.Attr("property")
		content, _ := s.Attr("content")
		if prop != "" && content != "" {
			meta.OpenGraph[prop] = content
		}
	})

	meta.Timezone = detectTimezone(doc)

	return meta, nil
}

func metaContent(doc *goquery.Document, attr, value string) string {
	sel := doc.Find("meta[" + attr + `="` + value + `"]`).First()
	content, _ := sel.Attr("content")
	return strings.TrimSpace(content)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func detectTimezone(doc *goquery.Document) string {
	if tz := metaContent(doc, "name", "timezone"); tz != "" {
		return tz
	}
	tz := ""
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(i int, s *goquery.Selection) bool {
		text := s.Text()
		if idx := strings.Index(text, `"timeZone"`); idx >= 0 {
			rest := text[idx+len(`"timeZone"`):]
			if colon := strings.Index(rest, ":"); colon >= 0 {
				rest = rest[colon+1:]
				rest = strings.TrimLeft(rest, " \t\n\"")
				if end := strings.IndexAny(rest, "\","); end >= 0 {
					tz = rest[:end]
				}
			}
			return false
		}
		return true
	})
	return tz
}
