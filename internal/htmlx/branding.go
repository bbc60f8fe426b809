package htmlx

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Branding is the set of visual-identity signals extracted from a page.
type Branding struct {
	Colors      map[string]string // role ("primary", "background", ...) -> CSS color value
	Fonts       []string          // font-family names, deduplicated, in first-seen order
	GoogleFonts []string          // font families served via fonts.googleapis.com
	LogoURL     string
	ColorScheme string // "light" or "dark"
	ThemeColor  string
}

// colorRoleSynonyms maps CSS custom-property names onto colour roles by
// substring: a variable is only considered when its name also contains
// "color", and the first role in this order wins for any one variable
// (so --accent-2-color resolves to secondary, not accent).
var colorRoleSynonyms = []struct {
	role     string
	keywords []string
}{
	{"primary", []string{"primary", "main", "brand"}},
	{"secondary", []string{"secondary", "accent-2"}},
	{"accent", []string{"accent", "highlight"}},
	{"background", []string{"background", "bg", "surface"}},
	{"foreground", []string{"text", "foreground", "fg"}},
}

func colorRoleFor(varName string) string {
	lower := strings.ToLower(varName)
	if !strings.Contains(lower, "color") {
		return ""
	}
	for _, r := range colorRoleSynonyms {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.role
			}
		}
	}
	return ""
}

var cssVarRE = regexp.MustCompile(`(--[\w-]+)\s*:\s*([^;]+);`)
var fontFamilyRE = regexp.MustCompile(`(?i)font-family\s*:\s*([^;}\n]+)`)
var googleFontsHrefRE = regexp.MustCompile(`family=([^&"']+)`)
var backgroundImageRE = regexp.MustCompile(`(?i)background(?:-image)?\s*:[^;]*url\(\s*(['"]?)([^'")]*)['"]?\s*\)`)

const maxExtractedFonts = 10

// ExtractBranding derives colour roles, typography, logo, and
// colour-scheme signals from html and any inline/linked CSS already
// present in the document. baseURL resolves relative logo references.
func ExtractBranding(html, baseURL string) (Branding, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Branding{}, err
	}

	css := collectCSS(doc)

	b := Branding{
		Colors: extractColors(doc, css),
	}
	b.Fonts, b.GoogleFonts = extractFonts(doc, css)
	b.LogoURL = extractLogo(doc, baseURL)
	b.ColorScheme = detectColorScheme(doc, css)
	b.ThemeColor = metaContent(doc, "name", "theme-color")

	return b, nil
}

func collectCSS(doc *goquery.Document) string {
	var sb strings.Builder
	doc.Find("style").Each(func(i int, s *goquery.Selection) {
		sb.WriteString(s.Text())
		sb.WriteString("\n")
	})
	doc.Find("[style]").Each(func(i int, s *goquery.Selection) {
		style, _ := s.Attr("style")
		sb.WriteString(style)
		sb.WriteString(";\n")
	})
	return sb.String()
}

func extractColors(doc *goquery.Document, css string) map[string]string {
	colors := map[string]string{}

	for _, m := range cssVarRE.FindAllStringSubmatch(css, -1) {
		name, value := m[1], strings.TrimSpace(m[2])
		role := colorRoleFor(name)
		if role == "" {
			continue
		}
		if _, exists := colors[role]; !exists {
			colors[role] = value
		}
	}

	if themeColor := metaContent(doc, "name", "theme-color"); themeColor != "" {
		if _, exists := colors["primary"]; !exists {
			colors["primary"] = themeColor
		}
	}

	return colors
}

func extractFonts(doc *goquery.Document, css string) (fonts, googleFonts []string) {
	seen := map[string]struct{}{}

outer:
	for _, m := range fontFamilyRE.FindAllStringSubmatch(css, -1) {
		for _, name := range strings.Split(m[1], ",") {
			name = strings.Trim(strings.TrimSpace(name), `'"`)
			if name == "" {
				continue
			}
			lower := strings.ToLower(name)
			if lower == "inherit" || lower == "sans-serif" || lower == "serif" || lower == "monospace" {
				continue
			}
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			fonts = append(fonts, name)
			if len(fonts) >= maxExtractedFonts {
				break outer
			}
		}
	}

	doc.Find(`link[href*="fonts.googleapis.com"]`).Each(func(i int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		for _, m := range googleFontsHrefRE.FindAllStringSubmatch(href, -1) {
			for _, family := range strings.Split(m[1], "|") {
				family = strings.TrimSpace(strings.ReplaceAll(family, "+", " "))
				if colon := strings.Index(family, ":"); colon >= 0 {
					family = family[:colon]
				}
				if family != "" {
					googleFonts = append(googleFonts, family)
				}
			}
		}
	})

	return fonts, googleFonts
}

// extractLogo resolves a site logo in confidence order: explicit <img>
// logo selectors, site-builder patterns, CSS background-image on
// logo-ish elements, then a low-confidence header <img> fallback,
// finally og:image.
func extractLogo(doc *goquery.Document, baseURL string) string {
	logoSelectors := []string{
		`img[class*="logo" i]`,
		`img[id*="logo" i]`,
		`img[alt*="logo" i]`,
		`a[class*="logo" i] img`,
		`a[id*="logo" i] img`,
		`.logo img`,
		`#logo img`,
	}
	for _, selector := range logoSelectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		if src, ok := sel.Attr("src"); ok && src != "" && !strings.HasPrefix(strings.ToLower(src), "data:") {
			return resolveURL(baseURL, src)
		}
	}

	if url := extractBuilderLogo(doc, baseURL); url != "" {
		return url
	}

	for _, selector := range []string{".logo", "#logo", `[class*="logo" i]`} {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		style, _ := sel.Attr("style")
		if url := extractStyleBackgroundImageURL(style); url != "" {
			return resolveURL(baseURL, url)
		}
	}

	if url := extractHeaderLogoImg(doc, baseURL); url != "" {
		return url
	}

	if content := metaContent(doc, "property", "og:image"); content != "" {
		return resolveURL(baseURL, content)
	}

	return ""
}

// extractBuilderLogo handles Wix, Framer, and Squarespace non-semantic
// markup where conventional logo selectors find nothing.
func extractBuilderLogo(doc *goquery.Document, baseURL string) string {
	found := ""
	doc.Find(`a[href="/"]`).EachWithBreak(func(i int, a *goquery.Selection) bool {
		img := a.Find("img").First()
		if img.Length() > 0 {
			if src, ok := img.Attr("src"); ok && src != "" && !strings.HasPrefix(strings.ToLower(src), "data:") {
				found = resolveURL(baseURL, src)
				return false
			}
		}
		return true
	})
	if found != "" {
		return found
	}

	for _, attr := range []string{"data-framer-name", "data-framer-component-type"} {
		sel := doc.Find("[" + attr + "]").FilterFunction(func(i int, s *goquery.Selection) bool {
			v, _ := s.Attr(attr)
			return strings.Contains(strings.ToLower(v), "logo")
		}).First()
		if sel.Length() == 0 {
			continue
		}
		if img := sel.Find("img").First(); img.Length() > 0 {
			if src, ok := img.Attr("src"); ok && src != "" && !strings.HasPrefix(strings.ToLower(src), "data:") {
				return resolveURL(baseURL, src)
			}
		}
		style, _ := sel.Attr("style")
		if url := extractStyleBackgroundImageURL(style); url != "" {
			return resolveURL(baseURL, url)
		}
	}

	sqspSelectors := []string{
		`[data-section-type="header"] img`,
		`.header-display-desktop img`,
		`.site-title img`,
		`.site-branding img`,
	}
	for _, selector := range sqspSelectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		if src, ok := sel.Attr("src"); ok && src != "" && !strings.HasPrefix(strings.ToLower(src), "data:") {
			return resolveURL(baseURL, src)
		}
	}

	return ""
}

// extractHeaderLogoImg is the low-confidence fallback: a <header> img,
// favouring SVGs and skipping anything wider than 600px that likely is
// a hero banner rather than a logo.
func extractHeaderLogoImg(doc *goquery.Document, baseURL string) string {
	header := doc.Find("header").First()
	if header.Length() == 0 {
		return ""
	}

	result := ""
	header.Find("img").EachWithBreak(func(i int, img *goquery.Selection) bool {
		src, ok := img.Attr("src")
		if !ok || src == "" || strings.HasPrefix(strings.ToLower(src), "data:") {
			return true
		}
		if strings.Contains(strings.ToLower(src), ".svg") {
			result = resolveURL(baseURL, src)
			return false
		}
		if width, ok := img.Attr("width"); ok {
			trimmed := strings.TrimSuffix(strings.TrimSpace(width), "px")
			if n, err := strconv.Atoi(trimmed); err == nil && n > 600 {
				return true
			}
		}
		result = resolveURL(baseURL, src)
		return false
	})
	return result
}

func extractStyleBackgroundImageURL(style string) string {
	if style == "" {
		return ""
	}
	m := backgroundImageRE.FindStringSubmatch(style)
	if m == nil {
		return ""
	}
	url := strings.TrimSpace(m[2])
	if url == "" || strings.HasPrefix(strings.ToLower(url), "data:") {
		return ""
	}
	return url
}

// detectColorScheme checks, in order: a color-scheme meta tag, dark/night
// classes on <html> or <body>, and literal dark-mode markers in CSS,
// defaulting to "light".
func detectColorScheme(doc *goquery.Document, css string) string {
	if content := metaContent(doc, "name", "color-scheme"); content != "" {
		lower := strings.ToLower(content)
		if strings.Contains(lower, "dark") {
			return "dark"
		}
		if strings.Contains(lower, "light") {
			return "light"
		}
	}

	for _, sel := range []string{"html", "body"} {
		if class, ok := doc.Find(sel).First().Attr("class"); ok {
			lower := strings.ToLower(class)
			if strings.Contains(lower, "dark") || strings.Contains(lower, "night") {
				return "dark"
			}
		}
	}

	if strings.Contains(css, "prefers-color-scheme: dark") || strings.Contains(css, "--dark") {
		return "dark"
	}

	return "light"
}
