package htmlx

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// ToMarkdown renders a cleaned HTML fragment as Markdown: ATX headings,
// "-" bullets, tables and fenced code blocks preserved, javascript:
// anchors dropped entirely (including their text), and runs of more
// than two blank lines collapsed to two.
func ToMarkdown(cleanedHTML, baseURL string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(cleanedHTML))
	if err != nil {
		return "", err
	}

	root := doc.Selection
	if body := doc.Find("body").First(); body.Length() > 0 {
		root = body
	}

	var sb strings.Builder
	for _, n := range root.Nodes {
		renderNode(&sb, n, baseURL, 0)
	}

	return collapseBlankLines(sb.String()), nil
}

var multiBlankRE = regexp.MustCompile(`\n{4,}`)
var trailingSpaceRE = regexp.MustCompile(`[ \t]+\n`)

// collapseBlankLines strips per-line trailing whitespace and collapses
// runs of more than 2 blank lines down to exactly 2 (three newlines).
func collapseBlankLines(s string) string {
	s = trailingSpaceRE.ReplaceAllString(s, "\n")
	s = multiBlankRE.ReplaceAllString(s, "\n\n\n")
	return strings.TrimSpace(s) + "\n"
}

func renderNode(sb *strings.Builder, n *html.Node, baseURL string, listDepth int) {
	switch n.Type {
	case html.TextNode:
		text := collapseInlineSpace(n.Data)
		if text != "" {
			sb.WriteString(text)
		}
		return
	case html.ElementNode:
		renderElement(sb, n, baseURL, listDepth)
		return
	case html.DocumentNode:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			renderNode(sb, c, baseURL, listDepth)
		}
		return
	}
}

func renderChildren(sb *strings.Builder, n *html.Node, baseURL string, listDepth int) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		renderNode(sb, c, baseURL, listDepth)
	}
}

func childText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func renderElement(sb *strings.Builder, n *html.Node, baseURL string, listDepth int) {
	switch n.Data {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		level := int(n.Data[1] - '0')
		sb.WriteString("\n\n")
		sb.WriteString(strings.Repeat("#", level))
		sb.WriteString(" ")
		renderChildren(sb, n, baseURL, listDepth)
		sb.WriteString("\n\n")
	case "p", "div", "section", "article":
		sb.WriteString("\n\n")
		renderChildren(sb, n, baseURL, listDepth)
		sb.WriteString("\n\n")
	case "br":
		sb.WriteString("\n")
	case "hr":
		sb.WriteString("\n\n---\n\n")
	case "strong", "b":
		sb.WriteString("**")
		renderChildren(sb, n, baseURL, listDepth)
		sb.WriteString("**")
	case "em", "i":
		sb.WriteString("_")
		renderChildren(sb, n, baseURL, listDepth)
		sb.WriteString("_")
	case "code":
		if isInsidePre(n) {
			renderChildren(sb, n, baseURL, listDepth)
			return
		}
		sb.WriteString("`")
		sb.WriteString(childText(n))
		sb.WriteString("`")
	case "pre":
		sb.WriteString("\n\n```\n")
		sb.WriteString(strings.TrimRight(childText(n), "\n"))
		sb.WriteString("\n```\n\n")
	case "a":
		renderAnchor(sb, n, baseURL, listDepth)
	case "img":
		alt := attrOf(n, "alt")
		src := resolveURL(baseURL, attrOf(n, "src"))
		sb.WriteString("![")
		sb.WriteString(alt)
		sb.WriteString("](")
		sb.WriteString(src)
		sb.WriteString(")")
	case "ul":
		sb.WriteString("\n\n")
		renderList(sb, n, baseURL, listDepth, false)
		sb.WriteString("\n\n")
	case "ol":
		sb.WriteString("\n\n")
		renderList(sb, n, baseURL, listDepth, true)
		sb.WriteString("\n\n")
	case "li":
		renderChildren(sb, n, baseURL, listDepth)
	case "blockquote":
		sb.WriteString("\n\n> ")
		renderChildren(sb, n, baseURL, listDepth)
		sb.WriteString("\n\n")
	case "table":
		renderTable(sb, n, baseURL)
	default:
		renderChildren(sb, n, baseURL, listDepth)
	}
}

func renderAnchor(sb *strings.Builder, n *html.Node, baseURL string, listDepth int) {
	href := strings.TrimSpace(attrOf(n, "href"))
	if strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return
	}
	if href == "" {
		renderChildren(sb, n, baseURL, listDepth)
		return
	}
	text := collapseInlineSpace(childText(n))
	if text == "" {
		return
	}
	abs := resolveURL(baseURL, href)
	if abs == "" {
		abs = href
	}
	sb.WriteString("[")
	sb.WriteString(text)
	sb.WriteString("](")
	sb.WriteString(abs)
	sb.WriteString(")")
}

func renderList(sb *strings.Builder, n *html.Node, baseURL string, listDepth int, ordered bool) {
	i := 1
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.Data != "li" {
			continue
		}
		sb.WriteString(strings.Repeat("  ", listDepth))
		if ordered {
			sb.WriteString(strconv.Itoa(i))
			sb.WriteString(". ")
			i++
		} else {
			sb.WriteString("- ")
		}
		var item strings.Builder
		renderChildren(&item, c, baseURL, listDepth+1)
		sb.WriteString(strings.TrimSpace(item.String()))
		sb.WriteString("\n")
	}
}

func renderTable(sb *strings.Builder, n *html.Node, baseURL string) {
	sel := goquery.NewDocumentFromNode(n).Selection
	var rows [][]string
	sel.Find("tr").Each(func(i int, tr *goquery.Selection) {
		var cells []string
		tr.Find("th,td").Each(func(j int, cell *goquery.Selection) {
			cells = append(cells, collapseInlineSpace(cell.Text()))
		})
		if len(cells) > 0 {
			rows = append(rows, cells)
		}
	})
	if len(rows) == 0 {
		return
	}

	sb.WriteString("\n\n")
	for i, row := range rows {
		sb.WriteString("| ")
		sb.WriteString(strings.Join(row, " | "))
		sb.WriteString(" |\n")
		if i == 0 {
			sb.WriteString("|")
			for range row {
				sb.WriteString(" --- |")
			}
			sb.WriteString("\n")
		}
	}
	sb.WriteString("\n")
}

func isInsidePre(n *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.Data == "pre" {
			return true
		}
	}
	return false
}

func attrOf(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

var inlineSpaceRE = regexp.MustCompile(`[ \t\n\r]+`)

func collapseInlineSpace(s string) string {
	return inlineSpaceRE.ReplaceAllString(s, " ")
}
