package htmlx

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToMarkdown_Headings(t *testing.T) {
	md, err := ToMarkdown("<h1>Title</h1><h2>Subtitle</h2>", "https://example.com")
	require.NoError(t, err)
	assert.Contains(t, md, "# Title")
	assert.Contains(t, md, "## Subtitle")
}

func TestToMarkdown_PreservesLinks(t *testing.T) {
	md, err := ToMarkdown(`<a href="https://example.com/page">Link</a>`, "https://example.com")
	require.NoError(t, err)
	assert.Contains(t, md, "[Link](https://example.com/page)")
}

func TestToMarkdown_StripsJavascriptLinks(t *testing.T) {
	md, err := ToMarkdown(`<a href="javascript:window.print()">Print this page</a>`, "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, "", strings.TrimSpace(md))
	assert.NotContains(t, md, "Print this page")
	assert.NotContains(t, md, "javascript:")
}

func TestToMarkdown_StripsJavascriptVoidCaseInsensitive(t *testing.T) {
	md, err := ToMarkdown(`<a href="JavaScript:void(0)">Click me</a>`, "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, "", strings.TrimSpace(md))
	assert.NotContains(t, md, "Click me")
}

func TestToMarkdown_PreservesNonJavascriptProtocols(t *testing.T) {
	md, err := ToMarkdown(`<a href="mailto:test@example.com">Email</a>`, "https://example.com")
	require.NoError(t, err)
	assert.Contains(t, md, "[Email](mailto:test@example.com)")
}

func TestToMarkdown_PreservesCodeBlocks(t *testing.T) {
	md, err := ToMarkdown("<pre><code>def foo(): pass</code></pre>", "https://example.com")
	require.NoError(t, err)
	assert.Contains(t, md, "def foo(): pass")
	assert.Contains(t, md, "```")
}

func TestToMarkdown_CollapsesBlankLines(t *testing.T) {
	md, err := ToMarkdown("<p>A</p><p></p><p></p><p></p><p>B</p>", "https://example.com")
	require.NoError(t, err)
	assert.NotContains(t, md, "\n\n\n\n")
}

func TestToMarkdown_Lists(t *testing.T) {
	md, err := ToMarkdown("<ul><li>one</li><li>two</li></ul>", "https://example.com")
	require.NoError(t, err)
	assert.Contains(t, md, "- one")
	assert.Contains(t, md, "- two")
}

func TestToMarkdown_Table(t *testing.T) {
	html := `<table><tr><th>A</th><th>B</th></tr><tr><td>1</td><td>2</td></tr></table>`
	md, err := ToMarkdown(html, "https://example.com")
	require.NoError(t, err)
	assert.Contains(t, md, "| A | B |")
	assert.Contains(t, md, "| --- | --- |")
	assert.Contains(t, md, "| 1 | 2 |")
}
