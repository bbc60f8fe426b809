package htmlx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const boilerplatePage = `<html><head><style>body{}</style></head><body>
<script>var x = 1;</script>
<nav>menu</nav>
<header>banner</header>
<noscript>enable js</noscript>
<iframe src="https://ads.example"></iframe>
<main><p>real content</p></main>
<footer>copyright</footer>
</body></html>`

func TestClean_AlwaysStripsBoilerplateTags(t *testing.T) {
	out, err := Clean(boilerplatePage, CleanOptions{})
	require.NoError(t, err)
	for _, tag := range StripAlwaysTags() {
		assert.NotContains(t, out, "<"+tag, "cleaned html must not contain <%s>", tag)
	}
	assert.Contains(t, out, "real content")
}

func TestClean_ExcludeTagsRemoveSubtrees(t *testing.T) {
	html := `<body><div class="ad">buy now</div><p>keep me</p></body>`
	out, err := Clean(html, CleanOptions{ExcludeTags: []string{".ad"}})
	require.NoError(t, err)
	assert.NotContains(t, out, "buy now")
	assert.Contains(t, out, "keep me")
}

func TestClean_InvalidExcludeSelectorSkippedSilently(t *testing.T) {
	html := `<body><p>keep me</p></body>`
	out, err := Clean(html, CleanOptions{ExcludeTags: []string{"[[["}})
	require.NoError(t, err)
	assert.Contains(t, out, "keep me")
}

func TestClean_IncludeTagsCollectMatches(t *testing.T) {
	html := `<body><p class="a">first</p><div>noise</div><p class="b">second</p></body>`
	out, err := Clean(html, CleanOptions{IncludeTags: []string{".a", ".b"}})
	require.NoError(t, err)
	assert.Contains(t, out, "first")
	assert.Contains(t, out, "second")
	assert.NotContains(t, out, "noise")
}

func TestClean_IncludeTagsBeatOnlyMainContent(t *testing.T) {
	html := `<body><main>main text</main><p class="a">included</p></body>`
	out, err := Clean(html, CleanOptions{OnlyMainContent: true, IncludeTags: []string{".a"}})
	require.NoError(t, err)
	assert.Contains(t, out, "included")
	assert.NotContains(t, out, "main text")
}

func TestClean_OnlyMainContentSelectorOrder(t *testing.T) {
	html := `<body><div id="content">late match</div><article>article text</article></body>`
	out, err := Clean(html, CleanOptions{OnlyMainContent: true})
	require.NoError(t, err)
	// "article" precedes "#content" in the selector chain.
	assert.Contains(t, out, "article text")
	assert.NotContains(t, out, "late match")
}

func TestClean_FallsBackToBodyWhenNoMainContentMatches(t *testing.T) {
	html := `<body><p>whole body</p></body>`
	out, err := Clean(html, CleanOptions{OnlyMainContent: true})
	require.NoError(t, err)
	assert.Contains(t, out, "whole body")
}
