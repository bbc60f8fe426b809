package htmlx

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractImages_SrcAndSrcset(t *testing.T) {
	html := `<body>
		<img src="/a.png">
		<img srcset="/b-480.png 480w, /b-800.png 800w">
		<source srcset="/c.webp">
	</body>`
	out, err := ExtractImages(html, "https://site.example")
	require.NoError(t, err)
	assert.Contains(t, out, "https://site.example/a.png")
	assert.Contains(t, out, "https://site.example/b-480.png")
	assert.Contains(t, out, "https://site.example/b-800.png")
	assert.Contains(t, out, "https://site.example/c.webp")
}

func TestExtractImages_CSSBackgroundImages(t *testing.T) {
	html := `<body>
		<div style="background-image: url('/hero.jpg')"></div>
		<style>.banner { background-image: url("/banner.jpg"); }</style>
	</body>`
	out, err := ExtractImages(html, "https://site.example")
	require.NoError(t, err)
	assert.Contains(t, out, "https://site.example/hero.jpg")
	assert.Contains(t, out, "https://site.example/banner.jpg")
}

func TestExtractImages_SkipsDataURIs(t *testing.T) {
	html := `<body><img src="data:image/png;base64,iVBOR"></body>`
	out, err := ExtractImages(html, "https://site.example")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestExtractImages_FiltersTrackingPixels(t *testing.T) {
	html := `<body>
		<img src="/spacer-1x1.gif">
		<img src="/pixel.gif">
		<img src="https://analytics.example/beacon.png">
		<img src="/photo.jpg">
	</body>`
	out, err := ExtractImages(html, "https://site.example")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://site.example/photo.jpg"}, out)
}

func TestExtractImages_DeduplicatedAndSorted(t *testing.T) {
	html := `<body><img src="/z.png"><img src="/a.png"><img src="/z.png"></body>`
	out, err := ExtractImages(html, "https://site.example")
	require.NoError(t, err)
	assert.Len(t, out, 2)
	assert.True(t, sort.StringsAreSorted(out))
}
