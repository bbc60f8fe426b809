package htmlx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractMetadata_TitleTagWinsOverOG(t *testing.T) {
	html := `<html><head>
		<title>Plain Title</title>
		<meta property="og:title" content="OG Title">
	</head></html>`
	meta, err := ExtractMetadata(html)
	require.NoError(t, err)
	assert.Equal(t, "Plain Title", meta.Title)
}

func TestExtractMetadata_TitleFallbackChain(t *testing.T) {
	html := `<html><head>
		<meta property="og:title" content="OG Title">
		<meta name="twitter:title" content="Twitter Title">
	</head></html>`
	meta, err := ExtractMetadata(html)
	require.NoError(t, err)
	assert.Equal(t, "OG Title", meta.Title)

	html = `<html><head><meta name="twitter:title" content="Twitter Title"></head></html>`
	meta, err = ExtractMetadata(html)
	require.NoError(t, err)
	assert.Equal(t, "Twitter Title", meta.Title)
}

func TestExtractMetadata_DescriptionFallbackChain(t *testing.T) {
	html := `<html><head><meta property="og:description" content="from og"></head></html>`
	meta, err := ExtractMetadata(html)
	require.NoError(t, err)
	assert.Equal(t, "from og", meta.Description)
}

func TestExtractMetadata_LanguageAndCanonical(t *testing.T) {
	html := `<html lang="de"><head>
		<link rel="canonical" href="https://site.example/page">
	</head></html>`
	meta, err := ExtractMetadata(html)
	require.NoError(t, err)
	assert.Equal(t, "de", meta.Language)
	assert.Equal(t, "https://site.example/page", meta.Canonical)
}

func TestExtractMetadata_OpenGraphSet(t *testing.T) {
	html := `<html><head>
		<meta property="og:title" content="T">
		<meta property="og:image" content="https://site.example/img.png">
	</head></html>`
	meta, err := ExtractMetadata(html)
	require.NoError(t, err)
	assert.Equal(t, "T", meta.OpenGraph["og:title"])
	assert.Equal(t, "https://site.example/img.png", meta.OpenGraph["og:image"])
}

func TestExtractMetadata_TimezoneFromJSONLD(t *testing.T) {
	html := `<html><head>
		<script type="application/ld+json">{"@type":"Event","timeZone":"Europe/Berlin"}</script>
	</head></html>`
	meta, err := ExtractMetadata(html)
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", meta.Timezone)
}

func TestExtractMetadata_TimezoneMetaTagWins(t *testing.T) {
	html := `<html><head><meta name="timezone" content="America/New_York"></head></html>`
	meta, err := ExtractMetadata(html)
	require.NoError(t, err)
	assert.Equal(t, "America/New_York", meta.Timezone)
}
