package crawl

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kirk-crawl/internal/scrape"
)

func TestPersistPage_WritesMarkdownFile(t *testing.T) {
	dir := t.TempDir()
	data := &scrape.Data{Markdown: "# Hello"}
	data.Metadata.Title = "Hello Page"

	err := persistPage(dir, "https://a.example/docs/intro", data, Options{
		SaveFiles: true,
		Formats:   []string{"markdown"},
	})
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(dir, "docs_intro.md"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "source_url: https://a.example/docs/intro")
	assert.Contains(t, string(content), "# Hello")
}

func TestPersistPage_SkippedWhenSaveFilesFalse(t *testing.T) {
	dir := t.TempDir()
	data := &scrape.Data{Markdown: "# Hello"}

	err := persistPage(dir, "https://a.example/x", data, Options{SaveFiles: false})
	require.NoError(t, err)

	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries)
}

func TestPersistPage_JSONFormatWritesAllThree(t *testing.T) {
	dir := t.TempDir()
	data := &scrape.Data{Markdown: "md", HTML: "<p>h</p>"}
	data.Metadata.Title = "T"

	err := persistPage(dir, "https://a.example/page", data, Options{
		SaveFiles: true,
		Formats:   []string{"json"},
	})
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, "page.md"))
	assert.FileExists(t, filepath.Join(dir, "page.html"))

	raw, err := os.ReadFile(filepath.Join(dir, "page.json"))
	require.NoError(t, err)
	var payload pageJSON
	require.NoError(t, json.Unmarshal(raw, &payload))
	assert.Equal(t, "https://a.example/page", payload.URL)
	assert.Equal(t, "md", payload.Markdown)
	assert.Equal(t, "<p>h</p>", payload.HTML)
}

func TestFileBase_RootPathBecomesIndex(t *testing.T) {
	dir := t.TempDir()
	base, err := fileBase(dir, "https://a.example/")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "index"), base)
}

func TestFileBase_NestedPathFlattened(t *testing.T) {
	dir := t.TempDir()
	base, err := fileBase(dir, "https://a.example/blog/2024/post")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "blog_2024_post"), base)
}

func TestFileBase_CollisionGetsHashedSuffix(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "about.md"), []byte("x"), 0o644))

	base, err := fileBase(dir, "https://a.example/about")
	require.NoError(t, err)
	assert.NotEqual(t, filepath.Join(dir, "about"), base)
	assert.Contains(t, base, "about_")
}
