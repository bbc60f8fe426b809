package crawl

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManifestStore_MemoryRoundtrip(t *testing.T) {
	m := newMemoryManifest()
	assert.False(t, m.Has("https://a.example/x"))
	m.Append("https://a.example/x")
	assert.True(t, m.Has("https://a.example/x"))
}

func TestManifestStore_AppendIsIdempotent(t *testing.T) {
	m := newMemoryManifest()
	m.Append("https://a.example/x")
	m.Append("https://a.example/x")
	assert.Equal(t, []string{"https://a.example/x"}, m.data.ScrapedURLs)
}

func TestOpenManifest_LoadResumesAcrossRuns(t *testing.T) {
	dir := t.TempDir()

	first, err := openManifest(dir)
	require.NoError(t, err)
	first.Append("https://a.example/1")
	first.Append("https://a.example/2")

	second, err := openManifest(dir)
	require.NoError(t, err)
	assert.False(t, second.Has("https://a.example/1"))
	second.Load()
	assert.True(t, second.Has("https://a.example/1"))
	assert.True(t, second.Has("https://a.example/2"))
}

func TestOpenManifest_CorruptFileTreatedAsEmpty(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manifest.json"), []byte("{not json"), 0o644))

	m, err := openManifest(dir)
	require.NoError(t, err)
	m.Load()
	assert.False(t, m.Has("anything"))
}

func TestOpenManifest_MissingFileTreatedAsEmpty(t *testing.T) {
	dir := t.TempDir()
	m, err := openManifest(dir)
	require.NoError(t, err)
	m.Load()
	assert.False(t, m.Has("anything"))
}
