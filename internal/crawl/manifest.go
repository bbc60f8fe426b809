package crawl

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"kirk-crawl/internal/kerrors"
	"kirk-crawl/internal/logging"
)

// manifestData is the on-disk shape of manifest.json.
type manifestData struct {
	ScrapedURLs []string `json:"scraped_urls"`
}

// manifestStore tracks which URLs have already been scraped in this
// (or a resumed) crawl run, append-only on disk. A corrupt manifest is
// treated as empty plus a warning, the same policy the cache store
// applies to its own corrupt index.
type manifestStore struct {
	path string
	mu   sync.Mutex
	seen map[string]struct{}
	data manifestData
}

func newMemoryManifest() *manifestStore {
	return &manifestStore{seen: map[string]struct{}{}}
}

func openManifest(outputDir string) (*manifestStore, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, kerrors.Wrap(kerrors.KindManifestIO, "create output directory", err)
	}
	return &manifestStore{
		path: filepath.Join(outputDir, "manifest.json"),
		seen: map[string]struct{}{},
	}, nil
}

// Load reads the manifest file, populating the seen set for resume.
// A missing file is silently treated as empty; a corrupt one is
// treated as empty and logged as a warning.
func (m *manifestStore) Load() {
	if m.path == "" {
		return
	}
	raw, err := os.ReadFile(m.path)
	if err != nil {
		return
	}
	var data manifestData
	if err := json.Unmarshal(raw, &data); err != nil {
		logging.Default.Warnf(context.Background(), "corrupt manifest %s treated as empty: %v", m.path, err)
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = data
	for _, u := range data.ScrapedURLs {
		m.seen[u] = struct{}{}
	}
}

// Has reports whether url has already been scraped (pre-seeded on
// resume, or recorded earlier in this run).
func (m *manifestStore) Has(url string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.seen[url]
	return ok
}

// Append records url as scraped, persisting the updated manifest file
// if one is backed by disk. A URL never appears twice.
func (m *manifestStore) Append(url string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.seen[url]; ok {
		return
	}
	m.seen[url] = struct{}{}
	m.data.ScrapedURLs = append(m.data.ScrapedURLs, url)
	if m.path == "" {
		return
	}
	raw, err := json.MarshalIndent(m.data, "", "  ")
	if err != nil {
		return
	}
	_ = os.WriteFile(m.path, raw, 0o644)
}
