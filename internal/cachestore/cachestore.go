// Package cachestore implements a content-addressed disk cache: an
// index.json mapping normalised URL to cache key, and one JSON file
// per entry under pages/.
package cachestore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"kirk-crawl/internal/kerrors"
	"kirk-crawl/internal/urlnorm"
)

// Entry is one cached artifact, serialised verbatim to pages/<key>.json.
type Entry struct {
	URL       string          `json:"url"`
	CachedAt  string          `json:"cached_at"`
	ExpiresAt string          `json:"expires_at"`
	Response  json.RawMessage `json:"response"`
}

// Store is a URL+variant-keyed TTL cache rooted at a directory. File
// operations are best-effort atomic; the index tolerates staleness and
// corruption, rebuilding lazily on next write.
type Store struct {
	root     string
	pagesDir string
	indexPath string
	mu       sync.Mutex
}

// Open prepares a Store rooted at dir, creating the pages/ subtree.
func Open(dir string) (*Store, error) {
	pages := filepath.Join(dir, "pages")
	if err := os.MkdirAll(pages, 0o755); err != nil {
		return nil, kerrors.Wrap(kerrors.KindCacheIO, "create cache directory", err)
	}
	return &Store{root: dir, pagesDir: pages, indexPath: filepath.Join(dir, "index.json")}, nil
}

func (s *Store) pageFile(key string) string {
	return filepath.Join(s.pagesDir, key+".json")
}

// Get returns the cached artifact for (url, variant) if present and
// unexpired. maxAge<=0 always misses, bypassing the cache entirely.
func (s *Store) Get(url string, maxAge time.Duration, variant string) (json.RawMessage, bool) {
	if maxAge <= 0 {
		return nil, false
	}
	key := urlnorm.CacheKey(url, variant)
	data, err := os.ReadFile(s.pageFile(key))
	if err != nil {
		return nil, false
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false
	}
	expiresAt, err := time.Parse(time.RFC3339Nano, entry.ExpiresAt)
	if err != nil {
		return nil, false
	}
	if time.Now().UTC().After(expiresAt) {
		return nil, false
	}
	return entry.Response, true
}

// Set stores response under (url, variant) with the given TTL.
// maxAge<=0 is a no-op, bypassing the cache entirely.
func (s *Store) Set(url string, response json.RawMessage, maxAge time.Duration, variant string) error {
	if maxAge <= 0 {
		return nil
	}
	key := urlnorm.CacheKey(url, variant)
	now := time.Now().UTC()
	entry := Entry{
		URL:       url,
		CachedAt:  now.Format(time.RFC3339Nano),
		ExpiresAt: now.Add(maxAge).Format(time.RFC3339Nano),
		Response:  response,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return kerrors.Wrap(kerrors.KindCacheIO, "marshal cache entry", err)
	}
	if err := writeAtomic(s.pageFile(key), data); err != nil {
		return kerrors.Wrap(kerrors.KindCacheIO, "write cache entry", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	index := s.loadIndex()
	index[urlnorm.Normalise(url)] = key
	s.saveIndex(index)
	return nil
}

// Clear removes a single URL's cache entry, or the whole cache tree
// when url is empty.
func (s *Store) Clear(url string) (int, error) {
	if url == "" {
		entries, err := os.ReadDir(s.pagesDir)
		if err != nil {
			return 0, kerrors.Wrap(kerrors.KindCacheIO, "list cache directory", err)
		}
		count := 0
		for _, e := range entries {
			if err := os.Remove(filepath.Join(s.pagesDir, e.Name())); err == nil {
				count++
			}
		}
		os.Remove(s.indexPath)
		return count, nil
	}

	key := urlnorm.CacheKey(url, "")
	cleared := 0
	if err := os.Remove(s.pageFile(key)); err == nil {
		cleared = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	index := s.loadIndex()
	delete(index, urlnorm.Normalise(url))
	s.saveIndex(index)
	return cleared, nil
}

// PruneExpired walks pages/ and deletes every entry past expiry,
// returning the count removed.
func (s *Store) PruneExpired() (int, error) {
	entries, err := os.ReadDir(s.pagesDir)
	if err != nil {
		return 0, kerrors.Wrap(kerrors.KindCacheIO, "list cache directory", err)
	}
	now := time.Now().UTC()
	pruned := 0

	s.mu.Lock()
	defer s.mu.Unlock()
	index := s.loadIndex()
	modified := false

	for _, e := range entries {
		path := filepath.Join(s.pagesDir, e.Name())
		data, rerr := os.ReadFile(path)
		if rerr != nil {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(data, &entry); err != nil {
			continue
		}
		expiresAt, perr := time.Parse(time.RFC3339Nano, entry.ExpiresAt)
		if perr != nil {
			continue
		}
		if now.After(expiresAt) {
			os.Remove(path)
			pruned++
			normalised := urlnorm.Normalise(entry.URL)
			if _, ok := index[normalised]; ok {
				delete(index, normalised)
				modified = true
			}
		}
	}
	if modified {
		s.saveIndex(index)
	}
	return pruned, nil
}

// Stats reports aggregate counters over the cache tree.
type Stats struct {
	Entries   int
	Expired   int
	Valid     int
	SizeBytes int64
}

// Stats computes aggregate counters over the cache tree.
func (s *Store) Stats() (Stats, error) {
	entries, err := os.ReadDir(s.pagesDir)
	if err != nil {
		return Stats{}, kerrors.Wrap(kerrors.KindCacheIO, "list cache directory", err)
	}
	now := time.Now().UTC()
	var stats Stats
	for _, e := range entries {
		info, ierr := e.Info()
		if ierr != nil {
			continue
		}
		stats.Entries++
		stats.SizeBytes += info.Size()

		data, rerr := os.ReadFile(filepath.Join(s.pagesDir, e.Name()))
		if rerr != nil {
			continue
		}
		var entry Entry
		if json.Unmarshal(data, &entry) != nil {
			continue
		}
		expiresAt, perr := time.Parse(time.RFC3339Nano, entry.ExpiresAt)
		if perr != nil {
			continue
		}
		if now.After(expiresAt) {
			stats.Expired++
		}
	}
	stats.Valid = stats.Entries - stats.Expired
	return stats, nil
}

// loadIndex reads index.json; a missing or corrupt file is treated as
// empty and will be rebuilt on the next Set.
func (s *Store) loadIndex() map[string]string {
	data, err := os.ReadFile(s.indexPath)
	if err != nil {
		return map[string]string{}
	}
	var index map[string]string
	if err := json.Unmarshal(data, &index); err != nil {
		return map[string]string{}
	}
	return index
}

func (s *Store) saveIndex(index map[string]string) {
	data, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return
	}
	_ = writeAtomic(s.indexPath, data)
}

// writeAtomic writes data to a temp file and renames it over path so a
// crash mid-write never leaves a truncated index behind.
func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
