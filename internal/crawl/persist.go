package crawl

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"kirk-crawl/internal/scrape"
)

type pageJSON struct {
	URL      string           `json:"url"`
	Markdown string           `json:"markdown,omitempty"`
	HTML     string           `json:"html,omitempty"`
	Metadata pageJSONMetadata `json:"metadata"`
}

type pageJSONMetadata struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	SourceURL   string `json:"source_url"`
}

// persistPage writes the requested output files for one scraped page
// under outputDir, building the file base from the URL path, and
// always appending to the manifest (handled by the caller) so resume
// works even when SaveFiles is false.
func persistPage(outputDir, targetURL string, data *scrape.Data, opts Options) error {
	if !opts.SaveFiles {
		return nil
	}

	base, err := fileBase(outputDir, targetURL)
	if err != nil {
		return err
	}

	wantsAny := func(kinds ...string) bool {
		for _, f := range opts.Formats {
			for _, k := range kinds {
				if f == k {
					return true
				}
			}
		}
		return false
	}

	if wantsAny("markdown", "json") && data.Markdown != "" {
		content := frontMatter(targetURL, data.Metadata.Title) + data.Markdown
		if err := os.WriteFile(base+".md", []byte(content), 0o644); err != nil {
			return err
		}
	}

	if wantsAny("html", "json") && data.HTML != "" {
		if err := os.WriteFile(base+".html", []byte(data.HTML), 0o644); err != nil {
			return err
		}
	}

	if wantsAny("json") {
		payload := pageJSON{
			URL: targetURL,
			Metadata: pageJSONMetadata{
				Title:       data.Metadata.Title,
				Description: data.Metadata.Description,
				SourceURL:   targetURL,
			},
		}
		if data.Markdown != "" {
			payload.Markdown = data.Markdown
		}
		if data.HTML != "" {
			payload.HTML = data.HTML
		}
		raw, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(base+".json", raw, 0o644); err != nil {
			return err
		}
	}

	return nil
}

func frontMatter(sourceURL, title string) string {
	return fmt.Sprintf("---\nsource_url: %s\ntitle: %s\n---\n\n", sourceURL, title)
}

// fileBase derives a filesystem-safe base path (without extension)
// from targetURL's path, replacing "/" with "_", and resolving
// collisions with existing files of the same base by appending an
// 8-hex-character hash of the URL.
func fileBase(outputDir, targetURL string) (string, error) {
	parsed, err := url.Parse(targetURL)
	if err != nil {
		return "", err
	}
	trimmed := strings.Trim(parsed.Path, "/")
	name := strings.ReplaceAll(trimmed, "/", "_")
	if name == "" {
		name = "index"
	}

	base := filepath.Join(outputDir, name)
	if !collides(base, targetURL) {
		return base, nil
	}

	sum := sha256.Sum256([]byte(targetURL))
	suffix := hex.EncodeToString(sum[:])[:8]
	return base + "_" + suffix, nil
}

// collides reports whether a file with this base (any extension)
// already exists and wasn't written for the same URL. Since this
// package doesn't track base->URL ownership beyond the manifest, any
// pre-existing file at this base is treated as a collision requiring
// the hashed suffix.
func collides(base, _ string) bool {
	for _, ext := range []string{".md", ".html", ".json"} {
		if _, err := os.Stat(base + ext); err == nil {
			return true
		}
	}
	return false
}
