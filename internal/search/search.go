// Package search is a thin opaque collaborator client for a
// query->results web/image/news search provider. The core never
// depends on a specific provider; this client models the HTTP shape
// but callers may swap BaseURL to point at any compatible provider.
package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"kirk-crawl/internal/kerrors"
)

// SourceType selects which search surface to query.
type SourceType string

const (
	Web    SourceType = "web"
	Images SourceType = "images"
	News   SourceType = "news"
)

// Result is one hit returned by a search provider.
type Result struct {
	URL         string
	Title       string
	Description string
	Extra       map[string]any
}

// Client queries an HTTP search provider that accepts a query string
// and returns a JSON array of results. A rate-limit failure (429) is
// treated as a valid empty return rather than an error.
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

// New builds a Client with a 30s-timeout HTTP client.
func New(baseURL, apiKey string) *Client {
	return &Client{BaseURL: baseURL, APIKey: apiKey, HTTP: &http.Client{Timeout: 30 * time.Second}}
}

type wireResult struct {
	URL         string         `json:"url"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Extra       map[string]any `json:"-"`
}

// Search queries the provider for query, limiting to limit results of
// the given source type.
func (c *Client) Search(ctx context.Context, query string, limit int, source SourceType) ([]Result, error) {
	if c.BaseURL == "" {
		return nil, kerrors.New(kerrors.KindProvider, "search provider base url not configured")
	}

	params := url.Values{
		"q":      {query},
		"limit":  {strconv.Itoa(limit)},
		"source": {string(source)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, kerrors.Wrap(kerrors.KindProvider, "build search request", err)
	}
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, kerrors.Wrap(kerrors.KindProvider, "search request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, kerrors.New(kerrors.KindProvider, "search provider returned status "+strconv.Itoa(resp.StatusCode))
	}

	var wire []wireResult
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, kerrors.Wrap(kerrors.KindProvider, "decode search response", err)
	}

	out := make([]Result, len(wire))
	for i, w := range wire {
		out[i] = Result{URL: w.URL, Title: w.Title, Description: w.Description}
	}
	return out, nil
}
