// Package urlnorm implements URL canonicalisation, dedupe-key
// derivation, and cache-key hashing.
package urlnorm

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// trackingParams is the fixed set of exact-match tracking parameters
// stripped during normalisation, independent of the utm_* prefix rule.
var trackingParams = map[string]struct{}{
	"fbclid":   {},
	"gclid":    {},
	"dclid":    {},
	"msclkid":  {},
	"igshid":   {},
	"mc_cid":   {},
	"mc_eid":   {},
	"ref":      {},
	"ref_src":  {},
	"source":   {},
	"share":    {},
	"_ga":      {},
	"_gl":      {},
}

func isTracking(key string) bool {
	lower := strings.ToLower(key)
	if strings.HasPrefix(lower, "utm_") {
		return true
	}
	_, ok := trackingParams[lower]
	return ok
}

// Normalise strips the fragment, removes tracking parameters, and
// applies the trailing-slash rule (keep root "/", strip elsewhere).
// It is pure and idempotent: Normalise(Normalise(x)) == Normalise(x).
func Normalise(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.Fragment = ""
	u.RawQuery = filterTrackingQuery(u.RawQuery, false)
	u.Path = applyTrailingSlashRule(u.Path)
	return u.String()
}

// DedupeKey additionally sorts the remaining query parameters
// lexicographically by (key, value), so two URLs that differ only in
// query-param order or tracking params compare equal.
func DedupeKey(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.Fragment = ""
	u.RawQuery = filterTrackingQuery(u.RawQuery, true)
	u.Path = applyTrailingSlashRule(u.Path)
	return u.String()
}

// CacheKey returns the 16-hex-character cache key for (url, variant):
// SHA-256(normalise(url) ["|" variant])[:16].
func CacheKey(raw string, variant string) string {
	basis := Normalise(raw)
	if variant != "" {
		basis = basis + "|" + variant
	}
	sum := sha256.Sum256([]byte(basis))
	return hex.EncodeToString(sum[:])[:16]
}

func applyTrailingSlashRule(path string) string {
	if path == "" || path == "/" {
		return "/"
	}
	return strings.TrimRight(path, "/")
}

type queryPair struct{ k, v string }

// parseQueryPairs splits a raw query string into ordered key/value
// pairs, preserving the original parameter order (unlike
// url.ParseQuery, which returns an unordered map).
func parseQueryPairs(rawQuery string) []queryPair {
	var pairs []queryPair
	for _, part := range strings.Split(rawQuery, "&") {
		if part == "" {
			continue
		}
		k, v := part, ""
		if i := strings.IndexByte(part, '='); i >= 0 {
			k, v = part[:i], part[i+1:]
		}
		if dk, err := url.QueryUnescape(k); err == nil {
			k = dk
		}
		if dv, err := url.QueryUnescape(v); err == nil {
			v = dv
		}
		pairs = append(pairs, queryPair{k, v})
	}
	return pairs
}

func encodeQueryPairs(pairs []queryPair) string {
	var sb strings.Builder
	for i, p := range pairs {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(p.k))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(p.v))
	}
	return sb.String()
}

// filterTrackingQuery removes tracking parameters from rawQuery. When
// sortParams is false (Normalise), the remaining parameters keep their
// original order, matching the source's strip_tracking_params; when
// true (DedupeKey), they are sorted lexicographically by (key, value).
func filterTrackingQuery(rawQuery string, sortParams bool) string {
	if rawQuery == "" {
		return ""
	}
	var kept []queryPair
	for _, p := range parseQueryPairs(rawQuery) {
		if isTracking(p.k) {
			continue
		}
		kept = append(kept, p)
	}
	if sortParams {
		sort.Slice(kept, func(i, j int) bool {
			if kept[i].k != kept[j].k {
				return kept[i].k < kept[j].k
			}
			return kept[i].v < kept[j].v
		})
	}
	return encodeQueryPairs(kept)
}
