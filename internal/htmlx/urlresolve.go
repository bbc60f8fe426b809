package htmlx

import "net/url"

// resolveURL absolutises raw against base, returning "" when raw does
// not parse so callers can skip unresolvable references; when base does
// not parse, raw is returned unchanged.
func resolveURL(base, raw string) string {
	if raw == "" {
		return ""
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return raw
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return baseURL.ResolveReference(ref).String()
}
