package urlnorm

import "testing"

func TestNormaliseIdempotent(t *testing.T) {
	cases := []string{
		"https://example.com/a/b/?utm_source=x&id=7#frag",
		"https://example.com/",
		"https://example.com/path/",
	}
	for _, c := range cases {
		n1 := Normalise(c)
		n2 := Normalise(n1)
		if n1 != n2 {
			t.Errorf("Normalise not idempotent for %q: %q != %q", c, n1, n2)
		}
	}
}

func TestNormaliseStripsTrackingAndFragment(t *testing.T) {
	got := Normalise("https://a.example/b?utm_source=x&id=7#section")
	want := "https://a.example/b?id=7"
	if got != want {
		t.Errorf("got %q want %q", got, want)
	}
}

func TestNormaliseTrailingSlashRule(t *testing.T) {
	if got := Normalise("https://a.example/"); got != "https://a.example/" {
		t.Errorf("root slash should be kept, got %q", got)
	}
	if got := Normalise("https://a.example/path/"); got != "https://a.example/path" {
		t.Errorf("non-root trailing slash should be stripped, got %q", got)
	}
}

func TestNormalisePreservesQueryOrder(t *testing.T) {
	got := Normalise("https://a.example/b?z=1&a=2&utm_source=x")
	want := "https://a.example/b?z=1&a=2"
	if got != want {
		t.Errorf("got %q want %q (query order should be preserved, only dedupe_key sorts)", got, want)
	}
}

func TestDedupeKeyIgnoresUTMAndOrder(t *testing.T) {
	a := DedupeKey("https://a/b?utm_source=x&id=7")
	b := DedupeKey("https://a/b?id=7")
	c := DedupeKey("https://a/b?id=7&utm_medium=q")
	if a != b || b != c {
		t.Errorf("dedupe keys should match: %q %q %q", a, b, c)
	}
}

func TestDedupeKeySortsParams(t *testing.T) {
	a := DedupeKey("https://a/b?z=1&a=2")
	b := DedupeKey("https://a/b?a=2&z=1")
	if a != b {
		t.Errorf("param order should not matter: %q vs %q", a, b)
	}
}

func TestCacheKeyVariantDiscriminates(t *testing.T) {
	k1 := CacheKey("https://a/b", "")
	k2 := CacheKey("https://a/b", "screenshot_full_page=true")
	if k1 == k2 {
		t.Errorf("different variants should produce different cache keys")
	}
	if len(k1) != 16 || len(k2) != 16 {
		t.Errorf("cache key should be 16 hex chars, got %d and %d", len(k1), len(k2))
	}
}

func TestCacheKeyStable(t *testing.T) {
	k1 := CacheKey("https://a/b?utm_source=x", "v")
	k2 := CacheKey("https://a/b", "v")
	if k1 != k2 {
		t.Errorf("same normalised url + variant should produce the same key")
	}
}
