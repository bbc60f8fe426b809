package detect

import (
	"regexp"
	"strings"
)

// Kind identifies the CAPTCHA variant detected on a page.
type Kind string

const (
	RecaptchaV2 Kind = "recaptcha_v2"
	RecaptchaV3 Kind = "recaptcha_v3"
	HCaptcha    Kind = "hcaptcha"
	Turnstile   Kind = "turnstile"
)

// Captcha is a detected in-page CAPTCHA challenge: its kind, the
// sitekey a solver needs, and the page it was found on.
type Captcha struct {
	Kind    Kind
	Sitekey string
	PageURL string
}

var recaptchaPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)class="g-recaptcha"[^>]*data-sitekey="([^"]+)"`),
	regexp.MustCompile(`(?i)data-sitekey="([^"]+)"`),
	regexp.MustCompile(`(?i)data-sitekey='([^']+)'`),
	regexp.MustCompile(`(?i)grecaptcha\.render\([^,]+,\s*\{[^}]*sitekey['"]?\s*:\s*['"]([^'"]+)`),
	regexp.MustCompile(`(?i)grecaptcha\.execute\(['"]([^'"]+)['"]`),
}

var recaptchaIframeSrcRE = regexp.MustCompile(`(?i)iframe[^>]*src=['"]([^'"]*recaptcha[^'"]*)['"]`)
var recaptchaIframeKeyRE = regexp.MustCompile(`k=([^&'"]+)`)

var hcaptchaPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)data-sitekey="([^"]+)"[^>]*class="h-captcha"`),
	regexp.MustCompile(`(?i)class="h-captcha"[^>]*data-sitekey="([^"]+)"`),
	regexp.MustCompile(`(?i)hcaptcha\.render\([^,]+,\s*\{[^}]*sitekey['"]?\s*:\s*['"]([^'"]+)`),
}

var hcaptchaIframeSrcRE = regexp.MustCompile(`(?i)iframe[^>]*src=['"]([^'"]*hcaptcha[^'"]*)['"]`)
var hcaptchaIframeKeyRE = regexp.MustCompile(`sitekey=([^&'"]+)`)
var hcaptchaDivRE = regexp.MustCompile(`(?i)class="h-captcha"[^>]*data-sitekey="([^"]+)"`)

var turnstilePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)data-sitekey="([^"]+)"[^>]*class="cf-turnstile"`),
	regexp.MustCompile(`(?i)class="cf-turnstile"[^>]*data-sitekey="([^"]+)"`),
	regexp.MustCompile(`(?i)turnstile\.render\([^,]+,\s*\{[^}]*sitekey['"]?\s*:\s*['"]([^'"]+)`),
}

// LooksLikeCaptcha reports whether html carries a reCAPTCHA (v2/v3),
// hCaptcha, or Cloudflare Turnstile challenge, returning the first one
// found in that priority order. pageURL is stamped onto the result for
// a downstream solver client.
func LooksLikeCaptcha(html, pageURL string) *Captcha {
	if strings.Contains(strings.ToLower(html), "recaptcha") {
		if c := matchFirst(recaptchaPatterns, html); c != "" {
			kind := RecaptchaV2
			if containsAny(html, "grecaptcha.execute", "recaptcha/api.js?render=") {
				kind = RecaptchaV3
			}
			return &Captcha{Kind: kind, Sitekey: c, PageURL: pageURL}
		}
	}
	if m := recaptchaIframeSrcRE.FindStringSubmatch(html); m != nil {
		if key := recaptchaIframeKeyRE.FindStringSubmatch(m[1]); key != nil {
			return &Captcha{Kind: RecaptchaV2, Sitekey: key[1], PageURL: pageURL}
		}
	}

	if c := matchFirst(hcaptchaPatterns, html); c != "" {
		return &Captcha{Kind: HCaptcha, Sitekey: c, PageURL: pageURL}
	}
	if m := hcaptchaIframeSrcRE.FindStringSubmatch(html); m != nil {
		if key := hcaptchaIframeKeyRE.FindStringSubmatch(m[1]); key != nil {
			return &Captcha{Kind: HCaptcha, Sitekey: key[1], PageURL: pageURL}
		}
	}
	if m := hcaptchaDivRE.FindStringSubmatch(html); m != nil {
		return &Captcha{Kind: HCaptcha, Sitekey: m[1], PageURL: pageURL}
	}

	if c := matchFirst(turnstilePatterns, html); c != "" {
		return &Captcha{Kind: Turnstile, Sitekey: c, PageURL: pageURL}
	}

	return nil
}

func matchFirst(patterns []*regexp.Regexp, html string) string {
	for _, p := range patterns {
		if m := p.FindStringSubmatch(html); m != nil {
			return m[1]
		}
	}
	return ""
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
