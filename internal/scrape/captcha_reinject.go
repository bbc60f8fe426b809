package scrape

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"

	"kirk-crawl/internal/browser"
	"kirk-crawl/internal/detect"
)

// responseFieldByKind maps a detected CAPTCHA kind to the hidden
// response field a solved token is injected into.
var responseFieldByKind = map[detect.Kind]string{
	detect.RecaptchaV2: "g-recaptcha-response",
	detect.RecaptchaV3: "g-recaptcha-response",
	detect.HCaptcha:    "h-captcha-response",
	detect.Turnstile:   "cf-turnstile-response",
}

// reinjectToken sets token into the page's hidden CAPTCHA response
// field and dispatches a change event so client-side listeners pick it
// up.
func reinjectToken(ctx context.Context, p *browser.Page, c detect.Captcha, token string) error {
	field, ok := responseFieldByKind[c.Kind]
	if !ok {
		return fmt.Errorf("no response field mapping for captcha kind %q", c.Kind)
	}

	script := fmt.Sprintf(`(function() {
		var el = document.getElementsByName(%q)[0] || document.getElementById(%q);
		if (!el) return false;
		el.value = %q;
		el.dispatchEvent(new Event('change', { bubbles: true }));
		return true;
	})();`, field, field, token)

	var ok2 bool
	return chromedp.Run(p.Context(), chromedp.Evaluate(script, &ok2))
}
