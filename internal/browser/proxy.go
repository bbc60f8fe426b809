package browser

import (
	"fmt"
	"net/url"

	"kirk-crawl/internal/kerrors"
)

// ProxyConfig is a parsed proxy URL ready to hand to chromedp's
// allocator as a --proxy-server flag plus optional basic-auth
// credentials for the Fetch.authRequired event.
type ProxyConfig struct {
	Server   string // "scheme://host:port"
	Username string
	Password string
}

// ParseProxyURL accepts "scheme://[user:pass@]host:port" for the
// http, https, and socks5 schemes.
func ParseProxyURL(raw string) (*ProxyConfig, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, kerrors.Wrap(kerrors.KindValidation, "parse proxy url", err)
	}

	switch parsed.Scheme {
	case "http", "https", "socks5":
	default:
		return nil, kerrors.New(kerrors.KindValidation,
			fmt.Sprintf("invalid proxy scheme %q: supported are http, https, socks5", parsed.Scheme))
	}

	port := parsed.Port()
	if port == "" {
		port = "80"
	}

	cfg := &ProxyConfig{
		Server: fmt.Sprintf("%s://%s:%s", parsed.Scheme, parsed.Hostname(), port),
	}
	if parsed.User != nil {
		cfg.Username = parsed.User.Username()
		cfg.Password, _ = parsed.User.Password()
	}
	return cfg, nil
}
