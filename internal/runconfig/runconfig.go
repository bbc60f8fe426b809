// Package runconfig resolves the CLI's environment-variable surface: a
// plain struct populated from cobra flags and KIRK_CRAWL_* environment
// variables.
package runconfig

import (
	"os"
	"strconv"
	"time"

	"kirk-crawl/internal/browser"
)

// Config is the process-wide set of options the CLI assembles and
// hands to the service layer. Individual operations (map/scrape/crawl)
// take their own narrower options structs; Config supplies the
// environment-level defaults (browser, storage, provider credentials).
type Config struct {
	OutputDir string
	CacheDir  string

	Headless  bool
	TimeoutMS int
	UserAgent string
	Locale    string
	Timezone  string
	Proxy     string

	CaptchaAPIKey    string
	CaptchaTimeoutMS int

	LLMProvider string
	LLMModel    string
	LLMBaseURL  string
	LLMAPIKey   string

	SearchBaseURL string
	SearchAPIKey  string

	DefaultWaitUntil browser.WaitUntil
}

// FromEnv builds a Config seeded from KIRK_CRAWL_* environment
// variables, with conservative defaults for every field. Flags parsed
// by cobra subcommands override these afterward.
func FromEnv() Config {
	cfg := Config{
		OutputDir:        envOr("KIRK_CRAWL_OUTPUT_DIR", "./kirk-crawl-output"),
		CacheDir:         envOr("KIRK_CRAWL_CACHE_DIR", "./kirk-crawl-cache"),
		Headless:         envBool("KIRK_CRAWL_HEADLESS", true),
		TimeoutMS:        envInt("KIRK_CRAWL_TIMEOUT_MS", 30_000),
		UserAgent:        envOr("KIRK_CRAWL_USER_AGENT", "kirk-crawl/1.0"),
		Locale:           envOr("KIRK_CRAWL_LOCALE", "en-US"),
		Timezone:         envOr("KIRK_CRAWL_TIMEZONE", "UTC"),
		Proxy:            os.Getenv("KIRK_CRAWL_PROXY"),
		CaptchaAPIKey:    os.Getenv("CAPTCHA_API_KEY"),
		CaptchaTimeoutMS: envInt("KIRK_CRAWL_CAPTCHA_TIMEOUT_MS", 120_000),
		LLMProvider:      envOr("KIRK_CRAWL_LLM_PROVIDER", "openai"),
		LLMModel:         envOr("KIRK_CRAWL_LLM_MODEL", "gpt-4o-mini"),
		LLMBaseURL:       envOr("KIRK_CRAWL_LLM_BASE_URL", "https://api.openai.com/v1"),
		LLMAPIKey:        os.Getenv("KIRK_CRAWL_LLM_API_KEY"),
		SearchBaseURL:    os.Getenv("KIRK_CRAWL_SEARCH_BASE_URL"),
		SearchAPIKey:     os.Getenv("KIRK_CRAWL_SEARCH_API_KEY"),
		DefaultWaitUntil: browser.WaitUntil(envOr("KIRK_CRAWL_WAIT_UNTIL", string(browser.WaitLoad))),
	}
	return cfg
}

// Timeout returns TimeoutMS as a time.Duration for callers that pass
// context deadlines rather than raw milliseconds.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
