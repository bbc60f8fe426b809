// Package cmd implements the kirk-crawl CLI: map/scrape/crawl/cache
// subcommands wired onto the acquisition core, with persistent flags
// resolved into the run config in PersistentPreRun; each subcommand
// builds its own browser pool(s) via buildPool.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"kirk-crawl/internal/browser"
	"kirk-crawl/internal/cachestore"
	"kirk-crawl/internal/captcha"
	"kirk-crawl/internal/llm"
	"kirk-crawl/internal/runconfig"
	"kirk-crawl/internal/scrape"
)

var (
	cfg runconfig.Config

	flagHeadless    bool
	flagStealth     bool
	flagProxy       string
	flagUserAgent   string
	flagTimeoutMS   int
	flagConcurrency int
	flagWaitUntil   string
	flagCacheDir    string
	flagCaptchaKey  string
	flagMaxAge      int
)

var rootCmd = &cobra.Command{
	Use:   "kirk-crawl",
	Short: "A web content acquisition engine: discover, render, and extract site content",
	Long: `kirk-crawl discovers URLs on a site, renders and extracts content from
them, and persists the results, coordinating a shared headless-browser
pool, honouring robots.txt and site policies, and streaming progress as
it works.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = runconfig.FromEnv()
		if flagUserAgent != "" {
			cfg.UserAgent = flagUserAgent
		}
		if flagTimeoutMS > 0 {
			cfg.TimeoutMS = flagTimeoutMS
		}
		if flagProxy != "" {
			cfg.Proxy = flagProxy
		}
		if flagCacheDir != "" {
			cfg.CacheDir = flagCacheDir
		}
		if flagCaptchaKey != "" {
			cfg.CaptchaAPIKey = flagCaptchaKey
		}
		if flagWaitUntil != "" {
			cfg.DefaultWaitUntil = browser.WaitUntil(flagWaitUntil)
		}
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagHeadless, "headless", true, "run the browser headless")
	rootCmd.PersistentFlags().BoolVar(&flagStealth, "stealth", false, "enable the enhanced anti-detection driver (defaults headful)")
	rootCmd.PersistentFlags().StringVar(&flagProxy, "proxy", "", "proxy URL: scheme://[user:pass@]host:port")
	rootCmd.PersistentFlags().StringVar(&flagUserAgent, "user-agent", "", "override the default user agent")
	rootCmd.PersistentFlags().IntVar(&flagTimeoutMS, "timeout-ms", 0, "per-request timeout in milliseconds")
	rootCmd.PersistentFlags().IntVar(&flagConcurrency, "concurrency", 10, "bounded concurrency for fan-out operations")
	rootCmd.PersistentFlags().StringVar(&flagWaitUntil, "wait-until", "", "load state to wait for: commit|domcontentloaded|load|networkidle")
	rootCmd.PersistentFlags().StringVar(&flagCacheDir, "cache-dir", "", "override the cache directory")
	rootCmd.PersistentFlags().StringVar(&flagCaptchaKey, "captcha-key", "", "2Captcha API key (overrides CAPTCHA_API_KEY)")
	rootCmd.PersistentFlags().IntVar(&flagMaxAge, "max-age", 0, "cache max-age in seconds (0 bypasses the cache)")
}

// buildPool constructs a browser.Pool from the resolved config and CLI
// flags. When enhanced is true, it mirrors --stealth's headful default
// unless --headless was explicitly set on the command line.
func buildPool(enhanced bool) (*browser.Pool, error) {
	opts := browser.Options{
		Headless:        flagHeadless,
		EnhancedStealth: enhanced,
		UserAgent:       cfg.UserAgent,
		TimeoutMS:       cfg.TimeoutMS,
	}
	if enhanced && !rootCmd.PersistentFlags().Changed("headless") {
		opts.Headless = false
	}
	if cfg.Proxy != "" {
		proxyCfg, err := browser.ParseProxyURL(cfg.Proxy)
		if err != nil {
			return nil, err
		}
		opts.Proxy = proxyCfg
	}
	return browser.NewPool(opts)
}

// buildScrapeService wires a scrape.Service from the shared pool plus
// whatever optional collaborators (cache, LLM, captcha solver) the
// resolved config enables.
func buildScrapeService(pool *browser.Pool) (*scrape.Service, error) {
	svc := scrape.New(pool)

	if cfg.CacheDir != "" {
		store, err := cachestore.Open(cfg.CacheDir)
		if err != nil {
			return nil, err
		}
		svc.Cache = store
	}

	if cfg.LLMAPIKey != "" || cfg.LLMBaseURL != "" {
		svc.LLM = llm.New(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel)
	}

	if cfg.CaptchaAPIKey != "" {
		svc.Captcha = captcha.New(cfg.CaptchaAPIKey)
	}

	return svc, nil
}
