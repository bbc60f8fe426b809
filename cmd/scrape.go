package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"kirk-crawl/internal/browser"
	"kirk-crawl/internal/scrape"
)

var (
	scrapeFormats            string
	scrapeOnlyMainContent    bool
	scrapeIncludeTags        string
	scrapeExcludeTags        string
	scrapeWaitForSPA         bool
	scrapeSPATimeoutMS       int
	scrapeScreenshotFullPage bool
	scrapeJSONPrompt         string
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape <url>",
	Short: "Fetch, clean, and extract a single page into one or more formats",
	Args:  cobra.ExactArgs(1),
	RunE:  runScrapeCommand,
}

func runScrapeCommand(cmd *cobra.Command, args []string) error {
	targetURL := args[0]

	// --stealth forces the first attempt itself into enhanced mode; the
	// service's one-shot retry only ever needs a *second*, stealth pool
	// when the initial attempt was basic, so we only build one here.
	pool, err := buildPool(flagStealth)
	if err != nil {
		return err
	}
	defer pool.Close()

	svc, err := buildScrapeService(pool)
	if err != nil {
		return err
	}
	if !flagStealth {
		stealthPool, serr := buildPool(true)
		if serr != nil {
			return serr
		}
		defer stealthPool.Close()
		svc.StealthPool = stealthPool
	}

	waitUntil := cfg.DefaultWaitUntil
	if waitUntil == "" {
		waitUntil = browser.WaitLoad
	}

	result := svc.Scrape(context.Background(), targetURL, scrape.Options{
		Formats:            splitCSV(scrapeFormats),
		OnlyMainContent:    scrapeOnlyMainContent,
		IncludeTags:        splitCSV(scrapeIncludeTags),
		ExcludeTags:        splitCSV(scrapeExcludeTags),
		JSONPrompt:         scrapeJSONPrompt,
		MaxAge:             time.Duration(flagMaxAge) * time.Second,
		WaitUntil:          waitUntil,
		WaitForSPA:         scrapeWaitForSPA,
		SPATimeoutMS:       scrapeSPATimeoutMS,
		ScreenshotFullPage: scrapeScreenshotFullPage,
		Stealth:            flagStealth,
	})

	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))
	if !result.Success {
		os.Exit(1)
	}
	return nil
}

func splitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func init() {
	scrapeCmd.Flags().StringVar(&scrapeFormats, "formats", "markdown", "comma-separated output formats: markdown,html,rawHtml,screenshot,pdf,links,images,branding,summary,json")
	scrapeCmd.Flags().BoolVar(&scrapeOnlyMainContent, "only-main-content", false, "restrict cleaned output to the page's main content region")
	scrapeCmd.Flags().StringVar(&scrapeIncludeTags, "include-tags", "", "comma-separated CSS selectors to include (overrides only-main-content)")
	scrapeCmd.Flags().StringVar(&scrapeExcludeTags, "exclude-tags", "", "comma-separated CSS selectors to exclude")
	scrapeCmd.Flags().BoolVar(&scrapeWaitForSPA, "wait-for-spa", false, "poll for DOM stability before reading content")
	scrapeCmd.Flags().IntVar(&scrapeSPATimeoutMS, "spa-timeout-ms", 5000, "cap on the SPA stability probe")
	scrapeCmd.Flags().BoolVar(&scrapeScreenshotFullPage, "screenshot-full-page", false, "capture the full scrollable page instead of the viewport")
	scrapeCmd.Flags().StringVar(&scrapeJSONPrompt, "json-prompt", "", "extraction prompt for the json format")
	rootCmd.AddCommand(scrapeCmd)
}
