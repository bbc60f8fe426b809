package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"kirk-crawl/internal/browser"
	"kirk-crawl/internal/events"
	"kirk-crawl/internal/mapengine"
)

var (
	mapLimit              int
	mapMaxDepth           int
	mapSitemapMode        string
	mapIncludeSubdomains  bool
	mapSearch             string
	mapIgnoreQueryParams  bool
	mapAllowExternalLinks bool
)

var mapCmd = &cobra.Command{
	Use:   "map <url>",
	Short: "Discover URLs on a site via sitemap+BFS hybrid discovery",
	Args:  cobra.ExactArgs(1),
	RunE:  runMapCommand,
}

func runMapCommand(cmd *cobra.Command, args []string) error {
	seed := args[0]

	pool, err := buildPool(flagStealth)
	if err != nil {
		return err
	}
	defer pool.Close()

	sink := events.NewSink(32)
	go func() {
		for ev := range sink {
			if ev.Type == events.TypeComplete {
				continue
			}
			fmt.Fprintf(os.Stderr, "[%s] %s (%d/%d)\n", ev.Type, ev.Message, ev.Completed, ev.Total)
		}
	}()

	waitUntil := cfg.DefaultWaitUntil
	if waitUntil == "" {
		waitUntil = browser.WaitLoad
	}

	result := mapengine.Map(context.Background(), pool, seed, mapengine.Options{
		Limit:              mapLimit,
		MaxDepth:           mapMaxDepth,
		Sitemap:            mapengine.SitemapMode(mapSitemapMode),
		IncludeSubdomains:  mapIncludeSubdomains,
		Search:             mapSearch,
		IgnoreQueryParams:  mapIgnoreQueryParams,
		AllowExternalLinks: mapAllowExternalLinks,
		Concurrency:        flagConcurrency,
		WaitUntil:          waitUntil,
	}, sink)

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

func init() {
	mapCmd.Flags().IntVar(&mapLimit, "limit", 200, "maximum number of discovered URLs")
	mapCmd.Flags().IntVar(&mapMaxDepth, "max-depth", 3, "maximum BFS depth")
	mapCmd.Flags().StringVar(&mapSitemapMode, "sitemap-mode", "include", "sitemap usage: "+strings.Join([]string{"include", "skip", "only"}, "|"))
	mapCmd.Flags().BoolVar(&mapIncludeSubdomains, "include-subdomains", false, "treat subdomains of the seed host as in-scope")
	mapCmd.Flags().StringVar(&mapSearch, "search", "", "keep only URLs containing this substring")
	mapCmd.Flags().BoolVar(&mapIgnoreQueryParams, "ignore-query-params", false, "reproject URLs to scheme://host/path before deduping")
	mapCmd.Flags().BoolVar(&mapAllowExternalLinks, "allow-external-links", false, "follow links outside the seed host")
	rootCmd.AddCommand(mapCmd)
}
