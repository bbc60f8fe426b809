package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"kirk-crawl/internal/browser"
	"kirk-crawl/internal/crawl"
	"kirk-crawl/internal/events"
	"kirk-crawl/internal/search"
)

var (
	crawlLimit              int
	crawlMaxDepth           int
	crawlInclude            string
	crawlExclude            string
	crawlOutputDir          string
	crawlResume             bool
	crawlFormats            string
	crawlDedupeSimilarURLs  bool
	crawlAllowExternalLinks bool
	crawlSaveFiles          bool
	crawlQuery              string
)

var crawlCmd = &cobra.Command{
	Use:   "crawl [url]",
	Short: "Discover and scrape a site, persisting a resumable manifest and per-page files",
	Long: `Discover and scrape a site, persisting a resumable manifest and
per-page files. Accepts either a seed URL or, via --query, a
natural-language query resolved to a seed URL through the configured
search provider (the first web result wins).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCrawlCommand,
}

// resolveSeed returns args[0] if given, otherwise resolves crawlQuery
// through the configured search provider and takes the first web
// result's URL as the seed.
func resolveSeed(ctx context.Context, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if crawlQuery == "" {
		return "", fmt.Errorf("either a seed url or --query is required")
	}
	if cfg.SearchBaseURL == "" {
		return "", fmt.Errorf("--query requires KIRK_CRAWL_SEARCH_BASE_URL to be configured")
	}
	client := search.New(cfg.SearchBaseURL, cfg.SearchAPIKey)
	results, err := client.Search(ctx, crawlQuery, 1, search.Web)
	if err != nil {
		return "", fmt.Errorf("resolve seed from query: %w", err)
	}
	if len(results) == 0 {
		return "", fmt.Errorf("search provider returned no results for query %q", crawlQuery)
	}
	return results[0].URL, nil
}

func runCrawlCommand(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	seed, err := resolveSeed(ctx, args)
	if err != nil {
		return err
	}

	pool, err := buildPool(false)
	if err != nil {
		return err
	}
	defer pool.Close()

	svc, err := buildScrapeService(pool)
	if err != nil {
		return err
	}
	if flagStealth {
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

	orch := crawl.New(pool, svc)

	sink := events.NewSink(32)
	done := make(chan struct{})
	var failed bool
	go func() {
		defer close(done)
		for ev := range sink {
			switch ev.Type {
			case events.TypeError:
				failed = true
				fmt.Fprintf(os.Stderr, "[error] %s: %s\n", ev.URL, ev.Message)
			case events.TypePage:
				fmt.Fprintf(os.Stderr, "[page] %s (%d/%d)\n", ev.URL, ev.Completed, ev.Total)
			case events.TypeComplete:
				fmt.Fprintf(os.Stderr, "[complete] %d/%d\n", ev.Completed, ev.Total)
			default:
				fmt.Fprintf(os.Stderr, "[%s] %s\n", ev.Type, ev.Message)
			}
		}
	}()

	orch.Crawl(context.Background(), seed, crawl.Options{
		Limit:              crawlLimit,
		MaxDepth:           crawlMaxDepth,
		IncludePatterns:    splitCSV(crawlInclude),
		ExcludePatterns:    splitCSV(crawlExclude),
		OutputDir:          crawlOutputDir,
		Resume:             crawlResume,
		Formats:            splitCSV(crawlFormats),
		DedupeSimilarURLs:  crawlDedupeSimilarURLs,
		AllowExternalLinks: crawlAllowExternalLinks,
		SaveFiles:          crawlSaveFiles,
		Concurrency:        flagConcurrency,
		WaitUntil:          waitUntil,
	}, sink)
	<-done

	if failed {
		os.Exit(1)
	}
	return nil
}

func init() {
	crawlCmd.Flags().IntVar(&crawlLimit, "limit", 200, "maximum number of discovered URLs")
	crawlCmd.Flags().IntVar(&crawlMaxDepth, "max-depth", 3, "maximum BFS depth")
	crawlCmd.Flags().StringVar(&crawlInclude, "include", "", "comma-separated glob patterns; keep only matching URLs")
	crawlCmd.Flags().StringVar(&crawlExclude, "exclude", "", "comma-separated glob patterns; drop matching URLs")
	crawlCmd.Flags().StringVar(&crawlOutputDir, "output-dir", "./kirk-crawl-output", "directory for manifest.json and per-page files")
	crawlCmd.Flags().BoolVar(&crawlResume, "resume", false, "skip URLs already present in output-dir/manifest.json")
	crawlCmd.Flags().StringVar(&crawlFormats, "formats", "markdown", "comma-separated output formats: markdown,html,json")
	crawlCmd.Flags().BoolVar(&crawlDedupeSimilarURLs, "dedupe-similar-urls", false, "drop URLs that share a dedupe key with one already queued")
	crawlCmd.Flags().BoolVar(&crawlAllowExternalLinks, "allow-external-links", false, "allow discovery to follow links outside the seed host")
	crawlCmd.Flags().BoolVar(&crawlSaveFiles, "save-files", true, "write per-page files (manifest.json is always updated)")
	crawlCmd.Flags().StringVar(&crawlQuery, "query", "", "natural-language query resolved to a seed URL via the search provider, in place of a url argument")
	rootCmd.AddCommand(crawlCmd)
}
