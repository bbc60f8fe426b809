package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"kirk-crawl/internal/cachestore"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage the on-disk content-addressed cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Report entry/expiry/size counters for the cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := cachestore.Open(resolveCacheDir())
		if err != nil {
			return err
		}
		stats, err := store.Stats()
		if err != nil {
			return err
		}
		fmt.Printf("entries: %d\nvalid: %d\nexpired: %d\nsize_bytes: %d\n", stats.Entries, stats.Valid, stats.Expired, stats.SizeBytes)
		return nil
	},
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete expired cache entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := cachestore.Open(resolveCacheDir())
		if err != nil {
			return err
		}
		pruned, err := store.PruneExpired()
		if err != nil {
			return err
		}
		fmt.Printf("pruned %d expired entries\n", pruned)
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear [url]",
	Short: "Clear one cache entry (by URL) or the entire cache",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := cachestore.Open(resolveCacheDir())
		if err != nil {
			return err
		}
		var url string
		if len(args) == 1 {
			url = args[0]
		}
		cleared, err := store.Clear(url)
		if err != nil {
			return err
		}
		fmt.Printf("cleared %d entries\n", cleared)
		return nil
	},
}

func resolveCacheDir() string {
	if flagCacheDir != "" {
		return flagCacheDir
	}
	return cfg.CacheDir
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd, cachePruneCmd, cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
