package scrape

import (
	"sort"
	"strconv"
	"strings"
)

// variant codifies the full set of options that materially change
// scrape output: screenshot full-page, only_main_content, and the
// include/exclude selector sets all change the cleaned output, so all
// four are folded into the variant string to avoid cache collisions.
func variant(opts Options) string {
	var parts []string
	parts = append(parts, "fullpage="+strconv.FormatBool(opts.ScreenshotFullPage))
	parts = append(parts, "mainonly="+strconv.FormatBool(opts.OnlyMainContent))
	parts = append(parts, "include="+joinSorted(opts.IncludeTags))
	parts = append(parts, "exclude="+joinSorted(opts.ExcludeTags))
	return strings.Join(parts, "|")
}

func joinSorted(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	sorted := make([]string, len(tags))
	copy(sorted, tags)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}
