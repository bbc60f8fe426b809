// Package detect implements the bot/CAPTCHA detector: heuristics for
// recognising bot-block pages and in-page CAPTCHA challenges.
package detect

import (
	"regexp"
	"strings"
)

// blockingPatterns mirrors BOT_DETECTION_PATTERNS: substrings/phrases
// that show up on bot-block and anti-automation challenge pages.
var blockingPatterns = []string{
	`captcha`,
	`challenge`,
	`cloudflare`,
	`ddos.protection`,
	`access.denied`,
	`blocked`,
	`robot`,
	`bot.detection`,
	`verify.you.are.human`,
	`please.wait`,
	`checking.your.browser`,
	`just.a.moment`,
	`enable.javascript`,
	`ray.id`,
}

var blockingRE = regexp.MustCompile(`(?i)` + strings.Join(blockingPatterns, "|"))

const shortPageThreshold = 500
const lowWordCountThreshold = 50

// LooksLikeBotBlock reports whether a response looks like bot
// detection or blocking: a 403/429/503 status, a short page carrying
// a blocking pattern, or a blocking pattern paired with suspiciously
// low word count in the converted markdown.
func LooksLikeBotBlock(statusCode int, html, markdown string) bool {
	if statusCode == 403 || statusCode == 429 || statusCode == 503 {
		return true
	}

	if len(html) < shortPageThreshold && blockingRE.MatchString(html) {
		return true
	}

	if blockingRE.MatchString(html) {
		if wordCount(markdown) < lowWordCountThreshold {
			return true
		}
	}

	return false
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
