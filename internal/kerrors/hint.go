package kerrors

import "strings"

var hintTriggers = []string{"403", "429", "timeout", "blocked", "denied"}

// WithHint appends a "[HINT: ...]" suggestion to an error message when
// the failure looks retriable via stealth mode and stealth isn't
// already in play, matching the scrape service's retry-hint contract.
func WithHint(message string, stealthEnabled, enhancedDriverInstalled bool) string {
	if stealthEnabled || enhancedDriverInstalled {
		return message
	}
	lower := strings.ToLower(message)
	for _, trigger := range hintTriggers {
		if strings.Contains(lower, trigger) {
			return message + " [HINT: this site may be blocking automated requests; retry with --stealth or install the enhanced anti-detection driver]"
		}
	}
	return message
}
