package providers

import (
	"strings"
	"unicode/utf8"
)

// bytesPerToken is the rough English-text ratio used for budget estimates.
const bytesPerToken = 4

// estimateTokens approximates the token count of s, rounding up.
func estimateTokens(s string) int {
	return (len(s) + bytesPerToken - 1) / bytesPerToken
}

// truncateToTokens cuts s to roughly budget tokens, preferring a line
// boundary so diff hunks stay parseable. A non-positive budget yields "".
func truncateToTokens(s string, budget int) string {
	if budget <= 0 {
		return ""
	}
	maxBytes := budget * bytesPerToken
	if len(s) <= maxBytes {
		return s
	}
	// Never split a multi-byte rune at the cut point.
	for maxBytes > 0 && !utf8.RuneStart(s[maxBytes]) {
		maxBytes--
	}
	cut := s[:maxBytes]
	if i := strings.LastIndexByte(cut, '\n'); i > 0 {
		cut = cut[:i]
	}
	return cut
}
