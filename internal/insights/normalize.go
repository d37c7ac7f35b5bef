package insights

import (
	"strings"
	"unicode/utf8"
)

const (
	// maxQueryLen bounds every free-text input before it is used as an
	// aggregation key or compared against catalogue names.
	maxQueryLen = 128
	// maxDistanceLen bounds inputs to the edit-distance computation, which
	// is O(n*m) in the input lengths.
	maxDistanceLen = 64
)

// normalizeQuery converts a raw search string into its aggregation key:
// trimmed, lower-cased, truncated to maxQueryLen. Returns "" for inputs that
// normalize to nothing; empty keys are dropped by every consumer.
func normalizeQuery(raw string) string {
	return truncateRunes(strings.ToLower(strings.TrimSpace(raw)), maxQueryLen)
}

// truncateForDistance caps a string before edit-distance work.
func truncateForDistance(s string) string {
	return truncateRunes(s, maxDistanceLen)
}

// truncateRunes cuts s to at most limit bytes without splitting a multi-byte
// rune, so truncated keys stay valid UTF-8.
func truncateRunes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
