package search

import (
	"strings"
	"unicode/utf8"
)

// DefaultFillerWords are low-signal tokens stripped from the outbound
// search text when preprocessing is enabled. They never affect the cache
// key, which is always derived from the un-stripped normalized query.
var DefaultFillerWords = []string{
	"official", "video", "lyrics", "audio", "hd", "hq", "mv",
}

// Normalize canonicalizes raw user input for cache keying and resolver
// input: lowercase, internal whitespace collapsed to single spaces,
// trimmed, capped at maxLen runes. Deterministic and idempotent; an empty
// result means the input was not a usable query.
func Normalize(raw string, maxLen int) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(raw)), " ")
	if maxLen > 0 && utf8.RuneCountInString(normalized) > maxLen {
		// Cap on a rune boundary; a byte slice could split a multibyte
		// rune and leave invalid UTF-8 behind.
		runes := []rune(normalized)
		normalized = strings.TrimSpace(string(runes[:maxLen]))
	}
	return normalized
}

// StripFillers removes filler tokens from an already-normalized query.
// Short queries are left alone: stripping a three-word query down to one
// word hurts more than the fillers do.
func StripFillers(normalized string, fillers []string) string {
	words := strings.Fields(normalized)
	if len(words) <= 3 {
		return normalized
	}

	fillerSet := make(map[string]struct{}, len(fillers))
	for _, f := range fillers {
		fillerSet[strings.ToLower(f)] = struct{}{}
	}

	kept := words[:0:0]
	for _, w := range words {
		if _, ok := fillerSet[w]; !ok {
			kept = append(kept, w)
		}
	}
	if len(kept) == 0 {
		return normalized
	}
	return strings.Join(kept, " ")
}
