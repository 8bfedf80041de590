// Package casefold lowercases text for case-insensitive pattern sets.
package casefold

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Lower returns s with every codepoint mapped to its full Unicode lowercase
// form. Mappings may change the length of s, so offsets from a scan of the
// lowered text index the lowered text, not s.
func Lower(s string) string {
	if isLowerASCII(s) {
		return s
	}
	// A Caser carries state between calls; one per call keeps Lower safe
	// for concurrent use.
	return cases.Lower(language.Und).String(s)
}

func isLowerASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 0x80 || ('A' <= c && c <= 'Z') {
			return false
		}
	}
	return true
}
