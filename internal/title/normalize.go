package title

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize produces the canonical comparison key for a title: diacritics
// removed, punctuation stripped, lowercased, trimmed. Total over any input;
// the empty string maps to the empty key.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	decomposed := norm.NFD.String(text)
	var builder strings.Builder
	builder.Grow(len(decomposed))
	for _, r := range decomposed {
		switch {
		case unicode.Is(unicode.Mn, r):
			// Combining marks carry the diacritics; drop them.
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '_':
			builder.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r):
			builder.WriteRune(' ')
		}
	}
	return strings.TrimSpace(builder.String())
}
