package title

import "strings"

// Variants returns the ordered list of distinct search strings derived from a
// title. The original title always comes first; truncated forms follow so the
// resolver tries the most specific queries before the most aggressive ones.
func Variants(text string) []string {
	variants := []string{text}

	if normalized := Normalize(text); normalized != strings.ToLower(text) {
		variants = append(variants, normalized)
	}

	words := strings.Fields(text)
	if len(words) > 2 {
		variants = append(variants, strings.Join(words[:2], " "))
		variants = append(variants, strings.Join(words[:3], " "))
	}

	if idx := strings.Index(text, ":"); idx >= 0 {
		if main := strings.TrimSpace(text[:idx]); main != "" {
			variants = append(variants, main)
		}
	}

	return dedupe(variants)
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := values[:0]
	for _, value := range values {
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}
