package pipeline

import "strings"

// titleKey is the identity used for deduplication.
func titleKey(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// Dedupe drops items whose lower-cased, trimmed title was already seen. The
// first occurrence wins, so callers decide provenance priority through the
// order they merge sources in.
func Dedupe(items []Item) []Item {
	seen := make(map[string]struct{}, len(items))
	out := make([]Item, 0, len(items))
	for _, it := range items {
		k := titleKey(it.Title)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, it)
	}
	return out
}
