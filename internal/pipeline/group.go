package pipeline

// GroupByCategory partitions items by Category, keeping input order inside each
// bucket. Every name in categories and the fallback is present in the result,
// possibly with an empty slice. Items whose category is not declared land in
// the fallback bucket.
func GroupByCategory(items []Item, categories []string, fallback string) map[string][]Item {
	out := make(map[string][]Item, len(categories)+1)
	for _, c := range categories {
		out[c] = []Item{}
	}
	out[fallback] = []Item{}

	for _, it := range items {
		key := it.Category
		if _, ok := out[key]; !ok {
			key = fallback
		}
		out[key] = append(out[key], it)
	}
	return out
}
