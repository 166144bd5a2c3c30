package pipeline

import "strings"

// CategoryRule is a category label and the keywords that vote for it.
type CategoryRule struct {
	Name     string
	Keywords []string
}

// Classifier assigns a category by counting keyword hits. Rules are evaluated
// in declared order; that order is also the tie-break.
type Classifier struct {
	rules    []CategoryRule
	fallback string
}

// NewClassifier copies rules so later mutation by the caller has no effect.
// Keywords are lower-cased once here.
func NewClassifier(rules []CategoryRule, fallback string) *Classifier {
	cp := make([]CategoryRule, len(rules))
	for i, r := range rules {
		kws := make([]string, len(r.Keywords))
		for j, kw := range r.Keywords {
			kws[j] = strings.ToLower(kw)
		}
		cp[i] = CategoryRule{Name: r.Name, Keywords: kws}
	}
	return &Classifier{rules: cp, fallback: fallback}
}

// Categorize returns the category whose keywords occur most often (as
// substrings) in title and body. Ties go to the rule declared first; no hits
// at all yields the fallback.
func (c *Classifier) Categorize(title, body string) string {
	text := strings.ToLower(title + " " + body)

	best, bestScore := c.fallback, 0
	for _, r := range c.rules {
		score := 0
		for _, kw := range r.Keywords {
			if strings.Contains(text, kw) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = r.Name, score
		}
	}
	return best
}

// Categories returns the declared category names followed by the fallback.
func (c *Classifier) Categories() []string {
	out := make([]string, 0, len(c.rules)+1)
	for _, r := range c.rules {
		out = append(out, r.Name)
	}
	return append(out, c.fallback)
}

// Fallback is the label used when no rule matches.
func (c *Classifier) Fallback() string { return c.fallback }
