package pipeline

import (
	"fmt"
	"sort"
	"strings"
)

const (
	paperAbstractLimit   = 1000
	postSummaryLimit     = 500
	toolDescriptionLimit = 300
)

// Normalizer maps raw records onto the canonical item shapes. Each record type
// has its own mapping function below.
type Normalizer struct {
	classifier *Classifier
}

// NewNormalizer returns a Normalizer that categorizes with c.
func NewNormalizer(c *Classifier) *Normalizer {
	return &Normalizer{classifier: c}
}

// Normalize maps a paper or post record to an Item plus its ranking signals.
// Tool records are rejected; use NormalizeTool.
func (n *Normalizer) Normalize(rec Record) (Item, Signals, error) {
	switch r := rec.(type) {
	case ArXivEntry:
		return n.fromArXiv(r)
	case OpenAlexWork:
		return n.fromOpenAlex(r)
	case FeedEntry:
		return n.fromFeed(r)
	case ScrapedLink:
		return n.fromScraped(r)
	default:
		return Item{}, Signals{}, fmt.Errorf("%w: %s record is not an item", ErrMalformedRecord, rec.recordKind())
	}
}

// NormalizeTool maps a trending-repository record to a ToolItem.
func (n *Normalizer) NormalizeTool(rec Record) (ToolItem, error) {
	r, ok := rec.(TrendingRepo)
	if !ok {
		return ToolItem{}, fmt.Errorf("%w: %s record is not a tool", ErrMalformedRecord, rec.recordKind())
	}
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return ToolItem{}, fmt.Errorf("%w: trending repo without name", ErrMalformedRecord)
	}
	return ToolItem{
		Name:        name,
		Description: clipRunes(strings.TrimSpace(r.Description), toolDescriptionLimit),
		URL:         r.URL,
		Stars:       r.Stars,
		Language:    r.Language,
		StarsGained: r.StarsGained,
	}, nil
}

func missingTitle(kind string) error {
	return fmt.Errorf("%w: %s record without title", ErrMalformedRecord, kind)
}

func (n *Normalizer) fromArXiv(r ArXivEntry) (Item, Signals, error) {
	title := normalizeWhitespace(r.Title)
	if title == "" {
		return Item{}, Signals{}, missingTitle(r.recordKind())
	}
	abstract := clipRunes(r.Summary, paperAbstractLimit)

	link := r.HTMLLink
	if link == "" {
		link = r.ID
	}
	source := "arXiv"
	if r.PrimaryCategory != "" {
		source = "arXiv " + r.PrimaryCategory
	}

	it := Item{
		Title:     title,
		Authors:   joinAuthors(r.Authors, len(r.Authors)),
		Abstract:  abstract,
		URL:       link,
		Source:    source,
		Category:  n.classifier.Categorize(title, abstract),
		Published: r.Published,
	}
	return it, Signals{
		Tier:               TierWeb,
		HighImpactVenue:    r.HighImpact,
		MaxAuthorCitations:     r.MaxAuthorCitations,
		AuthorCitationsUnknown: r.AuthorCitationsUnknown,
	}, nil
}

func (n *Normalizer) fromOpenAlex(r OpenAlexWork) (Item, Signals, error) {
	title := strings.TrimSpace(r.Title)
	if title == "" {
		return Item{}, Signals{}, missingTitle(r.recordKind())
	}
	abstract := rebuildAbstract(r.InvertedIndex)

	scan := r.AuthorScan
	if scan <= 0 || scan > len(r.Authors) {
		scan = len(r.Authors)
	}
	var names []string
	best := 0
	for _, a := range r.Authors[:scan] {
		if a.Name != "" {
			names = append(names, a.Name)
		}
		if a.CitedBy > best {
			best = a.CitedBy
		}
	}

	link := r.DOI
	if link == "" {
		link = r.ID
	}
	venue := r.VenueName
	if venue == "" {
		venue = r.DefaultVenue
	}

	sig := Signals{
		Tier:               r.Tier,
		CitedBy:            r.CitedBy,
		MaxAuthorCitations: best,
	}
	if r.RelevanceConcept != "" {
		sig.HasRelevance = true
		for _, c := range r.Concepts {
			if c.ID == r.RelevanceConcept {
				sig.Relevance = c.Score
				break
			}
		}
	}

	it := Item{
		Title:     title,
		Authors:   joinAuthors(names, len(r.Authors)),
		Abstract:  clipRunes(abstract, paperAbstractLimit),
		URL:       link,
		Source:    venue,
		Category:  n.classifier.Categorize(title, abstract),
		Published: r.PublicationDate,
	}
	return it, sig, nil
}

func (n *Normalizer) fromFeed(r FeedEntry) (Item, Signals, error) {
	title := normalizeWhitespace(stripHTML(r.Title))
	if title == "" {
		return Item{}, Signals{}, missingTitle(r.recordKind())
	}
	limit := r.SummaryLimit
	if limit <= 0 {
		limit = postSummaryLimit
	}
	summary := stripHTML(r.Summary)

	authors := r.Author
	if authors == "" {
		authors = r.DefaultAuthor
	}

	it := Item{
		Title:     title,
		Authors:   authors,
		Abstract:  clipRunes(summary, limit),
		URL:       r.Link,
		Source:    r.Label,
		Category:  n.classifier.Categorize(title, summary),
		Published: r.Published,
	}
	return it, Signals{Tier: r.Tier}, nil
}

func (n *Normalizer) fromScraped(r ScrapedLink) (Item, Signals, error) {
	title := normalizeWhitespace(r.Title)
	if title == "" {
		return Item{}, Signals{}, missingTitle(r.recordKind())
	}
	return Item{
		Title:    title,
		URL:      r.URL,
		Source:   r.Label,
		Category: n.classifier.Categorize(title, ""),
	}, Signals{Tier: TierWeb}, nil
}

// rebuildAbstract turns an OpenAlex inverted index back into text: words are
// ordered by position, ties broken by the word itself.
func rebuildAbstract(index map[string][]int) string {
	if len(index) == 0 {
		return ""
	}
	type posWord struct {
		pos  int
		word string
	}
	var pw []posWord
	for word, positions := range index {
		for _, p := range positions {
			pw = append(pw, posWord{p, word})
		}
	}
	sort.Slice(pw, func(i, j int) bool {
		if pw[i].pos != pw[j].pos {
			return pw[i].pos < pw[j].pos
		}
		return pw[i].word < pw[j].word
	})

	words := make([]string, len(pw))
	for i, p := range pw {
		words[i] = p.word
	}
	return strings.Join(words, " ")
}
