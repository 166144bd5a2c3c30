package pipeline

import "sort"

// Tier is the coarse provenance class of a candidate.
type Tier int

const (
	TierWeb        Tier = iota // preprint servers, general web
	TierPreVetted              // curated working-paper series
	TierReputation             // any venue, admitted on author reputation
	TierElite                  // hand-picked journals
)

func (t Tier) String() string {
	switch t {
	case TierWeb:
		return "web"
	case TierPreVetted:
		return "prevetted"
	case TierReputation:
		return "reputation"
	case TierElite:
		return "elite"
	default:
		return "unknown"
	}
}

const (
	// MinAuthorCitations is the citation count the best author of a
	// reputation-tier paper must reach.
	MinAuthorCitations = 5000
	// MinEconomicsRelevance is the minimum OpenAlex Economics concept score.
	MinEconomicsRelevance = 0.4
)

// Signals are the ranking inputs extracted from a raw record.
type Signals struct {
	Tier               Tier
	CitedBy            int
	MaxAuthorCitations int
	Relevance          float64
	HasRelevance       bool
	HighImpactVenue    bool

	// AuthorCitationsUnknown is set when an enrichment lookup could not
	// establish MaxAuthorCitations.
	AuthorCitationsUnknown bool
}

// Weights of the scoring model. The zero value is not useful; use DefaultWeights.
type Weights struct {
	EliteBase           int
	CitationWeight      int
	EliteAuthorDivisor  int
	ReputationAuthorDiv int
	PreVettedBase       int
	WebBase             int
	WebHighImpactBump   int
}

// DefaultWeights are the weights the briefings are tuned with.
func DefaultWeights() Weights {
	return Weights{
		EliteBase:           1000,
		CitationWeight:      10,
		EliteAuthorDivisor:  100,
		ReputationAuthorDiv: 50,
		PreVettedBase:       500,
		WebBase:             100,
		WebHighImpactBump:   50,
	}
}

// Ranker turns signals into an integer sort key.
type Ranker struct {
	W Weights
}

// NewRanker returns a Ranker with DefaultWeights.
func NewRanker() Ranker { return Ranker{W: DefaultWeights()} }

// Score computes the sort key. Tiers are not strictly separated: a
// reputation-tier paper with enough citations can outscore an elite one.
func (r Ranker) Score(s Signals) int {
	w := r.W
	switch s.Tier {
	case TierElite:
		return w.EliteBase + s.CitedBy*w.CitationWeight + div(s.MaxAuthorCitations, w.EliteAuthorDivisor)
	case TierReputation:
		return div(s.MaxAuthorCitations, w.ReputationAuthorDiv) + s.CitedBy*w.CitationWeight
	case TierPreVetted:
		return w.PreVettedBase
	default:
		score := w.WebBase
		if s.HighImpactVenue {
			score += w.WebHighImpactBump
		}
		return score
	}
}

func div(a, b int) int {
	if b == 0 {
		return 0
	}
	return a / b
}

// SortByScore orders items by descending score. Equal scores keep their
// merge order.
func SortByScore(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})
}

// Gate is the inclusion filter applied before scoring. Each non-zero threshold
// is a hard requirement; a zero Gate admits everything.
type Gate struct {
	MinAuthorCitations int
	MinRelevance       float64
}

// Unverified reports whether Admit let the candidate through without being
// able to check the author threshold.
func (g Gate) Unverified(s Signals) bool {
	return g.MinAuthorCitations > 0 && s.AuthorCitationsUnknown && s.MaxAuthorCitations < g.MinAuthorCitations
}

// Admit reports whether the candidate clears every configured threshold.
// Thresholds are inclusive. An unknown author citation count is not held
// against the candidate.
func (g Gate) Admit(s Signals) bool {
	if g.MinAuthorCitations > 0 && !s.AuthorCitationsUnknown && s.MaxAuthorCitations < g.MinAuthorCitations {
		return false
	}
	if g.MinRelevance > 0 && (!s.HasRelevance || s.Relevance < g.MinRelevance) {
		return false
	}
	return true
}
