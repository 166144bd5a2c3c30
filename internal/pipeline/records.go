package pipeline

// Record is a raw, source-shaped record as returned by an adapter. The set of
// implementations is closed; normalize.go maps each one onto Item or ToolItem.
type Record interface {
	recordKind() string
}

// ArXivEntry is one entry of the arXiv Atom API.
type ArXivEntry struct {
	ID              string
	Title           string
	Summary         string
	Published       string
	Authors         []string
	HTMLLink        string
	PDFLink         string
	PrimaryCategory string
	HighImpact      bool // primary category is one of the source's high-impact ones

	// MaxAuthorCitations is filled in by the optional Semantic Scholar lookup.
	// AuthorCitationsUnknown marks entries whose lookup was skipped or did not
	// complete; MaxAuthorCitations is then only a lower bound.
	MaxAuthorCitations     int
	AuthorCitationsUnknown bool
}

// OpenAlexWork is one result of the OpenAlex works API, already reduced to the
// fields the ranker needs.
type OpenAlexWork struct {
	ID              string
	DOI             string
	Title           string
	PublicationDate string
	Authors         []OpenAlexAuthor
	InvertedIndex   map[string][]int
	VenueName       string
	CitedBy         int
	Concepts        []OpenAlexConcept

	// Set by the adapter that produced the work.
	Tier             Tier
	AuthorScan       int    // authorships considered for reputation
	DefaultVenue     string // label used when the work has no venue name
	RelevanceConcept string // concept ID whose score is the topical relevance
}

// OpenAlexAuthor is a single authorship entry.
type OpenAlexAuthor struct {
	Name    string
	CitedBy int
}

// OpenAlexConcept is a concept tag with its relevance score.
type OpenAlexConcept struct {
	ID    string
	Score float64
}

// FeedEntry is an RSS or Atom item.
type FeedEntry struct {
	Title     string
	Link      string
	Summary   string
	Author    string
	Published string

	// Label is the provenance label of the feed the entry came from.
	Label string
	Tier  Tier
	// DefaultAuthor is used when the entry carries no author.
	DefaultAuthor string
	// SummaryLimit caps the stripped summary, in runes.
	SummaryLimit int
}

// ScrapedLink is an article anchor scraped from a news listing page.
type ScrapedLink struct {
	Title string
	URL   string
	Label string
}

// TrendingRepo is a row of the GitHub trending page.
type TrendingRepo struct {
	Name        string
	Description string
	URL         string
	Stars       int
	Language    string
	StarsGained string
}

func (ArXivEntry) recordKind() string   { return "arxiv" }
func (OpenAlexWork) recordKind() string { return "openalex" }
func (FeedEntry) recordKind() string    { return "feed" }
func (ScrapedLink) recordKind() string  { return "scraped" }
func (TrendingRepo) recordKind() string { return "trending" }
