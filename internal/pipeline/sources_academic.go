// =============================================================================
// sources_academic.go - Academic/Research Sources
// =============================================================================
//
// This file defines the research-paper sources.
//
// Sources:
//   1. arXiv                 - Pre-print repository (Atom API, encoding/xml)
//   2. OpenAlex elite        - Top-5 economics + top finance journals (JSON API)
//   3. OpenAlex top authors  - Economics works of highly cited authors, any venue
//
// NBER is an RSS feed and lives in sources_rss.go.
//
// =============================================================================
package pipeline

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// =============================================================================
// arXiv Source
// =============================================================================

const arXivAPI = "http://export.arxiv.org/api/query"

// arXivFeed represents the Atom feed structure from arXiv API
type arXivFeed struct {
	XMLName xml.Name        `xml:"feed"`
	Entries []arXivAPIEntry `xml:"entry"`
}

// arXivAPIEntry represents a single paper entry from arXiv
type arXivAPIEntry struct {
	Title     string        `xml:"title"`
	ID        string        `xml:"id"`
	Published string        `xml:"published"`
	Updated   string        `xml:"updated"`
	Summary   string        `xml:"summary"`
	Authors   []arXivAuthor `xml:"author"`
	Links     []arXivLink   `xml:"link"`
	Primary   struct {
		Term string `xml:"term,attr"`
	} `xml:"http://arxiv.org/schemas/atom primary_category"`
}

// arXivAuthor represents an author in arXiv entry
type arXivAuthor struct {
	Name string `xml:"name"`
}

// arXivLink represents a link in arXiv entry
type arXivLink struct {
	Href  string `xml:"href,attr"`
	Rel   string `xml:"rel,attr"`
	Type  string `xml:"type,attr"`
	Title string `xml:"title,attr"`
}

// ArXivSource fetches the newest submissions in a set of arXiv categories.
//
// API Documentation: https://info.arxiv.org/help/api/index.html
// Rate limit: 3 seconds between requests (enforced by the HostRateLimiter)
type ArXivSource struct {
	Endpoint   string   // defaults to arXivAPI
	Categories []string // e.g. cs.AI, cs.LG
	MaxResults int
	// HighImpact primary categories get the web-tier bump.
	HighImpact []string

	// Scholar, when set, looks up the first four authors on Semantic Scholar
	// and records the best citation count on the entry.
	Scholar *ScholarClient

	// Entries older than WindowDays (judged against Now) are not looked up.
	WindowDays int
	Now        func() time.Time

	// PDF, when set, fills in missing summaries from the paper's PDF.
	PDF *PDFExtractor

	Logger *zap.Logger
}

func (s *ArXivSource) Name() string { return "arxiv" }

// Fetch queries the arXiv API sorted by submission date, newest first.
func (s *ArXivSource) Fetch(ctx context.Context, f *Fetcher) ([]Record, error) {
	endpoint := s.Endpoint
	if endpoint == "" {
		endpoint = arXivAPI
	}
	maxResults := s.MaxResults
	if maxResults <= 0 {
		maxResults = 50
	}

	cats := make([]string, 0, len(s.Categories))
	for _, c := range s.Categories {
		cats = append(cats, "cat:"+c)
	}
	params := url.Values{}
	params.Set("search_query", "("+strings.Join(cats, " OR ")+")")
	params.Set("start", "0")
	params.Set("max_results", strconv.Itoa(maxResults))
	params.Set("sortBy", "submittedDate")
	params.Set("sortOrder", "descending")

	var feed arXivFeed
	if err := f.XML(ctx, endpoint+"?"+params.Encode(), &feed); err != nil {
		return nil, fmt.Errorf("arxiv: %w", err)
	}

	out := make([]ArXivEntry, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		entry := ArXivEntry{
			ID:              strings.TrimSpace(e.ID),
			Title:           normalizeWhitespace(e.Title),
			Summary:         normalizeWhitespace(e.Summary),
			Published:       strings.TrimSpace(e.Published),
			PrimaryCategory: e.Primary.Term,
		}
		entry.HighImpact = entry.PrimaryCategory != "" && containsAny(entry.PrimaryCategory, s.HighImpact)
		for _, a := range e.Authors {
			if name := strings.TrimSpace(a.Name); name != "" {
				entry.Authors = append(entry.Authors, name)
			}
		}
		for _, l := range e.Links {
			switch {
			case l.Type == "text/html" && entry.HTMLLink == "":
				entry.HTMLLink = l.Href
			case (l.Type == "application/pdf" || l.Title == "pdf") && entry.PDFLink == "":
				entry.PDFLink = l.Href
			}
		}

		if entry.Summary == "" && s.PDF != nil && entry.PDFLink != "" {
			entry.Summary = s.PDF.Abstract(ctx, f, entry.PDFLink)
		}
		out = append(out, entry)
	}
	if s.Scholar != nil {
		s.lookupAuthors(ctx, f, out)
	}

	if s.Logger != nil {
		s.Logger.Debug("arxiv entries decoded", zap.Int("entries", len(out)))
	}
	recs := make([]Record, 0, len(out))
	for _, e := range out {
		recs = append(recs, e)
	}
	return recs, nil
}

// lookupAuthors fills in author citation counts. Entries outside the window
// are skipped and entries whose lookup does not complete are marked unknown.
func (s *ArXivSource) lookupAuthors(ctx context.Context, f *Fetcher, entries []ArXivEntry) {
	recency := RecencyFilter{Now: s.Now}
	unresolved := 0
	var lastErr error
	for i := range entries {
		e := &entries[i]
		if !recency.IsRecent(e.Published, s.WindowDays) {
			e.AuthorCitationsUnknown = true
			continue
		}
		n, err := s.Scholar.MaxCitations(ctx, f, e.Authors, maxDisplayedAuthors)
		e.MaxAuthorCitations = n
		if err != nil {
			e.AuthorCitationsUnknown = true
			unresolved++
			lastErr = err
		}
	}
	if unresolved > 0 && s.Logger != nil {
		s.Logger.Warn("author citation lookup incomplete",
			zap.Int("unresolved", unresolved),
			zap.Int("entries", len(entries)),
			zap.Error(lastErr))
	}
}

// =============================================================================
// OpenAlex Sources
// =============================================================================

const (
	openAlexAPI = "https://api.openalex.org/works"

	// EconomicsConceptID is the OpenAlex concept for Economics.
	EconomicsConceptID = "https://openalex.org/C162324750"
)

// EliteJournalIDs are the OpenAlex source IDs of the Top-5 economics journals
// (AER, Econometrica, QJE, JPE, REStud) and the top-3 finance journals
// (JF, RFS, JFE), in that order.
var EliteJournalIDs = []string{
	"S23254222",
	"S95464858",
	"S203860005",
	"S51782672",
	"S4210234146",
	"S182848088",
	"S84095945",
	"S36663441",
}

type openAlexResponse struct {
	Results []openAlexWorkJSON `json:"results"`
}

type openAlexWorkJSON struct {
	ID                    string           `json:"id"`
	DOI                   string           `json:"doi"`
	Title                 string           `json:"title"`
	PublicationDate       string           `json:"publication_date"`
	CitedByCount          int              `json:"cited_by_count"`
	AbstractInvertedIndex map[string][]int `json:"abstract_inverted_index"`
	Authorships           []struct {
		Author *struct {
			DisplayName  string `json:"display_name"`
			CitedByCount int    `json:"cited_by_count"`
		} `json:"author"`
	} `json:"authorships"`
	PrimaryLocation *struct {
		Source *struct {
			DisplayName string `json:"display_name"`
		} `json:"source"`
	} `json:"primary_location"`
	Concepts []struct {
		ID    string  `json:"id"`
		Score float64 `json:"score"`
	} `json:"concepts"`
}

// OpenAlexSource queries the OpenAlex works endpoint with a publication-date
// filter. Exactly one of JournalIDs or ConceptID selects the mode.
type OpenAlexSource struct {
	Label      string
	Endpoint   string // defaults to openAlexAPI
	JournalIDs []string
	ConceptID  string
	PerPage    int
	WindowDays int
	Mailto     string

	Tier         Tier
	AuthorScan   int
	DefaultVenue string

	Now func() time.Time
}

// NewEliteJournalSource returns the elite-journals adapter.
func NewEliteJournalSource(mailto string, windowDays int) *OpenAlexSource {
	return &OpenAlexSource{
		Label:        "openalex-elite",
		JournalIDs:   EliteJournalIDs,
		PerPage:      50,
		WindowDays:   windowDays,
		Mailto:       mailto,
		Tier:         TierElite,
		AuthorScan:   4,
		DefaultVenue: "Top Journal",
	}
}

// NewTopAuthorSource returns the adapter for economics works by highly cited
// authors in any venue. Author and relevance thresholds are applied by the
// entry's Gate.
func NewTopAuthorSource(mailto string, windowDays int) *OpenAlexSource {
	return &OpenAlexSource{
		Label:        "openalex-top-authors",
		ConceptID:    EconomicsConceptID,
		PerPage:      200,
		WindowDays:   windowDays,
		Mailto:       mailto,
		Tier:         TierReputation,
		AuthorScan:   5,
		DefaultVenue: "Working Paper",
	}
}

func (s *OpenAlexSource) Name() string { return s.Label }

func (s *OpenAlexSource) query() url.Values {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	window := s.WindowDays
	if window <= 0 {
		window = DefaultPaperWindowDays
	}
	from := now.AddDate(0, 0, -window).Format("2006-01-02")

	filter := "from_publication_date:" + from
	fields := "id,doi,title,authorships,abstract_inverted_index,publication_date,primary_location,cited_by_count"
	if len(s.JournalIDs) > 0 {
		filter += ",type:article,has_abstract:true,primary_location.source.id:" + strings.Join(s.JournalIDs, "|")
	} else {
		filter += ",has_abstract:true,concepts.id:" + shortConceptID(s.ConceptID)
		fields += ",concepts"
	}

	perPage := s.PerPage
	if perPage <= 0 {
		perPage = 50
	}

	q := url.Values{}
	q.Set("filter", filter)
	q.Set("sort", "publication_date:desc")
	q.Set("per_page", strconv.Itoa(perPage))
	q.Set("select", fields)
	if s.Mailto != "" {
		q.Set("mailto", s.Mailto)
	}
	return q
}

// Fetch runs one page of the query.
func (s *OpenAlexSource) Fetch(ctx context.Context, f *Fetcher) ([]Record, error) {
	endpoint := s.Endpoint
	if endpoint == "" {
		endpoint = openAlexAPI
	}

	var resp openAlexResponse
	if err := f.JSON(ctx, endpoint+"?"+s.query().Encode(), &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", s.Label, err)
	}

	out := make([]Record, 0, len(resp.Results))
	for _, w := range resp.Results {
		work := OpenAlexWork{
			ID:               w.ID,
			DOI:              w.DOI,
			Title:            w.Title,
			PublicationDate:  w.PublicationDate,
			InvertedIndex:    w.AbstractInvertedIndex,
			CitedBy:          w.CitedByCount,
			Tier:             s.Tier,
			AuthorScan:       s.AuthorScan,
			DefaultVenue:     s.DefaultVenue,
			RelevanceConcept: s.ConceptID,
		}
		for _, a := range w.Authorships {
			if a.Author == nil {
				work.Authors = append(work.Authors, OpenAlexAuthor{})
				continue
			}
			work.Authors = append(work.Authors, OpenAlexAuthor{Name: a.Author.DisplayName, CitedBy: a.Author.CitedByCount})
		}
		if w.PrimaryLocation != nil && w.PrimaryLocation.Source != nil {
			work.VenueName = w.PrimaryLocation.Source.DisplayName
		}
		for _, c := range w.Concepts {
			work.Concepts = append(work.Concepts, OpenAlexConcept{ID: c.ID, Score: c.Score})
		}
		out = append(out, work)
	}
	return out, nil
}

// shortConceptID turns "https://openalex.org/C162324750" into "C162324750".
func shortConceptID(id string) string {
	if i := strings.LastIndex(id, "/"); i >= 0 {
		return id[i+1:]
	}
	return id
}
