package pipeline

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const arXivFixture = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:arxiv="http://arxiv.org/schemas/atom">
  <entry>
    <id>http://arxiv.org/abs/2403.00001v1</id>
    <published>2024-03-18T17:59:59Z</published>
    <title>Scaling   Laws for
      Sparse Transformers</title>
    <summary>  We study the language model
      scaling of sparse attention. </summary>
    <author><name>Ada Lovelace</name></author>
    <author><name>Alan Turing</name></author>
    <author><name>Grace Hopper</name></author>
    <author><name>Edsger Dijkstra</name></author>
    <author><name>Barbara Liskov</name></author>
    <link href="http://arxiv.org/abs/2403.00001v1" rel="alternate" type="text/html"/>
    <link title="pdf" href="http://arxiv.org/pdf/2403.00001v1" rel="related" type="application/pdf"/>
    <arxiv:primary_category term="cs.CL" scheme="http://arxiv.org/schemas/atom"/>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2403.00002v1</id>
    <published>2024-03-17T10:00:00Z</published>
    <title>Robot Grasping</title>
    <summary>Control policies for robotics.</summary>
    <author><name>Solo Author</name></author>
    <arxiv:primary_category term="cs.RO" scheme="http://arxiv.org/schemas/atom"/>
  </entry>
</feed>`

func newTestFetcher() *Fetcher {
	return NewFetcher(FetchConfig{}, nil)
}

func TestArXivSource_Fetch(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("search_query")
		assert.Equal(t, "25", r.URL.Query().Get("max_results"))
		assert.Equal(t, "submittedDate", r.URL.Query().Get("sortBy"))
		w.Header().Set("Content-Type", "application/atom+xml")
		_, _ = w.Write([]byte(arXivFixture))
	}))
	defer srv.Close()

	s := &ArXivSource{
		Endpoint:   srv.URL,
		Categories: []string{"cs.AI", "cs.CL"},
		MaxResults: 25,
		HighImpact: []string{"cs.LG", "cs.CL"},
	}
	recs, err := s.Fetch(context.Background(), newTestFetcher())
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "(cat:cs.AI OR cat:cs.CL)", gotQuery)

	first, ok := recs[0].(ArXivEntry)
	require.True(t, ok)
	assert.Equal(t, "Scaling Laws for Sparse Transformers", first.Title)
	assert.Equal(t, "We study the language model scaling of sparse attention.", first.Summary)
	assert.Equal(t, "cs.CL", first.PrimaryCategory)
	assert.True(t, first.HighImpact)
	assert.Equal(t, "http://arxiv.org/abs/2403.00001v1", first.HTMLLink)
	assert.Equal(t, "http://arxiv.org/pdf/2403.00001v1", first.PDFLink)
	assert.Len(t, first.Authors, 5)

	second := recs[1].(ArXivEntry)
	assert.False(t, second.HighImpact)
	assert.Empty(t, second.HTMLLink)
}

func TestArXivSource_FetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := (&ArXivSource{Endpoint: srv.URL}).Fetch(context.Background(), newTestFetcher())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestNormalize_ArXiv(t *testing.T) {
	n := NewNormalizer(NewClassifier(AICategoryRules(), AIFallback))
	it, sig, err := n.Normalize(ArXivEntry{
		ID:              "http://arxiv.org/abs/1",
		Title:           "Scaling Laws for Sparse Transformers",
		Summary:         strings.Repeat("x", 1500),
		Authors:         []string{"A", "B", "C", "D", "E"},
		HTMLLink:        "http://arxiv.org/abs/1v1",
		PrimaryCategory: "cs.CL",
		HighImpact:      true,
		Published:       "2024-03-18T17:59:59Z",
	})
	require.NoError(t, err)
	assert.Equal(t, "A, B, C, D...", it.Authors)
	assert.Equal(t, "arXiv cs.CL", it.Source)
	assert.Equal(t, "http://arxiv.org/abs/1v1", it.URL)
	assert.Len(t, []rune(it.Abstract), paperAbstractLimit)
	assert.Equal(t, "LLMs & Language Models", it.Category)
	assert.Equal(t, 150, NewRanker().Score(sig))

	it, _, err = n.Normalize(ArXivEntry{ID: "http://arxiv.org/abs/2", Title: "No links"})
	require.NoError(t, err)
	assert.Equal(t, "http://arxiv.org/abs/2", it.URL)
	assert.Equal(t, "arXiv", it.Source)

	_, _, err = n.Normalize(ArXivEntry{Title: "   "})
	assert.ErrorIs(t, err, ErrMalformedRecord)
}

func openAlexFixture() openAlexResponse {
	var resp openAlexResponse
	_ = json.Unmarshal([]byte(`{
	  "results": [
	    {
	      "id": "https://openalex.org/W1",
	      "doi": "https://doi.org/10.1257/aer.1",
	      "title": "Inflation Expectations",
	      "publication_date": "2024-03-10",
	      "cited_by_count": 3,
	      "abstract_inverted_index": {"inflation": [1], "We": [0], "study": [2], "expectations": [2]},
	      "authorships": [
	        {"author": {"display_name": "Jane Roe", "cited_by_count": 12000}},
	        {"author": null},
	        {"author": {"display_name": "John Doe", "cited_by_count": 800}}
	      ],
	      "primary_location": {"source": {"display_name": "American Economic Review"}},
	      "concepts": [{"id": "https://openalex.org/C162324750", "score": 0.55}]
	    },
	    {
	      "id": "https://openalex.org/W2",
	      "doi": null,
	      "title": "Untitled Venue",
	      "publication_date": "2024-03-11",
	      "cited_by_count": 0,
	      "authorships": [],
	      "primary_location": null
	    }
	  ]
	}`), &resp)
	return resp
}

func TestOpenAlexSource_Fetch(t *testing.T) {
	var gotFilter, gotMailto, gotSelect string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotFilter, gotMailto, gotSelect = q.Get("filter"), q.Get("mailto"), q.Get("select")
		assert.Equal(t, "publication_date:desc", q.Get("sort"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(openAlexFixture())
	}))
	defer srv.Close()

	s := NewTopAuthorSource("team@example.org", 28)
	s.Endpoint = srv.URL
	s.Now = fixedClock(time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC))

	recs, err := s.Fetch(context.Background(), newTestFetcher())
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, "from_publication_date:2024-02-21,has_abstract:true,concepts.id:C162324750", gotFilter)
	assert.Equal(t, "team@example.org", gotMailto)
	assert.True(t, strings.HasSuffix(gotSelect, ",concepts"))

	w := recs[0].(OpenAlexWork)
	assert.Equal(t, TierReputation, w.Tier)
	assert.Equal(t, "American Economic Review", w.VenueName)
	require.Len(t, w.Authors, 3)
	assert.Equal(t, OpenAlexAuthor{}, w.Authors[1])
	assert.Equal(t, EconomicsConceptID, w.RelevanceConcept)

	n := NewNormalizer(NewClassifier(EconCategoryRules(), EconFallback))
	it, sig, err := n.Normalize(w)
	require.NoError(t, err)
	assert.Equal(t, "We inflation expectations study", it.Abstract)
	assert.Equal(t, "Jane Roe, John Doe", it.Authors)
	assert.Equal(t, "https://doi.org/10.1257/aer.1", it.URL)
	assert.Equal(t, 12000, sig.MaxAuthorCitations)
	assert.True(t, sig.HasRelevance)
	assert.InDelta(t, 0.55, sig.Relevance, 1e-9)
	assert.Equal(t, "Macroeconomics", it.Category)

	it, sig, err = n.Normalize(recs[1])
	require.NoError(t, err)
	assert.Equal(t, "Working Paper", it.Source)
	assert.Equal(t, "https://openalex.org/W2", it.URL)
	assert.True(t, sig.HasRelevance)
	assert.Zero(t, sig.Relevance)
}

func TestOpenAlexSource_EliteQuery(t *testing.T) {
	s := NewEliteJournalSource("", 28)
	s.Now = fixedClock(time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC))
	q := s.query()

	assert.Equal(t, "from_publication_date:2024-02-21,type:article,has_abstract:true,primary_location.source.id:"+
		strings.Join(EliteJournalIDs, "|"), q.Get("filter"))
	assert.Equal(t, "50", q.Get("per_page"))
	assert.Empty(t, q.Get("mailto"))
	assert.NotContains(t, q.Get("select"), "concepts")
}

func TestNormalize_OpenAlexAuthorScan(t *testing.T) {
	n := NewNormalizer(NewClassifier(EconCategoryRules(), EconFallback))
	authors := []OpenAlexAuthor{
		{Name: "A", CitedBy: 1}, {Name: "B", CitedBy: 2}, {Name: "C", CitedBy: 3},
		{Name: "D", CitedBy: 4}, {Name: "E", CitedBy: 9000},
	}

	_, sig, err := n.Normalize(OpenAlexWork{Title: "t", Authors: authors, Tier: TierElite, AuthorScan: 4})
	require.NoError(t, err)
	assert.Equal(t, 4, sig.MaxAuthorCitations)
	assert.False(t, sig.HasRelevance)

	it, sig, err := n.Normalize(OpenAlexWork{Title: "t", Authors: authors, Tier: TierReputation, AuthorScan: 5})
	require.NoError(t, err)
	assert.Equal(t, 9000, sig.MaxAuthorCitations)
	assert.Equal(t, "A, B, C, D...", it.Authors)
}

func TestRebuildAbstract(t *testing.T) {
	assert.Equal(t, "", rebuildAbstract(nil))
	assert.Equal(t, "the cat saw the dog", rebuildAbstract(map[string][]int{
		"the": {0, 3}, "cat": {1}, "saw": {2}, "dog": {4},
	}))
}
