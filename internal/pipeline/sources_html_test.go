package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const newsPageFixture = `<html><body>
<nav><a href="/news">News</a><a href="/careers/">Careers at the company page</a></nav>
<main>
  <a href="/news/claude-release">Introducing the next model family</a>
  <a href="/news/short">Too short</a>
  <a href="/research/interpretability">  Mapping the   mind of a language model </a>
  <a href="/news/claude-release-dup">Introducing the next model family</a>
  <a href="https://other.example/blog/post">An external blog post worth reading</a>
  <a href="/news/third">A third announcement from the lab</a>
</main>
</body></html>`

func serveHTML(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewsPageSource_Fetch(t *testing.T) {
	srv := serveHTML(t, newsPageFixture)

	s := &NewsPageSource{Label: "Anthropic", URL: srv.URL + "/news", Limit: 3}
	recs, err := s.Fetch(context.Background(), newTestFetcher())
	require.NoError(t, err)
	require.Len(t, recs, 3)

	want := []ScrapedLink{
		{Title: "Introducing the next model family", URL: srv.URL + "/news/claude-release", Label: "Anthropic"},
		{Title: "Mapping the mind of a language model", URL: srv.URL + "/research/interpretability", Label: "Anthropic"},
		{Title: "An external blog post worth reading", URL: "https://other.example/blog/post", Label: "Anthropic"},
	}
	for i, w := range want {
		assert.Equal(t, w, recs[i])
	}

	n := NewNormalizer(NewClassifier(AICategoryRules(), AIFallback))
	it, _, err := n.Normalize(recs[1])
	require.NoError(t, err)
	assert.Empty(t, it.Published)
	assert.Equal(t, "LLMs & Language Models", it.Category)
}

const trendingFixture = `<html><body>
<article class="Box-row">
  <h2><a href="/acme/fast-llm"> acme / fast-llm </a></h2>
  <p> Fast inference server for LLMs </p>
  <span itemprop="programmingLanguage">Rust</span>
  <span class="d-inline-block mr-3"><svg class="octicon octicon-star"></svg> 12,345 </span>
  <span class="d-inline-block float-sm-right"><svg class="octicon octicon-star"></svg> 1,024 stars   this week</span>
</article>
<article class="Box-row">
  <h2><a href="/someone/dotfiles">someone / dotfiles</a></h2>
  <p>My shell configuration</p>
</article>
<article class="Box-row">
  <h2><a href="/lab/vision-kit">lab / vision-kit</a></h2>
  <span itemprop="programmingLanguage">Python</span>
</article>
<article class="Box-row"><p>no link</p></article>
</body></html>`

func TestTrendingSource_Fetch(t *testing.T) {
	srv := serveHTML(t, trendingFixture)

	s := &TrendingSource{URL: srv.URL, SiteBase: "https://github.com/"}
	recs, err := s.Fetch(context.Background(), newTestFetcher())
	require.NoError(t, err)
	require.Len(t, recs, 2)

	first := recs[0].(TrendingRepo)
	assert.Equal(t, TrendingRepo{
		Name:        "fast-llm",
		Description: "Fast inference server for LLMs",
		URL:         "https://github.com/acme/fast-llm",
		Stars:       12345,
		Language:    "Rust",
		StarsGained: "1,024 stars this week",
	}, first)

	second := recs[1].(TrendingRepo)
	assert.Equal(t, "vision-kit", second.Name)
	assert.Zero(t, second.Stars)

	tool, err := NewNormalizer(NewClassifier(nil, "x")).NormalizeTool(first)
	require.NoError(t, err)
	assert.Equal(t, "fast-llm", tool.Name)
	assert.Equal(t, 12345, tool.Stars)
}

func TestTrendingSource_MaxRows(t *testing.T) {
	srv := serveHTML(t, trendingFixture)

	recs, err := (&TrendingSource{URL: srv.URL, MaxRows: 1}).Fetch(context.Background(), newTestFetcher())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "https://github.com/acme/fast-llm", recs[0].(TrendingRepo).URL)
}

func TestNormalizeTool_RejectsItems(t *testing.T) {
	n := NewNormalizer(NewClassifier(nil, "x"))
	_, err := n.NormalizeTool(ScrapedLink{Title: "not a repo"})
	assert.ErrorIs(t, err, ErrMalformedRecord)

	_, _, err = n.Normalize(TrendingRepo{Name: "repo"})
	assert.ErrorIs(t, err, ErrMalformedRecord)
}
