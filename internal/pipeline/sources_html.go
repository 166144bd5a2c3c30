// =============================================================================
// sources_html.go - HTML Scraping Sources
// =============================================================================
//
// Sources without a usable feed.
//
//   1. Company news page  - article anchors under /news/, /research/, /blog/
//   2. GitHub trending    - weekly trending repositories, AI/ML only
//
// =============================================================================
package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// =============================================================================
// Company news page
// =============================================================================

// DefaultNewsPathHints are the href fragments that mark an article link.
var DefaultNewsPathHints = []string{"/news/", "/research/", "/blog/"}

// NewsPageSource scrapes article links from a company news listing.
// Scraped links carry no date.
type NewsPageSource struct {
	Label     string
	URL       string
	Limit     int // unique titles kept, defaults to 5
	PathHints []string
}

func (s *NewsPageSource) Name() string { return s.Label }

// Fetch keeps anchors whose href contains a path hint and whose text is
// between 11 and 199 characters, de-duplicated by title in page order.
func (s *NewsPageSource) Fetch(ctx context.Context, f *Fetcher) ([]Record, error) {
	doc, err := f.Doc(ctx, s.URL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Label, err)
	}

	limit := s.Limit
	if limit <= 0 {
		limit = 5
	}
	hints := s.PathHints
	if len(hints) == 0 {
		hints = DefaultNewsPathHints
	}

	seen := map[string]bool{}
	var out []Record
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if !containsAny(href, hints) {
			return true
		}
		title := normalizeWhitespace(a.Text())
		n := utf8.RuneCountInString(title)
		if n <= 10 || n >= 200 || seen[title] {
			return true
		}
		seen[title] = true
		out = append(out, ScrapedLink{Title: title, URL: resolveURL(s.URL, href), Label: s.Label})
		return len(out) < limit
	})
	return out, nil
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// =============================================================================
// GitHub trending
// =============================================================================

const githubTrendingURL = "https://github.com/trending?since=weekly&spoken_language_code=en"

// AIRepoKeywords gate trending repositories on name + description.
var AIRepoKeywords = []string{
	"ai", "ml", "llm", "gpt", "transformer", "neural", "deep-learning",
	"machine-learning", "nlp", "vision", "diffusion", "model", "inference",
}

// TrendingSource scrapes the GitHub trending page.
type TrendingSource struct {
	URL      string   // defaults to weekly trending
	SiteBase string   // repo URLs are built on this, defaults to https://github.com
	Keywords []string // defaults to AIRepoKeywords
	MaxRows  int      // rows inspected, defaults to 30
}

func (s *TrendingSource) Name() string { return "github-trending" }

// Fetch reads article.Box-row entries and keeps the AI/ML ones.
func (s *TrendingSource) Fetch(ctx context.Context, f *Fetcher) ([]Record, error) {
	pageURL := s.URL
	if pageURL == "" {
		pageURL = githubTrendingURL
	}
	base := strings.TrimRight(s.SiteBase, "/")
	if base == "" {
		base = "https://github.com"
	}
	keywords := s.Keywords
	if len(keywords) == 0 {
		keywords = AIRepoKeywords
	}
	maxRows := s.MaxRows
	if maxRows <= 0 {
		maxRows = 30
	}

	doc, err := f.Doc(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("github-trending: %w", err)
	}

	var out []Record
	doc.Find("article.Box-row").EachWithBreak(func(i int, row *goquery.Selection) bool {
		if i >= maxRows {
			return false
		}
		if repo, ok := parseTrendingRow(row, base, keywords); ok {
			out = append(out, repo)
		}
		return true
	})
	return out, nil
}

func parseTrendingRow(row *goquery.Selection, base string, keywords []string) (TrendingRepo, bool) {
	a := row.Find("h2 a").First()
	if a.Length() == 0 {
		return TrendingRepo{}, false
	}
	repoPath := strings.Trim(strings.TrimSpace(a.AttrOr("href", "")), "/")
	name := repoPath
	if i := strings.LastIndex(repoPath, "/"); i >= 0 {
		name = repoPath[i+1:]
	}

	description := strings.TrimSpace(row.Find("p").First().Text())
	if !matchesKeywords(name, description, keywords) {
		return TrendingRepo{}, false
	}

	repo := TrendingRepo{
		Name:        name,
		Description: description,
		URL:         base + "/" + repoPath,
		Language:    strings.TrimSpace(row.Find(`span[itemprop="programmingLanguage"]`).First().Text()),
		StarsGained: normalizeWhitespace(row.Find("span.d-inline-block.float-sm-right").First().Text()),
	}

	row.Find("span.d-inline-block").EachWithBreak(func(_ int, span *goquery.Selection) bool {
		if span.Find("svg.octicon-star").Length() == 0 {
			return true
		}
		starsText := strings.ReplaceAll(strings.TrimSpace(span.Text()), ",", "")
		if n, err := strconv.Atoi(starsText); err == nil && n >= 0 {
			repo.Stars = n
		}
		return false
	})
	return repo, true
}
