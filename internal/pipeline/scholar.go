package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

const semanticScholarAPI = "https://api.semanticscholar.org/graph/v1"

// ScholarClient looks up author citation counts on Semantic Scholar.
// Lookups are memoized for the lifetime of the client, which is one run.
type ScholarClient struct {
	Endpoint string        // defaults to semanticScholarAPI
	Timeout  time.Duration // per lookup, defaults to 10s

	cache  *lru.Cache[string, int]
	logger *zap.Logger
}

// NewScholarClient creates a client with an LRU memo of the given size.
func NewScholarClient(cacheSize int, logger *zap.Logger) (*ScholarClient, error) {
	if cacheSize <= 0 {
		cacheSize = 1024
	}
	cache, err := lru.New[string, int](cacheSize)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScholarClient{cache: cache, logger: logger.Named("scholar")}, nil
}

type scholarSearch struct {
	Data []struct {
		AuthorID string `json:"authorId"`
	} `json:"data"`
}

type scholarAuthor struct {
	CitationCount int `json:"citationCount"`
}

// AuthorCitations returns the citation count of the best match for name. An
// author with no match has zero citations; failed lookups return the error and
// are not memoized.
func (c *ScholarClient) AuthorCitations(ctx context.Context, f *Fetcher, name string) (int, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, nil
	}
	if n, ok := c.cache.Get(name); ok {
		return n, nil
	}

	n, err := c.lookup(ctx, f, name)
	if err != nil {
		c.logger.Debug("author lookup failed", zap.String("author", name), zap.Error(err))
		return 0, err
	}
	c.cache.Add(name, n)
	return n, nil
}

func (c *ScholarClient) lookup(ctx context.Context, f *Fetcher, name string) (int, error) {
	endpoint := c.Endpoint
	if endpoint == "" {
		endpoint = semanticScholarAPI
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	q := url.Values{}
	q.Set("query", name)
	q.Set("limit", "1")
	var search scholarSearch
	if err := f.JSON(ctx, endpoint+"/author/search?"+q.Encode(), &search); err != nil {
		return 0, err
	}
	if len(search.Data) == 0 || search.Data[0].AuthorID == "" {
		return 0, nil
	}

	var author scholarAuthor
	authorURL := endpoint + "/author/" + url.PathEscape(search.Data[0].AuthorID) + "?fields=citationCount"
	if err := f.JSON(ctx, authorURL, &author); err != nil {
		return 0, err
	}
	return author.CitationCount, nil
}

// MaxCitations returns the highest citation count among the first limit names.
// The error is non-nil when any lookup did not complete, in which case the
// count is only a lower bound.
func (c *ScholarClient) MaxCitations(ctx context.Context, f *Fetcher, names []string, limit int) (int, error) {
	best := 0
	var firstErr error
	for i, name := range names {
		if limit > 0 && i >= limit {
			break
		}
		if err := ctx.Err(); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			break
		}
		n, err := c.AuthorCitations(ctx, f, name)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		if n > best {
			best = n
		}
	}
	if firstErr != nil && !errors.Is(firstErr, ErrSourceUnavailable) {
		firstErr = fmt.Errorf("%w: semantic scholar: %w", ErrSourceUnavailable, firstErr)
	}
	return best, firstErr
}
