package pipeline

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// notionRecorder stands in for api.notion.com.
type notionRecorder struct {
	mu       sync.Mutex
	requests []recordedRequest
	failOn   string // page title that gets a 400
}

type recordedRequest struct {
	Method string
	Path   string
	Body   map[string]any
}

func (n *notionRecorder) RoundTrip(r *http.Request) (*http.Response, error) {
	var body map[string]any
	if r.Body != nil {
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &body)
	}
	n.mu.Lock()
	n.requests = append(n.requests, recordedRequest{Method: r.Method, Path: r.URL.Path, Body: body})
	n.mu.Unlock()

	status, payload := http.StatusOK, `{"object":"page","id":"page-1","properties":{}}`
	switch {
	case strings.HasSuffix(r.URL.Path, "/databases"):
		payload = `{"object":"database","id":"db-new","properties":{}}`
	case n.failOn != "" && strings.Contains(string(mustJSON(body)), n.failOn):
		status, payload = http.StatusBadRequest, `{"object":"error","status":400,"code":"validation_error","message":"bad"}`
	}
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(payload)),
		Request:    r,
	}, nil
}

func mustJSON(v any) []byte {
	b, _ := json.Marshal(v)
	return b
}

func newTestClipper(t *testing.T, rec *notionRecorder, dbID string) *NotionClipper {
	t.Helper()
	nc, err := NewNotionClipper(NotionClipperConfig{
		Token:      "secret",
		DatabaseID: dbID,
		HTTPClient: &http.Client{Transport: rec},
	}, nil)
	require.NoError(t, err)
	return nc
}

func TestNewNotionClipper_RequiresToken(t *testing.T) {
	_, err := NewNotionClipper(NotionClipperConfig{}, nil)
	assert.Error(t, err)
}

func TestNotionClipper_ClipDigest(t *testing.T) {
	rec := &notionRecorder{failOn: "Broken post"}
	nc := newTestClipper(t, rec, "db-1")

	d := &Digest{
		Papers: []Item{{Title: "Paper A", URL: "https://example.org/a", Source: "AER", Category: "Macroeconomics", Score: 1120, Authors: "Jane Roe"}},
		Posts: []Item{
			{Title: "Post B", URL: "https://example.org/b", Source: "EconLog", Category: "Microeconomics"},
			{Title: "Broken post", Category: "General Economics"},
		},
	}
	clipped, failed := nc.ClipDigest(context.Background(), d)
	assert.Equal(t, 2, clipped)
	assert.Equal(t, 1, failed)

	require.Len(t, rec.requests, 3)
	first := rec.requests[0]
	assert.Equal(t, http.MethodPost, first.Method)
	assert.Equal(t, "/v1/pages", first.Path)

	parent := first.Body["parent"].(map[string]any)
	assert.Equal(t, "db-1", parent["database_id"])
	props := first.Body["properties"].(map[string]any)
	assert.Contains(t, props, "Title")
	assert.Contains(t, props, "Authors")
	assert.NotContains(t, props, "Abstract")
	assert.Equal(t, float64(1120), props["Score"].(map[string]any)["number"])
}

func TestNotionClipper_CreateDatabase(t *testing.T) {
	rec := &notionRecorder{}
	nc := newTestClipper(t, rec, "")

	require.Error(t, nc.ClipItem(context.Background(), Item{Title: "x"}, "Paper"))
	require.Error(t, nc.CreateDatabase(context.Background(), "", "Briefing"))

	require.NoError(t, nc.CreateDatabase(context.Background(), "page-123", "Briefing"))
	assert.Equal(t, "db-new", nc.DatabaseID())
	require.Len(t, rec.requests, 1)
	assert.Equal(t, "/v1/databases", rec.requests[0].Path)
}

func TestItemProperties(t *testing.T) {
	props := itemProperties(Item{
		Title:    "T",
		Abstract: strings.Repeat("x", 2500),
		Category: "General AI",
	}, "Post")

	assert.NotContains(t, props, "URL")
	assert.NotContains(t, props, "Source")
	assert.Equal(t, notionapi.Option{Name: "Post"}, props["Kind"].(notionapi.SelectProperty).Select)

	abstract := props["Abstract"].(notionapi.RichTextProperty).RichText[0].Text.Content
	assert.Len(t, []rune(abstract), notionTextLimit)
	assert.True(t, strings.HasSuffix(abstract, "..."))
}

func TestItemProperties_SelectOptionsHaveNoCommas(t *testing.T) {
	props := itemProperties(Item{
		Title:    "T",
		Source:   "Journal of Economic Theory, Econometrics and Finance",
		Category: "Micro, Macro",
	}, "Paper")

	assert.Equal(t, notionapi.Option{Name: "Journal of Economic Theory Econometrics and Finance"},
		props["Source"].(notionapi.SelectProperty).Select)
	assert.Equal(t, notionapi.Option{Name: "Micro Macro"}, props["Category"].(notionapi.SelectProperty).Select)

	long := itemProperties(Item{Title: "T", Source: strings.Repeat("v", 150)}, "Paper")
	assert.Len(t, long["Source"].(notionapi.SelectProperty).Select.Name, notionOptionLimit)
}
