package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDedupe_FirstWins(t *testing.T) {
	items := []Item{
		{Title: "Monetary Policy and X", Source: "AER"},
		{Title: "Other", Source: "NBER"},
		{Title: "  monetary policy and x ", Source: "NBER"},
		{Title: "MONETARY POLICY AND X", Source: "Working Paper"},
	}
	got := Dedupe(items)

	require.Len(t, got, 2)
	assert.Equal(t, "AER", got[0].Source)
	assert.Equal(t, "Other", got[1].Title)
}

func TestDedupe_Empty(t *testing.T) {
	got := Dedupe(nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestDedupe_Idempotent(t *testing.T) {
	items := []Item{{Title: "a"}, {Title: "A"}, {Title: "b"}}
	once := Dedupe(items)
	assert.Equal(t, once, Dedupe(once))
}

func TestGroupByCategory(t *testing.T) {
	items := []Item{
		{Title: "1", Category: "Micro"},
		{Title: "2", Category: "Macro"},
		{Title: "3", Category: "Micro"},
		{Title: "4", Category: "Unlisted"},
	}
	got := GroupByCategory(items, []string{"Micro", "Macro", "Metrics"}, "General")

	require.Len(t, got, 4)
	assert.Equal(t, []Item{items[0], items[2]}, got["Micro"])
	assert.Equal(t, []Item{items[1]}, got["Macro"])
	assert.Equal(t, []Item{}, got["Metrics"])
	assert.Equal(t, []Item{items[3]}, got["General"])
}

func TestGroupByCategory_FallbackListed(t *testing.T) {
	got := GroupByCategory(nil, []string{"A", "Other"}, "Other")
	assert.Len(t, got, 2)
	assert.Empty(t, got["Other"])
}
