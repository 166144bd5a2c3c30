package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"briefing-relay/internal/pipeline"
)

func TestBuildSourcePlan_Econ(t *testing.T) {
	v := pipeline.EconVariant(pipeline.VariantOptions{})
	plan := buildSourcePlan(v)

	require.Len(t, plan, 5)
	assert.Equal(t, "openalex-elite", plan[0].Name)
	assert.Equal(t, "openalex-top-authors", plan[1].Name)
	assert.Equal(t, pipeline.MinAuthorCitations, plan[1].MinAuthorCitations)
	assert.Equal(t, "NBER Working Paper", plan[2].Name)
	assert.Equal(t, "posts", plan[3].Role)
	assert.Equal(t, pipeline.DefaultPostWindowDays, plan[4].WindowDays)
}

func TestPrintSourcePlan(t *testing.T) {
	v := pipeline.AIVariant(pipeline.VariantOptions{})
	var buf bytes.Buffer
	require.NoError(t, printSourcePlan(&buf, v.Title, buildSourcePlan(v)))

	out := buf.String()
	assert.Contains(t, out, "AI Research Briefing")
	assert.Contains(t, out, "arxiv")
	assert.Contains(t, out, "github-trending")
	assert.Contains(t, out, "7d")
}
