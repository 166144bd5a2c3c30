package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.sourceCollected("x", 1, time.Second)
		m.sourceFailed("x")
		m.itemsDropped("stale", 3)
	})
}

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.sourceCollected("nber", 12, 200*time.Millisecond)
	m.sourceCollected("nber", 3, 100*time.Millisecond)
	m.itemsDropped("gated", 0)
	m.itemsDropped("stale", 4)

	assert.Equal(t, float64(15), testutil.ToFloat64(m.records.WithLabelValues("nber")))
	assert.Equal(t, float64(4), testutil.ToFloat64(m.dropped.WithLabelValues("stale")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.dropped), "zero drops create no series")

	n, err := testutil.GatherAndCount(reg, "briefing_relay_source_fetch_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPushMetrics(t *testing.T) {
	var gotPath, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotMethod = r.URL.Path, r.Method
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	reg := prometheus.NewRegistry()
	NewMetrics(reg).sourceFailed("arxiv")

	require.NoError(t, PushMetrics(context.Background(), srv.URL, "briefing_relay", reg))
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.True(t, strings.HasPrefix(gotPath, "/metrics/job/briefing_relay"), gotPath)
}

func TestPushMetrics_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := PushMetrics(context.Background(), srv.URL, "job", prometheus.NewRegistry())
	assert.ErrorContains(t, err, srv.URL)
}
