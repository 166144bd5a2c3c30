package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(NewViper(), "")
	require.NoError(t, err)

	assert.Equal(t, "econ", cfg.Variant)
	assert.Equal(t, DefaultUserAgent, cfg.UserAgent)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, DefaultPaperWindowDays, cfg.Windows.Papers)
	assert.Equal(t, DefaultPostWindowDays, cfg.Windows.Posts)
	assert.Equal(t, MinAuthorCitations, cfg.Thresholds.MinAuthorCitations)
	assert.InDelta(t, MinEconomicsRelevance, cfg.Thresholds.MinRelevance, 1e-9)
	assert.False(t, cfg.Summary.Enabled)
	assert.Equal(t, "OPENAI_API_KEY", cfg.Summary.APIKeyEnv)
	assert.False(t, cfg.Notion.Enabled())
	assert.Equal(t, "briefing_relay", cfg.Metrics.Job)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relay.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
variant: ai
timeout: 45s
windows:
  posts: 3
scholar:
  enabled: true
  minAuthorCitations: 1000
log:
  level: debug
`), 0o644))

	t.Setenv("RELAY_WINDOWS_POSTS", "5")
	t.Setenv("RELAY_CONTACTEMAIL", "team@example.org")

	cfg, err := LoadConfig(NewViper(), path)
	require.NoError(t, err)

	assert.Equal(t, "ai", cfg.Variant)
	assert.Equal(t, 45*time.Second, cfg.Timeout)
	assert.Equal(t, 5, cfg.Windows.Posts, "env overrides file")
	assert.Equal(t, DefaultPaperWindowDays, cfg.Windows.Papers)
	assert.Equal(t, "team@example.org", cfg.ContactEmail)
	assert.True(t, cfg.Scholar.Enabled)
	assert.Equal(t, 1000, cfg.Scholar.MinAuthorCitations)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(NewViper(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	base, err := LoadConfig(NewViper(), "")
	require.NoError(t, err)

	bad := base
	bad.Variant = "sports"
	assert.ErrorIs(t, bad.Validate(), ErrUnknownVariant)

	bad = base
	bad.Timeout = 0
	assert.Error(t, bad.Validate())

	bad = base
	bad.Thresholds.MinRelevance = 1.5
	assert.Error(t, bad.Validate())

	bad = base
	bad.Thresholds.MinAuthorCitations = -1
	assert.Error(t, bad.Validate())

	bad = base
	bad.Scholar.Timeout = -time.Second
	assert.Error(t, bad.Validate())

	bad = base
	bad.Notion.Token = "secret"
	assert.Error(t, bad.Validate())
	bad.Notion.DatabaseID = "db"
	assert.NoError(t, bad.Validate())
}

func TestConfig_VariantOptions(t *testing.T) {
	cfg, err := LoadConfig(NewViper(), "")
	require.NoError(t, err)
	cfg.Scholar.Enabled = true
	cfg.Scholar.MinAuthorCitations = 2000
	cfg.PDF.Fallback = true
	cfg.ContactEmail = "me@example.org"

	opts, err := cfg.VariantOptions(nil)
	require.NoError(t, err)
	assert.NotNil(t, opts.Scholar)
	assert.NotNil(t, opts.PDF)
	assert.Equal(t, "me@example.org", opts.Mailto)

	v := AIVariant(opts)
	assert.Equal(t, 2000, v.Sources[0].Gate.MinAuthorCitations)
	assert.Equal(t, 10*time.Minute, v.Sources[0].Timeout)
	arxiv := v.Sources[0].Source.(*ArXivSource)
	assert.Same(t, opts.Scholar, arxiv.Scholar)
	assert.Equal(t, DefaultPostWindowDays, arxiv.WindowDays)
}

func TestConfig_ZeroThresholdsDisableReputationGate(t *testing.T) {
	cfg, err := LoadConfig(NewViper(), "")
	require.NoError(t, err)

	opts, err := cfg.VariantOptions(nil)
	require.NoError(t, err)
	v := EconVariant(opts)
	assert.Equal(t, Gate{MinAuthorCitations: MinAuthorCitations, MinRelevance: MinEconomicsRelevance}, v.Sources[1].Gate)

	cfg.Thresholds.MinAuthorCitations = 0
	cfg.Thresholds.MinRelevance = 0
	require.NoError(t, cfg.Validate())
	opts, err = cfg.VariantOptions(nil)
	require.NoError(t, err)
	v = EconVariant(opts)
	assert.Equal(t, Gate{}, v.Sources[1].Gate)
	assert.True(t, v.Sources[1].Gate.Admit(Signals{Tier: TierReputation}))

	cfg.Thresholds.MinRelevance = 0.7
	opts, err = cfg.VariantOptions(nil)
	require.NoError(t, err)
	assert.Equal(t, Gate{MinRelevance: 0.7}, EconVariant(opts).Sources[1].Gate)
}

func TestNewRunner(t *testing.T) {
	cfg, err := LoadConfig(NewViper(), "")
	require.NoError(t, err)
	cfg.Variant = "ai"

	r, err := NewRunner(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "ai", r.Variant.Name)
	assert.Nil(t, r.Composer)
	assert.Nil(t, r.Notion)
	assert.NotNil(t, r.Registry)

	t.Setenv("RELAY_TEST_MISSING_KEY", "")
	cfg.Summary.Enabled = true
	cfg.Summary.APIKeyEnv = "RELAY_TEST_MISSING_KEY"
	_, err = NewRunner(context.Background(), cfg, nil)
	assert.ErrorIs(t, err, ErrSummarizerUnavailable)
}
