// =============================================================================
// runner.go - 設定から1回分の実行を組み立てる
// =============================================================================
//
// CLI と Lambda の両方から使う。Config を受け取り、
// 取得器・収集器・種別構成・要約・Notion・メトリクスを配線する。
//
// 【実行の流れ】
//  1. Pipeline.Run でダイジェストを作る
//  2. 要約が有効ならセクションを組み立てる
//  3. Notion が有効なら論文・記事を書き出す
//  4. Pushgateway が設定されていればメトリクスを送る
//
// 2〜4 の失敗は実行を止めない（ログに残すだけ）。
//
// =============================================================================
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// arXiv APIの利用規約（3秒に1リクエスト）
const arXivRequestInterval = 3 * time.Second

// Runner は設定済みの実行一式
type Runner struct {
	Config   Config
	Variant  Variant
	Pipeline *Pipeline
	Composer *Composer      // 要約無効なら nil
	Notion   *NotionClipper // Notion無効なら nil
	Registry *prometheus.Registry

	logger *zap.Logger
}

// RunResult は Runner.Run の結果
type RunResult struct {
	Digest     *Digest     `json:"digest"`
	Newsletter *Newsletter `json:"newsletter,omitempty"`
	Clipped    int         `json:"clipped,omitempty"`
	ClipFailed int         `json:"clipFailed,omitempty"`
}

// NewRunner は設定から Runner を組み立てる
func NewRunner(ctx context.Context, cfg Config, logger *zap.Logger) (*Runner, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	fetcher := NewFetcher(cfg.FetchConfig(), newRateLimiter())

	opts, err := cfg.VariantOptions(logger)
	if err != nil {
		return nil, err
	}
	variant, err := BuildVariant(cfg.Variant, opts)
	if err != nil {
		return nil, err
	}

	collector := NewCollector(fetcher, CollectorConfig{
		Concurrency:      cfg.Concurrency,
		PerSourceTimeout: cfg.Timeout,
	}, logger, metrics)

	r := &Runner{
		Config:   cfg,
		Variant:  variant,
		Pipeline: NewPipeline(variant, collector, logger, WithMetrics(metrics)),
		Registry: reg,
		logger:   logger,
	}

	if cfg.Summary.Enabled {
		s, err := NewEinoSummarizer(ctx, SummaryConfig{
			Model:     cfg.Summary.Model,
			APIKeyEnv: cfg.Summary.APIKeyEnv,
			BaseURL:   cfg.Summary.BaseURL,
		})
		if err != nil {
			return nil, err
		}
		r.Composer = NewComposer(s, logger)
	}

	if cfg.Notion.Enabled() {
		nc, err := NewNotionClipper(NotionClipperConfig{
			Token:      cfg.Notion.Token,
			PageID:     cfg.Notion.PageID,
			DatabaseID: cfg.Notion.DatabaseID,
		}, logger)
		if err != nil {
			return nil, err
		}
		r.Notion = nc
	}
	return r, nil
}

// FetchConfig はHTTP取得の設定を返す
func (c Config) FetchConfig() FetchConfig {
	fc := DefaultFetchConfig()
	if c.UserAgent != "" {
		fc.UserAgent = c.UserAgent
	}
	if c.Timeout > 0 {
		fc.Timeout = c.Timeout
		fc.Client.Timeout = c.Timeout
	}
	return fc
}

// VariantOptions は種別構成に渡す実行時設定を返す
func (c Config) VariantOptions(logger *zap.Logger) (VariantOptions, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	gate := Gate{
		MinAuthorCitations: c.Thresholds.MinAuthorCitations,
		MinRelevance:       c.Thresholds.MinRelevance,
	}
	opts := VariantOptions{
		Mailto:          c.ContactEmail,
		PaperWindowDays: c.Windows.Papers,
		PostWindowDays:  c.Windows.Posts,
		ReputationGate:  &gate,
		Logger:          logger,
	}
	if c.Scholar.Enabled {
		sc, err := NewScholarClient(c.Scholar.CacheSize, logger)
		if err != nil {
			return VariantOptions{}, fmt.Errorf("scholar client: %w", err)
		}
		opts.Scholar = sc
		opts.ScholarMinCitations = c.Scholar.MinAuthorCitations
		opts.ScholarTimeout = c.Scholar.Timeout
	}
	if c.PDF.Fallback {
		opts.PDF = &PDFExtractor{MaxPages: c.PDF.MaxPages, Logger: logger.Named("pdf")}
	}
	return opts, nil
}

func newRateLimiter() *HostRateLimiter {
	l := NewHostRateLimiter(0)
	l.SetInterval("export.arxiv.org", arXivRequestInterval)
	l.SetInterval("api.semanticscholar.org", time.Second)
	return l
}

// Run はダイジェストを作り、有効な後段処理を順に実行する
func (r *Runner) Run(ctx context.Context) (*RunResult, error) {
	res := &RunResult{Digest: r.Pipeline.Run(ctx)}
	if err := ctx.Err(); err != nil {
		return res, err
	}
	logger := r.logger.With(zap.String("run_id", res.Digest.RunID))

	if r.Composer != nil {
		res.Newsletter = r.Composer.Compose(ctx, res.Digest, r.Variant)
	}

	if r.Notion != nil {
		if r.Notion.DatabaseID() == "" {
			if err := r.Notion.CreateDatabase(ctx, r.Config.Notion.PageID, r.Variant.Title); err != nil {
				logger.Warn("notion database setup failed", zap.Error(err))
			}
		}
		if r.Notion.DatabaseID() != "" {
			res.Clipped, res.ClipFailed = r.Notion.ClipDigest(ctx, res.Digest)
			logger.Info("notion clip finished",
				zap.Int("clipped", res.Clipped), zap.Int("failed", res.ClipFailed))
		}
	}

	if r.Config.Metrics.PushURL != "" {
		if err := PushMetrics(ctx, r.Config.Metrics.PushURL, r.Config.Metrics.Job, r.Registry); err != nil {
			logger.Warn("metrics push failed", zap.Error(err))
		}
	}
	return res, nil
}
