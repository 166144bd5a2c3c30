// =============================================================================
// collector.go - ソース収集の共通ロジック
// =============================================================================
//
// 各ソースアダプタを並行に呼び出し、結果を宣言順にまとめます。
//
// 【ファイル構成】
//   - collector.go (このファイル)  - Source インターフェースと並行収集
//   - sources_academic.go         - arXiv / OpenAlex / NBER
//   - sources_rss.go              - ブログ・ニュースレター・企業ブログ（RSS/Atom）
//   - sources_html.go             - 企業ニュースページ・GitHub Trending（スクレイピング）
//   - scholar.go                  - Semantic Scholar 著者被引用数
//   - pdf.go                      - PDFからのアブストラクト抽出
//
// 【失敗の扱い】
//   1つのソースが失敗しても実行全体は止めない。失敗したソースは空の結果として
//   扱い、構造化ログとメトリクスに記録する。
//
// =============================================================================
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Source は1つの外部ソースから生レコードを取得するアダプタ
//
// 実装はネットワーク・パース・タイムアウトの失敗をエラーとして返し、
// 境界を越えてpanicしてはならない（念のためCollectorでもrecoverする）。
type Source interface {
	Name() string
	Fetch(ctx context.Context, f *Fetcher) ([]Record, error)
}

// SourceEntry はソースとその扱い方（役割・対象期間・採用条件）の組
type SourceEntry struct {
	Source     Source
	Role       Role
	WindowDays int           // 公開日フィルタの日数（0以下で無効）
	Gate       Gate          // スコア計算前の採用条件
	Timeout    time.Duration // 0より大きければ収集器のタイムアウトより優先
}

// SourceResult は1ソース分の取得結果（Records か Err のどちらか）
type SourceResult struct {
	Entry    SourceEntry
	Records  []Record
	Err      error
	Duration time.Duration
}

// CollectorConfig は並行収集の設定
type CollectorConfig struct {
	Concurrency      int           // 同時に動かすアダプタ数（0以下で無制限）
	PerSourceTimeout time.Duration // アダプタごとのタイムアウト
}

// Collector はソースを並行に取得する
type Collector struct {
	fetcher *Fetcher
	cfg     CollectorConfig
	logger  *zap.Logger
	metrics *Metrics
}

// NewCollector は Collector を作る。logger と metrics は nil でもよい。
func NewCollector(fetcher *Fetcher, cfg CollectorConfig, logger *zap.Logger, metrics *Metrics) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{
		fetcher: fetcher,
		cfg:     cfg,
		logger:  logger.Named("collector"),
		metrics: metrics,
	}
}

// Collect は全ソースを並行に取得し、entries と同じ順序で結果を返す
//
// 完了順に関係なく、結果のスライスは宣言順（＝マージ優先順）になる。
// 返り値にエラーはない：失敗は各 SourceResult.Err に入る。
func (c *Collector) Collect(ctx context.Context, entries []SourceEntry) []SourceResult {
	results := make([]SourceResult, len(entries))

	var g errgroup.Group
	if c.cfg.Concurrency > 0 {
		g.SetLimit(c.cfg.Concurrency)
	}

	for i, entry := range entries {
		i, entry := i, entry
		g.Go(func() error {
			results[i] = c.collectOne(ctx, entry)
			return nil
		})
	}
	_ = g.Wait() // ゴルーチンは常にnilを返す

	for _, r := range results {
		name := r.Entry.Source.Name()
		if r.Err != nil {
			c.logger.Warn("source failed",
				zap.String("source", name),
				zap.Duration("duration", r.Duration),
				zap.Error(r.Err))
			c.metrics.sourceFailed(name)
			continue
		}
		c.logger.Info("source collected",
			zap.String("source", name),
			zap.Int("records", len(r.Records)),
			zap.Duration("duration", r.Duration))
		c.metrics.sourceCollected(name, len(r.Records), r.Duration)
	}
	return results
}

func (c *Collector) collectOne(ctx context.Context, entry SourceEntry) (res SourceResult) {
	res.Entry = entry
	start := time.Now()

	timeout := c.cfg.PerSourceTimeout
	if entry.Timeout > 0 {
		timeout = entry.Timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	defer func() {
		if p := recover(); p != nil {
			res.Records = nil
			res.Err = fmt.Errorf("%w: %s panicked: %v", ErrSourceUnavailable, entry.Source.Name(), p)
		}
		res.Duration = time.Since(start)
	}()

	recs, err := entry.Source.Fetch(ctx, c.fetcher)
	if err != nil {
		if !errors.Is(err, ErrSourceUnavailable) {
			err = fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, entry.Source.Name(), err)
		}
		res.Err = err
		return res
	}
	res.Records = recs
	return res
}
