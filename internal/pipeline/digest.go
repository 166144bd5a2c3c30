// =============================================================================
// digest.go - 1回分の実行（生レコード → ランキング済みダイジェスト）
// =============================================================================
//
// 【処理の流れ】
//  1. Collector で全ソースを並行取得（結果は宣言順）
//  2. レコードを Item / ToolItem に正規化（壊れたレコードはスキップ）
//  3. 公開日フィルタ（ソースごとの対象期間）
//  4. 採用条件（Gate）で足切り → スコア計算
//  5. 役割ごとに宣言順でマージ → タイトル重複除去
//  6. 論文をスコア降順に並べ、カテゴリ別にまとめる
//
// 実行をまたいだ状態は持たない。
//
// =============================================================================
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Pipeline はある種別の1回分の実行を組み立てる
type Pipeline struct {
	variant    Variant
	classifier *Classifier
	normalizer *Normalizer
	collector  *Collector
	ranker     Ranker
	recency    RecencyFilter
	logger     *zap.Logger
	metrics    *Metrics
	now        func() time.Time
}

// PipelineOption は Pipeline の任意設定
type PipelineOption func(*Pipeline)

// WithClock は現在時刻の取得関数を差し替える（テスト用）
func WithClock(now func() time.Time) PipelineOption {
	return func(p *Pipeline) {
		p.now = now
		p.recency = RecencyFilter{Now: now}
	}
}

// WithRanker はスコアの重みを差し替える
func WithRanker(r Ranker) PipelineOption {
	return func(p *Pipeline) { p.ranker = r }
}

// WithMetrics はメトリクスの記録先を設定する
func WithMetrics(m *Metrics) PipelineOption {
	return func(p *Pipeline) { p.metrics = m }
}

// NewPipeline は Pipeline を作る。logger は nil でもよい。
func NewPipeline(v Variant, collector *Collector, logger *zap.Logger, opts ...PipelineOption) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := v.Classifier()
	p := &Pipeline{
		variant:    v,
		classifier: c,
		normalizer: NewNormalizer(c),
		collector:  collector,
		ranker:     NewRanker(),
		logger:     logger.Named("pipeline").With(zap.String("variant", v.Name)),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run は全ソースを取得してダイジェストを返す。エラーは返さない：
// 失敗したソースは Digest.Failures に記録される。
func (p *Pipeline) Run(ctx context.Context) *Digest {
	runID := uuid.NewString()
	logger := p.logger.With(zap.String("run_id", runID))
	logger.Info("run started", zap.Int("sources", len(p.variant.Sources)))

	results := p.collector.Collect(ctx, p.variant.Sources)
	d := p.Assemble(results)
	d.RunID = runID

	logger.Info("run finished",
		zap.Int("papers", len(d.Papers)),
		zap.Int("posts", len(d.Posts)),
		zap.Int("tools", len(d.Tools)),
		zap.Int("failed_sources", len(d.Failures)),
		zap.Int("malformed", d.Stats.Malformed),
		zap.Int("stale", d.Stats.Stale),
		zap.Int("gated", d.Stats.Gated),
		zap.Int("duplicates", d.Stats.Duplicate),
		zap.Int("unverified", d.Stats.Unverified))
	return d
}

// Assemble は取得済みの結果からダイジェストを組み立てる（ネットワークなし）
//
// results は宣言順であること。その順序がそのままマージ優先順になる。
func (p *Pipeline) Assemble(results []SourceResult) *Digest {
	d := &Digest{
		Variant:     p.variant.Name,
		GeneratedAt: p.now(),
		Categories:  p.classifier.Categories(),
		Papers:      []Item{},
		Posts:       []Item{},
		Tools:       []ToolItem{},
	}

	for _, res := range results {
		name := res.Entry.Source.Name()
		if res.Err != nil {
			d.Failures = append(d.Failures, SourceFailure{Source: name, Error: res.Err.Error()})
			continue
		}
		d.Stats.Fetched += len(res.Records)

		for _, rec := range res.Records {
			if res.Entry.Role == RoleTools {
				tool, err := p.normalizer.NormalizeTool(rec)
				if err != nil {
					p.skipMalformed(d, name, err)
					continue
				}
				d.Tools = append(d.Tools, tool)
				continue
			}

			item, sig, err := p.normalizer.Normalize(rec)
			if err != nil {
				p.skipMalformed(d, name, err)
				continue
			}
			if !p.recency.IsRecent(item.Published, res.Entry.WindowDays) {
				d.Stats.Stale++
				continue
			}
			if !res.Entry.Gate.Admit(sig) {
				d.Stats.Gated++
				continue
			}
			if res.Entry.Gate.Unverified(sig) {
				d.Stats.Unverified++
			}

			switch res.Entry.Role {
			case RolePapers:
				item.Score = p.ranker.Score(sig)
				d.Papers = append(d.Papers, item)
			case RolePosts:
				d.Posts = append(d.Posts, item)
			}
		}
	}

	before := len(d.Papers) + len(d.Posts)
	d.Papers = Dedupe(d.Papers)
	d.Posts = Dedupe(d.Posts)
	d.Stats.Duplicate = before - len(d.Papers) - len(d.Posts)

	SortByScore(d.Papers)
	d.ByCategory = GroupByCategory(d.Papers, d.Categories, p.classifier.Fallback())

	p.metrics.itemsDropped("malformed", d.Stats.Malformed)
	p.metrics.itemsDropped("stale", d.Stats.Stale)
	p.metrics.itemsDropped("gated", d.Stats.Gated)
	p.metrics.itemsDropped("duplicate", d.Stats.Duplicate)
	return d
}

func (p *Pipeline) skipMalformed(d *Digest, source string, err error) {
	d.Stats.Malformed++
	if errors.Is(err, ErrMalformedRecord) {
		p.logger.Debug("record skipped", zap.String("source", source), zap.Error(err))
		return
	}
	p.logger.Warn("record mapping failed", zap.String("source", source), zap.Error(err))
}
