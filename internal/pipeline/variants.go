// =============================================================================
// variants.go - ニュースレター種別ごとのソース構成
// =============================================================================
//
// 種別（econ / ai）ごとに、カテゴリのキーワード表・フォールバックカテゴリ・
// ソースの優先順を定義します。表は呼び出しごとに新しい値を返すので、
// 呼び出し側が書き換えても他の実行には影響しない。
//
// 【ソースの並び順 = マージ優先順】
//   重複タイトルは先に並んだソースの方が残る。
//
// =============================================================================
package pipeline

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Feed URLs
const (
	nberFeedURL          = "https://www.nber.org/rss/new.xml"
	marginalRevFeedURL   = "https://marginalrevolution.com/feed"
	econLogFeedURL       = "https://www.econlib.org/feed/"
	deepMindFeedURL      = "https://deepmind.google/blog/rss.xml"
	importAIFeedURL      = "https://importai.substack.com/feed"
	aheadOfAIFeedURL     = "https://magazine.sebastianraschka.com/feed"
	anthropicNewsPageURL = "https://www.anthropic.com/news"
)

// Variant はニュースレター1種類分の構成
type Variant struct {
	Name     string
	Title    string
	Rules    []CategoryRule
	Fallback string
	Sources  []SourceEntry
	Sections []SectionSpec
}

// VariantOptions は構成に差し込む実行時設定
type VariantOptions struct {
	Mailto          string
	PaperWindowDays int
	PostWindowDays  int

	// ReputationGate は評判ティアの採用条件。nilなら既定値（5000 / 0.4）、
	// ゼロのしきい値はその条件を無効にする。
	ReputationGate *Gate

	Scholar             *ScholarClient // nilならSemantic Scholar照会なし
	ScholarMinCitations int            // arXivに適用する著者しきい値（0で無効）
	ScholarTimeout      time.Duration  // 照会ありのarXivのタイムアウト（0で収集器の既定）
	PDF                 *PDFExtractor  // nilならPDFフォールバックなし

	Logger *zap.Logger
}

func (o VariantOptions) withDefaults() VariantOptions {
	if o.PaperWindowDays <= 0 {
		o.PaperWindowDays = DefaultPaperWindowDays
	}
	if o.PostWindowDays <= 0 {
		o.PostWindowDays = DefaultPostWindowDays
	}
	if o.ReputationGate == nil {
		o.ReputationGate = &Gate{MinAuthorCitations: MinAuthorCitations, MinRelevance: MinEconomicsRelevance}
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// variantBuilders は種別名から構成関数へのレジストリ
var variantBuilders = map[string]func(VariantOptions) Variant{
	"econ": EconVariant,
	"ai":   AIVariant,
}

// BuildVariant は名前で種別を組み立てる
func BuildVariant(name string, opts VariantOptions) (Variant, error) {
	build, ok := variantBuilders[name]
	if !ok {
		return Variant{}, fmt.Errorf("%w: %q (known: %v)", ErrUnknownVariant, name, VariantNames())
	}
	return build(opts), nil
}

// VariantNames は登録済みの種別名をソートして返す
func VariantNames() []string {
	names := make([]string, 0, len(variantBuilders))
	for n := range variantBuilders {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Classifier は種別のキーワード表から分類器を作る
func (v Variant) Classifier() *Classifier {
	return NewClassifier(v.Rules, v.Fallback)
}

// -----------------------------------------------------------------------------
// econ - 経済学リサーチ
// -----------------------------------------------------------------------------

// EconCategoryRules は経済学のカテゴリ表（宣言順が同点時の優先順）
func EconCategoryRules() []CategoryRule {
	return []CategoryRule{
		{Name: "Microeconomics", Keywords: []string{
			"microeconomic", "consumer", "firm", "market structure", "game theory",
			"auction", "labor", "industrial organization", "behavioral", "household",
			"price", "demand", "supply", "welfare", "incentive", "contract",
		}},
		{Name: "Macroeconomics", Keywords: []string{
			"macroeconomic", "gdp", "inflation", "monetary", "fiscal", "growth",
			"business cycle", "unemployment", "central bank", "interest rate",
			"aggregate", "recession", "policy", "federal reserve", "trade",
		}},
		{Name: "Econometrics", Keywords: []string{
			"econometric", "causal", "regression", "instrumental", "difference-in-difference",
			"panel data", "time series", "identification", "estimation", "inference",
			"statistical", "machine learning", "prediction", "forecast",
		}},
	}
}

// EconFallback は経済学でどのカテゴリにも当たらない場合のラベル
const EconFallback = "General Economics"

// EconVariant は経済学ニュースレターの構成
//
// 論文: 一流誌 → 高被引用著者 → NBER の順にマージ。
// 記事: Marginal Revolution, EconLog（各10件）。
func EconVariant(opts VariantOptions) Variant {
	o := opts.withDefaults()
	return Variant{
		Name:     "econ",
		Title:    "Economics Research Briefing",
		Rules:    EconCategoryRules(),
		Fallback: EconFallback,
		Sources: []SourceEntry{
			{
				Source:     NewEliteJournalSource(o.Mailto, o.PaperWindowDays),
				Role:       RolePapers,
				WindowDays: o.PaperWindowDays,
			},
			{
				Source:     NewTopAuthorSource(o.Mailto, o.PaperWindowDays),
				Role:       RolePapers,
				WindowDays: o.PaperWindowDays,
				Gate:       *o.ReputationGate,
			},
			{
				Source: &FeedSource{
					Label:         "NBER Working Paper",
					URL:           nberFeedURL,
					Tier:          TierPreVetted,
					DefaultAuthor: "NBER",
					SummaryLimit:  paperAbstractLimit,
				},
				Role:       RolePapers,
				WindowDays: o.PaperWindowDays,
			},
			{
				Source:     &FeedSource{Label: "Marginal Revolution", URL: marginalRevFeedURL, Limit: 10, SummaryLimit: postSummaryLimit},
				Role:       RolePosts,
				WindowDays: o.PostWindowDays,
			},
			{
				Source:     &FeedSource{Label: "EconLog", URL: econLogFeedURL, Limit: 10, SummaryLimit: postSummaryLimit},
				Role:       RolePosts,
				WindowDays: o.PostWindowDays,
			},
		},
		Sections: econSections(),
	}
}

func econSections() []SectionSpec {
	secs := []SectionSpec{{
		Key:           "top_papers",
		Title:         "Top Papers",
		Kind:          SectionTopPapers,
		Limit:         30,
		AbstractLimit: 600,
		Fallback:      "<p>No papers available this week.</p>",
		Instruction: "Pick the five to eight most important papers below. For each, give the title as a link, " +
			"the authors, and two sentences on the finding and why it matters.",
	}}
	for _, r := range EconCategoryRules() {
		secs = append(secs, SectionSpec{
			Key:           strings.ToLower(r.Name),
			Title:         r.Name,
			Kind:          SectionCategory,
			Category:      r.Name,
			Limit:         15,
			AbstractLimit: 800,
			Fallback:      fmt.Sprintf("No new %s papers this week.", strings.ToLower(r.Name)),
			Instruction: "Summarize the " + r.Name + " papers below for economists. One short paragraph per paper " +
				"with the title as a link; group related papers when they speak to each other.",
		})
	}
	return append(secs, SectionSpec{
		Key:           "discussions",
		Title:         "From the Blogs",
		Kind:          SectionPosts,
		Limit:         15,
		AbstractLimit: 500,
		Fallback:      "<p>No blog discussions to highlight this week.</p>",
		Instruction:   "Highlight the most interesting economics blog discussions below, one or two sentences each, linking every post.",
	})
}

// -----------------------------------------------------------------------------
// ai - AI/ML
// -----------------------------------------------------------------------------

// AICategoryRules はAI/MLのカテゴリ表（宣言順が同点時の優先順）
func AICategoryRules() []CategoryRule {
	return []CategoryRule{
		{Name: "LLMs & Language Models", Keywords: []string{
			"language model", "llm", "transformer", "gpt", "bert", "attention",
			"text generation", "prompt", "fine-tuning", "instruction", "chat",
			"dialogue", "nlp", "natural language", "token", "embedding",
		}},
		{Name: "Computer Vision", Keywords: []string{
			"image", "vision", "visual", "diffusion", "generative", "gan",
			"object detection", "segmentation", "recognition", "video",
			"multimodal", "clip", "stable diffusion", "dalle", "midjourney",
		}},
		{Name: "RL & Agents", Keywords: []string{
			"reinforcement learning", "rl", "agent", "reward", "policy",
			"q-learning", "actor-critic", "environment", "decision", "planning",
			"robotics", "control", "autonomous",
		}},
		{Name: "ML Infrastructure", Keywords: []string{
			"inference", "optimization", "quantization", "distillation",
			"deployment", "serving", "training", "distributed", "gpu",
			"efficient", "speed", "latency", "throughput", "benchmark",
		}},
	}
}

// AIFallback はAI/MLでどのカテゴリにも当たらない場合のラベル
const AIFallback = "General AI"

// ArXivCategories はAI/MLで対象にするarXivカテゴリ
var ArXivCategories = []string{"cs.AI", "cs.LG", "cs.CL", "cs.CV"}

// AIVariant はAI/MLニュースレターの構成
//
// 論文: arXivのみ（プレプリントなので対象期間は記事と同じ7日）。
// 記事: DeepMind(10) → Anthropicニュース(5) → Import AI(5) → Ahead of AI(5)。
// ツール: GitHub Trending。
func AIVariant(opts VariantOptions) Variant {
	o := opts.withDefaults()

	arxiv := &ArXivSource{
		Categories: append([]string(nil), ArXivCategories...),
		MaxResults: 50,
		HighImpact: []string{"cs.LG", "cs.CL"},
		Scholar:    o.Scholar,
		WindowDays: o.PostWindowDays,
		PDF:        o.PDF,
		Logger:     o.Logger.Named("arxiv"),
	}
	arxivEntry := SourceEntry{Source: arxiv, Role: RolePapers, WindowDays: o.PostWindowDays}
	if o.Scholar != nil {
		arxivEntry.Timeout = o.ScholarTimeout
		if o.ScholarMinCitations > 0 {
			arxivEntry.Gate.MinAuthorCitations = o.ScholarMinCitations
		}
	}

	return Variant{
		Name:     "ai",
		Title:    "AI Research Briefing",
		Rules:    AICategoryRules(),
		Fallback: AIFallback,
		Sources: []SourceEntry{
			arxivEntry,
			{
				Source:     &FeedSource{Label: "Google DeepMind", URL: deepMindFeedURL, Limit: 10, SummaryLimit: postSummaryLimit},
				Role:       RolePosts,
				WindowDays: o.PostWindowDays,
			},
			{
				Source:     &NewsPageSource{Label: "Anthropic", URL: anthropicNewsPageURL, Limit: 5},
				Role:       RolePosts,
				WindowDays: o.PostWindowDays,
			},
			{
				Source:     &FeedSource{Label: "Import AI", URL: importAIFeedURL, Limit: 5, SummaryLimit: postSummaryLimit},
				Role:       RolePosts,
				WindowDays: o.PostWindowDays,
			},
			{
				Source:     &FeedSource{Label: "Ahead of AI", URL: aheadOfAIFeedURL, Limit: 5, SummaryLimit: postSummaryLimit},
				Role:       RolePosts,
				WindowDays: o.PostWindowDays,
			},
			{Source: &TrendingSource{}, Role: RoleTools},
		},
		Sections: aiSections(),
	}
}

func aiSections() []SectionSpec {
	return []SectionSpec{
		{
			Key:           "news",
			Title:         "News",
			Kind:          SectionPosts,
			Limit:         15,
			AbstractLimit: 500,
			Fallback:      "<p>No major AI news this week.</p>",
			Instruction:   "Summarize the AI lab announcements and newsletter posts below. Lead with the most consequential; link every item.",
		},
		{
			Key:      "tools",
			Title:    "Trending Tools",
			Kind:     SectionTools,
			Limit:    10,
			Fallback: "<p>No trending tools this week.</p>",
			Instruction: "Describe the trending repositories below in one sentence each: what it does and who would use it. " +
				"Link each repository.",
		},
		{
			Key:           "research",
			Title:         "Research Highlights",
			Kind:          SectionTopPapers,
			Limit:         20,
			AbstractLimit: 500,
			Fallback:      "<p>No notable research this week.</p>",
			Instruction:   "Pick the most notable papers below and explain each in two sentences for practitioners. Link every paper.",
		},
	}
}
