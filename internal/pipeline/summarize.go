// =============================================================================
// summarize.go - 要約サービスとの境界
// =============================================================================
//
// 要約そのものは外部のLLMに任せる。ここで行うのは：
//   - セクションごとに上位N件へ切り詰めてプロンプトを組み立てる
//   - 要約の失敗・空応答を固定のフォールバック文に置き換える
//   - 応答からMarkdownのコードフェンスと先頭の見出しを取り除く
//
// =============================================================================
package pipeline

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"
)

// -----------------------------------------------------------------------------
// セクション定義
// -----------------------------------------------------------------------------

// SectionKind はセクションが何を要約するか
type SectionKind int

const (
	SectionTopPapers SectionKind = iota // ランキング上位の論文全体
	SectionCategory                     // 1カテゴリの論文
	SectionPosts                        // ブログ・ニュース
	SectionTools                        // トレンドツール
)

// SectionSpec はニュースレターの1セクション
type SectionSpec struct {
	Key           string
	Title         string
	Kind          SectionKind
	Category      string // SectionCategory のときのみ
	Limit         int    // 要約に渡す上位件数
	AbstractLimit int    // プロンプトに入れるアブストラクトの文字数
	Fallback      string // 要約できないときの固定文
	Instruction   string
}

// Section は組み立て済みのセクション
type Section struct {
	Key      string `json:"key"`
	Title    string `json:"title"`
	Body     string `json:"body"`
	Items    int    `json:"items"`
	Fallback bool   `json:"fallback,omitempty"`
}

// Newsletter は要約済みの全セクション
type Newsletter struct {
	Variant     string    `json:"variant"`
	Title       string    `json:"title"`
	RunID       string    `json:"runId"`
	GeneratedAt time.Time `json:"generatedAt"`
	Sections    []Section `json:"sections"`
}

// -----------------------------------------------------------------------------
// Summarizer
// -----------------------------------------------------------------------------

// Prompt は要約サービスに渡すメッセージ
type Prompt struct {
	System string
	User   string
}

// Summarizer はテキスト生成サービス
type Summarizer interface {
	Summarize(ctx context.Context, p Prompt) (string, error)
}

// SummaryConfig はLLMクライアントの設定
type SummaryConfig struct {
	Model     string
	APIKey    string
	APIKeyEnv string // APIKey が空のときに読む環境変数
	BaseURL   string
}

// EinoSummarizer は eino の ChatModel で要約する
type EinoSummarizer struct {
	model model.BaseChatModel
}

// NewEinoSummarizer は OpenAI 互換のチャットモデルを作る
func NewEinoSummarizer(ctx context.Context, cfg SummaryConfig) (*EinoSummarizer, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" && cfg.APIKeyEnv != "" {
		apiKey = os.Getenv(cfg.APIKeyEnv)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: API key is required (summary.apiKey or summary.apiKeyEnv)", ErrSummarizerUnavailable)
	}

	mc := &openai.ChatModelConfig{
		Model:  cfg.Model,
		APIKey: apiKey,
	}
	if cfg.BaseURL != "" {
		mc.BaseURL = cfg.BaseURL
	}
	cm, err := openai.NewChatModel(ctx, mc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSummarizerUnavailable, err)
	}
	return &EinoSummarizer{model: cm}, nil
}

// NewEinoSummarizerWithModel wraps an existing chat model.
func NewEinoSummarizerWithModel(m model.BaseChatModel) *EinoSummarizer {
	return &EinoSummarizer{model: m}
}

// Summarize sends one system + user exchange.
func (s *EinoSummarizer) Summarize(ctx context.Context, p Prompt) (string, error) {
	msgs := []*schema.Message{}
	if p.System != "" {
		msgs = append(msgs, schema.SystemMessage(p.System))
	}
	msgs = append(msgs, schema.UserMessage(p.User))

	resp, err := s.model.Generate(ctx, msgs)
	if err != nil {
		return "", fmt.Errorf("LLM generate: %w", err)
	}
	if resp == nil {
		return "", fmt.Errorf("LLM generate: empty response")
	}
	return resp.Content, nil
}

// -----------------------------------------------------------------------------
// Composer
// -----------------------------------------------------------------------------

const composerSystemPrompt = "You write sections of a weekly research newsletter. " +
	"Respond with an HTML fragment only: no markdown, no code fences, no page headers."

// Composer はダイジェストからニュースレターのセクションを作る
type Composer struct {
	summarizer Summarizer
	logger     *zap.Logger
}

// NewComposer は Composer を作る。summarizer が nil の場合は全セクションがフォールバックになる。
func NewComposer(s Summarizer, logger *zap.Logger) *Composer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Composer{summarizer: s, logger: logger.Named("composer")}
}

// Compose は種別のセクション定義に従って全セクションを組み立てる
func (c *Composer) Compose(ctx context.Context, d *Digest, v Variant) *Newsletter {
	nl := &Newsletter{
		Variant:     d.Variant,
		Title:       v.Title,
		RunID:       d.RunID,
		GeneratedAt: d.GeneratedAt,
	}
	for _, spec := range v.Sections {
		nl.Sections = append(nl.Sections, c.composeSection(ctx, d, spec))
	}
	return nl
}

func (c *Composer) composeSection(ctx context.Context, d *Digest, spec SectionSpec) Section {
	sec := Section{Key: spec.Key, Title: spec.Title}

	prompt, n := buildSectionPrompt(d, spec)
	sec.Items = n
	if n == 0 || c.summarizer == nil {
		sec.Body, sec.Fallback = spec.Fallback, true
		return sec
	}

	out, err := c.summarizer.Summarize(ctx, prompt)
	if err != nil {
		c.logger.Warn("section summary failed, using fallback",
			zap.String("section", spec.Key), zap.Error(err))
		sec.Body, sec.Fallback = spec.Fallback, true
		return sec
	}
	out = stripMarkdownFences(out)
	if out == "" {
		c.logger.Warn("section summary empty, using fallback", zap.String("section", spec.Key))
		sec.Body, sec.Fallback = spec.Fallback, true
		return sec
	}
	sec.Body = out
	return sec
}

// buildSectionPrompt は上位 Limit 件でプロンプトを作り、件数を返す
func buildSectionPrompt(d *Digest, spec SectionSpec) (Prompt, int) {
	var b strings.Builder
	b.WriteString(spec.Instruction)
	b.WriteString("\n\n")

	n := 0
	switch spec.Kind {
	case SectionTools:
		tools := topN(d.Tools, spec.Limit)
		for i, t := range tools {
			fmt.Fprintf(&b, "%d. %s (%s, %d stars, %s)\n   %s\n   %s\n\n",
				i+1, t.Name, t.Language, t.Stars, t.StarsGained, t.Description, t.URL)
		}
		n = len(tools)
	default:
		items := topN(sectionItems(d, spec), spec.Limit)
		for i, it := range items {
			fmt.Fprintf(&b, "%d. %s\n   Source: %s\n", i+1, it.Title, it.Source)
			if it.Authors != "" {
				fmt.Fprintf(&b, "   Authors: %s\n", it.Authors)
			}
			if it.Abstract != "" {
				fmt.Fprintf(&b, "   Abstract: %s\n", clipRunes(it.Abstract, spec.AbstractLimit))
			}
			fmt.Fprintf(&b, "   URL: %s\n\n", it.URL)
		}
		n = len(items)
	}
	return Prompt{System: composerSystemPrompt, User: b.String()}, n
}

func sectionItems(d *Digest, spec SectionSpec) []Item {
	switch spec.Kind {
	case SectionTopPapers:
		return d.Papers
	case SectionCategory:
		return d.ByCategory[spec.Category]
	case SectionPosts:
		return d.Posts
	default:
		return nil
	}
}

func topN[T any](in []T, n int) []T {
	if n > 0 && len(in) > n {
		return in[:n]
	}
	return in
}

var (
	reLeadingFence  = regexp.MustCompile("^```(?:html)?\\s*\\n?")
	reTrailingFence = regexp.MustCompile("\\n?```\\s*$")
	reLeadingHeader = regexp.MustCompile(`^#{1,3}\s+[^\n]+\n*`)
)

// stripMarkdownFences removes a wrapping ``` / ```html fence and one leading
// markdown header.
func stripMarkdownFences(text string) string {
	text = reLeadingFence.ReplaceAllString(strings.TrimSpace(text), "")
	text = reTrailingFence.ReplaceAllString(strings.TrimSpace(text), "")
	text = reLeadingHeader.ReplaceAllString(strings.TrimSpace(text), "")
	return strings.TrimSpace(text)
}
