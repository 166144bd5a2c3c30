// =============================================================================
// types.go - データ構造定義
// =============================================================================
//
// このファイルはbriefing-relay全体で使用するデータ構造（型）を定義します。
//
// 【このファイルで定義している型】
//   - Item:          論文・ブログ記事の正規化済み候補
//   - ToolItem:      GitHub Trendingなどから取得したツール候補
//   - Role:          ソースが供給する候補の種類（論文 / 記事 / ツール）
//   - Digest:        1回の実行結果（ランキング済み・カテゴリ別）
//   - SourceFailure: 失敗したソースの記録
//
// =============================================================================
package pipeline

import (
	"errors"
	"time"
)

// -----------------------------------------------------------------------------
// エラー種別
// -----------------------------------------------------------------------------

var (
	// ErrSourceUnavailable はネットワーク障害・HTTPエラー・タイムアウト・パース失敗
	// などでソース全体が取得できなかったことを表す。Collectorが回収し、実行は継続する。
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrMalformedRecord は個々のレコードが必須項目（タイトル等）を欠いていることを表す。
	// そのレコードだけがスキップされる。
	ErrMalformedRecord = errors.New("malformed record")

	// ErrUnknownVariant は未定義のニュースレター種別が指定されたことを表す。
	ErrUnknownVariant = errors.New("unknown variant")

	// ErrSummarizerUnavailable は要約サービスが利用できないことを表す。
	ErrSummarizerUnavailable = errors.New("summarizer unavailable")
)

// -----------------------------------------------------------------------------
// Item - 正規化済みの候補アイテム
// -----------------------------------------------------------------------------
//
// 論文・ブログ記事はソースごとにスキーマが異なるため、Normalizerがこの形に揃える。
//
// 【フィールドの説明】
//   Title:     必須。重複判定キーは小文字化＋前後空白除去したタイトル
//   Authors:   先頭4名をカンマ区切り、それ以上は "..." を付加
//   Abstract:  論文は1000文字、記事は500文字まで
//   Source:    出所ラベル（例: "arXiv cs.LG", "NBER Working Paper"）
//   Category:  分類器が付与するカテゴリ（未マッチ時はフォールバック）
//   Published: ソースが返した日付文字列そのまま（空の場合あり）
//   Score:     並び替え専用の整数スコア
type Item struct {
	Title     string `json:"title"`
	Authors   string `json:"authors,omitempty"`
	Abstract  string `json:"abstract,omitempty"`
	URL       string `json:"url"`
	Source    string `json:"source"`
	Category  string `json:"category"`
	Published string `json:"published,omitempty"`
	Score     int    `json:"score"`
}

// ToolItem はトレンドツール（GitHubリポジトリ）の候補
type ToolItem struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url"`
	Stars       int    `json:"stars"`
	Language    string `json:"language,omitempty"`
	StarsGained string `json:"starsGained,omitempty"`
}

// Role はソースが供給する候補の種類
type Role int

const (
	RolePapers Role = iota // 論文（ランキング・カテゴリ分けの対象）
	RolePosts              // ブログ・ニュース記事
	RoleTools              // トレンドツール
)

func (r Role) String() string {
	switch r {
	case RolePapers:
		return "papers"
	case RolePosts:
		return "posts"
	case RoleTools:
		return "tools"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Digest - 1回の実行結果
// -----------------------------------------------------------------------------
//
// 実行ごとに生成され、実行をまたいで状態は持ち越さない。
type Digest struct {
	Variant     string            `json:"variant"`
	RunID       string            `json:"runId"`
	GeneratedAt time.Time         `json:"generatedAt"`
	Papers      []Item            `json:"papers"`
	Categories  []string          `json:"categories"`
	ByCategory  map[string][]Item `json:"byCategory"`
	Posts       []Item            `json:"posts"`
	Tools       []ToolItem        `json:"tools"`
	Failures    []SourceFailure   `json:"failures,omitempty"`
	Stats       RunStats          `json:"stats"`
}

// SourceFailure は取得に失敗したソースの記録
type SourceFailure struct {
	Source string `json:"source"`
	Error  string `json:"error"`
}

// RunStats は各段階で落とされた件数
type RunStats struct {
	Fetched   int `json:"fetched"`
	Malformed int `json:"malformed"`
	Stale     int `json:"stale"`
	Gated     int `json:"gated"`
	Duplicate int `json:"duplicate"`

	// Unverified counts items admitted although their author citations
	// could not be looked up.
	Unverified int `json:"unverified"`
}
