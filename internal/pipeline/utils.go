// =============================================================================
// utils.go - ユーティリティ関数
// =============================================================================
//
// このファイルはパッケージ全体で使用する汎用的なヘルパー関数を提供します。
//
// 【このファイルで提供する機能】
//   - 文字列操作: 空白正規化、rune単位の切り詰め、著者リストの整形
//   - HTML除去: bluemondayによるタグ除去とエンティティのデコード
//   - キーワード判定: 部分一致によるキーワードフィルタ
//   - JSON操作: ファイル・標準出力への書き出し
//
// =============================================================================
package pipeline

import (
	"encoding/json"
	"html"
	"io"
	"os"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// -----------------------------------------------------------------------------
// 文字列操作関数
// -----------------------------------------------------------------------------

// normalizeWhitespace は文字列内の連続する空白を単一スペースに正規化する
//
//	normalizeWhitespace("  hello \n  world  ")  // "hello world"
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// clipRunes は文字列を先頭からmaxRunes文字に切り詰める（省略記号は付けない）
//
// アブストラクトや要約は固定長で切るだけなので、truncateStringとは区別する。
func clipRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes])
}

// truncateString は文字列を指定した長さに切り詰め、末尾に"..."を付ける
//
//	truncateString("Hello World", 8)  // "Hello..."
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// maxDisplayedAuthors は表示する著者数の上限
const maxDisplayedAuthors = 4

// joinAuthors は先頭4名をカンマ区切りで連結し、total が4を超える場合 "..." を付ける
//
// total には切り詰め前の著者数を渡す（空名をスキップした後の数とは限らない）。
func joinAuthors(names []string, total int) string {
	shown := names
	if len(shown) > maxDisplayedAuthors {
		shown = shown[:maxDisplayedAuthors]
	}
	out := strings.Join(shown, ", ")
	if total > maxDisplayedAuthors {
		out += "..."
	}
	return out
}

// -----------------------------------------------------------------------------
// HTML除去
// -----------------------------------------------------------------------------

// stripPolicy は全タグを除去するポリシー（bluemondayのStrictPolicy）
var stripPolicy = bluemonday.StrictPolicy()

// stripHTML はHTMLタグを除去し、HTMLエンティティをデコードする
//
// bluemondayは出力をエスケープするため、最後にhtml.UnescapeStringで戻す。
func stripHTML(raw string) string {
	if raw == "" {
		return ""
	}
	text := stripPolicy.Sanitize(raw)
	text = html.UnescapeString(text)
	return strings.TrimSpace(text)
}

// -----------------------------------------------------------------------------
// キーワード判定
// -----------------------------------------------------------------------------

// matchesKeywords は title または text が keywords のいずれかを含むかチェック
func matchesKeywords(title, text string, keywords []string) bool {
	titleLower := strings.ToLower(title)
	textLower := strings.ToLower(text)
	for _, kw := range keywords {
		kwLower := strings.ToLower(kw)
		if strings.Contains(titleLower, kwLower) || strings.Contains(textLower, kwLower) {
			return true
		}
	}
	return false
}

// -----------------------------------------------------------------------------
// JSON操作関数
// -----------------------------------------------------------------------------

// WriteJSON は任意のデータを2スペースインデントのJSONとして書き出す
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteJSONFile は任意のデータをJSON形式でファイルに保存する
//
// 【ファイル権限】0o644 = 所有者は読み書き可、他は読み取りのみ
func WriteJSONFile(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
