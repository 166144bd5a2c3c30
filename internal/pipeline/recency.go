// =============================================================================
// recency.go - 公開日によるフィルタ
// =============================================================================
//
// ソースごとに日付形式がばらばら（RFC 1123, RFC 3339, "2006-01-02" など）なので、
// 複数の形式を順に試し、最後にdateparseで緩くパースする。
//
// 【注意】
//   - タイムゾーンは無視し、壁時計の値どうしで比較する
//   - パースできない日付（空文字列を含む）は「新しい」とみなして残す
//
// =============================================================================
package pipeline

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

const (
	// DefaultPostWindowDays はブログ・ニュース・プレプリントの対象期間
	DefaultPostWindowDays = 7
	// DefaultPaperWindowDays はジャーナル論文・ワーキングペーパーの対象期間
	DefaultPaperWindowDays = 28
)

// feedDateLayouts はフィードでよく見る形式（先に一致したものを採用）
var feedDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	time.RFC822Z,
	time.RFC822,
	time.RFC850,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
}

// RecencyFilter は公開日が対象期間内かどうかを判定する
//
// Now はテストで差し替えられるように関数として持つ（nilならtime.Now）。
type RecencyFilter struct {
	Now func() time.Time
}

// IsRecent は date が現在からwindowDays日以内なら true を返す
//
// windowDays <= 0 の場合はフィルタしない。パースできない日付は true。
func (f RecencyFilter) IsRecent(date string, windowDays int) bool {
	if windowDays <= 0 {
		return true
	}
	pub, ok := parseLooseDate(date)
	if !ok {
		return true
	}
	now := time.Now()
	if f.Now != nil {
		now = f.Now()
	}
	cutoff := wallClock(now).AddDate(0, 0, -windowDays)
	return !wallClock(pub).Before(cutoff)
}

// parseLooseDate は複数の形式でパースを試みる
func parseLooseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range feedDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// wallClock はタイムゾーン情報を捨て、同じ年月日時分秒をUTCとして扱う
func wallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}
