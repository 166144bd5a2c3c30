// =============================================================================
// fetch.go - HTTP取得の共通処理
// =============================================================================
//
// 全ソースが共有するHTTPクライアントと取得ヘルパーを提供します。
//
// 【提供する機能】
//   - FetchConfig:      User-Agent・タイムアウト・共有クライアント
//   - HostRateLimiter:  ホストごとのリクエスト間隔制御（arXivは3秒間隔を要求）
//   - Fetcher.Feed:     RSS/Atomフィードの取得とパース（gofeed）
//   - Fetcher.Doc:      HTMLの取得とパース（goquery）
//   - Fetcher.JSON/XML: APIレスポンスのデコード
//   - Fetcher.Bytes:    バイナリ（PDFなど）の取得
//
// 取得の失敗は全て ErrSourceUnavailable でラップして返す。
//
// =============================================================================
package pipeline

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"golang.org/x/time/rate"
)

// -----------------------------------------------------------------------------
// 設定
// -----------------------------------------------------------------------------

// FetchConfig は取得時の設定を保持
type FetchConfig struct {
	UserAgent string        // HTTPリクエスト時のUser-Agentヘッダー
	Timeout   time.Duration // HTTPリクエストのタイムアウト時間
	Client    *http.Client  // 共有HTTPクライアント（コネクションプーリング有効）
}

// DefaultUserAgent はUser-Agent未指定時の値
const DefaultUserAgent = "Mozilla/5.0 (compatible; briefing-relay/1.0)"

// DefaultFetchConfig はデフォルトの取得設定を返す
func DefaultFetchConfig() FetchConfig {
	timeout := 30 * time.Second // 一部のAPIは遅い
	return FetchConfig{
		UserAgent: DefaultUserAgent,
		Timeout:   timeout,
		Client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// -----------------------------------------------------------------------------
// ホスト単位のレート制限
// -----------------------------------------------------------------------------

// HostRateLimiter はホストごとにrate.Limiterを持つ
//
// 同じホストへの並行リクエストを一定間隔に揃える。未登録のホストは
// デフォルトの間隔（0なら無制限）を使う。
type HostRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	perHost  map[string]time.Duration
	fallback time.Duration
}

// NewHostRateLimiter は fallback 間隔のリミッターを作る
func NewHostRateLimiter(fallback time.Duration) *HostRateLimiter {
	return &HostRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		perHost:  make(map[string]time.Duration),
		fallback: fallback,
	}
}

// SetInterval は特定ホストのリクエスト間隔を設定する
func (h *HostRateLimiter) SetInterval(host string, every time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.perHost[host] = every
	delete(h.limiters, host)
}

// Wait は rawURL のホストが次のリクエストを送れるまでブロックする
func (h *HostRateLimiter) Wait(ctx context.Context, rawURL string) error {
	if h == nil {
		return nil
	}
	l := h.limiter(hostOf(rawURL))
	if l == nil {
		return nil
	}
	return l.Wait(ctx)
}

func (h *HostRateLimiter) limiter(host string) *rate.Limiter {
	h.mu.Lock()
	defer h.mu.Unlock()
	if l, ok := h.limiters[host]; ok {
		return l
	}
	every, ok := h.perHost[host]
	if !ok {
		every = h.fallback
	}
	if every <= 0 {
		return nil
	}
	l := rate.NewLimiter(rate.Every(every), 1)
	h.limiters[host] = l
	return l
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return u.Hostname()
}

// -----------------------------------------------------------------------------
// Fetcher
// -----------------------------------------------------------------------------

// Fetcher は全ソースで共有するHTTP取得ヘルパー
type Fetcher struct {
	cfg     FetchConfig
	limiter *HostRateLimiter
}

// NewFetcher は cfg の空欄をデフォルトで埋めてFetcherを作る
func NewFetcher(cfg FetchConfig, limiter *HostRateLimiter) *Fetcher {
	def := DefaultFetchConfig()
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.Client == nil {
		cfg.Client = def.Client
	}
	return &Fetcher{cfg: cfg, limiter: limiter}
}

// get はGETリクエストを送り、2xx以外をエラーにする（呼び出し側がBodyを閉じる）
func (f *Fetcher) get(ctx context.Context, u, accept string) (*http.Response, error) {
	if err := f.limiter.Wait(ctx, u); err != nil {
		return nil, fmt.Errorf("%w: rate limit wait for %s: %w", ErrSourceUnavailable, u, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: request creation failed: %w", ErrSourceUnavailable, err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := f.cfg.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %w", ErrSourceUnavailable, u, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: GET %s: status %s", ErrSourceUnavailable, u, resp.Status)
	}
	return resp, nil
}

// Feed はRSS/Atomフィードを取得してパースする
func (f *Fetcher) Feed(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	resp, err := f.get(ctx, feedURL, "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: RSS parse failed for %s: %w", ErrSourceUnavailable, feedURL, err)
	}
	return feed, nil
}

// Doc はHTMLを取得してgoqueryでパースする
func (f *Fetcher) Doc(ctx context.Context, pageURL string) (*goquery.Document, error) {
	resp, err := f.get(ctx, pageURL, "text/html,application/xhtml+xml")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: HTML parse failed for %s: %w", ErrSourceUnavailable, pageURL, err)
	}
	return doc, nil
}

// JSON はJSONレスポンスを v にデコードする
func (f *Fetcher) JSON(ctx context.Context, u string, v any) error {
	resp, err := f.get(ctx, u, "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: JSON decode failed for %s: %w", ErrSourceUnavailable, u, err)
	}
	return nil
}

// XML はXMLレスポンスを v にデコードする
func (f *Fetcher) XML(ctx context.Context, u string, v any) error {
	resp, err := f.get(ctx, u, "application/atom+xml, application/xml")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := xml.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: XML parse failed for %s: %w", ErrSourceUnavailable, u, err)
	}
	return nil
}

// Bytes はレスポンスボディを最大 maxBytes まで読み込む
func (f *Fetcher) Bytes(ctx context.Context, u string, maxBytes int64) ([]byte, error) {
	resp, err := f.get(ctx, u, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrSourceUnavailable, u, err)
	}
	return b, nil
}

// resolveURL は相対URLを絶対URLに変換（エラー時は空文字列）
func resolveURL(baseURL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(u).String()
}
