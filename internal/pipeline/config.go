// =============================================================================
// config.go - 設定
// =============================================================================
//
// 設定はviperで読み込む。優先順位（後ろほど強い）:
//   デフォルト値 → 設定ファイル(YAML) → 環境変数(RELAY_*) → CLIフラグ
//
// 【設定グループ】
//   - Log:        ログレベル・形式
//   - Windows:    公開日フィルタの日数
//   - Thresholds: 採用条件のしきい値
//   - Scholar:    Semantic Scholar照会
//   - PDF:        PDFフォールバック
//   - Summary:    要約サービス
//   - Notion:     Notionへの書き出し
//   - Metrics:    Pushgateway
//
// 環境変数はキーの "." を "_" にして RELAY_ を付ける（例: RELAY_LOG_LEVEL）。
//
// =============================================================================
package pipeline

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// =============================================================================
// 設定構造体
// =============================================================================

// Config は実行の全設定を保持する
type Config struct {
	Variant      string        `mapstructure:"variant"`
	UserAgent    string        `mapstructure:"userAgent"`
	ContactEmail string        `mapstructure:"contactEmail"`
	Timeout      time.Duration `mapstructure:"timeout"`
	Concurrency  int           `mapstructure:"concurrency"`
	Out          string        `mapstructure:"out"`

	Log        LogConfig       `mapstructure:"log"`
	Windows    WindowConfig    `mapstructure:"windows"`
	Thresholds ThresholdConfig `mapstructure:"thresholds"`
	Scholar    ScholarConfig   `mapstructure:"scholar"`
	PDF        PDFConfig       `mapstructure:"pdf"`
	Summary    SummaryOptions  `mapstructure:"summary"`
	Notion     NotionConfig    `mapstructure:"notion"`
	Metrics    MetricsConfig   `mapstructure:"metrics"`
}

// LogConfig はログ出力の設定
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" | "console"
}

// WindowConfig は公開日フィルタの日数
type WindowConfig struct {
	Papers int `mapstructure:"papers"`
	Posts  int `mapstructure:"posts"`
}

// ThresholdConfig は評判ティアの採用条件（0でその条件を無効にする）
type ThresholdConfig struct {
	MinAuthorCitations int     `mapstructure:"minAuthorCitations"`
	MinRelevance       float64 `mapstructure:"minRelevance"`
}

// ScholarConfig はSemantic Scholar照会の設定（ai種別のarXivに適用）
type ScholarConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	MinAuthorCitations int           `mapstructure:"minAuthorCitations"` // 0 = 足切りなし
	CacheSize          int           `mapstructure:"cacheSize"`
	Timeout            time.Duration `mapstructure:"timeout"` // 照会ありのarXiv全体のタイムアウト
}

// PDFConfig はPDFフォールバックの設定
type PDFConfig struct {
	Fallback bool `mapstructure:"fallback"`
	MaxPages int  `mapstructure:"maxPages"`
}

// SummaryOptions は要約サービスの設定
type SummaryOptions struct {
	Enabled   bool   `mapstructure:"enabled"`
	Model     string `mapstructure:"model"`
	APIKeyEnv string `mapstructure:"apiKeyEnv"`
	BaseURL   string `mapstructure:"baseURL"`
}

// NotionConfig はNotion書き出しの設定（Tokenが空なら無効）
type NotionConfig struct {
	Token      string `mapstructure:"token"`
	DatabaseID string `mapstructure:"databaseID"`
	PageID     string `mapstructure:"pageID"`
}

// MetricsConfig はPushgatewayの設定（PushURLが空なら無効）
type MetricsConfig struct {
	PushURL string `mapstructure:"pushURL"`
	Job     string `mapstructure:"job"`
}

// Enabled はNotion書き出しが有効かどうか
func (c NotionConfig) Enabled() bool { return c.Token != "" }

// =============================================================================
// 読み込み
// =============================================================================

// NewViper はデフォルト値と環境変数の対応を設定したviperを返す
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix("RELAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// SetDefaults は全キーのデフォルト値を設定する
//
// AutomaticEnv はviperが知っているキーしか環境変数から拾わないため、
// 全キーにデフォルトを置いておく。
func SetDefaults(v *viper.Viper) {
	v.SetDefault("variant", "econ")
	v.SetDefault("userAgent", DefaultUserAgent)
	v.SetDefault("contactEmail", "")
	v.SetDefault("timeout", 30*time.Second)
	v.SetDefault("concurrency", 4)
	v.SetDefault("out", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("windows.papers", DefaultPaperWindowDays)
	v.SetDefault("windows.posts", DefaultPostWindowDays)

	v.SetDefault("thresholds.minAuthorCitations", MinAuthorCitations)
	v.SetDefault("thresholds.minRelevance", MinEconomicsRelevance)

	v.SetDefault("scholar.enabled", false)
	v.SetDefault("scholar.minAuthorCitations", 0)
	v.SetDefault("scholar.cacheSize", 1024)
	v.SetDefault("scholar.timeout", 10*time.Minute)

	v.SetDefault("pdf.fallback", false)
	v.SetDefault("pdf.maxPages", 2)

	v.SetDefault("summary.enabled", false)
	v.SetDefault("summary.model", "gpt-4o-mini")
	v.SetDefault("summary.apiKeyEnv", "OPENAI_API_KEY")
	v.SetDefault("summary.baseURL", "")

	v.SetDefault("notion.token", "")
	v.SetDefault("notion.databaseID", "")
	v.SetDefault("notion.pageID", "")

	v.SetDefault("metrics.pushURL", "")
	v.SetDefault("metrics.job", "briefing_relay")
}

// LoadConfig は path（空なら読まない）の設定ファイルを読み、Configに展開する
func LoadConfig(v *viper.Viper, path string) (Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate は設定値の整合性を検査する
func (c Config) Validate() error {
	var errs []error
	if _, ok := variantBuilders[c.Variant]; !ok {
		errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownVariant, c.Variant))
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %s", c.Timeout))
	}
	if c.Concurrency < 0 {
		errs = append(errs, fmt.Errorf("concurrency must not be negative, got %d", c.Concurrency))
	}
	if c.Thresholds.MinAuthorCitations < 0 {
		errs = append(errs, fmt.Errorf("thresholds.minAuthorCitations must not be negative, got %d", c.Thresholds.MinAuthorCitations))
	}
	if c.Scholar.Timeout < 0 {
		errs = append(errs, fmt.Errorf("scholar.timeout must not be negative, got %s", c.Scholar.Timeout))
	}
	if c.Thresholds.MinRelevance < 0 || c.Thresholds.MinRelevance > 1 {
		errs = append(errs, fmt.Errorf("thresholds.minRelevance must be within [0,1], got %g", c.Thresholds.MinRelevance))
	}
	if c.Notion.Enabled() && c.Notion.DatabaseID == "" && c.Notion.PageID == "" {
		errs = append(errs, errors.New("notion.databaseID or notion.pageID is required when notion.token is set"))
	}
	return errors.Join(errs...)
}
