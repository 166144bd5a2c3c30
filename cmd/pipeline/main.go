// =============================================================================
// main.go - Briefing Relay パイプラインのエントリーポイント
// =============================================================================
//
// 研究ニュースレター（econ / ai）の素材を集めて、ランキング済みの
// ダイジェストをJSONで出力するCLIツールです。
//
// =============================================================================
// 【サブコマンド】
// =============================================================================
//
//   relay run      全ソースを取得し、ダイジェスト（と要約）をJSONで出力
//   relay sources  種別のソース構成（マージ優先順）を表示
//
// =============================================================================
// 【処理フロー】
// =============================================================================
//
//   ┌─────────────┐    ┌─────────────┐    ┌─────────────┐
//   │  1. 設定    │ -> │  2. 収集    │ -> │  3. 整形    │
//   │  読み込み   │    │  並行取得   │    │  正規化     │
//   └─────────────┘    └─────────────┘    └─────────────┘
//          │                  │                  │
//          v                  v                  v
//   .env / YAML /       RSS・API・HTML     分類・期間フィルタ
//   環境変数 / フラグ   を宣言順に収集     採用条件・スコア
//
//   ┌─────────────┐    ┌─────────────┐    ┌─────────────┐
//   │  4. 集約    │ -> │  5. 要約    │ -> │  6. 出力    │
//   │  重複除去   │    │  LLM（任意）│    │  JSON/Notion│
//   └─────────────┘    └─────────────┘    └─────────────┘
//
// =============================================================================
// 【設定の優先順位】
// =============================================================================
//
//   デフォルト < --config のYAML < RELAY_* 環境変数 < CLIフラグ
//
//   例: RELAY_VARIANT=ai relay run --out digest.json
//
// =============================================================================
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv" // .env ファイル読み込み
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"briefing-relay/internal/pipeline"
)

var (
	cfgFile string
	v       = pipeline.NewViper()
	cfg     pipeline.Config
	logger  = zap.NewNop()
)

// rootCmd はサブコマンドなしで呼ばれたときのコマンド
var rootCmd = &cobra.Command{
	Use:   "relay",
	Short: "Collect, rank and group research briefing material",
	Long: `relay collects papers, posts and trending tools for a research newsletter,
ranks and groups them, and prints the digest as JSON.

Example usage:
  relay run                          # econ digest to stdout
  relay run --variant ai --out ai.json
  relay run --summarize              # also compose newsletter sections
  relay sources --variant ai         # show the source plan`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "YAML config file")
	pf.String("variant", "econ", fmt.Sprintf("newsletter variant %v", pipeline.VariantNames()))
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.String("log-format", "json", "log format (json, console)")

	bindFlags(pf, map[string]string{
		"variant":    "variant",
		"log-level":  "log.level",
		"log-format": "log.format",
	})
}

// bindFlags はフラグ名 → 設定キーの対応でviperに紐付ける
func bindFlags(fs *pflag.FlagSet, keys map[string]string) {
	for flagName, key := range keys {
		if err := v.BindPFlag(key, fs.Lookup(flagName)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", flagName, err))
		}
	}
}

// initConfig は .env、設定ファイル、環境変数、フラグを順に反映する
func initConfig() error {
	// .env が無くても続行する
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "WARN: .env file not loaded: %v\n", err)
	}

	var err error
	cfg, err = pipeline.LoadConfig(v, cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err = pipeline.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	logger.Debug("configuration loaded",
		zap.String("variant", cfg.Variant),
		zap.String("config_file", cfgFile),
		zap.Bool("summary", cfg.Summary.Enabled),
		zap.Bool("notion", cfg.Notion.Enabled()))
	return nil
}

func main() {
	err := rootCmd.Execute()
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}
