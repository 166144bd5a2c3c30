// =============================================================================
// Lambda: collect-briefing
// =============================================================================
//
// 設定された種別の全ソースを収集・ランキングし、Notion DBに保存するLambda関数
//
// 環境変数（すべて RELAY_ 接頭辞、キーの "." は "_"）:
//   - RELAY_VARIANT:             econ | ai (デフォルト: econ)
//   - RELAY_CONTACTEMAIL:        OpenAlexに送る連絡先 (任意)
//   - RELAY_NOTION_TOKEN:        Notion API Token (任意、空ならNotion保存なし)
//   - RELAY_NOTION_DATABASEID:   NotionデータベースID
//   - RELAY_NOTION_PAGEID:       DB未指定時に新規作成する親ページID
//   - RELAY_METRICS_PUSHURL:     Pushgateway URL (任意)
//   - RELAY_SUMMARY_ENABLED:     true でセクション要約も行う
//   - RELAY_CONFIG_FILE:         YAML設定ファイル (任意)
//
// =============================================================================
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"briefing-relay/internal/pipeline"
)

// Response はLambdaレスポンス
type Response struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	RunID      string `json:"runId,omitempty"`
	Papers     int    `json:"papers"`
	Posts      int    `json:"posts"`
	Tools      int    `json:"tools"`
	Failed     int    `json:"failedSources"`
	Clipped    int    `json:"clipped"`
	Sections   int    `json:"sections,omitempty"`
}

// Handler はLambdaのメインハンドラー
func Handler(ctx context.Context, event any) (Response, error) {
	cfg, err := loadConfig()
	if err != nil {
		return Response{StatusCode: 400, Message: err.Error()}, err
	}

	logger, err := pipeline.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return Response{StatusCode: 400, Message: err.Error()}, err
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.Named("lambda")
	logger.Info("starting collect-briefing", zap.String("variant", cfg.Variant))

	runner, err := pipeline.NewRunner(ctx, cfg, logger)
	if err != nil {
		logger.Error("runner setup failed", zap.Error(err))
		return Response{StatusCode: 500, Message: err.Error()}, err
	}

	res, err := runner.Run(ctx)
	if err != nil {
		logger.Error("run interrupted", zap.Error(err))
		return Response{StatusCode: 500, Message: err.Error()}, err
	}

	return buildResponse(res), nil
}

// loadConfig は環境変数（と任意の設定ファイル）から設定を読み込む
func loadConfig() (pipeline.Config, error) {
	// ローカル実行用。Lambda上では .env は存在しない
	_ = godotenv.Load()
	return pipeline.LoadConfig(pipeline.NewViper(), os.Getenv("RELAY_CONFIG_FILE"))
}

func buildResponse(res *pipeline.RunResult) Response {
	d := res.Digest
	resp := Response{
		StatusCode: 200,
		RunID:      d.RunID,
		Papers:     len(d.Papers),
		Posts:      len(d.Posts),
		Tools:      len(d.Tools),
		Failed:     len(d.Failures),
		Clipped:    res.Clipped,
	}
	if res.Newsletter != nil {
		resp.Sections = len(res.Newsletter.Sections)
	}
	resp.Message = fmt.Sprintf("collected %d papers, %d posts, %d tools (%d source(s) failed), clipped %d to Notion",
		resp.Papers, resp.Posts, resp.Tools, resp.Failed, resp.Clipped)
	return resp
}

func main() {
	lambda.Start(Handler)
}
