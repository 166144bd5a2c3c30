package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"briefing-relay/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch every source and print the ranked digest",
	Long: `Fetch every source of the variant concurrently, then normalize, filter,
rank, deduplicate and group the results.

Failed sources are reported under "failures" in the output and never
abort the run. The exit code is non-zero only for configuration errors.

Examples:
  relay run --out digest.json
  relay run --variant ai --summarize
  relay run --notion                 # clip papers and posts to Notion`,
	RunE: runPipeline,
}

func init() {
	rootCmd.AddCommand(runCmd)

	f := runCmd.Flags()
	f.String("out", "", "output JSON file (default: stdout)")
	f.Bool("summarize", false, "compose newsletter sections with the configured LLM")
	f.Bool("notion", false, "clip ranked papers and posts to Notion")
	f.Int("concurrency", 4, "sources fetched at the same time (0 = unlimited)")
	f.Duration("timeout", 0, "per-source timeout (default from config)")
	f.String("mailto", "", "contact email sent to OpenAlex")
	f.Int("papers-window", pipeline.DefaultPaperWindowDays, "paper recency window in days")
	f.Int("posts-window", pipeline.DefaultPostWindowDays, "post recency window in days")
	f.Bool("scholar", false, "look up arXiv author citations on Semantic Scholar")
	f.Bool("pdf-fallback", false, "read missing arXiv abstracts from the PDF")
	f.String("push-url", "", "Prometheus pushgateway URL")

	bindFlags(f, map[string]string{
		"out":           "out",
		"summarize":     "summary.enabled",
		"concurrency":   "concurrency",
		"mailto":        "contactEmail",
		"papers-window": "windows.papers",
		"posts-window":  "windows.posts",
		"scholar":       "scholar.enabled",
		"pdf-fallback":  "pdf.fallback",
		"push-url":      "metrics.pushURL",
	})
}

func runPipeline(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if d, _ := cmd.Flags().GetDuration("timeout"); d > 0 {
		cfg.Timeout = d
	}
	// Notion はフラグで明示したときだけ
	if notion, _ := cmd.Flags().GetBool("notion"); !notion {
		cfg.Notion = pipeline.NotionConfig{}
	}

	runner, err := pipeline.NewRunner(ctx, cfg, logger)
	if err != nil {
		return err
	}

	res, err := runner.Run(ctx)
	if err != nil {
		logger.Warn("run interrupted", zap.Error(err))
	}
	if res == nil {
		return err
	}
	return writeResult(res, cfg.Out)
}

func writeResult(res *pipeline.RunResult, path string) error {
	var out any = res.Digest
	if res.Newsletter != nil || res.Clipped > 0 || res.ClipFailed > 0 {
		out = res
	}
	if path == "" {
		return pipeline.WriteJSON(os.Stdout, out)
	}
	if err := pipeline.WriteJSONFile(path, out); err != nil {
		return err
	}
	logger.Info("digest written", zap.String("path", path))
	return nil
}
