package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"briefing-relay/internal/pipeline"
)

var sourcesCmd = &cobra.Command{
	Use:     "sources",
	Aliases: []string{"ls"},
	Short:   "Show the source plan of a variant",
	Long: `List the sources of a variant in merge order, with the role, recency
window and inclusion thresholds applied to each one.

Examples:
  relay sources
  relay sources --variant ai
  relay sources --json`,
	RunE: runSources,
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
	sourcesCmd.Flags().Bool("json", false, "output as JSON")
}

type sourcePlan struct {
	Name               string  `json:"name"`
	Role               string  `json:"role"`
	WindowDays         int     `json:"windowDays"`
	MinAuthorCitations int     `json:"minAuthorCitations,omitempty"`
	MinRelevance       float64 `json:"minRelevance,omitempty"`
}

func runSources(cmd *cobra.Command, args []string) error {
	opts, err := cfg.VariantOptions(logger)
	if err != nil {
		return err
	}
	variant, err := pipeline.BuildVariant(cfg.Variant, opts)
	if err != nil {
		return err
	}
	plan := buildSourcePlan(variant)

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return pipeline.WriteJSON(os.Stdout, plan)
	}
	return printSourcePlan(os.Stdout, variant.Title, plan)
}

func buildSourcePlan(v pipeline.Variant) []sourcePlan {
	plan := make([]sourcePlan, 0, len(v.Sources))
	for _, e := range v.Sources {
		plan = append(plan, sourcePlan{
			Name:               e.Source.Name(),
			Role:               e.Role.String(),
			WindowDays:         e.WindowDays,
			MinAuthorCitations: e.Gate.MinAuthorCitations,
			MinRelevance:       e.Gate.MinRelevance,
		})
	}
	return plan
}

func printSourcePlan(w io.Writer, title string, plan []sourcePlan) error {
	fmt.Fprintf(w, "%s\n\n", title)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tSOURCE\tROLE\tWINDOW\tGATE")
	for i, p := range plan {
		window := "-"
		if p.WindowDays > 0 {
			window = fmt.Sprintf("%dd", p.WindowDays)
		}
		gate := "-"
		switch {
		case p.MinAuthorCitations > 0 && p.MinRelevance > 0:
			gate = fmt.Sprintf("author>=%d, relevance>=%g", p.MinAuthorCitations, p.MinRelevance)
		case p.MinAuthorCitations > 0:
			gate = fmt.Sprintf("author>=%d", p.MinAuthorCitations)
		case p.MinRelevance > 0:
			gate = fmt.Sprintf("relevance>=%g", p.MinRelevance)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i+1, p.Name, p.Role, window, gate)
	}
	return tw.Flush()
}
