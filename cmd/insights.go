package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datalens-cli/internal/cli"
	"github.com/KaramelBytes/datalens-cli/internal/insights"
	"github.com/KaramelBytes/datalens-cli/internal/utils"
)

var (
	insData      datasetFlags
	insProfile   profileFlags
	insAI        insightFlags
	insDryRun    bool
	insNoHistory bool
)

var insightsCmd = &cobra.Command{
	Use:   "insights <file>",
	Short: "Ask an LLM for insights about a dataset",
	Example: `  datalens insights sales.csv
  datalens insights sales.csv --question "Which region is declining?" --provider openrouter --model openai/gpt-4o-mini
  datalens insights sales.csv --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		po, err := insData.options()
		if err != nil {
			return err
		}
		insProfile.apply(&po.Profile)
		res, err := runPipeline(args[0], po)
		if err != nil {
			return err
		}
		md := res.Report.Markdown()
		out := cmd.OutOrStdout()
		if insDryRun {
			budget := insAI.budget
			if budget <= 0 && cfg != nil {
				budget = cfg.InsightTokenBudget
			}
			msgs, truncated := insights.BuildMessages(insights.Request{Context: md, Question: insAI.question, Budget: budget})
			tokens := 0
			for _, m := range msgs {
				tokens += utils.CountTokens(m.Content)
			}
			fmt.Fprintln(out, cli.Subtle(fmt.Sprintf("--dry-run: no API call will be made (≈%d prompt tokens, truncated=%v)", tokens, truncated)))
			for _, m := range msgs {
				fmt.Fprintf(out, "[%s]\n%s\n\n", m.Role, m.Content)
			}
			return nil
		}
		in, err := generateInsights(md, &insAI, out)
		if err != nil {
			return err
		}
		if !insAI.stream {
			fmt.Fprintln(out, in.Markdown())
		}
		if in.Truncated {
			fmt.Fprintln(cmd.ErrOrStderr(), cli.Warning("report was truncated to fit the token budget"))
		}
		if !insNoHistory {
			recordRun(args[0], res, md, in)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(insightsCmd)
	fs := insightsCmd.Flags()
	insData.register(fs)
	insProfile.register(fs)
	insAI.register(fs)
	fs.BoolVar(&insDryRun, "dry-run", false, "print the prompt without calling the model")
	fs.BoolVar(&insNoHistory, "no-history", false, "do not record this run in the history database")
}
