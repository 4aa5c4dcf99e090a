package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datalens-cli/internal/cli"
	"github.com/KaramelBytes/datalens-cli/internal/export"
	"github.com/KaramelBytes/datalens-cli/internal/typeinfer"
)

var (
	ppData   datasetFlags
	ppOutput string
)

var preprocessCmd = &cobra.Command{
	Use:   "preprocess <file>",
	Short: "Show inferred column types and optionally write a cleaned copy",
	Example: `  datalens preprocess survey.csv
  datalens preprocess survey.csv --require age=numeric --missing median -o clean.parquet`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		po, err := ppData.options()
		if err != nil {
			return err
		}
		po.Profile.Correlations = false
		po.Profile.SampleRows = 0
		res, err := runPipeline(args[0], po)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		rows := make([][]string, 0, res.Dataset.NumColumns())
		for _, c := range res.Dataset.Columns() {
			want := ""
			if t, ok := po.Required[c.Name]; ok {
				want = t.String()
			}
			rows = append(rows, []string{
				c.Name,
				c.Storage.String(),
				typeinfer.InferType(c).String(),
				want,
				strconv.Itoa(c.MissingCount()),
				strconv.Itoa(c.DistinctCount()),
			})
		}
		fmt.Fprintln(out, cli.Title(fmt.Sprintf("%s: %d rows x %d columns", res.Loaded.Name, res.Dataset.Rows(), res.Dataset.NumColumns())))
		fmt.Fprint(out, cli.Table([]string{"COLUMN", "STORAGE", "TYPE", "REQUIRED", "MISSING", "DISTINCT"}, rows))
		for _, w := range res.Report.Warnings {
			fmt.Fprintln(out, cli.Warning(w))
		}
		if res.Cleaning != nil {
			for _, l := range res.Cleaning.Lines() {
				fmt.Fprintln(out, cli.Subtle("  "+l))
			}
		}
		if ppOutput != "" {
			if err := export.Write(ppOutput, &export.Bundle{Report: res.Report, Cleaning: res.Cleaning, Dataset: res.Dataset}); err != nil {
				return err
			}
			fmt.Fprintln(out, cli.Success("Wrote "+ppOutput))
		}
		if len(res.GateErrors) > 0 {
			return fmt.Errorf("%d required column type(s) not satisfied", len(res.GateErrors))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(preprocessCmd)
	ppData.register(preprocessCmd.Flags())
	preprocessCmd.Flags().StringVarP(&ppOutput, "output", "o", "", "write the processed dataset (.csv|.parquet) or report (.md|.txt)")
}
