package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datalens-cli/internal/cli"
	"github.com/KaramelBytes/datalens-cli/internal/jsoninspect"
	"github.com/KaramelBytes/datalens-cli/internal/utils"
)

var ijOutput string

var inspectJSONCmd = &cobra.Command{
	Use:   "inspect-json <file>",
	Short: "Summarize the structure of a JSON export (e.g. a chat conversations dump)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := jsoninspect.AnalyzeFile(args[0])
		if err != nil {
			return err
		}
		md := a.Markdown()
		if ijOutput == "" {
			fmt.Fprint(cmd.OutOrStdout(), md)
			return nil
		}
		if err := utils.SafeWriteFile(ijOutput, []byte(md)); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), cli.Success("Wrote structure analysis to "+ijOutput))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectJSONCmd)
	inspectJSONCmd.Flags().StringVarP(&ijOutput, "output", "o", "", "write the Markdown analysis to this path")
}
