package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datalens-cli/internal/cli"
	"github.com/KaramelBytes/datalens-cli/internal/conversations"
	"github.com/KaramelBytes/datalens-cli/internal/utils"
)

var convOutput string

var conversationsCmd = &cobra.Command{
	Use:   "conversations",
	Short: "Browse a chat export (conversations.json)",
}

var conversationsListCmd = &cobra.Command{
	Use:   "list <file>",
	Short: "List conversations in an export",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		convs, err := conversations.LoadFile(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(convs) == 0 {
			fmt.Fprintln(out, cli.Warning("No conversations found"))
			return nil
		}
		rows := make([][]string, 0, len(convs))
		for i, c := range convs {
			rows = append(rows, []string{
				strconv.Itoa(i + 1),
				c.DisplayName(),
				strconv.Itoa(len(c.Messages)),
				conversations.FormatTime(c.CreatedAt),
			})
		}
		fmt.Fprintln(out, cli.Table([]string{"#", "NAME", "MESSAGES", "CREATED"}, rows))
		return nil
	},
}

var conversationsShowCmd = &cobra.Command{
	Use:   "show <file> <name|number|uuid-prefix>",
	Short: "Print one conversation as a transcript",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		convs, err := conversations.LoadFile(args[0])
		if err != nil {
			return err
		}
		c, err := conversations.Find(convs, args[1])
		if err != nil {
			return err
		}
		md := c.Markdown()
		if convOutput == "" {
			fmt.Fprint(cmd.OutOrStdout(), md)
			return nil
		}
		if err := utils.SafeWriteFile(convOutput, []byte(md)); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), cli.Success(fmt.Sprintf("Wrote %d messages to %s", len(c.Messages), convOutput)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(conversationsCmd)
	conversationsCmd.AddCommand(conversationsListCmd)
	conversationsCmd.AddCommand(conversationsShowCmd)
	conversationsShowCmd.Flags().StringVarP(&convOutput, "output", "o", "", "write the transcript to this path")
}
