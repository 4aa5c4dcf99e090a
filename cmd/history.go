package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datalens-cli/internal/cli"
	"github.com/KaramelBytes/datalens-cli/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse previously recorded analysis runs",
}

func openHistory(ctx context.Context) (*history.Store, error) {
	if cfg == nil || cfg.HistoryDB == "" {
		return nil, fmt.Errorf("history database is not configured (set history_db)")
	}
	return history.Open(ctx, cfg.HistoryDB)
}

var histLimit int

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		store, err := openHistory(ctx)
		if err != nil {
			return err
		}
		defer store.Close()
		runs, err := store.List(ctx, histLimit)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(runs) == 0 {
			fmt.Fprintln(out, cli.Subtle("No runs recorded yet."))
			return nil
		}
		rows := make([][]string, len(runs))
		for i, r := range runs {
			rows[i] = []string{r.ID[:min(8, len(r.ID))], r.CreatedAt.Local().Format("2006-01-02 15:04"), r.File, strconv.Itoa(r.Rows), strconv.Itoa(r.Columns), r.Model}
		}
		fmt.Fprint(out, cli.Table([]string{"ID", "WHEN", "FILE", "ROWS", "COLS", "MODEL"}, rows))
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print the report of a run (a unique id prefix is enough)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		store, err := openHistory(ctx)
		if err != nil {
			return err
		}
		defer store.Close()
		r, err := store.Get(ctx, args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, cli.Title(fmt.Sprintf("%s  %s  (%s)", r.ID, r.File, r.CreatedAt.Local().Format("2006-01-02 15:04:05"))))
		fmt.Fprintln(out, r.Markdown)
		return nil
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		store, err := openHistory(ctx)
		if err != nil {
			return err
		}
		defer store.Close()
		r, err := store.Get(ctx, args[0])
		if err != nil {
			return err
		}
		if err := store.Delete(ctx, r.ID); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), cli.Success("Deleted run "+r.ID))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyDeleteCmd)
	historyListCmd.Flags().IntVarP(&histLimit, "limit", "n", 20, "number of runs to show (0 = all)")
}
